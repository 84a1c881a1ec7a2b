// Package arena provides pools that own every allocation made during one
// compilation unit and release all of them together.
//
// Nothing is freed individually. Callers hold non-owning references that
// stay meaningful only until Destroy is called on the pool that issued them.
package arena

import (
	"errors"
	"unsafe"
)

var (
	ErrOutOfMemory = errors.New("arena: out of memory")
	ErrDestroyed   = errors.New("arena: allocation after destroy")
	ErrInvalidSize = errors.New("arena: invalid allocation size")
)

// DefaultBlockSize is the capacity of every block the arena carves small
// allocations from. Requests larger than this get a dedicated block.
const DefaultBlockSize = 4096

// block is one allocation record: a backing byte slab plus a bump offset.
type block struct {
	data []byte
	used int
}

// Arena is a bump allocator over an ordered list of byte blocks.
type Arena struct {
	blocks    []*block
	blockSize int
	limit     int // total bytes the arena may reserve; 0 means unlimited
	reserved  int
	destroyed bool
}

// New returns an empty arena. A positive limit caps the number of bytes the
// arena may reserve from the heap; 0 leaves it unbounded.
func New(limit int) *Arena {
	if limit < 0 {
		limit = 0
	}
	return &Arena{blockSize: DefaultBlockSize, limit: limit}
}

// Alloc returns a zeroed slice of exactly size bytes. The slice's capacity is
// clipped to its length so appends never spill into a neighbour.
func (a *Arena) Alloc(size int) ([]byte, error) {
	if a.destroyed {
		return nil, ErrDestroyed
	}
	if size < 0 {
		return nil, ErrInvalidSize
	}

	if n := len(a.blocks); n > 0 {
		b := a.blocks[n-1]
		if len(b.data)-b.used >= size {
			p := b.data[b.used : b.used+size : b.used+size]
			b.used += size
			return p, nil
		}
	}

	n := a.blockSize
	if size > n {
		n = size
	}
	if a.limit > 0 && a.reserved+n > a.limit {
		// Fall back to a tight block before giving up.
		if a.reserved+size > a.limit {
			return nil, ErrOutOfMemory
		}
		n = size
	}

	b := &block{data: make([]byte, n), used: size}
	a.blocks = append(a.blocks, b)
	a.reserved += n
	return b.data[:size:size], nil
}

// Strdup copies s into arena storage and returns a string backed by it.
func (a *Arena) Strdup(s string) (string, error) {
	buf, err := a.Alloc(len(s))
	if err != nil {
		return "", err
	}
	if len(buf) == 0 {
		return "", nil
	}
	copy(buf, s)
	return unsafe.String(&buf[0], len(buf)), nil
}

// StrdupBytes is Strdup for a byte slice, used when the caller's buffer is
// about to be reused.
func (a *Arena) StrdupBytes(s []byte) (string, error) {
	buf, err := a.Alloc(len(s))
	if err != nil {
		return "", err
	}
	if len(buf) == 0 {
		return "", nil
	}
	copy(buf, s)
	return unsafe.String(&buf[0], len(buf)), nil
}

// Blocks reports how many allocation records the arena currently holds.
func (a *Arena) Blocks() int { return len(a.blocks) }

// Reserved reports the total bytes held across all blocks.
func (a *Arena) Reserved() int { return a.reserved }

// Destroyed reports whether Destroy has run.
func (a *Arena) Destroyed() bool { return a.destroyed }

// Destroy drops every block in one sweep. Calling it on an arena that never
// allocated is fine; a second call does nothing.
func (a *Arena) Destroy() {
	if a.destroyed {
		return
	}
	for i := range a.blocks {
		a.blocks[i] = nil
	}
	a.blocks = nil
	a.reserved = 0
	a.destroyed = true
}
