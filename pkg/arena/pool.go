package arena

// DefaultChunkLen is the number of items per pool chunk.
const DefaultChunkLen = 256

// Pool is a typed slab allocator. Items live in fixed-length chunks that are
// never regrown, so pointers handed out stay stable until Destroy.
type Pool[T any] struct {
	chunks    [][]T
	chunkLen  int
	limit     int // max items; 0 means unlimited
	count     int
	destroyed bool
}

// NewPool returns an empty pool. chunkLen <= 0 selects DefaultChunkLen and a
// positive limit caps the number of items the pool will hand out.
func NewPool[T any](chunkLen, limit int) *Pool[T] {
	if chunkLen <= 0 {
		chunkLen = DefaultChunkLen
	}
	if limit < 0 {
		limit = 0
	}
	return &Pool[T]{chunkLen: chunkLen, limit: limit}
}

// New returns a pointer to a zero T owned by the pool.
func (p *Pool[T]) New() (*T, error) {
	if p.destroyed {
		return nil, ErrDestroyed
	}
	if p.limit > 0 && p.count >= p.limit {
		return nil, ErrOutOfMemory
	}

	n := len(p.chunks)
	if n == 0 || len(p.chunks[n-1]) == cap(p.chunks[n-1]) {
		p.chunks = append(p.chunks, make([]T, 0, p.chunkLen))
		n++
	}
	chunk := &p.chunks[n-1]
	var zero T
	*chunk = append(*chunk, zero)
	p.count++
	return &(*chunk)[len(*chunk)-1], nil
}

// Len reports the number of items handed out.
func (p *Pool[T]) Len() int { return p.count }

// Blocks reports the number of chunks currently held.
func (p *Pool[T]) Blocks() int { return len(p.chunks) }

// Destroyed reports whether Destroy has run.
func (p *Pool[T]) Destroyed() bool { return p.destroyed }

// Destroy releases every chunk. A second call does nothing.
func (p *Pool[T]) Destroy() {
	if p.destroyed {
		return
	}
	for i := range p.chunks {
		p.chunks[i] = nil
	}
	p.chunks = nil
	p.count = 0
	p.destroyed = true
}
