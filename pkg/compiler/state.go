package compiler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gup/pkg/arena"
	"gup/pkg/mach"
)

// DefaultOutput is where Open writes assembly when Config.Output is empty.
const DefaultOutput = "gupgen.asm"

// DefaultTarget is the machine layer used when Config.Target is empty.
const DefaultTarget = "x86_64"

type Config struct {
	Target     string       // machine layer name, see mach.Names
	Output     string       // output path used by Open
	ArenaLimit int          // bytes the general arena may reserve; 0 is unlimited
	NodeLimit  int          // AST nodes per unit; 0 is unlimited
	Logger     *slog.Logger // nil discards all traces
}

type blockKind int

const (
	blockFunc blockKind = iota
	blockLoop
)

// State threads one compilation unit through the lexer, parser and code
// generator. Nothing in it is shared between units, so independent States
// may run side by side.
type State struct {
	cfg     Config
	out     *bufio.Writer
	closers []io.Closer
	outPath string

	lex  *Lexer
	emit *mach.Emitter
	log  *slog.Logger

	// Live only while Parse runs.
	strs  *arena.Arena
	nodes *nodeArena
	syms  *SymbolTable

	curFunc SymbolID    // function whose body is open, or NoSymbol
	lastTok Token       // token that began the previous top-level form
	labels  int         // next loop label number
	loops   []int       // labels of open loops, innermost last
	blocks  []blockKind // open braces, innermost last
}

// NewState prepares a unit that reads source from r and writes assembly to w.
func NewState(r io.Reader, w io.Writer, cfg Config) (*State, error) {
	if r == nil || w == nil {
		return nil, fmt.Errorf("%w: nil source or output", ErrInvalidArgument)
	}
	if cfg.Target == "" {
		cfg.Target = DefaultTarget
	}
	tgt, err := mach.Lookup(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	out := bufio.NewWriter(w)
	return &State{
		cfg:     cfg,
		out:     out,
		lex:     NewLexer(r, nil),
		emit:    mach.NewEmitter(out, tgt),
		log:     logger,
		curFunc: NoSymbol,
	}, nil
}

// Open prepares a unit for the source file at path. The assembly goes to
// cfg.Output, or DefaultOutput when that is empty.
func Open(path string, cfg Config) (*State, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty input path", ErrInvalidArgument)
	}
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	outPath := cfg.Output
	if outPath == "" {
		outPath = DefaultOutput
	}
	out, err := os.Create(outPath)
	if err != nil {
		in.Close()
		return nil, err
	}

	st, err := NewState(in, out, cfg)
	if err != nil {
		in.Close()
		out.Close()
		os.Remove(outPath)
		return nil, err
	}
	st.closers = []io.Closer{in, out}
	st.outPath = outPath
	return st, nil
}

// OutputPath returns the file Open created, or "" for a State built over
// caller-provided streams.
func (st *State) OutputPath() string { return st.outPath }

// Target returns the machine layer the unit emits through.
func (st *State) Target() *mach.Target { return st.emit.Target() }

// Line returns the current source line.
func (st *State) Line() int { return st.lex.Line() }

// Close releases the files opened by Open.
func (st *State) Close() error {
	var errs []error
	if err := st.out.Flush(); err != nil {
		errs = append(errs, err)
	}
	for _, c := range st.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	st.closers = nil
	return errors.Join(errs...)
}

// setup creates the arenas and the symbol table for one Parse.
func (st *State) setup() {
	st.strs = arena.New(st.cfg.ArenaLimit)
	st.nodes = newNodeArena(st.cfg.NodeLimit)
	st.syms = NewSymbolTable()
	st.lex.strs = st.strs

	st.curFunc = NoSymbol
	st.lastTok = Token{}
	st.loops = st.loops[:0]
	st.blocks = st.blocks[:0]
}

// teardown releases the symbol table, then the AST arena, then the general
// arena, and flushes whatever was emitted.
func (st *State) teardown() error {
	st.log.Debug("teardown", "symbols", st.syms.Len(), "nodes", st.nodes.Len(), "arena_bytes", st.strs.Reserved())
	if st.log.Enabled(context.Background(), slog.LevelDebug) {
		st.log.Debug(st.syms.String())
	}

	st.syms.Destroy()
	st.nodes.Destroy()
	st.strs.Destroy()
	st.curFunc = NoSymbol

	return st.out.Flush()
}

// Parse compiles the whole unit, writing assembly as each construct is
// recognised. The first error stops the unit; the arenas and symbol table
// are released on every path before Parse returns.
func (st *State) Parse() (err error) {
	st.setup()
	defer func() {
		if ferr := st.teardown(); err == nil && ferr != nil {
			err = ferr
		}
	}()
	return st.run()
}
