package compiler

import (
	"errors"
	"strconv"

	"fortio.org/safecast"

	"gup/pkg/mach"
	"gup/pkg/types"
)

// generate lowers one node to assembly through the machine layer. Every
// node variant has a case; anything else is ErrBadNode.
func (st *State) generate(n Node) error {
	st.debugf("generate %s", n)

	var err error
	switch n := n.(type) {
	case *FuncNode:
		err = st.genFunc(n)
	case *AsmNode:
		err = st.emit.Asm(n.Text)
	case *ReturnVoidNode:
		err = st.genReturnVoid()
	case *ReturnImmNode:
		err = st.genReturnImm(n)
	case *CallNode:
		err = st.genCall(n)
	case *StructNode:
		err = st.genStruct(n)
	case *VarNode:
		err = st.genVar(n)
	case *LoopNode:
		err = st.genLoop(n)
	case *BreakNode:
		err = st.genBreak()
	default:
		return st.errorf(ErrBadNode, "%T", n)
	}

	if errors.Is(err, mach.ErrUnmapped) {
		return st.errorf(ErrSemantic, "%v", err)
	}
	return err
}

// symbol resolves a node's symbol reference.
func (st *State) symbol(id SymbolID) (*Symbol, error) {
	sym, ok := st.syms.Lookup(id)
	if !ok {
		return nil, st.errorf(ErrNoSymbol, "symbol %d", id)
	}
	return sym, nil
}

// currentFunc returns the function whose body is open.
func (st *State) currentFunc() (*Symbol, error) {
	if st.curFunc == NoSymbol {
		return nil, &Error{Line: st.lex.Line(), Err: ErrNoFunction}
	}
	return st.symbol(st.curFunc)
}

func (st *State) genFunc(n *FuncNode) error {
	sym, err := st.symbol(n.Sym)
	if err != nil {
		return err
	}
	return st.emit.Func(sym.Name, sym.Public)
}

func (st *State) genReturnVoid() error {
	if _, err := st.currentFunc(); err != nil {
		return err
	}
	return st.emit.RetVoid()
}

func (st *State) genReturnImm(n *ReturnImmNode) error {
	fn, err := st.currentFunc()
	if err != nil {
		return err
	}
	w := fn.Type.Width()
	if w == types.WidthNone {
		return st.errorf(ErrSemantic, "%s function %q cannot return a value", fn.Type, fn.Name)
	}
	if !fits(n.Value, w) {
		return st.errorf(ErrSemantic, "%d does not fit in %s", n.Value, fn.Type)
	}
	return st.emit.RetImm(w, n.Value)
}

func (st *State) genCall(n *CallNode) error {
	if _, err := st.currentFunc(); err != nil {
		return err
	}
	sym, err := st.symbol(n.Sym)
	if err != nil {
		return err
	}
	if sym.Kind != SymFunc {
		return st.errorf(ErrNotFunction, "%q is a %s", sym.Name, sym.Kind)
	}
	return st.emit.Call(sym.Name)
}

// genStruct emits one zeroed data label per field. Fields without a name
// or without storage are skipped.
func (st *State) genStruct(n *StructNode) error {
	sym, err := st.symbol(n.Sym)
	if err != nil {
		return err
	}
	for _, f := range n.Fields {
		if f.Name == "" || !f.Type.Sized() {
			st.debugf("skip field %s.%s (%s)", sym.Name, f.Name, f.Type)
			continue
		}
		if err := st.emit.Field(sym.Name, f.Name, f.Type); err != nil {
			return err
		}
	}
	return nil
}

func (st *State) genVar(n *VarNode) error {
	sym, err := st.symbol(n.Sym)
	if err != nil {
		return err
	}
	if !fits(n.Value, sym.Type.Width()) {
		return st.errorf(ErrSemantic, "%d does not fit in %s", n.Value, sym.Type)
	}
	return st.emit.Data(sym.Name, sym.Type, n.Value, sym.Public)
}

// genLoop emits the loop label on entry. The epilogue jumps back to it and
// emits the end label that break targets.
func (st *State) genLoop(n *LoopNode) error {
	if n.Epilogue {
		if len(st.loops) == 0 {
			return st.errorf(ErrSemantic, "loop epilogue without a loop")
		}
		id := st.loops[len(st.loops)-1]
		st.loops = st.loops[:len(st.loops)-1]
		if err := st.emit.Jump(loopLabel(id)); err != nil {
			return err
		}
		return st.emit.Label(loopLabel(id) + ".end")
	}

	if _, err := st.currentFunc(); err != nil {
		return err
	}
	id := st.labels
	st.labels++
	st.loops = append(st.loops, id)
	return st.emit.Label(loopLabel(id))
}

func (st *State) genBreak() error {
	if len(st.loops) == 0 {
		return st.errorf(ErrSemantic, "break outside of a loop")
	}
	return st.emit.Jump(loopLabel(st.loops[len(st.loops)-1]) + ".end")
}

func loopLabel(id int) string {
	return "L." + strconv.Itoa(id)
}

// fits reports whether v can be held in a register of width w.
func fits(v uint64, w types.Width) bool {
	var err error
	switch w {
	case types.Width8:
		_, err = safecast.Conv[uint8](v)
	case types.Width16:
		_, err = safecast.Conv[uint16](v)
	case types.Width32:
		_, err = safecast.Conv[uint32](v)
	case types.Width64:
		return true
	default:
		return false
	}
	return err == nil
}
