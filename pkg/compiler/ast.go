package compiler

import (
	"fmt"

	"gup/pkg/arena"
	"gup/pkg/types"
)

// NodeKind tags every AST node variant.
type NodeKind int

const (
	NodeFunc NodeKind = iota
	NodeAsm
	NodeReturnVoid
	NodeReturnImm
	NodeCall
	NodeStruct
	NodeVar
	NodeLoop
	NodeBreak
)

var nodeKindNames = [...]string{
	NodeFunc:       "function",
	NodeAsm:        "inline-asm",
	NodeReturnVoid: "return-void",
	NodeReturnImm:  "return-imm",
	NodeCall:       "call",
	NodeStruct:     "struct",
	NodeVar:        "variable",
	NodeLoop:       "loop",
	NodeBreak:      "break",
}

func (k NodeKind) String() string {
	if int(k) >= 0 && int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is implemented by every AST node. The set is closed: only this
// package can add variants, and each one needs a case in generate.
type Node interface {
	Kind() NodeKind
	String() string
	node()
}

// FuncNode opens a function body.
//
//	fn main -> u8 {
//	   ^^^^  FuncNode{Sym: <main>}
type FuncNode struct {
	Sym SymbolID
}

func (*FuncNode) node()            {}
func (*FuncNode) Kind() NodeKind   { return NodeFunc }
func (f *FuncNode) String() string { return fmt.Sprintf("FuncNode(sym=%d)", f.Sym) }

// AsmNode is passed through to the output verbatim.
type AsmNode struct {
	Text string
}

func (*AsmNode) node()            {}
func (*AsmNode) Kind() NodeKind   { return NodeAsm }
func (a *AsmNode) String() string { return fmt.Sprintf("AsmNode(%q)", a.Text) }

type ReturnVoidNode struct{}

func (*ReturnVoidNode) node()          {}
func (*ReturnVoidNode) Kind() NodeKind { return NodeReturnVoid }
func (*ReturnVoidNode) String() string { return "ReturnVoidNode" }

// ReturnImmNode returns a literal in the enclosing function's return register.
type ReturnImmNode struct {
	Value uint64
}

func (*ReturnImmNode) node()            {}
func (*ReturnImmNode) Kind() NodeKind   { return NodeReturnImm }
func (r *ReturnImmNode) String() string { return fmt.Sprintf("ReturnImmNode(%d)", r.Value) }

type CallNode struct {
	Sym SymbolID
}

func (*CallNode) node()            {}
func (*CallNode) Kind() NodeKind   { return NodeCall }
func (c *CallNode) String() string { return fmt.Sprintf("CallNode(sym=%d)", c.Sym) }

// FieldNode is one member of a structure.
type FieldNode struct {
	Name string
	Type types.DataType
}

// StructNode represents struct Name { u8 a; u32 b; };
type StructNode struct {
	Sym    SymbolID
	Fields []FieldNode
}

func (*StructNode) node()          {}
func (*StructNode) Kind() NodeKind { return NodeStruct }
func (s *StructNode) String() string {
	return fmt.Sprintf("StructNode(sym=%d, fields=%v)", s.Sym, s.Fields)
}

// VarNode represents a global u32 name = value;
type VarNode struct {
	Sym   SymbolID
	Value uint64
}

func (*VarNode) node()            {}
func (*VarNode) Kind() NodeKind   { return NodeVar }
func (v *VarNode) String() string { return fmt.Sprintf("VarNode(sym=%d, value=%d)", v.Sym, v.Value) }

// LoopNode marks either the entry of a loop body or, with Epilogue set, its
// closing brace.
type LoopNode struct {
	Epilogue bool
}

func (*LoopNode) node()          {}
func (*LoopNode) Kind() NodeKind { return NodeLoop }
func (l *LoopNode) String() string {
	if l.Epilogue {
		return "LoopNode(epilogue)"
	}
	return "LoopNode(entry)"
}

type BreakNode struct{}

func (*BreakNode) node()          {}
func (*BreakNode) Kind() NodeKind { return NodeBreak }
func (*BreakNode) String() string { return "BreakNode" }

// nodeArena allocates every AST node of one compilation unit. Each variant
// has its own slab so nodes never move once handed out.
type nodeArena struct {
	funcs   *arena.Pool[FuncNode]
	asms    *arena.Pool[AsmNode]
	retVoid *arena.Pool[ReturnVoidNode]
	retImm  *arena.Pool[ReturnImmNode]
	calls   *arena.Pool[CallNode]
	structs *arena.Pool[StructNode]
	vars    *arena.Pool[VarNode]
	loops   *arena.Pool[LoopNode]
	breaks  *arena.Pool[BreakNode]

	limit     int // total nodes; 0 means unlimited
	count     int
	destroyed bool
}

func newNodeArena(limit int) *nodeArena {
	return &nodeArena{
		funcs:   arena.NewPool[FuncNode](64, 0),
		asms:    arena.NewPool[AsmNode](256, 0),
		retVoid: arena.NewPool[ReturnVoidNode](64, 0),
		retImm:  arena.NewPool[ReturnImmNode](64, 0),
		calls:   arena.NewPool[CallNode](128, 0),
		structs: arena.NewPool[StructNode](32, 0),
		vars:    arena.NewPool[VarNode](64, 0),
		loops:   arena.NewPool[LoopNode](32, 0),
		breaks:  arena.NewPool[BreakNode](32, 0),
		limit:   max(limit, 0),
	}
}

func allocNode[T any](a *nodeArena, p *arena.Pool[T]) (*T, error) {
	if a.limit > 0 && a.count >= a.limit {
		return nil, arena.ErrOutOfMemory
	}
	n, err := p.New()
	if err != nil {
		return nil, err
	}
	a.count++
	return n, nil
}

func (a *nodeArena) newFunc(sym SymbolID) (*FuncNode, error) {
	n, err := allocNode(a, a.funcs)
	if err != nil {
		return nil, err
	}
	n.Sym = sym
	return n, nil
}

func (a *nodeArena) newAsm(text string) (*AsmNode, error) {
	n, err := allocNode(a, a.asms)
	if err != nil {
		return nil, err
	}
	n.Text = text
	return n, nil
}

func (a *nodeArena) newReturnVoid() (*ReturnVoidNode, error) {
	return allocNode(a, a.retVoid)
}

func (a *nodeArena) newReturnImm(v uint64) (*ReturnImmNode, error) {
	n, err := allocNode(a, a.retImm)
	if err != nil {
		return nil, err
	}
	n.Value = v
	return n, nil
}

func (a *nodeArena) newCall(sym SymbolID) (*CallNode, error) {
	n, err := allocNode(a, a.calls)
	if err != nil {
		return nil, err
	}
	n.Sym = sym
	return n, nil
}

func (a *nodeArena) newStruct(sym SymbolID, fields []FieldNode) (*StructNode, error) {
	n, err := allocNode(a, a.structs)
	if err != nil {
		return nil, err
	}
	n.Sym = sym
	n.Fields = fields
	return n, nil
}

func (a *nodeArena) newVar(sym SymbolID, v uint64) (*VarNode, error) {
	n, err := allocNode(a, a.vars)
	if err != nil {
		return nil, err
	}
	n.Sym = sym
	n.Value = v
	return n, nil
}

func (a *nodeArena) newLoop(epilogue bool) (*LoopNode, error) {
	n, err := allocNode(a, a.loops)
	if err != nil {
		return nil, err
	}
	n.Epilogue = epilogue
	return n, nil
}

func (a *nodeArena) newBreak() (*BreakNode, error) {
	return allocNode(a, a.breaks)
}

// Len returns the number of nodes allocated.
func (a *nodeArena) Len() int { return a.count }

// Blocks returns the number of slab chunks held across all variants.
func (a *nodeArena) Blocks() int {
	return a.funcs.Blocks() + a.asms.Blocks() + a.retVoid.Blocks() +
		a.retImm.Blocks() + a.calls.Blocks() + a.structs.Blocks() +
		a.vars.Blocks() + a.loops.Blocks() + a.breaks.Blocks()
}

func (a *nodeArena) Destroyed() bool { return a.destroyed }

// Destroy releases every node. A second call does nothing.
func (a *nodeArena) Destroy() {
	if a.destroyed {
		return
	}
	a.funcs.Destroy()
	a.asms.Destroy()
	a.retVoid.Destroy()
	a.retImm.Destroy()
	a.calls.Destroy()
	a.structs.Destroy()
	a.vars.Destroy()
	a.loops.Destroy()
	a.breaks.Destroy()
	a.count = 0
	a.destroyed = true
}
