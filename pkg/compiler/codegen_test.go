package compiler

import (
	"errors"
	"strings"
	"testing"

	"gup/pkg/types"
)

// assertContains checks if the generated code contains the expected substring.
func assertContains(t *testing.T, code, expected string) {
	t.Helper()
	if !strings.Contains(code, expected) {
		t.Errorf("Expected code to contain %q, but it didn't.\nCode:\n%s", expected, code)
	}
}

func TestGenerate_Program(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		target string
		want   string
	}{
		{
			name: "Public Function",
			input: `pub fn main -> u32 {
	__asm("nop");
	return 5;
}`,
			want: "[global main]\nmain:\n\tnop\n\tmov eax, 5\n\tret\n",
		},
		{
			name:  "Private Void Function",
			input: "fn f -> void { return; }",
			want:  "f:\n\tret\n",
		},
		{
			name:  "Prototype Emits Nothing",
			input: "fn f -> u8;",
			want:  "",
		},
		{
			name:  "Return Registers",
			input: "fn a -> u8 { return 1; } fn b -> u16 { return 2; } fn c -> u64 { return 3; }",
			want:  "a:\n\tmov al, 1\n\tret\nb:\n\tmov ax, 2\n\tret\nc:\n\tmov rax, 3\n\tret\n",
		},
		{
			name:  "Top Level Asm",
			input: `__asm("section .text");`,
			want:  "\tsection .text\n",
		},
		{
			name:  "Call",
			input: "fn g -> void; fn f -> void { g(); return; }",
			want:  "f:\n\tcall g\n\tret\n",
		},
		{
			name:  "Struct Fields",
			input: "struct point { u16 x; u16 y; void pad; u64 z; u8 w; };",
			want:  "point.x: dw 0\npoint.y: dw 0\npoint.z: dq 0\npoint.w: db 0\n",
		},
		{
			name:  "Globals",
			input: "pub u32 counter = 5; u8 flag;",
			want:  "[global counter]\ncounter: dd 5\nflag: db 0\n",
		},
		{
			name: "Nested Loops",
			input: `fn f -> void {
	loop {
		loop { break; }
		break;
	}
	return;
}`,
			want: "f:\nL.0:\nL.1:\n\tjmp L.1.end\n\tjmp L.1\nL.1.end:\n\tjmp L.0.end\n\tjmp L.0\nL.0.end:\n\tret\n",
		},
		{
			name:  "Loop Labels Unique Across Functions",
			input: "fn a -> void { loop { } } fn b -> void { loop { } }",
			want:  "a:\nL.0:\n\tjmp L.0\nL.0.end:\nb:\nL.1:\n\tjmp L.1\nL.1.end:\n",
		},
		{
			name:   "AArch64",
			target: "aarch64",
			input:  "pub fn main -> u32 { loop { break; } return 7; } u16 v = 9;",
			want:   ".global main\nmain:\nL.0:\n\tb L.0.end\n\tb L.0\nL.0.end:\n\tldr w0, =7\n\tret\nv: .hword 9\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := Compile(tt.input, Config{Target: tt.target})
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			if code != tt.want {
				t.Errorf("Compile() =\n%s\nwant:\n%s", code, tt.want)
			}
		})
	}
}

func TestGenerate_AsmBeforePunctuation(t *testing.T) {
	// The payload is emitted before the closing punctuation is checked.
	code, err := Compile(`fn f -> void { __asm("int3" ;`, Config{})
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("error = %v, want %v", err, ErrSyntax)
	}
	assertContains(t, code, "f:\n\tint3\n")
}

func TestGenerate_ReturnRange(t *testing.T) {
	tests := []struct {
		typ   string
		value string
		ok    bool
	}{
		{"u8", "255", true},
		{"u8", "256", false},
		{"u16", "65535", true},
		{"u16", "65536", false},
		{"u32", "4294967295", true},
		{"u32", "4294967296", false},
		{"u64", "18446744073709551615", true},
	}

	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.value, func(t *testing.T) {
			code, err := Compile("fn f -> "+tt.typ+" { return "+tt.value+"; }", Config{})
			if tt.ok {
				if err != nil {
					t.Fatalf("Compile failed: %v", err)
				}
				assertContains(t, code, ", "+tt.value+"\n\tret")
				return
			}
			if !errors.Is(err, ErrSemantic) {
				t.Errorf("error = %v, want %v", err, ErrSemantic)
			}
		})
	}
}

// strayNode is a Node with no code generation rule.
type strayNode struct{}

func (strayNode) node()          {}
func (strayNode) Kind() NodeKind { return NodeKind(-1) }
func (strayNode) String() string { return "strayNode" }

func TestGenerate_BadNode(t *testing.T) {
	st, _, err := parseUnit(t, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := st.generate(strayNode{}); !errors.Is(err, ErrBadNode) {
		t.Errorf("generate(strayNode) error = %v, want %v", err, ErrBadNode)
	}
}

func TestGenerate_EveryKind(t *testing.T) {
	st, _, err := parseUnit(t, "fn f -> u16 {")
	if !errors.Is(err, ErrMissingBrace) {
		t.Fatalf("error = %v, want %v", err, ErrMissingBrace)
	}
	fn, _ := st.syms.LookupName("f")
	sid, _ := st.syms.Declare("s", SymStruct)
	vid, _ := st.syms.Declare("v", SymVar)
	v, _ := st.syms.Lookup(vid)
	v.Type = types.U8

	nodes := []Node{
		&FuncNode{Sym: fn.ID},
		&AsmNode{Text: "nop"},
		&ReturnVoidNode{},
		&ReturnImmNode{Value: 1},
		&CallNode{Sym: fn.ID},
		&StructNode{Sym: sid, Fields: []FieldNode{{Name: "a", Type: types.U32}}},
		&VarNode{Sym: vid, Value: 2},
		&LoopNode{},
		&BreakNode{},
		&LoopNode{Epilogue: true},
	}
	seen := map[NodeKind]bool{}
	for _, n := range nodes {
		if err := st.generate(n); err != nil {
			t.Errorf("generate(%s) error = %v", n, err)
		}
		seen[n.Kind()] = true
	}
	for k := range nodeKindNames {
		if !seen[NodeKind(k)] {
			t.Errorf("node kind %s not generated", NodeKind(k))
		}
	}
}

func TestGenerate_DanglingSymbol(t *testing.T) {
	st, _, err := parseUnit(t, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := st.generate(&FuncNode{Sym: 42}); !errors.Is(err, ErrNoSymbol) {
		t.Errorf("error = %v, want %v", err, ErrNoSymbol)
	}
}
