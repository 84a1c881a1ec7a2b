package mach

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"gup/pkg/types"
)

func TestEmitterX86_64(t *testing.T) {
	tests := []struct {
		name     string
		emit     func(e *Emitter) error
		expected string
	}{
		{
			name:     "Private Function",
			emit:     func(e *Emitter) error { return e.Func("main", false) },
			expected: "main:\n",
		},
		{
			name:     "Public Function",
			emit:     func(e *Emitter) error { return e.Func("main", true) },
			expected: "[global main]\nmain:\n",
		},
		{
			name:     "Inline Asm",
			emit:     func(e *Emitter) error { return e.Asm("mov rax, 60") },
			expected: "\tmov rax, 60\n",
		},
		{
			name:     "Return Void",
			emit:     func(e *Emitter) error { return e.RetVoid() },
			expected: "\tret\n",
		},
		{
			name:     "Return u8",
			emit:     func(e *Emitter) error { return e.RetImm(types.Width8, 7) },
			expected: "\tmov al, 7\n\tret\n",
		},
		{
			name:     "Return u16",
			emit:     func(e *Emitter) error { return e.RetImm(types.Width16, 300) },
			expected: "\tmov ax, 300\n\tret\n",
		},
		{
			name:     "Return u64",
			emit:     func(e *Emitter) error { return e.RetImm(types.Width64, 18446744073709551615) },
			expected: "\tmov rax, 18446744073709551615\n\tret\n",
		},
		{
			name:     "Call",
			emit:     func(e *Emitter) error { return e.Call("puts") },
			expected: "\tcall puts\n",
		},
		{
			name: "Loop Label And Jump",
			emit: func(e *Emitter) error {
				if err := e.Label("L.0"); err != nil {
					return err
				}
				return e.Jump("L.0")
			},
			expected: "L.0:\n\tjmp L.0\n",
		},
		{
			name:     "Field",
			emit:     func(e *Emitter) error { return e.Field("point", "x", types.U32) },
			expected: "point.x: dd 0\n",
		},
		{
			name:     "Global Data",
			emit:     func(e *Emitter) error { return e.Data("counter", types.U16, 5, true) },
			expected: "[global counter]\ncounter: dw 5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.emit(NewEmitter(&buf, X86_64)); err != nil {
				t.Fatalf("emit failed: %v", err)
			}
			if buf.String() != tt.expected {
				t.Errorf("got %q, want %q", buf.String(), tt.expected)
			}
		})
	}
}

func TestEmitterAArch64(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf, AArch64)
	if err := e.Func("main", true); err != nil {
		t.Fatal(err)
	}
	if err := e.RetImm(types.Width64, 42); err != nil {
		t.Fatal(err)
	}
	if err := e.Field("point", "y", types.U16); err != nil {
		t.Fatal(err)
	}
	want := ".global main\nmain:\n\tldr x0, =42\n\tret\npoint.y: .hword 0\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestUnmapped(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf, X86_64)
	if err := e.RetImm(types.WidthNone, 1); !errors.Is(err, ErrUnmapped) {
		t.Errorf("RetImm with no width: expected ErrUnmapped, got %v", err)
	}
	if err := e.Field("s", "f", types.Void); !errors.Is(err, ErrUnmapped) {
		t.Errorf("Field of void: expected ErrUnmapped, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected nothing written on failure, got %q", buf.String())
	}
}

func TestLookup(t *testing.T) {
	if got := Names(); !reflect.DeepEqual(got, []string{"aarch64", "x86_64"}) {
		t.Errorf("Names: got %v", got)
	}
	tgt, err := Lookup("x86_64")
	if err != nil || tgt != X86_64 {
		t.Errorf("Lookup(x86_64): got %v, %v", tgt, err)
	}
	if _, err := Lookup("mips"); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("Lookup(mips): expected ErrUnknownTarget, got %v", err)
	}

	argv := X86_64.Assemble("a.asm", "a.o", "")
	if !reflect.DeepEqual(argv, []string{"nasm", "-felf64", "a.asm", "-o", "a.o"}) {
		t.Errorf("x86_64 assemble argv: %v", argv)
	}
}
