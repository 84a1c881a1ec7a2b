package compiler

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestParse_TeardownOnce(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  error
	}{
		{"Success", "fn f -> void { return; }", nil},
		{"Missing Brace", "fn f -> void {", ErrMissingBrace},
		{"Unexpected Brace", "}", ErrUnexpectedBrace},
		{"Syntax Error", "fn f void;", ErrSyntax},
		{"Lexical Error", "fn f -> void { # }", ErrBadChar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			var out bytes.Buffer
			st, err := NewState(strings.NewReader(tt.input), &out, Config{Logger: newTestLogger(&logs)})
			if err != nil {
				t.Fatal(err)
			}

			err = st.Parse()
			if tt.kind == nil && err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if tt.kind != nil && !errors.Is(err, tt.kind) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.kind)
			}

			if n := strings.Count(logs.String(), "msg=teardown"); n != 1 {
				t.Errorf("teardown ran %d times, want 1\n%s", n, logs.String())
			}
			if !st.syms.Destroyed() || !st.nodes.Destroyed() || !st.strs.Destroyed() {
				t.Errorf("not torn down: symbols=%v nodes=%v arena=%v",
					st.syms.Destroyed(), st.nodes.Destroyed(), st.strs.Destroyed())
			}
			if st.syms.Len() != 0 || st.nodes.Len() != 0 || st.strs.Blocks() != 0 {
				t.Errorf("resources survived teardown: %d symbols, %d nodes, %d blocks",
					st.syms.Len(), st.nodes.Len(), st.strs.Blocks())
			}
		})
	}
}

func TestParse_Logging(t *testing.T) {
	var logs bytes.Buffer
	_, err := Compile("fn f -> u8 {\n\treturn;\n}\npub struct s { };\n}", Config{Logger: newTestLogger(&logs)})
	if !errors.Is(err, ErrUnexpectedBrace) {
		t.Fatalf("error = %v, want %v", err, ErrUnexpectedBrace)
	}

	out := logs.String()
	assertContains(t, out, `level=WARN msg="bare return in u8 function \"f\"" line=2`)
	assertContains(t, out, `level=WARN msg="pub has no effect on STRUCT" line=4`)
	assertContains(t, out, `level=ERROR msg="semantic error: unexpected closing brace" line=5`)
	assertContains(t, out, "level=DEBUG msg=\"token FN")
	assertContains(t, out, "level=DEBUG msg=\"generate FuncNode(sym=0)\"")
	assertContains(t, out, "Symbols:")
	if n := strings.Count(out, "level=ERROR"); n != 1 {
		t.Errorf("logged %d errors, want 1", n)
	}
}

func TestParse_ArenaLimit(t *testing.T) {
	_, err := Compile("fn main -> void;", Config{ArenaLimit: 4})
	if !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("error = %v, want %v", err, ErrOutOfMemory)
	}

	_, err = Compile("fn f -> void { return; return; }", Config{NodeLimit: 2})
	if !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("error = %v, want %v", err, ErrOutOfMemory)
	}
}

func TestNewState_Errors(t *testing.T) {
	var out bytes.Buffer
	if _, err := NewState(nil, &out, Config{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil reader error = %v", err)
	}
	if _, err := NewState(strings.NewReader(""), nil, Config{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil writer error = %v", err)
	}
	if _, err := NewState(strings.NewReader(""), &out, Config{Target: "z80"}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unknown target error = %v", err)
	}

	st, err := NewState(strings.NewReader(""), &out, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if st.Target().Name != DefaultTarget {
		t.Errorf("default target = %s, want %s", st.Target().Name, DefaultTarget)
	}
}

func TestIndependentStates(t *testing.T) {
	var outA, outB bytes.Buffer
	a, err := NewState(strings.NewReader("fn a -> void { loop { } }"), &outA, Config{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewState(strings.NewReader("fn b -> void { loop { } }"), &outB, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Parse(); err != nil {
		t.Fatal(err)
	}
	if err := b.Parse(); err != nil {
		t.Fatal(err)
	}
	// Each unit numbers its own labels.
	assertContains(t, outA.String(), "a:\nL.0:")
	assertContains(t, outB.String(), "b:\nL.0:")
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.gup")
	if err := os.WriteFile(src, []byte("pub fn main -> u8 { return 3; }\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "main.asm")
	st, err := Open(src, Config{Output: out})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if st.OutputPath() != out {
		t.Errorf("OutputPath() = %q, want %q", st.OutputPath(), out)
	}
	if err := st.Parse(); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	code, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if want := "[global main]\nmain:\n\tmov al, 3\n\tret\n"; string(code) != want {
		t.Errorf("output =\n%s\nwant:\n%s", code, want)
	}
}

func TestOpen_DefaultOutput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile("in.gup", []byte("fn f -> void;"), 0o644); err != nil {
		t.Fatal(err)
	}

	st, err := Open("in.gup", Config{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := st.Parse(); err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, DefaultOutput)); err != nil {
		t.Errorf("default output not created: %v", err)
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open("", Config{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty path error = %v, want %v", err, ErrInvalidArgument)
	}
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "missing.gup"), Config{Output: filepath.Join(dir, "x.asm")}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing input error = %v, want %v", err, os.ErrNotExist)
	}

	src := filepath.Join(dir, "in.gup")
	os.WriteFile(src, nil, 0o644)
	out := filepath.Join(dir, "bad.asm")
	if _, err := Open(src, Config{Output: out, Target: "pdp11"}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("bad target error = %v, want %v", err, ErrInvalidArgument)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("output left behind after failed Open: %v", err)
	}
}
