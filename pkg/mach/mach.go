// Package mach is the machine emission layer. A Target is a translation
// table from abstract instruction intents (return, call, declare data) to
// the assembly text of one architecture; Emitter writes that text.
package mach

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gup/pkg/types"
)

var (
	ErrUnknownTarget = errors.New("unknown target")
	ErrUnmapped      = errors.New("no machine mapping")
)

// Target describes everything architecture specific about the output.
type Target struct {
	Name string

	// RetRegs names the ABI return register for each width.
	RetRegs map[types.Width]string
	// SizeDirectives names the data directive for each declared type.
	SizeDirectives map[types.DataType]string

	GlobalFmt  string // export directive, takes the symbol name
	CallFmt    string // takes the label
	JumpFmt    string // takes the label
	MoveImmFmt string // takes the register and the immediate
	Ret        string

	// Assemble returns the argv that turns asmPath into objPath. format is
	// the object format requested by the user and may be ignored.
	Assemble func(asmPath, objPath, format string) []string
}

// RetReg returns the return register for w.
func (t *Target) RetReg(w types.Width) (string, error) {
	reg, ok := t.RetRegs[w]
	if !ok {
		return "", fmt.Errorf("%w: %s has no %d-bit return register", ErrUnmapped, t.Name, w)
	}
	return reg, nil
}

// SizeDirective returns the data directive for dt.
func (t *Target) SizeDirective(dt types.DataType) (string, error) {
	dir, ok := t.SizeDirectives[dt]
	if !ok {
		return "", fmt.Errorf("%w: %s has no size directive for %s", ErrUnmapped, t.Name, dt)
	}
	return dir, nil
}

var targets = map[string]*Target{}

func register(t *Target) {
	targets[t.Name] = t
}

// Lookup returns the target called name.
func Lookup(name string) (*Target, error) {
	t, ok := targets[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %v)", ErrUnknownTarget, name, Names())
	}
	return t, nil
}

// Names lists the registered targets in sorted order.
func Names() []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Emitter writes target assembly text to an output sink.
type Emitter struct {
	w io.Writer
	t *Target
}

func NewEmitter(w io.Writer, t *Target) *Emitter {
	return &Emitter{w: w, t: t}
}

// Target returns the table the emitter translates through.
func (e *Emitter) Target() *Target { return e.t }

func (e *Emitter) line(format string, args ...any) error {
	_, err := fmt.Fprintf(e.w, format+"\n", args...)
	return err
}

func (e *Emitter) insn(format string, args ...any) error {
	return e.line("\t"+format, args...)
}

// Func emits a function label, preceded by the export directive when
// global is set.
func (e *Emitter) Func(name string, global bool) error {
	if global {
		if err := e.line(e.t.GlobalFmt, name); err != nil {
			return err
		}
	}
	return e.Label(name)
}

// Asm passes text through verbatim as one indented instruction line.
func (e *Emitter) Asm(text string) error {
	return e.insn("%s", text)
}

func (e *Emitter) RetVoid() error {
	return e.insn("%s", e.t.Ret)
}

// RetImm moves imm into the return register for w, then returns.
func (e *Emitter) RetImm(w types.Width, imm uint64) error {
	reg, err := e.t.RetReg(w)
	if err != nil {
		return err
	}
	if err := e.insn(e.t.MoveImmFmt, reg, imm); err != nil {
		return err
	}
	return e.RetVoid()
}

func (e *Emitter) Call(label string) error {
	return e.insn(e.t.CallFmt, label)
}

func (e *Emitter) Jump(label string) error {
	return e.insn(e.t.JumpFmt, label)
}

func (e *Emitter) Label(name string) error {
	return e.line("%s:", name)
}

// Field emits one zero-initialised structure field as "<owner>.<name>".
func (e *Emitter) Field(owner, name string, dt types.DataType) error {
	dir, err := e.t.SizeDirective(dt)
	if err != nil {
		return err
	}
	return e.line("%s.%s: %s 0", owner, name, dir)
}

// Data emits a sized, initialised data label.
func (e *Emitter) Data(name string, dt types.DataType, value uint64, global bool) error {
	dir, err := e.t.SizeDirective(dt)
	if err != nil {
		return err
	}
	if global {
		if err := e.line(e.t.GlobalFmt, name); err != nil {
			return err
		}
	}
	return e.line("%s: %s %d", name, dir, value)
}
