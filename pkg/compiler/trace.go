package compiler

import (
	"errors"
	"fmt"
	"log/slog"
)

// errorf builds an *Error of the given kind at the current line.
func (st *State) errorf(kind error, format string, args ...any) error {
	return &Error{Line: st.lex.Line(), Err: kind, Msg: fmt.Sprintf(format, args...)}
}

// fail logs err at error level and returns it as an *Error. It is called
// once, by the driver, for the error that ends the unit.
func (st *State) fail(err error) error {
	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Line: st.lex.Line(), Err: err}
	}
	st.log.Error(e.message(), slog.Int("line", e.Line))
	return e
}

func (st *State) warnf(format string, args ...any) {
	st.log.Warn(fmt.Sprintf(format, args...), slog.Int("line", st.lex.Line()))
}

func (st *State) debugf(format string, args ...any) {
	st.log.Debug(fmt.Sprintf(format, args...), slog.Int("line", st.lex.Line()))
}
