package compiler

import (
	"errors"
	"fmt"

	"gup/pkg/arena"
)

// Error kinds. Every error returned by this package matches exactly one of
// these through errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOutOfMemory     = arena.ErrOutOfMemory
	ErrLexical         = errors.New("lexical error")
	ErrSyntax          = errors.New("syntax error")
	ErrSemantic        = errors.New("semantic error")
	ErrBadNode         = errors.New("bad node type")
)

var (
	ErrBadChar            = fmt.Errorf("%w: bad token", ErrLexical)
	ErrUnterminatedString = fmt.Errorf("%w: unterminated string", ErrLexical)
	ErrNumberRange        = fmt.Errorf("%w: number out of range", ErrLexical)

	ErrUnexpectedBrace = fmt.Errorf("%w: unexpected closing brace", ErrSemantic)
	ErrMissingBrace    = fmt.Errorf("%w: unexpected end of file, missing closing brace", ErrSemantic)
	ErrNotFunction     = fmt.Errorf("%w: not a function", ErrSemantic)
	ErrNoFunction      = fmt.Errorf("%w: not inside a function", ErrSemantic)
	ErrNoSymbol        = fmt.Errorf("%w: missing symbol", ErrSemantic)
)

// Error is a diagnostic tied to the source line it was raised on.
type Error struct {
	Line int
	Err  error  // kind, see the Err* variables
	Msg  string // optional detail
}

func (e *Error) message() string {
	if e.Msg == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Msg)
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.message())
}

func (e *Error) Unwrap() error { return e.Err }
