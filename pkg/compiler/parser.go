package compiler

import (
	"errors"
	"fmt"
	"io"

	"gup/pkg/types"
)

// run is the top-level driver: one token at a time, dispatched on its type.
func (st *State) run() error {
	for {
		tok, err := st.lex.Scan()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st.fail(err)
		}
		st.debugf("token %s", tok)

		if err := st.dispatch(tok); err != nil {
			return st.fail(err)
		}
		st.lastTok = tok
	}

	if len(st.blocks) > 0 {
		return st.fail(ErrMissingBrace)
	}
	return nil
}

func (st *State) dispatch(tok Token) error {
	if st.public() && tok.Type != FN && tok.Type.dataType() == types.Bad {
		st.warnf("pub has no effect on %s", tok.Type)
	}

	switch tok.Type {
	case PUB:
		return nil
	case FN:
		return st.parseFunction()
	case ASM:
		return st.parseAsm()
	case STRUCT:
		return st.parseStruct()
	case VOID, U8, U16, U32, U64:
		return st.parseVar(tok.Type.dataType())
	case RETURN:
		return st.parseReturn()
	case LOOP:
		return st.parseLoop()
	case BREAK:
		return st.parseBreak()
	case IDENTIFIER:
		return st.parseCall(tok)
	case RBRACE:
		return st.closeBlock()
	default:
		return st.errorf(ErrSyntax, "unexpected %s", describe(tok))
	}
}

// describe renders a token for diagnostics.
func describe(tok Token) string {
	switch p := tok.Payload.(type) {
	case TextValue:
		if tok.Type == IDENTIFIER || tok.Type == STRING {
			return fmt.Sprintf("%s %q", tok.Type, string(p))
		}
	case NumberValue:
		return fmt.Sprintf("%s %d", tok.Type, uint64(p))
	}
	return tok.Type.String()
}

// public reports whether the previous top-level token was pub.
func (st *State) public() bool {
	return st.lastTok.Type == PUB
}

// next scans one token inside a form, where end of input is a syntax error.
func (st *State) next(want string) (Token, error) {
	tok, err := st.lex.Scan()
	if errors.Is(err, io.EOF) {
		return tok, st.errorf(ErrSyntax, "expected %s, got end of file", want)
	}
	return tok, err
}

// expect scans one token and fails unless it is of type tt.
func (st *State) expect(tt TokenType) (Token, error) {
	tok, err := st.next(tt.String())
	if err != nil {
		return tok, err
	}
	if tok.Type != tt {
		return tok, st.errorf(ErrSyntax, "expected %s, got %s", tt, describe(tok))
	}
	return tok, nil
}

func (st *State) expectIdent() (string, error) {
	tok, err := st.expect(IDENTIFIER)
	if err != nil {
		return "", err
	}
	name, _ := tok.Text()
	return name, nil
}

func (st *State) parseType() (types.DataType, error) {
	tok, err := st.next("type")
	if err != nil {
		return types.Bad, err
	}
	dt := tok.Type.dataType()
	if dt == types.Bad {
		return types.Bad, st.errorf(ErrSyntax, "expected type, got %s", describe(tok))
	}
	return dt, nil
}

// redeclared reports a name that is already bound.
func (st *State) redeclared(sym *Symbol) error {
	return st.errorf(ErrSemantic, "redeclaration of %s %q", sym.Kind, sym.Name)
}

// parseFunction handles
//
//	fn IDENT -> TYPE ;
//	fn IDENT -> TYPE {
//
// A prototype is bound to its symbol as soon as the name is read; a later
// definition with the same return type reuses it.
func (st *State) parseFunction() error {
	if st.curFunc != NoSymbol {
		return st.errorf(ErrSyntax, "function declared inside function body")
	}
	public := st.public()

	name, err := st.expectIdent()
	if err != nil {
		return err
	}

	sym, reused := st.syms.LookupName(name)
	switch {
	case reused && (sym.Kind != SymFunc || sym.Defined):
		return st.redeclared(sym)
	case !reused:
		id, err := st.syms.Declare(name, SymFunc)
		if err != nil {
			return err
		}
		sym, _ = st.syms.Lookup(id)
	}
	if public {
		sym.Public = true
	}

	if _, err := st.expect(MINUS); err != nil {
		return err
	}
	if _, err := st.expect(GREATER); err != nil {
		return err
	}
	rt, err := st.parseType()
	if err != nil {
		return err
	}
	if reused && sym.Type != rt {
		return st.errorf(ErrSemantic, "function %q declared returning %s, now %s", name, sym.Type, rt)
	}
	sym.Type = rt

	tok, err := st.next("; or {")
	if err != nil {
		return err
	}
	switch tok.Type {
	case SEMICOLON:
		return nil
	case LBRACE:
		sym.Defined = true
		st.curFunc = sym.ID
		st.blocks = append(st.blocks, blockFunc)
		n, err := st.nodes.newFunc(sym.ID)
		if err != nil {
			return err
		}
		return st.generate(n)
	default:
		return st.errorf(ErrSyntax, "expected ; or {, got %s", describe(tok))
	}
}

// parseAsm handles __asm ( STRING ) ; and generates as soon as the text is
// known.
func (st *State) parseAsm() error {
	if _, err := st.expect(LPAREN); err != nil {
		return err
	}
	tok, err := st.expect(STRING)
	if err != nil {
		return err
	}
	text, _ := tok.Text()
	n, err := st.nodes.newAsm(text)
	if err != nil {
		return err
	}
	if err := st.generate(n); err != nil {
		return err
	}

	if _, err := st.expect(RPAREN); err != nil {
		return err
	}
	_, err = st.expect(SEMICOLON)
	return err
}

// parseReturn handles return ; and return NUMBER ;
func (st *State) parseReturn() error {
	tok, err := st.next("NUMBER or ;")
	if err != nil {
		return err
	}

	var n Node
	switch tok.Type {
	case SEMICOLON:
		if fn, ok := st.syms.Lookup(st.curFunc); ok && fn.Type != types.Void {
			st.warnf("bare return in %s function %q", fn.Type, fn.Name)
		}
		n, err = st.nodes.newReturnVoid()
	case NUMBER:
		v, _ := tok.Number()
		n, err = st.nodes.newReturnImm(v)
	default:
		return st.errorf(ErrSyntax, "expected NUMBER or ;, got %s", describe(tok))
	}
	if err != nil {
		return err
	}
	if err := st.generate(n); err != nil {
		return err
	}

	if tok.Type == NUMBER {
		_, err = st.expect(SEMICOLON)
	}
	return err
}

// parseCall handles IDENT ( ) ; where name is the identifier just scanned.
// The callee must already be declared.
func (st *State) parseCall(name Token) error {
	callee, _ := name.Text()
	if _, err := st.expect(LPAREN); err != nil {
		return err
	}
	if _, err := st.expect(RPAREN); err != nil {
		return err
	}

	sym, ok := st.syms.LookupName(callee)
	if !ok {
		return st.errorf(ErrNoSymbol, "%q", callee)
	}
	n, err := st.nodes.newCall(sym.ID)
	if err != nil {
		return err
	}
	if err := st.generate(n); err != nil {
		return err
	}

	_, err = st.expect(SEMICOLON)
	return err
}

// parseLoop handles loop { and opens a loop block.
func (st *State) parseLoop() error {
	if _, err := st.expect(LBRACE); err != nil {
		return err
	}
	n, err := st.nodes.newLoop(false)
	if err != nil {
		return err
	}
	if err := st.generate(n); err != nil {
		return err
	}
	st.blocks = append(st.blocks, blockLoop)
	return nil
}

func (st *State) parseBreak() error {
	n, err := st.nodes.newBreak()
	if err != nil {
		return err
	}
	if err := st.generate(n); err != nil {
		return err
	}
	_, err = st.expect(SEMICOLON)
	return err
}

// closeBlock handles }: a loop gets its epilogue, a function body ends.
func (st *State) closeBlock() error {
	if len(st.blocks) == 0 {
		return &Error{Line: st.lex.Line(), Err: ErrUnexpectedBrace}
	}
	top := st.blocks[len(st.blocks)-1]
	st.blocks = st.blocks[:len(st.blocks)-1]

	switch top {
	case blockLoop:
		n, err := st.nodes.newLoop(true)
		if err != nil {
			return err
		}
		return st.generate(n)
	default:
		st.curFunc = NoSymbol
		return nil
	}
}

// parseStruct handles
//
//	struct IDENT { TYPE IDENT ; ... } ;
func (st *State) parseStruct() error {
	name, err := st.expectIdent()
	if err != nil {
		return err
	}
	if sym, ok := st.syms.LookupName(name); ok {
		return st.redeclared(sym)
	}
	id, err := st.syms.Declare(name, SymStruct)
	if err != nil {
		return err
	}

	if _, err := st.expect(LBRACE); err != nil {
		return err
	}
	var fields []FieldNode
	for {
		tok, err := st.next("field type or }")
		if err != nil {
			return err
		}
		if tok.Type == RBRACE {
			break
		}
		dt := tok.Type.dataType()
		if dt == types.Bad {
			return st.errorf(ErrSyntax, "expected field type or }, got %s", describe(tok))
		}
		field, err := st.expectIdent()
		if err != nil {
			return err
		}
		if _, err := st.expect(SEMICOLON); err != nil {
			return err
		}
		for _, f := range fields {
			if f.Name == field {
				return st.errorf(ErrSemantic, "duplicate field %q in struct %q", field, name)
			}
		}
		fields = append(fields, FieldNode{Name: field, Type: dt})
	}
	if _, err := st.expect(SEMICOLON); err != nil {
		return err
	}

	sym, _ := st.syms.Lookup(id)
	sym.Defined = true
	n, err := st.nodes.newStruct(id, fields)
	if err != nil {
		return err
	}
	return st.generate(n)
}

// parseVar handles a global TYPE IDENT [ = NUMBER ] ; whose type keyword
// has already been scanned.
func (st *State) parseVar(dt types.DataType) error {
	if st.curFunc != NoSymbol {
		return st.errorf(ErrSemantic, "local variables are not supported")
	}
	public := st.public()

	name, err := st.expectIdent()
	if err != nil {
		return err
	}
	if !dt.Sized() {
		return st.errorf(ErrSemantic, "variable %q declared %s", name, dt)
	}
	if sym, ok := st.syms.LookupName(name); ok {
		return st.redeclared(sym)
	}

	var value uint64
	tok, err := st.next("= or ;")
	if err != nil {
		return err
	}
	switch tok.Type {
	case ASSIGN:
		num, err := st.expect(NUMBER)
		if err != nil {
			return err
		}
		value, _ = num.Number()
		if _, err := st.expect(SEMICOLON); err != nil {
			return err
		}
	case SEMICOLON:
	default:
		return st.errorf(ErrSyntax, "expected = or ;, got %s", describe(tok))
	}

	id, err := st.syms.Declare(name, SymVar)
	if err != nil {
		return err
	}
	sym, _ := st.syms.Lookup(id)
	sym.Type = dt
	sym.Public = public
	sym.Defined = true

	n, err := st.nodes.newVar(id, value)
	if err != nil {
		return err
	}
	return st.generate(n)
}
