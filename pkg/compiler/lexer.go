package compiler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gup/pkg/arena"
)

const (
	maxDigits   = 20  // enough for any uint64
	maxIdentLen = 255 // longer identifiers are truncated
)

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"fn":     FN,
	"pub":    PUB,
	"void":   VOID,
	"u8":     U8,
	"u16":    U16,
	"u32":    U32,
	"u64":    U64,
	"return": RETURN,
	"struct": STRUCT,
	"loop":   LOOP,
	"break":  BREAK,
	"__asm":  ASM,
}

// Lexer turns a byte stream into tokens, one Scan at a time. It cannot be
// rewound: the only lookahead is a single putback byte.
type Lexer struct {
	r          io.ByteReader
	putback    byte
	hasPutback bool
	line       int // current 1-based source line

	strs *arena.Arena // owns identifier and string text
	buf  []byte       // scratch for string literals, reused across scans
}

// NewLexer returns a lexer over r whose token text is copied into strs.
func NewLexer(r io.Reader, strs *arena.Arena) *Lexer {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Lexer{r: br, line: 1, strs: strs}
}

// Line returns the current source line.
func (l *Lexer) Line() int { return l.line }

func isWhitespace(c byte) bool {
	switch c {
	case ' ', '\n', '\r', '\t', '\f', '\v':
		return true
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool { return isIdentStart(c) || isDigit(c) }

// nom consumes one byte. Unless allowWS is set, whitespace is skipped.
func (l *Lexer) nom(allowWS bool) (byte, error) {
	if l.hasPutback {
		c := l.putback
		l.hasPutback = false
		if allowWS || !isWhitespace(c) {
			return c, nil
		}
	}
	for {
		c, err := l.r.ReadByte()
		if err != nil {
			return 0, err
		}
		if c == '\n' {
			l.line++
		}
		if allowWS || !isWhitespace(c) {
			return c, nil
		}
	}
}

// unread returns c to the stream for the next nom.
func (l *Lexer) unread(c byte) {
	l.putback = c
	l.hasPutback = true
}

func (l *Lexer) errorf(kind error, format string, args ...any) error {
	return &Error{Line: l.line, Err: kind, Msg: fmt.Sprintf(format, args...)}
}

func (l *Lexer) char(tt TokenType, c byte) Token {
	return Token{Type: tt, Payload: CharValue(c), Line: l.line}
}

// pair scans a one or two character operator. If the byte after c is not
// second it goes back into the stream.
func (l *Lexer) pair(c, second byte, single, double TokenType) (Token, error) {
	next, err := l.nom(true)
	if errors.Is(err, io.EOF) {
		return l.char(single, c), nil
	}
	if err != nil {
		return Token{}, err
	}
	if next != second {
		l.unread(next)
		return l.char(single, c), nil
	}
	return l.char(double, c), nil
}

// scanDigits collects at most maxDigits decimal digits. first has already
// been consumed.
func (l *Lexer) scanDigits(first byte) (Token, error) {
	var buf [maxDigits]byte
	n := 0
	buf[n] = first
	n++
	for n < maxDigits {
		c, err := l.nom(true)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Token{}, err
		}
		if !isDigit(c) {
			l.unread(c)
			break
		}
		buf[n] = c
		n++
	}

	v, err := strconv.ParseUint(string(buf[:n]), 10, 64)
	if err != nil {
		return Token{}, l.errorf(ErrNumberRange, "%s", buf[:n])
	}
	return Token{Type: NUMBER, Payload: NumberValue(v), Line: l.line}, nil
}

// scanIdent collects an identifier and reclassifies it if it is a keyword.
// Characters past maxIdentLen are consumed and dropped.
func (l *Lexer) scanIdent(first byte) (Token, error) {
	var buf [maxIdentLen]byte
	n := 0
	buf[n] = first
	n++
	for {
		c, err := l.nom(true)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Token{}, err
		}
		if !isIdentChar(c) {
			l.unread(c)
			break
		}
		if n < maxIdentLen {
			buf[n] = c
			n++
		}
	}

	text, err := l.strs.StrdupBytes(buf[:n])
	if err != nil {
		return Token{}, err
	}
	tt := IDENTIFIER
	if kw, ok := keywords[text]; ok {
		tt = kw
	}
	return Token{Type: tt, Payload: TextValue(text), Line: l.line}, nil
}

// scanString collects a string literal. The opening quote has already been
// consumed; whitespace inside the quotes is kept.
func (l *Lexer) scanString() (Token, error) {
	startLine := l.line
	l.buf = l.buf[:0]
	for {
		c, err := l.nom(true)
		if errors.Is(err, io.EOF) {
			return Token{}, l.errorf(ErrUnterminatedString, "string opened on line %d", startLine)
		}
		if err != nil {
			return Token{}, err
		}
		if c == '"' {
			break
		}
		if len(l.buf) == cap(l.buf) {
			grown := make([]byte, len(l.buf), max(2*cap(l.buf), 64))
			copy(grown, l.buf)
			l.buf = grown
		}
		l.buf = append(l.buf, c)
	}

	text, err := l.strs.StrdupBytes(l.buf)
	if err != nil {
		return Token{}, err
	}
	return Token{Type: STRING, Payload: TextValue(text), Line: l.line}, nil
}

// Scan returns the next token. At end of input it returns io.EOF; an
// unrecognised character or an unterminated string is an *Error.
func (l *Lexer) Scan() (Token, error) {
	c, err := l.nom(false)
	if err != nil {
		return Token{}, err
	}

	switch c {
	case '+':
		return l.char(PLUS, c), nil
	case '-':
		return l.char(MINUS, c), nil
	case '*':
		return l.char(STAR, c), nil
	case '/':
		return l.char(SLASH, c), nil
	case '(':
		return l.char(LPAREN, c), nil
	case ')':
		return l.char(RPAREN, c), nil
	case '{':
		return l.char(LBRACE, c), nil
	case '}':
		return l.char(RBRACE, c), nil
	case ';':
		return l.char(SEMICOLON, c), nil
	case '=':
		return l.pair(c, '=', ASSIGN, EQUALS)
	case '<':
		return l.pair(c, '=', LESS, LESS_EQ)
	case '>':
		return l.pair(c, '=', GREATER, GREATER_EQ)
	case '"':
		return l.scanString()
	}

	if isDigit(c) {
		return l.scanDigits(c)
	}
	if isIdentStart(c) {
		return l.scanIdent(c)
	}
	return Token{}, l.errorf(ErrBadChar, "%q", c)
}

// Lex scans src to the end and returns every token. It stops at the first
// lexical error.
func Lex(src io.Reader) ([]Token, error) {
	strs := arena.New(0)
	l := NewLexer(src, strs)
	var tokens []Token
	for {
		tok, err := l.Scan()
		if errors.Is(err, io.EOF) {
			return tokens, nil
		}
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
	}
}
