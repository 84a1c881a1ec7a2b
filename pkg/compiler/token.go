package compiler

import (
	"fmt"

	"gup/pkg/types"
)

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	NONE TokenType = iota // zero value; never produced by the lexer

	// Literals
	IDENTIFIER // function / field / variable name
	NUMBER     // unsigned decimal literal
	STRING     // string literal "..."

	// Keywords
	FN     // "fn"
	PUB    // "pub"
	VOID   // "void"
	U8     // "u8"
	U16    // "u16"
	U32    // "u32"
	U64    // "u64"
	RETURN // "return"
	STRUCT // "struct"
	LOOP   // "loop"
	BREAK  // "break"
	ASM    // "__asm"

	// Paired delimiters
	LBRACE // {
	RBRACE // }
	LPAREN // (
	RPAREN // )

	// Punctuation
	SEMICOLON // ;

	// Arithmetic operators
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /

	// Assignment / comparison
	ASSIGN     // =
	EQUALS     // ==
	LESS       // <
	LESS_EQ    // <=
	GREATER    // >
	GREATER_EQ // >=
)

var tokenNames = [...]string{
	NONE:       "NONE",
	IDENTIFIER: "IDENTIFIER",
	NUMBER:     "NUMBER",
	STRING:     "STRING",
	FN:         "FN",
	PUB:        "PUB",
	VOID:       "VOID",
	U8:         "U8",
	U16:        "U16",
	U32:        "U32",
	U64:        "U64",
	RETURN:     "RETURN",
	STRUCT:     "STRUCT",
	LOOP:       "LOOP",
	BREAK:      "BREAK",
	ASM:        "ASM",
	LBRACE:     "LBRACE",
	RBRACE:     "RBRACE",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	SEMICOLON:  "SEMICOLON",
	PLUS:       "PLUS",
	MINUS:      "MINUS",
	STAR:       "STAR",
	SLASH:      "SLASH",
	ASSIGN:     "ASSIGN",
	EQUALS:     "EQUALS",
	LESS:       "LESS",
	LESS_EQ:    "LESS_EQ",
	GREATER:    "GREATER",
	GREATER_EQ: "GREATER_EQ",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// dataType converts a type keyword into its declared type.
func (tt TokenType) dataType() types.DataType {
	switch tt {
	case VOID:
		return types.Void
	case U8:
		return types.U8
	case U16:
		return types.U16
	case U32:
		return types.U32
	case U64:
		return types.U64
	default:
		return types.Bad
	}
}

// Payload is the one value a token carries: CharValue for operators and
// punctuation, NumberValue for NUMBER, TextValue for identifiers, keywords
// and strings.
type Payload interface {
	payload()
}

type CharValue byte

type NumberValue uint64

// TextValue is backed by the general arena of the unit being scanned.
type TextValue string

func (CharValue) payload()   {}
func (NumberValue) payload() {}
func (TextValue) payload()   {}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type    TokenType
	Payload Payload
	Line    int // 1-based source line the token ended on
}

func (t Token) Char() (byte, bool) {
	c, ok := t.Payload.(CharValue)
	return byte(c), ok
}

func (t Token) Number() (uint64, bool) {
	n, ok := t.Payload.(NumberValue)
	return uint64(n), ok
}

func (t Token) Text() (string, bool) {
	s, ok := t.Payload.(TextValue)
	return string(s), ok
}

func (t Token) String() string {
	switch p := t.Payload.(type) {
	case CharValue:
		return fmt.Sprintf("%-10s %-14q  line %d", t.Type, string(rune(p)), t.Line)
	case NumberValue:
		return fmt.Sprintf("%-10s %-14d  line %d", t.Type, uint64(p), t.Line)
	case TextValue:
		return fmt.Sprintf("%-10s %-14q  line %d", t.Type, string(p), t.Line)
	default:
		return fmt.Sprintf("%-10s %-14s  line %d", t.Type, "", t.Line)
	}
}
