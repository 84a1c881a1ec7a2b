package types

import "fmt"

// DataType is the declared type of a symbol, field or literal.
type DataType int

const (
	Bad DataType = iota // not a type; produced by failed conversions
	Void
	U8
	U16
	U32
	U64
)

var typeNames = [...]string{
	Bad:  "bad",
	Void: "void",
	U8:   "u8",
	U16:  "u16",
	U32:  "u32",
	U64:  "u64",
}

func (t DataType) String() string {
	if int(t) >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("DataType(%d)", int(t))
}

// Width is a machine register width in bits.
type Width int

const (
	WidthNone Width = 0
	Width8    Width = 8
	Width16   Width = 16
	Width32   Width = 32
	Width64   Width = 64
)

// Width maps an integer type onto the register width that holds it.
// Void and Bad have no width.
func (t DataType) Width() Width {
	switch t {
	case U8:
		return Width8
	case U16:
		return Width16
	case U32:
		return Width32
	case U64:
		return Width64
	default:
		return WidthNone
	}
}

// Sized reports whether values of t occupy storage.
func (t DataType) Sized() bool {
	return t.Width() != WidthNone
}
