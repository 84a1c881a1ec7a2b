package compiler

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"gup/pkg/types"
)

// SymbolID identifies a symbol within its table. IDs are handed out from 0 in
// declaration order and never reused.
type SymbolID int32

// NoSymbol is the id of no symbol at all.
const NoSymbol SymbolID = -1

type SymbolKind int

const (
	SymNone SymbolKind = iota
	SymFunc
	SymStruct
	SymVar
)

var symbolKindNames = [...]string{
	SymNone:   "none",
	SymFunc:   "function",
	SymStruct: "struct",
	SymVar:    "variable",
}

func (k SymbolKind) String() string {
	if int(k) >= 0 && int(k) < len(symbolKindNames) {
		return symbolKindNames[k]
	}
	return fmt.Sprintf("SymbolKind(%d)", int(k))
}

type Symbol struct {
	Name    string
	Kind    SymbolKind
	Type    types.DataType
	ID      SymbolID
	Public  bool
	Defined bool // a function body or data label has been emitted
}

// SymbolTable is the single flat namespace of a compilation unit. It owns
// every symbol and its name; AST nodes refer to symbols by SymbolID.
//
// The table enforces no naming policy. Redeclaration rules live in the
// parser.
type SymbolTable struct {
	symbols   []*Symbol
	destroyed bool
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{}
}

// Declare appends a new symbol named name and returns its id. The name is
// copied, so callers may pass arena-backed text.
func (s *SymbolTable) Declare(name string, kind SymbolKind) (SymbolID, error) {
	if s.destroyed {
		return NoSymbol, fmt.Errorf("%w: declare %q on a destroyed symbol table", ErrInvalidArgument, name)
	}
	if name == "" {
		return NoSymbol, fmt.Errorf("%w: empty symbol name", ErrInvalidArgument)
	}
	raw, err := safecast.Conv[int32](len(s.symbols))
	if err != nil {
		return NoSymbol, fmt.Errorf("%w: symbol table full: %v", ErrOutOfMemory, err)
	}

	id := SymbolID(raw)
	s.symbols = append(s.symbols, &Symbol{
		Name: strings.Clone(name),
		Kind: kind,
		Type: types.Void,
		ID:   id,
	})
	return id, nil
}

// Lookup returns the symbol with the given id.
func (s *SymbolTable) Lookup(id SymbolID) (*Symbol, bool) {
	if id < 0 || int(id) >= len(s.symbols) {
		return nil, false
	}
	return s.symbols[id], true
}

// LookupName returns the first symbol called name.
func (s *SymbolTable) LookupName(name string) (*Symbol, bool) {
	for _, sym := range s.symbols {
		if sym.Name == name {
			return sym, true
		}
	}
	return nil, false
}

// Len returns the number of declared symbols.
func (s *SymbolTable) Len() int { return len(s.symbols) }

// Destroyed reports whether Destroy has run.
func (s *SymbolTable) Destroyed() bool { return s.destroyed }

// Destroy releases every symbol. A second call does nothing.
func (s *SymbolTable) Destroy() {
	if s.destroyed {
		return
	}
	for i := range s.symbols {
		s.symbols[i] = nil
	}
	s.symbols = nil
	s.destroyed = true
}

// String returns the table in declaration order.
func (s *SymbolTable) String() string {
	if len(s.symbols) == 0 {
		return "Symbols: (empty)\n"
	}
	var sb strings.Builder
	sb.WriteString("Symbols:\n")
	for _, sym := range s.symbols {
		vis := "private"
		if sym.Public {
			vis = "public"
		}
		fmt.Fprintf(&sb, "  %3d  %-20s  %-8s  %-4s  %s\n", sym.ID, sym.Name, sym.Kind, sym.Type, vis)
	}
	return sb.String()
}
