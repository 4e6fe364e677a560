package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/msalah0e/pdbview/internal/structure"
)

// SelectorKind tells how a Selector picks atoms.
type SelectorKind int

const (
	SelectAll SelectorKind = iota
	SelectResName
	SelectSerial
	SelectExpr
)

// Selector picks a subset of atoms.
type Selector struct {
	Kind     SelectorKind
	ResNames []string
	Serial   int
	Expr     string
}

// All matches every atom.
func All() Selector { return Selector{Kind: SelectAll} }

// ResName matches atoms whose residue name is one of names.
func ResName(names ...string) Selector {
	return Selector{Kind: SelectResName, ResNames: names}
}

// Serial matches the atom with the given serial.
func Serial(n int) Selector { return Selector{Kind: SelectSerial, Serial: n} }

// Expr matches atoms with the engine's own selection language. The viewer
// passes user text through without looking at it.
func Expr(s string) Selector { return Selector{Kind: SelectExpr, Expr: s} }

func (s Selector) String() string {
	switch s.Kind {
	case SelectResName:
		return "resn " + strings.Join(s.ResNames, ",")
	case SelectSerial:
		return fmt.Sprintf("serial %d", s.Serial)
	case SelectExpr:
		return "eval " + s.Expr
	default:
		return "all"
	}
}

// MarshalJSON encodes the selector the way 3Dmol.js expects it.
func (s Selector) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SelectResName:
		return json.Marshal(map[string]any{"resn": s.ResNames})
	case SelectSerial:
		return json.Marshal(map[string]any{"serial": s.Serial})
	case SelectExpr:
		return json.Marshal(map[string]any{"eval": s.Expr})
	default:
		return []byte("{}"), nil
	}
}

// matcher compiles the selector into an atom predicate.
func (s Selector) matcher() (func(structure.Atom) bool, error) {
	switch s.Kind {
	case SelectResName:
		names := s.ResNames
		return func(a structure.Atom) bool {
			for _, n := range names {
				if a.ResName == n {
					return true
				}
			}
			return false
		}, nil
	case SelectSerial:
		n := s.Serial
		return func(a structure.Atom) bool { return a.Serial == n }, nil
	case SelectExpr:
		return Compile(s.Expr)
	default:
		return func(structure.Atom) bool { return true }, nil
	}
}
