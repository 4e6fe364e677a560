package engine

import (
	"encoding/json"
	"fmt"
)

// StyleKind is the representation an atom is drawn with.
type StyleKind int

const (
	Hidden StyleKind = iota
	CartoonStyle
	StickStyle
	SphereStyle
)

func (k StyleKind) String() string {
	switch k {
	case CartoonStyle:
		return "cartoon"
	case StickStyle:
		return "stick"
	case SphereStyle:
		return "sphere"
	default:
		return "hidden"
	}
}

// Style is the drawing style of a set of atoms. The zero value hides them.
type Style struct {
	Kind    StyleKind
	Radius  float64
	Color   string
	Opacity float64
}

// Visible reports whether atoms with this style are drawn.
func (s Style) Visible() bool { return s.Kind != Hidden }

func (s Style) String() string {
	switch s.Kind {
	case Hidden:
		return "hidden"
	case CartoonStyle:
		return fmt.Sprintf("cartoon %s", s.Color)
	default:
		return fmt.Sprintf("%s r=%.2f %s", s.Kind, s.Radius, s.Color)
	}
}

// MarshalJSON encodes the style the way 3Dmol.js expects it.
func (s Style) MarshalJSON() ([]byte, error) {
	if s.Kind == Hidden {
		return []byte("{}"), nil
	}
	opts := map[string]any{"color": s.Color}
	if s.Kind != CartoonStyle {
		opts["radius"] = s.Radius
	}
	if s.Opacity > 0 {
		opts["opacity"] = s.Opacity
	}
	return json.Marshal(map[string]any{s.Kind.String(): opts})
}
