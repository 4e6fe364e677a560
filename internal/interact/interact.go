// Package interact wires hover labels and click highlighting onto an engine.
package interact

import (
	"fmt"

	"github.com/msalah0e/pdbview/internal/engine"
	"github.com/msalah0e/pdbview/internal/structure"
)

// HoverLabel is the label text shown while hovering an atom.
func HoverLabel(a structure.Atom) string {
	if a.Class() == structure.ClassProtein {
		return fmt.Sprintf("Atom: %d;\nResidue: %s;\nResidue Name: %s", a.Serial, a.ResName, a.OrigResName)
	}
	return fmt.Sprintf("Atom: %d;\nMolecule: %s;\nAtom name: %s", a.Serial, a.OrigResName, a.OrigAtomSymbol)
}

// ClickLabel is the label text attached to a clicked atom.
func ClickLabel(a structure.Atom) string {
	if a.Class() == structure.ClassProtein {
		return fmt.Sprintf("Atom: %d\nResidue: %s\nResidue Name: %s", a.Serial, a.ResName, a.OrigResName)
	}
	return fmt.Sprintf("Atom: %d\nMolecule: %s\nAtom name: %s", a.Serial, a.OrigResName, a.OrigAtomSymbol)
}

// HoverOptions are the label options for a hover label on a.
func HoverOptions(a structure.Atom) engine.LabelOptions {
	return engine.LabelOptions{
		Position:        engine.PositionOf(a),
		BackgroundColor: "lightgray",
		FontColor:       "black",
		FontSize:        16,
		InFront:         true,
	}
}

// ClickOptions are the label options for a click label on a.
func ClickOptions(a structure.Atom) engine.LabelOptions {
	return engine.LabelOptions{
		Position:        engine.PositionOf(a),
		BackgroundColor: "white",
		FontColor:       "black",
		FontSize:        12,
		InFront:         true,
	}
}

// InstallHover registers hover labels on every atom of e, replacing any
// previous hover registration.
func InstallHover(e engine.Engine) {
	e.SetHoverable(engine.All(), false, nil, nil)
	e.SetHoverable(engine.All(), true,
		func(a structure.Atom) {
			e.RemoveAllLabels()
			e.AddLabel(HoverLabel(a), HoverOptions(a))
			_ = e.Render()
		},
		func(structure.Atom) {
			e.RemoveAllLabels()
			_ = e.Render()
		})
}
