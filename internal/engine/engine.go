// Package engine describes the rendering engine the viewer drives, and
// provides an in-memory implementation of it.
//
// The engine owns model construction, hit-testing, labels and drawing. The
// viewer only tells it which style applies to which atoms and reacts to the
// hover and click callbacks it raises.
package engine

import (
	"context"
	"errors"

	"github.com/msalah0e/pdbview/internal/structure"
)

var (
	// ErrNoModel is returned by operations that need a loaded model.
	ErrNoModel = errors.New("no model loaded")
	// ErrUnknownAtom is returned when a serial does not name a loaded atom.
	ErrUnknownAtom = errors.New("unknown atom")
)

// AtomFunc is a hover or click callback.
type AtomFunc func(a structure.Atom)

// Position is a point in model space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PositionOf returns the position of an atom.
func PositionOf(a structure.Atom) Position {
	return Position{X: a.X, Y: a.Y, Z: a.Z}
}

// LabelOptions controls how a label is drawn.
type LabelOptions struct {
	Position        Position `json:"position"`
	BackgroundColor string   `json:"backgroundColor"`
	FontColor       string   `json:"fontColor"`
	FontSize        int      `json:"fontSize"`
	InFront         bool     `json:"inFront"`
}

// Label is a text label placed in the scene.
type Label struct {
	Text string
	LabelOptions
}

// Engine is a 3D molecular rendering engine.
type Engine interface {
	// LoadModel clears any previous model and builds a new one from text.
	LoadModel(ctx context.Context, text, format string) (*structure.Model, error)
	// SetStyle replaces the style of every atom sel matches.
	SetStyle(sel Selector, st Style) error
	ZoomToFit()
	Render() error
	SetHoverable(sel Selector, enabled bool, onEnter, onExit AtomFunc)
	SetClickable(sel Selector, enabled bool, onClick AtomFunc)
	AddLabel(text string, opts LabelOptions)
	RemoveAllLabels()
}

// Pointer raises hover and click callbacks the way a user's pointer would.
type Pointer interface {
	Hover(serial int) error
	Unhover() error
	Click(serial int) error
}
