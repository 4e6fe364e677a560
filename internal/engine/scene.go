package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/msalah0e/pdbview/internal/structure"
)

type handler struct {
	match   atomMatch
	onEnter AtomFunc
	onExit  AtomFunc
}

// Bounds is an axis-aligned box around the fitted atoms.
type Bounds struct {
	Min, Max Position
}

// Center returns the middle of the box.
func (b Bounds) Center() Position {
	return Position{
		X: (b.Min.X + b.Max.X) / 2,
		Y: (b.Min.Y + b.Max.Y) / 2,
		Z: (b.Min.Z + b.Max.Z) / 2,
	}
}

// Scene is an in-memory engine. It keeps the style of every atom, the
// labels and the registered handlers, and counts renders. A Scene is not
// safe for concurrent use.
type Scene struct {
	model   *structure.Model
	styles  []Style
	labels  []Label
	hover   *handler
	click   *handler
	hovered *structure.Atom
	bounds  Bounds
	renders int
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

// LoadModel implements Engine. Only the "pdb" format is understood.
func (s *Scene) LoadModel(ctx context.Context, text, format string) (*structure.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if format != "pdb" {
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	s.clear()
	m, err := structure.Parse(text)
	if err != nil {
		return nil, err
	}
	s.model = m
	s.styles = make([]Style, len(m.Atoms))
	s.fit(func(int) bool { return true })
	return m, nil
}

func (s *Scene) clear() {
	s.model = nil
	s.styles = nil
	s.labels = nil
	s.hover = nil
	s.click = nil
	s.hovered = nil
	s.bounds = Bounds{}
}

// SetStyle implements Engine.
func (s *Scene) SetStyle(sel Selector, st Style) error {
	match, err := sel.matcher()
	if err != nil {
		return err
	}
	if s.model == nil {
		return nil
	}
	for i, a := range s.model.Atoms {
		if match(a) {
			s.styles[i] = st
		}
	}
	return nil
}

// ZoomToFit implements Engine. The box covers the visible atoms, or every
// atom when nothing is visible.
func (s *Scene) ZoomToFit() {
	if s.model == nil {
		return
	}
	if !s.fit(func(i int) bool { return s.styles[i].Visible() }) {
		s.fit(func(int) bool { return true })
	}
}

func (s *Scene) fit(include func(int) bool) bool {
	found := false
	b := Bounds{
		Min: Position{math.Inf(1), math.Inf(1), math.Inf(1)},
		Max: Position{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
	for i, a := range s.model.Atoms {
		if !include(i) {
			continue
		}
		found = true
		b.Min.X, b.Max.X = math.Min(b.Min.X, a.X), math.Max(b.Max.X, a.X)
		b.Min.Y, b.Max.Y = math.Min(b.Min.Y, a.Y), math.Max(b.Max.Y, a.Y)
		b.Min.Z, b.Max.Z = math.Min(b.Min.Z, a.Z), math.Max(b.Max.Z, a.Z)
	}
	if found {
		s.bounds = b
	}
	return found
}

// Render implements Engine.
func (s *Scene) Render() error {
	s.renders++
	return nil
}

// SetHoverable implements Engine.
func (s *Scene) SetHoverable(sel Selector, enabled bool, onEnter, onExit AtomFunc) {
	s.hover = s.register(sel, enabled, onEnter, onExit)
}

// SetClickable implements Engine.
func (s *Scene) SetClickable(sel Selector, enabled bool, onClick AtomFunc) {
	s.click = s.register(sel, enabled, onClick, nil)
}

func (s *Scene) register(sel Selector, enabled bool, enter, exit AtomFunc) *handler {
	if !enabled || enter == nil {
		return nil
	}
	match, err := sel.matcher()
	if err != nil {
		return nil
	}
	return &handler{match: match, onEnter: enter, onExit: exit}
}

// AddLabel implements Engine.
func (s *Scene) AddLabel(text string, opts LabelOptions) {
	s.labels = append(s.labels, Label{Text: text, LabelOptions: opts})
}

// RemoveAllLabels implements Engine.
func (s *Scene) RemoveAllLabels() {
	s.labels = nil
}

func (s *Scene) atom(serial int) (structure.Atom, error) {
	if s.model == nil {
		return structure.Atom{}, ErrNoModel
	}
	a, ok := s.model.AtomBySerial(serial)
	if !ok {
		return structure.Atom{}, fmt.Errorf("%w: serial %d", ErrUnknownAtom, serial)
	}
	return a, nil
}

// Hover moves the pointer onto the atom with the given serial. Leaving the
// previously hovered atom raises its exit callback first.
func (s *Scene) Hover(serial int) error {
	a, err := s.atom(serial)
	if err != nil {
		return err
	}
	if s.hovered != nil && s.hovered.Serial == serial {
		return nil
	}
	if err := s.Unhover(); err != nil {
		return err
	}
	if s.hover == nil || !s.hover.match(a) {
		return nil
	}
	s.hovered = &a
	s.hover.onEnter(a)
	return nil
}

// Unhover moves the pointer off the hovered atom, if any.
func (s *Scene) Unhover() error {
	if s.hovered == nil {
		return nil
	}
	a := *s.hovered
	s.hovered = nil
	if s.hover != nil && s.hover.onExit != nil {
		s.hover.onExit(a)
	}
	return nil
}

// Click clicks the atom with the given serial.
func (s *Scene) Click(serial int) error {
	a, err := s.atom(serial)
	if err != nil {
		return err
	}
	if s.click == nil || !s.click.match(a) {
		return nil
	}
	s.click.onEnter(a)
	return nil
}

// Model returns the loaded model, or nil.
func (s *Scene) Model() *structure.Model { return s.model }

// StyleOf returns the current style of the atom with the given serial.
func (s *Scene) StyleOf(serial int) (Style, bool) {
	if s.model == nil {
		return Style{}, false
	}
	for i, a := range s.model.Atoms {
		if a.Serial == serial {
			return s.styles[i], true
		}
	}
	return Style{}, false
}

// Styles returns the style of every atom, in model order.
func (s *Scene) Styles() []Style {
	return append([]Style(nil), s.styles...)
}

// Labels returns the labels currently placed.
func (s *Scene) Labels() []Label {
	return append([]Label(nil), s.labels...)
}

// Bounds returns the box of the last zoom.
func (s *Scene) Bounds() Bounds { return s.bounds }

// Renders returns how many times Render was called.
func (s *Scene) Renders() int { return s.renders }

// Hoverable reports whether hover callbacks are registered.
func (s *Scene) Hoverable() bool { return s.hover != nil }

// Clickable reports whether click callbacks are registered.
func (s *Scene) Clickable() bool { return s.click != nil }
