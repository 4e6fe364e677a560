// Package view holds the user-adjustable viewer state and the values derived
// from it.
package view

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidValue is returned when a control value is not one of its options.
var ErrInvalidValue = errors.New("invalid value")

// Representation is the drawing mode of the structure.
type Representation string

const (
	Cartoon Representation = "cartoon"
	Stick   Representation = "stick"
	Sphere  Representation = "sphere"
)

// Representations lists the options in display order.
var Representations = []Representation{Cartoon, Stick, Sphere}

// ResidueFilter restricts which class of atoms is drawn.
type ResidueFilter string

const (
	FilterAll     ResidueFilter = "all"
	FilterProtein ResidueFilter = "protein"
	FilterWater   ResidueFilter = "water"
)

// Filters lists the options in display order.
var Filters = []ResidueFilter{FilterAll, FilterProtein, FilterWater}

// SizeSelection picks which atoms the radius controls resize.
type SizeSelection string

const (
	SizeAll     SizeSelection = "all"
	SizeProtein SizeSelection = "protein"
	SizeWater   SizeSelection = "water"
	SizeCustom  SizeSelection = "selected"
)

// Sizes lists the options in display order.
var Sizes = []SizeSelection{SizeAll, SizeProtein, SizeWater, SizeCustom}

// Radius bounds, default and slider step.
const (
	MinRadius     = 0.1
	MaxRadius     = 2.0
	DefaultRadius = 0.5
	RadiusStep    = 0.05
)

// ParseRepresentation validates a representation value.
func ParseRepresentation(s string) (Representation, error) {
	for _, r := range Representations {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: representation %q", ErrInvalidValue, s)
}

// ParseFilter validates a residue filter value.
func ParseFilter(s string) (ResidueFilter, error) {
	for _, f := range Filters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: filter %q", ErrInvalidValue, s)
}

// ParseSize validates a size selection value. "custom" is accepted as an
// alias of the stored "selected" value.
func ParseSize(s string) (SizeSelection, error) {
	if s == "custom" {
		return SizeCustom, nil
	}
	for _, z := range Sizes {
		if string(z) == s {
			return z, nil
		}
	}
	return "", fmt.Errorf("%w: size selection %q", ErrInvalidValue, s)
}

// ValidRadius reports whether r is a number. Out-of-range values are
// valid and get clamped.
func ValidRadius(r float64) bool { return !math.IsNaN(r) }

// ClampRadius limits r to [MinRadius, MaxRadius]. NaN becomes
// DefaultRadius.
func ClampRadius(r float64) float64 {
	if !ValidRadius(r) {
		return DefaultRadius
	}
	if r < MinRadius {
		return MinRadius
	}
	if r > MaxRadius {
		return MaxRadius
	}
	return r
}

// State is the full set of user controls. It is a value: every change
// produces a new State.
type State struct {
	Representation Representation `json:"representation"`
	Filter         ResidueFilter  `json:"residueFilter"`
	Size           SizeSelection  `json:"sizeSelection"`
	ProteinRadius  float64        `json:"proteinRadius"`
	WaterRadius    float64        `json:"waterRadius"`
	Highlight      bool           `json:"highlightEnabled"`
	CustomExpr     string         `json:"customExpr"`
}

// Default returns the state of a fresh viewer.
func Default() State {
	return State{
		Representation: Cartoon,
		Filter:         FilterAll,
		Size:           SizeAll,
		ProteinRadius:  DefaultRadius,
		WaterRadius:    DefaultRadius,
		Highlight:      true,
	}
}

func (s State) WithRepresentation(r Representation) State {
	s.Representation = r
	return s
}

func (s State) WithFilter(f ResidueFilter) State {
	s.Filter = f
	return s
}

func (s State) WithSize(z SizeSelection) State {
	s.Size = z
	return s
}

func (s State) WithHighlight(on bool) State {
	s.Highlight = on
	return s
}

func (s State) WithCustomExpr(expr string) State {
	s.CustomExpr = expr
	return s
}

// WithProteinRadius sets the protein radius, clamped. NaN leaves the state
// unchanged.
func (s State) WithProteinRadius(r float64) State {
	if ValidRadius(r) {
		s.ProteinRadius = ClampRadius(r)
	}
	return s
}

func (s State) WithWaterRadius(r float64) State {
	if ValidRadius(r) {
		s.WaterRadius = ClampRadius(r)
	}
	return s
}

// SliderValue is the value shown by the radius control for the current
// size selection.
func (s State) SliderValue() float64 {
	switch s.Size {
	case SizeProtein:
		return s.ProteinRadius
	case SizeWater:
		return s.WaterRadius
	default:
		return (s.ProteinRadius + s.WaterRadius) / 2
	}
}

// WithSlider applies a radius control change: only the selected class for
// protein/water, both radii otherwise.
func (s State) WithSlider(r float64) State {
	switch s.Size {
	case SizeProtein:
		return s.WithProteinRadius(r)
	case SizeWater:
		return s.WithWaterRadius(r)
	default:
		return s.WithProteinRadius(r).WithWaterRadius(r)
	}
}

// LargerRadius returns the larger of the two class radii.
func (s State) LargerRadius() float64 {
	if s.ProteinRadius > s.WaterRadius {
		return s.ProteinRadius
	}
	return s.WaterRadius
}

// Visibility is the set of controls shown for a state. CustomPending is
// set while a non-blank custom expression is held, such as one restored
// from the store.
type Visibility struct {
	ResizeControls bool   `json:"resizeControls"`
	CustomRow      bool   `json:"customRow"`
	CustomPending  bool   `json:"customPending"`
	RadiusLabel    string `json:"radiusLabel"`
}

// ShowCustom reports whether the custom expression row is drawn: for the
// custom size selection, or to show a held expression.
func (v Visibility) ShowCustom() bool { return v.CustomRow || v.CustomPending }

// ShowResizeControls reports whether the resize dropdown and radius control
// are shown.
func (s State) ShowResizeControls() bool {
	return s.Representation == Sphere
}

// ShowCustomRow reports whether the custom expression row is shown.
func (s State) ShowCustomRow() bool {
	return s.Representation == Sphere && s.Size == SizeCustom
}

// CustomPending reports whether a non-blank custom expression is held.
func (s State) CustomPending() bool {
	return strings.TrimSpace(s.CustomExpr) != ""
}

// Visibility computes every derived visibility flag at once.
func (s State) Visibility() Visibility {
	return Visibility{
		ResizeControls: s.ShowResizeControls(),
		CustomRow:      s.ShowCustomRow(),
		CustomPending:  s.CustomPending(),
		RadiusLabel:    s.RadiusLabel(),
	}
}

// RadiusLabel is the caption of the radius control.
func (s State) RadiusLabel() string {
	switch s.Size {
	case SizeProtein:
		return "Protein Radius:"
	case SizeWater:
		return "Water Radius:"
	default:
		return "Radius:"
	}
}
