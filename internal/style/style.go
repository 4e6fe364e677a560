// Package style decides which drawing style applies to which atoms for a
// given view state.
//
// Every function here is pure: it turns a view.State into a Plan, the
// ordered list of SetStyle calls plus camera and render flags. Later calls
// win for atoms matched more than once, so broad selectors always come
// before narrow ones.
package style

import (
	"errors"
	"strings"

	"github.com/msalah0e/pdbview/internal/engine"
	"github.com/msalah0e/pdbview/internal/structure"
	"github.com/msalah0e/pdbview/internal/view"
)

// Colors and fixed radii.
const (
	ProteinColor   = "yellow"
	WaterColor     = "#ADD8E6"
	HighlightColor = "lime"
	CustomColor    = "orange"

	StickRadius      = 0.2
	StickWaterRadius = 0.3
	HighlightScale   = 1.5
)

// ErrEmptyExpression is returned when a custom selection is blank.
var ErrEmptyExpression = errors.New("empty selection expression")

// Protein matches protein-class atoms.
func Protein() engine.Selector { return engine.ResName(structure.ProteinTag) }

// Water matches water-class atoms.
func Water() engine.Selector { return engine.ResName(structure.WaterTag) }

// Call is a single SetStyle call.
type Call struct {
	Selector engine.Selector `json:"sel"`
	Style    engine.Style    `json:"style"`
}

// Plan is the outcome of a reconciliation pass.
type Plan struct {
	Calls  []Call
	Zoom   bool
	Render bool
}

// Sphere returns an opaque sphere style.
func Sphere(radius float64, color string) engine.Style {
	return engine.Style{Kind: engine.SphereStyle, Radius: radius, Color: color, Opacity: 1}
}

func proteinSphere(s view.State) Call {
	return Call{Protein(), Sphere(s.ProteinRadius, ProteinColor)}
}

func waterSphere(s view.State) Call {
	return Call{Water(), Sphere(s.WaterRadius, WaterColor)}
}

// Baseline returns the filter-level styling of s, starting with a call that
// clears every atom.
func Baseline(s view.State) []Call {
	calls := []Call{{engine.All(), engine.Style{}}}

	switch s.Representation {
	case view.Cartoon:
		if s.Filter != view.FilterWater {
			calls = append(calls, Call{Protein(), engine.Style{Kind: engine.CartoonStyle, Color: ProteinColor}})
		}
	case view.Stick:
		if s.Filter != view.FilterWater {
			calls = append(calls, Call{Protein(), engine.Style{Kind: engine.StickStyle, Radius: StickRadius, Color: ProteinColor}})
		}
		if s.Filter != view.FilterProtein {
			calls = append(calls, Call{Water(), Sphere(StickWaterRadius, WaterColor)})
		}
	case view.Sphere:
		switch s.Filter {
		case view.FilterAll:
			calls = append(calls,
				Call{engine.All(), Sphere(s.WaterRadius, WaterColor)},
				proteinSphere(s))
		case view.FilterProtein:
			calls = append(calls, proteinSphere(s))
		default:
			calls = append(calls, waterSphere(s))
		}
	}
	return calls
}

// Reconcile is the general restyle: baseline, fit the camera, render.
func Reconcile(s view.State) Plan {
	return Plan{Calls: Baseline(s), Zoom: true, Render: true}
}

// Resize re-runs the baseline and layers the size-selection overrides on
// top of it. For the custom size selection it returns the baseline only,
// with ok false and no camera or render: the expression is applied later by
// Custom.
func Resize(s view.State) (p Plan, ok bool) {
	calls := Baseline(s)
	switch s.Size {
	case view.SizeAll:
		calls = append(calls, waterSphere(s), proteinSphere(s))
	case view.SizeProtein:
		calls = append(calls, proteinSphere(s))
	case view.SizeWater:
		calls = append(calls, waterSphere(s))
	default:
		return Plan{Calls: calls}, false
	}
	return Plan{Calls: calls, Zoom: true, Render: true}, true
}

// Full is the complete restyle of s: the baseline, with the size overrides
// layered on top in sphere mode. A custom size selection gets the baseline
// only; its overlay is applied explicitly through Custom.
func Full(s view.State) Plan {
	if s.Representation == view.Sphere {
		if p, ok := Resize(s); ok {
			return p
		}
	}
	return Reconcile(s)
}

// Custom returns the baseline plus an orange sphere overlay, at the larger
// of the two radii, on the atoms expr selects. expr is passed to the engine
// as is.
func Custom(s view.State, expr string) (Plan, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Plan{}, ErrEmptyExpression
	}
	calls := append(Baseline(s), Call{engine.Expr(expr), Sphere(s.LargerRadius(), CustomColor)})
	return Plan{Calls: calls, Zoom: true, Render: true}, nil
}

// BaseStyleFor is the sphere style an atom of class c has when not
// highlighted.
func BaseStyleFor(c structure.Class, s view.State) engine.Style {
	if c == structure.ClassProtein {
		return Sphere(s.ProteinRadius, ProteinColor)
	}
	return Sphere(s.WaterRadius, WaterColor)
}

// HighlightStyleFor is the style of a clicked atom of class c.
func HighlightStyleFor(c structure.Class, s view.State) engine.Style {
	st := BaseStyleFor(c, s)
	st.Radius *= HighlightScale
	st.Color = HighlightColor
	return st
}

// Apply issues the calls of p on e in order, then fits and renders as the
// plan asks. It stops at the first failing call.
func Apply(e engine.Engine, p Plan) error {
	for _, c := range p.Calls {
		if err := e.SetStyle(c.Selector, c.Style); err != nil {
			return err
		}
	}
	if p.Zoom {
		e.ZoomToFit()
	}
	if p.Render {
		return e.Render()
	}
	return nil
}

// WithoutRender returns p with rendering suppressed, for callers that
// batch several passes and render once at the end.
func (p Plan) WithoutRender() Plan {
	p.Render = false
	return p
}
