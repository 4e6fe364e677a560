package style

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/msalah0e/pdbview/internal/engine"
	"github.com/msalah0e/pdbview/internal/structure"
	"github.com/msalah0e/pdbview/internal/view"
)

func pdb() string {
	row := func(serial int, res string, x float64) string {
		return fmt.Sprintf("ATOM  %5d  CA  %-3s A%4d    %8.3f%8.3f%8.3f  1.00  0.00", serial, res, serial, x, 0.0, 0.0)
	}
	return strings.Join([]string{row(1, "VAL", 0), row(2, "VAL", 1), row(3, "TIP", 5), row(4, "TIP", 6)}, "\n")
}

func scene(t *testing.T) *engine.Scene {
	t.Helper()
	s := engine.NewScene()
	if _, err := s.LoadModel(context.Background(), pdb(), "pdb"); err != nil {
		t.Fatal(err)
	}
	return s
}

// classStyles applies p and returns the resulting style of one protein and
// one water atom.
func classStyles(t *testing.T, p Plan) (protein, water engine.Style) {
	t.Helper()
	s := scene(t)
	if err := Apply(s, p); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	protein, _ = s.StyleOf(1)
	water, _ = s.StyleOf(3)
	return protein, water
}

func TestBaseline_PolicyTable(t *testing.T) {
	st := view.Default().WithProteinRadius(0.8).WithWaterRadius(0.3)
	cartoon := engine.Style{Kind: engine.CartoonStyle, Color: ProteinColor}
	stick := engine.Style{Kind: engine.StickStyle, Radius: StickRadius, Color: ProteinColor}
	stickWater := Sphere(StickWaterRadius, WaterColor)
	hidden := engine.Style{}

	tests := []struct {
		rep            view.Representation
		filter         view.ResidueFilter
		protein, water engine.Style
	}{
		{view.Cartoon, view.FilterAll, cartoon, hidden},
		{view.Cartoon, view.FilterProtein, cartoon, hidden},
		{view.Cartoon, view.FilterWater, hidden, hidden},
		{view.Stick, view.FilterAll, stick, stickWater},
		{view.Stick, view.FilterProtein, stick, hidden},
		{view.Stick, view.FilterWater, hidden, stickWater},
		{view.Sphere, view.FilterAll, Sphere(0.8, ProteinColor), Sphere(0.3, WaterColor)},
		{view.Sphere, view.FilterProtein, Sphere(0.8, ProteinColor), hidden},
		{view.Sphere, view.FilterWater, hidden, Sphere(0.3, WaterColor)},
	}
	for _, tt := range tests {
		s := st.WithRepresentation(tt.rep).WithFilter(tt.filter)
		p, w := classStyles(t, Reconcile(s))
		if p != tt.protein {
			t.Errorf("%s/%s protein: got %v, want %v", tt.rep, tt.filter, p, tt.protein)
		}
		if w != tt.water {
			t.Errorf("%s/%s water: got %v, want %v", tt.rep, tt.filter, w, tt.water)
		}
	}
}

func TestBaseline_StartsWithClear(t *testing.T) {
	for _, rep := range view.Representations {
		calls := Baseline(view.Default().WithRepresentation(rep))
		if calls[0].Selector.Kind != engine.SelectAll || calls[0].Style.Visible() {
			t.Errorf("%s: first call is not a clear: %+v", rep, calls[0])
		}
	}
}

func TestReconcile_Deterministic(t *testing.T) {
	for _, rep := range view.Representations {
		for _, f := range view.Filters {
			s := view.Default().WithRepresentation(rep).WithFilter(f)
			if !reflect.DeepEqual(Reconcile(s), Reconcile(s)) {
				t.Errorf("%s/%s: plans differ", rep, f)
			}
			p1, w1 := classStyles(t, Reconcile(s))
			sc := scene(t)
			Apply(sc, Reconcile(s))
			Apply(sc, Reconcile(s))
			p2, _ := sc.StyleOf(1)
			w2, _ := sc.StyleOf(3)
			if p1 != p2 || w1 != w2 {
				t.Errorf("%s/%s: re-applying changed the result", rep, f)
			}
		}
	}
}

func TestResize_All(t *testing.T) {
	s := view.Default().
		WithRepresentation(view.Sphere).
		WithProteinRadius(0.8).
		WithWaterRadius(0.3)

	p, ok := Resize(s)
	if !ok || !p.Zoom || !p.Render {
		t.Fatalf("unexpected plan flags: ok=%v %+v", ok, p)
	}
	protein, water := classStyles(t, p)
	if protein.Radius != 0.8 || protein.Color != "yellow" {
		t.Errorf("protein: %v", protein)
	}
	if water.Radius != 0.3 || water.Color != "#ADD8E6" {
		t.Errorf("water: %v", water)
	}
}

func TestResize_ProteinOnlyOverridesFilterHiddenAtoms(t *testing.T) {
	s := view.Default().
		WithRepresentation(view.Sphere).
		WithFilter(view.FilterWater).
		WithSize(view.SizeProtein).
		WithProteinRadius(1.1)

	p, ok := Resize(s)
	if !ok {
		t.Fatal("expected ok")
	}
	protein, water := classStyles(t, p)
	if protein != Sphere(1.1, ProteinColor) {
		t.Errorf("protein: %v", protein)
	}
	if water != Sphere(0.5, WaterColor) {
		t.Errorf("water should keep the filter pass style, got %v", water)
	}
}

func TestResize_Custom(t *testing.T) {
	s := view.Default().WithRepresentation(view.Sphere).WithSize(view.SizeCustom)
	p, ok := Resize(s)
	if ok {
		t.Error("custom resize should not be ok")
	}
	if p.Zoom || p.Render {
		t.Error("custom resize should not zoom or render")
	}
	if !reflect.DeepEqual(p.Calls, Baseline(s)) {
		t.Error("custom resize should only re-run the baseline")
	}
}

func TestCustom(t *testing.T) {
	s := view.Default().WithRepresentation(view.Sphere).WithProteinRadius(0.4).WithWaterRadius(0.9)

	for _, expr := range []string{"", "   ", "\t\n"} {
		if _, err := Custom(s, expr); !errors.Is(err, ErrEmptyExpression) {
			t.Errorf("Custom(%q): expected ErrEmptyExpression, got %v", expr, err)
		}
	}

	p, err := Custom(s, "  serial 3  ")
	if err != nil {
		t.Fatalf("Custom failed: %v", err)
	}
	last := p.Calls[len(p.Calls)-1]
	if last.Selector.Expr != "serial 3" {
		t.Errorf("expression not trimmed: %q", last.Selector.Expr)
	}
	sc := scene(t)
	if err := Apply(sc, p); err != nil {
		t.Fatal(err)
	}
	got, _ := sc.StyleOf(3)
	if got != Sphere(0.9, CustomColor) {
		t.Errorf("custom atom: %v", got)
	}
	other, _ := sc.StyleOf(4)
	if other != Sphere(0.9, WaterColor) {
		t.Errorf("other atom keeps baseline: %v", other)
	}
}

func TestApply_StopsOnEngineError(t *testing.T) {
	sc := scene(t)
	p, _ := Custom(view.Default(), "resn")
	renders := sc.Renders()
	if err := Apply(sc, p); !errors.Is(err, engine.ErrBadExpression) {
		t.Fatalf("expected ErrBadExpression, got %v", err)
	}
	if sc.Renders() != renders {
		t.Error("failed plan should not render")
	}
}

func TestWithoutRender(t *testing.T) {
	sc := scene(t)
	Apply(sc, Reconcile(view.Default()).WithoutRender())
	if sc.Renders() != 0 {
		t.Errorf("expected no render, got %d", sc.Renders())
	}
}

func TestHighlightStyleFor(t *testing.T) {
	s := view.Default().WithProteinRadius(0.8).WithWaterRadius(0.3)
	h := HighlightStyleFor(structure.ClassProtein, s)
	if h.Radius < 1.199 || h.Radius > 1.201 || h.Color != HighlightColor {
		t.Errorf("protein highlight: %v", h)
	}
	if b := BaseStyleFor(structure.ClassWater, s); b != Sphere(0.3, WaterColor) {
		t.Errorf("water base: %v", b)
	}
}

func TestFull(t *testing.T) {
	cartoon := view.Default().WithSize(view.SizeWater)
	if !reflect.DeepEqual(Full(cartoon), Reconcile(cartoon)) {
		t.Error("non-sphere states should only get the baseline")
	}

	sphere := view.Default().WithRepresentation(view.Sphere).WithSize(view.SizeProtein)
	want, _ := Resize(sphere)
	if !reflect.DeepEqual(Full(sphere), want) {
		t.Error("sphere states should get the resize pass")
	}

	custom := sphere.WithSize(view.SizeCustom)
	p := Full(custom)
	if !p.Zoom || !p.Render || !reflect.DeepEqual(p.Calls, Baseline(custom)) {
		t.Errorf("custom size should reconcile the baseline: %+v", p)
	}
}
