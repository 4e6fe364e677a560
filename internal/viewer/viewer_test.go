package viewer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/pdbview/internal/engine"
	"github.com/msalah0e/pdbview/internal/fetch"
	"github.com/msalah0e/pdbview/internal/metrics"
	"github.com/msalah0e/pdbview/internal/store"
	"github.com/msalah0e/pdbview/internal/style"
	"github.com/msalah0e/pdbview/internal/view"
)

func atomLine(rec string, serial int, res string, x float64, tail string) string {
	return fmt.Sprintf("%-6s%5d  CA  %-3s A%4d    %8.3f%8.3f%8.3f  1.00  0.00%s",
		rec, serial, res, serial, x, 0.0, 0.0, tail)
}

// samplePDB has two protein atoms (1, 2) and two waters (3, 4).
func samplePDB() string {
	return strings.Join([]string{
		"HEADER    TEST",
		atomLine("ATOM", 1, "VAL", 0, "      LYS1  N"),
		atomLine("ATOM", 2, "VAL", 1, "      LYS1  CA"),
		atomLine("HETATM", 3, "SOL", 5, "      SOL   OW"),
		atomLine("HETATM", 4, "HOH", 6, "      SOL   HW1"),
		"END",
	}, "\n")
}

type fakeFetcher struct {
	mu    sync.Mutex
	texts map[string]string
	gates map[string]chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, id string) (string, error) {
	id = fetch.Normalize(id)
	f.mu.Lock()
	gate := f.gates[id]
	text, ok := f.texts[id]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", fetch.ErrInvalidID, id)
	}
	return text, nil
}

type fixture struct {
	ctrl  *Controller
	scene *engine.Scene
	store *store.Memory
	m     *metrics.Collector
	f     *fakeFetcher
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	fx := &fixture{
		scene: engine.NewScene(),
		store: store.NewMemory(),
		m:     metrics.New(),
		f:     &fakeFetcher{texts: map[string]string{"1abc": samplePDB()}, gates: map[string]chan struct{}{}},
	}
	opts = append([]Option{WithMetrics(fx.m), WithFetcher(fx.f)}, opts...)
	fx.ctrl = New(fx.scene, fx.store, opts...)
	require.NoError(t, fx.ctrl.Restore(context.Background()))
	return fx
}

func (fx *fixture) load(t *testing.T) {
	t.Helper()
	require.NoError(t, fx.ctrl.LoadText(context.Background(), samplePDB(), "sample.pdb"))
}

func (fx *fixture) style(serial int) engine.Style {
	st, _ := fx.scene.StyleOf(serial)
	return st
}

func TestRestore_EmptyStore(t *testing.T) {
	fx := newFixture(t)

	assert.Equal(t, view.Default(), fx.ctrl.State())
	assert.Nil(t, fx.ctrl.Model())
	assert.True(t, fx.scene.Hoverable())
	assert.False(t, fx.scene.Clickable())
	assert.Equal(t, 1, fx.scene.Renders())
}

func TestLoadText(t *testing.T) {
	var events []LoadEvent
	fx := newFixture(t, WithLoadHook(func(e LoadEvent) { events = append(events, e) }))
	fx.load(t)

	m := fx.ctrl.Model()
	require.NotNil(t, m)
	require.Len(t, m.Atoms, 4)
	assert.Equal(t, "LYS1", m.Atoms[0].OrigResName)
	assert.Equal(t, "HW1", m.Atoms[3].OrigAtomSymbol)
	assert.Equal(t, "TIP", m.Atoms[3].ResName)

	text, name, ok := store.NewBridge(fx.store).Structure()
	assert.True(t, ok)
	assert.Equal(t, "sample.pdb", name)
	assert.NotContains(t, text, "HOH")

	require.Len(t, events, 1)
	assert.Equal(t, LoadEvent{Source: SourceFile, Name: "sample.pdb", Protein: 2, Water: 2, Duration: events[0].Duration}, events[0])

	assert.Equal(t, style.ProteinColor, fx.style(1).Color)
	assert.False(t, fx.style(3).Visible(), "cartoon hides water")
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.m.Loads.WithLabelValues(SourceFile, metrics.OutcomeOK)))
}

func TestLoadText_NoAtoms(t *testing.T) {
	fx := newFixture(t)
	fx.load(t)

	err := fx.ctrl.LoadText(context.Background(), "HEADER only\n", "empty.pdb")
	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, AlertEngine, ue.Kind)
	assert.True(t, strings.HasPrefix(ue.Alert(), "Error: "))
	assert.Len(t, fx.ctrl.Model().Atoms, 4, "previous model stays")
	assert.Equal(t, "sample.pdb", fx.ctrl.FileName())
}

func TestRestore_FromStore(t *testing.T) {
	fx := newFixture(t)
	fx.load(t)
	require.NoError(t, fx.ctrl.SetRepresentation(view.Sphere))
	require.NoError(t, fx.ctrl.SetProteinRadius(0.8))
	require.NoError(t, fx.ctrl.SetCustomExpr("serial 3"))

	scene := engine.NewScene()
	again := New(scene, fx.store)
	require.NoError(t, again.Restore(context.Background()))

	assert.Equal(t, fx.ctrl.State(), again.State())
	require.NotNil(t, again.Model())
	assert.Equal(t, "SOL", again.Model().Atoms[2].OrigResName)
	assert.Equal(t, "sample.pdb", again.FileName())
	st, _ := scene.StyleOf(1)
	assert.Equal(t, style.Sphere(0.8, style.ProteinColor), st)
	assert.True(t, scene.Clickable())
}

func TestRestore_UsesDefaultsForMissingKeys(t *testing.T) {
	s := store.NewMemory()
	s.Set(store.KeyFilter, "protein")
	c := New(engine.NewScene(), s, WithDefaults(view.Default().WithRepresentation(view.Stick)))
	require.NoError(t, c.Restore(context.Background()))

	assert.Equal(t, view.Stick, c.State().Representation)
	assert.Equal(t, view.FilterProtein, c.State().Filter)
}

func TestUpdate_PersistsOnlyChangedKeys(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.ctrl.SetFilter(view.FilterWater))

	v, ok := fx.store.Get(store.KeyFilter)
	assert.True(t, ok)
	assert.Equal(t, "water", v)
	_, ok = fx.store.Get(store.KeyRepresentation)
	assert.False(t, ok)
}

func TestSetRadius_NaNIsIgnored(t *testing.T) {
	fx := newFixture(t)
	fx.load(t)
	require.NoError(t, fx.ctrl.SetRepresentation(view.Sphere))
	require.NoError(t, fx.ctrl.SetProteinRadius(0.8))
	before := fx.ctrl.State()
	stored, _ := fx.store.Get(store.KeyProteinRadius)
	renders := fx.scene.Renders()

	require.NoError(t, fx.ctrl.SetProteinRadius(math.NaN()))
	require.NoError(t, fx.ctrl.SetWaterRadius(math.NaN()))
	require.NoError(t, fx.ctrl.SetRadius(math.NaN()))

	next := before
	next.WaterRadius = math.NaN()
	require.NoError(t, fx.ctrl.Update(next))

	assert.Equal(t, before, fx.ctrl.State())
	v, _ := fx.store.Get(store.KeyProteinRadius)
	assert.Equal(t, stored, v)
	_, ok := fx.store.Get(store.KeyWaterRadius)
	assert.False(t, ok, "NaN water radius should not be persisted")
	assert.Equal(t, renders, fx.scene.Renders())
	assert.Equal(t, style.Sphere(0.8, style.ProteinColor), fx.style(1))
}

func TestSetRepresentation_Sphere(t *testing.T) {
	fx := newFixture(t)
	fx.load(t)
	renders := fx.scene.Renders()

	require.NoError(t, fx.ctrl.SetRepresentation(view.Sphere))

	assert.Equal(t, style.Sphere(0.5, style.ProteinColor), fx.style(1))
	assert.Equal(t, style.Sphere(0.5, style.WaterColor), fx.style(3))
	assert.True(t, fx.scene.Clickable())
	assert.Equal(t, renders+1, fx.scene.Renders())
	assert.True(t, fx.ctrl.Visibility().ResizeControls)
}

func TestResizeAll(t *testing.T) {
	fx := newFixture(t)
	fx.load(t)
	require.NoError(t, fx.ctrl.Update(fx.ctrl.State().
		WithRepresentation(view.Sphere).
		WithProteinRadius(0.8).
		WithWaterRadius(0.3)))

	assert.Equal(t, style.Sphere(0.8, "yellow"), fx.style(2))
	assert.Equal(t, style.Sphere(0.3, "#ADD8E6"), fx.style(4))
}

func TestSetRadius_FollowsSizeSelection(t *testing.T) {
	fx := newFixture(t)
	fx.load(t)
	require.NoError(t, fx.ctrl.SetRepresentation(view.Sphere))
	require.NoError(t, fx.ctrl.SetSize(view.SizeWater))
	require.NoError(t, fx.ctrl.SetRadius(1.2))

	st := fx.ctrl.State()
	assert.Equal(t, 0.5, st.ProteinRadius)
	assert.Equal(t, 1.2, st.WaterRadius)
	assert.Equal(t, 1.2, fx.style(3).Radius)
	assert.Equal(t, "Water Radius:", fx.ctrl.Visibility().RadiusLabel)

	v, _ := fx.store.Get(store.KeyWaterRadius)
	assert.Equal(t, "1.2", v)
}

func TestSetSize_CustomDoesNotRender(t *testing.T) {
	fx := newFixture(t)
	fx.load(t)
	require.NoError(t, fx.ctrl.SetRepresentation(view.Sphere))
	renders := fx.scene.Renders()

	require.NoError(t, fx.ctrl.SetSize(view.SizeCustom))
	assert.Equal(t, renders, fx.scene.Renders())
	assert.True(t, fx.ctrl.Visibility().CustomRow)
}

func TestClickThenClickDifferent(t *testing.T) {
	fx := newFixture(t)
	fx.load(t)
	require.NoError(t, fx.ctrl.Update(fx.ctrl.State().
		WithRepresentation(view.Sphere).
		WithProteinRadius(0.8).
		WithWaterRadius(0.3)))

	require.NoError(t, fx.ctrl.Click(1))
	assert.InDelta(t, 1.2, fx.style(1).Radius, 1e-9)
	assert.Equal(t, style.HighlightColor, fx.style(1).Color)
	sel, ok := fx.ctrl.Selected()
	require.True(t, ok)
	assert.Equal(t, 1, sel.Serial)

	require.NoError(t, fx.ctrl.Click(3))
	assert.Equal(t, style.Sphere(0.8, style.ProteinColor), fx.style(1))
	assert.InDelta(t, 0.45, fx.style(3).Radius, 1e-9)
	assert.Equal(t, style.HighlightColor, fx.style(3).Color)
	sel, _ = fx.ctrl.Selected()
	assert.Equal(t, 3, sel.Serial)

	labels := fx.scene.Labels()
	require.Len(t, labels, 1)
	assert.Equal(t, "Atom: 3\nMolecule: SOL\nAtom name: OW", labels[0].Text)
}

func TestSetHighlight_TearsDownSelection(t *testing.T) {
	fx := newFixture(t)
	fx.load(t)
	require.NoError(t, fx.ctrl.SetRepresentation(view.Sphere))
	require.NoError(t, fx.ctrl.Click(2))

	require.NoError(t, fx.ctrl.SetHighlight(false))
	_, ok := fx.ctrl.Selected()
	assert.False(t, ok)
	assert.False(t, fx.scene.Clickable())

	v, _ := fx.store.Get(store.KeyHighlight)
	assert.Equal(t, "false", v)
}

func TestHover(t *testing.T) {
	fx := newFixture(t)
	fx.load(t)

	require.NoError(t, fx.ctrl.Hover(1))
	labels := fx.scene.Labels()
	require.Len(t, labels, 1)
	assert.Equal(t, "Atom: 1;\nResidue: VAL;\nResidue Name: LYS1", labels[0].Text)

	require.NoError(t, fx.ctrl.Hover(0))
	assert.Empty(t, fx.scene.Labels())

	assert.ErrorIs(t, fx.ctrl.Hover(99), engine.ErrUnknownAtom)
}

func TestApplyCustom_Empty(t *testing.T) {
	fx := newFixture(t)
	fx.load(t)
	require.NoError(t, fx.ctrl.Update(fx.ctrl.State().WithRepresentation(view.Sphere).WithSize(view.SizeCustom)))
	require.NoError(t, fx.ctrl.Click(1))

	for _, expr := range []string{"", "   "} {
		require.NoError(t, fx.ctrl.SetCustomExpr(expr))
		before := fx.scene.Styles()
		state := fx.ctrl.State()
		renders := fx.scene.Renders()

		err := fx.ctrl.ApplyCustom()
		alert, ok := AlertOf(err)
		require.True(t, ok, "expected a UserError, got %v", err)
		assert.Equal(t, "Invalid selection.", alert)

		assert.Equal(t, before, fx.scene.Styles())
		assert.Equal(t, state, fx.ctrl.State())
		assert.Equal(t, renders, fx.scene.Renders())
		sel, ok := fx.ctrl.Selected()
		assert.True(t, ok)
		assert.Equal(t, 1, sel.Serial)
	}
}

func TestApplyCustom(t *testing.T) {
	fx := newFixture(t)
	fx.load(t)
	require.NoError(t, fx.ctrl.Update(fx.ctrl.State().
		WithRepresentation(view.Sphere).
		WithSize(view.SizeCustom).
		WithWaterRadius(0.9).
		WithCustomExpr(" serial 3 ")))

	require.NoError(t, fx.ctrl.ApplyCustom())
	assert.Equal(t, style.Sphere(0.9, style.CustomColor), fx.style(3))
	assert.Equal(t, style.Sphere(0.9, style.WaterColor), fx.style(4))
	assert.True(t, fx.scene.Hoverable())
	assert.True(t, fx.scene.Clickable())
	assert.Equal(t, " serial 3 ", fx.ctrl.State().CustomExpr)
}

func TestApplyCustom_EngineError(t *testing.T) {
	fx := newFixture(t)
	fx.load(t)
	require.NoError(t, fx.ctrl.SetCustomExpr("resn ("))

	err := fx.ctrl.ApplyCustom()
	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, AlertEngine, ue.Kind)
	assert.True(t, strings.HasPrefix(ue.Alert(), "Error: "), ue.Alert())
	assert.ErrorIs(t, err, engine.ErrBadExpression)
}

func TestLoadID(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.ctrl.LoadID(context.Background(), " 1ABC "))
	assert.Len(t, fx.ctrl.Model().Atoms, 4)
	assert.Equal(t, "", fx.ctrl.FileName())
	_, ok := fx.store.Get(store.KeyFileName)
	assert.False(t, ok)
}

func TestLoadID_Errors(t *testing.T) {
	fx := newFixture(t)
	fx.load(t)

	alert, ok := AlertOf(fx.ctrl.LoadID(context.Background(), "  "))
	assert.True(t, ok)
	assert.Equal(t, "Enter PDB ID.", alert)

	alert, ok = AlertOf(fx.ctrl.LoadID(context.Background(), "9zzz"))
	assert.True(t, ok)
	assert.Equal(t, "Invalid ID", alert)

	assert.Equal(t, "sample.pdb", fx.ctrl.FileName(), "previous structure stays")
	assert.Len(t, fx.ctrl.Model().Atoms, 4)
}

func TestFinishLoad_Stale(t *testing.T) {
	fx := newFixture(t)
	first := fx.ctrl.BeginLoad(SourceFile)
	second := fx.ctrl.BeginLoad(SourceFile)

	err := fx.ctrl.FinishLoad(context.Background(), first, samplePDB(), "first.pdb")
	assert.ErrorIs(t, err, ErrStaleLoad)
	assert.Nil(t, fx.ctrl.Model())

	require.NoError(t, fx.ctrl.FinishLoad(context.Background(), second, samplePDB(), "second.pdb"))
	assert.Equal(t, "second.pdb", fx.ctrl.FileName())
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.m.StaleLoads))
}

func TestLoadID_LastRequestWins(t *testing.T) {
	fx := newFixture(t)
	gate := make(chan struct{})
	fx.f.mu.Lock()
	fx.f.gates["1abc"] = gate
	fx.f.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- fx.ctrl.LoadID(context.Background(), "1abc") }()

	// Wait until the slow load has taken its ticket.
	require.Eventually(t, func() bool {
		fx.ctrl.mu.Lock()
		defer fx.ctrl.mu.Unlock()
		return fx.ctrl.generation > 0
	}, testTimeout, testTick)

	require.NoError(t, fx.ctrl.LoadText(context.Background(), samplePDB(), "newer.pdb"))
	close(gate)

	assert.ErrorIs(t, <-done, ErrStaleLoad)
	assert.Equal(t, "newer.pdb", fx.ctrl.FileName())
	name, _ := fx.store.Get(store.KeyFileName)
	assert.Equal(t, "newer.pdb", name)
}

func TestEndSession(t *testing.T) {
	fx := newFixture(t)
	fx.load(t)
	require.NoError(t, fx.ctrl.SetRepresentation(view.Stick))

	require.NoError(t, fx.ctrl.EndSession())
	assert.Equal(t, 0, fx.store.Len())
	assert.Equal(t, view.Default(), fx.ctrl.State())
	assert.Nil(t, fx.ctrl.Model())
}

func TestUserError(t *testing.T) {
	err := fetchFailed("Invalid ID", fetch.ErrInvalidID)
	assert.True(t, errors.Is(err, fetch.ErrInvalidID))
	assert.Contains(t, err.Error(), "fetch")

	_, ok := AlertOf(errors.New("plain"))
	assert.False(t, ok)
}

const (
	testTimeout = 2 * time.Second
	testTick    = 5 * time.Millisecond
)
