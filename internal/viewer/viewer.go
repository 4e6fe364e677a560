// Package viewer is the controller behind every pdbview surface. It owns
// the view state, drives the rendering engine through style plans, keeps the
// session store in step and installs the pointer handlers.
//
// A Controller is safe for concurrent use. Every mutation runs one
// reconciliation pass to completion before the next starts; only the
// download of a structure by id happens outside the lock.
package viewer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/msalah0e/pdbview/internal/engine"
	"github.com/msalah0e/pdbview/internal/fetch"
	"github.com/msalah0e/pdbview/internal/interact"
	"github.com/msalah0e/pdbview/internal/metrics"
	"github.com/msalah0e/pdbview/internal/store"
	"github.com/msalah0e/pdbview/internal/structure"
	"github.com/msalah0e/pdbview/internal/style"
	"github.com/msalah0e/pdbview/internal/view"
)

// Fetcher downloads structure text by PDB id.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (string, error)
}

// Load sources.
const (
	SourceFile    = "file"
	SourceID      = "id"
	SourceRestore = "restore"
)

// LoadEvent describes a completed load.
type LoadEvent struct {
	Source   string
	Name     string // file name or PDB id
	Protein  int
	Water    int
	Duration time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithFetcher sets the client used by LoadID.
func WithFetcher(f Fetcher) Option {
	return func(c *Controller) { c.fetcher = f }
}

// WithDefaults sets the state used for keys missing from the store.
func WithDefaults(s view.State) Option {
	return func(c *Controller) { c.defaults = s }
}

// WithLoadHook registers fn to run after every successful load.
func WithLoadHook(fn func(LoadEvent)) Option {
	return func(c *Controller) { c.onLoad = fn }
}

// Controller drives one viewer session.
type Controller struct {
	mu sync.Mutex

	engine  engine.Engine
	bridge  *store.Bridge
	fetcher Fetcher
	log     *zap.Logger
	metrics *metrics.Collector
	onLoad  func(LoadEvent)

	defaults    view.State
	state       view.State
	model       *structure.Model
	fileName    string
	highlighter *interact.Highlighter
	generation  uint64
}

// New returns a Controller over e, persisting into s. Call Restore before
// use to pick up a stored session.
func New(e engine.Engine, s store.Store, opts ...Option) *Controller {
	c := &Controller{
		engine:      e,
		bridge:      store.NewBridge(s),
		fetcher:     &fetch.Client{},
		log:         zap.NewNop(),
		defaults:    view.Default(),
		highlighter: interact.NewHighlighter(e),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state = c.defaults
	return c
}

// Restore rebuilds the state from the store, reloads the stored structure
// if there is one, and draws it.
func (c *Controller) Restore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = c.bridge.RestoreOnto(c.defaults)
	text, name, ok := c.bridge.Structure()
	c.fileName = name
	if ok {
		start := time.Now()
		ing, err := structure.Ingest(text)
		if err == nil {
			err = c.loadModel(ctx, ing)
		}
		if err != nil {
			c.log.Warn("stored structure could not be restored", zap.Error(err))
			c.metrics.RecordLoad(SourceRestore, metrics.OutcomeError)
		} else {
			c.loaded(SourceRestore, name, start)
		}
	}

	c.log.Debug("session restored",
		zap.String("representation", string(c.state.Representation)),
		zap.String("filter", string(c.state.Filter)),
		zap.String("size", string(c.state.Size)),
		zap.Bool("structure", ok))
	return c.redraw()
}

// State returns the current view state.
func (c *Controller) State() view.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Visibility returns the derived control visibility of the current state.
func (c *Controller) Visibility() view.Visibility {
	return c.State().Visibility()
}

// Model returns the loaded model, or nil.
func (c *Controller) Model() *structure.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// FileName returns the name of the loaded file, empty for structures
// fetched by id.
func (c *Controller) FileName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fileName
}

// Selected returns the click-highlighted atom, if any.
func (c *Controller) Selected() (structure.Atom, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.highlighter.Selected()
}

// Engine returns the engine the controller draws on.
func (c *Controller) Engine() engine.Engine { return c.engine }

// pass is the kind of work a state change requires, weakest first.
type pass int

const (
	passPersist pass = iota
	passHandlers
	passResize
	passReconcile
)

func (p pass) String() string {
	switch p {
	case passHandlers:
		return "handlers"
	case passResize:
		return "resize"
	case passReconcile:
		return "reconcile"
	default:
		return "persist"
	}
}

// Update moves the viewer to next. Every changed field is persisted under
// its own key; then the strongest pass any change requires is run once.
func (c *Controller) Update(next view.State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.update(next)
}

func (c *Controller) update(next view.State) error {
	prev := c.state
	if !view.ValidRadius(next.ProteinRadius) {
		next.ProteinRadius = prev.ProteinRadius
	}
	if !view.ValidRadius(next.WaterRadius) {
		next.WaterRadius = prev.WaterRadius
	}
	next = next.WithProteinRadius(next.ProteinRadius).WithWaterRadius(next.WaterRadius)

	need := passPersist
	change := func(key string, changed bool, p pass) {
		if !changed {
			return
		}
		if err := c.bridge.SaveField(key, next); err != nil {
			c.log.Warn("persist failed", zap.String("key", key), zap.Error(err))
		}
		if p > need {
			need = p
		}
	}
	change(store.KeyRepresentation, next.Representation != prev.Representation, passReconcile)
	change(store.KeyFilter, next.Filter != prev.Filter, passReconcile)
	change(store.KeySize, next.Size != prev.Size, passResize)
	change(store.KeyProteinRadius, next.ProteinRadius != prev.ProteinRadius, passResize)
	change(store.KeyWaterRadius, next.WaterRadius != prev.WaterRadius, passResize)
	change(store.KeyHighlight, next.Highlight != prev.Highlight, passHandlers)
	change(store.KeyCustomExpr, next.CustomExpr != prev.CustomExpr, passPersist)

	c.state = next
	switch need {
	case passReconcile:
		if err := c.apply(passReconcile, style.Full(next)); err != nil {
			return err
		}
	case passResize:
		p := style.Reconcile(next)
		if next.Representation == view.Sphere {
			p, _ = style.Resize(next)
		}
		if err := c.apply(passResize, p); err != nil {
			return err
		}
	}
	if need >= passHandlers {
		c.highlighter.Install(next)
	}
	return nil
}

func (c *Controller) apply(kind pass, p style.Plan) error {
	if err := style.Apply(c.engine, p); err != nil {
		return engineFailed(err)
	}
	c.metrics.RecordReconcile(kind.String(), len(p.Calls))
	c.log.Debug("restyled", zap.Stringer("pass", kind), zap.Int("calls", len(p.Calls)))
	return nil
}

// redraw is the full draw after a load or restore: styles without a
// render, hover labels, camera, one render, then the click handler.
func (c *Controller) redraw() error {
	if err := c.apply(passReconcile, style.Full(c.state).WithoutRender()); err != nil {
		return err
	}
	interact.InstallHover(c.engine)
	c.engine.ZoomToFit()
	if err := c.engine.Render(); err != nil {
		return engineFailed(err)
	}
	c.highlighter.Install(c.state)
	return nil
}

// SetRepresentation switches the drawing style.
func (c *Controller) SetRepresentation(r view.Representation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.update(c.state.WithRepresentation(r))
}

// SetFilter switches the residue filter.
func (c *Controller) SetFilter(f view.ResidueFilter) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.update(c.state.WithFilter(f))
}

// SetSize switches which class the radius control resizes.
func (c *Controller) SetSize(z view.SizeSelection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.update(c.state.WithSize(z))
}

// SetProteinRadius sets the protein sphere radius.
func (c *Controller) SetProteinRadius(r float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.update(c.state.WithProteinRadius(r))
}

// SetWaterRadius sets the water sphere radius.
func (c *Controller) SetWaterRadius(r float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.update(c.state.WithWaterRadius(r))
}

// SetRadius applies a radius control change for the current size selection.
func (c *Controller) SetRadius(r float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.update(c.state.WithSlider(r))
}

// SetHighlight turns click highlighting on or off.
func (c *Controller) SetHighlight(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.update(c.state.WithHighlight(on))
}

// SetCustomExpr stores the custom expression without applying it.
func (c *Controller) SetCustomExpr(expr string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.update(c.state.WithCustomExpr(expr))
}

// ApplyCustom draws the stored custom expression as an orange overlay on
// the baseline. A blank expression or one the engine rejects returns a
// UserError; the view state is never changed by ApplyCustom.
func (c *Controller) ApplyCustom() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := style.Custom(c.state, c.state.CustomExpr)
	if errors.Is(err, style.ErrEmptyExpression) {
		return emptyInput("Invalid selection.")
	}
	if err != nil {
		return engineFailed(err)
	}
	if err := c.apply(passReconcile, p.WithoutRender()); err != nil {
		c.log.Info("custom expression rejected", zap.String("expr", c.state.CustomExpr), zap.Error(err))
		return err
	}
	interact.InstallHover(c.engine)
	if err := c.engine.Render(); err != nil {
		return engineFailed(err)
	}
	c.highlighter.Install(c.state)
	return nil
}

// Hover moves the pointer onto the atom with the given serial. A serial of
// zero or less moves it off every atom.
func (c *Controller) Hover(serial int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.engine.(engine.Pointer)
	if !ok {
		return ErrNoPointer
	}
	if serial <= 0 {
		return p.Unhover()
	}
	return p.Hover(serial)
}

// Click clicks the atom with the given serial.
func (c *Controller) Click(serial int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.engine.(engine.Pointer)
	if !ok {
		return ErrNoPointer
	}
	return p.Click(serial)
}

// EndSession clears every stored key and resets the state to the defaults.
// The engine keeps its current drawing until the next load.
func (c *Controller) EndSession() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.state = c.defaults
	c.model = nil
	c.fileName = ""
	return c.bridge.Clear()
}

func trimID(id string) string {
	return strings.TrimSpace(id)
}
