package interact

import (
	"github.com/msalah0e/pdbview/internal/engine"
	"github.com/msalah0e/pdbview/internal/structure"
	"github.com/msalah0e/pdbview/internal/style"
	"github.com/msalah0e/pdbview/internal/view"
)

// Highlighter enlarges and labels the last clicked atom. It remembers at
// most one selected atom; clicking another atom restores the previous one
// to its class style first.
type Highlighter struct {
	e        engine.Engine
	state    view.State
	active   bool
	selected *structure.Atom
}

// NewHighlighter returns a Highlighter for e. Nothing is registered until
// Install is called.
func NewHighlighter(e engine.Engine) *Highlighter {
	return &Highlighter{e: e}
}

// Install tears down the click handler, forgets the selection, and
// registers the handler again when s is a sphere view with highlighting on.
func (h *Highlighter) Install(s view.State) {
	h.selected = nil
	h.state = s
	h.e.SetClickable(engine.All(), false, nil)

	h.active = s.Representation == view.Sphere && s.Highlight
	if h.active {
		h.e.SetClickable(engine.All(), true, h.OnClick)
	}
}

// Active reports whether clicks are being handled.
func (h *Highlighter) Active() bool { return h.active }

// Selected returns the highlighted atom, if any.
func (h *Highlighter) Selected() (structure.Atom, bool) {
	if h.selected == nil {
		return structure.Atom{}, false
	}
	return *h.selected, true
}

// OnClick handles a click on a.
func (h *Highlighter) OnClick(a structure.Atom) {
	if !h.active {
		return
	}
	if prev := h.selected; prev != nil {
		_ = h.e.SetStyle(engine.Serial(prev.Serial), style.BaseStyleFor(prev.Class(), h.state))
		h.selected = nil
	}

	_ = h.e.SetStyle(engine.Serial(a.Serial), style.HighlightStyleFor(a.Class(), h.state))
	h.selected = &a

	h.e.RemoveAllLabels()
	h.e.AddLabel(ClickLabel(a), ClickOptions(a))
	_ = h.e.Render()
}
