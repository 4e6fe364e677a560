package engine

import (
	"context"

	"github.com/msalah0e/pdbview/internal/structure"
)

// Command is one engine call, encoded for replay by a browser-side viewer.
type Command struct {
	Op   string         `json:"op"`
	Args map[string]any `json:"args,omitempty"`
}

// Recorder forwards every call to a Scene and keeps a log of the calls as
// Commands. Callbacks stay server-side: the browser reports hovers and
// clicks back and the Recorder raises them on the Scene.
type Recorder struct {
	*Scene
	log []Command
}

// NewRecorder returns a Recorder over a fresh Scene.
func NewRecorder() *Recorder {
	return &Recorder{Scene: NewScene()}
}

func (r *Recorder) record(op string, args map[string]any) {
	r.log = append(r.log, Command{Op: op, Args: args})
}

// Drain returns the commands recorded since the last Drain.
func (r *Recorder) Drain() []Command {
	out := r.log
	r.log = nil
	return out
}

// LoadModel implements Engine.
func (r *Recorder) LoadModel(ctx context.Context, text, format string) (*structure.Model, error) {
	m, err := r.Scene.LoadModel(ctx, text, format)
	if err != nil {
		return nil, err
	}
	r.record("clear", nil)
	r.record("addModel", map[string]any{"data": text, "format": format})
	return m, nil
}

// SetStyle implements Engine.
func (r *Recorder) SetStyle(sel Selector, st Style) error {
	if err := r.Scene.SetStyle(sel, st); err != nil {
		return err
	}
	r.record("setStyle", map[string]any{"sel": sel, "style": st})
	return nil
}

// ZoomToFit implements Engine.
func (r *Recorder) ZoomToFit() {
	r.Scene.ZoomToFit()
	r.record("zoomTo", nil)
}

// Render implements Engine.
func (r *Recorder) Render() error {
	r.record("render", nil)
	return r.Scene.Render()
}

// SetHoverable implements Engine.
func (r *Recorder) SetHoverable(sel Selector, enabled bool, onEnter, onExit AtomFunc) {
	r.Scene.SetHoverable(sel, enabled, onEnter, onExit)
	r.record("setHoverable", map[string]any{"sel": sel, "enabled": enabled && onEnter != nil})
}

// SetClickable implements Engine.
func (r *Recorder) SetClickable(sel Selector, enabled bool, onClick AtomFunc) {
	r.Scene.SetClickable(sel, enabled, onClick)
	r.record("setClickable", map[string]any{"sel": sel, "enabled": enabled && onClick != nil})
}

// AddLabel implements Engine.
func (r *Recorder) AddLabel(text string, opts LabelOptions) {
	r.Scene.AddLabel(text, opts)
	r.record("addLabel", map[string]any{"text": text, "options": opts})
}

// RemoveAllLabels implements Engine.
func (r *Recorder) RemoveAllLabels() {
	r.Scene.RemoveAllLabels()
	r.record("removeAllLabels", nil)
}
