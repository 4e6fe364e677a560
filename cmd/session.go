package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msalah0e/pdbview/internal/activity"
	"github.com/msalah0e/pdbview/internal/cache"
	"github.com/msalah0e/pdbview/internal/engine"
	"github.com/msalah0e/pdbview/internal/fetch"
	"github.com/msalah0e/pdbview/internal/hooks"
	"github.com/msalah0e/pdbview/internal/store"
	"github.com/msalah0e/pdbview/internal/structure"
	"github.com/msalah0e/pdbview/internal/ui"
	"github.com/msalah0e/pdbview/internal/viewer"
)

// cliSession is a controller over the on-disk session store.
type cliSession struct {
	ctrl  *viewer.Controller
	scene *engine.Scene
	file  *store.File
}

// openSession restores the --session store into a fresh scene.
func openSession(ctx context.Context) (*cliSession, error) {
	f, err := store.OpenFile(sessionID)
	if err != nil {
		return nil, err
	}
	scene := engine.NewScene()
	ctrl := viewer.New(scene, f,
		viewer.WithLogger(logger.With(zap.String("session", f.ID()))),
		viewer.WithFetcher(newFetcher()),
		viewer.WithDefaults(cfg.View.State()),
		viewer.WithLoadHook(historyHook(ctx, f.ID())),
	)
	if err := ctrl.Restore(ctx); err != nil {
		return nil, err
	}
	return &cliSession{ctrl: ctrl, scene: scene, file: f}, nil
}

func mustOpenSession(cmd *cobra.Command) *cliSession {
	s, err := openSession(cmd.Context())
	if err != nil {
		fail(err)
	}
	return s
}

func newFetcher() *fetch.Client {
	var c *cache.Cache
	if cfg.Fetch.Cache {
		c = cache.New(cfg.Fetch.CacheTTL())
	}
	f := fetch.New(cfg.Fetch.Endpoint, cfg.Fetch.Timeout(), c)
	f.Log = logger.Named("fetch")
	return f
}

// historyHook records file and id loads and runs the post_load hook.
// Restores are skipped.
func historyHook(ctx context.Context, session string) func(viewer.LoadEvent) {
	return func(e viewer.LoadEvent) {
		action := activity.ActionLoad
		switch e.Source {
		case viewer.SourceRestore:
			return
		case viewer.SourceID:
			action = activity.ActionFetch
		}
		if err := activity.LogLoad(action, session, e.Name, e.Protein, e.Water, e.Duration); err != nil {
			logger.Warn("history not written", zap.Error(err))
		}
		runHook(ctx, hooks.Event{Phase: hooks.PostLoad, Session: session, Source: e.Name, Protein: e.Protein, Water: e.Water})
	}
}

func runHook(ctx context.Context, ev hooks.Event) {
	if err := hooks.Run(ctx, cfg.Hooks, ev, os.Stderr); err != nil {
		ui.Warn.Printf("  %s %s hook failed: %v\n", ui.WarnIcon(), ev.Phase, err)
	}
}

// counts returns the protein and water atom counts of m.
func counts(m *structure.Model) (protein, water int) {
	if m == nil {
		return 0, 0
	}
	for _, a := range m.Atoms {
		if a.Class() == structure.ClassProtein {
			protein++
		} else {
			water++
		}
	}
	return protein, water
}

func printSummary(s *cliSession) {
	m := s.ctrl.Model()
	if m == nil {
		fmt.Println("  No structure loaded.")
		fmt.Println("  Try: pdbview load model.pdb   or   pdbview load --id 1crn")
		return
	}
	protein, water := counts(m)
	name := s.ctrl.FileName()
	if name == "" {
		name = ui.Subtle.Sprint("(unnamed)")
	}
	st := s.ctrl.State()
	ui.KeyValue(os.Stdout, [][2]string{
		{"Session", s.file.ID()},
		{"Structure", name},
		{"Atoms", fmt.Sprintf("%d protein · %d water", protein, water)},
		{"Representation", string(st.Representation)},
		{"Residues", string(st.Filter)},
	})
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
