package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/msalah0e/pdbview/internal/metrics"
	"github.com/msalah0e/pdbview/internal/server"
	"github.com/msalah0e/pdbview/internal/ui"
	"github.com/msalah0e/pdbview/internal/viewer"
	"github.com/msalah0e/pdbview/internal/watch"
)

const sessionIdle = 2 * time.Hour

func serveCmd() *cobra.Command {
	var (
		addr    string
		watchIt bool
		origins []string
	)

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve the browser viewer",
		Long: `Serve the 3D viewer page. Each browser tab gets its own session; the
view is rendered with 3Dmol.js from commands the server sends.

  pdbview serve                    # Empty viewer
  pdbview serve model.pdb          # Start every session with a structure
  pdbview serve model.pdb --watch  # Reload open tabs when the file changes`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if watchIt && len(args) == 0 {
				fail(fmt.Errorf("--watch needs a file"))
			}
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Serve.Addr
			}

			m := metrics.New()
			srv := server.New(server.Config{
				Addr:           addr,
				AllowedOrigins: origins,
				Defaults:       cfg.View.State(),
				Fetcher:        newFetcher(),
				OnLoad:         func(session string, e viewer.LoadEvent) { historyHook(cmd.Context(), session)(e) },
			}, logger, m)

			ctx := cmd.Context()
			if len(args) == 1 {
				raw, name, err := readStructure(args[0])
				if err != nil {
					fail(err)
				}
				if err := srv.Reload(ctx, raw, name); err != nil {
					fail(err)
				}
			}

			ui.Banner("serve")
			fmt.Printf("  Viewer:   %s\n", ui.Brand.Sprint("http://"+addr+"/"))
			fmt.Printf("  Metrics:  %s\n", ui.Subtle.Sprint("http://"+addr+"/metrics"))
			if watchIt {
				fmt.Printf("  Watching: %s\n", filepath.Base(args[0]))
			}
			fmt.Println()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.ListenAndServe(ctx) })
			g.Go(func() error { return pruneLoop(ctx, srv) })
			if watchIt {
				w, err := watch.New(args[0], cfg.Serve.WatchDebounce(), srv.Reload, logger)
				if err != nil {
					fail(err)
				}
				g.Go(func() error { return w.Run(ctx) })
			}
			if err := g.Wait(); err != nil {
				fail(err)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVarP(&watchIt, "watch", "w", false, "Reload the file when it changes")
	cmd.Flags().StringSliceVar(&origins, "origin", nil, "Allowed CORS origins (default localhost)")
	return cmd
}

// pruneLoop drops idle browser sessions until ctx is done.
func pruneLoop(ctx context.Context, srv *server.Server) error {
	t := time.NewTicker(10 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := srv.Prune(sessionIdle); n > 0 {
				logger.Info("pruned idle sessions", zap.Int("count", n))
			}
		}
	}
}
