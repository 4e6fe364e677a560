package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msalah0e/pdbview/internal/cache"
	"github.com/msalah0e/pdbview/internal/parallel"
	"github.com/msalah0e/pdbview/internal/ui"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage downloaded structures — prefetch, list and bundle",
	}

	cmd.AddCommand(
		cacheFetchCmd(),
		cacheListCmd(),
		cacheClearCmd(),
		cacheBundleCmd(),
	)
	return cmd
}

func cacheFetchCmd() *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "fetch <id...>",
		Short: "Download structures for offline use",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			f := newFetcher()
			if f.Cache == nil {
				ui.Warn.Printf("  %s Caching is disabled in %s\n", ui.WarnIcon(), "[fetch] cache")
				os.Exit(1)
			}

			ui.Banner("fetching")
			var tasks []parallel.Task
			for _, id := range args {
				id := id
				tasks = append(tasks, parallel.Task{
					Name: id,
					Fn: func(ctx context.Context) (string, error) {
						raw, err := f.Fetch(ctx, id)
						if err != nil {
							return "", err
						}
						return humanSize(int64(len(raw))), nil
					},
				})
			}
			results := parallel.Run(cmd.Context(), os.Stdout, tasks, jobs)

			failed := parallel.Failed(results)
			fmt.Printf("\n  %d cached", len(args)-failed)
			if failed > 0 {
				fmt.Printf(" · %d failed", failed)
			}
			fmt.Printf("\n  Cache: %s\n", f.Cache.Dir)
			if failed > 0 {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", parallel.DefaultJobs, "Concurrent downloads")
	return cmd
}

func cacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List cached structures",
		Run: func(cmd *cobra.Command, args []string) {
			c := cache.New(cfg.Fetch.CacheTTL())
			entries, err := c.List()
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			if len(entries) == 0 {
				fmt.Println("  Cache is empty.")
				return
			}

			ui.Banner("cache")
			var rows [][]string
			for _, e := range entries {
				rows = append(rows, []string{e.ID, humanSize(e.Size), e.ModTime.Format("Jan 02 15:04"), ui.StatusIcon(c.IsCached(e.ID))})
			}
			ui.Table([]string{"ID", "Size", "Downloaded", "Fresh"}, rows)
			fmt.Printf("\n  Cache: %s\n", c.Dir)
		},
	}
}

func cacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached structure",
		Run: func(cmd *cobra.Command, args []string) {
			if err := cache.New(0).Clear(); err != nil {
				ui.Bad.Printf("  Failed to clear: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Cache cleared\n", ui.StatusIcon(true))
		},
	}
}

func cacheBundleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bundle <output.tar.gz>",
		Short: "Create a portable bundle of cached structures",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			output := args[0]
			ui.Banner("bundling")

			if err := cache.New(0).Bundle(output); err != nil {
				ui.Bad.Printf("  Bundle failed: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Bundle created: %s\n", ui.StatusIcon(true), output)
		},
	}
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
