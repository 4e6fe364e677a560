package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/msalah0e/pdbview/internal/activity"
	"github.com/msalah0e/pdbview/internal/ui"
)

func historyCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"log"},
		Short:   "Show recently loaded structures",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("history")

			entries, err := activity.Read(count)
			if err != nil || len(entries) == 0 {
				fmt.Println("  No history recorded yet.")
				fmt.Println("  Loads are recorded by `pdbview load` and `pdbview serve`")
				return
			}

			ui.Table([]string{"Time", "Action", "Session", "Source", "Atoms", "Took"}, historyRows(entries))
			fmt.Printf("\n  Showing %d most recent entries\n", len(entries))
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 20, "Number of entries to show")
	cmd.AddCommand(
		historySearchCmd(),
		historyClearCmd(),
		historyExportCmd(),
		historyStatsCmd(),
	)
	return cmd
}

func historyRows(entries []activity.Entry) [][]string {
	var rows [][]string
	for _, e := range entries {
		atoms := "-"
		if e.Protein+e.Water > 0 {
			atoms = fmt.Sprintf("%d/%d", e.Protein, e.Water)
		}
		took := "-"
		if e.Duration > 0 {
			took = formatDuration(time.Duration(e.Duration * float64(time.Second)))
		}
		source := e.Source
		if source == "" {
			source = "-"
		}
		rows = append(rows, []string{e.Timestamp.Format("Jan 02 15:04"), e.Action, e.Session, truncate(source, 30), atoms, took})
	}
	return rows
}

func historySearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search history entries",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			results, err := activity.Search(args[0], 50)
			if err != nil || len(results) == 0 {
				fmt.Printf("  No entries matching %q\n", args[0])
				return
			}
			ui.Banner("search results")
			ui.Table([]string{"Time", "Action", "Session", "Source", "Atoms", "Took"}, historyRows(results))
			fmt.Printf("\n  %d results\n", len(results))
		},
	}
}

func historyClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the history",
		Run: func(cmd *cobra.Command, args []string) {
			if err := activity.Clear(); err != nil {
				ui.Bad.Printf("  Failed to clear: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s History cleared\n", ui.StatusIcon(true))
		},
	}
}

func historyExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export history as JSON",
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := activity.Read(0)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			data, _ := json.MarshalIndent(entries, "", "  ")
			fmt.Println(string(data))
		},
	}
}

func historyStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show history statistics",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("history stats")

			entries, err := activity.Read(0)
			if err != nil || len(entries) == 0 {
				fmt.Println("  No history data")
				return
			}

			sources := make(map[string]int)
			actions := make(map[string]int)
			var total float64
			for _, e := range entries {
				if e.Source != "" {
					sources[e.Source]++
				}
				actions[e.Action]++
				total += e.Duration
			}

			fmt.Printf("  Total entries: %d\n\n", len(entries))
			fmt.Println("  By action:")
			for _, k := range sortedByCount(actions) {
				fmt.Printf("    %-20s %d\n", k, actions[k])
			}
			fmt.Println("\n  Most loaded:")
			for i, k := range sortedByCount(sources) {
				if i == 10 {
					break
				}
				fmt.Printf("    %-20s %d\n", k, sources[k])
			}
			if total > 0 {
				fmt.Printf("\n  Total load time: %s\n", formatDuration(time.Duration(total*float64(time.Second))))
			}
		},
	}
}

// sortedByCount returns the keys of m, most frequent first.
func sortedByCount(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
