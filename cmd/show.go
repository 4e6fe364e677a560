package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/msalah0e/pdbview/internal/engine"
	"github.com/msalah0e/pdbview/internal/structure"
	"github.com/msalah0e/pdbview/internal/ui"
)

func showCmd() *cobra.Command {
	var (
		atoms bool
		limit int
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the session's structure and view settings",
		Run: func(cmd *cobra.Command, args []string) {
			s := mustOpenSession(cmd)
			ui.Banner("session " + s.file.ID())
			printSummary(s)
			fmt.Println()
			ui.KeyValue(os.Stdout, stateRows(s.ctrl.State()))

			if !atoms || s.ctrl.Model() == nil {
				return
			}
			fmt.Println()
			rows := atomRows(s.ctrl.Model().Atoms, s.scene.Styles(), limit)
			ui.Table([]string{"Serial", "Residue", "Original", "Atom", "Class", "Style"}, rows)
			if n := len(s.ctrl.Model().Atoms); limit > 0 && n > limit {
				fmt.Printf("\n  Showing %d of %d atoms (use --limit 0 for all)\n", limit, n)
			}
		},
	}

	cmd.Flags().BoolVarP(&atoms, "atoms", "a", false, "List atoms with their current style")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum atoms to list (0 for all)")
	return cmd
}

func atomRows(atoms []structure.Atom, styles []engine.Style, limit int) [][]string {
	var rows [][]string
	for i, a := range atoms {
		if limit > 0 && i >= limit {
			break
		}
		st := "-"
		if i < len(styles) {
			st = styles[i].String()
		}
		name := a.OrigAtomSymbol
		if name == "" {
			name = a.Name
		}
		rows = append(rows, []string{
			strconv.Itoa(a.Serial),
			a.ResName,
			a.OrigResName,
			name,
			a.Class().String(),
			st,
		})
	}
	return rows
}
