package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/msalah0e/pdbview/internal/ui"
)

func loadCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "load [file]",
		Short: "Load a structure from a PDB file or by PDB id",
		Long: `Load a structure into the session. The current view settings are kept
and applied to the new structure.

  pdbview load model.pdb       # Load a local file
  pdbview load - < model.pdb   # Read from stdin
  pdbview load --id 1crn       # Download from the PDB`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			byID := cmd.Flags().Changed("id")
			if !byID && len(args) == 0 {
				_ = cmd.Help()
				return
			}
			s := mustOpenSession(cmd)
			ctx := cmd.Context()

			if byID {
				fmt.Printf("  Fetching %s... ", ui.Brand.Sprint(id))
				if err := s.ctrl.LoadID(ctx, id); err != nil {
					fmt.Println()
					fail(err)
				}
				ui.Good.Println("done")
			} else {
				raw, name, err := readStructure(args[0])
				if err != nil {
					fail(err)
				}
				if err := s.ctrl.LoadText(ctx, raw, name); err != nil {
					fail(err)
				}
			}

			ui.Good.Printf("  %s Loaded\n\n", ui.StatusIcon(true))
			printSummary(s)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "PDB id to download")
	return cmd
}

// readStructure reads a structure file, or stdin for "-".
func readStructure(path string) (raw, name string, err error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return string(data), filepath.Base(path), nil
}
