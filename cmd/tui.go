package cmd

import (
	"github.com/spf13/cobra"

	"github.com/msalah0e/pdbview/internal/tui"
)

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ui",
		Aliases: []string{"tui"},
		Short:   "Interactive terminal control panel",
		Long: `Adjust the session's view from the terminal. Changes are saved to the
session as you make them, so a browser or a later command sees them.

  pdbview ui
  pdbview ui --session lysozyme`,
		Run: func(cmd *cobra.Command, args []string) {
			s := mustOpenSession(cmd)
			if err := tui.Run(cmd.Context(), s.ctrl); err != nil {
				fail(err)
			}
		},
	}
}
