package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/pdbview/internal/style"
	"github.com/msalah0e/pdbview/internal/ui"
)

func customCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "custom [expression]",
		Short: "Color a custom selection orange",
		Long: `Draw the atoms matching a selection expression as orange spheres on top
of the current view. Without an argument the stored expression is applied.

  pdbview custom 'resn TIP and serial 100-200'
  pdbview custom 'chain A and resi 10-20'
  pdbview custom`,
		Run: func(cmd *cobra.Command, args []string) {
			s := mustOpenSession(cmd)
			if len(args) > 0 {
				if err := s.ctrl.SetCustomExpr(strings.Join(args, " ")); err != nil {
					fail(err)
				}
			}
			if err := s.ctrl.ApplyCustom(); err != nil {
				fail(err)
			}

			n := 0
			for _, st := range s.scene.Styles() {
				if st.Color == style.CustomColor {
					n++
				}
			}
			ui.Good.Printf("  %s %d atoms match %s\n", ui.StatusIcon(true), n, ui.Brand.Sprint(s.ctrl.State().CustomExpr))
			if !s.ctrl.Visibility().CustomRow {
				fmt.Println(ui.Subtle.Sprint("  Tip: pdbview style -r sphere --size selected shows the selection row"))
			}
		},
	}
	return cmd
}
