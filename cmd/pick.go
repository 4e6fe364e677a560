package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/pdbview/internal/ui"
	"github.com/msalah0e/pdbview/internal/view"
)

func pickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pick <serial>",
		Short: "Click an atom and show its highlight",
		Long: `Click the atom with the given serial number. In sphere view with
highlighting on, the atom is enlarged, colored lime and labeled.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			serial, err := strconv.Atoi(args[0])
			if err != nil {
				fail(fmt.Errorf("atom serial must be a number: %q", args[0]))
			}
			s := mustOpenSession(cmd)
			if err := s.ctrl.Click(serial); err != nil {
				fail(err)
			}

			st := s.ctrl.State()
			if st.Representation != view.Sphere || !st.Highlight {
				ui.Alert("Clicks only highlight atoms in sphere view with highlighting on")
				fmt.Println(ui.Subtle.Sprint("  Try: pdbview style -r sphere --highlight"))
				return
			}
			a, _ := s.ctrl.Selected()
			got, _ := s.scene.StyleOf(a.Serial)
			printLabels(s)
			fmt.Printf("\n  Style: %s\n", ui.Brand.Sprint(got.String()))
		},
	}
}

func hoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hover <serial>",
		Short: "Show the hover label of an atom",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			serial, err := strconv.Atoi(args[0])
			if err != nil {
				fail(fmt.Errorf("atom serial must be a number: %q", args[0]))
			}
			s := mustOpenSession(cmd)
			if err := s.ctrl.Hover(serial); err != nil {
				fail(err)
			}
			printLabels(s)
		},
	}
}

func printLabels(s *cliSession) {
	for _, l := range s.scene.Labels() {
		for _, line := range strings.Split(l.Text, "\n") {
			fmt.Printf("  %s\n", line)
		}
	}
}
