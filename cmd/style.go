package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/msalah0e/pdbview/internal/ui"
	"github.com/msalah0e/pdbview/internal/view"
)

func styleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "style",
		Short: "Change how the structure is drawn",
		Long: `Change the representation, residue filter and sphere sizes. Only the
flags you pass are changed; the rest of the view is kept.

  pdbview style --representation sphere
  pdbview style --filter water
  pdbview style --size protein --radius 1.2
  pdbview style --highlight=false`,
		Run: func(cmd *cobra.Command, args []string) {
			s := mustOpenSession(cmd)
			next, err := applyStyleFlags(cmd.Flags(), s.ctrl.State())
			if err != nil {
				fail(err)
			}
			if err := s.ctrl.Update(next); err != nil {
				fail(err)
			}
			printState(s.ctrl.State())
		},
	}

	f := cmd.Flags()
	f.StringP("representation", "r", "", "cartoon, stick or sphere")
	f.StringP("filter", "f", "", "Residues to show: all, protein or water")
	f.String("size", "", "Atoms the radius applies to: all, protein, water or selected")
	f.Float64("protein-radius", 0, "Protein sphere radius (0.1-2.0)")
	f.Float64("water-radius", 0, "Water sphere radius (0.1-2.0)")
	f.Float64("radius", 0, "Radius for the current size selection (0.1-2.0)")
	f.Bool("highlight", true, "Highlight clicked atoms in sphere view")
	f.String("expr", "", "Store a custom selection expression")
	return cmd
}

// applyStyleFlags applies every changed style flag to st, in the order the
// controls depend on each other: size before radius.
func applyStyleFlags(f *pflag.FlagSet, st view.State) (view.State, error) {
	if f.Changed("representation") {
		v, _ := f.GetString("representation")
		r, err := view.ParseRepresentation(v)
		if err != nil {
			return st, err
		}
		st = st.WithRepresentation(r)
	}
	if f.Changed("filter") {
		v, _ := f.GetString("filter")
		r, err := view.ParseFilter(v)
		if err != nil {
			return st, err
		}
		st = st.WithFilter(r)
	}
	if f.Changed("size") {
		v, _ := f.GetString("size")
		z, err := view.ParseSize(v)
		if err != nil {
			return st, err
		}
		st = st.WithSize(z)
	}
	if f.Changed("protein-radius") {
		v, err := radiusFlag(f, "protein-radius")
		if err != nil {
			return st, err
		}
		st = st.WithProteinRadius(v)
	}
	if f.Changed("water-radius") {
		v, err := radiusFlag(f, "water-radius")
		if err != nil {
			return st, err
		}
		st = st.WithWaterRadius(v)
	}
	if f.Changed("radius") {
		v, err := radiusFlag(f, "radius")
		if err != nil {
			return st, err
		}
		st = st.WithSlider(v)
	}
	if f.Changed("highlight") {
		v, _ := f.GetBool("highlight")
		st = st.WithHighlight(v)
	}
	if f.Changed("expr") {
		v, _ := f.GetString("expr")
		st = st.WithCustomExpr(v)
	}
	return st, nil
}

// radiusFlag reads a radius flag. pflag accepts NaN, which is rejected.
func radiusFlag(f *pflag.FlagSet, name string) (float64, error) {
	v, _ := f.GetFloat64(name)
	if !view.ValidRadius(v) {
		return 0, fmt.Errorf("%w: --%s must be a number", view.ErrInvalidValue, name)
	}
	return v, nil
}

func stateRows(st view.State) [][2]string {
	v := st.Visibility()
	rows := [][2]string{
		{"Representation", string(st.Representation)},
		{"Residues", string(st.Filter)},
	}
	if v.ResizeControls {
		rows = append(rows,
			[2]string{"Resize", string(st.Size)},
			[2]string{"Protein radius", fmt.Sprintf("%.2f", st.ProteinRadius)},
			[2]string{"Water radius", fmt.Sprintf("%.2f", st.WaterRadius)},
			[2]string{"Highlight", ui.StatusIcon(st.Highlight)},
		)
	}
	if v.ShowCustom() {
		expr := st.CustomExpr
		if !st.CustomPending() {
			expr = ui.Subtle.Sprint("(none)")
		}
		rows = append(rows, [2]string{"Selection", expr})
	}
	return rows
}

func printState(st view.State) {
	ui.Banner("view")
	ui.KeyValue(os.Stdout, stateRows(st))
}
