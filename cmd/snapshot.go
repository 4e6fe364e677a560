package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/msalah0e/pdbview/internal/snapshot"
	"github.com/msalah0e/pdbview/internal/ui"
)

func snapshotCmd() *cobra.Command {
	var (
		output string
		width  int
		height int
		bg     string
		custom bool
		pick   int
		hover  int
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render the session to a PNG image",
		Long: `Render the current view to a PNG, looking down the z axis.

  pdbview snapshot -o view.png
  pdbview snapshot -o pick.png --pick 42
  pdbview snapshot -o sel.png --custom --width 1600 --height 1200`,
		Run: func(cmd *cobra.Command, args []string) {
			s := mustOpenSession(cmd)
			if s.ctrl.Model() == nil {
				fail(snapshot.ErrNothingToDraw)
			}
			if custom {
				if err := s.ctrl.ApplyCustom(); err != nil {
					fail(err)
				}
			}
			if pick > 0 {
				if err := s.ctrl.Click(pick); err != nil {
					fail(err)
				}
			}
			if hover > 0 {
				if err := s.ctrl.Hover(hover); err != nil {
					fail(err)
				}
			}

			opts := snapshot.Options{Width: cfg.Snapshot.Width, Height: cfg.Snapshot.Height, Background: cfg.Snapshot.Background}
			if cmd.Flags().Changed("width") {
				opts.Width = width
			}
			if cmd.Flags().Changed("height") {
				opts.Height = height
			}
			if cmd.Flags().Changed("background") {
				opts.Background = bg
			}

			f, err := os.Create(output)
			if err != nil {
				fail(err)
			}
			if err := snapshot.WritePNG(f, s.scene, opts); err != nil {
				f.Close()
				os.Remove(output)
				fail(err)
			}
			if err := f.Close(); err != nil {
				fail(err)
			}
			ui.Good.Printf("  %s Wrote %s (%dx%d)\n", ui.StatusIcon(true), output, opts.Width, opts.Height)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "pdbview.png", "Output file")
	cmd.Flags().IntVar(&width, "width", 0, "Image width (default from config)")
	cmd.Flags().IntVar(&height, "height", 0, "Image height (default from config)")
	cmd.Flags().StringVar(&bg, "background", "", "Background color name or #rrggbb")
	cmd.Flags().BoolVar(&custom, "custom", false, "Apply the stored custom selection first")
	cmd.Flags().IntVar(&pick, "pick", 0, "Click this atom serial first")
	cmd.Flags().IntVar(&hover, "hover", 0, "Hover this atom serial first")
	return cmd
}
