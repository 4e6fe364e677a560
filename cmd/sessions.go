package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msalah0e/pdbview/internal/activity"
	"github.com/msalah0e/pdbview/internal/hooks"
	"github.com/msalah0e/pdbview/internal/store"
	"github.com/msalah0e/pdbview/internal/ui"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "List and end stored viewer sessions",
	}

	cmd.AddCommand(
		sessionListCmd(),
		sessionEndCmd(),
		sessionPathCmd(),
	)
	return cmd
}

func sessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored sessions",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("sessions")

			sessions, err := store.Sessions()
			if err != nil {
				ui.Bad.Printf("  Failed to read sessions: %v\n", err)
				os.Exit(1)
			}
			if len(sessions) == 0 {
				fmt.Println("  No sessions stored yet.")
				fmt.Println("  Sessions are created by `pdbview load`")
				return
			}

			var rows [][]string
			for _, s := range sessions {
				name := s.FileName
				if name == "" {
					name = "-"
				}
				current := ""
				if s.ID == sessionID {
					current = ui.Brand.Sprint("*")
				}
				rows = append(rows, []string{current + s.ID, name, strconv.Itoa(s.Keys), s.UpdatedAt.Format("Jan 02 15:04")})
			}
			ui.Table([]string{"Session", "Structure", "Keys", "Updated"}, rows)
		},
	}
}

func sessionEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the session: forget the structure and reset the view",
		Run: func(cmd *cobra.Command, args []string) {
			s := mustOpenSession(cmd)
			if err := s.ctrl.EndSession(); err != nil {
				fail(err)
			}
			if err := s.file.End(); err != nil {
				fail(err)
			}
			if err := activity.Log(activity.ActionEnd, s.file.ID(), "", ""); err != nil {
				logger.Warn("history not written", zap.Error(err))
			}
			runHook(cmd.Context(), hooks.Event{Phase: hooks.PostEnd, Session: s.file.ID()})
			ui.Good.Printf("  %s Session %s ended\n", ui.StatusIcon(true), s.file.ID())
		},
	}
}

func sessionPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the session file path",
		Run: func(cmd *cobra.Command, args []string) {
			f, err := store.OpenFile(sessionID)
			if err != nil {
				fail(err)
			}
			fmt.Println(f.Path())
		},
	}
}
