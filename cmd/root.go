package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msalah0e/pdbview/internal/config"
	"github.com/msalah0e/pdbview/internal/logging"
	"github.com/msalah0e/pdbview/internal/ui"
	"github.com/msalah0e/pdbview/internal/viewer"
)

var version = "0.3.0"

var (
	cfg       *config.Config
	logger    = zap.NewNop()
	sessionID string
	noColor   bool
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "pdbview",
	Short: "pdbview — molecular structure viewer",
	Long: ui.Brand.Sprint(ui.Mol+" pdbview") + " — view protein and water structures\n" +
		ui.Subtle.Sprint("Load PDB files, style them, and explore them in the browser or terminal"),
	Version: version + " " + ui.Mol,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if verbose {
			cfg.Log.Level = "debug"
		}
		logger = logging.Must(cfg.Log)
		if noColor || !cfg.UI.Color {
			ui.Disable()
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.SetVersionTemplate("pdbview {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "default", "Session to read and write")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	_ = rootCmd.RegisterFlagCompletionFunc("session", sessionCompletionFunc)

	rootCmd.AddCommand(
		loadCmd(),
		styleCmd(),
		customCmd(),
		showCmd(),
		pickCmd(),
		hoverCmd(),
		snapshotCmd(),
		sessionCmd(),
		historyCmd(),
		cacheCmd(),
		configCmd(),
		serveCmd(),
		tuiCmd(),
		doctorCmd(),
		completionCmd(),
	)
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// fail prints err and exits. A UserError prints its alert text.
func fail(err error) {
	var ue *viewer.UserError
	if errors.As(err, &ue) {
		ui.Alert(ue.Alert())
	} else {
		ui.Bad.Printf("  %v\n", err)
	}
	_ = logger.Sync()
	os.Exit(1)
}
