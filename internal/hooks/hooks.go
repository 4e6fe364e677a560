// Package hooks runs the shell commands configured under [hooks] after a
// structure is loaded or a session ends.
package hooks

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/msalah0e/pdbview/internal/config"
)

// Phases a hook can be configured for.
const (
	PostLoad = "post_load"
	PostEnd  = "post_end"
)

// Event describes what happened. Counts are zero for PostEnd.
type Event struct {
	Phase   string
	Session string
	Source  string // file name or PDB id
	Protein int
	Water   int
}

// Run executes the hook script for ev.Phase, if configured. The script sees
// the event through PDBVIEW_* environment variables.
func Run(ctx context.Context, h config.HooksConfig, ev Event, out io.Writer) error {
	script := Script(h, ev.Phase)
	if script == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	cmd.Env = append(os.Environ(),
		"PDBVIEW_PHASE="+ev.Phase,
		"PDBVIEW_SESSION="+ev.Session,
		"PDBVIEW_SOURCE="+ev.Source,
		"PDBVIEW_PROTEIN="+strconv.Itoa(ev.Protein),
		"PDBVIEW_WATER="+strconv.Itoa(ev.Water),
	)
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}

// Script returns the configured command for phase.
func Script(h config.HooksConfig, phase string) string {
	switch phase {
	case PostLoad:
		return h.PostLoad
	case PostEnd:
		return h.PostEnd
	default:
		return ""
	}
}
