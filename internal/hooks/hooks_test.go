package hooks

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/msalah0e/pdbview/internal/config"
)

func TestScript(t *testing.T) {
	h := config.HooksConfig{PostLoad: "echo load", PostEnd: "echo end"}
	if Script(h, PostLoad) != "echo load" || Script(h, PostEnd) != "echo end" {
		t.Error("wrong script for phase")
	}
	if Script(h, "pre_load") != "" {
		t.Error("unknown phase should have no script")
	}
}

func TestRun_Environment(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	h := config.HooksConfig{PostLoad: `echo "$PDBVIEW_PHASE $PDBVIEW_SESSION $PDBVIEW_SOURCE $PDBVIEW_PROTEIN/$PDBVIEW_WATER"`}
	var out bytes.Buffer
	ev := Event{Phase: PostLoad, Session: "default", Source: "1crn", Protein: 327, Water: 0}
	if err := Run(context.Background(), h, ev, &out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "post_load default 1crn 327/0" {
		t.Errorf("hook output = %q", got)
	}
}

func TestRun_Unconfigured(t *testing.T) {
	var out bytes.Buffer
	if err := Run(context.Background(), config.HooksConfig{}, Event{Phase: PostEnd}, &out); err != nil {
		t.Errorf("unconfigured hook should be a no-op, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRun_Failure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	h := config.HooksConfig{PostEnd: "exit 3"}
	if err := Run(context.Background(), h, Event{Phase: PostEnd}, &bytes.Buffer{}); err == nil {
		t.Error("expected error from failing hook")
	}
}
