package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/pdbview/internal/cache"
	"github.com/msalah0e/pdbview/internal/config"
	"github.com/msalah0e/pdbview/internal/snapshot"
	"github.com/msalah0e/pdbview/internal/store"
	"github.com/msalah0e/pdbview/internal/ui"
	"github.com/msalah0e/pdbview/internal/view"
)

type checkResult struct {
	name string
	ok   bool
	note string
}

func doctorCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:     "doctor",
		Aliases: []string{"dr"},
		Short:   "Health check — verify settings, directories and the PDB endpoint",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("health check")

			results := localChecks(cfg)
			if !offline {
				results = append(results, endpointCheck(cmd.Context(), cfg.Fetch))
			}

			failed := 0
			for _, r := range results {
				line := fmt.Sprintf("  %s %s", ui.StatusIcon(r.ok), r.name)
				if r.note != "" {
					line += ui.Subtle.Sprint(" — " + r.note)
				}
				fmt.Println(line)
				if !r.ok {
					failed++
				}
			}

			fmt.Printf("\n  %d/%d checks passed\n", len(results)-failed, len(results))
			if failed > 0 {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the network check")
	return cmd
}

// localChecks verifies everything that needs no network.
func localChecks(c *config.Config) []checkResult {
	var out []checkResult

	out = append(out, writable("config directory", config.ConfigDir()))
	out = append(out, writable("session directory", store.SessionDir()))
	if c.Fetch.Cache {
		out = append(out, writable("structure cache", cache.Dir()))
	}

	out = append(out, viewCheck(c.View))

	ep := c.Fetch.Endpoint
	out = append(out, checkResult{
		name: "fetch endpoint template",
		ok:   strings.Count(ep, "%s") == 1,
		note: ep,
	})

	if c.Hooks.PostLoad != "" || c.Hooks.PostEnd != "" {
		sh, err := exec.LookPath("sh")
		r := checkResult{name: "hook shell", ok: err == nil, note: sh}
		if err != nil {
			r.note = err.Error()
		}
		out = append(out, r)
	}

	_, err := snapshot.ParseColor(c.Snapshot.Background)
	out = append(out, checkResult{
		name: "snapshot background",
		ok:   err == nil && c.Snapshot.Width > 0 && c.Snapshot.Height > 0,
		note: fmt.Sprintf("%dx%d %s", c.Snapshot.Width, c.Snapshot.Height, c.Snapshot.Background),
	})
	return out
}

func endpointCheck(ctx context.Context, f config.FetchConfig) checkResult {
	url := fmt.Sprintf(f.Endpoint, "1crn")
	ctx, cancel := context.WithTimeout(ctx, f.Timeout())
	defer cancel()

	r := checkResult{name: "PDB endpoint", note: url}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		r.note = err.Error()
		return r
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		r.note = err.Error()
		return r
	}
	resp.Body.Close()
	r.ok = resp.StatusCode < 400
	if !r.ok {
		r.note = fmt.Sprintf("%s: %s", url, resp.Status)
	}
	return r
}

func writable(name, dir string) checkResult {
	r := checkResult{name: name, note: dir}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.note = err.Error()
		return r
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		r.note = err.Error()
		return r
	}
	f.Close()
	os.Remove(f.Name())
	r.ok = true
	r.note = filepath.Clean(dir)
	return r
}

// viewCheck reports view defaults that would silently fall back.
func viewCheck(v config.ViewConfig) checkResult {
	r := checkResult{name: "view defaults", ok: true}
	if _, err := view.ParseRepresentation(v.Representation); err != nil {
		r.ok, r.note = false, err.Error()
	} else if _, err := view.ParseFilter(v.Filter); err != nil {
		r.ok, r.note = false, err.Error()
	} else if _, err := view.ParseSize(v.Size); err != nil {
		r.ok, r.note = false, err.Error()
	} else {
		st := v.State()
		r.note = fmt.Sprintf("%s / %s / %s", st.Representation, st.Filter, st.Size)
	}
	return r
}
