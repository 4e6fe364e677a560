// Package parallel runs independent jobs, such as structure downloads, with a
// concurrency limit and collects their results in submission order.
package parallel

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/msalah0e/pdbview/internal/ui"
)

// Result holds the outcome of one task.
type Result struct {
	Name    string
	OK      bool
	Err     error
	Detail  string
	Elapsed time.Duration
}

// Task is one unit of work. Detail is a short note shown next to the task
// name on success, e.g. a byte count.
type Task struct {
	Name string
	Fn   func(ctx context.Context) (detail string, err error)
}

// DefaultJobs is used when a concurrency limit below one is given.
const DefaultJobs = 4

// Run executes tasks with at most jobs running at once and prints one status
// line per finished task to w. A failing task never cancels the others.
func Run(ctx context.Context, w io.Writer, tasks []Task, jobs int) []Result {
	if jobs < 1 {
		jobs = DefaultJobs
	}

	results := make([]Result, len(tasks))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			start := time.Now()
			detail, err := task.Fn(gctx)
			r := Result{Name: task.Name, OK: err == nil, Err: err, Detail: detail, Elapsed: time.Since(start)}

			mu.Lock()
			defer mu.Unlock()
			results[i] = r
			if err != nil {
				fmt.Fprintf(w, "  %s %s %s\n", ui.StatusIcon(false), task.Name, ui.Bad.Sprintf("(%v)", err))
				return nil
			}
			note := fmt.Sprintf("%.1fs", r.Elapsed.Seconds())
			if detail != "" {
				note = detail + " · " + note
			}
			fmt.Fprintf(w, "  %s %s %s\n", ui.StatusIcon(true), task.Name, ui.Subtle.Sprint(note))
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Failed counts the results that did not succeed.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.OK {
			n++
		}
	}
	return n
}
