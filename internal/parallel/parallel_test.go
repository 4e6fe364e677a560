package parallel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestRun_Success(t *testing.T) {
	tasks := []Task{
		{Name: "1crn", Fn: func(context.Context) (string, error) { return "46 KB", nil }},
		{Name: "1ubq", Fn: func(context.Context) (string, error) { return "", nil }},
		{Name: "4hhb", Fn: func(context.Context) (string, error) { return "", nil }},
	}

	var out bytes.Buffer
	results := Run(context.Background(), &out, tasks, 4)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.OK || r.Err != nil {
			t.Errorf("task %s should be OK", r.Name)
		}
	}
	if results[0].Detail != "46 KB" {
		t.Errorf("detail not kept: %q", results[0].Detail)
	}
	if !strings.Contains(out.String(), "46 KB") {
		t.Errorf("detail not printed: %q", out.String())
	}
	if Failed(results) != 0 {
		t.Error("expected no failures")
	}
}

func TestRun_WithErrors(t *testing.T) {
	tasks := []Task{
		{Name: "ok", Fn: func(context.Context) (string, error) { return "", nil }},
		{Name: "bad", Fn: func(context.Context) (string, error) { return "", errors.New("404 Not Found") }},
	}

	var out bytes.Buffer
	results := Run(context.Background(), &out, tasks, 4)

	// Results should be in order
	if !results[0].OK {
		t.Error("first task should be OK")
	}
	if results[1].OK || results[1].Err == nil {
		t.Error("second task should have failed")
	}
	if Failed(results) != 1 {
		t.Errorf("Failed = %d, want 1", Failed(results))
	}
	if !strings.Contains(out.String(), "404 Not Found") {
		t.Errorf("error not printed: %q", out.String())
	}
}

func TestRun_Concurrency(t *testing.T) {
	var maxConcurrent, current int64

	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = Task{
			Name: fmt.Sprintf("task-%d", i),
			Fn: func(context.Context) (string, error) {
				c := atomic.AddInt64(&current, 1)
				for {
					old := atomic.LoadInt64(&maxConcurrent)
					if c <= old || atomic.CompareAndSwapInt64(&maxConcurrent, old, c) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt64(&current, -1)
				return "", nil
			},
		}
	}

	results := Run(context.Background(), &bytes.Buffer{}, tasks, 2)
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	if maxConcurrent > 2 {
		t.Errorf("max concurrent should be <= 2, got %d", maxConcurrent)
	}
}

func TestRun_DefaultJobs(t *testing.T) {
	tasks := []Task{{Name: "x", Fn: func(context.Context) (string, error) { return "", nil }}}
	if results := Run(context.Background(), &bytes.Buffer{}, tasks, 0); len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestRun_PassesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tasks := []Task{{Name: "x", Fn: func(ctx context.Context) (string, error) { return "", ctx.Err() }}}

	results := Run(ctx, &bytes.Buffer{}, tasks, 1)
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", results[0].Err)
	}
}
