// Package watch reloads a structure file whenever it changes on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadFunc receives the new file contents.
type ReloadFunc func(ctx context.Context, raw, name string) error

// Watcher watches one file. The parent directory is watched so that editors
// that save by renaming a temp file over the original are seen too.
type Watcher struct {
	path     string
	debounce time.Duration
	reload   ReloadFunc
	log      *zap.Logger
}

// New returns a watcher for path. A nil logger discards logs.
func New(path string, debounce time.Duration, reload ReloadFunc, log *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{path: abs, debounce: debounce, reload: reload, log: log}, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Run blocks until ctx is cancelled, calling the reload func once per burst
// of changes. Reload errors are logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	w.log.Info("watching structure file", zap.String("path", w.path))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug("structure file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			w.fire(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) fire(ctx context.Context) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		// a rename-save may not have landed yet; the Create that follows
		// schedules another reload.
		w.log.Debug("structure file not readable", zap.Error(err))
		return
	}
	if err := w.reload(ctx, string(data), filepath.Base(w.path)); err != nil {
		w.log.Warn("reload failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.log.Info("structure reloaded", zap.String("path", w.path))
}
