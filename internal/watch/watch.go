// Package watch calls back when a result file changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the bursts of writes HDF5 makes per iteration.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches one file. The parent directory is watched so a file that
// is replaced or created after Run starts is still seen.
type Watcher struct {
	dir      string
	name     string
	debounce time.Duration
	logger   *slog.Logger
}

// New returns a watcher for path. A debounce <= 0 uses DefaultDebounce.
func New(path string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dir:      filepath.Dir(path),
		name:     filepath.Base(path),
		debounce: debounce,
		logger:   logger,
	}
}

// Run blocks until ctx is done, calling onChange once per burst of changes
// to the file. Errors from onChange are logged and watching continues; the
// file is usually mid-write when a read fails.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.name, err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Debug("watching result file", "dir", w.dir, "file", w.name, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "dir", w.dir, "error", err)

		case <-timer.C:
			if err := onChange(ctx); err != nil {
				w.logger.Warn("change handler failed", "file", w.name, "error", err)
			}
		}
	}
}

// relevant ignores other files in the directory, including the duplicates
// the result-file accessor writes next to a locked file.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Base(ev.Name) != w.name {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename)
}
