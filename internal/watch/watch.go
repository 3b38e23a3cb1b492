// Package watch re-runs work whenever an input file changes.
//
// The parent directory is watched rather than the file itself so that
// editors which replace files by rename keep triggering events.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of events from a single save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls OnChange after the target file has been written and then
// left alone for Debounce. Calls never overlap.
type Watcher struct {
	Path     string
	Debounce time.Duration
	OnChange func(ctx context.Context)
}

// New returns a Watcher for path.
func New(path string, onChange func(ctx context.Context)) *Watcher {
	return &Watcher{Path: path, Debounce: DefaultDebounce, OnChange: onChange}
}

// Run blocks, watching until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	target, err := filepath.Abs(w.Path)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", w.Path, err)
	}
	if err := fsw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %q: %w", filepath.Dir(target), err)
	}
	slog.Debug("Watching file", "path", target, "debounce", w.Debounce)

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			slog.Debug("File changed", "path", target, "op", event.Op.String())
			timer.Reset(debounce)

		case <-timer.C:
			if w.OnChange != nil {
				w.OnChange(ctx)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watcher error", "error", err)
		}
	}
}
