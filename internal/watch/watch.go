// Package watch reloads a contact store when its file is edited outside the
// process.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last event before
// reloading. Editors often write a file in several steps.
const DefaultDebounce = 100 * time.Millisecond

// Reloader re-reads persisted state. [store.Contacts] implements it.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Watcher calls Reload on its target whenever the watched file changes.
//
// The parent directory is watched rather than the file itself: saves replace
// the file by renaming a temporary file over it, which would drop a watch
// placed on the old inode.
type Watcher struct {
	path     string
	target   Reloader
	logger   *slog.Logger
	fs       *fsnotify.Watcher
	debounce time.Duration
}

// New starts watching the directory holding path. The directory is created
// if it does not exist. Call [Watcher.Run] to process events, or
// [Watcher.Close] to release the watch without running.
func New(path string, target Reloader, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		path:     abs,
		target:   target,
		logger:   logger.With("file", abs),
		fs:       fw,
		debounce: DefaultDebounce,
	}, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer func() { _ = w.Close() }()
	w.logger.Debug("watching contacts file")

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("contacts file changed", "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			w.reload(ctx)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("error watching contacts file", "error", err)
		}
	}
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func (w *Watcher) reload(ctx context.Context) {
	err := w.target.Reload(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
	default:
		w.logger.Warn("could not reload contacts, keeping current state", "error", err)
	}
}
