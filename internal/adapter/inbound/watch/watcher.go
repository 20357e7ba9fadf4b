// Package watch reloads the blocklists when their files change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when no debounce is configured.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc performs one reload.
type ReloadFunc func(ctx context.Context)

// Watcher watches a set of files and calls a ReloadFunc once per burst of
// changes. It watches the parent directories, because editors often replace
// a file by renaming a temporary one over it.
type Watcher struct {
	files    map[string]struct{}
	dirs     []string
	debounce time.Duration
	reload   ReloadFunc
	logger   *slog.Logger

	fsw *fsnotify.Watcher
	wg  sync.WaitGroup

	stopOnce sync.Once
	cancel   context.CancelFunc
}

// New creates a Watcher for files. A debounce of zero uses DefaultDebounce.
func New(files []string, debounce time.Duration, reload ReloadFunc, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		files:    make(map[string]struct{}, len(files)),
		debounce: debounce,
		reload:   reload,
		logger:   logger,
	}
	seen := make(map[string]struct{})
	for _, f := range files {
		clean := filepath.Clean(f)
		w.files[clean] = struct{}{}
		dir := filepath.Dir(clean)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		w.dirs = append(w.dirs, dir)
	}
	return w
}

// Start begins watching. Directories that do not exist are skipped with a
// warning; Start fails only if none can be watched.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	watched := 0
	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("cannot watch directory", "dir", dir, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		_ = fsw.Close()
		return fmt.Errorf("no watchable directory among %v", w.dirs)
	}

	w.fsw = fsw
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.logger.Info("watching list files", "dirs", w.dirs, "debounce", w.debounce)

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	// Reset and Stop never leave a stale tick behind (Go 1.23 timers).
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("list file changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)

		case <-timer.C:
			w.reload(ctx)
		}
	}
}

// relevant reports whether ev touches one of the watched files.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if _, ok := w.files[filepath.Clean(ev.Name)]; !ok {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
		ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}

// Stop stops watching and waits for the loop to exit.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
		}
		w.wg.Wait()
		if w.fsw != nil {
			err = w.fsw.Close()
		}
	})
	return err
}
