package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/OSAS/mw2md/internal/storage"
)

// DefaultDebounce is the quiet period after the last file event before the
// index is re-synced.
const DefaultDebounce = 300 * time.Millisecond

// SyncCallback is called after a watcher-driven Sync that changed the index.
type SyncCallback func(SyncStats)

// Watch starts an fsnotify watcher on the output tree root and re-syncs the
// documents table whenever Markdown files change, until ctx is cancelled.
// Bursts of events (a whole conversion run) collapse into one Sync.
func Watch(ctx context.Context, db Catalog, store storage.Provider, root string, debounce time.Duration, logger *slog.Logger, cb SyncCallback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root))

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case <-timer.C:
			stats, err := Sync(db, store, logger)
			if err != nil {
				logger.Warn("watcher: sync failed", slog.String("error", err.Error()))
				continue
			}
			if stats.Changed() {
				logger.Debug("watcher: synced", slog.Int("indexed", stats.Indexed), slog.Int("removed", stats.Removed))
				if cb != nil {
					cb(stats)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					timer.Reset(debounce)
					continue
				}
			}
			if !strings.HasSuffix(ev.Name, ".md") && ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds dir and all its subdirectories to the watcher,
// skipping hidden directories such as .git.
func addDirsRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
