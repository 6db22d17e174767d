// Package watch re-runs a conversion whenever one of its input files
// changes.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last input change before a
// rerun starts.
const DefaultDebounce = time.Second

// RunFunc performs one conversion run.
type RunFunc func(ctx context.Context) error

// Options configures a Loop.
type Options struct {
	// Files are the inputs to watch. Empty entries are ignored.
	Files    []string
	Debounce time.Duration
	Logger   *slog.Logger
}

// Loop watches the input files and calls run after changes settle. Runs
// never overlap: a change seen while a run is in progress queues exactly one
// more run. Loop returns when ctx is cancelled, after the current run ends.
func Loop(ctx context.Context, opts Options, run RunFunc) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch parent directories: editors replace files by rename, which drops
	// a watch placed on the file itself.
	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, f := range opts.Files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			return err
		}
		dirs[dir] = true
	}
	logger.Info("watch: started", slog.Int("files", len(files)))

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var (
		running bool
		pending bool
		done    = make(chan error, 1)
	)
	start := func() {
		running = true
		go func() { done <- run(ctx) }()
	}

	for {
		select {
		case <-ctx.Done():
			if running {
				<-done
			}
			logger.Info("watch: stopped")
			return nil

		case err := <-done:
			running = false
			if err != nil && ctx.Err() == nil {
				logger.Error("watch: run failed", slog.String("error", err.Error()))
			}
			if pending {
				pending = false
				start()
			}

		case <-timer.C:
			if running {
				pending = true
				continue
			}
			start()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !files[filepath.Clean(ev.Name)] || ev.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("watch: input changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			timer.Reset(debounce)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch: error", slog.String("error", watchErr.Error()))
		}
	}
}
