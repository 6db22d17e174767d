// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/OSAS/mw2md/internal/api"
	"github.com/OSAS/mw2md/internal/authors"
	"github.com/OSAS/mw2md/internal/catalog"
	"github.com/OSAS/mw2md/internal/convert"
	"github.com/OSAS/mw2md/internal/dump"
	"github.com/OSAS/mw2md/internal/extract"
	"github.com/OSAS/mw2md/internal/index"
	"github.com/OSAS/mw2md/internal/mcpserver"
	"github.com/OSAS/mw2md/internal/metadata"
	"github.com/OSAS/mw2md/internal/paths"
	"github.com/OSAS/mw2md/internal/pipeline"
	"github.com/OSAS/mw2md/internal/replay"
	"github.com/OSAS/mw2md/internal/rules"
	"github.com/OSAS/mw2md/internal/sse"
	"github.com/OSAS/mw2md/internal/storage"
	"github.com/OSAS/mw2md/internal/vcs"
	"github.com/OSAS/mw2md/internal/watch"
)

// newLogger returns a structured JSON logger on stderr; stdout stays free
// for the MCP stdio transport.
func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Convert runs the conversion once, or keeps rerunning it on input changes
// when watch mode is set.
func Convert(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := newLogger(cfg)

	logger.Info("Configuration loaded",
		slog.String("dump", cfg.Dump.Path),
		slog.String("output_dir", cfg.Output.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("history", cfg.History.Enabled),
		slog.Bool("dry_run", app.dryRun),
		slog.String("log_level", cfg.App.LogLevel.String()))

	var db *index.DB
	if !app.dryRun {
		var err error
		db, err = index.Open(cfg.SQLite.Path)
		if err != nil {
			return fmt.Errorf("init catalog: %w", err)
		}
		defer db.Close()
	}

	if _, err := app.convert(ctx, logger, db, app.force, nil); err != nil {
		return err
	}
	if !app.watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return watch.Loop(ctx, watch.Options{Files: app.inputs(), Logger: logger}, func(ctx context.Context) error {
		_, err := app.convert(ctx, logger, db, true, nil)
		return err
	})
}

// inputs lists the files whose change triggers a rerun.
func (a *application) inputs() []string {
	cfg := a.config
	return []string{cfg.Dump.Path, cfg.Rules.Path, cfg.Authors.Path}
}

// convert performs one full run. db may be nil.
func (a *application) convert(ctx context.Context, logger *slog.Logger, db *index.DB, force bool, progress pipeline.Progress) (pipeline.Stats, error) {
	cfg := a.config

	pages, err := dump.ReadFile(cfg.Dump.Path)
	if err != nil {
		return pipeline.Stats{}, err
	}
	ruleSet, err := rules.Load(cfg.Rules.Path)
	if err != nil {
		return pipeline.Stats{}, err
	}
	ruleSet.LogSharedCaptureKeys(logger)
	who, err := authors.Load(cfg.Authors.Path, cfg.Git.AuthorDomain)
	if err != nil {
		return pipeline.Stats{}, err
	}

	outDir := cfg.Output.Dir
	redirectMap, errorsDir := cfg.Output.RedirectMap, cfg.Output.ErrorsDir
	var history vcs.VCS
	if a.dryRun {
		outDir, err = os.MkdirTemp("", "mw2md-dry-run-*")
		if err != nil {
			return pipeline.Stats{}, fmt.Errorf("create scratch dir: %w", err)
		}
		defer os.RemoveAll(outDir)
		redirectMap, errorsDir = "", ""
		history = &vcs.Recorder{}
	} else {
		if err := storage.Prepare(outDir, force); err != nil {
			return pipeline.Stats{}, err
		}
		history = vcs.NewGit(outDir, cfg.Git.Binary, logger)
	}
	store, err := storage.NewFS(outDir)
	if err != nil {
		return pipeline.Stats{}, err
	}

	resolver, err := paths.New(ruleSet, paths.Options{
		Extension:   cfg.Output.Extension,
		FallbackDir: cfg.Output.FallbackDir,
		IndexName:   cfg.Output.IndexName,
		HomePage:    cfg.Output.HomePage,
	})
	if err != nil {
		return pipeline.Stats{}, err
	}

	toc, notoc := cfg.Convert.Directives()
	converter := convert.NewService(
		&convert.Pandoc{Binary: cfg.Convert.Pandoc.Binary, Args: cfg.Convert.Pandoc.Args, Timeout: cfg.Convert.Pandoc.Timeout},
		a.renderer(),
		ruleSet,
		convert.Options{Similarity: cfg.Convert.Similarity, TOC: toc, NoTOC: notoc, Logger: logger},
	)

	replayer, err := replay.New(store, history, who, replay.Options{
		History:        cfg.History.Enabled,
		CreatedComment: cfg.History.CreatedComment,
		SnapshotAuthor: vcs.Author{Name: cfg.Git.SnapshotName, Email: cfg.Git.SnapshotEmail},
		Logger:         logger,
	})
	if err != nil {
		return pipeline.Stats{}, err
	}

	var cat index.Catalog
	if db != nil {
		cat = db
	}
	runner := pipeline.New(resolver, converter, metadata.NewAssembler(ruleSet), replayer, history, cat, pipeline.Options{
		Extract: extract.Options{
			History:        cfg.History.Enabled,
			Skip:           ruleSet.Skip,
			FileNamespaces: cfg.Extract.FileNamespaces,
		},
		RedirectMap: redirectMap,
		ErrorsDir:   errorsDir,
		Compact:     cfg.Git.Compact,
		Dump:        cfg.Dump.Path,
		Progress:    progress,
		Logger:      logger,
	})

	stats, err := runner.Run(ctx, pages)
	if err != nil {
		return stats, err
	}
	if rec, ok := history.(*vcs.Recorder); ok {
		logger.Info("dry run finished", slog.Int("commits", len(rec.Commits())))
	}
	if db != nil {
		if _, err := index.Sync(db, store, logger); err != nil {
			logger.Warn("catalog sync failed", slog.String("error", err.Error()))
		}
	}
	return stats, nil
}

func (a *application) renderer() convert.Renderer {
	fb := a.config.Convert.Fallback
	switch fb.Renderer {
	case RendererAPI:
		return convert.NewAPI(fb.APIURL, fb.Timeout)
	case RendererNone:
		return nil
	default:
		return convert.Builtin{}
	}
}

// openCatalog opens the catalog database and the output tree and brings the
// documents table up to date.
func (a *application) openCatalog(logger *slog.Logger) (*index.DB, *storage.FS, error) {
	cfg := a.config
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create output dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Output.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init catalog: %w", err)
	}
	if _, err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return db, store, nil
}

func (a *application) catalogService(db *index.DB, store *storage.FS) *catalog.Service {
	cfg := a.config
	return catalog.NewService(store, db, catalog.Options{
		Extension: cfg.Output.Extension,
		BaseURL:   cfg.App.HTTP.BaseURL,
	})
}

// Serve runs the redirect and catalog HTTP server. In watch mode it also
// reruns the conversion on input changes and streams progress over SSE.
func Serve(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := newLogger(cfg)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("output_dir", cfg.Output.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("watch", app.watch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, store, err := app.openCatalog(logger)
	if err != nil {
		return err
	}
	defer db.Close()

	broker := sse.NewBroker(250 * time.Millisecond)
	defer broker.Close()

	svc := app.catalogService(db, store)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := db.LatestRun(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"no run recorded"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", api.NewRouter(svc, cfg.App.HTTP.Token, broker))
	api.MountWikiRedirects(r, svc)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the documents table in step with the output tree.
	g.Go(func() error {
		return index.Watch(gCtx, db, store, store.Root(), index.DefaultDebounce, logger, func(s index.SyncStats) {
			broker.Publish(sse.Event{Type: sse.TypeSynced, Data: map[string]int{"indexed": s.Indexed, "removed": s.Removed}})
		})
	})

	if app.watch {
		g.Go(func() error {
			return watch.Loop(gCtx, watch.Options{Files: app.inputs(), Logger: logger}, func(ctx context.Context) error {
				broker.Publish(sse.Event{Type: sse.TypeRunStarted, Data: map[string]string{"dump": cfg.Dump.Path}})
				stats, err := app.convert(ctx, logger, db, true, broker.PublishProgress)
				if err != nil {
					broker.Publish(sse.Event{Type: sse.TypeRunFailed, Data: map[string]string{"error": err.Error()}})
					return err
				}
				broker.Publish(sse.Event{Type: sse.TypeRunFinished, Data: stats})
				return nil
			})
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup context so the watchers stop with the
// server.
var errShutdown = errors.New("shutdown")

// ServeMCP exposes the catalog as MCP tools over stdio.
func ServeMCP(_ context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	logger := newLogger(app.config)

	db, store, err := app.openCatalog(logger)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("MCP server starting", slog.String("version", app.version))
	return mcpserver.New(app.catalogService(db, store), app.version).ServeStdio()
}
