// Package pipeline drives one conversion run: it flattens the dump into a
// revision stream and takes each revision through path resolution,
// conversion, metadata assembly and replay, in order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/OSAS/mw2md/internal/apperr"
	"github.com/OSAS/mw2md/internal/convert"
	"github.com/OSAS/mw2md/internal/extract"
	"github.com/OSAS/mw2md/internal/index"
	"github.com/OSAS/mw2md/internal/metadata"
	"github.com/OSAS/mw2md/internal/models"
	"github.com/OSAS/mw2md/internal/paths"
	"github.com/OSAS/mw2md/internal/replay"
	"github.com/OSAS/mw2md/internal/tracker"
	"github.com/OSAS/mw2md/internal/vcs"
	"github.com/OSAS/mw2md/internal/wikitext"
)

// SnapshotMessage is the commit message of the single commit made when
// history replay is disabled.
const SnapshotMessage = "Import wiki snapshot"

// Revision statuses reported through Progress.
const (
	StatusConverted = "converted"
	StatusFallback  = "fallback"
	StatusFailed    = "failed"
	StatusDeleted   = "deleted"
	StatusRedirect  = "redirect"
)

// Event describes one processed revision.
type Event struct {
	Index     int    `json:"index"`
	Total     int    `json:"total"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}

// Progress receives an Event after every revision.
type Progress func(Event)

// Stats counts what a run did.
type Stats struct {
	Pages          int `json:"pages"`
	Revisions      int `json:"revisions"`
	Written        int `json:"written"`
	Deleted        int `json:"deleted"`
	Commits        int `json:"commits"`
	CommitFailures int `json:"commit_failures"`
	Fallbacks      int `json:"fallbacks"`
	Failures       int `json:"failures"`
}

// Options configures a Runner.
type Options struct {
	Extract extract.Options
	// RedirectMap and ErrorsDir are where the tracker is persisted. Empty
	// values skip the respective output.
	RedirectMap string
	ErrorsDir   string
	// Compact repacks the repository after the run.
	Compact bool
	// Dump names the source recorded in the catalog.
	Dump     string
	Progress Progress
	Logger   *slog.Logger
}

// Runner owns the per-run state of one conversion.
type Runner struct {
	resolver  *paths.Resolver
	converter *convert.Service
	assembler *metadata.Assembler
	replayer  *replay.Replayer
	vcs       vcs.VCS
	catalog   index.Catalog
	opts      Options
	logger    *slog.Logger
}

// New wires a Runner. catalog may be nil.
func New(resolver *paths.Resolver, converter *convert.Service, assembler *metadata.Assembler,
	replayer *replay.Replayer, v vcs.VCS, catalog index.Catalog, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		resolver:  resolver,
		converter: converter,
		assembler: assembler,
		replayer:  replayer,
		vcs:       v,
		catalog:   catalog,
		opts:      opts,
		logger:    logger,
	}
}

// Run processes pages and returns the run's counters. Per-revision failures
// are logged and counted; only repository initialization, persistence and
// cancellation end the run with an error. Cancellation is checked between
// revisions.
func (r *Runner) Run(ctx context.Context, pages []*models.Page) (Stats, error) {
	started := time.Now().UTC()
	var stats Stats

	if err := r.vcs.Init(ctx); err != nil {
		return stats, fmt.Errorf("pipeline: init repository: %w", err)
	}

	stream := extract.Revisions(pages, r.opts.Extract)
	track := tracker.New()
	track.RecordRedirects(extract.Redirects(pages, r.opts.Extract))

	seen := make(map[*models.Page]struct{})
	for i, rev := range stream {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		seen[rev.Page] = struct{}{}
		stats.Revisions++

		status := r.process(ctx, rev, track, &stats)
		r.logger.Debug("revision processed",
			slog.String("title", rev.Title()),
			slog.String("revision", rev.ID),
			slog.String("timestamp", rev.Timestamp),
			slog.String("status", status))
		if r.opts.Progress != nil {
			r.opts.Progress(Event{Index: i + 1, Total: len(stream), Title: rev.Title(), Timestamp: rev.Timestamp, Status: status})
		}
	}
	stats.Pages = len(seen)

	if !r.opts.Extract.History && len(stream) > 0 {
		when := stream[len(stream)-1].Time()
		switch err := r.replayer.Snapshot(ctx, when, SnapshotMessage); {
		case err == nil:
			stats.Commits++
		default:
			stats.CommitFailures++
			r.logger.Warn("snapshot commit failed", slog.String("error", err.Error()))
		}
	}

	if r.opts.Compact {
		if err := r.vcs.Compact(ctx); err != nil {
			r.logger.Warn("compact failed", slog.String("error", err.Error()))
		}
	}

	reports, err := track.Persist(r.opts.RedirectMap, r.opts.ErrorsDir)
	if err != nil {
		return stats, fmt.Errorf("pipeline: %w", err)
	}

	if r.catalog != nil {
		run := index.Run{
			ID:             index.NewRunID(),
			Dump:           r.opts.Dump,
			StartedAt:      started,
			FinishedAt:     time.Now().UTC(),
			Pages:          stats.Pages,
			Revisions:      stats.Revisions,
			Written:        stats.Written,
			Deleted:        stats.Deleted,
			Commits:        stats.Commits,
			CommitFailures: stats.CommitFailures,
			Fallbacks:      stats.Fallbacks,
			Failures:       stats.Failures,
		}
		snap := index.Snapshot{Paths: track.Paths, Redirects: track.Redirects, Errors: track.Errors, Reports: reports}
		if err := r.catalog.SaveRun(run, snap); err != nil {
			return stats, fmt.Errorf("pipeline: %w", err)
		}
	}

	r.logger.Info("run finished",
		slog.Int("pages", stats.Pages),
		slog.Int("revisions", stats.Revisions),
		slog.Int("written", stats.Written),
		slog.Int("deleted", stats.Deleted),
		slog.Int("commits", stats.Commits),
		slog.Int("commit_failures", stats.CommitFailures),
		slog.Int("fallbacks", stats.Fallbacks),
		slog.Int("failures", stats.Failures),
		slog.Duration("elapsed", time.Since(started)))
	return stats, nil
}

// process takes one revision through the pipeline and returns its status.
func (r *Runner) process(ctx context.Context, rev *models.Revision, track *tracker.Tracker, stats *Stats) string {
	resolved := r.resolver.Resolve(rev)

	var document, status string
	if wikitext.IsRedirect(rev.Text) || wikitext.IsBlank(rev.Text) {
		status = StatusRedirect
	} else {
		outcome := r.converter.Convert(ctx, rev)
		if !outcome.OK() {
			stats.Failures++
			track.RecordFailure(rev.Title(), outcome.Original)
			r.logger.Error("conversion failed",
				slog.String("title", rev.Title()),
				slog.String("revision", rev.ID),
				slog.String("stage", failedStage(outcome.Err)),
				slog.String("error", outcome.Err.Error()))
			return StatusFailed
		}
		status = StatusConverted
		if outcome.UsedFallback {
			stats.Fallbacks++
			status = StatusFallback
		}
		meta := r.assembler.Assemble(rev, resolved, outcome)
		doc, err := metadata.Document(meta, r.converter.Body(rev.Title(), outcome.Markdown))
		if err != nil {
			stats.Failures++
			track.RecordFailure(rev.Title(), rev.Text)
			r.logger.Error("render document failed", slog.String("title", rev.Title()), slog.String("error", err.Error()))
			return StatusFailed
		}
		document = doc
	}

	track.RecordPath(rev.Title(), resolved.Stem())
	res := r.replayer.Apply(ctx, rev, resolved, document)
	if res.Wrote {
		stats.Written++
	}
	if res.Deleted {
		stats.Deleted++
		status = StatusDeleted
	}
	if res.Committed {
		stats.Commits++
	}
	if res.CommitErr != nil && !errors.Is(res.CommitErr, apperr.ErrNothingToCommit) {
		stats.CommitFailures++
	}
	return status
}

func failedStage(err error) string {
	var ce *convert.ConversionError
	stage := ""
	// errors.Join keeps every attempt; report the last stage that failed.
	for _, e := range unwrapAll(err) {
		if errors.As(e, &ce) {
			stage = string(ce.Stage)
		}
	}
	return stage
}

func unwrapAll(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
