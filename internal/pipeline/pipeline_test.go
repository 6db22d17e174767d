package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OSAS/mw2md/internal/authors"
	"github.com/OSAS/mw2md/internal/convert"
	"github.com/OSAS/mw2md/internal/extract"
	"github.com/OSAS/mw2md/internal/metadata"
	"github.com/OSAS/mw2md/internal/models"
	"github.com/OSAS/mw2md/internal/paths"
	"github.com/OSAS/mw2md/internal/replay"
	"github.com/OSAS/mw2md/internal/storage"
	"github.com/OSAS/mw2md/internal/tracker"
	"github.com/OSAS/mw2md/internal/vcs"
)

// echoConverter returns its input unchanged, failing for the source formats
// listed in fail.
type echoConverter struct {
	fail map[convert.Format]bool
}

func (e echoConverter) Convert(_ context.Context, text string, from, _ convert.Format) (string, error) {
	if e.fail[from] {
		return "", errors.New("converter crashed")
	}
	return text, nil
}

type env struct {
	runner *Runner
	store  *storage.FS
	rec    *vcs.Recorder
	dir    string
	events []Event
}

func newEnv(t *testing.T, conv convert.MarkupConverter, renderer convert.Renderer, history bool) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()
	store, err := storage.NewFS(filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	rec := &vcs.Recorder{}
	who := authors.New(map[string]*authors.Identity{
		"alice": {Name: "Alice A.", Email: "a@x.org"},
	}, "")
	resolver, err := paths.New(nil, paths.Options{})
	if err != nil {
		t.Fatal(err)
	}
	replayer, err := replay.New(store, rec, who, replay.Options{History: history, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	e := &env{store: store, rec: rec, dir: dir}
	e.runner = New(resolver,
		convert.NewService(conv, renderer, nil, convert.Options{Logger: logger}),
		metadata.NewAssembler(nil),
		replayer, rec, nil,
		Options{
			Extract:     extract.Options{History: history},
			RedirectMap: filepath.Join(dir, "redirects.yaml"),
			ErrorsDir:   filepath.Join(dir, "errors"),
			Compact:     true,
			Progress:    func(ev Event) { e.events = append(e.events, ev) },
			Logger:      logger,
		})
	return e
}

func page(title string, revs ...*models.Revision) *models.Page {
	p := &models.Page{Title: title, Revisions: revs}
	for _, r := range revs {
		r.Page = p
	}
	return p
}

func rev(id, ts, user, comment, text string) *models.Revision {
	return &models.Revision{ID: id, Timestamp: ts, Username: user, Comment: comment, Text: text}
}

func TestRun_EndToEnd(t *testing.T) {
	e := newEnv(t, echoConverter{}, nil, true)
	pages := []*models.Page{
		page("HowTo/Setup", rev("1", "2020-01-02T03:04:05Z", "alice", "Created page with \"x\"", "[[Category:Guides]] Some **bold** text")),
	}

	stats, err := e.runner.Run(context.Background(), pages)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Pages != 1 || stats.Revisions != 1 || stats.Written != 1 || stats.Commits != 1 {
		t.Errorf("stats = %+v", stats)
	}

	data, err := e.store.Read("guides/setup.html.md")
	if err != nil {
		t.Fatalf("document missing: %v", err)
	}
	doc := string(data)
	for _, want := range []string{"title: Setup\n", "category: guides\n", "authors: alice\n", "# Setup", "Some **bold** text"} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}

	commits := e.rec.Commits()
	if len(commits) != 1 {
		t.Fatalf("commits = %d", len(commits))
	}
	c := commits[0]
	if c.Author.String() != "Alice A. <a@x.org>" {
		t.Errorf("author = %s", c.Author)
	}
	if !c.When.Equal(time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("when = %v", c.When)
	}
	if c.Message != "Created `HowTo/Setup`" {
		t.Errorf("message = %q", c.Message)
	}
	if !e.rec.Initialized() || !e.rec.Compacted() {
		t.Error("repository not initialized or compacted")
	}
	if len(e.events) != 1 || e.events[0].Status != StatusConverted || e.events[0].Total != 1 {
		t.Errorf("events = %+v", e.events)
	}
}

func TestRun_CommitOrderInterleavesPages(t *testing.T) {
	e := newEnv(t, echoConverter{}, nil, true)
	pages := []*models.Page{
		page("A", rev("1", "2020-01-01T00:00:00Z", "alice", "a1", "first a"), rev("4", "2020-01-04T00:00:00Z", "alice", "a2", "second a")),
		page("B", rev("2", "2020-01-02T00:00:00Z", "bob", "b1", "first b"), rev("3", "2020-01-03T00:00:00Z", "bob", "b2", "second b")),
	}
	if _, err := e.runner.Run(context.Background(), pages); err != nil {
		t.Fatal(err)
	}
	var got []string
	var last time.Time
	for _, c := range e.rec.Commits() {
		if c.When.Before(last) {
			t.Errorf("commit %q out of order", c.Message)
		}
		last = c.When
		got = append(got, c.Message)
	}
	if strings.Join(got, ",") != "a1,b1,b2,a2" {
		t.Errorf("order = %v", got)
	}
}

func TestRun_RedirectDeletesDocument(t *testing.T) {
	e := newEnv(t, echoConverter{}, nil, true)
	pages := []*models.Page{
		page("Old Name",
			rev("1", "2020-01-01T00:00:00Z", "alice", "write", "Some content"),
			rev("2", "2020-01-02T00:00:00Z", "alice", "moved", "#REDIRECT [[New Name]]")),
	}
	stats, err := e.runner.Run(context.Background(), pages)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Deleted != 1 || stats.Commits != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if _, err := e.store.Read("uncategorized/old-name.html.md"); err == nil {
		t.Error("redirected document still present")
	}

	tr, err := tracker.LoadRedirectMap(filepath.Join(e.dir, "redirects.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if tr.Paths["Old Name"] != "uncategorized/old-name" {
		t.Errorf("paths = %v", tr.Paths)
	}
	if tr.Redirects["Old Name"] != "New Name" {
		t.Errorf("redirects = %v", tr.Redirects)
	}
	if e.events[1].Status != StatusDeleted {
		t.Errorf("events = %+v", e.events)
	}
}

func TestRun_FallbackMetadata(t *testing.T) {
	conv := echoConverter{fail: map[convert.Format]bool{convert.FormatMediaWiki: true}}
	e := newEnv(t, conv, convert.Builtin{}, true)
	pages := []*models.Page{page("Flaky", rev("1", "2020-01-01T00:00:00Z", "alice", "x", "Hello '''world'''"))}

	stats, err := e.runner.Run(context.Background(), pages)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Fallbacks != 1 || stats.Failures != 0 {
		t.Errorf("stats = %+v", stats)
	}
	data, err := e.store.Read("uncategorized/flaky.html.md")
	if err != nil {
		t.Fatal(err)
	}
	doc := string(data)
	if !strings.Contains(doc, "wiki_conversion_fallback: true") || !strings.Contains(doc, "wiki_warnings: conversion-fallback") {
		t.Errorf("fallback metadata missing:\n%s", doc)
	}
}

func TestRun_FailureGoesToLedger(t *testing.T) {
	conv := echoConverter{fail: map[convert.Format]bool{convert.FormatMediaWiki: true}}
	e := newEnv(t, conv, nil, true)
	pages := []*models.Page{
		page("Broken", rev("1", "2020-01-01T00:00:00Z", "alice", "x", "{{unclosed")),
	}
	stats, err := e.runner.Run(context.Background(), pages)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failures != 1 || stats.Written != 0 || stats.Commits != 0 {
		t.Errorf("stats = %+v", stats)
	}
	report, err := os.ReadFile(filepath.Join(e.dir, "errors", "broken.mediawiki"))
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if string(report) != "{{unclosed" {
		t.Errorf("report = %q", report)
	}
}

func TestRun_HistoryDisabledSnapshot(t *testing.T) {
	e := newEnv(t, echoConverter{}, nil, false)
	pages := []*models.Page{
		page("A", rev("1", "2020-01-01T00:00:00Z", "alice", "a1", "old a"), rev("3", "2020-01-03T00:00:00Z", "alice", "a2", "new a")),
		page("B", rev("2", "2020-01-02T00:00:00Z", "bob", "b1", "only b")),
	}
	stats, err := e.runner.Run(context.Background(), pages)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Revisions != 2 || stats.Commits != 1 {
		t.Errorf("stats = %+v", stats)
	}
	commits := e.rec.Commits()
	if len(commits) != 1 || commits[0].Message != SnapshotMessage {
		t.Fatalf("commits = %+v", commits)
	}
	data, _ := e.store.Read("uncategorized/a.html.md")
	if !strings.Contains(string(data), "new a") {
		t.Errorf("document = %s", data)
	}
}

func TestRun_Cancelled(t *testing.T) {
	e := newEnv(t, echoConverter{}, nil, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.runner.Run(ctx, []*models.Page{page("A", rev("1", "2020-01-01T00:00:00Z", "alice", "x", "text"))})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(e.rec.Commits()) != 0 {
		t.Error("cancelled run committed")
	}
}
