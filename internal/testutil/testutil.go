// Package testutil provides shared test helpers for setting up output trees
// and catalog databases.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/OSAS/mw2md/internal/index"
	"github.com/OSAS/mw2md/internal/storage"
)

// TestDB creates a temporary SQLite catalog that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "mw2md-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestOutput creates a temporary output tree with a storage.FS.
func TestOutput(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// SetupDoc is the generated document for the "HowTo/Setup" page seeded by
// Seed.
const SetupDoc = `---
title: Setup
category: guides
authors: alice
wiki_title: HowTo/Setup
---

# Setup

Install the engine.
`

// Seed records a finished run with three pages, a redirect chain
// ("Install" → "Old Setup" → "HowTo/Setup"), a redirect loop ("Ping" ↔
// "Pong") and one failure, and writes the setup document into store.
func Seed(t *testing.T, db *index.DB, store storage.Provider) index.Run {
	t.Helper()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	run := index.Run{
		ID:         index.NewRunID(),
		Dump:       "wiki.xml",
		StartedAt:  now.Add(-time.Minute),
		FinishedAt: now,
		Pages:      3,
		Revisions:  5,
		Written:    4,
		Commits:    4,
		Failures:   1,
	}
	snap := index.Snapshot{
		Paths: map[string]string{
			"Main Page":   "index",
			"HowTo/Setup": "guides/setup",
			"Old Setup":   "uncategorized/old-setup",
		},
		Redirects: map[string]string{
			"Old Setup": "HowTo/Setup",
			"Install":   "Old Setup",
			"Ping":      "Pong",
			"Pong":      "Ping",
		},
		Errors:  map[string]string{"Broken": "{{unclosed"},
		Reports: map[string]string{"Broken": "broken.mediawiki"},
	}
	if err := db.SaveRun(run, snap); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if store != nil {
		if err := store.Write("guides/setup.html.md", []byte(SetupDoc)); err != nil {
			t.Fatalf("write setup doc: %v", err)
		}
	}
	return run
}
