package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/OSAS/mw2md/internal/apperr"
)

// Run summarizes one conversion run.
type Run struct {
	ID             string    `json:"id"`
	Dump           string    `json:"dump"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Pages          int       `json:"pages"`
	Revisions      int       `json:"revisions"`
	Written        int       `json:"written"`
	Deleted        int       `json:"deleted"`
	Commits        int       `json:"commits"`
	CommitFailures int       `json:"commit_failures"`
	Fallbacks      int       `json:"fallbacks"`
	Failures       int       `json:"failures"`
}

// Snapshot is the tracker state persisted with a run.
type Snapshot struct {
	Paths     map[string]string
	Redirects map[string]string
	// Errors maps titles to original text; Reports maps titles to the
	// error report file name.
	Errors  map[string]string
	Reports map[string]string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// SaveRun records run and replaces the page, redirect and error tables with
// snap, in one transaction.
func (db *DB) SaveRun(run Run, snap Snapshot) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO runs (id, dump, started_at, finished_at, pages, revisions, written,
		                  deleted, commits, commit_failures, fallbacks, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Dump, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Pages, run.Revisions,
		run.Written, run.Deleted, run.Commits, run.CommitFailures, run.Fallbacks, run.Failures)
	if err != nil {
		return fmt.Errorf("index: insert run: %w", err)
	}

	for _, table := range []string{"pages", "redirects", "conversion_errors"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("index: clear %s: %w", table, err)
		}
	}

	if err := insertPairs(tx, `INSERT INTO pages (title, path, run_id) VALUES (?, ?, ?)`, snap.Paths, run.ID); err != nil {
		return fmt.Errorf("index: insert pages: %w", err)
	}
	if err := insertPairs(tx, `INSERT INTO redirects (title, target, run_id) VALUES (?, ?, ?)`, snap.Redirects, run.ID); err != nil {
		return fmt.Errorf("index: insert redirects: %w", err)
	}

	if len(snap.Errors) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO conversion_errors (title, report, original, run_id) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare error insert: %w", err)
		}
		defer stmt.Close()
		for title, original := range snap.Errors {
			if _, err := stmt.Exec(title, snap.Reports[title], original, run.ID); err != nil {
				return fmt.Errorf("index: insert error: %w", err)
			}
		}
	}

	return tx.Commit()
}

func insertPairs(tx *sql.Tx, query string, pairs map[string]string, runID string) error {
	if len(pairs) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for k, v := range pairs {
		if _, err := stmt.Exec(k, v, runID); err != nil {
			return err
		}
	}
	return nil
}

// LatestRun returns the most recently finished run.
func (db *DB) LatestRun() (*Run, error) {
	var r Run
	err := db.conn.QueryRow(`
		SELECT id, dump, started_at, finished_at, pages, revisions, written,
		       deleted, commits, commit_failures, fallbacks, failures
		FROM runs
		ORDER BY finished_at DESC
		LIMIT 1
	`).Scan(&r.ID, &r.Dump, &r.StartedAt, &r.FinishedAt, &r.Pages, &r.Revisions, &r.Written,
		&r.Deleted, &r.Commits, &r.CommitFailures, &r.Fallbacks, &r.Failures)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: latest run: %w", err)
	}
	return &r, nil
}
