// Package index provides the SQLite-backed catalog of conversion runs: the
// title→path map, redirects, failed conversions and the generated documents,
// with optional FTS5 full-text search.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	dump            TEXT NOT NULL DEFAULT '',
	started_at      DATETIME NOT NULL,
	finished_at     DATETIME NOT NULL,
	pages           INTEGER NOT NULL DEFAULT 0,
	revisions       INTEGER NOT NULL DEFAULT 0,
	written         INTEGER NOT NULL DEFAULT 0,
	deleted         INTEGER NOT NULL DEFAULT 0,
	commits         INTEGER NOT NULL DEFAULT 0,
	commit_failures INTEGER NOT NULL DEFAULT 0,
	fallbacks       INTEGER NOT NULL DEFAULT 0,
	failures        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS pages (
	title  TEXT PRIMARY KEY,
	path   TEXT NOT NULL,
	run_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pages_path ON pages(path);

CREATE TABLE IF NOT EXISTS redirects (
	title  TEXT PRIMARY KEY,
	target TEXT NOT NULL,
	run_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS conversion_errors (
	title    TEXT PRIMARY KEY,
	report   TEXT NOT NULL DEFAULT '',
	original TEXT NOT NULL DEFAULT '',
	run_id   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	wiki_title TEXT NOT NULL DEFAULT '',
	category   TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_documents_wiki_title ON documents(wiki_title);
`

// DB wraps a sql.DB with catalog operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
