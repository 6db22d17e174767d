package index

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/OSAS/mw2md/internal/apperr"
)

// PageRow maps a wiki title to its output path without extension.
type PageRow struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// RedirectRow is one redirect page.
type RedirectRow struct {
	Title  string `json:"title"`
	Target string `json:"target"`
}

// ErrorRow is one revision that failed both conversion attempts.
type ErrorRow struct {
	Title    string `json:"title"`
	Report   string `json:"report"`
	Original string `json:"original,omitempty"`
}

// NormalizeTitle maps URL-style titles ("Main_Page") to dump titles.
func NormalizeTitle(title string) string {
	return strings.TrimSpace(strings.ReplaceAll(title, "_", " "))
}

// LookupPage finds a page by title. An exact match wins over a
// case-insensitive one.
func (db *DB) LookupPage(title string) (*PageRow, error) {
	title = NormalizeTitle(title)
	var p PageRow
	err := db.conn.QueryRow(`
		SELECT title, path FROM pages
		WHERE title = ? COLLATE NOCASE
		ORDER BY title = ? DESC
		LIMIT 1
	`, title, title).Scan(&p.Title, &p.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: lookup page: %w", err)
	}
	return &p, nil
}

// ListPages returns pages ordered by title, optionally filtered by a title
// prefix, with the total match count.
func (db *DB) ListPages(limit, offset int, prefix string) ([]PageRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	like := escapeLike(NormalizeTitle(prefix)) + "%"

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages WHERE title LIKE ? ESCAPE '\'`, like).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count pages: %w", err)
	}
	rows, err := db.conn.Query(`
		SELECT title, path FROM pages
		WHERE title LIKE ? ESCAPE '\'
		ORDER BY title
		LIMIT ? OFFSET ?
	`, like, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list pages: %w", err)
	}
	defer rows.Close()

	var out []PageRow
	for rows.Next() {
		var p PageRow
		if err := rows.Scan(&p.Title, &p.Path); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Redirect returns the redirect target of title.
func (db *DB) Redirect(title string) (string, error) {
	title = NormalizeTitle(title)
	var target string
	err := db.conn.QueryRow(`
		SELECT target FROM redirects
		WHERE title = ? COLLATE NOCASE
		ORDER BY title = ? DESC
		LIMIT 1
	`, title, title).Scan(&target)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("index: redirect: %w", err)
	}
	return target, nil
}

// ListRedirects returns every redirect ordered by title.
func (db *DB) ListRedirects() ([]RedirectRow, error) {
	rows, err := db.conn.Query(`SELECT title, target FROM redirects ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("index: list redirects: %w", err)
	}
	defer rows.Close()
	var out []RedirectRow
	for rows.Next() {
		var r RedirectRow
		if err := rows.Scan(&r.Title, &r.Target); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListErrors returns the failed conversions ordered by title, without the
// original text.
func (db *DB) ListErrors() ([]ErrorRow, error) {
	rows, err := db.conn.Query(`SELECT title, report FROM conversion_errors ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("index: list errors: %w", err)
	}
	defer rows.Close()
	var out []ErrorRow
	for rows.Next() {
		var e ErrorRow
		if err := rows.Scan(&e.Title, &e.Report); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
