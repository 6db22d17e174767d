package index

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/OSAS/mw2md/internal/storage"
)

// SyncStats counts the documents touched by one Sync pass.
type SyncStats struct {
	Indexed int
	Removed int
}

// Changed reports whether the pass modified the index.
func (s SyncStats) Changed() bool { return s.Indexed+s.Removed > 0 }

type documentMeta struct {
	Title     string `yaml:"title"`
	Category  string `yaml:"category"`
	WikiTitle string `yaml:"wiki_title"`
}

// Sync walks the output tree and brings the documents table up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db Catalog, store storage.Provider, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats
	entries, err := store.List("")
	if err != nil {
		return stats, err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return stats, err
	}

	disk := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		disk[e.Path] = struct{}{}

		if checksums[e.Path] == e.Checksum {
			continue
		}

		data, err := store.Read(e.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", e.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexDocument(db, e, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", e.Path), slog.String("error", err.Error()))
			continue
		}
		stats.Indexed++
		logger.Debug("sync: indexed", slog.String("path", e.Path))
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteDocument(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
		logger.Debug("sync: removed stale", slog.String("path", p))
	}

	return stats, nil
}

// ParseDocument splits a generated document into its front-matter fields and
// Markdown body.
func ParseDocument(data []byte) (title, category, wikiTitle, body string, err error) {
	var meta documentMeta
	rest, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return "", "", "", "", fmt.Errorf("index: parse front matter: %w", err)
	}
	return meta.Title, meta.Category, meta.WikiTitle, string(bytes.TrimSpace(rest)), nil
}

func indexDocument(db Catalog, e storage.Entry, data []byte) error {
	title, category, wikiTitle, body, err := ParseDocument(data)
	if err != nil {
		return err
	}
	updated := e.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	row := DocumentRow{
		Path:      e.Path,
		Title:     title,
		WikiTitle: wikiTitle,
		Category:  category,
		Checksum:  storage.Checksum(data),
		UpdatedAt: updated,
	}
	return db.UpsertDocument(row, body)
}
