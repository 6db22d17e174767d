// Package catalog answers lookups against a finished conversion: where a wiki
// title now lives, which titles redirect, and what failed.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/OSAS/mw2md/internal/apperr"
	"github.com/OSAS/mw2md/internal/index"
	"github.com/OSAS/mw2md/internal/storage"
)

// MaxRedirectHops bounds redirect chain resolution.
const MaxRedirectHops = 8

// Options configures URL and path construction.
type Options struct {
	// Extension of the generated documents, without the leading dot.
	Extension string
	// BaseURL prefixes resolved document URLs.
	BaseURL string
}

// Resolution is where a wiki title ended up.
type Resolution struct {
	Title  string   `json:"title"`
	Target string   `json:"target"`
	Hops   []string `json:"hops,omitempty"`
	Path   string   `json:"path"`
	URL    string   `json:"url"`
}

// Document is a generated document read back from the output tree.
type Document struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	WikiTitle   string         `json:"wiki_title"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Body        string         `json:"body"`
	Checksum    string         `json:"checksum"`
}

// Service coordinates the catalog database and the output tree.
type Service struct {
	store storage.Provider
	db    index.Catalog
	opts  Options
}

// NewService creates a catalog service. store may be nil, in which case
// document reads return ErrNotFound.
func NewService(store storage.Provider, db index.Catalog, opts Options) *Service {
	if opts.Extension == "" {
		opts.Extension = "html.md"
	}
	opts.Extension = strings.TrimPrefix(opts.Extension, ".")
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	return &Service{store: store, db: db, opts: opts}
}

// Resolve follows title's redirect chain and returns the final page's path.
func (s *Service) Resolve(_ context.Context, title string) (*Resolution, error) {
	title = index.NormalizeTitle(title)
	res := &Resolution{Title: title}
	seen := map[string]bool{strings.ToLower(title): true}
	current := title

	for hop := 0; ; hop++ {
		target, err := s.db.Redirect(current)
		if errors.Is(err, apperr.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		if hop == MaxRedirectHops {
			return nil, fmt.Errorf("catalog: %q exceeds %d redirect hops: %w", title, MaxRedirectHops, apperr.ErrRedirectLoop)
		}
		key := strings.ToLower(index.NormalizeTitle(target))
		if seen[key] {
			return nil, fmt.Errorf("catalog: %q redirects back to %q: %w", title, target, apperr.ErrRedirectLoop)
		}
		seen[key] = true
		res.Hops = append(res.Hops, target)
		current = target
	}

	page, err := s.db.LookupPage(current)
	if err != nil {
		return nil, err
	}
	res.Target = page.Title
	res.Path = page.Path + "." + s.opts.Extension
	res.URL = s.URL(page.Path)
	return res, nil
}

// URL maps a document path stem to its published URL. Documents with a
// template extension such as "html.md" publish under the outer extension.
func (s *Service) URL(stem string) string {
	ext := strings.TrimSuffix(s.opts.Extension, ".md")
	if ext == s.opts.Extension || ext == "" {
		return s.opts.BaseURL + "/" + stem + "/"
	}
	return s.opts.BaseURL + "/" + stem + "." + ext
}

// ListPages returns a page of title→path entries.
func (s *Service) ListPages(_ context.Context, limit, offset int, prefix string) ([]index.PageRow, int, error) {
	rows, total, err := s.db.ListPages(limit, offset, prefix)
	return nonNilSlice(rows), total, err
}

// ListRedirects returns every redirect.
func (s *Service) ListRedirects(_ context.Context) ([]index.RedirectRow, error) {
	rows, err := s.db.ListRedirects()
	return nonNilSlice(rows), err
}

// ListErrors returns the conversion failures of the last run.
func (s *Service) ListErrors(_ context.Context) ([]index.ErrorRow, error) {
	rows, err := s.db.ListErrors()
	return nonNilSlice(rows), err
}

// LatestRun returns the last recorded run.
func (s *Service) LatestRun(_ context.Context) (*index.Run, error) {
	return s.db.LatestRun()
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	rows, err := s.db.Search(query, limit)
	return nonNilSlice(rows), err
}

// Document resolves title and reads its generated document.
func (s *Service) Document(ctx context.Context, title string) (*Document, error) {
	res, err := s.Resolve(ctx, title)
	if err != nil {
		return nil, err
	}
	return s.ReadDocument(ctx, res.Path)
}

// ReadDocument reads and parses the document at path.
func (s *Service) ReadDocument(_ context.Context, path string) (*Document, error) {
	if s.store == nil {
		return nil, apperr.ErrNotFound
	}
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	meta := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	doc := &Document{
		Path:        path,
		Frontmatter: meta,
		Body:        string(bytes.TrimSpace(body)),
		Checksum:    storage.Checksum(data),
	}
	doc.Title, _ = meta["title"].(string)
	doc.WikiTitle, _ = meta["wiki_title"].(string)
	return doc, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
