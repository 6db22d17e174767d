// Package extract flattens page-grouped dump records into one chronologically
// ordered revision stream.
package extract

import (
	"sort"
	"strconv"
	"strings"

	"github.com/OSAS/mw2md/internal/models"
	"github.com/OSAS/mw2md/internal/wikitext"
)

// DefaultFileNamespaces are the title prefixes of uploaded media, which never
// become documents.
var DefaultFileNamespaces = []string{"File", "Image", "Media"}

// Options controls which pages and revisions are kept.
type Options struct {
	// History keeps every revision. When false only each page's final
	// revision is emitted.
	History bool
	// Skip reports titles to exclude entirely.
	Skip func(title string) bool
	// FileNamespaces lists reserved namespace prefixes, without the colon.
	FileNamespaces []string
}

func (o Options) excluded(title string) bool {
	if o.Skip != nil && o.Skip(title) {
		return true
	}
	return wikitext.HasNamespacePrefix(title, o.FileNamespaces)
}

// Revisions computes per-page aggregates and returns every kept revision
// sorted ascending by timestamp across all pages. Ties break on numeric
// revision ID, then on dump order.
func Revisions(pages []*models.Page, opts Options) []*models.Revision {
	var stream []*models.Revision
	for _, page := range pages {
		if opts.excluded(page.Title) || len(page.Revisions) == 0 {
			continue
		}
		summarize(page)
		if opts.History {
			stream = append(stream, page.Revisions...)
		} else {
			stream = append(stream, page.Final)
		}
	}

	sort.SliceStable(stream, func(i, j int) bool {
		a, b := stream[i], stream[j]
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		ai, aerr := strconv.ParseInt(a.ID, 10, 64)
		bi, berr := strconv.ParseInt(b.ID, 10, 64)
		if aerr == nil && berr == nil && ai != bi {
			return ai < bi
		}
		return false
	})
	return stream
}

// summarize fills in the author set, final revision and revision count. It is
// idempotent.
func summarize(page *models.Page) {
	page.Authors = make(map[string]struct{})
	page.RevisionCount = len(page.Revisions)
	page.Final = nil
	for _, rev := range page.Revisions {
		rev.Page = page
		if u := strings.ToLower(strings.TrimSpace(rev.Username)); u != "" {
			page.Authors[u] = struct{}{}
		}
		if page.Final == nil || rev.Timestamp >= page.Final.Timestamp {
			page.Final = rev
		}
	}
}

// Redirects maps the title of every pure redirect page to its target title.
func Redirects(pages []*models.Page, opts Options) map[string]string {
	out := make(map[string]string)
	for _, page := range pages {
		if opts.excluded(page.Title) {
			continue
		}
		target := page.RedirectTarget
		if target == "" && len(page.Revisions) > 0 {
			if page.Final == nil {
				summarize(page)
			}
			target = wikitext.RedirectTarget(page.Final.Text)
		}
		if target != "" {
			out[page.Title] = target
		}
	}
	return out
}
