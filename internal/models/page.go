// Package models defines the wiki dump records that flow through the conversion pipeline.
package models

import (
	"sort"
	"time"
)

// TimestampLayout is the MediaWiki export timestamp format. Values in this
// layout sort lexically in chronological order.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Page is one distinct wiki title with its edit history.
type Page struct {
	Title          string
	RedirectTarget string
	Revisions      []*Revision

	// Populated by the extractor.
	Authors       map[string]struct{}
	Final         *Revision
	RevisionCount int
}

// AuthorList returns the page's author set sorted alphabetically.
func (p *Page) AuthorList() []string {
	out := make([]string, 0, len(p.Authors))
	for a := range p.Authors {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// LastUpdated returns the final revision's timestamp, or "" when the page has no revisions.
func (p *Page) LastUpdated() string {
	if p.Final == nil {
		return ""
	}
	return p.Final.Timestamp
}

// FinalText returns the text of the page's final revision.
func (p *Page) FinalText() string {
	if p.Final == nil {
		return ""
	}
	return p.Final.Text
}

// Revision is a single historical edit of a page.
type Revision struct {
	Page      *Page
	ID        string
	Timestamp string
	Username  string
	Comment   string
	Text      string
}

// Title returns the title of the page this revision belongs to.
func (r *Revision) Title() string {
	if r.Page == nil {
		return ""
	}
	return r.Page.Title
}

// FinalText returns the text of the owning page's final revision. Category
// and path derivation read this instead of Text so that they stay stable
// across the page's history.
func (r *Revision) FinalText() string {
	if r.Page == nil {
		return r.Text
	}
	return r.Page.FinalText()
}

// Time parses the revision timestamp. Unparseable values yield the zero time.
func (r *Revision) Time() time.Time {
	t, err := time.Parse(TimestampLayout, r.Timestamp)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, r.Timestamp); err != nil {
			return time.Time{}
		}
	}
	return t.UTC()
}
