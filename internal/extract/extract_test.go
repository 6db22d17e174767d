package extract

import (
	"strings"
	"testing"

	"github.com/OSAS/mw2md/internal/models"
)

func page(title string, revs ...*models.Revision) *models.Page {
	p := &models.Page{Title: title}
	for _, r := range revs {
		r.Page = p
		p.Revisions = append(p.Revisions, r)
	}
	return p
}

func rev(id, ts, user string) *models.Revision {
	return &models.Revision{ID: id, Timestamp: ts, Username: user, Text: "text " + id}
}

func TestRevisions_GlobalOrder(t *testing.T) {
	pages := []*models.Page{
		page("A", rev("1", "2020-01-01T00:00:00Z", "alice"), rev("4", "2020-01-04T00:00:00Z", "bob")),
		page("B", rev("2", "2020-01-02T00:00:00Z", "carol"), rev("3", "2020-01-03T00:00:00Z", "Alice")),
	}
	stream := Revisions(pages, Options{History: true})

	var ids []string
	for _, r := range stream {
		ids = append(ids, r.ID)
	}
	if got := strings.Join(ids, ","); got != "1,2,3,4" {
		t.Fatalf("order = %s, want 1,2,3,4", got)
	}
	for i := 1; i < len(stream); i++ {
		if stream[i-1].Timestamp > stream[i].Timestamp {
			t.Fatalf("stream not sorted at %d", i)
		}
	}
}

func TestRevisions_TieBreaks(t *testing.T) {
	ts := "2020-01-01T00:00:00Z"
	first := rev("5", ts, "a")
	second := rev("5", ts, "b")
	pages := []*models.Page{
		page("A", rev("10", ts, "a"), first),
		page("B", rev("9", ts, "b"), second),
	}
	stream := Revisions(pages, Options{History: true})
	var ids []string
	for _, r := range stream {
		ids = append(ids, r.ID)
	}
	if got := strings.Join(ids, ","); got != "5,5,9,10" {
		t.Fatalf("order = %s, want 5,5,9,10", got)
	}
	if stream[0] != first || stream[1] != second {
		t.Error("equal ids must keep dump order")
	}
}

func TestRevisions_Aggregates(t *testing.T) {
	p := page("Guide",
		rev("1", "2020-01-01T00:00:00Z", " Alice "),
		rev("3", "2020-03-01T00:00:00Z", "bob"),
		rev("2", "2020-02-01T00:00:00Z", "alice"),
		rev("4", "2020-01-15T00:00:00Z", ""),
	)
	Revisions([]*models.Page{p}, Options{History: true})

	if got := strings.Join(p.AuthorList(), ","); got != "alice,bob" {
		t.Errorf("authors = %q", got)
	}
	if p.Final.ID != "3" {
		t.Errorf("final = %s, want 3", p.Final.ID)
	}
	if p.RevisionCount != 4 {
		t.Errorf("count = %d", p.RevisionCount)
	}
	if p.LastUpdated() != "2020-03-01T00:00:00Z" {
		t.Errorf("last updated = %s", p.LastUpdated())
	}
}

func TestRevisions_HistoryDisabled(t *testing.T) {
	p := page("Guide",
		rev("1", "2020-01-01T00:00:00Z", "alice"),
		rev("2", "2020-02-01T00:00:00Z", "bob"),
	)
	stream := Revisions([]*models.Page{p}, Options{History: false})
	if len(stream) != 1 || stream[0].ID != "2" {
		t.Fatalf("stream = %+v", stream)
	}
	if p.RevisionCount != 2 {
		t.Errorf("revision count = %d, want 2", p.RevisionCount)
	}
}

func TestRevisions_Skips(t *testing.T) {
	pages := []*models.Page{
		page("File:Logo.png", rev("1", "2020-01-01T00:00:00Z", "a")),
		page("image:x.jpg", rev("2", "2020-01-01T00:00:00Z", "a")),
		page("Talk:Home", rev("3", "2020-01-01T00:00:00Z", "a")),
		page("Home", rev("4", "2020-01-01T00:00:00Z", "a")),
		page("Empty"),
	}
	opts := Options{
		History:        true,
		FileNamespaces: DefaultFileNamespaces,
		Skip:           func(title string) bool { return strings.HasPrefix(title, "Talk:") },
	}
	stream := Revisions(pages, opts)
	if len(stream) != 1 || stream[0].Title() != "Home" {
		t.Fatalf("stream = %d revisions", len(stream))
	}
}

func TestRedirects(t *testing.T) {
	explicit := page("Old", rev("1", "2020-01-01T00:00:00Z", "a"))
	explicit.RedirectTarget = "New"
	parsed := page("Legacy_Name", rev("2", "2020-01-01T00:00:00Z", "a"))
	parsed.Revisions[0].Text = "#REDIRECT [[Some_Page#Section]]"
	plain := page("Plain", rev("3", "2020-01-01T00:00:00Z", "a"))
	file := page("File:Old.png", rev("4", "2020-01-01T00:00:00Z", "a"))
	file.RedirectTarget = "File:New.png"

	got := Redirects([]*models.Page{explicit, parsed, plain, file}, Options{FileNamespaces: DefaultFileNamespaces})
	if len(got) != 2 {
		t.Fatalf("redirects = %v", got)
	}
	if got["Old"] != "New" {
		t.Errorf("Old -> %q", got["Old"])
	}
	if got["Legacy_Name"] != "Some Page" {
		t.Errorf("Legacy_Name -> %q", got["Legacy_Name"])
	}
}
