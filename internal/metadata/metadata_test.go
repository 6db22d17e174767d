package metadata

import (
	"strings"
	"testing"
	"time"

	"github.com/adrg/frontmatter"
)

func TestMetadata_OmitsEmpty(t *testing.T) {
	m := New()
	m.Set("title", "Foo")
	m.Set("category", nil)
	m.Set("authors", "alice")
	m.Set("wiki_category", "   ")

	got, err := m.YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	if got != "title: Foo\nauthors: alice\n" {
		t.Errorf("YAML = %q", got)
	}
	if strings.Contains(got, "category") {
		t.Error("nil category serialized")
	}
}

func TestMetadata_OrderAndOverwrite(t *testing.T) {
	m := New()
	m.Set("b", "1")
	m.Set("a", "2")
	m.Set("b", "3")
	if keys := strings.Join(m.Keys(), ","); keys != "b,a" {
		t.Errorf("keys = %s", keys)
	}
	if v, _ := m.Get("b"); v != "3" {
		t.Errorf("b = %v", v)
	}
}

func TestMetadata_Types(t *testing.T) {
	m := New()
	m.Set("count", 3)
	m.Set("flag", true)
	m.Set("updated", time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC))
	m.Set("zero", time.Time{})
	m.Set("numeric", "4.2")

	got, err := m.YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	want := "count: 3\nflag: true\nupdated: 2020-01-02\nnumeric: \"4.2\"\n"
	if got != want {
		t.Errorf("YAML = %q, want %q", got, want)
	}
}

func TestDocument(t *testing.T) {
	m := New()
	m.Set("title", "Setup")
	m.Set("wiki_last_updated", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC))

	doc, err := Document(m, "# Setup\n\nBody\n\n")
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	want := "---\ntitle: Setup\nwiki_last_updated: 2020-01-02\n---\n\n# Setup\n\nBody\n"
	if doc != want {
		t.Errorf("Document = %q, want %q", doc, want)
	}

	var fm struct {
		Title   string    `yaml:"title"`
		Updated time.Time `yaml:"wiki_last_updated"`
	}
	body, err := frontmatter.Parse(strings.NewReader(doc), &fm)
	if err != nil {
		t.Fatalf("frontmatter.Parse: %v", err)
	}
	if fm.Title != "Setup" || fm.Updated.Year() != 2020 {
		t.Errorf("front matter = %+v", fm)
	}
	if strings.TrimSpace(string(body)) != "# Setup\n\nBody" {
		t.Errorf("body = %q", body)
	}
}
