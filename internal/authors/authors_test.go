package authors

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	s := New(map[string]*Identity{
		"Alice":   {Name: "Alice A.", Email: "a@x.org"},
		"noname":  {Email: "nn@x.org"},
		"knownil": nil,
	}, "example.org")

	tests := []struct {
		user, name, email string
	}{
		{"alice", "Alice A.", "a@x.org"},
		{" ALICE ", "Alice A.", "a@x.org"},
		{"noname", "noname", "nn@x.org"},
		{"KnowNil", "KnowNil", "KnowNil@example.org"},
		{"Some User", "Some User", "Some User@example.org"},
		{"Eve<x>\n", "Eve<x>", "Eve_x_@example.org"},
		{"10.0.0.1", "10.0.0.1", "10.0.0.1@example.org"},
		{"", "unknown", "unknown@example.org"},
	}
	for _, tt := range tests {
		got := s.Resolve(tt.user)
		if got.Name != tt.name || got.Email != tt.email {
			t.Errorf("Resolve(%q) = %+v, want %s <%s>", tt.user, got, tt.name, tt.email)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authors.yaml")
	data := "alice:\n  name: Alice A.\n  email: a@x.org\nbot: ~\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d", s.Len())
	}
	if got := s.Resolve("bot"); got.Email != "bot@"+DefaultDomain {
		t.Errorf("bot = %+v", got)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), ""); err == nil {
		t.Error("expected error for missing file")
	}
	empty, err := Load("", "")
	if err != nil || empty.Len() != 0 {
		t.Errorf("Load(\"\") = %v, %v", empty, err)
	}
}

func TestParseCSVAndWriteYAML(t *testing.T) {
	in := "alice, Alice A., a@x.org\nbob,,\ncarol,Carol C.,\ncarol,,c@x.org\n,,\n"
	entries, err := ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries["bob"] != nil {
		t.Errorf("bob = %+v, want nil", entries["bob"])
	}
	if c := entries["carol"]; c == nil || c.Name != "Carol C." || c.Email != "c@x.org" {
		t.Errorf("carol = %+v", c)
	}

	var buf strings.Builder
	if err := WriteYAML(&buf, entries); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	want := "alice:\n  name: Alice A.\n  email: a@x.org\nbob: ~\ncarol:\n  name: Carol C.\n  email: c@x.org\n"
	if buf.String() != want {
		t.Errorf("yaml =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "authors.csv")
	yamlPath := filepath.Join(dir, "wiki_authors.yaml")
	if err := os.WriteFile(csvPath, []byte("Alice,Alice A.,a@x.org\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := ConvertFile(csvPath, yamlPath)
	if err != nil || n != 1 {
		t.Fatalf("ConvertFile = %d, %v", n, err)
	}
	s, err := Load(yamlPath, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Resolve("alice"); got.Name != "Alice A." {
		t.Errorf("round trip = %+v", got)
	}
}
