package tracker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPersist(t *testing.T) {
	dir := t.TempDir()
	tr := New()
	tr.RecordPath("HowTo/Setup", "guides/setup")
	tr.RecordPath("Old Name", "uncategorized/old-name")
	tr.RecordRedirects(map[string]string{"Old Name": "HowTo/Setup"})
	tr.RecordFailure("Broken Page", "{| bad table")
	tr.RecordFailure("Broken: Page", "second")

	redirectPath := filepath.Join(dir, "meta", "redirects.yaml")
	errorsDir := filepath.Join(dir, "errors")
	reports, err := tr.Persist(redirectPath, errorsDir)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}

	data, err := os.ReadFile(redirectPath)
	if err != nil {
		t.Fatalf("read redirect map: %v", err)
	}
	want := "redirects:\n    Old Name: HowTo/Setup\npaths:\n    HowTo/Setup: guides/setup\n    Old Name: uncategorized/old-name\n"
	if string(data) != want {
		t.Errorf("redirect map =\n%s\nwant\n%s", data, want)
	}

	if len(reports) != 2 {
		t.Fatalf("reports = %v", reports)
	}
	if reports["Broken Page"] == reports["Broken: Page"] {
		t.Errorf("report names collide: %v", reports)
	}
	for title, name := range reports {
		if !strings.HasSuffix(name, ErrorExt) || strings.ContainsAny(name, " :/") {
			t.Errorf("unsafe report name %q for %q", name, title)
		}
		body, err := os.ReadFile(filepath.Join(errorsDir, name))
		if err != nil {
			t.Fatalf("read report: %v", err)
		}
		if string(body) != tr.Errors[title] {
			t.Errorf("report %s = %q", name, body)
		}
	}

	loaded, err := LoadRedirectMap(redirectPath)
	if err != nil {
		t.Fatalf("LoadRedirectMap: %v", err)
	}
	if loaded.Paths["HowTo/Setup"] != "guides/setup" || loaded.Redirects["Old Name"] != "HowTo/Setup" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestPersist_NoErrorsNoDir(t *testing.T) {
	dir := t.TempDir()
	errorsDir := filepath.Join(dir, "errors")
	if _, err := New().Persist(filepath.Join(dir, "r.yaml"), errorsDir); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if _, err := os.Stat(errorsDir); !os.IsNotExist(err) {
		t.Error("errors dir created without failures")
	}
}

func TestFilename(t *testing.T) {
	for _, title := range []string{"HowTo/Setup", "   ", "Ünïcode Tïtle", "a:b|c"} {
		name := Filename(title)
		if !strings.HasSuffix(name, ErrorExt) || len(name) == len(ErrorExt) {
			t.Errorf("Filename(%q) = %q", title, name)
		}
		if strings.ContainsAny(strings.TrimSuffix(name, ErrorExt), " /:|") {
			t.Errorf("Filename(%q) = %q has unsafe characters", title, name)
		}
	}
}
