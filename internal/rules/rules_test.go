package rules

import (
	"testing"

	pkgconfig "github.com/OSAS/mw2md/pkg/config"
)

const sampleRules = `
skip_title: '^(Talk|User):'
category_match:
  - pattern: '^oVirt.*Release'
    directory: release-notes
  - ['^Feature', features]
filename_rewrite:
  - pattern: '_'
    replace: ' '
full_path_rewrite:
  - pattern: '^DEVELOP/(.*)'
    replace: 'develop/\1'
front_matter:
  - pattern: 'Owner:\s*(\w+)'
    key: owner
  - pattern: 'Maintainer:\s*(\w+)'
    key: owner
warnings:
  - pattern: '<gallery'
    label: gallery
`

func loadSample(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	if err := pkgconfig.Decode([]byte(sampleRules), cfg); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return cfg
}

func TestConfig_DecodeBothRuleForms(t *testing.T) {
	cfg := loadSample(t)
	if len(cfg.CategoryMatch) != 2 {
		t.Fatalf("category rules = %d, want 2", len(cfg.CategoryMatch))
	}
	if cfg.CategoryMatch[1].Pattern != "^Feature" || cfg.CategoryMatch[1].Value != "features" {
		t.Errorf("sequence rule decoded as %+v", cfg.CategoryMatch[1])
	}
	if cfg.Warnings[0].Value != "gallery" {
		t.Errorf("label = %q", cfg.Warnings[0].Value)
	}
}

func TestConfig_Skip(t *testing.T) {
	cfg := loadSample(t)
	if !cfg.Skip("Talk:Main Page") {
		t.Error("Talk: page should be skipped")
	}
	if cfg.Skip("Main Page") {
		t.Error("Main Page should not be skipped")
	}
	var nilCfg *Config
	if nilCfg.Skip("anything") {
		t.Error("nil config must not skip")
	}
}

func TestConfig_InvalidPattern(t *testing.T) {
	cfg := &Config{}
	err := pkgconfig.Decode([]byte("warnings:\n  - pattern: '(['\n    label: x\n"), cfg)
	if err == nil {
		t.Fatal("expected compile error")
	}
}

func TestSet_FirstWins(t *testing.T) {
	cfg := loadSample(t)
	m, ok := cfg.CategoryMatch.First("oVirt 4.2 Release Notes")
	if !ok || m.Rule.Value != "release-notes" {
		t.Fatalf("First = %+v, %v", m, ok)
	}
	if _, ok := cfg.CategoryMatch.First("Unrelated"); ok {
		t.Error("unexpected match")
	}
}

func TestSet_RewriteBackrefs(t *testing.T) {
	cfg := loadSample(t)
	got := cfg.FullPathRewrite.Rewrite("develop/api/intro.html.md")
	if got != "develop/api/intro.html.md" {
		t.Errorf("case-insensitive rewrite = %q", got)
	}
	s := Set{New(`(\w+)-(\w+)`, `\2-\1`)}
	if got := s.Rewrite("alpha-beta"); got != "beta-alpha" {
		t.Errorf("Rewrite = %q, want beta-alpha", got)
	}
}

func TestSet_AllAndCaptures(t *testing.T) {
	s := Set{
		New(`Owner:\s*(\w+)(?:\s+and\s+(\w+))?`, "owner"),
		New(`Status`, "status"),
		New(`Missing`, "missing"),
	}
	matches := s.All("Owner: alice and bob. Status: done")
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	caps := matches[0].Captures()
	if len(caps) != 2 || caps[0] != "alice" || caps[1] != "bob" {
		t.Errorf("captures = %v", caps)
	}
	if caps := matches[1].Captures(); len(caps) != 1 || caps[0] != "Status" {
		t.Errorf("whole-match captures = %v", caps)
	}
}

func TestConfig_SharedCaptureKeys(t *testing.T) {
	cfg := loadSample(t)
	keys := cfg.SharedCaptureKeys()
	if len(keys) != 1 || keys[0] != "owner" {
		t.Errorf("shared keys = %v, want [owner]", keys)
	}
}
