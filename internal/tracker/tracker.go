// Package tracker accumulates the title→path and redirect maps and the
// ledger of revisions that could not be converted.
package tracker

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-slug"
	"gopkg.in/yaml.v3"
)

// ErrorExt is the extension of error report files.
const ErrorExt = ".mediawiki"

// Tracker holds the state observed during one run.
type Tracker struct {
	// Redirects maps pure redirect titles to their target titles.
	Redirects map[string]string
	// Paths maps every processed title to its output path without extension.
	Paths map[string]string
	// Errors maps titles to the original text of revisions that failed both
	// conversion attempts.
	Errors map[string]string
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		Redirects: make(map[string]string),
		Paths:     make(map[string]string),
		Errors:    make(map[string]string),
	}
}

// RecordPath remembers the latest output path of title.
func (t *Tracker) RecordPath(title, stem string) {
	t.Paths[title] = stem
}

// RecordRedirects merges redirect entries.
func (t *Tracker) RecordRedirects(m map[string]string) {
	for from, to := range m {
		t.Redirects[from] = to
	}
}

// RecordFailure stores the original text of a failed revision. A later
// failure for the same title replaces the earlier one.
func (t *Tracker) RecordFailure(title, text string) {
	t.Errors[title] = text
}

// FailedTitles returns the ledger's titles, sorted.
func (t *Tracker) FailedTitles() []string {
	out := make([]string, 0, len(t.Errors))
	for title := range t.Errors {
		out = append(out, title)
	}
	sort.Strings(out)
	return out
}

type redirectFile struct {
	Redirects map[string]string `yaml:"redirects"`
	Paths     map[string]string `yaml:"paths"`
}

// Persist writes the redirect map to redirectPath and one report per ledger
// entry under errorsDir. It returns the report file names keyed by title.
func (t *Tracker) Persist(redirectPath, errorsDir string) (map[string]string, error) {
	if redirectPath != "" {
		data, err := yaml.Marshal(redirectFile{Redirects: t.Redirects, Paths: t.Paths})
		if err != nil {
			return nil, fmt.Errorf("tracker: marshal redirect map: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(redirectPath), 0o755); err != nil {
			return nil, fmt.Errorf("tracker: create redirect map dir: %w", err)
		}
		if err := os.WriteFile(redirectPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("tracker: write redirect map: %w", err)
		}
	}

	reports := make(map[string]string, len(t.Errors))
	if len(t.Errors) == 0 || errorsDir == "" {
		return reports, nil
	}
	if err := os.MkdirAll(errorsDir, 0o755); err != nil {
		return nil, fmt.Errorf("tracker: create errors dir: %w", err)
	}
	used := make(map[string]bool)
	for _, title := range t.FailedTitles() {
		name := uniqueName(Filename(title), used)
		if err := os.WriteFile(filepath.Join(errorsDir, name), []byte(t.Errors[title]), 0o644); err != nil {
			return nil, fmt.Errorf("tracker: write error report for %q: %w", title, err)
		}
		reports[title] = name
	}
	return reports, nil
}

// LoadRedirectMap reads a redirect map written by Persist.
func LoadRedirectMap(path string) (*Tracker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tracker: read redirect map: %w", err)
	}
	var f redirectFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("tracker: parse redirect map: %w", err)
	}
	t := New()
	t.RecordRedirects(f.Redirects)
	for title, stem := range f.Paths {
		t.RecordPath(title, stem)
	}
	return t, nil
}

var unsafeRe = regexp.MustCompile(`[^a-z0-9]+`)

// Filename derives a safe report file name from a title.
func Filename(title string) string {
	s, err := slug.Normalize(title)
	if err != nil || s == "" {
		s = strings.Trim(unsafeRe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	}
	if s == "" {
		s = "untitled"
	}
	return s + ErrorExt
}

func uniqueName(name string, used map[string]bool) string {
	base := strings.TrimSuffix(name, ErrorExt)
	for i := 2; used[name]; i++ {
		name = base + "-" + strconv.Itoa(i) + ErrorExt
	}
	used[name] = true
	return name
}
