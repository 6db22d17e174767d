package metadata

import (
	"regexp"
	"strings"

	"github.com/OSAS/mw2md/internal/convert"
	"github.com/OSAS/mw2md/internal/models"
	"github.com/OSAS/mw2md/internal/paths"
	"github.com/OSAS/mw2md/internal/rules"
	"github.com/OSAS/mw2md/internal/wikitext"
)

// Front-matter keys written for every document.
const (
	KeyTitle         = "title"
	KeyCategory      = "category"
	KeyAuthors       = "authors"
	KeyWikiCategory  = "wiki_category"
	KeyWikiTitle     = "wiki_title"
	KeyRevisionCount = "wiki_revision_count"
	KeyLastUpdated   = "wiki_last_updated"
	KeyFallback      = "wiki_conversion_fallback"
	KeyWarnings      = "wiki_warnings"

	WarningFallback = "conversion-fallback"
)

var spaceRe = regexp.MustCompile(`\s+`)

// Assembler builds per-revision front-matter.
type Assembler struct {
	capture  rules.Set
	warnings rules.Set
}

// NewAssembler returns an Assembler using the front_matter and warnings
// groups of cfg. cfg may be nil.
func NewAssembler(cfg *rules.Config) *Assembler {
	if cfg == nil {
		return &Assembler{}
	}
	return &Assembler{capture: cfg.FrontMatter, warnings: cfg.Warnings}
}

// Assemble returns the metadata for rev.
func (a *Assembler) Assemble(rev *models.Revision, resolved paths.Resolved, outcome convert.Outcome) *Metadata {
	meta := New()
	page := rev.Page

	meta.Set(KeyTitle, wikitext.DisplayTitle(rev.Title()))
	meta.Set(KeyCategory, resolved.Category)
	if page != nil {
		meta.Set(KeyAuthors, strings.Join(page.AuthorList(), ", "))
	}
	meta.Set(KeyWikiCategory, resolved.WikiCategory)
	meta.Set(KeyWikiTitle, rev.Title())
	if page != nil {
		if page.RevisionCount > 0 {
			meta.Set(KeyRevisionCount, page.RevisionCount)
		}
		if page.Final != nil {
			meta.Set(KeyLastUpdated, page.Final.Time())
		}
	}

	text := wikitext.StripComments(rev.Text)
	for _, m := range a.capture.All(text) {
		value := spaceRe.ReplaceAllString(strings.Join(m.Captures(), ", "), " ")
		meta.Set(m.Rule.Value, strings.TrimSpace(value))
	}

	var warnings []string
	seen := make(map[string]bool)
	add := func(label string) {
		if label != "" && !seen[label] {
			seen[label] = true
			warnings = append(warnings, label)
		}
	}
	if outcome.UsedFallback {
		meta.Set(KeyFallback, true)
		add(WarningFallback)
	}
	for _, m := range a.warnings.All(text) {
		add(m.Rule.Value)
	}
	meta.Set(KeyWarnings, strings.Join(warnings, ", "))
	return meta
}
