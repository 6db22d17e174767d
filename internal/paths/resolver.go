// Package paths maps wiki titles to normalized output paths.
package paths

import (
	"path"
	"regexp"
	"strings"

	"github.com/OSAS/mw2md/internal/models"
	"github.com/OSAS/mw2md/internal/rules"
	"github.com/OSAS/mw2md/internal/wikitext"
)

// Defaults used when Options leaves a field empty.
const (
	DefaultExtension   = "html.md"
	DefaultFallbackDir = "uncategorized"
	DefaultIndexName   = "index"
	DefaultHomePage    = `^main[ _]page$`
)

// Options configures a Resolver.
type Options struct {
	Extension   string
	FallbackDir string
	IndexName   string
	HomePage    string
}

// Resolved is the output location of a revision.
type Resolved struct {
	Dir      string
	Filename string
	Ext      string

	// Category is the directory picked by a category_match rule, or the wiki
	// category candidate when no rule matched.
	Category string
	// WikiCategory is the raw [[Category:...]] value of the final revision.
	WikiCategory string
}

// Path is the slash-separated relative path including the extension.
func (r Resolved) Path() string {
	return path.Join(r.Dir, r.Filename+"."+r.Ext)
}

// Stem is the relative path without the extension.
func (r Resolved) Stem() string {
	return path.Join(r.Dir, r.Filename)
}

// Resolver applies the rule cascade that maps titles to paths.
type Resolver struct {
	rules *rules.Config
	opts  Options
	home  *regexp.Regexp
}

// New returns a Resolver. cfg may be nil. An invalid home page pattern
// returns an error.
func New(cfg *rules.Config, opts Options) (*Resolver, error) {
	if cfg == nil {
		cfg = &rules.Config{}
	}
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	opts.Extension = strings.TrimPrefix(opts.Extension, ".")
	if opts.FallbackDir == "" {
		opts.FallbackDir = DefaultFallbackDir
	}
	if opts.IndexName == "" {
		opts.IndexName = DefaultIndexName
	}
	if opts.HomePage == "" {
		opts.HomePage = DefaultHomePage
	}
	home, err := regexp.Compile("(?i)" + opts.HomePage)
	if err != nil {
		return nil, err
	}
	return &Resolver{rules: cfg, opts: opts, home: home}, nil
}

var (
	dirSepRe    = regexp.MustCompile(`[\s\p{Z}:]+`)
	dashesRe    = regexp.MustCompile(`-{2,}`)
	slashesRe   = regexp.MustCompile(`/{2,}`)
	dashSlashRe = regexp.MustCompile(`-*/-*`)
	spaceDashRe = regexp.MustCompile(`[\s\p{Z}-]+`)
	quotesRe    = regexp.MustCompile("[\"'`]")
)

// Resolve derives the output path for rev. The result depends only on the
// page title and the page's final text, so all revisions of a page resolve
// identically.
func (r *Resolver) Resolve(rev *models.Revision) Resolved {
	title := rev.Title()
	titleDir, filename := wikitext.SplitTitle(title)

	wikiCategory := wikitext.Category(rev.FinalText())
	category := wikitext.CategoryDir(wikiCategory)
	if m, ok := r.rules.CategoryMatch.First(filename); ok {
		category = m.Rule.Value
	}

	dir := category
	if dir == "" {
		dir = titleDir
	}
	if dir == "" {
		dir = r.opts.FallbackDir
	}

	filename = r.rules.FilenameRewrite.Rewrite(filename)
	dir = r.rules.DirectoryRewrite.Rewrite(dir)

	if r.home.MatchString(strings.TrimSpace(title)) {
		dir, filename = "", r.opts.IndexName
	}

	full := r.rules.FullPathRewrite.Rewrite(normalizePath(
		path.Join(normalizeDir(dir), filename+"."+r.opts.Extension)))
	full = normalizePath(full)

	dir, file := path.Split(full)
	dir = strings.Trim(dir, "/")
	ext := r.opts.Extension
	if strings.HasSuffix(file, "."+ext) {
		file = strings.TrimSuffix(file, "."+ext)
	} else if i := strings.Index(file, "."); i > 0 {
		file, ext = file[:i], file[i+1:]
	}
	if file == "" {
		file = placeholderName(dir, r.opts.IndexName)
	}
	return Resolved{
		Dir:          dir,
		Filename:     file,
		Ext:          ext,
		Category:     category,
		WikiCategory: wikiCategory,
	}
}

// placeholderName names a document whose title leaves no filename after
// normalization: the last directory segment, or the index name at the root.
func placeholderName(dir, index string) string {
	if dir == "" {
		return index
	}
	return path.Base(dir)
}

func normalizeDir(dir string) string {
	dir = dirSepRe.ReplaceAllString(dir, "-")
	dir = dashSlashRe.ReplaceAllString(dir, "/")
	dir = dashesRe.ReplaceAllString(dir, "-")
	dir = slashesRe.ReplaceAllString(dir, "/")
	return strings.Trim(dir, "-/")
}

func normalizePath(p string) string {
	p = strings.ToLower(p)
	p = quotesRe.ReplaceAllString(p, "")
	p = spaceDashRe.ReplaceAllString(p, "-")
	p = dashSlashRe.ReplaceAllString(p, "/")
	p = slashesRe.ReplaceAllString(p, "/")
	return strings.Trim(p, "-/")
}
