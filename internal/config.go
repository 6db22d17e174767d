package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/OSAS/mw2md/internal/authors"
	"github.com/OSAS/mw2md/internal/convert"
	"github.com/OSAS/mw2md/internal/extract"
	"github.com/OSAS/mw2md/internal/paths"
	"github.com/OSAS/mw2md/internal/replay"
)

// Fallback renderer kinds.
const (
	RendererBuiltin = "builtin"
	RendererAPI     = "api"
	RendererNone    = "none"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Dump    DumpConfig        `yaml:"dump"`
	Output  OutputConfig      `yaml:"output"`
	History HistoryConfig     `yaml:"history"`
	Git     GitConfig         `yaml:"git"`
	Convert ConvertConfig     `yaml:"convert"`
	Rules   RulesConfig       `yaml:"rules"`
	Authors AuthorsConfig     `yaml:"authors"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Extract ExtractConfig     `yaml:"extract"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		v    validation.Validatable
	}{
		{"app", &c.App},
		{"dump", &c.Dump},
		{"output", &c.Output},
		{"history", &c.History},
		{"git", &c.Git},
		{"convert", &c.Convert},
		{"sqlite", &c.SQLite},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration for `serve`.
type HTTPConfig struct {
	Port int `yaml:"port"`
	// BaseURL prefixes the URLs that legacy wiki links redirect to.
	BaseURL string `yaml:"base_url"`
	// Token, when set, protects /api with Bearer auth.
	Token string `yaml:"token"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DumpConfig locates the XML export.
type DumpConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the dump configuration.
func (c *DumpConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// OutputConfig controls the generated tree and its side files.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	Extension   string `yaml:"extension"`
	FallbackDir string `yaml:"fallback_dir"`
	IndexName   string `yaml:"index_name"`
	HomePage    string `yaml:"home_page"`
	RedirectMap string `yaml:"redirect_map"`
	ErrorsDir   string `yaml:"errors_dir"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.HomePage, validation.By(validRegexp)),
	)
}

// HistoryConfig controls history replay.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
	// CreatedComment matches automatic page creation summaries.
	CreatedComment string `yaml:"created_comment"`
}

// Validate validates the history configuration.
func (c *HistoryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CreatedComment, validation.By(validRegexp)),
	)
}

// GitConfig controls the repository the history is replayed into.
type GitConfig struct {
	Binary       string `yaml:"binary"`
	AuthorDomain string `yaml:"author_domain"`
	// SnapshotName and SnapshotEmail author the single commit made when
	// history is disabled.
	SnapshotName  string `yaml:"snapshot_name"`
	SnapshotEmail string `yaml:"snapshot_email"`
	Compact       bool   `yaml:"compact"`
}

// Validate validates the git configuration.
func (c *GitConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Binary, validation.Required),
		validation.Field(&c.AuthorDomain, validation.Required),
	)
}

// ConvertConfig controls content conversion.
type ConvertConfig struct {
	Pandoc     PandocConfig   `yaml:"pandoc"`
	Similarity float64        `yaml:"similarity"`
	TOC        *string        `yaml:"toc"`
	NoTOC      *string        `yaml:"notoc"`
	Fallback   FallbackConfig `yaml:"fallback"`
}

// Validate validates the convert configuration.
func (c *ConvertConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Similarity, validation.Min(0.0), validation.Max(1.0)),
	); err != nil {
		return err
	}
	if err := c.Pandoc.Validate(); err != nil {
		return fmt.Errorf("pandoc: %w", err)
	}
	if err := c.Fallback.Validate(); err != nil {
		return fmt.Errorf("fallback: %w", err)
	}
	return nil
}

// Directives returns the ToC replacements, applying defaults for unset
// values. An explicit empty string is kept.
func (c *ConvertConfig) Directives() (toc, notoc string) {
	toc, notoc = convert.DefaultTOC, convert.DefaultNoTOC
	if c.TOC != nil {
		toc = *c.TOC
	}
	if c.NoTOC != nil {
		notoc = *c.NoTOC
	}
	return toc, notoc
}

// PandocConfig locates the primary converter.
type PandocConfig struct {
	Binary  string        `yaml:"binary"`
	Args    []string      `yaml:"args"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the pandoc configuration.
func (c *PandocConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Binary, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// FallbackConfig selects the secondary renderer.
type FallbackConfig struct {
	Renderer string        `yaml:"renderer"`
	APIURL   string        `yaml:"api_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Validate validates the fallback configuration.
func (c *FallbackConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Renderer, validation.Required, validation.In(RendererBuiltin, RendererAPI, RendererNone)),
		validation.Field(&c.APIURL, validation.When(c.Renderer == RendererAPI, validation.Required)),
	)
}

// RulesConfig locates the rules file.
type RulesConfig struct {
	Path string `yaml:"path"`
}

// AuthorsConfig locates the author mapping.
type AuthorsConfig struct {
	Path string `yaml:"path"`
}

// SQLiteConfig holds SQLite catalog configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ExtractConfig controls which pages become documents.
type ExtractConfig struct {
	FileNamespaces []string `yaml:"file_namespaces"`
}

func validRegexp(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := regexp.Compile(s); err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Dump: DumpConfig{
			Path: "./wiki.xml",
		},
		Output: OutputConfig{
			Dir:         "./output",
			Extension:   paths.DefaultExtension,
			FallbackDir: paths.DefaultFallbackDir,
			IndexName:   paths.DefaultIndexName,
			HomePage:    paths.DefaultHomePage,
			RedirectMap: "./wiki_redirects.yaml",
			ErrorsDir:   "./wiki_errors",
		},
		History: HistoryConfig{
			Enabled:        true,
			CreatedComment: replay.DefaultCreatedComment,
		},
		Git: GitConfig{
			Binary:        "git",
			AuthorDomain:  authors.DefaultDomain,
			SnapshotName:  "mw2md",
			SnapshotEmail: "mw2md@" + authors.DefaultDomain,
		},
		Convert: ConvertConfig{
			Pandoc: PandocConfig{
				Binary:  "pandoc",
				Timeout: 30 * time.Second,
			},
			Similarity: convert.DefaultSimilarity,
			Fallback: FallbackConfig{
				Renderer: RendererBuiltin,
				Timeout:  30 * time.Second,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./mw2md.db",
		},
		Extract: ExtractConfig{
			FileNamespaces: extract.DefaultFileNamespaces,
		},
	}
}
