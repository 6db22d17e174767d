package rules

import (
	"fmt"
	"log/slog"
	"regexp"

	pkgconfig "github.com/OSAS/mw2md/pkg/config"
)

// Config holds every rule group read from the rules file.
type Config struct {
	SkipTitle        string `yaml:"skip_title"`
	CategoryMatch    Set    `yaml:"category_match"`
	FilenameRewrite  Set    `yaml:"filename_rewrite"`
	DirectoryRewrite Set    `yaml:"directory_rewrite"`
	FullPathRewrite  Set    `yaml:"full_path_rewrite"`
	MarkupRewrite    Set    `yaml:"markup_rewrite"`
	MarkdownRewrite  Set    `yaml:"markdown_rewrite"`
	FrontMatter      Set    `yaml:"front_matter"`
	Warnings         Set    `yaml:"warnings"`

	skip *regexp.Regexp
}

// Load reads and compiles a rules file. An empty path yields an empty,
// compiled configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, cfg.Validate()
	}
	if err := pkgconfig.Load(path, cfg); err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	return cfg, nil
}

// Validate compiles all patterns. The full-path group matches case-insensitively.
func (c *Config) Validate() error {
	groups := []struct {
		name       string
		set        Set
		ignoreCase bool
	}{
		{"category_match", c.CategoryMatch, false},
		{"filename_rewrite", c.FilenameRewrite, false},
		{"directory_rewrite", c.DirectoryRewrite, false},
		{"full_path_rewrite", c.FullPathRewrite, true},
		{"markup_rewrite", c.MarkupRewrite, false},
		{"markdown_rewrite", c.MarkdownRewrite, false},
		{"front_matter", c.FrontMatter, false},
		{"warnings", c.Warnings, false},
	}
	for _, g := range groups {
		if err := g.set.Compile(g.ignoreCase); err != nil {
			return fmt.Errorf("%s: %w", g.name, err)
		}
	}
	c.skip = nil
	if c.SkipTitle != "" {
		re, err := regexp.Compile(c.SkipTitle)
		if err != nil {
			return fmt.Errorf("rules: compile skip_title: %w", err)
		}
		c.skip = re
	}
	return nil
}

// Skip reports whether a page title matches the skip pattern.
func (c *Config) Skip(title string) bool {
	return c != nil && c.skip != nil && c.skip.MatchString(title)
}

// SharedCaptureKeys returns front-matter keys targeted by more than one
// capture rule. Only the last matching rule wins for such keys.
func (c *Config) SharedCaptureKeys() []string {
	seen := make(map[string]int)
	var out []string
	for _, r := range c.FrontMatter {
		seen[r.Value]++
		if seen[r.Value] == 2 {
			out = append(out, r.Value)
		}
	}
	return out
}

// LogSharedCaptureKeys warns about capture keys that several rules write to.
func (c *Config) LogSharedCaptureKeys(logger *slog.Logger) {
	for _, key := range c.SharedCaptureKeys() {
		logger.Warn("rules: several front_matter rules target one key; last match wins",
			slog.String("key", key))
	}
}
