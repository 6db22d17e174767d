// Package rules implements the ordered (pattern, action) rule lists that drive
// path layout, text rewriting, front-matter capture and warnings. Every rule
// group is evaluated by the same first-match / all-match engine.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule pairs a regular expression with a string action. The action is a
// replacement, a directory, a front-matter key or a warning label depending on
// the group the rule belongs to.
type Rule struct {
	Pattern string
	Value   string

	re *regexp.Regexp
}

// ruleDoc lists the accepted spellings of a rule's action.
type ruleDoc struct {
	Pattern   string `yaml:"pattern"`
	Replace   string `yaml:"replace"`
	Directory string `yaml:"directory"`
	Key       string `yaml:"key"`
	Label     string `yaml:"label"`
}

// UnmarshalYAML accepts either a mapping ({pattern: ..., replace: ...}) or a
// two-element sequence ([pattern, value]).
func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var pair []string
		if err := node.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("rules: line %d: expected [pattern, value], got %d items", node.Line, len(pair))
		}
		r.Pattern, r.Value = pair[0], pair[1]
		return nil
	}
	var doc ruleDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}
	r.Pattern = doc.Pattern
	for _, v := range []string{doc.Replace, doc.Directory, doc.Key, doc.Label} {
		if v != "" {
			r.Value = v
			break
		}
	}
	return nil
}

// New returns a compiled rule. It panics on an invalid pattern and is meant
// for tests and built-in defaults.
func New(pattern, value string) Rule {
	r := Rule{Pattern: pattern, Value: value}
	r.re = regexp.MustCompile(pattern)
	return r
}

// Regexp returns the compiled pattern, or nil before compilation.
func (r Rule) Regexp() *regexp.Regexp { return r.re }

// Set is an ordered list of rules.
type Set []Rule

// Compile compiles every pattern in place. With ignoreCase the patterns are
// matched case-insensitively.
func (s Set) Compile(ignoreCase bool) error {
	for i := range s {
		pattern := s[i].Pattern
		if ignoreCase && !strings.HasPrefix(pattern, "(?i)") {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("rules: compile %q: %w", s[i].Pattern, err)
		}
		s[i].re = re
	}
	return nil
}

// Match is one rule that matched a subject, with its submatches.
type Match struct {
	Rule   Rule
	Groups []string
}

// Captures returns the non-empty capture groups, or the whole match when the
// pattern has none.
func (m Match) Captures() []string {
	if len(m.Groups) <= 1 {
		return m.Groups
	}
	var out []string
	for _, g := range m.Groups[1:] {
		if strings.TrimSpace(g) != "" {
			out = append(out, g)
		}
	}
	return out
}

// First returns the first rule whose pattern matches s.
func (s Set) First(subject string) (Match, bool) {
	for _, r := range s {
		if r.re == nil {
			continue
		}
		if groups := r.re.FindStringSubmatch(subject); groups != nil {
			return Match{Rule: r, Groups: groups}, true
		}
	}
	return Match{}, false
}

// All returns every rule whose pattern matches s, in rule order.
func (s Set) All(subject string) []Match {
	var out []Match
	for _, r := range s {
		if r.re == nil {
			continue
		}
		if groups := r.re.FindStringSubmatch(subject); groups != nil {
			out = append(out, Match{Rule: r, Groups: groups})
		}
	}
	return out
}

// Rewrite applies every rule in order as a replace-all, feeding each result
// into the next rule.
func (s Set) Rewrite(subject string) string {
	for _, r := range s {
		if r.re == nil {
			continue
		}
		subject = r.re.ReplaceAllString(subject, Replacement(r.Value))
	}
	return subject
}

var backrefRe = regexp.MustCompile(`\\(\d+)`)

// Replacement converts sed/Ruby style back-references (\1) into Go's
// expansion syntax (${1}). Go-style references pass through untouched.
func Replacement(v string) string {
	return backrefRe.ReplaceAllString(v, "$${$1}")
}
