// Package wikitext extracts the few structural facts the converter needs from
// raw MediaWiki markup: redirect markers, categories, comments and title parts.
package wikitext

import (
	"regexp"
	"strings"
)

var (
	redirectRe = regexp.MustCompile(`(?i)^\s*#redirect\s*:?\s*\[\[([^\]|#]*)`)
	categoryRe = regexp.MustCompile(`(?i)\[\[\s*category\s*:\s*([^\]]*)\]\]`)
	commentRe  = regexp.MustCompile(`(?s)<!--.*?-->`)
	actionRe   = regexp.MustCompile(`&action=.*$`)
	titleSepRe = regexp.MustCompile(`[:/]`)
)

// IsRedirect reports whether text begins with a #REDIRECT marker.
func IsRedirect(text string) bool {
	return redirectRe.MatchString(text)
}

// RedirectTarget returns the target title of a #REDIRECT page, or "".
func RedirectTarget(text string) string {
	m := redirectRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(m[1], "_", " "))
}

// IsBlank reports whether text is empty or whitespace only.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// Category returns the raw value of the first [[Category:...]] link, trimmed,
// or "" when the text carries none.
func Category(text string) string {
	m := categoryRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// CategoryDir reduces a raw category value to a directory candidate: the first
// pipe- or slash-delimited component, lower-cased.
func CategoryDir(raw string) string {
	if i := strings.IndexAny(raw, "|/"); i >= 0 {
		raw = raw[:i]
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// StripComments removes HTML/wiki comments.
func StripComments(text string) string {
	return commentRe.ReplaceAllString(text, "")
}

// SplitTitle drops any "&action=" suffix and splits the title on namespace
// and path separators. It returns the leading segments joined with "/" and
// the last segment.
func SplitTitle(title string) (dir, name string) {
	title = actionRe.ReplaceAllString(strings.TrimSpace(title), "")
	parts := titleSepRe.Split(title, -1)
	name = strings.TrimSpace(parts[len(parts)-1])
	segs := make([]string, 0, len(parts)-1)
	for _, p := range parts[:len(parts)-1] {
		if p = strings.TrimSpace(p); p != "" {
			segs = append(segs, p)
		}
	}
	return strings.Join(segs, "/"), name
}

// DisplayTitle is the last path segment of a title.
func DisplayTitle(title string) string {
	_, name := SplitTitle(title)
	return name
}

// HasNamespacePrefix reports whether title starts with one of the given
// namespace prefixes ("File:", "Image:"), case-insensitively.
func HasNamespacePrefix(title string, prefixes []string) bool {
	lower := strings.ToLower(strings.TrimSpace(title))
	for _, p := range prefixes {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !strings.HasSuffix(p, ":") {
			p += ":"
		}
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
