package convert

import (
	"regexp"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultSimilarity is the Jaro-Winkler score at or above which the first
// heading is treated as the page title.
const DefaultSimilarity = 0.75

var (
	atxRe        = regexp.MustCompile(`^(#{1,6})([ \t]|$)`)
	fenceRe      = regexp.MustCompile("^[ \t]{0,3}(```|~~~)")
	lowerUpperRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	acronymRe    = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
)

var markdown = goldmark.New()

// FirstHeading returns the text of the first heading in md.
func FirstHeading(md string) (string, bool) {
	src := []byte(md)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var found string
	var ok bool
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, isHeading := n.(*ast.Heading); isHeading {
			found, ok = plainText(h, src), true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found, ok
}

func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// Similarity is the case-insensitive Jaro-Winkler similarity of a and b.
func Similarity(a, b string) float64 {
	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false
	return strutil.Similarity(strings.TrimSpace(a), strings.TrimSpace(b), jw)
}

// HumanizeTitle splits camelCase and acronym boundaries in titles that
// contain no whitespace. Underscores count as spaces.
func HumanizeTitle(title string) string {
	title = strings.TrimSpace(strings.ReplaceAll(title, "_", " "))
	if strings.ContainsAny(title, " \t") {
		return title
	}
	title = acronymRe.ReplaceAllString(title, "$1 $2")
	return lowerUpperRe.ReplaceAllString(title, "$1 $2")
}

// DemoteHeadings pushes every ATX heading outside fenced code one level
// down. Level six headings stay at six.
func DemoteHeadings(md string) string {
	lines := strings.Split(md, "\n")
	var fence string
	for i, line := range lines {
		if m := fenceRe.FindStringSubmatch(line); m != nil {
			switch {
			case fence == "":
				fence = m[1]
			case fence == m[1]:
				fence = ""
			}
			continue
		}
		if fence != "" {
			continue
		}
		if m := atxRe.FindStringSubmatch(line); m != nil && len(m[1]) < 6 {
			lines[i] = "#" + line
		}
	}
	return strings.Join(lines, "\n")
}

// TitledBody decides whether md already opens with the page title. When the
// first heading is similar enough to title, md is returned untouched.
// Otherwise a level-one title heading is injected and existing headings are
// demoted.
func TitledBody(title, md string, threshold float64) (string, bool) {
	if threshold <= 0 {
		threshold = DefaultSimilarity
	}
	if heading, ok := FirstHeading(md); ok && Similarity(title, heading) >= threshold {
		return md, false
	}
	body := DemoteHeadings(md)
	head := "# " + HumanizeTitle(title)
	if strings.TrimSpace(body) == "" {
		return head, true
	}
	return head + "\n\n" + body, true
}
