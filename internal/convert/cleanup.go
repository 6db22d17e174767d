package convert

import (
	"regexp"
	"strings"

	"github.com/OSAS/mw2md/internal/rules"
)

// Default directives substituted for the wiki's table-of-contents switches.
const (
	DefaultTOC   = "* ToC\n{:toc}"
	DefaultNoTOC = ""
)

// Placeholders survive conversion as plain words and are swapped for the
// configured directives afterwards.
const (
	tocToken   = "MWTOCMARKER"
	notocToken = "MWNOTOCMARKER"
)

var (
	tocSwitchRe   = regexp.MustCompile(`__TOC__`)
	notocSwitchRe = regexp.MustCompile(`__NOTOC__`)

	escapedRe       = regexp.MustCompile(`\\([_#$])`)
	wikilinkTitleRe = regexp.MustCompile(` "wikilink"\)`)
	bulletRe        = regexp.MustCompile(`(?m)^([ \t]*)- `)
	codeLineRe      = regexp.MustCompile("(?m)^`([^`\n]+)`[ \t]*$")
	protoLinkRe     = regexp.MustCompile(`\[(//[^\s\]]+)[ \t]+([^\]]+)\]`)
	pipeRowRe       = regexp.MustCompile(`(?m)^[ \t]*\|[ \t|]*(?:\n|$)`)
	tocTokenRe      = regexp.MustCompile(`(?m)^[ \t]*` + tocToken + `[ \t]*$`)
	notocTokenRe    = regexp.MustCompile(`(?m)^[ \t]*` + notocToken + `[ \t]*\n?`)
	blankRunRe      = regexp.MustCompile(`\n{3,}`)
)

// protectSwitches replaces behavior switches in wiki text with tokens that
// converters pass through unchanged.
func protectSwitches(text string) string {
	text = notocSwitchRe.ReplaceAllString(text, "\n\n"+notocToken+"\n\n")
	return tocSwitchRe.ReplaceAllString(text, "\n\n"+tocToken+"\n\n")
}

// Cleanup removes converter artifacts from Markdown output.
type Cleanup struct {
	TOC     string
	NoTOC   string
	Rewrite rules.Set
}

// Apply runs the generic clean-up followed by the markdown_rewrite rules.
func (c Cleanup) Apply(md string) string {
	md = escapedRe.ReplaceAllString(md, "$1")
	md = wikilinkTitleRe.ReplaceAllString(md, ")")
	md = bulletRe.ReplaceAllString(md, "$1* ")
	md = codeLineRe.ReplaceAllString(md, "    $1")
	md = protoLinkRe.ReplaceAllString(md, "[$2]($1)")
	md = pipeRowRe.ReplaceAllString(md, "")

	md = strings.ReplaceAll(md, "__NOTOC__", notocToken)
	md = strings.ReplaceAll(md, "__TOC__", tocToken)
	md = tocTokenRe.ReplaceAllLiteralString(md, c.TOC)
	if c.NoTOC == "" {
		md = notocTokenRe.ReplaceAllLiteralString(md, "")
	} else {
		md = notocTokenRe.ReplaceAllLiteralString(md, c.NoTOC+"\n")
	}
	md = strings.ReplaceAll(md, notocToken, c.NoTOC)
	md = strings.ReplaceAll(md, tocToken, c.TOC)

	md = c.Rewrite.Rewrite(md)
	md = blankRunRe.ReplaceAllString(md, "\n\n")
	return strings.TrimSpace(md)
}
