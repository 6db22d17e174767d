package convert

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Builtin renders the common subset of wiki markup to HTML in process. It
// wraps heading text in MediaWiki style headline spans and never rejects
// input.
type Builtin struct{}

var (
	headingRe      = regexp.MustCompile(`^(={1,6})\s*(.*?)\s*(={1,6})\s*$`)
	listRe         = regexp.MustCompile(`^([*#;:]+)\s*(.*)$`)
	boldItalicRe   = regexp.MustCompile(`'''''(.+?)'''''`)
	boldRe         = regexp.MustCompile(`'''(.+?)'''`)
	italicRe       = regexp.MustCompile(`''(.+?)''`)
	categoryLinkRe = regexp.MustCompile(`(?i)\[\[\s*category\s*:[^\]]*\]\]`)
	internalLinkRe = regexp.MustCompile(`\[\[([^\]|]+)(?:\|([^\]]*))?\]\]`)
	externalLinkRe = regexp.MustCompile(`\[((?:https?:)?//[^\s\]]+)(?:\s+([^\]]*))?\]`)
	anchorIDRe     = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)
	preOpenRe      = regexp.MustCompile(`(?i)^\s*<pre[^>]*>`)
	preCloseRe     = regexp.MustCompile(`(?i)</pre>\s*$`)
)

// Render converts text to an HTML fragment.
func (Builtin) Render(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r := &renderer{}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		r.line(line)
	}
	r.flush()
	return r.out.String(), nil
}

type renderer struct {
	out    strings.Builder
	para   []string
	pre    []string
	rawPre bool
	lists  []string
	table  *tableState
}

type tableState struct {
	rowOpen  bool
	cellOpen string
}

func (r *renderer) line(line string) {
	if r.rawPre {
		if preCloseRe.MatchString(line) {
			r.out.WriteString(preCloseRe.ReplaceAllString(line, "") + "</pre>\n")
			r.rawPre = false
			return
		}
		r.out.WriteString(line + "\n")
		return
	}
	if r.table != nil {
		r.tableLine(line)
		return
	}

	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		r.flush()
	case preOpenRe.MatchString(line):
		r.flush()
		rest := preOpenRe.ReplaceAllString(line, "")
		if preCloseRe.MatchString(rest) {
			r.out.WriteString("<pre>" + preCloseRe.ReplaceAllString(rest, "") + "</pre>\n")
			return
		}
		r.out.WriteString("<pre>" + rest + "\n")
		r.rawPre = true
	case strings.HasPrefix(trimmed, "{|"):
		r.flush()
		r.out.WriteString("<table>\n")
		r.table = &tableState{}
	case headingRe.MatchString(trimmed):
		r.flush()
		m := headingRe.FindStringSubmatch(trimmed)
		level := min(len(m[1]), len(m[3]))
		title := m[2]
		if d := len(m[1]) - level; d > 0 {
			title = strings.Repeat("=", d) + title
		}
		if d := len(m[3]) - level; d > 0 {
			title += strings.Repeat("=", d)
		}
		id := anchorIDRe.ReplaceAllString(strings.ReplaceAll(strings.TrimSpace(title), " ", "_"), "")
		fmt.Fprintf(&r.out, "<h%d><span class=\"mw-headline\" id=\"%s\">%s</span></h%d>\n",
			level, id, inline(title), level)
	case strings.HasPrefix(trimmed, "----"):
		r.flush()
		r.out.WriteString("<hr />\n")
	case listRe.MatchString(line) && !strings.HasPrefix(line, " "):
		r.flushPara()
		r.flushPre()
		m := listRe.FindStringSubmatch(line)
		r.listItem(m[1], m[2])
	case strings.HasPrefix(line, " "):
		r.flushPara()
		r.closeLists(0)
		r.pre = append(r.pre, line[1:])
	default:
		r.flushPre()
		r.closeLists(0)
		r.para = append(r.para, trimmed)
	}
}

func listTag(c byte) (list, item string) {
	switch c {
	case '#':
		return "ol", "li"
	case ';':
		return "dl", "dt"
	case ':':
		return "dl", "dd"
	default:
		return "ul", "li"
	}
}

func (r *renderer) listItem(markers, content string) {
	depth := len(markers)
	// Reuse open lists that share the marker prefix.
	common := 0
	for common < len(r.lists) && common < depth {
		want, _ := listTag(markers[common])
		if r.lists[common] != want {
			break
		}
		common++
	}
	r.closeLists(common)
	for i := len(r.lists); i < depth; i++ {
		tag, _ := listTag(markers[i])
		r.out.WriteString("<" + tag + ">\n")
		r.lists = append(r.lists, tag)
	}
	_, item := listTag(markers[depth-1])
	fmt.Fprintf(&r.out, "<%s>%s</%s>\n", item, inline(content), item)
}

func (r *renderer) closeLists(keep int) {
	for len(r.lists) > keep {
		tag := r.lists[len(r.lists)-1]
		r.lists = r.lists[:len(r.lists)-1]
		r.out.WriteString("</" + tag + ">\n")
	}
}

func (r *renderer) tableLine(line string) {
	t := r.table
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "|}"):
		r.closeCell()
		if t.rowOpen {
			r.out.WriteString("</tr>\n")
		}
		r.out.WriteString("</table>\n")
		r.table = nil
	case strings.HasPrefix(trimmed, "|+"):
		fmt.Fprintf(&r.out, "<caption>%s</caption>\n", inline(strings.TrimSpace(trimmed[2:])))
	case strings.HasPrefix(trimmed, "|-"):
		r.closeCell()
		if t.rowOpen {
			r.out.WriteString("</tr>\n")
		}
		r.out.WriteString("<tr>\n")
		t.rowOpen = true
	case strings.HasPrefix(trimmed, "!"):
		r.cells("th", trimmed[1:], "!!")
	case strings.HasPrefix(trimmed, "|"):
		r.cells("td", trimmed[1:], "||")
	default:
		if t.cellOpen != "" {
			r.out.WriteString("\n" + inline(trimmed))
		}
	}
}

func (r *renderer) cells(tag, body, sep string) {
	t := r.table
	r.closeCell()
	if !t.rowOpen {
		r.out.WriteString("<tr>\n")
		t.rowOpen = true
	}
	parts := strings.Split(body, sep)
	if tag == "th" && len(parts) == 1 {
		parts = strings.Split(body, "||")
	}
	for i, cell := range parts {
		attrs, content := splitCell(cell)
		fmt.Fprintf(&r.out, "<%s%s>%s", tag, attrs, inline(strings.TrimSpace(content)))
		if i < len(parts)-1 {
			r.out.WriteString("</" + tag + ">\n")
		} else {
			t.cellOpen = tag
		}
	}
}

// splitCell separates "attr=x | content" cells. Pipes inside links are not
// attribute separators.
func splitCell(cell string) (attrs, content string) {
	i := strings.Index(cell, "|")
	if i < 0 || strings.Contains(cell[:i], "[[") || strings.Contains(cell[:i], "{{") {
		return "", cell
	}
	a := strings.TrimSpace(cell[:i])
	if a == "" {
		return "", cell[i+1:]
	}
	return " " + a, cell[i+1:]
}

func (r *renderer) closeCell() {
	if t := r.table; t != nil && t.cellOpen != "" {
		r.out.WriteString("</" + t.cellOpen + ">\n")
		t.cellOpen = ""
	}
}

func (r *renderer) flushPara() {
	if len(r.para) == 0 {
		return
	}
	if body := inline(strings.Join(r.para, " ")); body != "" {
		r.out.WriteString("<p>" + body + "</p>\n")
	}
	r.para = nil
}

func (r *renderer) flushPre() {
	if len(r.pre) == 0 {
		return
	}
	r.out.WriteString("<pre>" + html.EscapeString(strings.Join(r.pre, "\n")) + "</pre>\n")
	r.pre = nil
}

func (r *renderer) flush() {
	r.flushPara()
	r.flushPre()
	r.closeLists(0)
	if r.table != nil {
		r.closeCell()
		if r.table.rowOpen {
			r.out.WriteString("</tr>\n")
		}
		r.out.WriteString("</table>\n")
		r.table = nil
	}
	if r.rawPre {
		r.out.WriteString("</pre>\n")
		r.rawPre = false
	}
}

func inline(s string) string {
	s = categoryLinkRe.ReplaceAllString(s, "")
	s = boldItalicRe.ReplaceAllString(s, "<b><i>$1</i></b>")
	s = boldRe.ReplaceAllString(s, "<b>$1</b>")
	s = italicRe.ReplaceAllString(s, "<i>$1</i>")
	s = internalLinkRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := internalLinkRe.FindStringSubmatch(m)
		target := strings.TrimSpace(parts[1])
		label := parts[2]
		if label == "" {
			label = target
		}
		href := strings.ReplaceAll(target, " ", "_")
		return fmt.Sprintf(`<a href="%s" title="%s">%s</a>`, html.EscapeString(href), html.EscapeString(target), label)
	})
	s = externalLinkRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := externalLinkRe.FindStringSubmatch(m)
		label := parts[2]
		if label == "" {
			label = parts[1]
		}
		return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(parts[1]), label)
	})
	return strings.TrimSpace(s)
}
