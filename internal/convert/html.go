package convert

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var tableElements = "table, caption, colgroup, col, thead, tbody, tfoot, tr, th, td"

// CleanHTML strips MediaWiki rendering artifacts that confuse HTML to
// Markdown conversion: the table of contents, edit-section links, empty
// anchors, headline wrappers and table attributes other than spans.
func CleanHTML(src string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("#toc, .toc, .mw-editsection").Remove()

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() == 0 && strings.TrimSpace(s.Text()) == "" {
			s.Remove()
		}
	})

	doc.Find(".mw-headline").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: s.Text()})
	})

	doc.Find(tableElements).Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			kept := n.Attr[:0]
			for _, a := range n.Attr {
				if a.Key == "rowspan" || a.Key == "colspan" {
					kept = append(kept, a)
				}
			}
			n.Attr = kept
		}
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return strings.TrimSpace(out), nil
}
