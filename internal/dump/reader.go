// Package dump reads MediaWiki XML exports into page and revision records.
package dump

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/OSAS/mw2md/internal/models"
)

type xmlPage struct {
	Title    string `xml:"title"`
	Redirect *struct {
		Title string `xml:"title,attr"`
	} `xml:"redirect"`
	Revisions []xmlRevision `xml:"revision"`
}

type xmlRevision struct {
	ID          string `xml:"id"`
	Timestamp   string `xml:"timestamp"`
	Contributor struct {
		Username string `xml:"username"`
		IP       string `xml:"ip"`
	} `xml:"contributor"`
	Comment string `xml:"comment"`
	Text    string `xml:"text"`
}

// ReadFile opens path and reads every page in it.
func ReadFile(path string) ([]*models.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dump: open: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes <page> elements one at a time so that only the decoded
// records, not the whole document tree, are held in memory. Pages sharing a
// title are merged.
func Read(r io.Reader) ([]*models.Page, error) {
	dec := xml.NewDecoder(bufio.NewReaderSize(r, 1<<20))
	byTitle := make(map[string]*models.Page)
	var pages []*models.Page

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dump: read token: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "page" {
			continue
		}
		var xp xmlPage
		if err := dec.DecodeElement(&xp, &start); err != nil {
			return nil, fmt.Errorf("dump: decode page: %w", err)
		}

		title := strings.TrimSpace(xp.Title)
		page, seen := byTitle[title]
		if !seen {
			page = &models.Page{Title: title}
			byTitle[title] = page
			pages = append(pages, page)
		}
		if xp.Redirect != nil && xp.Redirect.Title != "" {
			page.RedirectTarget = strings.TrimSpace(xp.Redirect.Title)
		}
		for _, xr := range xp.Revisions {
			username := strings.TrimSpace(xr.Contributor.Username)
			if username == "" {
				username = strings.TrimSpace(xr.Contributor.IP)
			}
			page.Revisions = append(page.Revisions, &models.Revision{
				Page:      page,
				ID:        strings.TrimSpace(xr.ID),
				Timestamp: strings.TrimSpace(xr.Timestamp),
				Username:  username,
				Comment:   xr.Comment,
				Text:      xr.Text,
			})
		}
	}
	return pages, nil
}
