package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Snapshot is a parsed copy of a page's HTML. Queries against it never touch
// the live browser, so absence checks do not wait out a timeout.
type Snapshot struct {
	doc *goquery.Document
}

// ParseSnapshot parses outer HTML captured from the browser
func ParseSnapshot(html string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	return &Snapshot{doc: doc}, nil
}

// Count returns the number of elements matching a CSS selector
func (s *Snapshot) Count(selector string) int {
	return s.doc.Find(selector).Length()
}

// HasText reports whether any tag element contains text
func (s *Snapshot) HasText(tag, text string) bool {
	found := false
	s.doc.Find(tag).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.Contains(strings.Join(strings.Fields(sel.Text()), " "), text) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Texts returns the whitespace-normalized text of every selector match
func (s *Snapshot) Texts(selector string) []string {
	var out []string
	s.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if t := strings.Join(strings.Fields(sel.Text()), " "); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// Title returns the document title
func (s *Snapshot) Title() string {
	return strings.TrimSpace(s.doc.Find("title").First().Text())
}

// Body returns the inner HTML of <body>, or the whole document when absent
func (s *Snapshot) Body() string {
	body := s.doc.Find("body")
	if body.Length() == 0 {
		html, _ := s.doc.Html()
		return html
	}
	html, _ := body.Html()
	return html
}
