package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/jobber/internal/model"
)

// Ensure Document implements model.DocumentQuery.
var _ model.DocumentQuery = (*Document)(nil)

// Document is a parsed HTML page queried with CSS selectors.
type Document struct {
	url string
	doc *goquery.Document
}

// ParseHTML parses an HTML page that was served from url.
func ParseHTML(url string, r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html for %s: %w", url, err)
	}
	return &Document{url: url, doc: doc}, nil
}

// QueryText returns the trimmed text content of the first element matching selector.
func (d *Document) QueryText(selector string) (string, bool) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(sel.Text()), true
}

// URL returns the location the document was loaded from.
func (d *Document) URL() string {
	return d.url
}
