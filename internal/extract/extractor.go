package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/amishk599/jobber/internal/model"
)

// DefaultMaxDescription is the rune limit applied to descriptions when none is configured.
const DefaultMaxDescription = 20000

// Extractor turns a loaded page into a JobPosting using a site recipe.
type Extractor struct {
	maxDescription int
}

// NewExtractor returns an extractor that truncates descriptions to maxDescription runes.
// A non-positive limit falls back to DefaultMaxDescription.
func NewExtractor(maxDescription int) *Extractor {
	if maxDescription <= 0 {
		maxDescription = DefaultMaxDescription
	}
	return &Extractor{maxDescription: maxDescription}
}

// Extract reads every recipe field from doc. A field whose selector matches nothing
// (or whose lookup fails) is left empty; Extract never fails as a whole.
func (e *Extractor) Extract(doc model.DocumentQuery, recipe model.Recipe) model.JobPosting {
	return e.Normalize(model.JobPosting{
		Title:       queryField(doc, recipe.Title),
		Company:     queryField(doc, recipe.Company),
		Location:    queryField(doc, recipe.Location),
		Description: queryField(doc, recipe.Description),
		Source:      recipe.Source,
		URL:         doc.URL(),
	})
}

// Normalize applies the same cleanup Extract does to a posting built elsewhere,
// such as one reported by a content script.
func (e *Extractor) Normalize(p model.JobPosting) model.JobPosting {
	p.Title = singleLine(p.Title)
	p.Company = singleLine(p.Company)
	p.Location = singleLine(p.Location)
	p.Description = truncate(strings.TrimSpace(p.Description), e.maxDescription)
	p.URL = strings.TrimSpace(p.URL)
	return p
}

// Meaningful reports whether a posting has enough data to act on: both title and company.
func Meaningful(p model.JobPosting) bool {
	return p.Title != "" && p.Company != ""
}

func queryField(doc model.DocumentQuery, selector string) (text string) {
	if selector == "" {
		return ""
	}
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	t, ok := doc.QueryText(selector)
	if !ok {
		return ""
	}
	return strings.TrimSpace(t)
}

// singleLine collapses runs of whitespace; job boards wrap titles and company
// names across several text nodes.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit]))
}
