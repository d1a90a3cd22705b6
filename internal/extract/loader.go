package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/amishk599/jobber/internal/model"
)

const (
	defaultUserAgent = "Mozilla/5.0 (compatible; jobber/1.0)"
	maxPageSize      = 5 << 20 // 5MB
)

// PageLoader fetches a job page over HTTP and parses it into a Document.
type PageLoader struct {
	client    *http.Client
	userAgent string
}

// NewPageLoader creates a loader. An empty userAgent uses a generic browser-like default.
func NewPageLoader(client *http.Client, userAgent string) *PageLoader {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &PageLoader{client: client, userAgent: userAgent}
}

// Load GETs url and parses the response body. Non-2xx responses are returned as
// *model.HTTPError so retry wrappers can classify them.
func (l *PageLoader) Load(ctx context.Context, url string) (model.DocumentQuery, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("load page %s: %w", url, err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load page %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: model.ParseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("load page %s: unexpected status", url),
		}
	}

	doc, err := ParseHTML(url, io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, err
	}
	return doc, nil
}
