// Package remote talks to a jobber server's REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobber/internal/model"
)

const maxErrorBody = 64 << 10

// Ensure Client implements model.ApplicationStore.
var _ model.ApplicationStore = (*Client)(nil)

// Client is an ApplicationStore backed by a remote jobber server. The server
// scopes every call to the bearer token's user; the userID arguments are
// checked against the session so a client never acts for someone else.
type Client struct {
	baseURL string
	session model.Session
	client  *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, session model.Session, client *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		client:  client,
	}
}

func (c *Client) Insert(ctx context.Context, app model.Application) (model.Application, error) {
	var created model.Application
	err := c.do(ctx, app.UserID, http.MethodPost, "/api/applications", nil, app, &created)
	return created, err
}

func (c *Client) Get(ctx context.Context, userID, id string) (model.Application, error) {
	var app model.Application
	err := c.do(ctx, userID, http.MethodGet, "/api/applications/"+url.PathEscape(id), nil, nil, &app)
	return app, err
}

func (c *Client) Update(ctx context.Context, userID, id string, patch model.ApplicationPatch) (model.Application, error) {
	var app model.Application
	err := c.do(ctx, userID, http.MethodPatch, "/api/applications/"+url.PathEscape(id), nil, patch, &app)
	return app, err
}

func (c *Client) Delete(ctx context.Context, userID, id string) error {
	return c.do(ctx, userID, http.MethodDelete, "/api/applications/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) Query(ctx context.Context, userID string, filter model.ApplicationFilter) ([]model.Application, error) {
	var apps []model.Application
	err := c.do(ctx, userID, http.MethodGet, "/api/applications", FilterValues(filter), nil, &apps)
	return apps, err
}

// FilterValues encodes filter as query parameters.
func FilterValues(f model.ApplicationFilter) url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Link != "" {
		q.Set("link", f.Link)
	}
	if f.Position != "" {
		q.Set("position", f.Position)
	}
	if !f.CreatedAfter.IsZero() {
		q.Set("created_after", f.CreatedAfter.UTC().Format(time.RFC3339Nano))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

func (c *Client) do(ctx context.Context, userID, method, path string, query url.Values, body, out any) error {
	auth, err := c.session.Auth(ctx)
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}
	if auth.Token == "" {
		return &model.AuthRequiredError{Reason: "no session token"}
	}
	if userID != "" && auth.UserID != "" && userID != auth.UserID {
		return fmt.Errorf("%s %s: acting user %s does not match session: %w", method, path, userID, model.ErrForbidden)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encoding body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+auth.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}
	return nil
}

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Field   string `json:"field,omitempty"`
	} `json:"error"`
}

// responseError maps a non-2xx response onto the model error types.
func responseError(resp *http.Response) error {
	var eb errorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(data, &eb)
	msg := eb.Error.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &model.AuthRequiredError{Reason: msg}
	case http.StatusForbidden:
		return fmt.Errorf("%s: %w", msg, model.ErrForbidden)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, model.ErrNotFound)
	case http.StatusBadRequest:
		field := eb.Error.Field
		if field == "" {
			field = "request"
		}
		return &model.ValidationError{Field: field, Reason: msg}
	default:
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: model.ParseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("%s", msg),
		}
	}
}
