package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobber/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts application events to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each event to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends each event as a separate Slack message using Block Kit.
// Returns an error only if ALL messages fail. Individual failures are logged.
func (s *SlackNotifier) Notify(events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	failures := 0
	for i, e := range events {
		if i > 0 {
			time.Sleep(500 * time.Millisecond)
		}

		if err := s.sendMessage(e); err != nil {
			s.logger.Error("slack notification failed",
				"company", e.Application.Company,
				"position", e.Application.Position,
				"kind", e.Kind,
				"error", err,
			)
			failures++
		}
	}

	sent := len(events) - failures
	if failures == len(events) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Debug("slack notifications complete", "sent", sent, "failed", failures)
	return nil
}

func (s *SlackNotifier) sendMessage(e model.Event) error {
	payload := buildPayload(e)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		wait := model.ParseRetryAfter(resp.Header.Get("Retry-After"))
		if wait <= 0 {
			wait = time.Second
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after", wait)
		time.Sleep(wait)

		resp2, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		s.logger.Info("slack message sent", "application_id", e.Application.ID, "retried", true)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	s.logger.Info("slack message sent", "application_id", e.Application.ID)
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

// SendTestMessage sends a dummy saved event to verify the integration works.
func SendTestMessage(n model.Notifier) error {
	now := time.Now()
	app := model.Application{
		ID:        "test-001",
		Company:   "Jobber Test",
		Position:  "Test Notification: Integration Verified",
		Location:  "Everywhere",
		Status:    model.StatusApplied,
		Date:      now,
		Link:      "https://www.linkedin.com/jobs/",
		CreatedAt: now,
		UpdatedAt: now,
	}
	return n.Notify([]model.Event{{Kind: model.EventSaved, Application: app}})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var statusEmoji = map[model.Status]string{
	model.StatusApplied:   "📨",
	model.StatusInterview: "🗓️",
	model.StatusOffer:     "🎉",
	model.StatusRejected:  "🫡",
}

func buildPayload(e model.Event) slackPayload {
	a := e.Application
	company := capitalize(a.Company)

	var header string
	switch e.Kind {
	case model.EventStatusChanged:
		header = statusEmoji[a.Status] + " " + company + ": " + capitalize(string(e.From)) + " to " + capitalize(string(a.Status))
	default:
		header = "📌 Saved " + company + ": " + a.Position
	}

	location := a.Location
	if location == "" {
		location = "Not listed"
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: header},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Position:*\n" + a.Position},
				{Type: "mrkdwn", Text: "*Location:*\n" + location},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Status:*\n" + capitalize(string(a.Status))},
				{Type: "mrkdwn", Text: "*Applied:*\n" + a.Date.Format("Jan 2, 2006")},
			},
		},
	}

	if e.Message != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: e.Message},
		})
	}

	if a.Link != "" {
		blocks = append(blocks, slackBlock{
			Type: "actions",
			Elements: []slackElement{
				{
					Type:  "button",
					Text:  slackText{Type: "plain_text", Text: "View Posting"},
					URL:   a.Link,
					Style: "primary",
				},
			},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{Blocks: blocks}
}
