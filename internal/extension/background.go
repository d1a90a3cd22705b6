// Package extension is the background side of the browser extension: it turns
// host messages into capture and session operations.
package extension

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amishk599/jobber/internal/auth"
	"github.com/amishk599/jobber/internal/capture"
	"github.com/amishk599/jobber/internal/extract"
	"github.com/amishk599/jobber/internal/messaging"
	"github.com/amishk599/jobber/internal/model"
)

// NavigationPayload reports a finished page load. HTML is optional; without it
// the page is fetched by the coordinator's loader.
type NavigationPayload struct {
	URL  string `json:"url"`
	HTML string `json:"html,omitempty"`
}

// JobDetectedPayload carries a posting a content script already extracted.
type JobDetectedPayload struct {
	JobDetails model.JobPosting `json:"jobDetails"`
}

// AuthStatusPayload reports a sign-in or sign-out in the web app.
type AuthStatusPayload struct {
	IsAuthenticated bool      `json:"isAuthenticated"`
	Token           string    `json:"token,omitempty"`
	User            auth.User `json:"user,omitempty"`
}

// CaptureView is what the popup needs to render a tab.
type CaptureView struct {
	State      string            `json:"state"`
	Badge      BadgeState        `json:"badge"`
	JobDetails *model.JobPosting `json:"jobDetails,omitempty"`
}

// Signer records sign-in state changes. *auth.Session implements it.
type Signer interface {
	SignIn(ctx context.Context, token string, user auth.User) error
	SignOut(ctx context.Context) error
}

// Background wires message types to the coordinator and session.
type Background struct {
	coord   *capture.Coordinator
	session Signer
	tabs    *Tabs
	badges  *Badges
	logger  *slog.Logger
}

func NewBackground(coord *capture.Coordinator, session Signer, tabs *Tabs, badges *Badges, logger *slog.Logger) *Background {
	return &Background{
		coord:   coord,
		session: session,
		tabs:    tabs,
		badges:  badges,
		logger:  logger,
	}
}

// Register installs the background handlers on bus.
func (bg *Background) Register(bus *messaging.Bus) {
	bus.Handle(messaging.TypeNavigationComplete, bg.handleNavigation)
	bus.Handle(messaging.TypeJobDetected, bg.handleJobDetected)
	bus.Handle(messaging.TypeAuthStatusChange, bg.handleAuthStatus)
	bus.Handle(messaging.TypeSaveJob, bg.handleSaveJob)
	bus.Handle(messaging.TypeGetCapture, bg.handleGetCapture)
	bus.Handle(messaging.TypeTabClosed, bg.handleTabClosed)
}

func (bg *Background) handleNavigation(ctx context.Context, msg messaging.Message) (messaging.Response, error) {
	var p NavigationPayload
	if err := decode(msg, &p); err != nil {
		return messaging.Response{}, err
	}
	if p.URL == "" {
		return messaging.Response{}, &model.ValidationError{Field: "url", Reason: "navigation without url"}
	}

	bg.tabs.Navigate(msg.TabID, p.URL)

	if p.HTML != "" {
		doc, err := extract.ParseHTML(p.URL, strings.NewReader(p.HTML))
		if err != nil {
			return messaging.Response{}, fmt.Errorf("parsing page: %w", err)
		}
		bg.coord.OnDocument(ctx, msg.TabID, doc)
	} else {
		bg.coord.OnNavigationComplete(ctx, msg.TabID, p.URL)
	}
	return messaging.OK(map[string]string{"state": bg.coord.State(msg.TabID).String()})
}

func (bg *Background) handleJobDetected(ctx context.Context, msg messaging.Message) (messaging.Response, error) {
	var p JobDetectedPayload
	if err := decode(msg, &p); err != nil {
		return messaging.Response{}, err
	}
	// Content scripts may omit the url; the posting then belongs to the page
	// the tab is already showing.
	if url := strings.TrimSpace(p.JobDetails.URL); url != "" {
		p.JobDetails.URL = url
		bg.tabs.Navigate(msg.TabID, url)
	} else if current, ok := bg.tabs.CurrentURL(msg.TabID); ok {
		p.JobDetails.URL = current
	} else {
		return messaging.Response{}, &model.ValidationError{Field: "url", Reason: "detected job without url on an unknown tab"}
	}
	bg.coord.OnDetected(ctx, msg.TabID, p.JobDetails)
	return messaging.OK(nil)
}

func (bg *Background) handleAuthStatus(ctx context.Context, msg messaging.Message) (messaging.Response, error) {
	var p AuthStatusPayload
	if err := decode(msg, &p); err != nil {
		return messaging.Response{}, err
	}
	if p.IsAuthenticated {
		if err := bg.session.SignIn(ctx, p.Token, p.User); err != nil {
			return messaging.Response{}, err
		}
	} else if err := bg.session.SignOut(ctx); err != nil {
		return messaging.Response{}, err
	}
	return messaging.OK(nil)
}

func (bg *Background) handleSaveJob(ctx context.Context, msg messaging.Message) (messaging.Response, error) {
	app, err := bg.coord.Save(ctx, msg.TabID)
	if err != nil {
		return messaging.Response{}, err
	}
	return messaging.OK(app)
}

func (bg *Background) handleGetCapture(ctx context.Context, msg messaging.Message) (messaging.Response, error) {
	view := CaptureView{
		State: bg.coord.State(msg.TabID).String(),
		Badge: bg.badges.Get(msg.TabID),
	}
	posting, ok, err := bg.coord.Current(ctx, msg.TabID)
	if err != nil {
		return messaging.Response{}, err
	}
	if ok {
		view.JobDetails = &posting
	}
	return messaging.OK(view)
}

func (bg *Background) handleTabClosed(ctx context.Context, msg messaging.Message) (messaging.Response, error) {
	bg.coord.Close(ctx, msg.TabID)
	bg.tabs.Close(msg.TabID)
	return messaging.OK(nil)
}

func decode(msg messaging.Message, v any) error {
	if len(msg.Payload) == 0 {
		return &model.ValidationError{Field: "payload", Reason: msg.Type + " needs a payload"}
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return &model.ValidationError{Field: "payload", Reason: err.Error()}
	}
	return nil
}
