package save

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/amishk599/jobber/internal/model"
)

// Options tune how postings become applications.
type Options struct {
	// CopyDescriptionToNotes carries the posting description into Application.Notes.
	CopyDescriptionToNotes bool
	// DedupWindow, when positive, returns an existing application with the same
	// link and position created within the window instead of inserting a duplicate.
	DedupWindow time.Duration
}

// Pipeline turns a captured JobPosting into a stored Application.
type Pipeline struct {
	store    model.ApplicationStore
	notifier model.Notifier
	opts     Options
	now      func() time.Time
	logger   *slog.Logger
}

// NewPipeline creates a save pipeline. notifier may be nil.
func NewPipeline(store model.ApplicationStore, notifier model.Notifier, opts Options, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
	}
}

// Save validates posting, maps it to an Application owned by auth.UserID and
// persists it. Errors are *model.AuthRequiredError, *model.ValidationError or
// *model.TransportError.
func (p *Pipeline) Save(ctx context.Context, posting model.JobPosting, auth model.Auth) (model.Application, error) {
	if auth.Token == "" || auth.UserID == "" {
		return model.Application{}, &model.AuthRequiredError{Reason: "no session token"}
	}
	if err := Validate(posting); err != nil {
		return model.Application{}, err
	}

	app := p.toApplication(posting, auth.UserID)

	if p.opts.DedupWindow > 0 {
		existing, found, err := p.findDuplicate(ctx, app)
		if err != nil {
			return model.Application{}, classify("check duplicate", err)
		}
		if found {
			p.logger.Info("posting already saved, skipping insert",
				"application_id", existing.ID,
				"company", existing.Company,
				"position", existing.Position,
			)
			return existing, nil
		}
	}

	created, err := p.store.Insert(ctx, app)
	if err != nil {
		return model.Application{}, classify("insert application", err)
	}

	p.logger.Info("application saved",
		"application_id", created.ID,
		"company", created.Company,
		"position", created.Position,
		"source", posting.Source,
	)

	if p.notifier != nil {
		if err := p.notifier.Notify([]model.Event{{Kind: model.EventSaved, Application: created}}); err != nil {
			p.logger.Warn("save notification failed", "application_id", created.ID, "error", err)
		}
	}
	return created, nil
}

func (p *Pipeline) toApplication(posting model.JobPosting, userID string) model.Application {
	app := model.Application{
		UserID:   userID,
		Company:  posting.Company,
		Position: posting.Title,
		Location: posting.Location,
		Status:   model.StatusApplied,
		Date:     p.now().UTC(),
		Link:     posting.URL,
	}
	if p.opts.CopyDescriptionToNotes {
		app.Notes = posting.Description
	}
	return app
}

func (p *Pipeline) findDuplicate(ctx context.Context, app model.Application) (model.Application, bool, error) {
	if app.Link == "" {
		return model.Application{}, false, nil
	}
	matches, err := p.store.Query(ctx, app.UserID, model.ApplicationFilter{
		Link:         app.Link,
		Position:     app.Position,
		CreatedAfter: p.now().Add(-p.opts.DedupWindow),
		Limit:        1,
	})
	if err != nil {
		return model.Application{}, false, err
	}
	if len(matches) == 0 {
		return model.Application{}, false, nil
	}
	return matches[0], true, nil
}

// Validate checks that posting can become an application.
func Validate(posting model.JobPosting) error {
	return validate(posting.Company, posting.Title, posting.URL)
}

// ValidateApplication applies the same rules to an application created or
// edited directly.
func ValidateApplication(app model.Application) error {
	return validate(app.Company, app.Position, app.Link)
}

func validate(company, position, link string) error {
	if strings.TrimSpace(company) == "" {
		return &model.ValidationError{Field: "company", Reason: "company name is required"}
	}
	if strings.TrimSpace(position) == "" {
		return &model.ValidationError{Field: "position", Reason: "position is required"}
	}
	if link != "" {
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &model.ValidationError{Field: "link", Reason: fmt.Sprintf("%q is not a valid URL", link)}
		}
	}
	return nil
}

// classify maps store failures onto the save error taxonomy.
func classify(op string, err error) error {
	var (
		authErr      *model.AuthRequiredError
		validErr     *model.ValidationError
		transportErr *model.TransportError
	)
	switch {
	case errors.As(err, &authErr), errors.As(err, &validErr), errors.As(err, &transportErr):
		return err
	case errors.Is(err, model.ErrForbidden):
		return &model.AuthRequiredError{Reason: err.Error()}
	default:
		return &model.TransportError{Op: op, Err: err}
	}
}
