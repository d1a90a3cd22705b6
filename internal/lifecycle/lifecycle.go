// Package lifecycle moves applications between statuses.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobber/internal/model"
)

// Manager applies status transitions on behalf of a user.
type Manager struct {
	store    model.ApplicationStore
	notifier model.Notifier
	logger   *slog.Logger
}

// NewManager creates a Manager. notifier may be nil.
func NewManager(store model.ApplicationStore, notifier model.Notifier, logger *slog.Logger) *Manager {
	return &Manager{store: store, notifier: notifier, logger: logger}
}

// Transition sets the status of appID to to. Any status may move to any other;
// moving to the current status is a no-op that returns the unchanged row.
func (m *Manager) Transition(ctx context.Context, userID, appID string, to model.Status) (model.Application, error) {
	if _, err := model.ParseStatus(string(to)); err != nil {
		return model.Application{}, err
	}

	current, err := m.store.Get(ctx, userID, appID)
	if err != nil {
		return model.Application{}, fmt.Errorf("loading application %s: %w", appID, err)
	}
	if current.Status == to {
		m.logger.Debug("status unchanged", "application_id", appID, "status", to)
		return current, nil
	}

	updated, err := m.store.Update(ctx, userID, appID, model.ApplicationPatch{Status: &to})
	if err != nil {
		return model.Application{}, fmt.Errorf("updating status of %s: %w", appID, err)
	}

	m.logger.Info("status changed",
		"application_id", appID,
		"from", current.Status,
		"to", to,
	)

	if m.notifier != nil {
		event := model.Event{
			Kind:        model.EventStatusChanged,
			Application: updated,
			From:        current.Status,
			Message:     Message(to),
		}
		if err := m.notifier.Notify([]model.Event{event}); err != nil {
			m.logger.Warn("status notification failed", "application_id", appID, "error", err)
		}
	}
	return updated, nil
}

// Message is the text shown to the user when confirming a move to status to.
func Message(to model.Status) string {
	switch to {
	case model.StatusInterview:
		return "Congratulations on getting an interview! Would you like to add any notes about the interview process?"
	case model.StatusOffer:
		return "Congratulations on receiving an offer! Would you like to add details about the offer?"
	case model.StatusRejected:
		return "Sorry to hear about the rejection. Remember that each application is a learning experience."
	default:
		return "Are you sure you want to change the status?"
	}
}
