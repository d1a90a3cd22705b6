package notifier

import (
	"log/slog"

	"github.com/amishk599/jobber/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes application events to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each event via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each event. Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(events []model.Event) error {
	for _, e := range events {
		a := e.Application
		args := []any{"company", a.Company, "position", a.Position, "status", a.Status}
		if a.Link != "" {
			args = append(args, "link", a.Link)
		}
		switch e.Kind {
		case model.EventSaved:
			n.logger.Info("application saved", args...)
		case model.EventStatusChanged:
			args = append(args, "from", e.From)
			if e.Message != "" {
				args = append(args, "message", e.Message)
			}
			n.logger.Info("application status changed", args...)
		default:
			n.logger.Info("application event", append(args, "kind", e.Kind)...)
		}
	}
	return nil
}
