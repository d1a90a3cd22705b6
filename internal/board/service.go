package board

import (
	"context"

	"github.com/amishk599/jobber/internal/lifecycle"
	"github.com/amishk599/jobber/internal/model"
)

// Service binds the board's actions to one user's applications.
type Service struct {
	store     model.ApplicationStore
	lifecycle *lifecycle.Manager
	userID    string
}

var _ Backend = (*Service)(nil)

// NewService creates a Service acting as userID.
func NewService(store model.ApplicationStore, manager *lifecycle.Manager, userID string) *Service {
	return &Service{store: store, lifecycle: manager, userID: userID}
}

// List returns the user's applications, newest first.
func (s *Service) List(ctx context.Context) ([]model.Application, error) {
	return s.store.Query(ctx, s.userID, model.ApplicationFilter{})
}

func (s *Service) Transition(ctx context.Context, id string, to model.Status) (model.Application, error) {
	return s.lifecycle.Transition(ctx, s.userID, id, to)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, s.userID, id)
}
