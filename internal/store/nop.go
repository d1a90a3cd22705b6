package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobber/internal/model"
)

// NopStore is an ApplicationStore used in dry-run mode. Inserts are echoed back
// with an id but nothing is persisted.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Insert(_ context.Context, app model.Application) (model.Application, error) {
	now := time.Now().UTC()
	app.ID = "dry-run-" + uuid.NewString()
	app.CreatedAt, app.UpdatedAt = now, now
	return app, nil
}

func (s *NopStore) Get(_ context.Context, _, id string) (model.Application, error) {
	return model.Application{}, model.ErrNotFound
}

func (s *NopStore) Update(_ context.Context, _, _ string, _ model.ApplicationPatch) (model.Application, error) {
	return model.Application{}, model.ErrNotFound
}

func (s *NopStore) Delete(_ context.Context, _, _ string) error { return model.ErrNotFound }

func (s *NopStore) Query(_ context.Context, _ string, _ model.ApplicationFilter) ([]model.Application, error) {
	return nil, nil
}
