package retry

import (
	"context"

	"github.com/amishk599/jobber/internal/model"
)

// Ensure Store implements model.ApplicationStore.
var _ model.ApplicationStore = (*Store)(nil)

// Store is a decorator that applies a retry Policy to every call on the wrapped
// ApplicationStore.
type Store struct {
	inner  model.ApplicationStore
	policy Policy
}

// NewStore wraps inner with the given policy.
func NewStore(inner model.ApplicationStore, policy Policy) *Store {
	return &Store{inner: inner, policy: policy}
}

// Insert is not idempotent: a repeated attempt after an ambiguous failure can
// create a duplicate row, so only explicit refusals are retried.
func (s *Store) Insert(ctx context.Context, app model.Application) (model.Application, error) {
	return do(ctx, s.policy, "insert application", refusedUnprocessed, func(ctx context.Context) (model.Application, error) {
		return s.inner.Insert(ctx, app)
	})
}

func (s *Store) Get(ctx context.Context, userID, id string) (model.Application, error) {
	return Do(ctx, s.policy, "get application", func(ctx context.Context) (model.Application, error) {
		return s.inner.Get(ctx, userID, id)
	})
}

func (s *Store) Update(ctx context.Context, userID, id string, patch model.ApplicationPatch) (model.Application, error) {
	return Do(ctx, s.policy, "update application", func(ctx context.Context) (model.Application, error) {
		return s.inner.Update(ctx, userID, id, patch)
	})
}

func (s *Store) Delete(ctx context.Context, userID, id string) error {
	_, err := Do(ctx, s.policy, "delete application", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.inner.Delete(ctx, userID, id)
	})
	return err
}

func (s *Store) Query(ctx context.Context, userID string, filter model.ApplicationFilter) ([]model.Application, error) {
	return Do(ctx, s.policy, "query applications", func(ctx context.Context) ([]model.Application, error) {
		return s.inner.Query(ctx, userID, filter)
	})
}
