package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amishk599/jobber/internal/model"
)

// flakyStore fails the first failures calls of every method with err.
type flakyStore struct {
	failures int
	err      error
	calls    int
}

func (s *flakyStore) step() error {
	s.calls++
	if s.calls <= s.failures {
		return s.err
	}
	return nil
}

func (s *flakyStore) Insert(_ context.Context, app model.Application) (model.Application, error) {
	if err := s.step(); err != nil {
		return model.Application{}, err
	}
	app.ID = "app-1"
	return app, nil
}

func (s *flakyStore) Get(_ context.Context, _, id string) (model.Application, error) {
	return model.Application{ID: id}, s.step()
}

func (s *flakyStore) Update(_ context.Context, _, id string, _ model.ApplicationPatch) (model.Application, error) {
	return model.Application{ID: id}, s.step()
}

func (s *flakyStore) Delete(_ context.Context, _, _ string) error {
	return s.step()
}

func (s *flakyStore) Query(_ context.Context, _ string, _ model.ApplicationFilter) ([]model.Application, error) {
	return nil, s.step()
}

func TestStore_InsertRetriesOnceThenSucceeds(t *testing.T) {
	inner := &flakyStore{failures: 1, err: &model.HTTPError{StatusCode: 429}}
	s := NewStore(inner, testPolicy(1))

	app, err := s.Insert(context.Background(), model.Application{Company: "Acme"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.ID != "app-1" {
		t.Errorf("ID = %q", app.ID)
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 calls, got %d", inner.calls)
	}
}

func TestStore_DeleteSurfacesTransportError(t *testing.T) {
	inner := &flakyStore{failures: 5, err: errors.New("connection refused")}
	s := NewStore(inner, testPolicy(1))

	err := s.Delete(context.Background(), "user-1", "app-1")
	var te *model.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 calls, got %d", inner.calls)
	}
}

func TestStore_GetNotFoundIsNotRetried(t *testing.T) {
	inner := &flakyStore{failures: 5, err: model.ErrNotFound}
	s := NewStore(inner, testPolicy(1))

	_, err := s.Get(context.Background(), "user-1", "missing")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call, got %d", inner.calls)
	}
}

// slowInsert records every Insert but only returns after the attempt deadline.
type slowInsert struct {
	flakyStore
	inserted int
}

func (s *slowInsert) Insert(ctx context.Context, app model.Application) (model.Application, error) {
	s.inserted++
	<-ctx.Done()
	return model.Application{}, ctx.Err()
}

func TestStore_InsertTimeoutIsNotRetried(t *testing.T) {
	inner := &slowInsert{}
	p := testPolicy(3)
	p.Timeout = 20 * time.Millisecond
	s := NewStore(inner, p)

	_, err := s.Insert(context.Background(), model.Application{Company: "Acme"})
	if err == nil {
		t.Fatal("expected error")
	}
	if inner.inserted != 1 {
		t.Errorf("expected 1 insert attempt, got %d", inner.inserted)
	}
}

func TestStore_InsertAmbiguousFailureIsNotRetried(t *testing.T) {
	for _, err := range []error{
		errors.New("connection reset"),
		&model.HTTPError{StatusCode: 502},
	} {
		inner := &flakyStore{failures: 5, err: err}
		s := NewStore(inner, testPolicy(3))

		if _, got := s.Insert(context.Background(), model.Application{Company: "Acme"}); got == nil {
			t.Errorf("%v: expected error", err)
		}
		if inner.calls != 1 {
			t.Errorf("%v: expected 1 call, got %d", err, inner.calls)
		}
	}
}

func TestStore_UpdateStillRetriesNetworkErrors(t *testing.T) {
	inner := &flakyStore{failures: 1, err: errors.New("connection reset")}
	s := NewStore(inner, testPolicy(1))

	if _, err := s.Update(context.Background(), "user-1", "app-1", model.ApplicationPatch{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 calls, got %d", inner.calls)
	}
}
