package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/jobber/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPolicy(maxRetries int) Policy {
	return Policy{MaxRetries: maxRetries, BaseDelay: 10 * time.Millisecond, Logger: discardLogger()}
}

// counter calls fn on each invocation, tracking call count.
type counter struct {
	calls int
	fn    func(attempt int) (string, error)
}

func (c *counter) do(_ context.Context) (string, error) {
	c.calls++
	return c.fn(c.calls)
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	c := &counter{fn: func(_ int) (string, error) { return "ok", nil }}

	got, err := Do(context.Background(), testPolicy(1), "op", c.do)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Fatalf("got %q", got)
	}
	if c.calls != 1 {
		t.Fatalf("expected 1 call, got %d", c.calls)
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	c := &counter{fn: func(attempt int) (string, error) {
		if attempt == 1 {
			return "", &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return "ok", nil
	}}

	got, err := Do(context.Background(), testPolicy(1), "op", c.do)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Fatalf("got %q", got)
	}
	if c.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", c.calls)
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	c := &counter{fn: func(_ int) (string, error) {
		return "", &model.HTTPError{StatusCode: 404, Err: errors.New("not found")}
	}}

	_, err := Do(context.Background(), testPolicy(1), "op", c.do)
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("expected HTTPError with status 404, got %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", c.calls)
	}
}

func TestRetry_DoesNotRetryDomainErrors(t *testing.T) {
	for _, domainErr := range []error{
		model.ErrNotFound,
		model.ErrForbidden,
		&model.AuthRequiredError{},
		&model.ValidationError{Field: "company", Reason: "required"},
	} {
		c := &counter{fn: func(_ int) (string, error) { return "", domainErr }}
		_, err := Do(context.Background(), testPolicy(1), "op", c.do)
		if !errors.Is(err, domainErr) {
			t.Errorf("expected %v to pass through, got %v", domainErr, err)
		}
		if c.calls != 1 {
			t.Errorf("%v: expected 1 call, got %d", domainErr, c.calls)
		}
	}
}

func TestRetry_GivesUpAfterSingleRetry(t *testing.T) {
	c := &counter{fn: func(_ int) (string, error) {
		return "", &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	_, err := Do(context.Background(), testPolicy(1), "insert application", c.do)
	var te *model.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *model.TransportError, got %v", err)
	}
	if te.Op != "insert application" {
		t.Errorf("Op = %q", te.Op)
	}
	// 1 initial + 1 retry = 2
	if c.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", c.calls)
	}
}

func TestRetry_PerAttemptTimeoutIsRetried(t *testing.T) {
	calls := 0
	fn := func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "ok", nil
	}

	p := testPolicy(1)
	p.Timeout = 20 * time.Millisecond
	got, err := Do(context.Background(), p, "op", fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 2 {
		t.Fatalf("got %q after %d calls", got, calls)
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	c := &counter{fn: func(_ int) (string, error) {
		return "", &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	// Cancel immediately so the backoff sleep is interrupted.
	cancel()

	p := testPolicy(2)
	p.BaseDelay = time.Second
	_, err := Do(ctx, p, "op", c.do)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", c.calls)
	}
}

func TestBackoffDelay_PrefersRetryAfter(t *testing.T) {
	p := testPolicy(1)
	err := &model.HTTPError{StatusCode: 429, RetryAfter: 3 * time.Second}
	if got := p.backoffDelay(1, err); got != 3*time.Second {
		t.Errorf("backoffDelay = %v, want 3s", got)
	}
}
