package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/jobber/internal/model"
)

// Policy bounds each attempt with Timeout and retries transient failures with
// exponential backoff and jitter.
type Policy struct {
	MaxRetries int           // additional attempts after the first failure
	BaseDelay  time.Duration // delay before the first retry, doubled on each subsequent retry
	Timeout    time.Duration // per-attempt timeout, zero for none
	Logger     *slog.Logger
}

// Do runs fn under the policy. op names the operation in logs and errors.
// When every attempt fails transiently the last error is wrapped in *model.TransportError.
func Do[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	return do(ctx, p, op, isRetryable, fn)
}

func do[T any](ctx context.Context, p Policy, op string, retryable func(error) bool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	v, err := attempt(ctx, p.Timeout, fn)
	if err == nil {
		return v, nil
	}
	if !retryable(err) {
		return zero, err
	}

	lastErr := err
	for n := 1; n <= p.MaxRetries; n++ {
		delay := p.backoffDelay(n, lastErr)

		if p.Logger != nil {
			p.Logger.Warn("retrying after transient error",
				"op", op,
				"attempt", n,
				"max_retries", p.MaxRetries,
				"delay", delay,
				"error", lastErr,
			)
		}

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		v, err = attempt(ctx, p.Timeout, fn)
		if err == nil {
			return v, nil
		}
		if !retryable(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, &model.TransportError{Op: op, Err: lastErr}
}

func attempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	v, err := fn(actx)
	// A per-attempt deadline is a transport failure, not a caller cancellation.
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		err = &timeoutError{timeout: timeout, err: err}
	}
	return v, err
}

type timeoutError struct {
	timeout time.Duration
	err     error
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("attempt timed out after %v: %v", e.timeout, e.err)
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (p Policy) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	// Apply ±30% jitter
	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *timeoutError
	if errors.As(err, &te) {
		return true
	}

	// Context cancellation: never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Domain outcomes are final.
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrForbidden) ||
		model.IsAuthRequired(err) || model.IsValidation(err) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		// 429 Too Many Requests: retryable.
		if httpErr.StatusCode == 429 {
			return true
		}
		// 5xx: retryable.
		if httpErr.StatusCode >= 500 {
			return true
		}
		// 4xx (not 429): not retryable.
		return false
	}

	// Non-HTTP errors (network, DNS, etc.): retryable.
	return true
}

// refusedUnprocessed reports whether the server turned the request away
// before acting on it. Timeouts, dropped connections and other 5xx leave the
// outcome unknown, so non-idempotent writes must not be repeated after them.
func refusedUnprocessed(err error) bool {
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode == 429 || httpErr.StatusCode == 503
}
