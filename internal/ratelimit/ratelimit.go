package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/jobber/internal/adapter"
	"github.com/amishk599/jobber/internal/model"
)

// SiteRateLimiter enforces a minimum delay between page loads from the same job board.
type SiteRateLimiter struct {
	mu        sync.Mutex
	lastCall  map[model.Source]time.Time
	minDelay  time.Duration
	overrides map[model.Source]time.Duration
}

// NewSiteRateLimiter creates a limiter with a default minDelay and optional
// per-board overrides.
func NewSiteRateLimiter(minDelay time.Duration, overrides map[model.Source]time.Duration) *SiteRateLimiter {
	if overrides == nil {
		overrides = make(map[model.Source]time.Duration)
	}
	return &SiteRateLimiter{
		lastCall:  make(map[model.Source]time.Time),
		minDelay:  minDelay,
		overrides: overrides,
	}
}

func (r *SiteRateLimiter) delayFor(src model.Source) time.Duration {
	if d, ok := r.overrides[src]; ok {
		return d
	}
	return r.minDelay
}

// Wait blocks until enough time has passed since the last request to the given board.
// Returns an error if the context is cancelled while waiting.
func (r *SiteRateLimiter) Wait(ctx context.Context, src model.Source) error {
	r.mu.Lock()
	last, ok := r.lastCall[src]
	now := time.Now()
	delay := r.delayFor(src)

	if !ok || now.Sub(last) >= delay {
		r.lastCall[src] = now
		r.mu.Unlock()
		return nil
	}

	// Reserve the next slot so concurrent callers queue behind each other.
	next := last.Add(delay)
	r.lastCall[src] = next
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", src, ctx.Err())
	case <-time.After(time.Until(next)):
	}
	return nil
}

// Ensure RateLimitedLoader implements model.PageLoader.
var _ model.PageLoader = (*RateLimitedLoader)(nil)

// RateLimitedLoader is a decorator that waits on the board's limiter before
// delegating to the wrapped PageLoader.
type RateLimitedLoader struct {
	inner   model.PageLoader
	limiter *SiteRateLimiter
}

// NewRateLimitedLoader wraps a PageLoader with per-board rate limiting.
func NewRateLimitedLoader(inner model.PageLoader, limiter *SiteRateLimiter) *RateLimitedLoader {
	return &RateLimitedLoader{inner: inner, limiter: limiter}
}

// Load waits for the board of url to allow a request, then loads it.
func (l *RateLimitedLoader) Load(ctx context.Context, url string) (model.DocumentQuery, error) {
	if err := l.limiter.Wait(ctx, adapter.SourceFor(url)); err != nil {
		return nil, err
	}
	return l.inner.Load(ctx, url)
}
