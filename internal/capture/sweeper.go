package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Cleaner deletes stored entries under prefix that were last written before olderThan ago.
type Cleaner interface {
	Cleanup(ctx context.Context, prefix string, olderThan time.Duration) (int64, error)
}

// Expirer drops in-memory captures older than ttl. *Coordinator implements it.
type Expirer interface {
	Expire(ctx context.Context, ttl time.Duration) int
}

// Sweeper expires captures nobody saved. It drops the live tabs it is given
// and, through cleaner, entries left behind by earlier processes.
type Sweeper struct {
	tabs    Expirer
	cleaner Cleaner // optional
	ttl     time.Duration
	logger  *slog.Logger
}

func NewSweeper(tabs Expirer, cleaner Cleaner, ttl time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{tabs: tabs, cleaner: cleaner, ttl: ttl, logger: logger}
}

func (s *Sweeper) Name() string { return "capture-sweeper" }

// Run performs one sweep.
func (s *Sweeper) Run(ctx context.Context) error {
	expired := s.tabs.Expire(ctx, s.ttl)

	var removed int64
	if s.cleaner != nil {
		n, err := s.cleaner.Cleanup(ctx, KeyPrefix, s.ttl)
		if err != nil {
			return fmt.Errorf("cleaning stored captures: %w", err)
		}
		removed = n
	}

	if expired > 0 || removed > 0 {
		s.logger.Info("expired stale captures", "tabs", expired, "stored", removed, "ttl", s.ttl)
	}
	return nil
}
