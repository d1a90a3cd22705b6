package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/amishk599/jobber/internal/model"
)

// Ensure CaptureStore implements model.KVStore.
var _ model.KVStore = (*CaptureStore)(nil)

// CaptureStore is the transient key/value store that holds per-tab captures and
// the cached session.
type CaptureStore struct {
	db  *sql.DB
	now func() time.Time
}

// Get returns the value stored under key.
func (s *CaptureStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM captures WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading capture %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *CaptureStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO captures (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("writing capture %s: %w", key, err)
	}
	return nil
}

// Remove deletes keys. Missing keys are ignored.
func (s *CaptureStore) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM captures WHERE key = ?", key); err != nil {
			return fmt.Errorf("removing capture %s: %w", key, err)
		}
	}
	return nil
}

// Cleanup deletes entries whose keys start with prefix and that were last written
// more than olderThan ago. It returns the number of entries removed.
func (s *CaptureStore) Cleanup(ctx context.Context, prefix string, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan)
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM captures WHERE key LIKE ? ESCAPE '\\' AND updated_at < ?",
		escapeLike(prefix)+"%", toMillis(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("cleaning up captures older than %v: %w", olderThan, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
