package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobber/internal/model"
)

// TokenStore maps API bearer tokens to user ids.
type TokenStore struct {
	db  *sql.DB
	now func() time.Time
}

// Create mints a new random token for userID.
func (s *TokenStore) Create(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", &model.ValidationError{Field: "user_id", Reason: "required"}
	}
	token := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO api_tokens (token, user_id, created_at) VALUES (?, ?, ?)",
		token, userID, toMillis(s.now()),
	)
	if err != nil {
		return "", fmt.Errorf("creating token for %s: %w", userID, err)
	}
	return token, nil
}

// Lookup returns the user that owns token.
func (s *TokenStore) Lookup(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, "SELECT user_id FROM api_tokens WHERE token = ?", token).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("looking up token: %w", err)
	}
	return userID, nil
}

// Revoke deletes token.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM api_tokens WHERE token = ?", token); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}
