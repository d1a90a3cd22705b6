// Package auth holds the signed-in user's credentials on the extension side.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobber/internal/model"
)

const (
	tokenKey = "token"
	userKey  = "user"
)

// User is the profile cached alongside the token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Ensure Session implements model.Session.
var _ model.Session = (*Session)(nil)

// Session caches the bearer token and user in the extension's key/value store
// so every component sees the same sign-in state.
type Session struct {
	kv     model.KVStore
	prefix string
	logger *slog.Logger
}

func NewSession(kv model.KVStore, logger *slog.Logger) *Session {
	return &Session{kv: kv, logger: logger}
}

// NewScopedSession keeps its token and user under keys private to scope, so
// several sessions can share one store.
func NewScopedSession(kv model.KVStore, scope string, logger *slog.Logger) *Session {
	return &Session{kv: kv, prefix: "session_" + scope + "_", logger: logger.With("scope", scope)}
}

func (s *Session) key(name string) string { return s.prefix + name }

// SignIn stores token and user.
func (s *Session) SignIn(ctx context.Context, token string, user User) error {
	if token == "" || user.ID == "" {
		return &model.ValidationError{Field: "token", Reason: "sign-in needs a token and a user id"}
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	if err := s.kv.Set(ctx, s.key(tokenKey), []byte(token)); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	if err := s.kv.Set(ctx, s.key(userKey), data); err != nil {
		return fmt.Errorf("storing user: %w", err)
	}
	s.logger.Info("user authenticated", "user_id", user.ID)
	return nil
}

// SignOut forgets the token and user.
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.kv.Remove(ctx, s.key(tokenKey), s.key(userKey)); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	s.logger.Info("user logged out")
	return nil
}

// Token returns the cached bearer token, or "" when signed out.
func (s *Session) Token(ctx context.Context) (string, error) {
	data, ok, err := s.kv.Get(ctx, s.key(tokenKey))
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	if !ok {
		return "", nil
	}
	return string(data), nil
}

// CurrentUser returns the cached user; ok is false when signed out.
func (s *Session) CurrentUser(ctx context.Context) (User, bool, error) {
	data, ok, err := s.kv.Get(ctx, s.key(userKey))
	if err != nil {
		return User{}, false, fmt.Errorf("reading user: %w", err)
	}
	if !ok {
		return User{}, false, nil
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return User{}, false, fmt.Errorf("decoding user: %w", err)
	}
	return u, true, nil
}

// CurrentUserID returns the cached user's id, or "" when signed out.
func (s *Session) CurrentUserID(ctx context.Context) (string, error) {
	u, _, err := s.CurrentUser(ctx)
	return u.ID, err
}

// Auth returns the current credentials. Signed-out sessions yield a zero Auth,
// which the save pipeline rejects before touching the network.
func (s *Session) Auth(ctx context.Context) (model.Auth, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return model.Auth{}, err
	}
	userID, err := s.CurrentUserID(ctx)
	if err != nil {
		return model.Auth{}, err
	}
	return model.Auth{UserID: userID, Token: token}, nil
}

// Static is a fixed identity, used by the CLI and the server acting for a
// request's authenticated user.
type Static model.Auth

func (s Static) Auth(context.Context) (model.Auth, error) {
	return model.Auth(s), nil
}
