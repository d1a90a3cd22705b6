package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amishk599/jobber/internal/auth"
	"github.com/amishk599/jobber/internal/capture"
	"github.com/amishk599/jobber/internal/extract"
	"github.com/amishk599/jobber/internal/messaging"
	"github.com/amishk599/jobber/internal/model"
)

// TokenLookup resolves a bearer token to the user it was issued for.
type TokenLookup interface {
	Lookup(ctx context.Context, token string) (string, error)
}

// HubDeps are shared by every user's workspace.
type HubDeps struct {
	Store     model.KVStore
	Loader    model.PageLoader
	Saver     capture.Saver
	Extractor *extract.Extractor
	Tokens    TokenLookup
}

// workspace is one user's background: their tabs, badges, captures and session.
type workspace struct {
	coord *capture.Coordinator
	bus   *messaging.Bus
}

// Hub runs a separate background per authenticated caller, so tab ids,
// captures and sign-in state never leak between users of one server.
type Hub struct {
	deps    HubDeps
	cfg     capture.Config
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	users map[string]*workspace
}

func NewHub(deps HubDeps, cfg capture.Config, timeout time.Duration, logger *slog.Logger) *Hub {
	return &Hub{
		deps:    deps,
		cfg:     cfg,
		timeout: timeout,
		logger:  logger,
		users:   make(map[string]*workspace),
	}
}

// Send delivers msg to the caller's background.
func (h *Hub) Send(ctx context.Context, caller model.Auth, msg messaging.Message) (messaging.Response, error) {
	if caller.UserID == "" {
		return messaging.Response{}, &model.AuthRequiredError{Reason: "message without an authenticated caller"}
	}
	return h.workspace(caller.UserID).bus.Send(ctx, msg)
}

// Expire drops stale captures in every workspace.
func (h *Hub) Expire(ctx context.Context, ttl time.Duration) int {
	h.mu.Lock()
	coords := make([]*capture.Coordinator, 0, len(h.users))
	for _, ws := range h.users {
		coords = append(coords, ws.coord)
	}
	h.mu.Unlock()

	expired := 0
	for _, c := range coords {
		expired += c.Expire(ctx, ttl)
	}
	return expired
}

func (h *Hub) workspace(userID string) *workspace {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ws, ok := h.users[userID]; ok {
		return ws
	}

	logger := h.logger.With("user_id", userID)
	session := &verifiedSession{
		session: auth.NewScopedSession(h.deps.Store, userID, logger),
		tokens:  h.deps.Tokens,
		userID:  userID,
	}
	tabs := NewTabs()
	badges := NewBadges()

	cfg := h.cfg
	cfg.Scope = userID
	coord := capture.NewCoordinator(capture.Deps{
		Store:     h.deps.Store,
		Badge:     badges,
		Loader:    h.deps.Loader,
		Tabs:      tabs,
		Saver:     h.deps.Saver,
		Session:   session,
		Extractor: h.deps.Extractor,
	}, cfg, logger)

	bus := messaging.NewBus(h.timeout, logger)
	NewBackground(coord, session, tabs, badges, logger).Register(bus)

	ws := &workspace{coord: coord, bus: bus}
	h.users[userID] = ws
	return ws
}

// verifiedSession only accepts tokens issued to its user and re-checks the
// token on every use, so a revoked token stops saving immediately.
type verifiedSession struct {
	session *auth.Session
	tokens  TokenLookup
	userID  string
}

func (s *verifiedSession) SignIn(ctx context.Context, token string, user auth.User) error {
	if user.ID == "" {
		user.ID = s.userID
	}
	if user.ID != s.userID {
		return fmt.Errorf("signing in as %s: %w", user.ID, model.ErrForbidden)
	}
	if err := s.check(ctx, token); err != nil {
		return err
	}
	return s.session.SignIn(ctx, token, user)
}

func (s *verifiedSession) SignOut(ctx context.Context) error {
	return s.session.SignOut(ctx)
}

// Auth returns the cached credentials, or a zero Auth once the token no
// longer belongs to this user.
func (s *verifiedSession) Auth(ctx context.Context) (model.Auth, error) {
	a, err := s.session.Auth(ctx)
	if err != nil || a.Token == "" {
		return a, err
	}
	if err := s.check(ctx, a.Token); err != nil {
		if model.IsAuthRequired(err) || errors.Is(err, model.ErrForbidden) {
			return model.Auth{}, nil
		}
		return model.Auth{}, err
	}
	return a, nil
}

func (s *verifiedSession) check(ctx context.Context, token string) error {
	if token == "" {
		return &model.ValidationError{Field: "token", Reason: "sign-in needs a token"}
	}
	owner, err := s.tokens.Lookup(ctx, token)
	if errors.Is(err, model.ErrNotFound) {
		return &model.AuthRequiredError{Reason: "unknown token"}
	}
	if err != nil {
		return fmt.Errorf("checking token: %w", err)
	}
	if owner != s.userID {
		return fmt.Errorf("token issued to another user: %w", model.ErrForbidden)
	}
	return nil
}
