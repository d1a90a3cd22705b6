package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/amishk599/jobber/internal/model"
)

// TokenLookup resolves a bearer token to the user it was issued for.
type TokenLookup interface {
	Lookup(ctx context.Context, token string) (string, error)
}

type authKey struct{}

// BearerAuth rejects requests without a known bearer token and stores the
// token's user id in the request context.
func BearerAuth(tokens TokenLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) || auth == prefix {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
				return
			}
			token := auth[len(prefix):]
			userID, err := tokens.Lookup(r.Context(), token)
			if errors.Is(err, model.ErrNotFound) {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
				return
			}
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "checking token: %v", err)
				return
			}
			ctx := context.WithValue(r.Context(), authKey{}, model.Auth{UserID: userID, Token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthFrom returns the authenticated caller stored by BearerAuth.
func AuthFrom(ctx context.Context) (model.Auth, bool) {
	a, ok := ctx.Value(authKey{}).(model.Auth)
	return a, ok
}
