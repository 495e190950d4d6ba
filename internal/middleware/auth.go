package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/coldemail-backend/internal/model"
	"github.com/unclebandit/coldemail-backend/internal/security"
)

type ctxKey string

const ctxUser ctxKey = "user"

// TokenParser validates bearer tokens.
type TokenParser interface {
	Parse(token string) (*security.AccessClaims, error)
}

// UserLookup resolves the token subject to a stored user.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// JWTAuth rejects requests without a valid bearer token and puts the current
// user into the request context.
func JWTAuth(tokens TokenParser, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				unauthorized(w)
				return
			}

			claims, err := tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				unauthorized(w)
				return
			}

			user, err := users.GetByEmail(r.Context(), claims.Subject)
			if err != nil {
				log.Error().Err(err).Msg("user lookup failed during auth")
				unauthorized(w)
				return
			}
			if user == nil {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, ctxUser, u)
}

// UserFromContext retrieves the user set by JWTAuth.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(ctxUser).(*model.User)
	return u, ok && u != nil
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
}
