package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"agiletrack/apperr"
	"agiletrack/models"
	"agiletrack/token"
)

type ctxKey struct{}

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFrom retrieves the authenticated user placed by RequireAuth.
func UserFrom(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(models.User)
	return user, ok
}

// UserResolver turns validated claims back into a live user record.
type UserResolver interface {
	UserByID(ctx context.Context, id int) (models.User, error)
}

// RequireAuth validates the bearer token and resolves its claims to a live user
// before the handler runs. A user deleted after token issuance is rejected the
// same as a forged token.
func RequireAuth(tokens *token.Service, users UserResolver, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ""
			if header := r.Header.Get("Authorization"); header != "" {
				raw = strings.TrimPrefix(header, "Bearer ")
				if raw == header {
					unauthorized(w, "Invalid token")
					return
				}
			}

			claims, err := tokens.Validate(raw)
			switch {
			case errors.Is(err, apperr.ErrTokenMissing):
				unauthorized(w, "Token is missing")
				return
			case errors.Is(err, apperr.ErrTokenExpired):
				unauthorized(w, "Token has expired")
				return
			case err != nil:
				unauthorized(w, "Invalid token")
				return
			}

			user, err := users.UserByID(r.Context(), claims.UserID)
			if err != nil {
				if !errors.Is(err, apperr.ErrUserNotFound) {
					log.WithError(err).Error("resolving token user")
				}
				unauthorized(w, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
