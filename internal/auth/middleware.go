package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	tokenContextKey    contextKey = "sessionToken"
)

// Middleware attaches the session token, and the identity behind it when the
// session resolves, to the request context. It never rejects a request:
// storage operations accept anonymous callers and the activity log falls back
// to the userId in the body.
func Middleware(store *SessionStore, cookieName string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), tokenContextKey, token)

			if store != nil {
				identity, err := store.Lookup(ctx, token)
				switch {
				case err == nil:
					ctx = context.WithValue(ctx, identityContextKey, identity)
				case errors.Is(err, ErrSessionNotFound):
					logger.Debug().Str("path", r.URL.Path).Msg("unknown session token")
				default:
					logger.Warn().Err(err).Msg("session lookup failed")
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity returns the identity resolved by Middleware, if any.
func GetIdentity(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	return identity, ok && identity != nil
}

// GetToken returns the raw session token seen by Middleware, if any.
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}
