package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prn-tf/faculty-files/internal/pkg/crypto"
	"github.com/prn-tf/faculty-files/internal/repository"
)

const (
	// DefaultCookieName is the session cookie read when none is configured.
	DefaultCookieName = "session"

	sessionKeyPrefix = "session:"
	bearerPrefix     = "Bearer "
)

// Identity is the authenticated actor attached to a session.
type Identity struct {
	UserID   int64     `json:"userId"`
	UserType string    `json:"userType"`
	IssuedAt time.Time `json:"issuedAt"`
}

// SessionStore keeps sessions in a repository.Cache keyed by the token hash.
// Raw tokens are never stored.
type SessionStore struct {
	cache repository.Cache
	now   func() time.Time
}

// NewSessionStore creates a session store on top of cache.
func NewSessionStore(cache repository.Cache) *SessionStore {
	return &SessionStore{cache: cache, now: time.Now}
}

func sessionKey(token string) string {
	return sessionKeyPrefix + crypto.HashToken(token)
}

// Lookup returns the identity for token.
// Returns ErrNoToken for an empty token and ErrSessionNotFound for an unknown one.
func (s *SessionStore) Lookup(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	data, err := s.cache.Get(ctx, sessionKey(token))
	if err != nil {
		if errors.Is(err, repository.ErrCacheMiss) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var identity Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	return &identity, nil
}

// Issue creates a session for identity and returns its token.
func (s *SessionStore) Issue(ctx context.Context, identity Identity, ttl time.Duration) (string, error) {
	if identity.UserID <= 0 {
		return "", fmt.Errorf("%w: user id must be positive", ErrInvalidIdentity)
	}
	if strings.TrimSpace(identity.UserType) == "" {
		return "", fmt.Errorf("%w: user type is required", ErrInvalidIdentity)
	}

	token, err := crypto.GenerateSessionToken()
	if err != nil {
		return "", err
	}

	identity.IssuedAt = s.now().UTC()
	data, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.cache.Set(ctx, sessionKey(token), data, ttl); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return token, nil
}

// Revoke removes the session for token. Unknown tokens are not an error.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoToken
	}
	return s.cache.Delete(ctx, sessionKey(token))
}

// TokenFromRequest returns the session token from the named cookie or, failing
// that, from an "Authorization: Bearer" header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	header := r.Header.Get("Authorization")
	if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(header[len(bearerPrefix):])
	}
	return ""
}
