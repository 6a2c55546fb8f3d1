// Package auth resolves the caller behind a request from its session token.
package auth

import "errors"

// Session errors.
var (
	// ErrNoToken indicates the request carries no session token.
	ErrNoToken = errors.New("no session token")

	// ErrSessionNotFound indicates the token is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidIdentity indicates an identity cannot be stored as a session.
	ErrInvalidIdentity = errors.New("invalid identity")
)
