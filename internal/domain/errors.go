// Package domain contains the core business entities for Faculty Files.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// Pattern Errors
	// ===========================================

	// ErrInvalidPattern indicates the pattern type is outside 1-6.
	ErrInvalidPattern = errors.New("invalid pattern type")

	// ErrMissingField indicates a field required by the pattern variant is absent.
	ErrMissingField = errors.New("missing required pattern field")

	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// InvalidPatternError is returned when a pattern type does not name one of the
// six known naming patterns.
type InvalidPatternError struct {
	Type int
}

// Error implements the error interface.
func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern type %d: must be between 1 and 6", e.Type)
}

// Is reports whether target is ErrInvalidPattern.
func (e *InvalidPatternError) Is(target error) bool {
	return target == ErrInvalidPattern
}

// MissingFieldError names the field a pattern variant could not be built without.
type MissingFieldError struct {
	Pattern PatternType
	Field   string
}

// Error implements the error interface.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("pattern %d requires %s", e.Pattern, e.Field)
}

// Is reports whether target is ErrMissingField.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

func missing(p PatternType, field string) error {
	return &MissingFieldError{Pattern: p, Field: field}
}
