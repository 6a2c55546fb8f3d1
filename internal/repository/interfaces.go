// Package repository defines data access interfaces for Faculty Files.
// These interfaces abstract database operations, allowing for different implementations
// (PostgreSQL, SQLite, in-memory for testing) while keeping the service layer clean.
package repository

import (
	"context"

	"github.com/prn-tf/faculty-files/internal/domain"
)

// =============================================================================
// Activity Repository
// =============================================================================

// ActivityRepository defines the interface for activity log data access.
type ActivityRepository interface {
	// Create appends an entry to the activity log.
	Create(ctx context.Context, entry *domain.ActivityLogEntry) error

	// ListRecent returns the newest entries first.
	ListRecent(ctx context.Context, opts ActivityListOptions) ([]*domain.ActivityLogEntry, error)
}

// ActivityListOptions filters ListRecent.
type ActivityListOptions struct {
	// Limit is the maximum number of entries (default 50, max 1000).
	Limit int

	// EntityName restricts results to one folder. Empty means all.
	EntityName string

	// Action restricts results to one action. Empty means all.
	Action domain.ActivityAction
}

// Normalize applies defaults and bounds.
func (o ActivityListOptions) Normalize() ActivityListOptions {
	if o.Limit <= 0 {
		o.Limit = 50
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	return o
}

// =============================================================================
// User Repository
// =============================================================================

// UserRepository reads the user type the surrounding application stores
// for each role. The storage core never creates users during requests.
type UserRepository interface {
	// GetUserTypeByRoleID returns users.user_type for role_id.
	// Returns domain.ErrUserNotFound if no user has that role ID.
	GetUserTypeByRoleID(ctx context.Context, roleID int64) (string, error)

	// Upsert creates or updates a user row. Used by operator tooling and
	// in embedded mode, where this process owns the users table.
	Upsert(ctx context.Context, user *domain.User) error
}
