// Package domain contains the core business entities for Faculty Files.
// These are pure Go structs with no external dependencies, representing
// the naming patterns, audit entries and users the storage core works with.
package domain

// User is the slice of a faculty-system user the storage core needs.
// The users table itself belongs to the surrounding application.
type User struct {
	// RoleID is the identifier callers send as userId.
	RoleID int64 `json:"role_id"`

	// UserType is the account category (e.g. "faculty", "department", "admin").
	UserType string `json:"user_type"`
}
