package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prn-tf/faculty-files/internal/domain"
	"github.com/prn-tf/faculty-files/internal/repository"
)

// userRepository implements repository.UserRepository for SQLite.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

// GetUserTypeByRoleID returns the user type for a role ID.
func (r *userRepository) GetUserTypeByRoleID(ctx context.Context, roleID int64) (string, error) {
	query := `SELECT user_type FROM users WHERE role_id = ?`

	var userType string
	err := r.db.QueryRowContext(ctx, query, roleID).Scan(&userType)
	if err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("%w: role_id %d", domain.ErrUserNotFound, roleID)
		}
		return "", fmt.Errorf("failed to get user type: %w", err)
	}

	return userType, nil
}

// Upsert creates or updates a user row.
func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user.RoleID <= 0 {
		return fmt.Errorf("invalid role_id %d", user.RoleID)
	}
	if strings.TrimSpace(user.UserType) == "" {
		return fmt.Errorf("user_type is required")
	}

	query := `
		INSERT INTO users (role_id, user_type, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (role_id) DO UPDATE
		SET user_type = excluded.user_type, updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		user.RoleID,
		user.UserType,
		time.Now().UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}
