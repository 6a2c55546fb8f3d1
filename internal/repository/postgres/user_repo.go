package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/faculty-files/internal/domain"
	"github.com/prn-tf/faculty-files/internal/repository"
)

// userRepository implements repository.UserRepository.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

// GetUserTypeByRoleID returns the user type for a role ID.
func (r *userRepository) GetUserTypeByRoleID(ctx context.Context, roleID int64) (string, error) {
	query := `SELECT user_type FROM users WHERE role_id = $1`

	var userType string
	err := r.db.Pool.QueryRow(ctx, query, roleID).Scan(&userType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
		VALUES ($1, $2, NOW())
		ON CONFLICT (role_id) DO UPDATE
		SET user_type = EXCLUDED.user_type, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.Pool.Exec(ctx, query, user.RoleID, user.UserType); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}
