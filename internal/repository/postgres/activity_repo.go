package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/faculty-files/internal/domain"
	"github.com/prn-tf/faculty-files/internal/repository"
)

// activityRepository implements repository.ActivityRepository.
type activityRepository struct {
	db *DB
}

// NewActivityRepository creates a new PostgreSQL activity repository.
func NewActivityRepository(db *DB) repository.ActivityRepository {
	return &activityRepository{db: db}
}

// Create appends an entry to the activity log.
func (r *activityRepository) Create(ctx context.Context, entry *domain.ActivityLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO activity_log (id, action, entity_name, entity_id, user_id, user_type, virtual_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		entry.ID,
		string(entry.Action),
		entry.EntityName,
		entry.EntityID,
		entry.UserID,
		entry.UserType,
		entry.VirtualPath,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity entry: %w", err)
	}

	return nil
}

// ListRecent returns the newest entries first.
func (r *activityRepository) ListRecent(ctx context.Context, opts repository.ActivityListOptions) ([]*domain.ActivityLogEntry, error) {
	opts = opts.Normalize()

	var (
		where []string
		args  []any
	)
	if opts.EntityName != "" {
		args = append(args, opts.EntityName)
		where = append(where, fmt.Sprintf("entity_name = $%d", len(args)))
	}
	if opts.Action != "" {
		args = append(args, string(opts.Action))
		where = append(where, fmt.Sprintf("action = $%d", len(args)))
	}

	query := `
		SELECT id, action, entity_name, entity_id, user_id, user_type, virtual_path, created_at
		FROM activity_log
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, opts.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.ActivityLogEntry, error) {
		var (
			entry  domain.ActivityLogEntry
			action string
		)
		err := row.Scan(
			&entry.ID,
			&action,
			&entry.EntityName,
			&entry.EntityID,
			&entry.UserID,
			&entry.UserType,
			&entry.VirtualPath,
			&entry.CreatedAt,
		)
		entry.Action = domain.ActivityAction(action)
		return &entry, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan activity entries: %w", err)
	}

	return entries, nil
}
