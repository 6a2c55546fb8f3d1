package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/faculty-files/internal/domain"
	"github.com/prn-tf/faculty-files/internal/repository"
)

// timestampLayout is fixed-width so created_at sorts correctly as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// activityRepository implements repository.ActivityRepository for SQLite.
type activityRepository struct {
	db *DB
}

// NewActivityRepository creates a new SQLite activity repository.
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID.String(),
		string(entry.Action),
		entry.EntityName,
		nullInt64(entry.EntityID),
		nullInt64(entry.UserID),
		nullString(entry.UserType),
		entry.VirtualPath,
		entry.CreatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("activity entry %s already exists", entry.ID)
		}
		return fmt.Errorf("failed to create activity entry: %w", err)
	}

	return nil
}

// ListRecent returns the newest entries first.
func (r *activityRepository) ListRecent(ctx context.Context, opts repository.ActivityListOptions) ([]*domain.ActivityLogEntry, error) {
	opts = opts.Normalize()

	var (
		where []string
		args  []interface{}
	)
	if opts.EntityName != "" {
		where = append(where, "entity_name = ?")
		args = append(args, opts.EntityName)
	}
	if opts.Action != "" {
		where = append(where, "action = ?")
		args = append(args, string(opts.Action))
	}

	query := `
		SELECT id, action, entity_name, entity_id, user_id, user_type, virtual_path, created_at
		FROM activity_log
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, opts.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ActivityLogEntry
	for rows.Next() {
		var (
			id, action, createdAt string
			entityID, userID      sql.NullInt64
			userType              sql.NullString
			entry                 domain.ActivityLogEntry
		)

		if err := rows.Scan(&id, &action, &entry.EntityName, &entityID, &userID, &userType, &entry.VirtualPath, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}

		entry.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid activity id %q: %w", id, err)
		}
		entry.Action = domain.ActivityAction(action)
		entry.EntityID = int64Ptr(entityID)
		entry.UserID = int64Ptr(userID)
		entry.UserType = stringPtr(userType)
		entry.CreatedAt, _ = time.Parse(timestampLayout, createdAt)

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
