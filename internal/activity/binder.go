package activity

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/faculty-files/internal/auth"
	"github.com/prn-tf/faculty-files/internal/domain"
	"github.com/prn-tf/faculty-files/internal/metrics"
	"github.com/prn-tf/faculty-files/internal/repository"
	"github.com/prn-tf/faculty-files/internal/storage"
)

// SessionLookup resolves a session token to an identity.
type SessionLookup interface {
	Lookup(ctx context.Context, token string) (*auth.Identity, error)
}

// Operation describes a completed storage operation to record.
type Operation struct {
	Action      domain.ActivityAction
	VirtualPath string

	// Identity is the caller already resolved from the request, if any.
	Identity *auth.Identity

	// SessionToken is looked up when Identity is nil.
	SessionToken string

	// UserID is the userId sent in the request body. Used only when no
	// session resolves.
	UserID *int64
}

// Binder turns storage operations into activity log entries.
type Binder struct {
	activities repository.ActivityRepository
	users      repository.UserRepository
	sessions   SessionLookup
	dispatcher *Dispatcher
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewBinder creates a binder. sessions may be nil.
func NewBinder(
	activities repository.ActivityRepository,
	users repository.UserRepository,
	sessions SessionLookup,
	dispatcher *Dispatcher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Binder {
	return &Binder{
		activities: activities,
		users:      users,
		sessions:   sessions,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger.With().Str("service", "activity").Logger(),
	}
}

// Bind schedules an activity entry for op and returns immediately.
// It reports whether an entry was queued. Operations on files named with a
// timestamp placeholder are skipped. File names with no recognisable ID are
// still logged, without an entity ID.
func (b *Binder) Bind(op Operation) bool {
	if b == nil {
		return false
	}

	ref, ok := ExtractEntityID(op.VirtualPath)
	if ok && ref.Timestamp {
		b.metrics.RecordActivity(metrics.ActivitySkipped)
		b.logger.Debug().
			Str("virtual_path", op.VirtualPath).
			Int64("id", ref.ID).
			Msg("timestamp placeholder, activity not logged")
		return false
	}

	entry := domain.NewActivityLogEntry(op.Action, storage.FolderName(op.VirtualPath), op.VirtualPath)
	if ok {
		id := ref.ID
		entry.EntityID = &id
	}

	name := fmt.Sprintf("%s %s", op.Action, op.VirtualPath)
	return b.dispatcher.Go(name, func(ctx context.Context) error {
		return b.record(ctx, entry, op)
	})
}

func (b *Binder) record(ctx context.Context, entry *domain.ActivityLogEntry, op Operation) error {
	entry.UserID, entry.UserType = b.resolveActor(ctx, op)

	if err := b.activities.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to write activity entry: %w", err)
	}

	b.logger.Debug().
		Str("action", string(entry.Action)).
		Str("entity_name", entry.EntityName).
		Str("virtual_path", entry.VirtualPath).
		Msg("activity recorded")
	return nil
}

// resolveActor prefers the session. It falls back to the body userId and a
// lookup of that user's type; a failed lookup keeps the user with a nil type.
func (b *Binder) resolveActor(ctx context.Context, op Operation) (*int64, *string) {
	identity := op.Identity
	if identity == nil && op.SessionToken != "" && b.sessions != nil {
		found, err := b.sessions.Lookup(ctx, op.SessionToken)
		switch {
		case err == nil:
			identity = found
		case errors.Is(err, auth.ErrSessionNotFound):
		default:
			b.logger.Warn().Err(err).Msg("session lookup failed")
		}
	}

	if identity != nil {
		userID := identity.UserID
		userType := identity.UserType
		return &userID, &userType
	}

	if op.UserID == nil {
		return nil, nil
	}

	userID := *op.UserID
	userType, err := b.users.GetUserTypeByRoleID(ctx, userID)
	if err != nil {
		b.logger.Debug().Err(err).Int64("user_id", userID).Msg("user type lookup failed")
		return &userID, nil
	}
	return &userID, &userType
}
