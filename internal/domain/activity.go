package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityAction is the verb recorded in the activity log.
type ActivityAction string

const (
	// ActionUpload records a file placed in the object store.
	ActionUpload ActivityAction = "UPLOAD"

	// ActionDelete records a file removed from the object store.
	ActionDelete ActivityAction = "DELETE"
)

// TimestampThreshold separates real record IDs from the millisecond timestamps
// used as placeholders while a record is still being created.
const TimestampThreshold int64 = 1_000_000_000

// ActivityLogEntry is a best-effort audit record for a storage operation.
// It is not authoritative: the entity ID is inferred from the file name.
type ActivityLogEntry struct {
	// ID is the unique identifier of the entry.
	ID uuid.UUID `json:"id"`

	// Action is what happened.
	Action ActivityAction `json:"action"`

	// EntityName is the logical folder the file belongs to.
	EntityName string `json:"entity_name"`

	// EntityID is the record ID recovered from the file name.
	EntityID *int64 `json:"entity_id,omitempty"`

	// UserID is the acting user, if one could be determined.
	UserID *int64 `json:"user_id,omitempty"`

	// UserType is the acting user's type. NULL when the lookup failed.
	UserType *string `json:"user_type,omitempty"`

	// VirtualPath is the storage key the operation touched.
	VirtualPath string `json:"virtual_path"`

	// CreatedAt is when the operation happened.
	CreatedAt time.Time `json:"created_at"`
}

// NewActivityLogEntry creates an entry with a fresh ID and timestamp.
func NewActivityLogEntry(action ActivityAction, entityName, virtualPath string) *ActivityLogEntry {
	return &ActivityLogEntry{
		ID:          uuid.New(),
		Action:      action,
		EntityName:  entityName,
		VirtualPath: virtualPath,
		CreatedAt:   time.Now().UTC(),
	}
}
