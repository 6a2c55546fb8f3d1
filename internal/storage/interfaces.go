// Package storage defines interfaces for the remote object store.
// The object store is the only system of record for file content; this
// package holds no state of its own.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrObjectNotFound indicates the object does not exist in the store.
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidPath indicates a malformed or unsafe virtual path.
	ErrInvalidPath = errors.New("invalid virtual path")
)

// Object is the content and metadata of a stored file.
type Object struct {
	// Data is the full object body.
	Data []byte

	// ContentType is the content type recorded at upload.
	ContentType string

	// Size is the object size in bytes.
	Size int64
}

// ObjectStore defines the operations the storage core needs from the remote
// object store. Implementations must be safe for concurrent use; a single
// instance is shared by all requests.
type ObjectStore interface {
	// PutObject stores data under key.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - key: Virtual path of the object
	//   - data: Object body
	//   - contentType: Content type to record with the object
	PutObject(ctx context.Context, key string, data []byte, contentType string) error

	// GetObject reads the whole object into memory.
	//
	// Returns:
	//   - *Object: Object body and metadata
	//   - err: ErrObjectNotFound if the object doesn't exist, or other error
	GetObject(ctx context.Context, key string) (*Object, error)

	// DeleteObject removes the object. Deleting a missing key is not an error.
	DeleteObject(ctx context.Context, key string) error

	// HeadObject probes object metadata without reading the body.
	//
	// Returns:
	//   - err: ErrObjectNotFound if the object doesn't exist, or other error
	HeadObject(ctx context.Context, key string) error

	// PrefixExists reports whether at least one object has the given prefix.
	// Folders are provisioned out-of-band; an empty prefix means the folder
	// does not exist.
	PrefixExists(ctx context.Context, prefix string) (bool, error)

	// PresignGet returns a time-limited GET URL for the object.
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}
