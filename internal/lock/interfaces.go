// Package lock provides distributed and local locking abstractions.
// For single-node deployments, memory-based locks are used.
// When Redis is enabled, locks are shared by every instance.
package lock

import (
	"context"
	"time"
)

// Locker defines the interface for distributed/local locking.
type Locker interface {
	// Acquire attempts to acquire a lock.
	// Returns true if the lock was acquired, false if it's held by another owner.
	// The lock will automatically expire after the specified TTL.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release releases a lock acquired by this locker.
	// Returns true if the lock was released, false if it wasn't held.
	Release(ctx context.Context, key string) (bool, error)

	// IsHeld checks if the lock is currently held by anyone.
	IsHeld(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Common Lock Keys
// =============================================================================

// Keys provides lock key generation for common scenarios.
var Keys = lockKeys{}

type lockKeys struct{}

// HoldingFile returns the lock key guarding consumption of one holding file.
// Prevents two uploads from consuming the same file.
func (lockKeys) HoldingFile(name string) string {
	return "lock:holding:file:" + name
}

// HoldingSweep returns the lock key for the holding area sweep.
func (lockKeys) HoldingSweep() string {
	return "lock:holding:sweep"
}
