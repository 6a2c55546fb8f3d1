package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	l := NewMemoryLocker()
	l.now = func() time.Time { return now }

	key := Keys.HoldingFile("0b6f3f5e-8c1c-4a57-9f0e-3c1b2a0d9e11.pdf")

	ok, err := l.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	held, err := l.IsHeld(ctx, key)
	require.NoError(t, err)
	require.True(t, held)

	released, err := l.Release(ctx, key)
	require.NoError(t, err)
	require.True(t, released)

	released, err = l.Release(ctx, key)
	require.NoError(t, err)
	require.False(t, released)

	// An expired lock can be taken again.
	ok, err = l.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	now = now.Add(2 * time.Minute)

	held, err = l.IsHeld(ctx, key)
	require.NoError(t, err)
	require.False(t, held)

	ok, err = l.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryLocker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryLocker().Acquire(ctx, Keys.HoldingSweep(), time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}

// TestRedisLocker_Live runs against FACULTY_TEST_REDIS_ADDR when set.
func TestRedisLocker_Live(t *testing.T) {
	addr := os.Getenv("FACULTY_TEST_REDIS_ADDR")
	if addr == "" || testing.Short() {
		t.Skip("FACULTY_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	prefix := "faculty-test:" + uuid.NewString() + ":"
	a := NewRedisLocker(client, prefix)
	b := NewRedisLocker(client, prefix)
	key := Keys.HoldingSweep()

	ok, err := a.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	// b never held the lock and must not remove a's.
	released, err := b.Release(ctx, key)
	require.NoError(t, err)
	require.False(t, released)

	held, err := b.IsHeld(ctx, key)
	require.NoError(t, err)
	require.True(t, held)

	released, err = a.Release(ctx, key)
	require.NoError(t, err)
	require.True(t, released)

	ok, err = b.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = b.Release(ctx, key)
	require.NoError(t, err)
}
