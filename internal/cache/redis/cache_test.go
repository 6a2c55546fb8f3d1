package redis

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/faculty-files/internal/config"
	"github.com/prn-tf/faculty-files/internal/repository"
)

func TestNewClient_Unreachable(t *testing.T) {
	// Grab a free port and close it so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	_, err = NewClient(context.Background(), config.RedisConfig{
		Host:        "127.0.0.1",
		Port:        port,
		DialTimeout: 200 * time.Millisecond,
	})
	require.ErrorIs(t, err, repository.ErrCacheUnavailable)
}

// TestCache_Live runs against FACULTY_TEST_REDIS_ADDR when set.
func TestCache_Live(t *testing.T) {
	addr := os.Getenv("FACULTY_TEST_REDIS_ADDR")
	if addr == "" || testing.Short() {
		t.Skip("FACULTY_TEST_REDIS_ADDR not set")
	}

	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := net.LookupPort("tcp", portStr)
	require.NoError(t, err)

	ctx := context.Background()
	client, err := NewClient(ctx, config.RedisConfig{Host: host, Port: port, DialTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	c := NewCache(client, "faculty-test:"+uuid.NewString()+":")

	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, repository.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)

	require.NoError(t, c.Expire(ctx, "k", 0))
	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, c.Delete(ctx, "k"))
	exists, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	require.False(t, exists)
}
