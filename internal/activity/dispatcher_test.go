package activity

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/faculty-files/internal/metrics"
)

func newTestDispatcher(workers, queue int) (*Dispatcher, *metrics.Metrics) {
	m := metrics.New()
	d := NewDispatcher(DispatcherConfig{Workers: workers, QueueSize: queue, Timeout: time.Second}, m, zerolog.Nop())
	return d, m
}

func jobCount(m *metrics.Metrics, outcome string) float64 {
	return testutil.ToFloat64(m.ActivityJobs.WithLabelValues(outcome))
}

func TestDispatcher_RunsJobs(t *testing.T) {
	d, m := newTestDispatcher(2, 16)
	d.Start()

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		require.True(t, d.Go("count", func(ctx context.Context) error {
			_, hasDeadline := ctx.Deadline()
			if !hasDeadline {
				return errors.New("job context has no deadline")
			}
			ran.Add(1)
			return nil
		}))
	}

	d.Stop()
	require.Equal(t, int32(10), ran.Load())
	require.Equal(t, float64(10), jobCount(m, metrics.ActivityWritten))
}

func TestDispatcher_FailuresAreSwallowed(t *testing.T) {
	d, m := newTestDispatcher(1, 4)
	d.Start()

	require.True(t, d.Go("fails", func(ctx context.Context) error { return errors.New("db down") }))
	require.True(t, d.Go("panics", func(ctx context.Context) error { panic("boom") }))
	require.True(t, d.Go("ok", func(ctx context.Context) error { return nil }))

	d.Stop()
	require.Equal(t, float64(2), jobCount(m, metrics.ActivityFailed))
	require.Equal(t, float64(1), jobCount(m, metrics.ActivityWritten))
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d, m := newTestDispatcher(1, 1)
	d.Start()

	started := make(chan struct{})
	release := make(chan struct{})
	require.True(t, d.Go("blocker", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	require.True(t, d.Go("queued", func(ctx context.Context) error { return nil }))
	require.False(t, d.Go("dropped", func(ctx context.Context) error { return nil }))
	require.Equal(t, float64(1), jobCount(m, metrics.ActivityDropped))

	close(release)
	d.Stop()
	require.Equal(t, float64(2), jobCount(m, metrics.ActivityWritten))
}

func TestDispatcher_NotRunning(t *testing.T) {
	d, m := newTestDispatcher(1, 1)

	require.False(t, d.Go("early", func(ctx context.Context) error { return nil }))

	d.Start()
	d.Stop()
	d.Stop()
	d.Start()

	require.False(t, d.Go("late", func(ctx context.Context) error { return nil }))
	require.Equal(t, float64(2), jobCount(m, metrics.ActivityDropped))
}

func TestDispatcher_JobTimeout(t *testing.T) {
	m := metrics.New()
	d := NewDispatcher(DispatcherConfig{Workers: 1, QueueSize: 1, Timeout: 20 * time.Millisecond}, m, zerolog.Nop())
	d.Start()

	require.True(t, d.Go("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	d.Stop()
	require.Equal(t, float64(1), jobCount(m, metrics.ActivityFailed))
}
