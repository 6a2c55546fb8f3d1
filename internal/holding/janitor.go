package holding

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/faculty-files/internal/lock"
	"github.com/prn-tf/faculty-files/internal/metrics"
)

// sweepLockTTL bounds how long a crashed instance can block other sweeps.
const sweepLockTTL = 10 * time.Minute

// JanitorConfig contains janitor settings.
type JanitorConfig struct {
	// Interval is how often to sweep.
	Interval time.Duration

	// MaxAge is how long an unreleased holding file is kept.
	MaxAge time.Duration
}

// Janitor periodically removes abandoned holding files.
// Instances sharing one holding directory take turns through locker.
type Janitor struct {
	store   *Store
	locker  lock.Locker
	metrics *metrics.Metrics
	logger  zerolog.Logger
	config  JanitorConfig

	// Control
	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewJanitor creates a new janitor. locker may be nil.
func NewJanitor(store *Store, locker lock.Locker, m *metrics.Metrics, logger zerolog.Logger, config JanitorConfig) *Janitor {
	return &Janitor{
		store:    store,
		locker:   locker,
		metrics:  m,
		logger:   logger.With().Str("service", "holding-janitor").Logger(),
		config:   config,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the sweep scheduler.
func (j *Janitor) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.logger.Info().
		Dur("interval", j.config.Interval).
		Dur("max_age", j.config.MaxAge).
		Msg("Starting holding janitor")

	go j.runLoop()
}

// Stop stops the sweep scheduler and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopChan)
	<-j.doneChan

	j.logger.Info().Msg("Holding janitor stopped")
}

func (j *Janitor) runLoop() {
	defer close(j.doneChan)

	// Run immediately on start
	j.RunOnce(context.Background())

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce(context.Background())
		case <-j.stopChan:
			return
		}
	}
}

// RunOnce executes a single sweep.
// It does nothing while another instance holds the sweep lock.
func (j *Janitor) RunOnce(ctx context.Context) (removed, remaining int) {
	start := time.Now()

	if j.locker != nil {
		key := lock.Keys.HoldingSweep()
		acquired, err := j.locker.Acquire(ctx, key, sweepLockTTL)
		if err != nil {
			j.logger.Error().Err(err).Msg("failed to acquire sweep lock")
			return 0, 0
		}
		if !acquired {
			j.logger.Debug().Msg("sweep lock held elsewhere, skipping")
			return 0, 0
		}
		defer func() {
			if _, err := j.locker.Release(context.Background(), key); err != nil {
				j.logger.Warn().Err(err).Msg("failed to release sweep lock")
			}
		}()
	}

	removed, remaining, err := j.store.Sweep(ctx, j.config.MaxAge)
	if err != nil {
		j.logger.Error().Err(err).Msg("holding sweep failed")
		return removed, remaining
	}

	j.metrics.RecordHoldingSweep(removed, remaining)

	event := j.logger.Debug()
	if removed > 0 {
		event = j.logger.Info()
	}
	event.
		Int("removed", removed).
		Int("remaining", remaining).
		Dur("duration", time.Since(start)).
		Msg("holding sweep completed")

	return removed, remaining
}
