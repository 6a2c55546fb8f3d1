package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/faculty-files/internal/metrics"
)

// Job is a unit of background work. Its error is logged, never returned.
type Job func(ctx context.Context) error

type namedJob struct {
	name string
	run  Job
}

// DispatcherConfig contains dispatcher settings.
type DispatcherConfig struct {
	// Workers is the number of goroutines running jobs.
	Workers int

	// QueueSize bounds waiting jobs. Go drops jobs once it is full.
	QueueSize int

	// Timeout bounds each job.
	Timeout time.Duration
}

// DefaultDispatcherConfig returns sensible defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Workers:   2,
		QueueSize: 256,
		Timeout:   10 * time.Second,
	}
}

// Dispatcher runs jobs detached from the caller. Jobs get a fresh context
// with their own timeout, so request cancellation never reaches them.
type Dispatcher struct {
	config  DispatcherConfig
	metrics *metrics.Metrics
	logger  zerolog.Logger

	jobs chan namedJob
	wg   sync.WaitGroup

	// Control
	mu      sync.RWMutex
	running bool
	closed  bool
}

// NewDispatcher creates a dispatcher. Call Start before submitting jobs.
func NewDispatcher(config DispatcherConfig, m *metrics.Metrics, logger zerolog.Logger) *Dispatcher {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.QueueSize < 1 {
		config.QueueSize = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultDispatcherConfig().Timeout
	}

	return &Dispatcher{
		config:  config,
		metrics: m,
		logger:  logger.With().Str("service", "activity-dispatcher").Logger(),
		jobs:    make(chan namedJob, config.QueueSize),
	}
}

// Start launches the workers. A stopped dispatcher cannot be restarted.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running || d.closed {
		return
	}
	d.running = true

	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	d.logger.Info().
		Int("workers", d.config.Workers).
		Int("queue_size", d.config.QueueSize).
		Dur("timeout", d.config.Timeout).
		Msg("Starting activity dispatcher")
}

// Go queues job without blocking. It returns false, and the job is dropped,
// when the queue is full or the dispatcher is not running.
func (d *Dispatcher) Go(name string, job Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.running {
		d.metrics.RecordActivity(metrics.ActivityDropped)
		d.logger.Warn().Str("job", name).Msg("dispatcher not running, job dropped")
		return false
	}

	select {
	case d.jobs <- namedJob{name: name, run: job}:
		d.metrics.SetActivityQueueDepth(len(d.jobs))
		return true
	default:
		d.metrics.RecordActivity(metrics.ActivityDropped)
		d.logger.Warn().Str("job", name).Int("queue_size", d.config.QueueSize).Msg("activity queue full, job dropped")
		return false
	}
}

// Stop stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info().Msg("Activity dispatcher stopped")
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for job := range d.jobs {
		d.metrics.SetActivityQueueDepth(len(d.jobs))
		d.run(id, job)
	}
}

func (d *Dispatcher) run(worker int, job namedJob) {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.Timeout)
	defer cancel()

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic: %v", p)
			}
		}()
		return job.run(ctx)
	}()

	if err != nil {
		d.metrics.RecordActivity(metrics.ActivityFailed)
		d.logger.Error().
			Err(err).
			Str("job", job.name).
			Int("worker", worker).
			Dur("duration", time.Since(start)).
			Msg("activity job failed")
		return
	}

	d.metrics.RecordActivity(metrics.ActivityWritten)
	d.logger.Debug().
		Str("job", job.name).
		Int("worker", worker).
		Dur("duration", time.Since(start)).
		Msg("activity job done")
}
