// Package metrics provides Prometheus metrics for Faculty Files.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "faculty_files"

// Storage operation outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeInvalid       = "invalid"
	OutcomeFolderMissing = "folder_missing"
	OutcomeNotFound      = "not_found"
	OutcomeError         = "error"
	OutcomeDisabled      = "disabled"
)

// Activity job outcomes.
const (
	ActivityWritten = "written"
	ActivitySkipped = "skipped"
	ActivityFailed  = "failed"
	ActivityDropped = "dropped"
)

// Metrics holds every collector exposed by the process.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	StorageOperations        *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec
	StorageBytes             *prometheus.CounterVec

	ActivityJobs       *prometheus.CounterVec
	ActivityQueueDepth prometheus.Gauge

	HoldingFiles   prometheus.Gauge
	HoldingSweeps  prometheus.Counter
	HoldingRemoved prometheus.Counter

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		StorageOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Total number of object store operations by outcome.",
		}, []string{"operation", "outcome"}),

		StorageOperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Duration of object store operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		StorageBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "bytes_total",
			Help:      "Bytes transferred to and from the object store.",
		}, []string{"direction"}),

		ActivityJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "jobs_total",
			Help:      "Activity log jobs by outcome.",
		}, []string{"outcome"}),

		ActivityQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "queue_depth",
			Help:      "Activity log jobs waiting for a worker.",
		}),

		HoldingFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "holding",
			Name:      "files",
			Help:      "Files currently in the holding area after the last sweep.",
		}),

		HoldingSweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "holding",
			Name:      "sweeps_total",
			Help:      "Number of holding area sweeps.",
		}),

		HoldingRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "holding",
			Name:      "removed_total",
			Help:      "Abandoned holding files removed by sweeps.",
		}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.StorageOperations,
		m.StorageOperationDuration,
		m.StorageBytes,
		m.ActivityJobs,
		m.ActivityQueueDepth,
		m.HoldingFiles,
		m.HoldingSweeps,
		m.HoldingRemoved,
		m.HTTPRequests,
		m.HTTPRequestDuration,
	)

	return m
}

// Registry returns the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordStorageOperation records one storage call.
func (m *Metrics) RecordStorageOperation(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.StorageOperations.WithLabelValues(operation, outcome).Inc()
	m.StorageOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBytes records a transfer in direction "in" (upload) or "out" (download).
func (m *Metrics) RecordBytes(direction string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.StorageBytes.WithLabelValues(direction).Add(float64(n))
}

// RecordActivity records the outcome of one activity job.
func (m *Metrics) RecordActivity(outcome string) {
	if m == nil {
		return
	}
	m.ActivityJobs.WithLabelValues(outcome).Inc()
}

// SetActivityQueueDepth records how many jobs are waiting.
func (m *Metrics) SetActivityQueueDepth(n int) {
	if m == nil {
		return
	}
	m.ActivityQueueDepth.Set(float64(n))
}

// RecordHoldingSweep records a holding area sweep.
func (m *Metrics) RecordHoldingSweep(removed, remaining int) {
	if m == nil {
		return
	}
	m.HoldingSweeps.Inc()
	m.HoldingRemoved.Add(float64(removed))
	m.HoldingFiles.Set(float64(remaining))
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
