// Package metrics provides Prometheus metrics for the versioning engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache slot label values.
const (
	SlotActiveVersion = "active_version"
	SlotVersion       = "version"
)

// Cache result label values.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Metrics holds all Prometheus collectors for the versioning engine.
// A nil *Metrics is valid and records nothing, so callers that do not
// care about instrumentation pass nil.
type Metrics struct {
	// Service operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Cache lookup metrics
	CacheRequestsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg
// creates unregistered collectors, which is what tests use to avoid
// cross-test registration collisions.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.OperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowvault_operations_total",
			Help: "Total number of versioning service operations",
		},
		[]string{"operation", "status"},
	)

	m.OperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowvault_operation_duration_seconds",
			Help:    "Duration of versioning service operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	m.CacheRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowvault_cache_requests_total",
			Help: "Total number of version cache lookups by slot and result",
		},
		[]string{"slot", "result"},
	)

	return m
}

// RecordOperation records one service operation with its outcome.
func (m *Metrics) RecordOperation(operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheRequest records one cache lookup against a slot.
func (m *Metrics) RecordCacheRequest(slot, result string) {
	if m == nil {
		return
	}
	m.CacheRequestsTotal.WithLabelValues(slot, result).Inc()
}
