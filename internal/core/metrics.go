package core

import (
	"context"
	"expvar"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

func statusOf(success bool) string {
	if success {
		return statusSuccess
	}
	return statusError
}

// OperationStats aggregates the observations of one operation.
type OperationStats struct {
	Calls   int64   `json:"calls"`
	Errors  int64   `json:"errors"`
	TotalMS float64 `json:"total_ms"`
	MaxMS   float64 `json:"max_ms"`
}

func (s *OperationStats) add(success bool, ms float64) {
	s.Calls++
	if !success {
		s.Errors++
	}
	s.TotalMS += ms
	s.MaxMS = max(s.MaxMS, ms)
}

// ExpvarMetricsSnapshot is a point-in-time copy of an ExpvarMetricsRecorder.
type ExpvarMetricsSnapshot struct {
	Operations map[string]OperationStats `json:"operations"`
	RecordedAt time.Time                 `json:"recorded_at"`
}

var expvarSeq atomic.Uint64

// ExpvarMetricsRecorder keeps OperationStats per operation and publishes the
// snapshot as an expvar.
type ExpvarMetricsRecorder struct {
	name string
	mu   sync.Mutex
	ops  map[string]OperationStats
}

// NewExpvarMetricsRecorder publishes a recorder under name, or under a
// generated unique name when name is empty. expvar panics on reused names.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("housingcore_operations_%d", expvarSeq.Add(1))
	}
	r := &ExpvarMetricsRecorder{name: name, ops: map[string]OperationStats{}}
	expvar.Publish(name, expvar.Func(func() any { return r.Snapshot() }))
	return r
}

// Name is the expvar key the recorder is published under.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Snapshot copies the current stats.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ExpvarMetricsSnapshot{Operations: maps.Clone(r.ops), RecordedAt: time.Now().UTC()}
}

// Observe implements MetricsRecorder. Unnamed operations are dropped.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, d time.Duration) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	stats := r.ops[operation]
	stats.add(success, float64(d)/float64(time.Millisecond))
	r.ops[operation] = stats
	r.mu.Unlock()
}

// PrometheusMetricsRecorder exports operation counters and latency histograms
// on a Prometheus registry.
type PrometheusMetricsRecorder struct {
	registry *prometheus.Registry
	results  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder registers the service collectors on reg. A nil
// reg gets a fresh registry.
func NewPrometheusMetricsRecorder(reg *prometheus.Registry) *PrometheusMetricsRecorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &PrometheusMetricsRecorder{
		registry: reg,
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "housingcore",
			Subsystem: "service",
			Name:      "operations_total",
			Help:      "Service operations by outcome.",
		}, []string{"operation", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "housingcore",
			Subsystem: "service",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"operation"}),
	}
	reg.MustRegister(r.results, r.latency)
	return r
}

// Registry returns the registry the collectors live on.
func (r *PrometheusMetricsRecorder) Registry() *prometheus.Registry { return r.registry }

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, d time.Duration) {
	if operation == "" {
		return
	}
	r.results.WithLabelValues(operation, statusOf(success)).Inc()
	r.latency.WithLabelValues(operation).Observe(d.Seconds())
}
