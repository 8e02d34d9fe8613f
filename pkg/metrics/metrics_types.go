package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the decomposition engine
type Registry struct {
	// Driver Metrics
	SolveAttemptsTotal  *prometheus.CounterVec
	SolveDuration       prometheus.Histogram
	QueueDepth          prometheus.Gauge
	IterationsTotal     prometheus.Counter
	EscalationsTotal    prometheus.Counter
	UnsolvableTotal     prometheus.Counter
	DeletedEntities     prometheus.Counter
	SubInstanceEntities prometheus.Histogram

	// Split Metrics
	SplitsTotal         *prometheus.CounterVec
	CandidatesEvaluated prometheus.Counter
	CandidatesRejected  *prometheus.CounterVec
	CandidateDuration   prometheus.Histogram
	SplitSearchDuration prometheus.Histogram
	SplitCost           prometheus.Histogram

	// Optimizer Transport Metrics
	RemoteRequestsTotal   *prometheus.CounterVec
	RemoteRequestDuration prometheus.Histogram
	RemoteFrameBytes      *prometheus.HistogramVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
	started  time.Time
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		started:  time.Now(),
	}

	r.initDriverMetrics()
	r.initSplitMetrics()
	r.initRemoteMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
