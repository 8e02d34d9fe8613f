package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initDriverMetrics() {
	r.SolveAttemptsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "decomp_solve_attempts_total",
			Help: "Total number of optimizer calls by outcome",
		},
		[]string{"outcome"},
	)

	r.SolveDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "decomp_solve_duration_seconds",
			Help:    "Optimizer call duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
	)

	r.QueueDepth = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "decomp_queue_depth",
			Help: "Instances waiting in the decomposition queue",
		},
	)

	r.IterationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "decomp_iterations_total",
			Help: "Total number of instances dequeued",
		},
	)

	r.EscalationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "decomp_escalations_total",
			Help: "Split searches retried with a larger deletion budget",
		},
	)

	r.UnsolvableTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "decomp_unsolvable_total",
			Help: "Instances that could neither be solved nor split",
		},
	)

	r.DeletedEntities = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "decomp_deleted_entities_total",
			Help: "Entities removed by accepted splits",
		},
	)

	r.SubInstanceEntities = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "decomp_subinstance_entities",
			Help:    "Entity count of produced sub-instances",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
		},
	)
}
