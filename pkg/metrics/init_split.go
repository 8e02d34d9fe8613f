package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSplitMetrics() {
	r.SplitsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "decomp_splits_total",
			Help: "Total number of instances split, by kind (search or component)",
		},
		[]string{"kind"},
	)

	r.CandidatesEvaluated = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "decomp_candidates_evaluated_total",
			Help: "Deletion sets scored by split search",
		},
	)

	r.CandidatesRejected = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "decomp_candidates_rejected_total",
			Help: "Deletion sets scored +Inf, by reason",
		},
		[]string{"reason"},
	)

	r.CandidateDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "decomp_candidate_duration_seconds",
			Help:    "Time to score one deletion set",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	r.SplitSearchDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "decomp_split_search_duration_seconds",
			Help:    "Duration of a full split search",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 10.0},
		},
	)

	r.SplitCost = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "decomp_split_cost",
			Help:    "Cost of accepted splits",
			Buckets: []float64{2, 4, 8, 16, 32, 64, 128},
		},
	)
}
