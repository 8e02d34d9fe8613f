package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRemoteMetrics() {
	r.RemoteRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "decomp_remote_requests_total",
			Help: "Remote optimizer requests by side and status",
		},
		[]string{"side", "status"},
	)

	r.RemoteRequestDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "decomp_remote_request_duration_seconds",
			Help:    "Round trip time of remote optimizer requests",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
	)

	r.RemoteFrameBytes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "decomp_remote_frame_bytes",
			Help:    "Compressed frame size on the optimizer transport",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
		[]string{"direction"},
	)
}
