package metrics

import (
	"math"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Solve outcomes.
const (
	OutcomeSolved = "solved"
	OutcomeNone   = "none"
	OutcomeError  = "error"
)

// Split kinds.
const (
	SplitSearch     = "search"
	SplitComponents = "components"
)

// Candidate rejection reasons.
const (
	RejectConnected = "connected"
	RejectEmpty     = "empty"
)

// RecordSolve records one optimizer call. A nil registry records nothing, as
// do all other Record methods.
func (r *Registry) RecordSolve(outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	r.SolveAttemptsTotal.WithLabelValues(outcome).Inc()
	r.SolveDuration.Observe(duration.Seconds())
}

// SetQueueDepth sets the number of queued instances
func (r *Registry) SetQueueDepth(n int) {
	if r == nil {
		return
	}
	r.QueueDepth.Set(float64(n))
}

// RecordIteration counts one dequeued instance
func (r *Registry) RecordIteration() {
	if r == nil {
		return
	}
	r.IterationsTotal.Inc()
}

// RecordEscalation counts one retry with a larger deletion budget
func (r *Registry) RecordEscalation() {
	if r == nil {
		return
	}
	r.EscalationsTotal.Inc()
}

// RecordUnsolvable counts an instance given up on
func (r *Registry) RecordUnsolvable() {
	if r == nil {
		return
	}
	r.UnsolvableTotal.Inc()
}

// RecordSplit records an accepted split and the entity counts of the
// sub-instances it produced. Non-finite costs are not observed.
func (r *Registry) RecordSplit(kind string, deleted int, cost float64, subEntities []int) {
	if r == nil {
		return
	}
	r.SplitsTotal.WithLabelValues(kind).Inc()
	r.DeletedEntities.Add(float64(deleted))
	if !math.IsInf(cost, 0) && !math.IsNaN(cost) {
		r.SplitCost.Observe(cost)
	}
	for _, n := range subEntities {
		r.SubInstanceEntities.Observe(float64(n))
	}
}

// RecordCandidate records one scored deletion set. reason is empty for
// candidates with a finite cost.
func (r *Registry) RecordCandidate(duration time.Duration, reason string) {
	if r == nil {
		return
	}
	r.CandidatesEvaluated.Inc()
	r.CandidateDuration.Observe(duration.Seconds())
	if reason != "" {
		r.CandidatesRejected.WithLabelValues(reason).Inc()
	}
}

// RecordSplitSearch records the duration of a full split search
func (r *Registry) RecordSplitSearch(duration time.Duration) {
	if r == nil {
		return
	}
	r.SplitSearchDuration.Observe(duration.Seconds())
}

// RecordRemoteRequest records one request on the optimizer transport. side is
// "client" or "server"; sent and received are compressed frame sizes.
func (r *Registry) RecordRemoteRequest(side, status string, duration time.Duration, sent, received int) {
	if r == nil {
		return
	}
	r.RemoteRequestsTotal.WithLabelValues(side, status).Inc()
	r.RemoteRequestDuration.Observe(duration.Seconds())
	if sent > 0 {
		r.RemoteFrameBytes.WithLabelValues("sent").Observe(float64(sent))
	}
	if received > 0 {
		r.RemoteFrameBytes.WithLabelValues("received").Observe(float64(received))
	}
}

// UpdateSystemMetrics refreshes uptime, goroutine and heap gauges
func (r *Registry) UpdateSystemMetrics() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	r.UptimeSeconds.Set(time.Since(r.started).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(ms.Alloc))
}

// Handler serves the registry in the Prometheus exposition format. System
// gauges are refreshed on every scrape.
func (r *Registry) Handler() http.Handler {
	h := promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.UpdateSystemMetrics()
		h.ServeHTTP(w, req)
	})
}
