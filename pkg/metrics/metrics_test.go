package metrics

import (
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func histogramOf(t *testing.T, h prometheus.Observer) *dto.Histogram {
	t.Helper()
	var metric dto.Metric
	if err := h.(prometheus.Metric).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Histogram
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.SolveAttemptsTotal == nil {
		t.Error("SolveAttemptsTotal not initialized")
	}
	if r.SplitsTotal == nil {
		t.Error("SplitsTotal not initialized")
	}
	if r.RemoteRequestsTotal == nil {
		t.Error("RemoteRequestsTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordSolve(t *testing.T) {
	r := NewRegistry()

	r.RecordSolve(OutcomeSolved, 10*time.Millisecond)
	r.RecordSolve(OutcomeNone, 20*time.Millisecond)
	r.RecordSolve(OutcomeNone, 30*time.Millisecond)

	counter, err := r.SolveAttemptsTotal.GetMetricWithLabelValues(OutcomeNone)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("none counter = %v, want 2", metric.Counter.GetValue())
	}

	h := histogramOf(t, r.SolveDuration)
	if h.GetSampleCount() != 3 {
		t.Errorf("Sample count = %v, want 3", h.GetSampleCount())
	}
	if sum := h.GetSampleSum(); sum < 0.059 || sum > 0.061 {
		t.Errorf("Sample sum = %v, want ~0.06", sum)
	}
}

func TestRecordSplit(t *testing.T) {
	r := NewRegistry()

	r.RecordSplit(SplitSearch, 2, 9, []int{3, 4})
	r.RecordSplit(SplitComponents, 0, math.NaN(), []int{1, 1, 2})

	if got := testutil.ToFloat64(r.SplitsTotal.WithLabelValues(SplitSearch)); got != 1 {
		t.Errorf("search splits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.SplitsTotal.WithLabelValues(SplitComponents)); got != 1 {
		t.Errorf("component splits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.DeletedEntities); got != 2 {
		t.Errorf("deleted entities = %v, want 2", got)
	}
	if got := histogramOf(t, r.SplitCost).GetSampleCount(); got != 1 {
		t.Errorf("cost samples = %v, want 1 (NaN is skipped)", got)
	}
	if got := histogramOf(t, r.SubInstanceEntities).GetSampleCount(); got != 5 {
		t.Errorf("sub-instance samples = %v, want 5", got)
	}
}

func TestRecordCandidate(t *testing.T) {
	r := NewRegistry()

	r.RecordCandidate(time.Millisecond, "")
	r.RecordCandidate(time.Millisecond, RejectConnected)
	r.RecordCandidate(time.Millisecond, RejectConnected)
	r.RecordCandidate(time.Millisecond, RejectEmpty)

	if got := testutil.ToFloat64(r.CandidatesEvaluated); got != 4 {
		t.Errorf("evaluated = %v, want 4", got)
	}
	if got := testutil.ToFloat64(r.CandidatesRejected.WithLabelValues(RejectConnected)); got != 2 {
		t.Errorf("rejected connected = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(r.CandidatesRejected); got != 2 {
		t.Errorf("rejection series = %d, want 2", got)
	}
}

func TestDriverGauges(t *testing.T) {
	r := NewRegistry()

	r.SetQueueDepth(7)
	r.RecordIteration()
	r.RecordIteration()
	r.RecordEscalation()
	r.RecordUnsolvable()

	tests := []struct {
		name   string
		metric prometheus.Collector
		want   float64
	}{
		{"queue depth", r.QueueDepth, 7},
		{"iterations", r.IterationsTotal, 2},
		{"escalations", r.EscalationsTotal, 1},
		{"unsolvable", r.UnsolvableTotal, 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.metric); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRecordRemoteRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordRemoteRequest("client", "ok", 5*time.Millisecond, 120, 80)
	r.RecordRemoteRequest("client", "error", 5*time.Millisecond, 120, 0)

	if got := testutil.ToFloat64(r.RemoteRequestsTotal.WithLabelValues("client", "ok")); got != 1 {
		t.Errorf("ok requests = %v, want 1", got)
	}
	sent, err := r.RemoteFrameBytes.GetMetricWithLabelValues("sent")
	if err != nil {
		t.Fatal(err)
	}
	if got := histogramOf(t, sent).GetSampleCount(); got != 2 {
		t.Errorf("sent frames = %v, want 2", got)
	}
	received, err := r.RemoteFrameBytes.GetMetricWithLabelValues("received")
	if err != nil {
		t.Fatal(err)
	}
	if got := histogramOf(t, received).GetSampleCount(); got != 1 {
		t.Errorf("received frames = %v, want 1", got)
	}
}

func TestNilRegistryIsSafe(t *testing.T) {
	var r *Registry
	r.RecordSolve(OutcomeSolved, time.Second)
	r.RecordSplit(SplitSearch, 1, 3, []int{1})
	r.RecordCandidate(time.Second, RejectEmpty)
	r.SetQueueDepth(1)
	r.RecordIteration()
	r.RecordEscalation()
	r.RecordUnsolvable()
	r.RecordSplitSearch(time.Second)
	r.RecordRemoteRequest("server", "ok", time.Second, 1, 1)
	r.UpdateSystemMetrics()
}

func TestSystemMetrics(t *testing.T) {
	r := NewRegistry()
	r.UpdateSystemMetrics()

	if got := testutil.ToFloat64(r.GoRoutines); got < 1 {
		t.Errorf("goroutines = %v, want >= 1", got)
	}
	if got := testutil.ToFloat64(r.MemoryAllocBytes); got <= 0 {
		t.Errorf("memory alloc = %v, want > 0", got)
	}
}

func TestGetPrometheusRegistry(t *testing.T) {
	r := NewRegistry()
	promRegistry := r.GetPrometheusRegistry()

	if promRegistry == nil {
		t.Fatal("GetPrometheusRegistry() returned nil")
	}

	metrics, err := promRegistry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	expectedMetrics := []string{
		"decomp_queue_depth",
		"decomp_iterations_total",
		"decomp_uptime_seconds",
	}

	metricNames := make(map[string]bool)
	for _, m := range metrics {
		metricNames[m.GetName()] = true
	}

	for _, expected := range expectedMetrics {
		if !metricNames[expected] {
			t.Errorf("Expected metric %s not found", expected)
		}
	}
}

func TestHandlerServesExposition(t *testing.T) {
	r := NewRegistry()
	r.RecordSolve(OutcomeSolved, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`decomp_solve_attempts_total{outcome="solved"} 1`,
		"decomp_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.RecordCandidate(time.Microsecond, "")
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	if got := testutil.ToFloat64(r.CandidatesEvaluated); got != 1000 {
		t.Errorf("Counter = %v, want 1000", got)
	}
}
