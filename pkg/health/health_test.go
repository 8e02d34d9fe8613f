package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestEmptyCheckerIsHealthy(t *testing.T) {
	c := NewChecker()
	if got := c.Live().Status; got != StatusHealthy {
		t.Errorf("Live().Status = %q, want healthy", got)
	}
	if got := c.Ready().Status; got != StatusHealthy {
		t.Errorf("Ready().Status = %q, want healthy", got)
	}
}

func TestWorstStatusWins(t *testing.T) {
	c := NewChecker()
	c.RegisterReadiness("ok", func() Check { return Check{Status: StatusHealthy} })
	c.RegisterReadiness("slow", func() Check { return Check{Status: StatusDegraded} })

	resp := c.Ready()
	if resp.Status != StatusDegraded {
		t.Fatalf("Status = %q, want degraded", resp.Status)
	}
	if resp.Checks["slow"].Name != "slow" {
		t.Errorf("check name not filled in: %+v", resp.Checks["slow"])
	}

	c.RegisterReadiness("down", func() Check { return Check{Status: StatusUnhealthy} })
	if got := c.Ready().Status; got != StatusUnhealthy {
		t.Errorf("Status = %q, want unhealthy", got)
	}
	if got := c.Live().Status; got != StatusHealthy {
		t.Errorf("readiness probes must not affect liveness, got %q", got)
	}
}

func TestHandlers(t *testing.T) {
	var serving atomic.Bool
	c := NewChecker()
	c.RegisterReadiness("optimizer", ServingCheck(serving.Load))
	c.RegisterLiveness("memory", MemoryCheck(0))

	mux := http.NewServeMux()
	c.Register(mux)

	get := func(path string) (int, Response) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		var resp Response
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
		return rec.Code, resp
	}

	if code, _ := get("/health/ready"); code != http.StatusServiceUnavailable {
		t.Errorf("ready before serving = %d, want 503", code)
	}
	serving.Store(true)
	if code, _ := get("/health/ready"); code != http.StatusOK {
		t.Errorf("ready while serving = %d, want 200", code)
	}

	code, resp := get("/health/live")
	if code != http.StatusOK {
		t.Errorf("live = %d, want 200", code)
	}
	if _, ok := resp.Checks["memory"].Details["goroutines"]; !ok {
		t.Errorf("memory check details missing goroutines: %+v", resp.Checks["memory"])
	}
}

func TestMemoryCheckLimit(t *testing.T) {
	if got := MemoryCheck(1)().Status; got != StatusDegraded {
		t.Errorf("Status = %q, want degraded with a 1 byte limit", got)
	}
}
