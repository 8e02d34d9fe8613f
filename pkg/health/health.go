// Package health exposes liveness and readiness probes over HTTP.
package health

import (
	"net/http"
	"time"
)

// NewChecker returns a checker with no probes; an empty probe set is healthy.
func NewChecker() *Checker {
	return &Checker{
		started:     time.Now(),
		liveChecks:  make(map[string]CheckFunc),
		readyChecks: make(map[string]CheckFunc),
	}
}

// RegisterLiveness adds a probe that fails only when the process must restart.
func (c *Checker) RegisterLiveness(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveChecks[name] = check
}

// RegisterReadiness adds a probe that fails while the process cannot take work.
func (c *Checker) RegisterReadiness(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readyChecks[name] = check
}

// Live runs the liveness probes.
func (c *Checker) Live() Response {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.run(c.liveChecks)
}

// Ready runs the readiness probes.
func (c *Checker) Ready() Response {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.run(c.readyChecks)
}

func (c *Checker) run(checks map[string]CheckFunc) Response {
	resp := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check, len(checks)),
		Uptime:    time.Since(c.started).Seconds(),
	}

	for name, fn := range checks {
		start := time.Now()
		check := fn()
		check.Name = name
		check.Duration = time.Since(start)
		check.LastChecked = start
		resp.Checks[name] = check

		// Worst status wins.
		switch {
		case check.Status == StatusUnhealthy:
			resp.Status = StatusUnhealthy
		case check.Status == StatusDegraded && resp.Status != StatusUnhealthy:
			resp.Status = StatusDegraded
		}
	}
	return resp
}

// Register mounts /health/live and /health/ready on mux.
func (c *Checker) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health/live", c.LivenessHandler())
	mux.HandleFunc("/health/ready", c.ReadinessHandler())
}
