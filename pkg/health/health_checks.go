package health

import "runtime"

// ServingCheck reports whether an optimizer endpoint is accepting requests.
func ServingCheck(serving func() bool) CheckFunc {
	return func() Check {
		if serving() {
			return Check{Status: StatusHealthy, Message: "accepting solve requests"}
		}
		return Check{Status: StatusUnhealthy, Message: "optimizer socket not serving"}
	}
}

// MemoryCheck degrades when the heap holds more than limit bytes. A zero
// limit only reports usage.
func MemoryCheck(limit uint64) CheckFunc {
	return func() Check {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		check := Check{
			Status: StatusHealthy,
			Details: map[string]any{
				"alloc_bytes": m.Alloc,
				"sys_bytes":   m.Sys,
				"goroutines":  runtime.NumGoroutine(),
			},
		}
		if limit > 0 && m.Alloc > limit {
			check.Status = StatusDegraded
			check.Message = "heap above limit"
		}
		return check
	}
}
