package driver

import (
	"time"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/logging"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/metrics"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/split"
)

// Default driver limits.
const (
	DefaultMaxDeletions    = 3
	DefaultMaxIterations   = 10000
	DefaultEscalationLimit = 2
)

// Option configures a Driver.
type Option func(*Driver)

// WithMaxDeletions sets the initial deletion budget per split search.
func WithMaxDeletions(n int) Option {
	return func(d *Driver) { d.maxDeletions = n }
}

// WithAlpha sets the component balance ratio, overriding the search options.
func WithAlpha(alpha float64) Option {
	return func(d *Driver) { d.alpha = &alpha }
}

// WithSearchOptions replaces the split search options.
func WithSearchOptions(opts split.Options) Option {
	return func(d *Driver) { d.search = opts }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

// WithMetrics records driver and search metrics on r.
func WithMetrics(r *metrics.Registry) Option {
	return func(d *Driver) { d.metrics = r }
}

// WithMaxIterations caps the number of dequeued instances per run.
func WithMaxIterations(n int) Option {
	return func(d *Driver) { d.maxIterations = n }
}

// WithEscalationLimit sets how many times the deletion budget may grow by one
// for an instance no candidate disconnects.
func WithEscalationLimit(n int) Option {
	return func(d *Driver) { d.escalationLimit = n }
}

// WithSolveTimeout bounds each optimizer call. A call that runs out of time
// counts as no solution.
func WithSolveTimeout(timeout time.Duration) Option {
	return func(d *Driver) { d.solveTimeout = timeout }
}
