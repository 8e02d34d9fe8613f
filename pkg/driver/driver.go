// Package driver runs the solve-or-split loop: each queued instance is either
// solved by the optimizer or decomposed into sub-instances that are queued in
// its place.
package driver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/instance"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/intersection"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/logging"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/materialize"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/metrics"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/solver"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/split"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/validation"
)

var (
	tracerOnce   sync.Once
	driverTracer trace.Tracer
)

func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		driverTracer = otel.Tracer("github.com/TomaszSorobka/CSRP-graphs/pkg/driver")
	})
	return driverTracer
}

// Driver decomposes instances until every piece is solved.
type Driver struct {
	optimizer       solver.Optimizer
	maxDeletions    int
	alpha           *float64
	search          split.Options
	logger          logging.Logger
	metrics         *metrics.Registry
	maxIterations   int
	escalationLimit int
	solveTimeout    time.Duration
}

// Result is the outcome of a run.
type Result struct {
	// Solutions in the order their instances were solved.
	Solutions []*solver.Solution
	// DeletedEntities is every entity id removed by an accepted split, ascending.
	DeletedEntities []int
	// Unsolvable holds instances the optimizer rejected and no split could
	// disconnect.
	Unsolvable []*instance.Instance
	// Iterations is the number of dequeued instances.
	Iterations int
	// Splits is the number of instances replaced by sub-instances.
	Splits int
}

// New returns a driver for optimizer.
func New(optimizer solver.Optimizer, opts ...Option) (*Driver, error) {
	d := &Driver{
		optimizer:       optimizer,
		maxDeletions:    DefaultMaxDeletions,
		search:          split.DefaultOptions(),
		maxIterations:   DefaultMaxIterations,
		escalationLimit: DefaultEscalationLimit,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.logger = logging.OrNop(d.logger).With(logging.Component("driver"))
	if d.alpha != nil {
		d.search.Alpha = *d.alpha
	}
	if d.search.Strategy == "" {
		d.search.Strategy = split.StrategyExhaustive
	}
	if d.search.Workers <= 0 {
		d.search.Workers = runtime.GOMAXPROCS(0)
	}
	if d.search.Logger == nil {
		d.search.Logger = d.logger
	}
	if d.search.Metrics == nil {
		d.search.Metrics = d.metrics
	}

	err := validation.NewConfigValidator("driver").
		Custom("optimizer", func() error {
			if optimizer == nil {
				return errors.New("optimizer is required")
			}
			return nil
		}).
		Positive("max_deletions", d.maxDeletions).
		Positive("max_iterations", d.maxIterations).
		NonNegative("escalation_limit", d.escalationLimit).
		NonNegativeDuration("solve_timeout", d.solveTimeout).
		Validate()
	if err != nil {
		return nil, err
	}
	if err := d.search.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// SolveWithSplits runs a driver built from opts on root.
func SolveWithSplits(ctx context.Context, root *instance.Instance, optimizer solver.Optimizer, opts ...Option) (*Result, error) {
	d, err := New(optimizer, opts...)
	if err != nil {
		return nil, err
	}
	return d.Run(ctx, root)
}

// Run drains a FIFO queue seeded with root. Each instance is offered to the
// optimizer first. An unsolved instance already split into several
// components is replaced by them without a split search; otherwise the best
// split found replaces it.
//
// Instances that cannot be decomposed are kept in Result.Unsolvable and the
// queue keeps draining; Run then returns the result with an
// *IndivisibleError. Bookkeeping failures abort the run with a nil result.
func (d *Driver) Run(ctx context.Context, root *instance.Instance) (*Result, error) {
	if err := root.Validate(); err != nil {
		return nil, err
	}

	ctx, span := getTracer().Start(ctx, "driver.Run",
		trace.WithAttributes(
			attribute.String("instance.id", root.ID),
			attribute.Int("entities", root.NumberOfEntities()),
			attribute.Int("statements", root.NumberOfStatements()),
		),
	)
	defer span.End()

	timer := logging.StartTimer(d.logger, "decomposition run",
		logging.InstanceID(root.ID),
		logging.Entities(root.NumberOfEntities()),
		logging.Statements(root.NumberOfStatements()))

	searcher, err := split.NewSearcher(d.search)
	if err != nil {
		return nil, err
	}
	defer searcher.Close()

	res, err := d.drain(ctx, searcher, root)
	if res != nil {
		span.SetAttributes(
			attribute.Int("solutions", len(res.Solutions)),
			attribute.Int("splits", res.Splits),
			attribute.Int("iterations", res.Iterations),
			attribute.Int("unsolvable", len(res.Unsolvable)),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decomposition incomplete")
		timer.EndError(err)
		return res, err
	}
	span.SetStatus(codes.Ok, "decomposed")
	timer.End(
		logging.Int("solutions", len(res.Solutions)),
		logging.Int("splits", res.Splits),
		logging.Int("iterations", res.Iterations))
	return res, nil
}

func (d *Driver) drain(ctx context.Context, searcher *split.Searcher, root *instance.Instance) (*Result, error) {
	res := &Result{}
	deleted := make(map[int]struct{})
	queue := []*instance.Instance{root}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res.Iterations >= d.maxIterations {
			res.DeletedEntities = sortedKeys(deleted)
			return res, fmt.Errorf("%w: %d instances still queued after %d iterations",
				ErrIterationLimit, len(queue), res.Iterations)
		}

		inst := queue[0]
		queue[0] = nil
		queue = queue[1:]
		res.Iterations++
		d.metrics.RecordIteration()

		subs, err := d.step(ctx, searcher, inst, res, deleted)
		if err != nil {
			return nil, err
		}
		queue = append(queue, subs...)
		d.metrics.SetQueueDepth(len(queue))
	}

	res.DeletedEntities = sortedKeys(deleted)
	if len(res.Unsolvable) > 0 {
		ids := make([]string, len(res.Unsolvable))
		for i, inst := range res.Unsolvable {
			ids[i] = inst.ID
		}
		limit := d.maxDeletions + d.escalationLimit
		if d.search.Strategy == split.StrategyGreedy {
			limit = d.maxDeletions
		}
		return res, &IndivisibleError{InstanceIDs: ids, MaxDeletions: limit}
	}
	return res, nil
}

// step handles one dequeued instance and returns the sub-instances to queue.
func (d *Driver) step(ctx context.Context, searcher *split.Searcher, inst *instance.Instance, res *Result, deleted map[int]struct{}) ([]*instance.Instance, error) {
	ctx, span := getTracer().Start(ctx, "driver.step",
		trace.WithAttributes(
			attribute.String("instance.id", inst.ID),
			attribute.Int("entities", inst.NumberOfEntities()),
		),
	)
	defer span.End()
	log := d.logger.With(logging.InstanceID(inst.ID))

	sol, err := d.solve(ctx, inst)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "solve failed")
		return nil, err
	}
	if sol != nil {
		res.Solutions = append(res.Solutions, sol)
		span.SetAttributes(attribute.String("outcome", "solved"))
		return nil, nil
	}

	if g := intersection.Build(inst); g.ComponentCount() > 1 {
		subs, err := materialize.Materialize(inst, g)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		res.Splits++
		d.metrics.RecordSplit(metrics.SplitComponents, 0, math.NaN(), entityCounts(subs))
		span.SetAttributes(attribute.String("outcome", "components"))
		log.Debug("unsolved instance already disconnected",
			logging.Components(len(subs)))
		return subs, nil
	}

	found, err := d.split(ctx, searcher, inst)
	switch {
	case errors.Is(err, split.ErrNoSplit):
		res.Unsolvable = append(res.Unsolvable, inst)
		d.metrics.RecordUnsolvable()
		span.SetAttributes(attribute.String("outcome", "unsolvable"))
		log.Warn("instance cannot be decomposed",
			logging.Entities(inst.NumberOfEntities()),
			logging.Statements(inst.NumberOfStatements()))
		return nil, nil
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "split failed")
		return nil, err
	}

	for _, id := range found.DeletedIDs {
		deleted[id] = struct{}{}
	}
	res.Splits++
	d.metrics.RecordSplit(metrics.SplitSearch, len(found.DeletedIDs), found.Cost, entityCounts(found.SubInstances))
	span.SetAttributes(
		attribute.String("outcome", "split"),
		attribute.IntSlice("deleted", found.DeletedIDs),
	)
	log.Info("instance split",
		logging.Candidate(found.DeletedIDs),
		logging.Cost(found.Cost),
		logging.Components(len(found.SubInstances)))
	return found.SubInstances, nil
}

// solve calls the optimizer once. A per-call timeout counts as no solution;
// any other error aborts the run.
func (d *Driver) solve(ctx context.Context, inst *instance.Instance) (*solver.Solution, error) {
	callCtx := ctx
	if d.solveTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.solveTimeout)
		defer cancel()
	}

	start := time.Now()
	sol, err := d.optimizer.Solve(callCtx, inst)
	elapsed := time.Since(start)

	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		d.metrics.RecordSolve(metrics.OutcomeNone, elapsed)
		d.logger.Warn("optimizer timed out",
			logging.InstanceID(inst.ID),
			logging.Latency(elapsed))
		return nil, nil
	case err != nil:
		d.metrics.RecordSolve(metrics.OutcomeError, elapsed)
		return nil, fmt.Errorf("solve instance %s: %w", inst.ID, err)
	case sol == nil:
		d.metrics.RecordSolve(metrics.OutcomeNone, elapsed)
		return nil, nil
	}
	d.metrics.RecordSolve(metrics.OutcomeSolved, elapsed)
	return sol, nil
}

// split searches with the configured budget, growing it by one per retry up
// to the escalation limit and never past entities-1.
func (d *Driver) split(ctx context.Context, searcher *split.Searcher, inst *instance.Instance) (*split.Result, error) {
	limit := min(d.maxDeletions+d.escalationLimit, inst.NumberOfEntities()-1)
	if limit < 1 {
		return nil, fmt.Errorf("instance %s has %d entities: %w", inst.ID, inst.NumberOfEntities(), split.ErrNoSplit)
	}

	budget := min(d.maxDeletions, limit)
	for {
		found, err := searcher.FindSplit(ctx, inst, budget)
		if !errors.Is(err, split.ErrNoSplit) {
			return found, err
		}
		if budget >= limit || d.search.Strategy == split.StrategyGreedy {
			return nil, err
		}
		budget++
		d.metrics.RecordEscalation()
		d.logger.Info("escalating deletion budget",
			logging.InstanceID(inst.ID),
			logging.Int("max_deletions", budget))
	}
}

func entityCounts(subs []*instance.Instance) []int {
	out := make([]int, len(subs))
	for i, s := range subs {
		out[i] = s.NumberOfEntities()
	}
	return out
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
