// Package split searches for a small set of entities whose deletion
// disconnects an instance's intersection graph, and turns the best such
// deletion into sub-instances.
package split

import (
	"context"
	"errors"
	"fmt"
	"math"
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
	"github.com/TomaszSorobka/CSRP-graphs/pkg/parallel"
)

// ErrNoSplit is returned when no deletion set within the budget disconnects
// the instance. It is an expected outcome, not a bookkeeping failure.
var ErrNoSplit = errors.New("no deletion set disconnects the instance")

var (
	tracerOnce  sync.Once
	splitTracer trace.Tracer
)

func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		splitTracer = otel.Tracer("github.com/TomaszSorobka/CSRP-graphs/pkg/split")
	})
	return splitTracer
}

// Result is the chosen decomposition of one instance.
type Result struct {
	Evaluation

	// SubInstances are materialized from the winning candidate, in component order.
	SubInstances []*instance.Instance
	// DeletedIDs are the winning candidate's entity ids, ascending.
	DeletedIDs []int
	// Evaluated is the number of candidates scored.
	Evaluated int
}

// Searcher scores candidates on a worker pool shared across searches.
type Searcher struct {
	opts   Options
	pool   *parallel.WorkerPool
	logger logging.Logger
}

// NewSearcher validates opts and starts a pool of opts.Workers goroutines.
func NewSearcher(opts Options) (*Searcher, error) {
	if opts.Strategy == "" {
		opts.Strategy = StrategyExhaustive
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := logging.OrNop(opts.Logger).With(logging.Component("split"))
	pool, err := parallel.NewWorkerPool(opts.Workers, parallel.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &Searcher{opts: opts, pool: pool, logger: logger}, nil
}

// Options returns the searcher's options.
func (s *Searcher) Options() Options { return s.opts }

// Close stops the worker pool.
func (s *Searcher) Close() { s.pool.Close() }

// FindSplit runs a one-off search with a temporary Searcher.
func FindSplit(ctx context.Context, inst *instance.Instance, maxDeletions int, opts Options) (*Result, error) {
	s, err := NewSearcher(opts)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.FindSplit(ctx, inst, maxDeletions)
}

// FindSplit returns the lowest-cost decomposition of inst that deletes at most
// maxDeletions entities. Ties keep the earliest candidate in Combinations
// order. It returns ErrNoSplit when every candidate leaves the graph connected.
func (s *Searcher) FindSplit(ctx context.Context, inst *instance.Instance, maxDeletions int) (*Result, error) {
	ctx, span := getTracer().Start(ctx, "split.FindSplit",
		trace.WithAttributes(
			attribute.String("instance.id", inst.ID),
			attribute.Int("entities", inst.NumberOfEntities()),
			attribute.Int("max_deletions", maxDeletions),
			attribute.String("strategy", s.opts.Strategy),
		),
	)
	defer span.End()

	start := time.Now()
	timer := logging.StartTimer(s.logger, "split search",
		logging.InstanceID(inst.ID),
		logging.Entities(inst.NumberOfEntities()),
		logging.Int("max_deletions", maxDeletions))

	base := intersection.Build(inst)

	var (
		res *Result
		err error
	)
	if s.opts.Strategy == StrategyGreedy {
		res, err = s.greedy(ctx, base, inst)
	} else {
		res, err = s.exhaustive(ctx, base, inst, maxDeletions)
	}
	s.opts.Metrics.RecordSplitSearch(time.Since(start))

	switch {
	case errors.Is(err, ErrNoSplit):
		span.SetAttributes(attribute.Bool("disconnected", false))
		span.SetStatus(codes.Ok, "no split")
		timer.End(logging.Bool("disconnected", false))
		return nil, err
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "split search failed")
		timer.EndError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("disconnected", true),
		attribute.IntSlice("deleted", res.DeletedIDs),
		attribute.Int("components", res.Components),
		attribute.Float64("cost", res.Cost),
		attribute.Int("evaluated", res.Evaluated),
	)
	span.SetStatus(codes.Ok, "split found")
	timer.End(
		logging.Candidate(res.DeletedIDs),
		logging.Cost(res.Cost),
		logging.Components(res.Components),
		logging.Count(res.Evaluated))
	return res, nil
}

func (s *Searcher) exhaustive(ctx context.Context, base *intersection.Graph, inst *instance.Instance, maxDeletions int) (*Result, error) {
	cands := Combinations(inst.NumberOfEntities(), maxDeletions)
	evals := make([]Evaluation, len(cands))

	err := s.pool.ForEach(ctx, len(cands), func(i int) error {
		t0 := time.Now()
		ev, err := Evaluate(base, inst, idsAt(inst, cands[i]), s.opts)
		if err != nil {
			return err
		}
		evals[i] = ev
		s.opts.Metrics.RecordCandidate(time.Since(t0), ev.Reason)
		return nil
	})
	if err != nil {
		return nil, err
	}

	best := -1
	bestCost := math.Inf(1)
	for i := range evals {
		if evals[i].Cost < bestCost {
			best, bestCost = i, evals[i].Cost
		}
	}
	if best < 0 {
		return nil, fmt.Errorf("instance %s, %d candidates up to %d deletions: %w",
			inst.ID, len(cands), maxDeletions, ErrNoSplit)
	}

	return s.finish(base, inst, evals[best].Candidate, len(cands))
}

// greedy deletes the entity with the most surviving neighbours, first in
// entity order on ties, until the graph falls apart. It is not bounded by a
// deletion budget but gives up once a single entity remains.
func (s *Searcher) greedy(ctx context.Context, base *intersection.Graph, inst *instance.Instance) (*Result, error) {
	g := base.Clone()
	var deleted []int
	for g.ComponentCount() == 1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, degree := highestDegree(g)
		if degree == 0 {
			break
		}
		if err := g.Split([]int{id}); err != nil {
			return nil, err
		}
		deleted = append(deleted, id)
	}
	if g.ComponentCount() < 2 {
		return nil, fmt.Errorf("instance %s, greedy after %d deletions: %w", inst.ID, len(deleted), ErrNoSplit)
	}
	return s.finish(base, inst, deleted, len(deleted))
}

func highestDegree(g *intersection.Graph) (id, degree int) {
	id, degree = -1, -1
	for i := 0; i < g.NodeCount(); i++ {
		n := g.NodeAt(i)
		if n.Deleted {
			continue
		}
		d := 0
		for _, e := range n.Adj {
			if !g.Node(e.Target).Deleted {
				d++
			}
		}
		if d > degree {
			id, degree = n.ID, d
		}
	}
	return id, degree
}

// finish rebuilds the winning candidate to produce its sub-instances.
func (s *Searcher) finish(base *intersection.Graph, inst *instance.Instance, candidate []int, evaluated int) (*Result, error) {
	ev, subs, err := evaluate(base, inst, candidate, s.opts)
	if err != nil {
		return nil, err
	}
	if !ev.Feasible() {
		return nil, fmt.Errorf("instance %s: %w", inst.ID, ErrNoSplit)
	}
	deleted := slices.Clone(candidate)
	slices.Sort(deleted)
	return &Result{
		Evaluation:   ev,
		SubInstances: subs,
		DeletedIDs:   deleted,
		Evaluated:    evaluated,
	}, nil
}

func idsAt(inst *instance.Instance, indices []int) []int {
	ids := make([]int, len(indices))
	for i, idx := range indices {
		ids[i] = inst.Entities[idx]
	}
	return ids
}
