package split

import (
	"errors"
	"math"
	"runtime"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/instance"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/intersection"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/invariant"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/logging"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/materialize"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/metrics"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/validation"
)

// Search strategies.
const (
	StrategyExhaustive = "exhaustive"
	StrategyGreedy     = "greedy"
)

// ErrInvalidOptions is returned for options that cannot drive a search.
var ErrInvalidOptions = errors.New("invalid split options")

// Options configures split search and scoring.
type Options struct {
	// Alpha bounds component sizes to [ceil(alpha*n), floor((1-alpha)*n)].
	Alpha float64
	// PenaltyWeight is added once per component above the maximum size.
	PenaltyWeight float64
	// RepetitionWeight scales the share of a sub-instance's statements that
	// also appear in another sub-instance.
	RepetitionWeight float64
	Workers          int
	Strategy         string

	Logger  logging.Logger
	Metrics *metrics.Registry
}

// DefaultOptions returns alpha 1/3, penalty 10, repetition weight 20 and one
// worker per CPU.
func DefaultOptions() Options {
	return Options{
		Alpha:            1.0 / 3,
		PenaltyWeight:    10,
		RepetitionWeight: 20,
		Workers:          runtime.GOMAXPROCS(0),
		Strategy:         StrategyExhaustive,
	}
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	err := validation.NewConfigValidator("split").
		OpenRangeFloat("alpha", o.Alpha, 0, 0.5).
		NonNegativeFloat("penalty_weight", o.PenaltyWeight).
		NonNegativeFloat("repetition_weight", o.RepetitionWeight).
		OneOf("strategy", o.Strategy, []string{StrategyExhaustive, StrategyGreedy}).
		Validate()
	if err != nil {
		return errors.Join(ErrInvalidOptions, err)
	}
	return nil
}

// Evaluation is the score of one deletion set. Reason is set when the
// candidate did not disconnect the graph and Cost is +Inf.
type Evaluation struct {
	Candidate  []int
	Cost       float64
	Components int
	Deleted    int
	Copies     int
	Oversized  int
	Repetition float64
	Reason     string
}

// Feasible reports whether the candidate disconnected the graph.
func (e Evaluation) Feasible() bool { return !math.IsInf(e.Cost, 1) }

// Evaluate scores candidate, a list of entity ids, against a clone of base.
// base must be the graph of parent and is not modified.
func Evaluate(base *intersection.Graph, parent *instance.Instance, candidate []int, opts Options) (Evaluation, error) {
	ev, _, err := evaluate(base, parent, candidate, opts)
	return ev, err
}

func evaluate(base *intersection.Graph, parent *instance.Instance, candidate []int, opts Options) (Evaluation, []*instance.Instance, error) {
	ev := Evaluation{Candidate: candidate, Cost: math.Inf(1)}

	g := base.Clone()
	if err := g.Split(candidate); err != nil {
		return ev, nil, invariant.New("split").Instance(parent.ID).Candidate(candidate).Cause(err).Err()
	}
	switch g.ComponentCount() {
	case 0:
		ev.Reason = metrics.RejectEmpty
		return ev, nil, nil
	case 1:
		ev.Reason = metrics.RejectConnected
		return ev, nil, nil
	}

	g.Merge(opts.Alpha)
	if g.ComponentCount() < 2 {
		return ev, nil, invariant.New("merge").Instance(parent.ID).Candidate(candidate).
			Detailf("merge left %d components", g.ComponentCount()).Err()
	}
	g.AddDeletedNodes()
	if err := g.CheckLocalEdges(); err != nil {
		return ev, nil, invariant.Context(err, parent.ID, candidate)
	}

	subs, err := materialize.Materialize(parent, g)
	if err != nil {
		return ev, nil, err
	}

	maxAllowed := g.MaxAllowed(opts.Alpha)
	ev.Components = g.ComponentCount()
	ev.Deleted = len(g.DeletedNodes())
	ev.Copies = len(g.DeletedCopies())
	for _, c := range g.Components() {
		if c.Size() > maxAllowed {
			ev.Oversized++
		}
	}
	for i, repeated := range RepeatedStatementCounts(subs) {
		if n := subs[i].NumberOfStatements(); n > 0 {
			ev.Repetition += opts.RepetitionWeight * float64(repeated) / float64(n)
		}
	}

	ev.Cost = float64(ev.Components+ev.Deleted+ev.Copies) +
		opts.PenaltyWeight*float64(ev.Oversized) +
		ev.Repetition
	return ev, subs, nil
}

// RepeatedStatementCounts returns, for each sub-instance, how many of its
// statements also appear in another sub-instance.
func RepeatedStatementCounts(subs []*instance.Instance) []int {
	holders := make(map[int]int)
	for _, sub := range subs {
		for _, s := range sub.Statements {
			holders[s]++
		}
	}

	out := make([]int, len(subs))
	for i, sub := range subs {
		for _, s := range sub.Statements {
			if holders[s] > 1 {
				out[i]++
			}
		}
	}
	return out
}
