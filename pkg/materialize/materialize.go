// Package materialize turns a decomposed intersection graph back into
// sub-instances of the instance it was built from.
package materialize

import (
	"slices"
	"sort"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/instance"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/intersection"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/invariant"
)

// Materialize builds one sub-instance per component of g, in component order.
//
// A non-deleted entity keeps all of its statements. A copy of a deleted entity
// keeps only the statements on its edges inside that component. Statements of a
// deleted entity that lie on no edge into any component are appended to the
// sub-instance with the fewest statements at the time, taking deleted entities
// in descending order of how many such statements they have.
//
// g is not modified, so materializing the same graph twice gives equal results.
func Materialize(parent *instance.Instance, g *intersection.Graph) ([]*instance.Instance, error) {
	comps := g.Components()
	if len(comps) == 0 {
		return nil, invariant.New("materialize").Instance(parent.ID).
			Candidate(g.DeletedIDs()).Detailf("graph has no components").Err()
	}

	subs := make([]*instance.Instance, len(comps))
	for i, c := range comps {
		subs[i] = fromComponent(parent, i, c)
	}

	for _, u := range uniqueStatements(parent, g) {
		if len(u.statements) == 0 {
			continue
		}
		target := smallest(subs)
		target.AddEntity(u.id)
		target.EntityStatements[u.id] = append(target.EntityStatements[u.id], u.statements...)
		target.AddStatements(u.statements...)
	}

	if err := checkCoverage(parent, subs); err != nil {
		return nil, invariant.Context(err, parent.ID, g.DeletedIDs())
	}
	return subs, nil
}

func fromComponent(parent *instance.Instance, index int, c *intersection.Component) *instance.Instance {
	entities := make([]int, 0, len(c.Nodes))
	es := make(map[int][]int, len(c.Nodes))
	seen := make(map[int]struct{})
	var statements []int

	for _, n := range c.Nodes {
		entities = append(entities, n.ID)

		var own []int
		if n.Deleted {
			own = instance.Dedupe(sharedWithin(n, c))
		} else {
			own = instance.Dedupe(parent.StatementsOf(n.ID))
		}
		es[n.ID] = own

		for _, s := range own {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				statements = append(statements, s)
			}
		}
	}
	return parent.Child(index, entities, statements, es)
}

// sharedWithin returns the statements on n's edges whose target is in c.
func sharedWithin(n *intersection.Node, c *intersection.Component) []int {
	var out []int
	for _, e := range n.Adj {
		if c.Contains(e.Target) {
			out = append(out, e.Statements...)
		}
	}
	return out
}

type unique struct {
	id         int
	statements []int
}

// uniqueStatements computes, for every deleted node, the statements it owns
// that lie on no edge into any component. The result is sorted by descending
// count; ties keep deletion order.
func uniqueStatements(parent *instance.Instance, g *intersection.Graph) []unique {
	deleted := g.DeletedNodes()
	out := make([]unique, 0, len(deleted))
	for _, d := range deleted {
		shared := make(map[int]struct{})
		for _, c := range g.Components() {
			for _, s := range sharedWithin(d, c) {
				shared[s] = struct{}{}
			}
		}

		var own []int
		for _, s := range instance.Dedupe(parent.StatementsOf(d.ID)) {
			if _, ok := shared[s]; !ok {
				own = append(own, s)
			}
		}
		out = append(out, unique{id: d.ID, statements: own})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].statements) > len(out[j].statements)
	})
	return out
}

// smallest returns the first sub-instance with the fewest statements.
func smallest(subs []*instance.Instance) *instance.Instance {
	best := subs[0]
	for _, s := range subs[1:] {
		if s.NumberOfStatements() < best.NumberOfStatements() {
			best = s
		}
	}
	return best
}

func checkCoverage(parent *instance.Instance, subs []*instance.Instance) error {
	covered := make(map[int]struct{}, parent.NumberOfStatements())
	for _, sub := range subs {
		for _, s := range sub.Statements {
			if !parent.HasStatement(s) {
				return invariant.New("materialize").
					Detailf("sub-instance %s invented statement %d", sub.ID, s).Err()
			}
			covered[s] = struct{}{}
		}
	}

	var missing []int
	for _, s := range parent.Statements {
		if _, ok := covered[s]; !ok {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return invariant.New("materialize").
			Detailf("statements %v are in no sub-instance", missing).Err()
	}
	return nil
}
