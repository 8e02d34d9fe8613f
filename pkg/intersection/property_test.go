package intersection

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/instance"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/instance/instancetest"
)

// splitRandom builds a random instance and applies a random deletion set.
func splitRandom(seed int64) (*instance.Instance, *Graph, bool) {
	r := rand.New(rand.NewSource(seed))
	inst := instancetest.Random(r, 12, 16)
	g := Build(inst)
	if err := g.Split(instancetest.RandomDeletionSet(r, inst, 3)); err != nil {
		return inst, g, false
	}
	return inst, g, true
}

func TestGraphInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("components partition the surviving nodes", prop.ForAll(
		func(seed int64) bool {
			_, g, ok := splitRandom(seed)
			if !ok {
				return false
			}
			seen := make(map[int]int)
			for _, c := range g.Components() {
				for _, n := range c.Nodes {
					if n.Deleted || n.Comp != c.ID {
						return false
					}
					seen[n.ID]++
				}
			}
			for i := 0; i < g.NodeCount(); i++ {
				n := g.NodeAt(i)
				want := 1
				if n.Deleted {
					want = 0
				}
				if seen[n.ID] != want {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.Property("no surviving edge crosses two components", prop.ForAll(
		func(seed int64) bool {
			_, g, ok := splitRandom(seed)
			if !ok {
				return false
			}
			for _, c := range g.Components() {
				for _, n := range c.Nodes {
					for _, e := range n.Adj {
						m := g.Node(e.Target)
						if !m.Deleted && m.Comp != c.ID {
							return false
						}
					}
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.Property("incremental recompute matches a full relabel", prop.ForAll(
		func(seed int64) bool {
			_, g, ok := splitRandom(seed)
			if !ok {
				return false
			}
			fresh := g.Clone()
			fresh.initComponents()

			canon := func(g *Graph) [][]int {
				out := make([][]int, 0, g.ComponentCount())
				for _, c := range g.Components() {
					ids := c.IDs()
					slices.Sort(ids)
					out = append(out, ids)
				}
				slices.SortFunc(out, func(a, b []int) int { return slices.Compare(a, b) })
				return out
			}
			a, b := canon(g), canon(fresh)
			if len(a) != len(b) {
				return false
			}
			for i := range a {
				if !slices.Equal(a[i], b[i]) {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.Property("merge preserves nodes and keeps two components", prop.ForAll(
		func(seed int64, alpha float64) bool {
			_, g, ok := splitRandom(seed)
			if !ok {
				return false
			}
			before := g.ComponentCount()
			total := 0
			for _, c := range g.Components() {
				total += c.Size()
			}

			g.Merge(alpha)

			after := 0
			for _, c := range g.Components() {
				after += c.Size()
			}
			if after != total || g.ComponentCount() > before {
				return false
			}
			if before >= 2 && g.ComponentCount() < 2 {
				return false
			}
			comps := g.Components()
			for i := 1; i < len(comps); i++ {
				if comps[i-1].Size() > comps[i].Size() {
					return false
				}
			}
			minAllowed, maxAllowed := Bounds(alpha, g.NodeCount())
			if len(comps) >= 3 && comps[0].Size() < minAllowed &&
				comps[0].Size()+comps[1].Size() <= maxAllowed {
				return false
			}
			return true
		},
		gen.Int64(),
		gen.Float64Range(0.05, 0.49),
	))

	properties.Property("duplication leaves only component-local edges", prop.ForAll(
		func(seed int64) bool {
			_, g, ok := splitRandom(seed)
			if !ok {
				return false
			}
			g.Merge(1.0 / 3)
			g.AddDeletedNodes()
			if g.ComponentCount() == 0 {
				return true
			}
			if g.CheckLocalEdges() != nil {
				return false
			}
			for _, d := range g.DeletedNodes() {
				placed := false
				for _, c := range g.Components() {
					if c.Contains(d.ID) {
						placed = true
					}
				}
				if !placed {
					return false
				}
			}
			for _, cp := range g.DeletedCopies() {
				if !cp.IsCopy() || !cp.Deleted {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.Property("clones evolve independently", prop.ForAll(
		func(seed int64) bool {
			r := rand.New(rand.NewSource(seed))
			inst := instancetest.Random(r, 10, 12)
			base := Build(inst)
			want := base.ComponentCount()

			c := base.Clone()
			if err := c.Split(instancetest.RandomDeletionSet(r, inst, 3)); err != nil {
				return false
			}
			c.AddDeletedNodes()

			if base.ComponentCount() != want || len(base.DeletedNodes()) != 0 {
				return false
			}
			for i := 0; i < base.NodeCount(); i++ {
				if base.NodeAt(i).Deleted {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
