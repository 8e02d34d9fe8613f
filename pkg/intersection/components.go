package intersection

import (
	"math"
	"sort"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/invariant"
)

// Component is a set of nodes reachable from one another through non-deleted
// adjacency as of the last recomputation. After AddDeletedNodes it may also hold
// copies of deleted nodes.
type Component struct {
	ID    int
	Nodes []*Node

	ids map[int]struct{}
}

func newComponent(id int) *Component {
	return &Component{ID: id, ids: make(map[int]struct{})}
}

func (c *Component) add(n *Node) {
	n.Comp = c.ID
	c.Nodes = append(c.Nodes, n)
	c.ids[n.ID] = struct{}{}
}

// Size returns the number of nodes, copies included.
func (c *Component) Size() int { return len(c.Nodes) }

// Contains reports whether a node or copy with the given id is in c.
func (c *Component) Contains(id int) bool {
	_, ok := c.ids[id]
	return ok
}

// IDs returns the member ids in member order.
func (c *Component) IDs() []int {
	ids := make([]int, len(c.Nodes))
	for i, n := range c.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func (c *Component) remove(n *Node) bool {
	for i, m := range c.Nodes {
		if m == n {
			c.Nodes = append(c.Nodes[:i], c.Nodes[i+1:]...)
			delete(c.ids, n.ID)
			return true
		}
	}
	return false
}

// initComponents labels every non-deleted node by depth-first search over the
// whole graph.
func (g *Graph) initComponents() {
	members := make([]*Node, 0, len(g.nodes))
	for i := range g.nodes {
		if !g.nodes[i].Deleted {
			members = append(members, &g.nodes[i])
		}
	}
	g.components = g.label(members)
	g.renumber()
}

// label partitions members into connected components using only edges whose
// targets are themselves in members. Components are returned in order of their
// first member, and each keeps the order of members.
func (g *Graph) label(members []*Node) []*Component {
	scope := make(map[int]int, len(members)) // id -> label, -1 unvisited
	for _, n := range members {
		scope[n.ID] = -1
	}

	next := 0
	stack := make([]int, 0, len(members))
	for _, start := range members {
		if scope[start.ID] >= 0 {
			continue
		}
		scope[start.ID] = next
		stack = append(stack[:0], start.ID)
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, e := range g.Node(id).Adj {
				if l, ok := scope[e.Target]; ok && l < 0 {
					scope[e.Target] = next
					stack = append(stack, e.Target)
				}
			}
		}
		next++
	}

	comps := make([]*Component, next)
	for i := range comps {
		comps[i] = newComponent(-1)
	}
	for _, n := range members {
		comps[scope[n.ID]].add(n)
	}
	return comps
}

func (g *Graph) renumber() {
	for i, c := range g.components {
		c.ID = i
		for _, n := range c.Nodes {
			n.Comp = i
		}
	}
}

// RecomputeComponents re-labels only the component that contained the deleted
// node. That component is replaced by zero or more smaller ones appended after
// the untouched components; deletion can split a component but never merge two.
func (g *Graph) RecomputeComponents(deletedID int) error {
	n := g.Node(deletedID)
	if n == nil {
		return &NodeError{Op: "recompute", ID: deletedID, Cause: ErrUnknownNode}
	}

	pos := -1
	for i, c := range g.components {
		if c.Contains(deletedID) && c.remove(n) {
			pos = i
			break
		}
	}
	if pos < 0 {
		return invariant.New("recompute components").
			Detailf("deleted node %d is in no component", deletedID).Err()
	}

	affected := g.components[pos]
	survivors := make([]*Node, 0, len(affected.Nodes))
	for _, m := range affected.Nodes {
		if !m.Deleted {
			survivors = append(survivors, m)
		}
	}

	rest := make([]*Component, 0, len(g.components)+1)
	rest = append(rest, g.components[:pos]...)
	rest = append(rest, g.components[pos+1:]...)
	g.components = append(rest, g.label(survivors)...)
	g.renumber()
	return nil
}

// Bounds returns the minimum and maximum allowed component sizes for alpha
// relative to n nodes.
func Bounds(alpha float64, n int) (minAllowed, maxAllowed int) {
	const eps = 1e-9
	minAllowed = int(math.Ceil(alpha*float64(n) - eps))
	maxAllowed = int(math.Floor((1-alpha)*float64(n) + eps))
	return minAllowed, maxAllowed
}

// MaxAllowed returns the maximum allowed component size for alpha.
func (g *Graph) MaxAllowed(alpha float64) int {
	_, max := Bounds(alpha, g.NodeCount())
	return max
}

// Merge repeatedly folds the second smallest component into the smallest while
// the smallest is below the minimum size, the merged size stays within the
// maximum, and at least three components remain. Components that are already
// oversized are left alone.
func (g *Graph) Merge(alpha float64) {
	minAllowed, maxAllowed := Bounds(alpha, g.NodeCount())

	g.sortBySize()
	for len(g.components) > 2 && g.components[0].Size() < minAllowed {
		smallest, second := g.components[0], g.components[1]
		if smallest.Size()+second.Size() > maxAllowed {
			break
		}
		for _, n := range second.Nodes {
			smallest.add(n)
		}
		g.components = append(g.components[:1], g.components[2:]...)
		g.sortBySize()
	}
	g.renumber()
}

func (g *Graph) sortBySize() {
	sort.SliceStable(g.components, func(i, j int) bool {
		return g.components[i].Size() < g.components[j].Size()
	})
}

func (g *Graph) smallestComponent() *Component {
	var best *Component
	for _, c := range g.components {
		if best == nil || c.Size() < best.Size() {
			best = c
		}
	}
	return best
}

func (g *Graph) smallestContaining(id int) *Component {
	var best *Component
	for _, c := range g.components {
		if c.Contains(id) && (best == nil || c.Size() < best.Size()) {
			best = c
		}
	}
	return best
}
