// Package intersection builds and mutates the intersection graph of an
// instance: one node per entity, one edge per pair of entities that share at
// least one statement. The graph supports node deletion with incremental
// component recomputation, size-bounded merging of components, and duplication
// of deleted nodes back into the components that still need them.
//
// Nodes live in an arena indexed by position; edges refer to targets by entity
// id. Every candidate deletion set is applied to its own Clone, so graphs are
// never shared between goroutines.
package intersection

import (
	"github.com/TomaszSorobka/CSRP-graphs/pkg/instance"
)

// Edge records the statements shared with Target. A statement appears once per
// occurrence found while scanning both owners' lists.
type Edge struct {
	Target     int
	Statements []int
}

// Node is an entity in the graph, or a copy of a deleted entity placed in a
// component.
type Node struct {
	ID      int
	Adj     []Edge
	Deleted bool
	Comp    int

	copy bool
}

// IsCopy reports whether n is a duplicate of a deleted node.
func (n *Node) IsCopy() bool { return n.copy }

// ConnectedTo reports whether n has an edge to id.
func (n *Node) ConnectedTo(id int) bool {
	return n.edgeIndex(id) >= 0
}

// SharedStatements returns the statements on every edge of n, in adjacency order.
func (n *Node) SharedStatements() []int {
	var out []int
	for _, e := range n.Adj {
		out = append(out, e.Statements...)
	}
	return out
}

func (n *Node) edgeIndex(target int) int {
	for i := range n.Adj {
		if n.Adj[i].Target == target {
			return i
		}
	}
	return -1
}

func (n *Node) duplicate(comp int) *Node {
	adj := make([]Edge, len(n.Adj))
	for i, e := range n.Adj {
		adj[i] = Edge{Target: e.Target, Statements: append([]int(nil), e.Statements...)}
	}
	return &Node{ID: n.ID, Adj: adj, Deleted: n.Deleted, Comp: comp, copy: true}
}

// Graph is the intersection graph of one instance.
type Graph struct {
	nodes      []Node
	index      map[int]int
	components []*Component
	deleted    []*Node
	copies     []*Node
}

// Build creates the intersection graph of inst and assigns initial components.
// Every unordered pair of entities is scanned; this is quadratic in the entity
// count and is not a hot path.
func Build(inst *instance.Instance) *Graph {
	g := &Graph{
		nodes: make([]Node, len(inst.Entities)),
		index: make(map[int]int, len(inst.Entities)),
	}
	for i, id := range inst.Entities {
		g.nodes[i] = Node{ID: id, Comp: -1}
		g.index[id] = i
	}

	for i := range g.nodes {
		for j := i + 1; j < len(g.nodes); j++ {
			g.linkShared(inst, i, j)
		}
	}

	g.initComponents()
	return g
}

func (g *Graph) linkShared(inst *instance.Instance, i, j int) {
	a, b := &g.nodes[i], &g.nodes[j]
	sa, sb := inst.StatementsOf(a.ID), inst.StatementsOf(b.ID)
	for _, s := range sa {
		for _, t := range sb {
			if s != t {
				continue
			}
			ea := a.edgeIndex(b.ID)
			if ea < 0 {
				a.Adj = append(a.Adj, Edge{Target: b.ID})
				b.Adj = append(b.Adj, Edge{Target: a.ID})
				ea = len(a.Adj) - 1
			}
			eb := b.edgeIndex(a.ID)
			a.Adj[ea].Statements = append(a.Adj[ea].Statements, s)
			b.Adj[eb].Statements = append(b.Adj[eb].Statements, s)
		}
	}
}

// NodeCount returns the number of entities the graph was built from. Copies
// are not counted.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// NodeAt returns the i-th arena node, in instance entity order.
func (g *Graph) NodeAt(i int) *Node { return &g.nodes[i] }

// Node returns the arena node for an entity id, or nil.
func (g *Graph) Node(id int) *Node {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return &g.nodes[i]
}

// Components returns the current components.
func (g *Graph) Components() []*Component { return g.components }

// ComponentCount returns the number of current components.
func (g *Graph) ComponentCount() int { return len(g.components) }

// DeletedNodes returns the deleted arena nodes in deletion order.
func (g *Graph) DeletedNodes() []*Node { return g.deleted }

// DeletedCopies returns the copies of deleted nodes placed because they were
// connected to a component, or to preserve an edge between two deleted nodes.
func (g *Graph) DeletedCopies() []*Node { return g.copies }

// DeletedIDs returns the ids of deleted nodes in deletion order.
func (g *Graph) DeletedIDs() []int {
	ids := make([]int, len(g.deleted))
	for i, n := range g.deleted {
		ids[i] = n.ID
	}
	return ids
}

// DeleteNode marks an entity as deleted. Its edges are kept so that it can be
// duplicated into components later.
func (g *Graph) DeleteNode(id int) error {
	n := g.Node(id)
	if n == nil {
		return &NodeError{Op: "delete", ID: id, Cause: ErrUnknownNode}
	}
	if n.Deleted {
		return &NodeError{Op: "delete", ID: id, Cause: ErrAlreadyDeleted}
	}
	n.Deleted = true
	g.deleted = append(g.deleted, n)
	return nil
}

// Split deletes each id in order, recomputing the affected component after
// every deletion.
func (g *Graph) Split(ids []int) error {
	for _, id := range ids {
		if err := g.DeleteNode(id); err != nil {
			return err
		}
		if err := g.RecomputeComponents(id); err != nil {
			return err
		}
	}
	return nil
}
