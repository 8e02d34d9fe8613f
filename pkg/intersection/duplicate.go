package intersection

import (
	"github.com/TomaszSorobka/CSRP-graphs/pkg/invariant"
)

// AddDeletedNodes duplicates deleted nodes back into the components that still
// need them:
//
//  1. a copy of each deleted node goes into every component holding a
//     non-deleted neighbour of it;
//  2. a deleted node that reached no component is copied into the smallest one;
//  3. two deleted nodes that were adjacent but share no component get a copy of
//     one placed next to the other, in the smaller candidate component;
//  4. every adjacency list inside a component is pruned to that component.
func (g *Graph) AddDeletedNodes() {
	if len(g.components) == 0 {
		return
	}
	g.copyIntoNeighbourComponents()
	g.placeUnreachedDeleted()
	g.preserveDeletedEdges()
	g.pruneForeignEdges()
}

func (g *Graph) connectedToComponent(n *Node, c *Component) bool {
	for _, e := range n.Adj {
		t := g.Node(e.Target)
		if t != nil && !t.Deleted && c.Contains(e.Target) {
			return true
		}
	}
	return false
}

func (g *Graph) copyIntoNeighbourComponents() {
	for _, d := range g.deleted {
		for _, c := range g.components {
			if g.connectedToComponent(d, c) {
				cp := d.duplicate(c.ID)
				c.add(cp)
				g.copies = append(g.copies, cp)
			}
		}
	}
}

// placeUnreachedDeleted places isolated deleted nodes. These placements are not
// recorded in DeletedCopies.
func (g *Graph) placeUnreachedDeleted() {
	for _, d := range g.deleted {
		if g.smallestContaining(d.ID) != nil {
			continue
		}
		c := g.smallestComponent()
		c.add(d.duplicate(c.ID))
	}
}

func (g *Graph) shareComponent(a, b int) bool {
	for _, c := range g.components {
		if c.Contains(a) && c.Contains(b) {
			return true
		}
	}
	return false
}

func (g *Graph) preserveDeletedEdges() {
	for i, a := range g.deleted {
		for _, b := range g.deleted[i+1:] {
			if !a.ConnectedTo(b.ID) && !b.ConnectedTo(a.ID) {
				continue
			}
			if g.shareComponent(a.ID, b.ID) {
				continue
			}

			withA := g.smallestContaining(a.ID)
			withB := g.smallestContaining(b.ID)
			if withA == nil || withB == nil {
				continue
			}

			target, src := withB, a
			if withA.Size() < withB.Size() {
				target, src = withA, b
			}
			cp := src.duplicate(target.ID)
			target.add(cp)
			g.copies = append(g.copies, cp)
		}
	}
}

func (g *Graph) pruneForeignEdges() {
	for _, c := range g.components {
		for _, n := range c.Nodes {
			kept := n.Adj[:0]
			for _, e := range n.Adj {
				if c.Contains(e.Target) {
					kept = append(kept, e)
				}
			}
			n.Adj = kept
		}
	}
}

// CheckLocalEdges verifies that no node inside a component has an edge to an
// id outside that component.
func (g *Graph) CheckLocalEdges() error {
	for _, c := range g.components {
		for _, n := range c.Nodes {
			for _, e := range n.Adj {
				if !c.Contains(e.Target) {
					return invariant.New("check local edges").
						Detailf("node %d in component %d references %d outside it", n.ID, c.ID, e.Target).Err()
				}
			}
		}
	}
	return nil
}
