package intersection

// Clone returns a deep copy of the graph. Arena nodes, copies, adjacency lists
// and components are all duplicated, so mutating the clone never affects g.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes: make([]Node, len(g.nodes)),
		index: make(map[int]int, len(g.index)),
	}
	remap := make(map[*Node]*Node, len(g.nodes)+len(g.copies))

	for i := range g.nodes {
		src := &g.nodes[i]
		c.nodes[i] = Node{ID: src.ID, Adj: cloneAdj(src.Adj), Deleted: src.Deleted, Comp: src.Comp}
		c.index[src.ID] = i
		remap[src] = &c.nodes[i]
	}
	lookup := func(n *Node) *Node {
		if m, ok := remap[n]; ok {
			return m
		}
		m := &Node{ID: n.ID, Adj: cloneAdj(n.Adj), Deleted: n.Deleted, Comp: n.Comp, copy: n.copy}
		remap[n] = m
		return m
	}

	c.components = make([]*Component, len(g.components))
	for i, comp := range g.components {
		nc := newComponent(comp.ID)
		for _, n := range comp.Nodes {
			nc.add(lookup(n))
		}
		c.components[i] = nc
	}
	for _, n := range g.deleted {
		c.deleted = append(c.deleted, lookup(n))
	}
	for _, n := range g.copies {
		c.copies = append(c.copies, lookup(n))
	}
	return c
}

func cloneAdj(adj []Edge) []Edge {
	if adj == nil {
		return nil
	}
	out := make([]Edge, len(adj))
	for i, e := range adj {
		out[i] = Edge{Target: e.Target, Statements: append([]int(nil), e.Statements...)}
	}
	return out
}
