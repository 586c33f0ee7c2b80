package repeatgraph

import "gonum.org/v1/gonum/stat"

// UnbranchingPath is a maximal chain of edges through nodes that all have
// in-degree 1 and out-degree 1. It is derived and immutable for the
// duration of one resolver pass; callers must not hold onto a slice of
// these across a structural mutation.
type UnbranchingPath struct {
	// ID is inherited from whichever end edge of the chain has the smaller
	// |ID| (the first edge on a tie), so a chain anchored at branch nodes
	// and its reverse-complement chain share the same |ID| with opposite
	// sign. A pure cycle starts at an arbitrary edge on each strand, so
	// its two strands are not guaranteed to pair up this way.
	ID    EdgeID
	Edges []*Edge
}

// FirstEdge returns the leftmost edge of the chain.
func (p *UnbranchingPath) FirstEdge() *Edge { return p.Edges[0] }

// LastEdge returns the rightmost edge of the chain.
func (p *UnbranchingPath) LastEdge() *Edge { return p.Edges[len(p.Edges)-1] }

// NodeLeft returns the chain's entrance node.
func (p *UnbranchingPath) NodeLeft() *Node { return p.Edges[0].Left }

// NodeRight returns the chain's exit node.
func (p *UnbranchingPath) NodeRight() *Node { return p.Edges[len(p.Edges)-1].Right }

// IsLooped reports whether the chain is a cycle: its endpoints coincide.
func (p *UnbranchingPath) IsLooped() bool {
	return p.NodeLeft() == p.NodeRight()
}

// Length is the sum of the member edges' lengths.
func (p *UnbranchingPath) Length() int {
	total := 0
	for _, e := range p.Edges {
		total += e.Length
	}
	return total
}

// MeanCoverage is the length-weighted mean coverage of the member edges.
func (p *UnbranchingPath) MeanCoverage() float64 {
	if len(p.Edges) == 1 {
		return p.Edges[0].MeanCoverage
	}
	covs := make([]float64, len(p.Edges))
	weights := make([]float64, len(p.Edges))
	var totalWeight float64
	for i, e := range p.Edges {
		covs[i] = e.MeanCoverage
		weights[i] = float64(e.Length)
		totalWeight += weights[i]
	}
	if totalWeight == 0 {
		return stat.Mean(covs, nil)
	}
	return stat.Mean(covs, weights)
}

func (p *UnbranchingPath) String() string {
	return "UnbranchingPath(" + p.ID.String() + ")"
}

// GraphProcessor derives read-only views of a Graph. It holds no state
// across calls: GetUnbranchingPaths recomputes the view from scratch every
// time, as the spec requires (the unbranching-path view is read-only
// within a pass and discarded once the graph is mutated).
type GraphProcessor struct {
	g *Graph
}

// NewGraphProcessor wraps g for path derivation.
func NewGraphProcessor(g *Graph) *GraphProcessor {
	return &GraphProcessor{g: g}
}

func isBiunique(n *Node) bool {
	return n.InDegree() == 1 && n.OutDegree() == 1
}

// GetUnbranchingPaths returns every unbranching path in the graph, one
// entry per strand, covering every edge exactly once per direction.
func (p *GraphProcessor) GetUnbranchingPaths() []*UnbranchingPath {
	edges := p.g.Edges()
	visited := make(map[EdgeID]bool, len(edges))
	var paths []*UnbranchingPath

	// The rc chain's end edges are the complements of this chain's end
	// edges in swapped order, so taking the smaller-|ID| end pairs them.
	pathID := func(chain []*Edge) EdgeID {
		first, last := chain[0].ID, chain[len(chain)-1].ID
		if int64(last)*int64(last) < int64(first)*int64(first) {
			return last
		}
		return first
	}

	// Pass 1: chains anchored at a node that is not 1-in-1-out — every
	// edge leaving such a node starts a fresh path.
	for _, e := range edges {
		if visited[e.ID] || isBiunique(e.Left) {
			continue
		}
		chain := extendChain(e, visited)
		paths = append(paths, &UnbranchingPath{ID: pathID(chain), Edges: chain})
	}

	// Pass 2: whatever remains unvisited lies on a pure cycle of
	// 1-in-1-out nodes with no branch point to anchor pass 1 — a looped
	// path with no distinguished start, so any unvisited edge on it
	// serves as the start.
	for _, e := range edges {
		if visited[e.ID] {
			continue
		}
		chain := extendLoopChain(e, visited)
		paths = append(paths, &UnbranchingPath{ID: pathID(chain), Edges: chain})
	}

	return paths
}

func extendChain(start *Edge, visited map[EdgeID]bool) []*Edge {
	chain := []*Edge{start}
	visited[start.ID] = true
	cur := start
	for isBiunique(cur.Right) {
		next := cur.Right.OutEdges[0]
		if visited[next.ID] {
			break
		}
		chain = append(chain, next)
		visited[next.ID] = true
		cur = next
	}
	return chain
}

func extendLoopChain(start *Edge, visited map[EdgeID]bool) []*Edge {
	chain := []*Edge{start}
	visited[start.ID] = true
	cur := start
	for {
		next := cur.Right.OutEdges[0]
		if next.ID == start.ID {
			break
		}
		chain = append(chain, next)
		visited[next.ID] = true
		cur = next
	}
	return chain
}
