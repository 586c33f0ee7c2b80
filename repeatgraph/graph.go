// Package repeatgraph implements the directed, reverse-complement-paired
// multigraph that the haplotype resolver operates on. Nodes and edges are
// produced by a builder outside this package's scope; this package only
// guarantees the adjacency invariant and the strand-pairing invariant are
// upheld across mutation.
package repeatgraph

import (
	"fmt"

	"github.com/google/uuid"
)

// EdgeID identifies one strand of a physical edge. Every physical edge has
// two EdgeIDs, a canonical positive one and its reverse-complement, the
// negative of the same magnitude. Zero is never a valid EdgeID.
type EdgeID int32

// Rc returns the EdgeID of the complementary strand.
func (id EdgeID) Rc() EdgeID {
	return -id
}

// Strand reports whether id is the canonical (positive) representative.
func (id EdgeID) Strand() bool {
	return id > 0
}

func (id EdgeID) String() string {
	return fmt.Sprintf("%+d", int32(id))
}

// Node is a junction in the repeat graph. InEdges and OutEdges preserve
// insertion order; callers must go through VecRemove/Graph rewiring helpers
// rather than slicing these directly, or the e.Left/e.Right back-reference
// invariant can drift out of sync with adjacency.
type Node struct {
	ID int

	// DebugTag is a short opaque label minted for every node, including
	// the detach/unroll nodes the collapsers allocate, so a run's log
	// lines and dot-file tooltips can point at a specific node without
	// colliding with the small reused integer ID space.
	DebugTag string

	InEdges  []*Edge
	OutEdges []*Edge
}

func (n *Node) InDegree() int  { return len(n.InEdges) }
func (n *Node) OutDegree() int { return len(n.OutEdges) }

func (n *Node) String() string {
	return fmt.Sprintf("Node{ID:%d in:%d out:%d}", n.ID, len(n.InEdges), len(n.OutEdges))
}

// Edge is one signed strand of a physical edge between two nodes.
type Edge struct {
	ID    EdgeID
	Left  *Node
	Right *Node

	MeanCoverage float64
	Length       int

	// AltHaplotype marks this edge (and, by invariant, its complement) as
	// belonging to an alternative haplotype/strain branch rather than the
	// consensus backbone.
	AltHaplotype bool

	// SelfComplement is immutable per edge: true when an edge is its own
	// reverse complement (a palindromic junction), which the loop
	// collapser must refuse to touch.
	SelfComplement bool
}

func (e *Edge) String() string {
	return fmt.Sprintf("Edge{ID:%v len:%d cov:%.2f alt:%v}", e.ID, e.Length, e.MeanCoverage, e.AltHaplotype)
}

// Graph is a directed multigraph with explicit reverse-complement pairing.
// It is not safe for concurrent use; the resolver assumes exclusive
// ownership for the duration of a call (see spec §5).
type Graph struct {
	edges   map[EdgeID]*Edge
	nodes   []*Node
	nodeSeq int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{edges: make(map[EdgeID]*Edge)}
}

// AddNode returns a fresh node with empty adjacency lists.
func (g *Graph) AddNode() *Node {
	g.nodeSeq++
	n := &Node{ID: g.nodeSeq, DebugTag: uuid.NewString()}
	g.nodes = append(g.nodes, n)
	return n
}

// Nodes returns every node the graph has ever allocated, including
// detached ones produced by excision/unroll — isolated nodes are harmless
// and are never reclaimed (spec §3 Lifecycles).
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// AddEdgePair registers a physical edge and its reverse complement. It is
// a construction helper for graph builders and tests, not part of the
// resolver's own operation set: the resolver never creates new physical
// edges, only new nodes.
func (g *Graph) AddEdgePair(id EdgeID, left, right, rcLeft, rcRight *Node, length int, coverage float64, selfComplement bool) (*Edge, *Edge) {
	if id <= 0 {
		panic("repeatgraph: AddEdgePair requires a canonical (positive) id")
	}
	fwd := &Edge{ID: id, Left: left, Right: right, Length: length, MeanCoverage: coverage, SelfComplement: selfComplement}
	left.OutEdges = append(left.OutEdges, fwd)
	right.InEdges = append(right.InEdges, fwd)
	g.edges[id] = fwd

	if selfComplement {
		g.edges[id.Rc()] = fwd
		return fwd, fwd
	}

	rc := &Edge{ID: id.Rc(), Left: rcLeft, Right: rcRight, Length: length, MeanCoverage: coverage, SelfComplement: selfComplement}
	rcLeft.OutEdges = append(rcLeft.OutEdges, rc)
	rcRight.InEdges = append(rcRight.InEdges, rc)
	g.edges[rc.ID] = rc
	return fwd, rc
}

// Edge looks up a signed edge by ID.
func (g *Graph) Edge(id EdgeID) *Edge {
	return g.edges[id]
}

// ComplementEdge returns e's paired edge. It is a total function over any
// edge that belongs to this graph: every edge has a complement, even a
// self-complementary one (which is its own complement).
func (g *Graph) ComplementEdge(e *Edge) *Edge {
	c, ok := g.edges[e.ID.Rc()]
	if !ok {
		panic(fmt.Sprintf("repeatgraph: edge %v has no registered complement, graph invariant broken", e.ID))
	}
	return c
}

// Edges returns every signed edge, in ascending EdgeID order, for
// deterministic iteration.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	sortEdgesByID(out)
	return out
}

func sortEdgesByID(edges []*Edge) {
	// insertion sort is fine here: graphs in this package's scope are
	// small (hundreds to low thousands of edges), and this runs once per
	// unbranching-path pass.
	for i := 1; i < len(edges); i++ {
		for j := i; j > 0 && edges[j-1].ID > edges[j].ID; j-- {
			edges[j-1], edges[j] = edges[j], edges[j-1]
		}
	}
}

// VecRemove removes the first occurrence of x from list, preserving the
// order of the remaining elements, and returns the shortened slice.
func VecRemove(list []*Edge, x *Edge) []*Edge {
	for i, e := range list {
		if e == x {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// SetAltHaplotype mutates e.AltHaplotype and mirrors the change onto e's
// complement, upholding the strand-symmetry invariant as a local property
// of the call site instead of a discipline every caller has to remember.
func (g *Graph) SetAltHaplotype(e *Edge, v bool) {
	e.AltHaplotype = v
	g.ComplementEdge(e).AltHaplotype = v
}

// AddCoverage adds delta to e.MeanCoverage and mirrors the change onto e's
// complement.
func (g *Graph) AddCoverage(e *Edge, delta float64) {
	e.MeanCoverage += delta
	g.ComplementEdge(e).MeanCoverage += delta
}

// Excise detaches the chain [first..last] from its current endpoints by
// allocating two fresh nodes and rewiring first's left attachment and
// last's right attachment onto them. The chain becomes a dangling path
// with no entrance or exit. Edges are never deleted.
func (g *Graph) Excise(first, last *Edge) (newLeft, newRight *Node) {
	oldLeft, oldRight := first.Left, last.Right
	newLeft = g.AddNode()
	newRight = g.AddNode()

	oldLeft.OutEdges = VecRemove(oldLeft.OutEdges, first)
	oldRight.InEdges = VecRemove(oldRight.InEdges, last)

	first.Left = newLeft
	newLeft.OutEdges = append(newLeft.OutEdges, first)

	last.Right = newRight
	newRight.InEdges = append(newRight.InEdges, last)
	return newLeft, newRight
}

// UnrollAt moves loopFirst out of line at junction: prevEdge (the
// non-loop in-edge feeding junction) is rerouted through a fresh node so
// the loop chain is traversed exactly once between prevEdge and the rest
// of junction's original outgoing traffic.
func (g *Graph) UnrollAt(junction *Node, loopFirst, prevEdge *Edge) *Node {
	newNode := g.AddNode()

	junction.OutEdges = VecRemove(junction.OutEdges, loopFirst)
	junction.InEdges = VecRemove(junction.InEdges, prevEdge)

	loopFirst.Left = newNode
	newNode.OutEdges = append(newNode.OutEdges, loopFirst)

	prevEdge.Right = newNode
	newNode.InEdges = append(newNode.InEdges, prevEdge)
	return newNode
}
