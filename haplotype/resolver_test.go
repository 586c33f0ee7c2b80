package haplotype

import (
	"testing"

	"github.com/eernst/hetresolve/alignment"
	"github.com/eernst/hetresolve/config"
	"github.com/eernst/hetresolve/repeatgraph"
)

type fakeAligner struct {
	alns []alignment.Alignment
}

func (f *fakeAligner) GetAlignments() []alignment.Alignment { return f.alns }
func (f *fakeAligner) UpdateAlignments()                    {}

// buildBulgeGraph returns a graph with one heterozygous bulge: entrance
// edge 1 feeds a node with two parallel branches (3, weak; 9, strong)
// that rejoin into an exit edge 7. The whole shape is mirrored onto a
// disjoint node set for the complementary strand.
func buildBulgeGraph(weakCov, strongCov float64, weakLen, strongLen int) *repeatgraph.Graph {
	g := repeatgraph.NewGraph()
	n0, n1, n2, n3 := g.AddNode(), g.AddNode(), g.AddNode(), g.AddNode()
	m0, m1, m2, m3 := g.AddNode(), g.AddNode(), g.AddNode(), g.AddNode()

	g.AddEdgePair(1, n0, n1, m1, m0, 100, 20.0, false)
	g.AddEdgePair(3, n1, n2, m2, m1, weakLen, weakCov, false)
	g.AddEdgePair(9, n1, n2, m2, m1, strongLen, strongCov, false)
	g.AddEdgePair(7, n2, n3, m3, m2, 100, 20.0, false)
	return g
}

func TestCollapseHeterozygousBulgesMaskOnly(t *testing.T) {
	g := buildBulgeGraph(2.0, 8.0, 30, 30)
	r := New(g, &fakeAligner{}, config.DefaultStatic())
	weakLeftBefore := g.Edge(3).Left

	n := r.CollapseHeterozygousBulges(false)
	if n != 1 {
		t.Fatalf("expected 1 bulge masked, got %d", n)
	}
	if !g.Edge(3).AltHaplotype || !g.Edge(9).AltHaplotype {
		t.Fatalf("masking must mark both branches AltHaplotype")
	}
	if g.Edge(3).Left != weakLeftBefore {
		t.Fatalf("mask-only pass must not touch topology")
	}
}

func TestCollapseHeterozygousBulgesApplyExcisesWeakBranch(t *testing.T) {
	g := buildBulgeGraph(2.0, 8.0, 30, 30)
	r := New(g, &fakeAligner{}, config.DefaultStatic())

	weak, strong := g.Edge(3), g.Edge(9)
	weakLeftBefore := weak.Left

	n := r.CollapseHeterozygousBulges(true)
	if n != 1 {
		t.Fatalf("expected 1 bulge removed, got %d", n)
	}
	if strong.MeanCoverage != 10.0 {
		t.Fatalf("strong branch should absorb the weak branch's coverage, got %v", strong.MeanCoverage)
	}
	if strong.AltHaplotype {
		t.Fatalf("the kept branch must be un-marked after apply")
	}
	if !weak.AltHaplotype {
		t.Fatalf("the excised branch keeps its AltHaplotype mark")
	}
	if weak.Left == weakLeftBefore {
		t.Fatalf("apply must excise the weak branch onto a fresh node")
	}
	if g.Edge(3) != weak || g.Edge(9) != strong {
		t.Fatalf("apply must never delete an edge, only rewire it")
	}
}

func TestCollapseHeterozygousBulgesRejectsOversizedBranch(t *testing.T) {
	g := buildBulgeGraph(2.0, 8.0, 300, 300)
	r := New(g, &fakeAligner{}, config.DefaultStatic())

	if n := r.CollapseHeterozygousBulges(true); n != 0 {
		t.Fatalf("a branch longer than its flanking unique edges must be rejected, got %d", n)
	}
}

func TestCollapseHeterozygousBulgesRejectsHighCombinedCoverage(t *testing.T) {
	// covSum 2+28=30 would only equal 1.5 * min(entrance, exit) == 30 and
	// pass; 2+29=31 pushes it just over so the rejection actually triggers.
	g := buildBulgeGraph(2.0, 29.0, 30, 30)
	r := New(g, &fakeAligner{}, config.DefaultStatic())

	if n := r.CollapseHeterozygousBulges(true); n != 0 {
		t.Fatalf("combined branch coverage incompatible with a heterozygous bulge must be rejected, got %d", n)
	}
}

// buildLoopGraph returns a graph with a single self-loop edge (5) sitting
// on a junction node fed by entrance edge 1 and drained by exit edge 3,
// mirrored onto a disjoint node set.
func buildLoopGraph(entranceCov, exitCov, loopCov float64, loopLen int) *repeatgraph.Graph {
	g := repeatgraph.NewGraph()
	nIn, j, nOut := g.AddNode(), g.AddNode(), g.AddNode()
	jr, nInR, nOutR := g.AddNode(), g.AddNode(), g.AddNode()

	g.AddEdgePair(1, nIn, j, jr, nInR, 200, entranceCov, false)
	g.AddEdgePair(3, j, nOut, nOutR, jr, 200, exitCov, false)
	g.AddEdgePair(5, j, j, jr, jr, loopLen, loopCov, false)
	return g
}

func TestCollapseHeterozygousLoopsUnroll(t *testing.T) {
	g := buildLoopGraph(20.0, 20.0, 10.0, 50)
	r := New(g, &fakeAligner{}, config.DefaultStatic())

	loop := g.Edge(5)
	loopLeftBefore := loop.Left

	n := r.CollapseHeterozygousLoops(true)
	if n != 1 {
		t.Fatalf("expected 1 loop collapsed, got %d", n)
	}
	if !loop.AltHaplotype {
		t.Fatalf("an unrolled loop is still marked AltHaplotype")
	}
	if loop.Left == loopLeftBefore {
		t.Fatalf("unroll must detach the loop edge from the junction onto a fresh node")
	}
	if g.Edge(5) != loop {
		t.Fatalf("unroll must never delete the loop edge")
	}
}

func TestCollapseHeterozygousLoopsRemove(t *testing.T) {
	g := buildLoopGraph(40.0, 40.0, 5.0, 50)
	r := New(g, &fakeAligner{}, config.DefaultStatic())

	n := r.CollapseHeterozygousLoops(true)
	if n != 1 {
		t.Fatalf("expected 1 loop collapsed, got %d", n)
	}
	loop := g.Edge(5)
	if loop.Left == loop.Right {
		t.Fatalf("a low-coverage loop must be detached (IsLooped no longer holds), got left==right==%v", loop.Left)
	}
}

func TestCollapseHeterozygousLoopsMaskOnly(t *testing.T) {
	g := buildLoopGraph(20.0, 20.0, 10.0, 50)
	r := New(g, &fakeAligner{}, config.DefaultStatic())

	n := r.CollapseHeterozygousLoops(false)
	if n != 1 {
		t.Fatalf("expected 1 loop masked, got %d", n)
	}
	loop := g.Edge(5)
	if loop.Left != loop.Right {
		t.Fatalf("mask-only pass must not touch topology")
	}
}

// buildComplexBubbleGraph wires a start edge into a node with three
// outgoing branches (A, B, C), plus a separate edge D that is not wired to
// the branches' end nodes (the test's alignments place it after every
// branch), mirrored onto a disjoint node set so the start path sits on
// the canonical strand.
func buildComplexBubbleGraph() (g *repeatgraph.Graph, start, a, b, c, d *repeatgraph.Edge) {
	g = repeatgraph.NewGraph()
	n0, n1, n2, n3, n4, n5, n6 := g.AddNode(), g.AddNode(), g.AddNode(), g.AddNode(), g.AddNode(), g.AddNode(), g.AddNode()
	m0, m1, m2, m3, m4, m5, m6 := g.AddNode(), g.AddNode(), g.AddNode(), g.AddNode(), g.AddNode(), g.AddNode(), g.AddNode()

	start, _ = g.AddEdgePair(1, n0, n1, m1, m0, 100, 10.0, false)
	a, _ = g.AddEdgePair(3, n1, n2, m2, m1, 50, 6.0, false)
	b, _ = g.AddEdgePair(5, n1, n3, m3, m1, 50, 3.0, false)
	c, _ = g.AddEdgePair(7, n1, n4, m4, m1, 50, 1.0, false)
	d, _ = g.AddEdgePair(9, n5, n6, m6, m5, 100, 10.0, false)
	return g, start, a, b, c, d
}

func syntheticAlignment(edges []*repeatgraph.Edge) alignment.Alignment {
	aln := make(alignment.Alignment, len(edges))
	pos := 0
	for i, e := range edges {
		aln[i] = alignment.EdgeAlignment{Edge: e, Overlap: alignment.Overlap{CurStart: pos, CurEnd: pos + e.Length}}
		pos += e.Length
	}
	return aln
}

func TestFindComplexHaplotypesGroupsAndConverges(t *testing.T) {
	g, start, a, b, c, d := buildComplexBubbleGraph()

	var alns []alignment.Alignment
	for i := 0; i < 6; i++ {
		alns = append(alns, syntheticAlignment([]*repeatgraph.Edge{start, a, d}))
	}
	for i := 0; i < 3; i++ {
		alns = append(alns, syntheticAlignment([]*repeatgraph.Edge{start, b, d}))
	}
	alns = append(alns, syntheticAlignment([]*repeatgraph.Edge{start, c, d}))

	r := New(g, &fakeAligner{alns: alns}, config.DefaultStatic())

	count, bubbles := r.FindComplexHaplotypes()
	if count != 0 {
		t.Fatalf("findComplexHaplotypes has no effect on the graph and must always return 0, got %d", count)
	}
	if len(bubbles) != 1 {
		t.Fatalf("expected exactly 1 complex bubble, got %d", len(bubbles))
	}

	bubble := bubbles[0]
	if bubble.StartEdge != start || bubble.EndEdge != d {
		t.Fatalf("unexpected bubble boundaries: start=%v end=%v", bubble.StartEdge.ID, bubble.EndEdge.ID)
	}
	if len(bubble.Branches) != 2 {
		t.Fatalf("expected the low-support C branch to be pruned by MIN_SCORE, leaving 2 branches, got %d", len(bubble.Branches))
	}

	scores := map[int]bool{}
	for _, br := range bubble.Branches {
		scores[br.Score] = true
	}
	if !scores[6] || !scores[3] {
		t.Fatalf("expected branch scores {6,3}, got %v", bubble.Branches)
	}
}
