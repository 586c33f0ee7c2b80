package repeatgraph

import "testing"

func TestGetUnbranchingPathsLinearChain(t *testing.T) {
	g := NewGraph()
	n0, n1, n2, n3 := g.AddNode(), g.AddNode(), g.AddNode(), g.AddNode()
	m0, m1, m2, m3 := g.AddNode(), g.AddNode(), g.AddNode(), g.AddNode()
	g.AddEdgePair(1, n0, n1, m1, m0, 10, 1.0, false)
	g.AddEdgePair(3, n1, n2, m2, m1, 10, 1.0, false)
	g.AddEdgePair(5, n2, n3, m3, m2, 10, 1.0, false)

	proc := NewGraphProcessor(g)
	paths := proc.GetUnbranchingPaths()

	var forward *UnbranchingPath
	for _, p := range paths {
		if p.ID == 1 {
			forward = p
		}
	}
	if forward == nil {
		t.Fatalf("expected a path anchored at edge 1")
	}
	if len(forward.Edges) != 3 {
		t.Fatalf("expected the whole chain to merge into one path, got %d edges", len(forward.Edges))
	}
	if forward.NodeLeft() != n0 || forward.NodeRight() != n3 {
		t.Fatalf("chain endpoints wrong: left=%v right=%v", forward.NodeLeft(), forward.NodeRight())
	}
}

func TestGetUnbranchingPathsSelfLoopAtJunction(t *testing.T) {
	g := NewGraph()
	nIn, j, nOut := g.AddNode(), g.AddNode(), g.AddNode()
	jr, nInR, nOutR := g.AddNode(), g.AddNode(), g.AddNode()

	g.AddEdgePair(1, nIn, j, jr, nInR, 10, 1.0, false)
	g.AddEdgePair(3, j, nOut, nOutR, jr, 10, 1.0, false)
	g.AddEdgePair(5, j, j, jr, jr, 4, 1.0, false)

	proc := NewGraphProcessor(g)
	paths := proc.GetUnbranchingPaths()

	var loop *UnbranchingPath
	for _, p := range paths {
		if p.ID == 5 {
			loop = p
		}
	}
	if loop == nil {
		t.Fatalf("expected a single-edge path anchored at the loop edge")
	}
	if len(loop.Edges) != 1 {
		t.Fatalf("a self-loop at a junction must not merge with any other edge, got %d edges", len(loop.Edges))
	}
	if !loop.IsLooped() {
		t.Fatalf("self-loop path should report IsLooped")
	}
}

func TestGetUnbranchingPathsDetachedCycle(t *testing.T) {
	g := NewGraph()
	a, b, c := g.AddNode(), g.AddNode(), g.AddNode()
	ar, br, cr := g.AddNode(), g.AddNode(), g.AddNode()

	g.AddEdgePair(1, a, b, br, ar, 10, 1.0, false)
	g.AddEdgePair(3, b, c, cr, br, 10, 1.0, false)
	g.AddEdgePair(5, c, a, ar, cr, 10, 1.0, false)

	proc := NewGraphProcessor(g)
	paths := proc.GetUnbranchingPaths()

	var cycle *UnbranchingPath
	for _, p := range paths {
		if p.IsLooped() && len(p.Edges) == 3 {
			cycle = p
		}
	}
	if cycle == nil {
		t.Fatalf("expected pass 2 to recover the 3-edge detached cycle a->b->c->a")
	}
}
