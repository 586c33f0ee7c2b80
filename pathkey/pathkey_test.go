package pathkey

import (
	"testing"

	"github.com/eernst/hetresolve/repeatgraph"
)

func TestOfIsOrderSensitive(t *testing.T) {
	a := Of([]repeatgraph.EdgeID{1, 3, 5})
	b := Of([]repeatgraph.EdgeID{1, 3, 5})
	c := Of([]repeatgraph.EdgeID{5, 3, 1})

	if a != b {
		t.Fatalf("identical sequences must hash equal")
	}
	if a == c {
		t.Fatalf("reordered sequences must not hash equal")
	}
}

func TestOfEdgesMatchesOf(t *testing.T) {
	edges := []*repeatgraph.Edge{{ID: 2}, {ID: 4}, {ID: 6}}
	ids := []repeatgraph.EdgeID{2, 4, 6}

	if OfEdges(edges) != Of(ids) {
		t.Fatalf("OfEdges must hash the same as Of over the equivalent ID sequence")
	}
}
