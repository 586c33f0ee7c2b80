// Package dotexport renders a repeatgraph.Graph to Graphviz dot, the same
// shape constructdbg.go's GraphvizDBGArr produces for the de Bruijn graph:
// record-shaped nodes, blue edges labeled with id/length, alt-haplotype
// edges picked out by color so a collapse pass's effect is visible at a
// glance.
package dotexport

import (
	"fmt"
	"io"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"github.com/eernst/hetresolve/repeatgraph"
)

// Write renders g to w as a Graphviz dot document.
func Write(g *repeatgraph.Graph, w io.Writer) error {
	gv := gographviz.NewGraph()
	gv.SetName("G")
	gv.SetDir(true)
	gv.SetStrict(false)

	for _, n := range g.Nodes() {
		attr := map[string]string{
			"color": "Green",
			"shape": "record",
			"label": fmt.Sprintf("\"{%d|in:%d out:%d}\"", n.ID, n.InDegree(), n.OutDegree()),
		}
		if err := gv.AddNode("G", strconv.Itoa(n.ID), attr); err != nil {
			return err
		}
	}

	for _, e := range g.Edges() {
		if !e.ID.Strand() {
			continue // one label per physical edge; skip the rc half
		}
		color := "Blue"
		if e.AltHaplotype {
			color = "Red"
		}
		attr := map[string]string{
			"color": color,
			"label": fmt.Sprintf("\"%v len:%d cov:%.1f\"", e.ID, e.Length, e.MeanCoverage),
		}
		if err := gv.AddEdge(strconv.Itoa(e.Left.ID), strconv.Itoa(e.Right.ID), true, attr); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, gv.String())
	return err
}
