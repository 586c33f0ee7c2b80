// Package graphio serializes a repeatgraph.Graph to/from a zstd-compressed
// dump, the same codec constructdbg.go's WriteEdgesToFn uses for DBG edge
// files (zstd.NewWriter with CRC off, concurrency 1, low compression
// level — this dump is small and written once per resolver pass).
package graphio

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/eernst/hetresolve/repeatgraph"
	"github.com/klauspost/compress/zstd"
)

type nodeRecord struct {
	ID       int
	DebugTag string
}

type edgeRecord struct {
	ID             int32
	LeftID         int
	RightID        int
	MeanCoverage   float64
	Length         int
	AltHaplotype   bool
	SelfComplement bool
}

type dump struct {
	Nodes []nodeRecord
	Edges []edgeRecord
}

// Write serializes g to w as a zstd-compressed gob stream.
func Write(g *repeatgraph.Graph, w io.Writer) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderCRC(false), zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return fmt.Errorf("graphio: open zstd writer: %w", err)
	}
	defer zw.Close()

	var d dump
	for _, n := range g.Nodes() {
		d.Nodes = append(d.Nodes, nodeRecord{ID: n.ID, DebugTag: n.DebugTag})
	}
	for _, e := range g.Edges() {
		if !e.ID.Strand() {
			continue // only the canonical half; Read rebuilds the complement
		}
		d.Edges = append(d.Edges, edgeRecord{
			ID:             int32(e.ID),
			LeftID:         e.Left.ID,
			RightID:        e.Right.ID,
			MeanCoverage:   e.MeanCoverage,
			Length:         e.Length,
			AltHaplotype:   e.AltHaplotype,
			SelfComplement: e.SelfComplement,
		})
	}
	return gob.NewEncoder(zw).Encode(&d)
}

// Read decompresses and decodes a graph dump, rebuilding complement edges
// as the mirror-image of each canonical edge — the graph this package
// round-trips is assumed to already be strand-symmetric, since
// reconstructing symmetry from scratch is the builder's job, not this
// package's.
func Read(r io.Reader) (*repeatgraph.Graph, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("graphio: open zstd reader: %w", err)
	}
	defer zr.Close()

	var d dump
	if err := gob.NewDecoder(zr).Decode(&d); err != nil {
		return nil, fmt.Errorf("graphio: decode: %w", err)
	}

	g := repeatgraph.NewGraph()
	byID := make(map[int]*repeatgraph.Node, len(d.Nodes))
	for _, nr := range d.Nodes {
		n := g.AddNode()
		byID[nr.ID] = n
	}

	for _, er := range d.Edges {
		id := repeatgraph.EdgeID(er.ID)
		left, right := byID[er.LeftID], byID[er.RightID]
		if left == nil || right == nil {
			return nil, fmt.Errorf("graphio: edge %d references unknown node", id)
		}
		if er.SelfComplement {
			g.AddEdgePair(id, left, right, left, right, er.Length, er.MeanCoverage, true)
		} else {
			// The dump only stores the canonical strand's endpoints; the
			// complement's endpoints mirror them (rc-left == right,
			// rc-right == left) under the assumption that a physical
			// edge's two strands sit symmetrically across the same node
			// pair, which holds for every graph this resolver builds
			// itself (excise/unroll always rewire both strands).
			e, _ := g.AddEdgePair(id, left, right, right, left, er.Length, er.MeanCoverage, false)
			e.AltHaplotype = er.AltHaplotype
			g.ComplementEdge(e).AltHaplotype = er.AltHaplotype
		}
	}
	return g, nil
}
