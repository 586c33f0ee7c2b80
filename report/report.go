// Package report writes the complex-bubble descriptors findComplexHaplotypes
// detects to a brotli-compressed, one-JSON-object-per-line file, the same
// compressor constructcf.go reaches for on its own bulk output
// (cbrotli.NewWriter(fp, cbrotli.WriterOptions{Quality: 1})).
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/eernst/hetresolve/haplotype"
	"github.com/google/brotli/go/cbrotli"
)

type branchJSON struct {
	EdgeIDs []int32 `json:"edge_ids"`
	Score   int     `json:"score"`
}

type bubbleJSON struct {
	StartEdge int32        `json:"start_edge"`
	EndEdge   int32        `json:"end_edge"`
	Branches  []branchJSON `json:"branches"`
}

// WriteComplexBubbles brotli-compresses bubbles as newline-delimited JSON
// onto w.
func WriteComplexBubbles(bubbles []haplotype.ComplexBubble, w io.Writer) error {
	bw := cbrotli.NewWriter(w, cbrotli.WriterOptions{Quality: 1})
	defer bw.Close()

	enc := json.NewEncoder(bw)
	for _, b := range bubbles {
		bj := bubbleJSON{
			StartEdge: int32(b.StartEdge.ID),
			EndEdge:   int32(b.EndEdge.ID),
		}
		for _, branch := range b.Branches {
			ids := make([]int32, len(branch.Path))
			for i, ea := range branch.Path {
				ids[i] = int32(ea.Edge.ID)
			}
			bj.Branches = append(bj.Branches, branchJSON{EdgeIDs: ids, Score: branch.Score})
		}
		if err := enc.Encode(&bj); err != nil {
			return fmt.Errorf("report: encode bubble: %w", err)
		}
	}
	return nil
}

// ReadComplexBubbles decompresses a report written by WriteComplexBubbles
// back into the plain JSON shape, for tooling that doesn't need the live
// graph edges (the boundary and branch edge IDs, without *repeatgraph.Edge
// back-references).
func ReadComplexBubbles(r io.Reader) ([]bubbleJSON, error) {
	br := cbrotli.NewReader(r)
	defer br.Close()

	var out []bubbleJSON
	dec := json.NewDecoder(br)
	for dec.More() {
		var bj bubbleJSON
		if err := dec.Decode(&bj); err != nil {
			return nil, fmt.Errorf("report: decode bubble: %w", err)
		}
		out = append(out, bj)
	}
	return out, nil
}
