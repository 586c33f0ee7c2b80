// Package bamalign implements alignment.Aligner by reading read-to-edge
// alignments out of a BAM file, the same way findPath.go's GetSamRecord
// reads *sam.Record groups off a bam.Reader: group consecutive records by
// read name, keep the ones with a clean two/three-block cigar, and turn
// each group into one alignment.Alignment.
//
// The BAM's reference sequence names are expected to be the decimal
// string form of the canonical EdgeID each reference stands for (the
// repeat-graph builder that writes such a BAM owns that convention; this
// package just consumes it).
package bamalign

import (
	"fmt"
	"os"
	"strconv"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/eernst/hetresolve/alignment"
	"github.com/eernst/hetresolve/hrlog"
	"github.com/eernst/hetresolve/repeatgraph"
)

// Aligner is a BAM-backed alignment.Aligner. It re-derives its alignment
// set from the BAM file every time UpdateAlignments is called: the
// resolver never deletes or splits edges, only rewires their endpoints,
// so the same reference-name -> edge lookup stays valid across a
// structural mutation and re-reading is just cheap insurance against the
// underlying edge coverage having changed.
type Aligner struct {
	path string
	g    *repeatgraph.Graph

	alignments []alignment.Alignment
}

// New returns an Aligner that will read path against g's edges, keyed by
// EdgeID string.
func New(path string, g *repeatgraph.Graph) *Aligner {
	a := &Aligner{path: path, g: g}
	a.UpdateAlignments()
	return a
}

// GetAlignments returns the alignment set built by the most recent load.
func (a *Aligner) GetAlignments() []alignment.Alignment {
	return a.alignments
}

// UpdateAlignments reloads the BAM file and re-projects every read's
// alignment path onto the current graph.
func (a *Aligner) UpdateAlignments() {
	alignments, err := a.load()
	if err != nil {
		hrlog.Debugf("bamalign", "reload failed, keeping previous alignments: %v", err)
		return
	}
	a.alignments = alignments
}

func (a *Aligner) load() ([]alignment.Alignment, error) {
	fp, err := os.Open(a.path)
	if err != nil {
		return nil, fmt.Errorf("bamalign: open %s: %w", a.path, err)
	}
	defer fp.Close()

	bamfp, err := bam.NewReader(fp, 0)
	if err != nil {
		return nil, fmt.Errorf("bamalign: new reader: %w", err)
	}
	defer bamfp.Close()

	var out []alignment.Alignment
	var group []*sam.Record
	flush := func() {
		if len(group) < 2 {
			group = group[:0]
			return
		}
		aln := a.buildAlignment(group)
		if len(aln) >= 2 {
			out = append(out, aln)
		}
		group = group[:0]
	}

	for {
		r, err := bamfp.Read()
		if err != nil {
			break
		}
		if len(r.Cigar) < 2 || len(r.Cigar) > 3 {
			continue
		}
		if len(group) > 0 && group[0].Name != r.Name {
			flush()
		}
		group = append(group, r)
	}
	flush()

	return out, nil
}

func (a *Aligner) buildAlignment(group []*sam.Record) alignment.Alignment {
	aln := make(alignment.Alignment, 0, len(group))
	pos := 0
	for _, r := range group {
		edge := a.edgeForRef(r.Ref)
		if edge == nil {
			continue
		}
		length := r.Len()
		aln = append(aln, alignment.EdgeAlignment{
			Edge: edge,
			Overlap: alignment.Overlap{
				CurStart: pos,
				CurEnd:   pos + length,
			},
		})
		pos += length
	}
	return aln
}

func (a *Aligner) edgeForRef(ref *sam.Reference) *repeatgraph.Edge {
	if ref == nil {
		return nil
	}
	id, err := strconv.ParseInt(ref.Name(), 10, 32)
	if err != nil {
		return nil
	}
	return a.g.Edge(repeatgraph.EdgeID(id))
}
