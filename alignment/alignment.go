// Package alignment models read-to-graph alignments and the index the
// complex-bubble detector scans them through. Producing alignments (the
// read aligner itself) is out of this package's scope; see bamalign for a
// concrete Aligner backed by BAM records.
package alignment

import "github.com/eernst/hetresolve/repeatgraph"

// Overlap carries the read-coordinate span an EdgeAlignment covers.
type Overlap struct {
	CurStart int
	CurEnd   int
}

// EdgeAlignment is one edge crossing within a read's alignment path.
type EdgeAlignment struct {
	Edge    *repeatgraph.Edge
	Overlap Overlap
}

// Alignment is an ordered sequence of edge crossings for a single read.
// Only alignments with at least two crossings carry any topological
// information and are considered by the resolver.
type Alignment []EdgeAlignment

// Span returns the read-coordinate distance from the end of the first
// crossing to the end of the last one, used to rank candidate branch
// paths from longest to shortest.
func (a Alignment) Span() int {
	if len(a) == 0 {
		return 0
	}
	return a[len(a)-1].Overlap.CurEnd - a[0].Overlap.CurEnd
}

// SuffixFrom returns the sub-alignment beginning at the first occurrence
// of edge id, or nil if id never appears.
func (a Alignment) SuffixFrom(id repeatgraph.EdgeID) Alignment {
	for i, ea := range a {
		if ea.Edge.ID == id {
			return a[i:]
		}
	}
	return nil
}

// Aligner is the external read-to-graph aligner the resolver consults.
// Producing and re-projecting alignments after a structural rewire is its
// responsibility, not the resolver's.
type Aligner interface {
	GetAlignments() []Alignment
	UpdateAlignments()
}

// Index maps each graph edge to the alignments that cross it. Per the
// spec, an alignment is listed once per distinct edge it crosses (an
// edge visited twice by one read contributes that read's alignment to
// its bucket only once).
type Index struct {
	byEdge map[repeatgraph.EdgeID][]Alignment
}

// BuildIndex constructs the alignment index from alns, considering only
// alignments of length greater than 1.
func BuildIndex(alns []Alignment) *Index {
	idx := &Index{byEdge: make(map[repeatgraph.EdgeID][]Alignment)}
	for _, aln := range alns {
		if len(aln) <= 1 {
			continue
		}
		seen := make(map[repeatgraph.EdgeID]bool, len(aln))
		for _, ea := range aln {
			if seen[ea.Edge.ID] {
				continue
			}
			seen[ea.Edge.ID] = true
			idx.byEdge[ea.Edge.ID] = append(idx.byEdge[ea.Edge.ID], aln)
		}
	}
	return idx
}

// AlignmentsFor returns the alignments known to cross edge id.
func (idx *Index) AlignmentsFor(id repeatgraph.EdgeID) []Alignment {
	return idx.byEdge[id]
}
