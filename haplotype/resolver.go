// Package haplotype implements the three heterozygosity-collapse
// algorithms the module exists to provide: bulge collapse, loop collapse,
// and complex-bubble detection. All three share one GraphProcessor-derived
// unbranching-path view per call, scan it read-only, and defer every
// structural mutation to a second pass — ported from
// haplotype_resolver.cpp's collapseHeterozygousBulges/
// collapseHeterozygousLoops/findComplexHaplotypes.
package haplotype

import (
	"sort"

	"github.com/eernst/hetresolve/alignment"
	"github.com/eernst/hetresolve/config"
	"github.com/eernst/hetresolve/hrlog"
	"github.com/eernst/hetresolve/internal/numeric"
	"github.com/eernst/hetresolve/pathkey"
	"github.com/eernst/hetresolve/repeatgraph"
	"github.com/willf/bitset"
)

// Resolver holds the injected collaborators the spec calls out: the
// graph, the aligner, and a narrow config lookup. It is not safe for
// concurrent use; a call owns g exclusively until it returns.
type Resolver struct {
	g       *repeatgraph.Graph
	aligner alignment.Aligner
	cfg     config.Config
}

// New builds a Resolver over the given graph, aligner, and config.
func New(g *repeatgraph.Graph, aligner alignment.Aligner, cfg config.Config) *Resolver {
	return &Resolver{g: g, aligner: aligner, cfg: cfg}
}

// Graph returns the graph the resolver was built over, for callers that
// need to serialize or export it after a mutating pass.
func (r *Resolver) Graph() *repeatgraph.Graph {
	return r.g
}

const maxCovVarBulge = 1.5
const covMultLoop = 1.5

// CollapseHeterozygousBulges finds two-branch bubbles caused by
// alternative haplotypes and either masks (apply=false) or excises
// (apply=true) the weaker branch. It returns the number of bulges acted
// on, counting each strand pair once.
func (r *Resolver) CollapseHeterozygousBulges(apply bool) int {
	maxBubbleLen := r.cfg.Get(config.MaxBubbleLengthKey)

	proc := repeatgraph.NewGraphProcessor(r.g)
	paths := proc.GetUnbranchingPaths()

	toSeparate := make(map[repeatgraph.EdgeID]bool)
	numMasked := 0

	for _, path := range paths {
		if path.IsLooped() {
			continue
		}

		var twoPaths []*repeatgraph.UnbranchingPath
		for _, cand := range paths {
			if cand.NodeLeft() == path.NodeLeft() && cand.NodeRight() == path.NodeRight() {
				twoPaths = append(twoPaths, cand)
			}
		}
		if len(twoPaths) != 2 {
			continue
		}
		a, b := twoPaths[0], twoPaths[1]

		if a.ID == b.ID.Rc() {
			continue
		}
		if toSeparate[a.ID] || toSeparate[b.ID] {
			continue
		}

		left, right := a.NodeLeft(), a.NodeRight()
		if left.InDegree() != 1 || left.OutDegree() != 2 ||
			right.OutDegree() != 1 || right.InDegree() != 2 {
			continue
		}

		var entrancePath, exitPath *repeatgraph.UnbranchingPath
		for _, cand := range paths {
			if cand.NodeRight() == left {
				entrancePath = cand
			}
			if cand.NodeLeft() == right {
				exitPath = cand
			}
		}
		if entrancePath == nil || exitPath == nil {
			continue
		}

		if numeric.MaxInt(a.Length(), b.Length()) > maxBubbleLen {
			continue
		}

		covSum := a.MeanCoverage() + b.MeanCoverage()
		if covSum > maxCovVarBulge*numeric.MinFloat64(entrancePath.MeanCoverage(), exitPath.MeanCoverage()) {
			continue
		}

		// Bubble branches must be shorter than entrance/exit, to
		// distinguish from two consecutive repeats of multiplicity 2.
		if numeric.MaxInt(a.Length(), b.Length()) > numeric.MaxInt(entrancePath.Length(), exitPath.Length()) {
			continue
		}

		if a.MeanCoverage() > b.MeanCoverage() {
			a, b = b, a
		}

		if !a.FirstEdge().AltHaplotype || !b.FirstEdge().AltHaplotype {
			numMasked++
		}

		for _, p := range [2]*repeatgraph.UnbranchingPath{a, b} {
			for _, e := range p.Edges {
				r.g.SetAltHaplotype(e, true)
			}
		}

		if apply {
			toSeparate[a.ID] = true
			toSeparate[a.ID.Rc()] = true

			weakCov := a.MeanCoverage()
			for _, e := range b.Edges {
				r.g.AddCoverage(e, weakCov)
				r.g.SetAltHaplotype(e, false)
			}
		}
	}

	if !apply {
		hrlog.Debugf("collapseHeterozygousBulges", "masked %d heterozygous bulges", numMasked)
		return numMasked
	}

	for _, path := range paths {
		if toSeparate[path.ID] {
			r.g.Excise(path.FirstEdge(), path.LastEdge())
		}
	}

	removed := len(toSeparate) / 2
	hrlog.Debugf("collapseHeterozygousBulges", "removed %d heterozygous bulges", removed)
	if r.aligner != nil {
		r.aligner.UpdateAlignments()
	}
	return removed
}

// CollapseHeterozygousLoops finds single self-loop edges on a backbone
// node and either masks or, depending on relative coverage, unrolls or
// detaches them. It returns the number of loops acted on, counting each
// strand pair once.
func (r *Resolver) CollapseHeterozygousLoops(apply bool) int {
	proc := repeatgraph.NewGraphProcessor(r.g)
	paths := proc.GetUnbranchingPaths()

	toUnroll := make(map[repeatgraph.EdgeID]bool)
	toRemove := make(map[repeatgraph.EdgeID]bool)
	numMasked := 0

	for _, loop := range paths {
		if !loop.ID.Strand() {
			continue
		}
		if !loop.IsLooped() {
			continue
		}
		if loop.FirstEdge().SelfComplement {
			continue
		}

		node := loop.NodeLeft()
		if node.InDegree() != 2 || node.OutDegree() != 2 {
			continue
		}

		var entrancePath, exitPath *repeatgraph.UnbranchingPath
		for _, cand := range paths {
			if cand.NodeRight() == node && loop.ID != cand.ID {
				entrancePath = cand
			}
			if cand.NodeLeft() == node && loop.ID != cand.ID {
				exitPath = cand
			}
		}
		if entrancePath == nil || exitPath == nil {
			continue
		}
		if entrancePath.IsLooped() {
			continue
		}
		if entrancePath.ID == exitPath.ID.Rc() {
			continue
		}

		// NOTE: compares entrancePath's coverage against itself rather
		// than min(entrance, exit). Preserved verbatim from the
		// specification (a suspected typo, flagged for maintainers, not
		// "fixed" here — see SPEC_FULL.md open questions).
		if loop.MeanCoverage() > covMultLoop*numeric.MinFloat64(entrancePath.MeanCoverage(), entrancePath.MeanCoverage()) {
			continue
		}

		if loop.Length() > numeric.MaxInt(entrancePath.Length(), exitPath.Length()) {
			continue
		}

		if !loop.FirstEdge().AltHaplotype {
			numMasked++
		}
		for _, e := range loop.Edges {
			r.g.SetAltHaplotype(e, true)
		}

		if loop.MeanCoverage() < (entrancePath.MeanCoverage()+exitPath.MeanCoverage())/4 {
			toRemove[loop.ID] = true
			toRemove[loop.ID.Rc()] = true
		} else {
			toUnroll[loop.ID] = true
			toUnroll[loop.ID.Rc()] = true
		}
	}

	if !apply {
		hrlog.Debugf("collapseHeterozygousLoops", "masked %d heterozygous loops", numMasked)
		return numMasked
	}

	for _, path := range paths {
		if toUnroll[path.ID] {
			node := path.NodeLeft()
			var prevEdge *repeatgraph.Edge
			for _, in := range node.InEdges {
				if in != path.LastEdge() {
					prevEdge = in
				}
			}
			r.g.UnrollAt(node, path.FirstEdge(), prevEdge)
		}
		if toRemove[path.ID] {
			r.g.Excise(path.FirstEdge(), path.LastEdge())
		}
	}

	removed := (len(toRemove) + len(toUnroll)) / 2
	hrlog.Debugf("collapseHeterozygousLoops", "removed %d heterozygous loops", removed)
	if r.aligner != nil {
		r.aligner.UpdateAlignments()
	}
	return removed
}

// Branch is one distinguishable path through a complex bubble, scored by
// the number of alignments that support it.
type Branch struct {
	Path  alignment.Alignment
	Score int
}

// ComplexBubble is a multi-branch bubble bounded by a start and end edge
// that every branch shares.
type ComplexBubble struct {
	StartEdge *repeatgraph.Edge
	EndEdge   *repeatgraph.Edge
	Branches  []Branch
}

// FindComplexHaplotypes locates multi-branch heterozygous bubbles using
// read-alignment evidence. It currently has no effect on the graph (it
// always returns 0, matching the documented contract) but surfaces the
// detected bubbles for downstream callers — tests, phasing — instead of
// only logging them as the original implementation does.
func (r *Resolver) FindComplexHaplotypes() (int, []ComplexBubble) {
	var alignments []alignment.Alignment
	if r.aligner != nil {
		alignments = r.aligner.GetAlignments()
	}
	idx := alignment.BuildIndex(alignments)

	proc := repeatgraph.NewGraphProcessor(r.g)
	paths := proc.GetUnbranchingPaths()

	loopedEdges := bitset.New(0)
	for _, path := range paths {
		if path.IsLooped() {
			for _, e := range path.Edges {
				loopedEdges.Set(edgeBit(e.ID))
			}
		}
	}

	var bubbles []ComplexBubble

	for _, startPath := range paths {
		if !startPath.ID.Strand() {
			continue
		}
		if startPath.NodeRight().OutDegree() < 2 {
			continue
		}
		startEdge := startPath.LastEdge()
		if loopedEdges.Test(edgeBit(startEdge.ID)) {
			continue
		}

		bubble, ok := findBubbleAtStart(startEdge, idx, loopedEdges)
		if ok {
			bubbles = append(bubbles, bubble)
			logComplexBubble(startEdge, bubble)
		}
	}

	return 0, bubbles
}

type scoredGroup struct {
	path  alignment.Alignment
	score int
}

func findBubbleAtStart(startEdge *repeatgraph.Edge, idx *alignment.Index, loopedEdges *bitset.BitSet) (ComplexBubble, bool) {
	// 1. outgoing alignment suffixes, longest read-span first.
	var outPaths []alignment.Alignment
	for _, aln := range idx.AlignmentsFor(startEdge.ID) {
		if suf := aln.SuffixFrom(startEdge.ID); suf != nil {
			outPaths = append(outPaths, suf)
		}
	}
	if len(outPaths) == 0 {
		return ComplexBubble{}, false
	}
	sort.SliceStable(outPaths, func(i, j int) bool {
		return outPaths[i].Span() > outPaths[j].Span()
	})

	// 2. group by prefix containment.
	var groups []*scoredGroup
	for _, trg := range outPaths {
		contained := false
		for _, g := range groups {
			if isPrefixContained(trg, g.path) {
				g.score++
				contained = true
				break
			}
		}
		if !contained {
			groups = append(groups, &scoredGroup{path: trg, score: 1})
		}
	}

	// 3. prune groups below the minimum score.
	minScore := numeric.MaxInt(2, len(outPaths)/10)
	var kept []*scoredGroup
	for _, g := range groups {
		if g.score >= minScore {
			kept = append(kept, g)
		}
	}
	groups = kept
	if len(groups) < 2 {
		return ComplexBubble{}, false
	}

	// 4. edges appearing more than once within a single group's path are
	// repeats for this start.
	repeats := bitset.New(0)
	for _, g := range groups {
		seen := bitset.New(0)
		for _, ea := range g.path {
			bi := edgeBit(ea.Edge.ID)
			if seen.Test(bi) {
				repeats.Set(bi)
			}
			seen.Set(bi)
		}
	}

	// 5. convergence edges: the reference group's non-looped, non-repeat
	// edges, intersected with every other group's edge set.
	refGroup := groups[0]
	convergence := bitset.New(0)
	for _, ea := range refGroup.path {
		bi := edgeBit(ea.Edge.ID)
		if !loopedEdges.Test(bi) && !repeats.Test(bi) {
			convergence.Set(bi)
		}
	}
	for _, g := range groups[1:] {
		next := bitset.New(0)
		for _, ea := range g.path {
			bi := edgeBit(ea.Edge.ID)
			if convergence.Test(bi) {
				next.Set(bi)
			}
		}
		convergence = next
	}

	// 6. bubble start: last index where every group agrees with the
	// reference at i+1 and that edge is a convergence edge.
	bubbleStart := 0
	for {
		agree := true
		refNextIdx := bubbleStart + 1
		if refNextIdx >= len(refGroup.path) {
			break
		}
		refNext := refGroup.path[refNextIdx].Edge.ID
		if !convergence.Test(edgeBit(refNext)) {
			break
		}
		for _, g := range groups[1:] {
			if refNextIdx >= len(g.path) || g.path[refNextIdx].Edge.ID != refNext {
				agree = false
				break
			}
		}
		if !agree {
			break
		}
		bubbleStart++
	}

	// 7. bubble end: next reference index after bubbleStart that lands on
	// a convergence edge.
	bubbleEnd := -1
	for i := bubbleStart + 1; i < len(refGroup.path); i++ {
		if convergence.Test(edgeBit(refGroup.path[i].Edge.ID)) {
			bubbleEnd = i
			break
		}
	}
	if bubbleEnd == -1 {
		return ComplexBubble{}, false
	}

	// 8. extract and dedup branches.
	targetStart := refGroup.path[bubbleStart].Edge.ID
	targetEnd := refGroup.path[bubbleEnd].Edge.ID

	type keyedBranch struct {
		Branch
		key pathkey.Key
	}
	var branches []keyedBranch
	for _, g := range groups {
		startIdx, endIdx := -1, -1
		for i, ea := range g.path {
			if ea.Edge.ID == targetStart {
				startIdx = i
			}
			if ea.Edge.ID == targetEnd {
				endIdx = i
			}
		}
		if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
			continue
		}
		sub := append(alignment.Alignment{}, g.path[startIdx:endIdx+1]...)
		key := keyOfAlignment(sub)

		dup := false
		for i := range branches {
			if branches[i].key == key {
				branches[i].Score += g.score
				dup = true
				break
			}
		}
		if !dup {
			branches = append(branches, keyedBranch{Branch{Path: sub, Score: g.score}, key})
		}
	}
	if len(branches) < 2 {
		return ComplexBubble{}, false
	}

	out := make([]Branch, len(branches))
	for i, b := range branches {
		out[i] = b.Branch
	}

	return ComplexBubble{
		StartEdge: refGroup.path[bubbleStart].Edge,
		EndEdge:   refGroup.path[bubbleEnd].Edge,
		Branches:  out,
	}, true
}

func isPrefixContained(trg, ref alignment.Alignment) bool {
	n := numeric.MinInt(len(trg), len(ref))
	for i := 0; i < n; i++ {
		if trg[i].Edge.ID != ref[i].Edge.ID {
			return false
		}
	}
	return true
}

func keyOfAlignment(a alignment.Alignment) pathkey.Key {
	ids := make([]repeatgraph.EdgeID, len(a))
	for i, ea := range a {
		ids[i] = ea.Edge.ID
	}
	return pathkey.Of(ids)
}

// edgeBit maps a signed EdgeID onto a dense non-negative bitset index.
func edgeBit(id repeatgraph.EdgeID) uint {
	if id < 0 {
		return uint(-id)*2 + 1
	}
	return uint(id) * 2
}

func logComplexBubble(startEdge *repeatgraph.Edge, bubble ComplexBubble) {
	hrlog.Debugf("findComplexHaplotypes", "start edge %v, %d branches, boundaries %v -> %v",
		startEdge.ID, len(bubble.Branches), bubble.StartEdge.ID, bubble.EndEdge.ID)
	for i, b := range bubble.Branches {
		hrlog.Debugf("findComplexHaplotypes", "branch %d: %d edges, score %d", i, len(b.Path), b.Score)
	}
}
