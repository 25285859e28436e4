package orderer

import (
	"github.com/rs/zerolog"

	"github.com/rpmcore/rpmcore/rpmpkg"
)

// loop is one simple cycle found in a relations graph: a sequence of
// packages where each depends on the next, and the last depends back on
// the first.
type loop []*rpmpkg.Package

// genOrderFromRelations repeatedly peels leaf nodes off rs (packages with
// no unresolved pre edges, choosing the one with the most dependents first
// to keep heavily-depended-on packages earlier) until it is empty,
// breaking any cycle it encounters along the way. Ported from orderer.py's
// RpmOrderer._genOrder.
func genOrderFromRelations(rs *relations, log zerolog.Logger) ([]*rpmpkg.Package, error) {
	var order, last []*rpmpkg.Package
	for rs.len() > 0 {
		separatePostLeafNodes(rs, &last)
		if rs.len() == 0 {
			break
		}

		next := getNextLeafNode(rs)
		if next != nil {
			order = append(order, next)
			rs.remove(next)
			continue
		}

		loops := getLoops(rs)
		if !breakupLoops(rs, loops, log) {
			return nil, errUnbreakableLoop
		}
	}
	out := make([]*rpmpkg.Package, 0, len(order)+len(last))
	out = append(out, order...)
	out = append(out, last...)
	return out, nil
}

// separatePostLeafNodes repeatedly removes packages with no dependents
// (empty post set) from rs, prepending each to last in the order
// discovered — these trail the final order since nothing needs them to
// come first. Ported from orderer.py's _separatePostLeafNodes.
func separatePostLeafNodes(rs *relations, last *[]*rpmpkg.Package) {
	for {
		found := false
		for _, pkg := range rs.packages() {
			r, ok := rs.byPkg[pkg]
			if !ok {
				continue
			}
			if len(r.post) == 0 {
				*last = append([]*rpmpkg.Package{pkg}, *last...)
				rs.remove(pkg)
				found = true
			}
		}
		if !found {
			return
		}
	}
}

// getNextLeafNode returns the package with no remaining pre edges that has
// the most dependents, so the package most things rely on is scheduled as
// early as its own dependencies allow. Ported from orderer.py's
// _getNextLeafNode.
func getNextLeafNode(rs *relations) *rpmpkg.Package {
	var next *rpmpkg.Package
	best := -1
	for _, pkg := range rs.packages() {
		r := rs.byPkg[pkg]
		if len(r.pre) == 0 && len(r.post) > best {
			next = pkg
			best = len(r.post)
		}
	}
	return next
}

// detectLoops walks pre edges depth-first from pkg, recording every simple
// cycle it finds along path. Ported from orderer.py's _detectLoops.
func detectLoops(rs *relations, path []*rpmpkg.Package, pkg *rpmpkg.Package, loops *[]loop, used map[*rpmpkg.Package]bool) {
	if used[pkg] {
		return
	}
	used[pkg] = true
	r := rs.byPkg[pkg]
	for p := range r.pre {
		if len(path) > 0 {
			if idx := indexOf(path, p); idx >= 0 {
				w := append(append(loop{}, path[idx:]...), pkg, p)
				*loops = append(*loops, w)
				continue
			}
		}
		w := append(append([]*rpmpkg.Package{}, path...), pkg)
		detectLoops(rs, w, p, loops, used)
	}
}

// getLoops enumerates every simple cycle reachable in rs. Ported from
// orderer.py's RpmOrderer.getLoops.
func getLoops(rs *relations) []loop {
	var loops []loop
	used := make(map[*rpmpkg.Package]bool)
	for _, pkg := range rs.packages() {
		if !used[pkg] {
			detectLoops(rs, nil, pkg, &loops, used)
		}
	}
	return loops
}

// genCounter tallies how many discovered loops traverse each directed
// edge, the basis breakupLoops uses to pick which edge to cut. Ported from
// orderer.py's RpmOrderer.genCounter.
func genCounter(loops []loop) map[*rpmpkg.Package]map[*rpmpkg.Package]int {
	counter := make(map[*rpmpkg.Package]map[*rpmpkg.Package]int)
	for _, w := range loops {
		for j := 0; j < len(w)-1; j++ {
			node, next := w[j], w[j+1]
			if counter[node] == nil {
				counter[node] = make(map[*rpmpkg.Package]int)
			}
			counter[node][next]++
		}
	}
	return counter
}

// breakupLoops removes the single edge most responsible for the cycles in
// loops, preferring a soft (flag 1) edge over a hard one — a hard edge
// ("zapping" a PreReq) is only cut once no soft edge participates in any
// loop at all. Returns false if loops was empty and nothing could be
// broken. Ported from orderer.py's RpmOrderer.breakupLoops.
func breakupLoops(rs *relations, loops []loop, log zerolog.Logger) bool {
	counter := genCounter(loops)

	var maxNode, maxNext *rpmpkg.Package
	maxCount := 0
	for node, nexts := range counter {
		for next, count := range nexts {
			if maxCount < count && rs.byPkg[node].pre[next] == 1 {
				maxNode, maxNext, maxCount = node, next, count
			}
		}
	}
	if maxNode != nil {
		log.Debug().Str("from", maxNode.NEVRA()).Str("dep", maxNext.NEVRA()).Int("count", maxCount).
			Msg("orderer: breaking soft dependency loop")
		delete(rs.byPkg[maxNode].pre, maxNext)
		delete(rs.byPkg[maxNext].post, maxNode)
		return true
	}

	maxNode, maxNext = nil, nil
	maxCount = 0
	for node, nexts := range counter {
		for next, count := range nexts {
			if maxCount < count {
				maxNode, maxNext, maxCount = node, next, count
			}
		}
	}
	if maxNode != nil {
		log.Warn().Str("from", maxNode.NEVRA()).Str("dep", maxNext.NEVRA()).Int("count", maxCount).
			Msg("orderer: zapping hard dependency loop")
		delete(rs.byPkg[maxNode].pre, maxNext)
		delete(rs.byPkg[maxNext].post, maxNode)
		return true
	}

	return false
}
