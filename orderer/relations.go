package orderer

import "github.com/rpmcore/rpmcore/rpmpkg"

// relation holds one package's dependency edges: pre are the packages it
// must follow (flag 2 hard, 1 soft), post are the packages that must
// follow it.
type relation struct {
	pre  map[*rpmpkg.Package]int
	post map[*rpmpkg.Package]bool
}

func newRelation() *relation {
	return &relation{pre: make(map[*rpmpkg.Package]int), post: make(map[*rpmpkg.Package]bool)}
}

// relations is an insertion-ordered adjacency map over the transaction's
// packages — the Go analogue of orderer.py's HashList-backed _Relations,
// where insertion order matters for deterministic leaf selection during
// emission.
type relations struct {
	byPkg map[*rpmpkg.Package]*relation
	order []*rpmpkg.Package
}

func newRelations() *relations {
	return &relations{byPkg: make(map[*rpmpkg.Package]*relation)}
}

func (rs *relations) len() int { return len(rs.order) }

func (rs *relations) ensure(pkg *rpmpkg.Package) *relation {
	r, ok := rs.byPkg[pkg]
	if !ok {
		r = newRelation()
		rs.byPkg[pkg] = r
		rs.order = append(rs.order, pkg)
	}
	return r
}

// append records that pkg depends on pre with strength flag (2 hard, 1
// soft, preferring hard over a previously recorded soft edge); pre == nil
// registers pkg with no dependency at all (the "empty relation" pyrpm
// inserts for a package whose requirements all resolved outside the
// transaction). Ported from orderer.py's _Relations.append.
func (rs *relations) append(pkg, pre *rpmpkg.Package, flag int) {
	if pre == pkg {
		return
	}
	r := rs.ensure(pkg)
	if pre == nil {
		return
	}
	if existing, ok := r.pre[pre]; !ok {
		r.pre[pre] = flag
	} else if flag == 2 && existing == 1 {
		r.pre[pre] = flag
	}
	preRel := rs.ensure(pre)
	preRel.post[pkg] = true
}

// remove deletes pkg and every edge referencing it, ported from
// orderer.py's _Relations.remove.
func (rs *relations) remove(pkg *rpmpkg.Package) {
	r, ok := rs.byPkg[pkg]
	if !ok {
		return
	}
	for p := range r.pre {
		if pr, ok := rs.byPkg[p]; ok {
			delete(pr.post, pkg)
		}
	}
	for p := range r.post {
		if pr, ok := rs.byPkg[p]; ok {
			delete(pr.pre, pkg)
		}
	}
	delete(rs.byPkg, pkg)
	for i, p := range rs.order {
		if p == pkg {
			rs.order = append(rs.order[:i], rs.order[i+1:]...)
			break
		}
	}
}

// packages returns a stable snapshot of the current insertion order, safe
// to range over while mutating rs.
func (rs *relations) packages() []*rpmpkg.Package {
	out := make([]*rpmpkg.Package, len(rs.order))
	copy(out, rs.order)
	return out
}

func indexOf(path []*rpmpkg.Package, pkg *rpmpkg.Package) int {
	for i, p := range path {
		if p == pkg {
			return i
		}
	}
	return -1
}
