package orderer

import (
	"github.com/rpmcore/rpmcore/rpmpkg"
	"github.com/rpmcore/rpmcore/rpmtag"
)

// operationFlag classifies a Requires' strength for ordering purposes:
// 2 if it is a hard requirement the dependent must follow, 1 if it is a
// soft (best-effort) ordering hint, 0 if it carries no ordering weight at
// all. Ported verbatim from orderer.py's RpmOrderer._operationFlag.
func operationFlag(sense rpmtag.Sense, op Operation) int {
	installPre := rpmtag.IsInstallPreReq(sense)
	erasePre := rpmtag.IsErasePreReq(sense)
	legacyPre := rpmtag.IsLegacyPreReq(sense)
	if op == OpErase {
		if !(installPre || !(erasePre || legacyPre)) {
			return 2
		}
		if !(installPre || (erasePre || legacyPre)) {
			return 1
		}
		return 0
	}
	if !(erasePre || !(installPre || legacyPre)) {
		return 2
	}
	if !(erasePre || (installPre || legacyPre)) {
		return 1
	}
	return 0
}

// genRelations builds the dependency graph for pkgs, resolving each
// Requires only against other packages in the same pkgs set — deliberately
// ignoring requirements satisfied elsewhere in the installed database,
// since ordering only needs to sequence the packages actually changing in
// this transaction. Ported from orderer.py's RpmOrderer.genRelations.
//
// genRelations always scores edge strength as if op were OpInstall,
// matching orderer.py's genRelations, which calls
// self._operationFlag(flag, OP_INSTALL) unconditionally even when building
// the erase sub-graph; op only controls which package set (installs vs.
// erases) genOrder passes in.
func (o *Orderer) genRelations(pkgs []*rpmpkg.Package, op Operation) *relations {
	rs := newRelations()

	provideIndex := make(map[string][]*rpmpkg.Package)
	for _, p := range pkgs {
		for _, d := range p.Provides() {
			provideIndex[d.Name] = append(provideIndex[d.Name], p)
		}
	}

	for _, p := range pkgs {
		empty := true
		for _, dep := range p.Requires() {
			if dep.IsConfig() {
				continue
			}
			f := operationFlag(dep.Sense, OpInstall)
			if f == 0 {
				continue
			}
			var providers []*rpmpkg.Package
			for _, cand := range provideIndex[dep.Name] {
				if cand == p {
					continue
				}
				for _, prov := range cand.Provides() {
					if prov.Name == dep.Name && dep.Overlaps(prov) {
						providers = append(providers, cand)
						break
					}
				}
			}
			if len(providers) == 0 {
				continue
			}
			empty = false
			for _, provider := range providers {
				rs.append(p, provider, f)
			}
		}
		if empty {
			o.log.Debug().Str("pkg", p.NEVRA()).Msg("orderer: no in-transaction relations, scheduling independently")
			rs.append(p, nil, 0)
		}
	}
	return rs
}
