package resolver

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rpmcore/rpmcore/pkgdb"
	"github.com/rpmcore/rpmcore/rpmconfig"
	"github.com/rpmcore/rpmcore/rpmpkg"
	"github.com/rpmcore/rpmcore/version"
)

// Resolver turns a sequence of Install/Update/Freshen/Erase requests into a
// verified, consistent transaction against a pkgdb.DB. It carries no
// process-global state (unlike pyrpm's RpmResolver, which read/wrote a
// module-global RpmConfig) — every Resolver is constructed with its own
// database handle and config.
type Resolver struct {
	db  *pkgdb.DB
	cfg rpmconfig.Config
	log zerolog.Logger

	// installs/erases are the handles this transaction has added or
	// marked for removal so far, in request order — pyrpm's self.installs
	// / self.erases lists.
	installs []pkgdb.Handle
	erases   map[pkgdb.Handle]bool

	// checkInstalls/checkErases are the dependency-recheck frontier:
	// packages whose Requires/Conflicts/file-ownership need
	// re-verification on the next Resolve() pass, pyrpm's
	// self.check_installs / self.check_erases sets fed into
	// iterUnresolvedDependencies.
	checkInstalls map[pkgdb.Handle]bool
	checkErases   map[pkgdb.Handle]bool

	// updates/obsoletes record, for each newly installed handle, which
	// previously-installed handles it supersedes by version (Update) or
	// by Obsoletes: match — pyrpm's self.updates / self.obsoletes dicts.
	// The superseded handles are also put in erases, which is what
	// Resolve acts on; Resolve does not read these two maps.
	updates   map[pkgdb.Handle][]pkgdb.Handle
	obsoletes map[pkgdb.Handle][]pkgdb.Handle

	// checkFileRequires mirrors pyrpm's config.checkfilerequires: when
	// true, a package Requires-ing a bare path (e.g. Requires:
	// /bin/sh) is resolved against the file-ownership index rather
	// than only the provide index.
	checkFileRequires bool
}

// New returns a Resolver operating against db under cfg. log receives
// structured diagnostics for every resolution decision, in the teacher's
// zerolog idiom.
func New(db *pkgdb.DB, cfg rpmconfig.Config, log zerolog.Logger) *Resolver {
	return &Resolver{
		db:                db,
		cfg:               cfg,
		log:               log,
		erases:            make(map[pkgdb.Handle]bool),
		checkInstalls:     make(map[pkgdb.Handle]bool),
		checkErases:       make(map[pkgdb.Handle]bool),
		updates:           make(map[pkgdb.Handle][]pkgdb.Handle),
		obsoletes:         make(map[pkgdb.Handle][]pkgdb.Handle),
		checkFileRequires: true,
	}
}

// archIncompat reports whether candidate's arch cannot coexist with
// installed's — after pyrpm's RpmResolver.__arch_incompat: identical archs
// and pairs involving "noarch" are compatible; any other pair is
// incompatible only when cfg.ExactArch is set. Arch families are not
// consulted.
func (r *Resolver) archIncompat(installedArch, candidateArch string) bool {
	if installedArch == candidateArch {
		return false
	}
	if installedArch == "noarch" || candidateArch == "noarch" {
		return false
	}
	if r.cfg.ExactArch {
		return true
	}
	return false
}

// findInstalled returns the handle of an installed package with the given
// name, if any, preferring the first match — pyrpm's isInstalled.
func (r *Resolver) findInstalled(name string) (pkgdb.Handle, bool) {
	for _, h := range r.db.ByName(name) {
		if r.erases[h] {
			continue
		}
		return h, true
	}
	return 0, false
}

// Install adds pkg as a fresh install. It fails with ErrAlreadyInstalled if
// an identical NEVRA is already present, ErrArchIncompat if an
// architecture-incompatible package of the same name is installed, and
// ErrOldPackage if an installed package of the same name is newer and
// cfg.OldPackage does not override that protection — ported from
// pyrpm/resolver.py's RpmResolver.install / _pkgUpdate.
func (r *Resolver) Install(pkg *rpmpkg.Package) (pkgdb.Handle, error) {
	return r.addPackage(pkg, false)
}

// Update installs pkg and, if an older package of the same name is
// installed, schedules it for erasure once the transaction resolves —
// ported from RpmResolver.update / _inheritUpdates.
func (r *Resolver) Update(pkg *rpmpkg.Package) (pkgdb.Handle, error) {
	return r.addPackage(pkg, true)
}

// Freshen updates to pkg only if a package of the same name (of any
// version) is already installed; otherwise it fails with ErrNotInstalled —
// ported from
// RpmResolver.freshen, which treats a fresh name as a no-op success in
// pyrpm but this module surfaces as an explicit error since a Go caller
// cannot otherwise distinguish "skipped" from "applied".
func (r *Resolver) Freshen(pkg *rpmpkg.Package) (pkgdb.Handle, error) {
	if _, ok := r.findInstalled(pkg.Name()); !ok {
		return 0, ErrNotInstalled
	}
	return r.addPackage(pkg, true)
}

func (r *Resolver) addPackage(pkg *rpmpkg.Package, update bool) (pkgdb.Handle, error) {
	nevra := pkg.NEVRA()
	for _, h := range r.db.ByName(pkg.Name()) {
		if r.erases[h] {
			continue
		}
		old := r.db.Get(h)
		if old.NEVRA() == nevra {
			return 0, errors.Wrapf(ErrAlreadyInstalled, "%s", nevra)
		}
		if r.archIncompat(old.Arch(), pkg.Arch()) {
			return 0, errors.Wrapf(ErrArchIncompat, "%s vs installed %s", pkg.Arch(), old.Arch())
		}
	}

	var superseded []pkgdb.Handle
	for _, h := range r.db.ByName(pkg.Name()) {
		if r.erases[h] {
			continue
		}
		old := r.db.Get(h)
		if version.Cmp(old.EVR(), pkg.EVR()) > 0 {
			if !update && !r.cfg.OldPackage {
				return 0, errors.Wrapf(ErrOldPackage, "%s older than installed %s", nevra, old.NEVRA())
			}
			continue
		}
		superseded = append(superseded, h)
	}

	h := r.db.AddPkg(pkg)
	r.installs = append(r.installs, h)
	r.checkInstalls[h] = true

	if update && len(superseded) > 0 {
		r.updates[h] = superseded
		for _, old := range superseded {
			r.erases[old] = true
			r.checkErases[old] = true
		}
	}

	for _, dep := range pkg.Obsoletes() {
		for _, oh := range r.db.SearchProvides(dep.Name) {
			if oh == h || r.erases[oh] {
				continue
			}
			old := r.db.Get(oh)
			if dep.Overlaps(old.SelfProvide()) {
				r.obsoletes[h] = append(r.obsoletes[h], oh)
				r.erases[oh] = true
				r.checkErases[oh] = true
			}
		}
	}

	return h, nil
}

// Erase marks h for removal from the database. It fails with
// ErrNotInstalled if h does not name a live package — ported from
// RpmResolver.erase.
func (r *Resolver) Erase(h pkgdb.Handle) error {
	if r.db.Get(h) == nil || r.erases[h] {
		return ErrNotInstalled
	}
	r.erases[h] = true
	r.checkErases[h] = true
	return nil
}
