package resolver

import (
	"github.com/pkg/errors"

	"github.com/rpmcore/rpmcore/pkgdb"
	"github.com/rpmcore/rpmcore/rpmpkg"
	"github.com/rpmcore/rpmcore/rpmtag"
)

// Result is the outcome of a successful Resolve: the handles that ended up
// installed and erased once updates/obsoletes/erase cascades settled.
type Result struct {
	Installed []pkgdb.Handle
	Erased    []pkgdb.Handle
}

// Resolve drains the dependency-recheck frontier built up by Install/Update/
// Freshen/Erase, verifying the transaction is internally consistent, then
// commits it against the database. It runs, in order, the same three checks
// pyrpm/resolver.py's RpmResolver.resolve does: checkDependencies,
// checkConflicts (skipped if cfg.NoConflicts), checkFileConflicts (skipped
// if cfg.NoFileConflicts). Scheduled erasures are removed from the database
// only once every check passes; packages added by Install/Update/Freshen are
// already in the database and stay there if a check fails.
func (r *Resolver) Resolve() (Result, error) {
	if err := r.checkDependencies(); err != nil {
		return Result{}, err
	}
	if !r.cfg.NoConflicts {
		if err := r.checkConflicts(); err != nil {
			return Result{}, err
		}
	}
	if !r.cfg.NoFileConflicts {
		if err := r.checkFileConflicts(); err != nil {
			return Result{}, err
		}
	}

	erased := make([]pkgdb.Handle, 0, len(r.erases))
	for h := range r.erases {
		erased = append(erased, h)
		r.db.RemovePkg(h)
	}
	installed := make([]pkgdb.Handle, len(r.installs))
	copy(installed, r.installs)

	r.checkInstalls = make(map[pkgdb.Handle]bool)
	r.checkErases = make(map[pkgdb.Handle]bool)
	r.installs = nil
	r.erases = make(map[pkgdb.Handle]bool)

	return Result{Installed: installed, Erased: erased}, nil
}

// live reports whether h is a package the database still carries and that
// this transaction has not scheduled for erasure.
func (r *Resolver) live(h pkgdb.Handle) bool {
	return r.db.Get(h) != nil && !r.erases[h]
}

// resolvesAgainstProvides reports whether dep is satisfied by some live
// package's Provides set, other than excludeSelf.
func (r *Resolver) resolvesAgainstProvides(dep rpmpkg.Dependency, excludeSelf pkgdb.Handle) bool {
	for _, h := range r.db.SearchProvides(dep.Name) {
		if h == excludeSelf || !r.live(h) {
			continue
		}
		pkg := r.db.Get(h)
		for _, prov := range pkg.Provides() {
			if prov.Name != dep.Name {
				continue
			}
			if dep.Overlaps(prov) {
				return true
			}
		}
	}
	return false
}

// resolvesAgainstFiles reports whether dep names a path owned by some live
// package other than excludeSelf — the fallback checkDependencies applies
// when checkFileRequires is set and no Provides matched.
func (r *Resolver) resolvesAgainstFiles(dep rpmpkg.Dependency, excludeSelf pkgdb.Handle) bool {
	if !r.checkFileRequires || len(dep.Name) == 0 || dep.Name[0] != '/' {
		return false
	}
	for _, h := range r.db.SearchFilename(dep.Name) {
		if h != excludeSelf && r.live(h) {
			return true
		}
	}
	return false
}

// checkDependencies verifies every Requires of every package on the
// check-install frontier resolves against a live Provides or owned file,
// and that erasing any package on the check-erase frontier does not strand
// a Requires of some other still-live package — ported from
// pyrpm/resolver.py's iterUnresolvedDependencies / checkDependencies.
func (r *Resolver) checkDependencies() error {
	for h := range r.checkInstalls {
		pkg := r.db.Get(h)
		if pkg == nil {
			continue
		}
		for _, dep := range pkg.Requires() {
			if dep.IsRPMLib() || dep.IsConfig() {
				continue
			}
			if r.resolvesAgainstProvides(dep, h) || r.resolvesAgainstFiles(dep, h) {
				continue
			}
			return errors.Wrapf(ErrUnresolvedDependency, "%s: unresolved requirement %s", pkg.NEVRA(), dep.Name)
		}
	}

	for h := range r.checkErases {
		pkg := r.db.Get(h)
		if pkg == nil {
			continue
		}
		for _, prov := range pkg.Provides() {
			for _, dependent := range r.db.SearchRequires(prov.Name) {
				if dependent == h || !r.live(dependent) {
					continue
				}
				dpkg := r.db.Get(dependent)
				var stillSatisfied bool
				for _, dep := range dpkg.Requires() {
					if dep.Name != prov.Name {
						continue
					}
					if r.resolvesAgainstProvides(dep, 0) || r.resolvesAgainstFiles(dep, 0) {
						stillSatisfied = true
					}
				}
				if !stillSatisfied {
					return errors.Wrapf(ErrUnresolvedDependency, "erasing %s would break %s's requirement on %s", pkg.NEVRA(), dpkg.NEVRA(), prov.Name)
				}
			}
		}
	}
	return nil
}

// checkConflicts verifies, for every package added in this transaction, that
// its Conflicts ranges overlap no other live package's Provides and that no
// other live package's Conflicts overlap its Provides — ported from
// RpmResolver.getConflicts / checkConflicts. Obsoletes ranges are not
// checked here.
func (r *Resolver) checkConflicts() error {
	for _, h := range r.installs {
		pkg := r.db.Get(h)
		if pkg == nil {
			continue
		}
		for _, dep := range pkg.Conflicts() {
			for _, oh := range r.db.SearchProvides(dep.Name) {
				if oh == h || !r.live(oh) {
					continue
				}
				opkg := r.db.Get(oh)
				for _, prov := range opkg.Provides() {
					if prov.Name == dep.Name && dep.Overlaps(prov) {
						return errors.Wrapf(ErrConflict, "%s conflicts with %s on %s", pkg.NEVRA(), opkg.NEVRA(), dep.Name)
					}
				}
			}
		}
		for _, oh := range r.db.Handles() {
			if oh == h || !r.live(oh) {
				continue
			}
			opkg := r.db.Get(oh)
			for _, dep := range opkg.Conflicts() {
				for _, prov := range pkg.Provides() {
					if prov.Name == dep.Name && dep.Overlaps(prov) {
						return errors.Wrapf(ErrConflict, "%s conflicts with %s on %s", opkg.NEVRA(), pkg.NEVRA(), dep.Name)
					}
				}
			}
		}
	}
	return nil
}

// fileConflictExempt reports whether two packages both owning path should
// be tolerated rather than flagged, per oldpyrpm.py's _hasFileConflict:
// identical file content/metadata, either side a %ghost entry, both sides
// directories, both sides symlinks to the same target, or the two packages
// being multilib builds of each other (neither arch is noarch and their
// buildarch translations differ, e.g. x86_64 vs i686; checkFileConflicts
// passes equal archs for pairs whose name or EVR differ, so only same-NEVR
// pairs qualify). Per-file colors are not compared. A directory colliding
// with a non-directory, or symlinks with differing targets, are real
// conflicts.
func fileConflictExempt(a, b rpmpkg.FileEntry, archA, archB string) bool {
	if a.IsGhost() || b.IsGhost() {
		return true
	}
	if isDirMode(a.Mode) && isDirMode(b.Mode) {
		return true
	}
	if isSymlinkMode(a.Mode) && isSymlinkMode(b.Mode) && a.LinkTo == b.LinkTo {
		return true
	}
	if a.Digest != "" && a.Digest == b.Digest && a.Mode == b.Mode && a.UserName == b.UserName && a.GroupName == b.GroupName {
		return true
	}
	if archA != "noarch" && archB != "noarch" && rpmtag.BuildArchTranslate(archA) != rpmtag.BuildArchTranslate(archB) {
		return true
	}
	return false
}

const (
	modeTypeMask = 0170000
	modeDir      = 0040000
	modeSymlink  = 0120000
)

func isDirMode(m uint16) bool     { return uint32(m)&modeTypeMask == modeDir }
func isSymlinkMode(m uint16) bool { return uint32(m)&modeTypeMask == modeSymlink }

// checkFileConflicts walks every filename owned by two or more live
// packages and rejects the transaction if any pairing fails
// fileConflictExempt — ported from RpmResolver.getFileConflicts /
// checkFileConflicts.
func (r *Resolver) checkFileConflicts() error {
	dups := r.db.GetFileDuplicates()
	for name, handles := range dups {
		live := handles[:0:0]
		for _, h := range handles {
			if r.live(h) {
				live = append(live, h)
			}
		}
		for i := 0; i < len(live); i++ {
			for j := i + 1; j < len(live); j++ {
				pa, pb := r.db.Get(live[i]), r.db.Get(live[j])
				fa, okA := findFile(pa, name)
				fb, okB := findFile(pb, name)
				if !okA || !okB {
					continue
				}
				archA, archB := pa.Arch(), pb.Arch()
				if pa.Name() != pb.Name() || pa.EVR() != pb.EVR() {
					archB = archA
				}
				if fileConflictExempt(fa, fb, archA, archB) {
					continue
				}
				return errors.Wrapf(ErrFileConflict, "%s and %s both own %s", pa.NEVRA(), pb.NEVRA(), name)
			}
		}
	}
	return nil
}

func findFile(pkg *rpmpkg.Package, name string) (rpmpkg.FileEntry, bool) {
	for _, f := range pkg.Files() {
		if f.Name == name {
			return f, true
		}
	}
	return rpmpkg.FileEntry{}, false
}
