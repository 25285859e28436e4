// Package pkgdb holds the in-memory installed-package database: an arena of
// integer handles (avoiding the pointer-keyed HashList pyrpm uses, which Go
// has no equivalent of) indexed by name, provide, require, conflict,
// obsolete, trigger name and filename.
//
// Grounded on pyrpm/rpmlist.py's RpmList and the database lookups
// pyrpm/resolver.py drives through it (searchDependency, getPkgsByName,
// getFileDuplicates).
package pkgdb

import (
	"github.com/rpmcore/rpmcore/rpmpkg"
)

// Handle identifies a package within a DB. Handles are stable for the
// lifetime of the package's presence in the DB — RemovePkg retires a handle
// permanently rather than reusing it, so orderer/resolver graphs keyed by
// handle never alias a removed package onto a new one.
type Handle int

// DB is the installed-package database: a handle arena plus every index
// the resolver and orderer need to avoid a linear scan.
type DB struct {
	pkgs map[Handle]*rpmpkg.Package
	next Handle

	byName        map[string][]Handle
	byProvide     map[string][]Handle
	byRequire     map[string][]Handle
	byConflict    map[string][]Handle
	byObsolete    map[string][]Handle
	byTriggerName map[string][]Handle
	byFilename    map[string][]Handle
}

// New returns an empty database.
func New() *DB {
	return &DB{
		pkgs:          make(map[Handle]*rpmpkg.Package),
		byName:        make(map[string][]Handle),
		byProvide:     make(map[string][]Handle),
		byRequire:     make(map[string][]Handle),
		byConflict:    make(map[string][]Handle),
		byObsolete:    make(map[string][]Handle),
		byTriggerName: make(map[string][]Handle),
		byFilename:    make(map[string][]Handle),
	}
}

// AddPkg inserts pkg and returns its handle, populating every derived
// index transactionally.
func (db *DB) AddPkg(pkg *rpmpkg.Package) Handle {
	h := db.next
	db.next++
	db.pkgs[h] = pkg

	index(&db.byName, pkg.Name(), h)
	for _, d := range pkg.Provides() {
		index(&db.byProvide, d.Name, h)
	}
	for _, d := range pkg.Requires() {
		index(&db.byRequire, d.Name, h)
	}
	for _, d := range pkg.Conflicts() {
		index(&db.byConflict, d.Name, h)
	}
	for _, d := range pkg.Obsoletes() {
		index(&db.byObsolete, d.Name, h)
	}
	for _, trig := range pkg.Triggers() {
		index(&db.byTriggerName, trig.Name, h)
	}
	for _, f := range pkg.Files() {
		index(&db.byFilename, f.Name, h)
	}
	return h
}

// RemovePkg tears down every index entry for h and retires the handle.
func (db *DB) RemovePkg(h Handle) {
	pkg, ok := db.pkgs[h]
	if !ok {
		return
	}
	unindex(&db.byName, pkg.Name(), h)
	for _, d := range pkg.Provides() {
		unindex(&db.byProvide, d.Name, h)
	}
	for _, d := range pkg.Requires() {
		unindex(&db.byRequire, d.Name, h)
	}
	for _, d := range pkg.Conflicts() {
		unindex(&db.byConflict, d.Name, h)
	}
	for _, d := range pkg.Obsoletes() {
		unindex(&db.byObsolete, d.Name, h)
	}
	for _, trig := range pkg.Triggers() {
		unindex(&db.byTriggerName, trig.Name, h)
	}
	for _, f := range pkg.Files() {
		unindex(&db.byFilename, f.Name, h)
	}
	delete(db.pkgs, h)
}

// Get returns the package stored at h, or nil if h is unknown or retired.
func (db *DB) Get(h Handle) *rpmpkg.Package { return db.pkgs[h] }

// Handles returns every live handle, in no particular order.
func (db *DB) Handles() []Handle {
	out := make([]Handle, 0, len(db.pkgs))
	for h := range db.pkgs {
		out = append(out, h)
	}
	return out
}

// ByName returns every package installed under the given base name.
func (db *DB) ByName(name string) []Handle { return db.byName[name] }

// SearchProvides returns every package whose Provides include name,
// regardless of whether the associated range actually matches — callers
// filter by Dependency.Overlaps themselves (ported from
// pyrpm/resolver.py's getResolvedPkgDependencies dependency loop).
func (db *DB) SearchProvides(name string) []Handle { return db.byProvide[name] }

// SearchRequires returns every package whose Requires include name — used
// by the erase-frontier recheck (a package being erased may be required by
// another installed package).
func (db *DB) SearchRequires(name string) []Handle { return db.byRequire[name] }

// SearchConflicts returns every package whose Conflicts include name.
func (db *DB) SearchConflicts(name string) []Handle { return db.byConflict[name] }

// SearchObsoletes returns every package whose Obsoletes include name.
func (db *DB) SearchObsoletes(name string) []Handle { return db.byObsolete[name] }

// SearchTriggerName returns every package carrying a trigger matching name
// — the trigger engine's index into "which installed packages have a
// <subject>-triggerin/-triggerun on this package name".
func (db *DB) SearchTriggerName(name string) []Handle { return db.byTriggerName[name] }

// SearchFilename returns every package that owns the given path. A path
// owned by ≥2 packages is a file duplicate, the set GetFileDuplicates
// reports in bulk.
func (db *DB) SearchFilename(name string) []Handle { return db.byFilename[name] }

// GetFileDuplicates returns every filename owned by two or more packages,
// the input set the resolver's file-conflict check iterates — a package
// being installed only needs to cross-check files against this set, not
// every file of every installed package.
func (db *DB) GetFileDuplicates() map[string][]Handle {
	out := make(map[string][]Handle)
	for name, handles := range db.byFilename {
		if len(handles) >= 2 {
			cp := make([]Handle, len(handles))
			copy(cp, handles)
			out[name] = cp
		}
	}
	return out
}

func index(m *map[string][]Handle, key string, h Handle) {
	(*m)[key] = append((*m)[key], h)
}

func unindex(m *map[string][]Handle, key string, h Handle) {
	list := (*m)[key]
	for i, x := range list {
		if x == h {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(*m, key)
	} else {
		(*m)[key] = list
	}
}
