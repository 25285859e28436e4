package resolver

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rpmcore/rpmcore/header"
	"github.com/rpmcore/rpmcore/pkgdb"
	"github.com/rpmcore/rpmcore/rpmconfig"
	"github.com/rpmcore/rpmcore/rpmpkg"
	"github.com/rpmcore/rpmcore/rpmtag"
)

func buildPkg(name, version, release, arch string, requires, provides, obsoletes []string) *rpmpkg.Package {
	h := header.New(rpmtag.HeaderImmutable)
	h.SetString(rpmtag.Name, name)
	h.SetString(rpmtag.Version, version)
	h.SetString(rpmtag.Release, release)
	h.SetString(rpmtag.Arch, arch)
	setDeps := func(names []string, nameTag, flagTag, verTag rpmtag.Tag) {
		if len(names) == 0 {
			return
		}
		h.SetStringArray(nameTag, names)
		h.SetInt32Array(flagTag, make([]int32, len(names)))
		h.SetStringArray(verTag, make([]string, len(names)))
	}
	setDeps(requires, rpmtag.RequireName, rpmtag.RequireFlags, rpmtag.RequireVersion)
	setDeps(provides, rpmtag.ProvideName, rpmtag.ProvideFlags, rpmtag.ProvideVersion)
	setDeps(obsoletes, rpmtag.ObsoleteName, rpmtag.ObsoleteFlags, rpmtag.ObsoleteVersion)
	return &rpmpkg.Package{Hdr: h}
}

func newTestResolver(db *pkgdb.DB) *Resolver {
	return New(db, rpmconfig.Default(), zerolog.Nop())
}

func TestInstallResolvesSimpleChain(t *testing.T) {
	db := pkgdb.New()
	r := newTestResolver(db)

	if _, err := r.Install(buildPkg("c", "1.0", "1", "x86_64", nil, []string{"libc"}, nil)); err != nil {
		t.Fatalf("install c: %v", err)
	}
	if _, err := r.Install(buildPkg("b", "1.0", "1", "x86_64", []string{"libc"}, []string{"libb"}, nil)); err != nil {
		t.Fatalf("install b: %v", err)
	}
	if _, err := r.Install(buildPkg("a", "1.0", "1", "x86_64", []string{"libb"}, nil, nil)); err != nil {
		t.Fatalf("install a: %v", err)
	}

	res, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Installed) != 3 {
		t.Errorf("Installed = %v, want 3 handles", res.Installed)
	}
}

func TestInstallUnresolvedRequirement(t *testing.T) {
	db := pkgdb.New()
	r := newTestResolver(db)

	if _, err := r.Install(buildPkg("a", "1.0", "1", "x86_64", []string{"missing"}, nil, nil)); err != nil {
		t.Fatalf("install a: %v", err)
	}
	if _, err := r.Resolve(); errors.Cause(err) != ErrUnresolvedDependency {
		t.Errorf("Resolve error = %v, want wrapping ErrUnresolvedDependency", err)
	}
}

func TestInstallAlreadyInstalled(t *testing.T) {
	db := pkgdb.New()
	r := newTestResolver(db)
	pkg := buildPkg("a", "1.0", "1", "x86_64", nil, nil, nil)
	if _, err := r.Install(pkg); err != nil {
		t.Fatalf("first install: %v", err)
	}
	if _, err := r.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := r.Install(buildPkg("a", "1.0", "1", "x86_64", nil, nil, nil)); errors.Cause(err) != ErrAlreadyInstalled {
		t.Errorf("second install error = %v, want ErrAlreadyInstalled", err)
	}
}

func TestUpdateSupersedesOlder(t *testing.T) {
	db := pkgdb.New()
	r := newTestResolver(db)
	if _, err := r.Install(buildPkg("a", "1.0", "1", "x86_64", nil, nil, nil)); err != nil {
		t.Fatalf("install: %v", err)
	}
	if _, err := r.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := r.Update(buildPkg("a", "2.0", "1", "x86_64", nil, nil, nil)); err != nil {
		t.Fatalf("update: %v", err)
	}
	res, err := r.Resolve()
	if err != nil {
		t.Fatalf("resolve update: %v", err)
	}
	if len(res.Erased) != 1 {
		t.Errorf("Erased = %v, want 1 handle", res.Erased)
	}
	if len(db.Handles()) != 1 {
		t.Errorf("db has %d live handles, want 1", len(db.Handles()))
	}
}

func TestObsoleteErasesMatchingPackage(t *testing.T) {
	db := pkgdb.New()
	r := newTestResolver(db)
	if _, err := r.Install(buildPkg("old", "1.0", "1", "x86_64", nil, nil, nil)); err != nil {
		t.Fatalf("install old: %v", err)
	}
	if _, err := r.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := r.Install(buildPkg("new", "1.0", "1", "x86_64", nil, nil, []string{"old"})); err != nil {
		t.Fatalf("install new: %v", err)
	}
	res, err := r.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Erased) != 1 {
		t.Fatalf("Erased = %v, want old package erased", res.Erased)
	}
}

func TestEraseNotInstalled(t *testing.T) {
	db := pkgdb.New()
	r := newTestResolver(db)
	if err := r.Erase(pkgdb.Handle(99)); err != ErrNotInstalled {
		t.Errorf("Erase unknown handle = %v, want ErrNotInstalled", err)
	}
}

func TestFreshenRequiresExistingPackage(t *testing.T) {
	db := pkgdb.New()
	r := newTestResolver(db)
	if _, err := r.Freshen(buildPkg("a", "1.0", "1", "x86_64", nil, nil, nil)); err != ErrNotInstalled {
		t.Errorf("Freshen on absent package = %v, want ErrNotInstalled", err)
	}
}
