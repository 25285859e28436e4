package store

import (
	"testing"

	"github.com/rpmcore/rpmcore/header"
	"github.com/rpmcore/rpmcore/rpmpkg"
	"github.com/rpmcore/rpmcore/rpmtag"
)

func buildTestPackage(t *testing.T, name string) *rpmpkg.Package {
	t.Helper()
	h := header.New(rpmtag.HeaderImmutable)
	h.SetString(rpmtag.Name, name)
	h.SetString(rpmtag.Version, "1.0")
	h.SetString(rpmtag.Release, "1")
	h.SetString(rpmtag.Arch, "x86_64")
	return &rpmpkg.Package{Hdr: h}
}

func TestStoreWriteReadAll(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.WritePackage(1, buildTestPackage(t, "alpha")); err != nil {
		t.Fatalf("WritePackage alpha: %v", err)
	}
	if _, err := s.WritePackage(2, buildTestPackage(t, "beta")); err != nil {
		t.Fatalf("WritePackage beta: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	recs, err := reopened.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Pkg.Name() != "alpha" || recs[1].Pkg.Name() != "beta" {
		t.Errorf("unexpected names: %q, %q", recs[0].Pkg.Name(), recs[1].Pkg.Name())
	}
	if recs[0].TID != 1 || recs[1].TID != 2 {
		t.Errorf("unexpected tids: %d, %d", recs[0].TID, recs[1].TID)
	}
}

func TestOpenMissingStore(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open on empty dir: %v", err)
	}
	recs, err := s.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll on empty dir: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no records, got %d", len(recs))
	}
}
