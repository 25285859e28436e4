package pkgdb

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rpmcore/rpmcore/header"
	"github.com/rpmcore/rpmcore/rpmpkg"
	"github.com/rpmcore/rpmcore/rpmtag"
)

func testPkg(name string, requires, provides []string) *rpmpkg.Package {
	h := header.New(rpmtag.HeaderImmutable)
	h.SetString(rpmtag.Name, name)
	h.SetString(rpmtag.Version, "1.0")
	h.SetString(rpmtag.Release, "1")
	h.SetString(rpmtag.Arch, "x86_64")
	if len(requires) > 0 {
		h.SetStringArray(rpmtag.RequireName, requires)
		flags := make([]int32, len(requires))
		vers := make([]string, len(requires))
		h.SetInt32Array(rpmtag.RequireFlags, flags)
		h.SetStringArray(rpmtag.RequireVersion, vers)
	}
	if len(provides) > 0 {
		h.SetStringArray(rpmtag.ProvideName, provides)
		flags := make([]int32, len(provides))
		vers := make([]string, len(provides))
		h.SetInt32Array(rpmtag.ProvideFlags, flags)
		h.SetStringArray(rpmtag.ProvideVersion, vers)
	}
	return &rpmpkg.Package{Hdr: h}
}

func TestAddRemovePkgIndices(t *testing.T) {
	db := New()
	a := testPkg("a", []string{"libb"}, []string{"liba"})
	b := testPkg("b", nil, []string{"libb"})

	ha := db.AddPkg(a)
	hb := db.AddPkg(b)

	if d := cmp.Diff([]Handle{ha}, db.ByName("a")); d != "" {
		t.Errorf("ByName(a) mismatch (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]Handle{ha}, db.SearchRequires("libb")); d != "" {
		t.Errorf("SearchRequires(libb) mismatch (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]Handle{hb}, db.SearchProvides("libb")); d != "" {
		t.Errorf("SearchProvides(libb) mismatch (-want +got):\n%s", d)
	}
	// Self-provide means "a" also appears under SearchProvides("a").
	if d := cmp.Diff([]Handle{ha}, db.SearchProvides("a")); d != "" {
		t.Errorf("SearchProvides(a) mismatch (-want +got):\n%s", d)
	}

	db.RemovePkg(ha)
	if got := db.Get(ha); got != nil {
		t.Errorf("expected Get(ha) nil after removal, got %v", got)
	}
	if got := db.SearchRequires("libb"); len(got) != 0 {
		t.Errorf("expected SearchRequires(libb) empty after removal, got %v", got)
	}
	if d := cmp.Diff([]Handle{hb}, db.SearchProvides("libb")); d != "" {
		t.Errorf("SearchProvides(libb) after removing a mismatch (-want +got):\n%s", d)
	}
}

func TestGetFileDuplicates(t *testing.T) {
	db := New()
	a := testPkg("a", nil, nil)
	a.Hdr.SetStringArray(rpmtag.Basenames, []string{"conf"})
	a.Hdr.SetStringArray(rpmtag.DirNames, []string{"/etc/"})
	a.Hdr.SetInt32Array(rpmtag.DirIndexes, []int32{0})

	b := testPkg("b", nil, nil)
	b.Hdr.SetStringArray(rpmtag.Basenames, []string{"conf"})
	b.Hdr.SetStringArray(rpmtag.DirNames, []string{"/etc/"})
	b.Hdr.SetInt32Array(rpmtag.DirIndexes, []int32{0})

	db.AddPkg(a)
	db.AddPkg(b)

	dups := db.GetFileDuplicates()
	handles, ok := dups["/etc/conf"]
	if !ok {
		t.Fatalf("GetFileDuplicates()[/etc/conf] missing")
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	if d := cmp.Diff([]Handle{0, 1}, handles); d != "" {
		t.Errorf("GetFileDuplicates()[/etc/conf] mismatch (-want +got):\n%s", d)
	}
}
