package orderer

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpmcore/rpmcore/header"
	"github.com/rpmcore/rpmcore/rpmpkg"
	"github.com/rpmcore/rpmcore/rpmtag"
)

func testPackage(name string, requires, provides []string, preReq bool) *rpmpkg.Package {
	h := header.New(rpmtag.HeaderImmutable)
	h.SetString(rpmtag.Name, name)
	h.SetString(rpmtag.Version, "1.0")
	h.SetString(rpmtag.Release, "1")
	h.SetString(rpmtag.Arch, "x86_64")
	if len(requires) > 0 {
		h.SetStringArray(rpmtag.RequireName, requires)
		flags := make([]int32, len(requires))
		if preReq {
			for i := range flags {
				flags[i] = int32(rpmtag.SenseScriptPre)
			}
		}
		h.SetInt32Array(rpmtag.RequireFlags, flags)
		h.SetStringArray(rpmtag.RequireVersion, make([]string, len(requires)))
	}
	if len(provides) > 0 {
		h.SetStringArray(rpmtag.ProvideName, provides)
		h.SetInt32Array(rpmtag.ProvideFlags, make([]int32, len(provides)))
		h.SetStringArray(rpmtag.ProvideVersion, make([]string, len(provides)))
	}
	return &rpmpkg.Package{Hdr: h}
}

func TestOrderSimpleChain(t *testing.T) {
	a := testPackage("a", []string{"libb"}, nil, true)
	b := testPackage("b", []string{"libc"}, []string{"libb"}, true)
	c := testPackage("c", nil, []string{"libc"}, false)

	o := New([]*rpmpkg.Package{a, b, c}, nil, nil, nil, zerolog.Nop())
	steps, err := o.Order()
	require.NoError(t, err)
	require.Len(t, steps, 3)
	pos := make(map[*rpmpkg.Package]int)
	for i, s := range steps {
		pos[s.Pkg] = i
	}
	assert.Less(t, pos[c], pos[b], "c must be ordered before b")
	assert.Less(t, pos[b], pos[a], "b must be ordered before a")
}

func TestOrderBreaksSoftCycle(t *testing.T) {
	a := testPackage("a", []string{"libb"}, []string{"liba"}, false)
	b := testPackage("b", []string{"liba"}, []string{"libb"}, false)

	o := New([]*rpmpkg.Package{a, b}, nil, nil, nil, zerolog.Nop())
	steps, err := o.Order()
	require.NoError(t, err)
	assert.Len(t, steps, 2)
}

func TestGenOperationsSchedulesUpdateErase(t *testing.T) {
	oldPkg := testPackage("a", nil, nil, false)
	newPkg := testPackage("a", nil, nil, false)

	updates := map[*rpmpkg.Package][]*rpmpkg.Package{newPkg: {oldPkg}}
	o := New([]*rpmpkg.Package{newPkg}, []*rpmpkg.Package{oldPkg}, updates, nil, zerolog.Nop())
	steps, err := o.Order()
	require.NoError(t, err)
	require.Len(t, steps, 2, "want update + erase")
	assert.Equal(t, OpUpdate, steps[0].Op)
	assert.Same(t, newPkg, steps[0].Pkg)
	assert.Equal(t, OpErase, steps[1].Op)
	assert.Same(t, oldPkg, steps[1].Pkg)
}
