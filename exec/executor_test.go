package exec

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rpmcore/rpmcore/cpiopayload"
	"github.com/rpmcore/rpmcore/header"
	"github.com/rpmcore/rpmcore/orderer"
	"github.com/rpmcore/rpmcore/pkgdb"
	"github.com/rpmcore/rpmcore/rpmconfig"
	"github.com/rpmcore/rpmcore/rpmpkg"
	"github.com/rpmcore/rpmcore/rpmtag"
	"github.com/rpmcore/rpmcore/trigger"
)

type zeroSpace struct{}

func (zeroSpace) Check(path string, needed int64) error { return nil }

func buildEmptyPayload(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := cpiopayload.NewWriter(&buf)
	if err := w.Close(); err != nil {
		t.Fatalf("close payload writer: %v", err)
	}
	return buf.Bytes()
}

func simplePkg(name string) *rpmpkg.Package {
	h := header.New(rpmtag.HeaderImmutable)
	h.SetString(rpmtag.Name, name)
	h.SetString(rpmtag.Version, "1.0")
	h.SetString(rpmtag.Release, "1")
	h.SetString(rpmtag.Arch, "x86_64")
	h.SetString(rpmtag.PayloadCompressor, "gzip")
	return &rpmpkg.Package{Hdr: h}
}

func TestRunInstallsAndErases(t *testing.T) {
	db := pkgdb.New()
	a := simplePkg("a")
	host := NewMockProcessHost()
	payloads := map[*rpmpkg.Package][]byte{a: buildEmptyPayload(t)}

	idx := trigger.NewIndex()
	eng := trigger.NewEngine(idx, noopRunner{}, func(string) int { return 0 }, zerolog.Nop())

	ex := New(rpmconfig.Default(), host, zeroSpace{}, db, eng, t.TempDir(), payloads, zerolog.Nop())

	steps := []orderer.Step{{Op: orderer.OpInstall, Pkg: a}}
	if err := ex.Run(steps, nil); err != nil {
		t.Fatalf("Run install: %v", err)
	}
	if len(db.ByName("a")) != 1 {
		t.Fatalf("expected a installed, got %v", db.ByName("a"))
	}

	steps = []orderer.Step{{Op: orderer.OpErase, Pkg: a}}
	if err := ex.Run(steps, nil); err != nil {
		t.Fatalf("Run erase: %v", err)
	}
	if len(db.ByName("a")) != 0 {
		t.Fatalf("expected a erased, got %v", db.ByName("a"))
	}
}

type noopRunner struct{}

func (noopRunner) Run(prog, script string, args ...string) error { return nil }
