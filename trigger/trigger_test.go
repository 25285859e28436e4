package trigger

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/rpmcore/rpmcore/header"
	"github.com/rpmcore/rpmcore/rpmpkg"
	"github.com/rpmcore/rpmcore/rpmtag"
)

type recordingRunner struct {
	calls []string
}

func (r *recordingRunner) Run(prog, script string, args ...string) error {
	r.calls = append(r.calls, script)
	return nil
}

func pkgWithTrigger(name string, triggerName string, sense rpmtag.Sense, script string) *rpmpkg.Package {
	h := header.New(rpmtag.HeaderImmutable)
	h.SetString(rpmtag.Name, name)
	h.SetString(rpmtag.Version, "1.0")
	h.SetString(rpmtag.Release, "1")
	h.SetString(rpmtag.Arch, "x86_64")
	h.SetStringArray(rpmtag.TriggerName, []string{triggerName})
	h.SetInt32Array(rpmtag.TriggerFlags, []int32{int32(sense)})
	h.SetStringArray(rpmtag.TriggerVersion, []string{""})
	h.SetInt32Array(rpmtag.TriggerIndex, []int32{0})
	h.SetStringArray(rpmtag.TriggerScripts, []string{script})
	h.SetStringArray(rpmtag.TriggerScriptProg, []string{"/bin/sh"})
	return &rpmpkg.Package{Hdr: h}
}

func TestFireInRunsAnyThenNewTrigger(t *testing.T) {
	watcher := pkgWithTrigger("watcher", "subject", rpmtag.SenseTriggerIn, "echo any")
	subject := pkgWithTrigger("subject", "subject", rpmtag.SenseTriggerIn, "echo new")

	idx := NewIndex()
	idx.AddPkg(watcher)
	idx.AddPkg(subject)

	runner := &recordingRunner{}
	count := func(name string) int { return 1 }
	e := NewEngine(idx, runner, count, zerolog.Nop())

	if err := e.FireIn(subject); err != nil {
		t.Fatalf("FireIn: %v", err)
	}
	if len(runner.calls) != 2 {
		t.Fatalf("got %d calls, want 2: %v", len(runner.calls), runner.calls)
	}
	if runner.calls[0] != "echo any" || runner.calls[1] != "echo new" {
		t.Errorf("calls = %v, want [echo any, echo new]", runner.calls)
	}
}

func TestFireInCoalescesLdconfig(t *testing.T) {
	a := pkgWithTrigger("a", "subject", rpmtag.SenseTriggerIn, "/sbin/ldconfig")
	b := pkgWithTrigger("b", "subject", rpmtag.SenseTriggerIn, "/sbin/ldconfig")
	subject := pkgWithTrigger("subject", "nothing", rpmtag.SenseTriggerIn, "")

	idx := NewIndex()
	idx.AddPkg(a)
	idx.AddPkg(b)

	runner := &recordingRunner{}
	count := func(name string) int { return 1 }
	e := NewEngine(idx, runner, count, zerolog.Nop())

	if err := e.FireIn(subject); err != nil {
		t.Fatalf("FireIn: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("got %d ldconfig calls, want 1 (coalesced): %v", len(runner.calls), runner.calls)
	}
}
