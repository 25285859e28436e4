// Package trigger implements rpm's trigger scriptlet engine: an index of
// every installed package's trigger conditions keyed by the subject
// package name they watch, and the phase-ordered firing sequence that runs
// when a package is installed or erased.
//
// Ported from pyrpm/control.py's _Triggers and RpmController's
// __runTriggerIn/__runTriggerUn/__runTriggerPostUn.
package trigger

import (
	"github.com/rpmcore/rpmcore/rpmpkg"
	"github.com/rpmcore/rpmcore/rpmtag"
	"github.com/rpmcore/rpmcore/version"
)

// Phase selects which of a package's three trigger-script slots fires.
type Phase int

const (
	// PhaseIn fires when the subject package is being installed.
	PhaseIn Phase = iota
	// PhaseUn fires just before the subject package is erased.
	PhaseUn
	// PhasePostUn fires just after the subject package is erased.
	PhasePostUn
)

func (p Phase) sense() rpmtag.Sense {
	switch p {
	case PhaseIn:
		return rpmtag.SenseTriggerIn
	case PhaseUn:
		return rpmtag.SenseTriggerUn
	default:
		return rpmtag.SenseTriggerPostUn
	}
}

// Entry is one registered trigger: a match condition plus the script body
// it fires and the package that carries it (the "source" package, in
// pyrpm's terminology).
type Entry struct {
	Dep    rpmpkg.Dependency
	Body   string
	Prog   string
	Source *rpmpkg.Package
}

// Index maps a subject package name to every trigger any installed
// package registered against it — the Go equivalent of pyrpm's
// _Triggers.triggers dict.
type Index struct {
	bySubject map[string][]Entry
}

// NewIndex returns an empty trigger index.
func NewIndex() *Index {
	return &Index{bySubject: make(map[string][]Entry)}
}

// AddPkg registers every trigger pkg carries. Ported from _Triggers.addPkg.
func (idx *Index) AddPkg(pkg *rpmpkg.Package) {
	for _, t := range pkg.Triggers() {
		body, prog := pkg.TriggerScript(t.ScriptIndex)
		idx.bySubject[t.Name] = append(idx.bySubject[t.Name], Entry{
			Dep:    t.Dependency,
			Body:   body,
			Prog:   prog,
			Source: pkg,
		})
	}
}

// RemovePkg deregisters every trigger pkg carries. Ported from
// _Triggers.removePkg.
func (idx *Index) RemovePkg(pkg *rpmpkg.Package) {
	for _, t := range pkg.Triggers() {
		list := idx.bySubject[t.Name]
		out := list[:0]
		for _, e := range list {
			if e.Source == pkg && e.Dep.Sense == t.Sense && e.Dep.EVR == t.EVR {
				continue
			}
			out = append(out, e)
		}
		if len(out) == 0 {
			delete(idx.bySubject, t.Name)
		} else {
			idx.bySubject[t.Name] = out
		}
	}
}

// search returns every entry registered against name whose phase bits
// match sense and whose EVR range (if any) overlaps subjectEVR — the
// subject package's own (epoch, version, release) at the moment the
// trigger fires. Ported from _Triggers.search.
func (idx *Index) search(name string, phase rpmtag.Sense, subjectEVR version.EVR) []Entry {
	var out []Entry
	for _, e := range idx.bySubject[name] {
		if e.Dep.Sense&rpmtag.SenseTriggerMask != phase {
			continue
		}
		if e.Dep.EVR == (version.EVR{}) {
			out = append(out, e)
			continue
		}
		if e.Dep.Overlaps(rpmpkg.Dependency{Name: name, Sense: rpmtag.SenseEqual, EVR: subjectEVR}) {
			out = append(out, e)
		}
	}
	return out
}
