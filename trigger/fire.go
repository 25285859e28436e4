package trigger

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rpmcore/rpmcore/rpmpkg"
)

// Runner executes one trigger scriptlet body under the given interpreter,
// the capability trigger firing is built against so tests can supply a
// fake instead of actually forking a shell — mirrors the ProcessHost
// capability interface the executor package builds its own fork/exec
// boundary on.
type Runner interface {
	Run(prog, script string, args ...string) error
}

// CountFunc reports how many instances of the named package are currently
// installed, the %{lua:...}-free equivalent of pyrpm's
// self.pydb.getNumPkgs(name) calls feeding trigger scripts their argument
// count.
type CountFunc func(name string) int

// Engine fires triggers in the phase order rpm defines, deduplicating
// repeated ldconfig invocations within a single transaction (§4.6).
type Engine struct {
	idx       *Index
	run       Runner
	count     CountFunc
	log       zerolog.Logger
	firedLdconfig bool
}

// NewEngine returns a trigger Engine backed by idx, executing scripts via
// run and resolving installed-instance counts via count.
func NewEngine(idx *Index, run Runner, count CountFunc, log zerolog.Logger) *Engine {
	return &Engine{idx: idx, run: run, count: count, log: log}
}

// isLdconfigOnly reports whether a trigger script does nothing but invoke
// ldconfig, the common case rpm coalesces across an entire transaction
// instead of running once per package.
func isLdconfigOnly(prog, script string) bool {
	trimmed := strings.TrimSpace(script)
	return (prog == "" || prog == "/bin/sh") && trimmed == "/sbin/ldconfig"
}

func (e *Engine) runEntry(entry Entry, selfCount, otherCount int) error {
	if isLdconfigOnly(entry.Prog, entry.Body) {
		if e.firedLdconfig {
			e.log.Debug().Str("pkg", entry.Source.NEVRA()).Msg("trigger: skipping duplicate ldconfig trigger")
			return nil
		}
		e.firedLdconfig = true
	}
	return e.run.Run(entry.Prog, entry.Body, strconv.Itoa(selfCount), strconv.Itoa(otherCount))
}

// FireIn runs pkg's %triggerin scripts: every other package's any-%triggerin
// watching pkg's name first, then pkg's own new-%triggerin entries.
// Ported from RpmController.__runTriggerIn.
func (e *Engine) FireIn(pkg *rpmpkg.Package) error {
	list := e.idx.search(pkg.Name(), PhaseIn.sense(), pkg.EVR())
	tnumPkgs := e.count(pkg.Name()) + 1

	for _, entry := range list {
		if entry.Source == pkg {
			continue
		}
		snumPkgs := e.count(entry.Source.Name())
		if err := e.runEntry(entry, snumPkgs, tnumPkgs); err != nil {
			return errors.Wrapf(err, "any-%%triggerin from %s", entry.Source.NEVRA())
		}
	}
	for _, entry := range list {
		if entry.Source != pkg {
			continue
		}
		if err := e.runEntry(entry, tnumPkgs, tnumPkgs); err != nil {
			return errors.Wrapf(err, "new-%%triggerin on %s", pkg.NEVRA())
		}
	}
	return nil
}

// FireUn runs pkg's %triggerun scripts just before pkg is erased: pkg's
// own old-%triggerun entries first, then every other package's
// any-%triggerun. Ported from RpmController.__runTriggerUn.
func (e *Engine) FireUn(pkg *rpmpkg.Package) error {
	list := e.idx.search(pkg.Name(), PhaseUn.sense(), pkg.EVR())
	tnumPkgs := e.count(pkg.Name()) - 1

	for _, entry := range list {
		if entry.Source != pkg {
			continue
		}
		if err := e.runEntry(entry, tnumPkgs, tnumPkgs); err != nil {
			return errors.Wrapf(err, "old-%%triggerun on %s", pkg.NEVRA())
		}
	}
	for _, entry := range list {
		if entry.Source == pkg {
			continue
		}
		snumPkgs := e.count(entry.Source.Name())
		if err := e.runEntry(entry, snumPkgs, tnumPkgs); err != nil {
			return errors.Wrapf(err, "any-%%triggerun from %s", entry.Source.NEVRA())
		}
	}
	return nil
}

// FirePostUn runs pkg's %triggerpostun scripts just after pkg is erased:
// pkg's own old-%triggerpostun entries first, then every other package's
// any-%triggerpostun. Ported from RpmController.__runTriggerPostUn.
func (e *Engine) FirePostUn(pkg *rpmpkg.Package) error {
	list := e.idx.search(pkg.Name(), PhasePostUn.sense(), pkg.EVR())
	tnumPkgs := e.count(pkg.Name()) - 1

	for _, entry := range list {
		if entry.Source != pkg {
			continue
		}
		if err := e.runEntry(entry, tnumPkgs, tnumPkgs); err != nil {
			return errors.Wrapf(err, "old-%%triggerpostun on %s", pkg.NEVRA())
		}
	}
	for _, entry := range list {
		if entry.Source == pkg {
			continue
		}
		snumPkgs := e.count(entry.Source.Name())
		if err := e.runEntry(entry, snumPkgs, tnumPkgs); err != nil {
			return errors.Wrapf(err, "any-%%triggerpostun from %s", entry.Source.NEVRA())
		}
	}
	return nil
}
