package exec

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rpmcore/rpmcore/cpiopayload"
	"github.com/rpmcore/rpmcore/orderer"
	"github.com/rpmcore/rpmcore/pkgdb"
	"github.com/rpmcore/rpmcore/rpmconfig"
	"github.com/rpmcore/rpmcore/rpmpkg"
	"github.com/rpmcore/rpmcore/rpmtag"
	"github.com/rpmcore/rpmcore/trigger"
)

// Executor drives a resolved, ordered transaction to completion: batching
// orderer.Steps, extracting payloads, running scriptlets and firing
// triggers through a ProcessHost, and mirroring the outcome into a
// pkgdb.DB. Ported from pyrpm/control.py's RpmController.run.
type Executor struct {
	cfg      rpmconfig.Config
	host     ProcessHost
	space    FreeSpaceChecker
	db       *pkgdb.DB
	triggers *trigger.Engine
	destDir  string
	payloads map[*rpmpkg.Package][]byte
	handles  map[*rpmpkg.Package]pkgdb.Handle
	log      zerolog.Logger
}

// New returns an Executor that extracts into destDir and mirrors results
// into db. payloads supplies each installed package's raw (still
// compressed) cpio payload bytes, read by rpmpkg.ReadAll or Builder.Write.
func New(cfg rpmconfig.Config, host ProcessHost, space FreeSpaceChecker, db *pkgdb.DB, triggers *trigger.Engine, destDir string, payloads map[*rpmpkg.Package][]byte, log zerolog.Logger) *Executor {
	return &Executor{
		cfg: cfg, host: host, space: space, db: db, triggers: triggers,
		destDir: destDir, payloads: payloads,
		handles: make(map[*rpmpkg.Package]pkgdb.Handle),
		log:     log,
	}
}

// Progress reports one step's outcome as it completes, fed to an optional
// caller-supplied callback so a CLI can render "[index/total] NEVRA".
type Progress struct {
	Index, Total int
	Step         orderer.Step
	Err          error
}

// Run executes steps in order, in batches of cfg.BatchSize (100 if unset),
// each isolated through host.Fork. A batch that fails aborts the whole
// run; earlier batches' effects on db are not rolled back, matching
// pyrpm's own fail-fast, no-rollback batch loop.
func (e *Executor) Run(steps []orderer.Step, onProgress func(Progress)) error {
	if err := e.checkFreeSpace(steps); err != nil {
		return err
	}

	batchSize := e.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	total := len(steps)
	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		batch := steps[start:end]
		batchStart := start
		err := e.host.Fork(func() error {
			if err := e.host.Chroot(""); err != nil {
				return err
			}
			return e.runBatch(batch, batchStart, total, onProgress)
		})
		if err != nil {
			return errors.Wrapf(err, "exec: batch starting at step %d", batchStart)
		}
	}
	return nil
}

func (e *Executor) checkFreeSpace(steps []orderer.Step) error {
	var needed int64
	for _, s := range steps {
		if s.Op == orderer.OpErase {
			continue
		}
		for _, f := range s.Pkg.Files() {
			needed += int64(f.Size)
		}
	}
	if needed == 0 {
		return nil
	}
	return e.space.Check(e.destDir, needed)
}

func (e *Executor) runBatch(steps []orderer.Step, offset, total int, onProgress func(Progress)) error {
	for i, step := range steps {
		idx := offset + i + 1
		err := e.runStep(step)
		if onProgress != nil {
			onProgress(Progress{Index: idx, Total: total, Step: step, Err: err})
		}
		if err != nil {
			return errors.Wrapf(err, "%s %s", step.Op, step.Pkg.NEVRA())
		}
	}
	return nil
}

func (e *Executor) runStep(step orderer.Step) error {
	switch step.Op {
	case orderer.OpInstall, orderer.OpUpdate:
		return e.install(step.Pkg)
	case orderer.OpErase:
		return e.erase(step.Pkg)
	default:
		return errors.Errorf("exec: unknown operation %v", step.Op)
	}
}

func (e *Executor) install(pkg *rpmpkg.Package) error {
	if err := e.extractPayload(pkg); err != nil {
		return err
	}
	scripts := pkg.Scriptlets()
	if !rpmpkg.IsNoop(scripts.PreIn) {
		if err := e.host.RunScript(scripts.PreInProg, scripts.PreIn); err != nil {
			return errors.Wrap(err, "%prein")
		}
	}
	if !rpmpkg.IsNoop(scripts.PostIn) {
		if err := e.host.RunScript(scripts.PostInProg, scripts.PostIn); err != nil {
			return errors.Wrap(err, "%post")
		}
	}
	if e.triggers != nil {
		if err := e.triggers.FireIn(pkg); err != nil {
			return err
		}
	}
	e.handles[pkg] = e.db.AddPkg(pkg)
	return nil
}

func (e *Executor) erase(pkg *rpmpkg.Package) error {
	if e.triggers != nil {
		if err := e.triggers.FireUn(pkg); err != nil {
			return err
		}
	}
	scripts := pkg.Scriptlets()
	if !rpmpkg.IsNoop(scripts.PreUn) {
		if err := e.host.RunScript(scripts.PreUnProg, scripts.PreUn); err != nil {
			return errors.Wrap(err, "%preun")
		}
	}
	if !rpmpkg.IsNoop(scripts.PostUn) {
		if err := e.host.RunScript(scripts.PostUnProg, scripts.PostUn); err != nil {
			return errors.Wrap(err, "%postun")
		}
	}
	if e.triggers != nil {
		if err := e.triggers.FirePostUn(pkg); err != nil {
			return err
		}
	}
	if h, ok := e.handles[pkg]; ok {
		e.db.RemovePkg(h)
		delete(e.handles, pkg)
		return nil
	}
	for _, h := range e.db.ByName(pkg.Name()) {
		if e.db.Get(h).NEVRA() == pkg.NEVRA() {
			e.db.RemovePkg(h)
			return nil
		}
	}
	return nil
}

func (e *Executor) extractPayload(pkg *rpmpkg.Package) error {
	raw, ok := e.payloads[pkg]
	if !ok {
		return errors.Errorf("exec: no payload supplied for %s", pkg.NEVRA())
	}
	compressor := pkg.Hdr.String(rpmtag.PayloadCompressor)
	r, err := cpiopayload.NewReader(bytes.NewReader(raw), compressor)
	if err != nil {
		return errors.Wrapf(err, "exec: open payload for %s", pkg.NEVRA())
	}
	files := make(map[string]cpiopayload.FileInfo)
	for _, f := range pkg.Files() {
		files[f.Name] = cpiopayload.FileInfo{
			Name:  f.Name,
			Mode:  uint32(f.Mode),
			MTime: f.MTime,
			Dev:   uint64(f.Device),
			Inode: uint64(f.Inode),
		}
	}
	return e.host.Extract(r, e.destDir, files, pkg.IsSource())
}
