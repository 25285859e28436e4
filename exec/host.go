// Package exec implements the scheduling half of the transaction executor:
// batching an orderer.Step sequence, forking an isolated unit of work per
// batch, extracting payloads, running scriptlets, firing triggers and
// mirroring the result back into the installed-package database.
//
// Ported from pyrpm/control.py's RpmController.run batch loop and
// oldpyrpm.py's mkstemp_*/doLnOrCopy file materialization primitives.
//
// Go cannot safely fork a running multi-threaded runtime the way
// os.fork() does in CPython, so ProcessHost.Fork isolates a batch by
// running it in its own goroutine and propagating its error back
// synchronously — the same "isolate this unit of work, then rendezvous on
// completion" shape as pyrpm's fork()/waitpid() pair, built on a Go
// primitive instead of a syscall this runtime can't use safely.
package exec

import (
	"io/ioutil"
	"os"
	"os/exec"
	"syscall"

	"github.com/pkg/errors"

	"github.com/rpmcore/rpmcore/cpiopayload"
)

// ProcessHost is the capability seam the executor drives every side
// effect through: chrooting, running a scriptlet, materializing a
// package's files, and isolating a batch of work. Tests inject a mock that
// records calls instead of touching the filesystem or forking anything.
type ProcessHost interface {
	// Chroot changes the executor's root directory, a no-op if dir is
	// empty.
	Chroot(dir string) error
	// RunScript executes a scriptlet body under prog (defaulting to
	// /bin/sh): the body is written to a temporary file passed as the
	// first argument, followed by args as positional parameters — pyrpm's
	// runScript.
	RunScript(prog, script string, args ...string) error
	// Extract materializes a package's payload into destDir.
	Extract(r *cpiopayload.Reader, destDir string, files map[string]cpiopayload.FileInfo, isSource bool) error
	// Fork runs fn as an isolated unit of work and blocks until it
	// completes, returning its error.
	Fork(fn func() error) error
}

// execProcessHost is the real ProcessHost: os/exec to run scriptlets,
// syscall.Chroot to change root, a goroutine to isolate a batch.
type execProcessHost struct{}

// NewProcessHost returns the production ProcessHost.
func NewProcessHost() ProcessHost { return execProcessHost{} }

func (execProcessHost) Chroot(dir string) error {
	if dir == "" {
		return nil
	}
	if err := syscall.Chroot(dir); err != nil {
		return errors.Wrapf(err, "exec: chroot %s", dir)
	}
	return syscall.Chdir("/")
}

func (execProcessHost) RunScript(prog, script string, args ...string) error {
	if prog == "" {
		prog = "/bin/sh"
	}
	f, err := ioutil.TempFile("", "rpmcore-script-")
	if err != nil {
		return errors.Wrap(err, "exec: create scriptlet file")
	}
	defer os.Remove(f.Name())
	_, werr := f.WriteString(script)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return errors.Wrap(werr, "exec: write scriptlet file")
	}
	cmd := exec.Command(prog, append([]string{f.Name()}, args...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "exec: scriptlet failed: %s", out)
	}
	return nil
}

func (execProcessHost) Extract(r *cpiopayload.Reader, destDir string, files map[string]cpiopayload.FileInfo, isSource bool) error {
	return cpiopayload.Extract(r, destDir, files, isSource)
}

func (execProcessHost) Fork(fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				errCh <- errors.Errorf("exec: batch panicked: %v", rec)
			}
		}()
		errCh <- fn()
	}()
	return <-errCh
}
