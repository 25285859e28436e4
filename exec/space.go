package exec

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// FreeSpaceChecker verifies a destination has enough free space for an
// estimated number of bytes before extraction begins — pyrpm relies on the
// installing filesystem rejecting a write that doesn't fit; this module
// checks proactively so a batch fails before it starts rather than midway
// through extracting a package.
type FreeSpaceChecker interface {
	Check(path string, neededBytes int64) error
}

// statfsChecker is the production FreeSpaceChecker, backed by
// golang.org/x/sys/unix.Statfs (Linux's statvfs(2) equivalent).
type statfsChecker struct{}

// NewFreeSpaceChecker returns the production statvfs-based checker.
func NewFreeSpaceChecker() FreeSpaceChecker { return statfsChecker{} }

func (statfsChecker) Check(path string, neededBytes int64) error {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return errors.Wrapf(err, "exec: statfs %s", path)
	}
	available := int64(stat.Bavail) * int64(stat.Bsize)
	if available < neededBytes {
		return errors.Errorf("exec: insufficient free space on %s: need %d bytes, have %d", path, neededBytes, available)
	}
	return nil
}
