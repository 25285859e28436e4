package cpiopayload

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileInfo is the subset of a header's per-file tags extraction needs to
// reconcile against the cpio stream: device/inode for hardlink grouping,
// ownership/permissions, and timestamps.
type FileInfo struct {
	Name       string
	Mode       uint32
	MTime      uint32
	Dev, Inode uint64
	UID, GID   int
	SetOwner   bool
}

// pendingLink is a hardlink-group member seen before the data-bearing
// member of its group — newc cpio gives every member of a hardlink set a
// zero-length body except the last, so an earlier member can't be linked
// to anything yet when it's read.
type pendingLink struct {
	target string
	mode   os.FileMode
	fi     FileInfo
}

// Extract decodes every entry from r and materializes it under destDir,
// reconciling hardlinked regular files via their (dev, inode) pair so a
// file written once on disk and linked N-1 more times, rather than
// duplicated, the way oldpyrpm.py's extractCpio groups devinode. Within a
// hardlink group, only the final cpio member carries the actual file
// data (the rest are zero-length); earlier members are held as pending
// links until that data-bearing member is seen, then linked to it.
//
// files indexes the package's full file list by normalized cpio name; any
// cpio entry absent from it is reported rather than silently skipped.
func Extract(r *Reader, destDir string, files map[string]FileInfo, isSource bool) error {
	devinode := map[[2]uint64][]string{}
	for _, fi := range files {
		if fi.Dev != 0 || fi.Inode != 0 {
			key := [2]uint64{fi.Dev, fi.Inode}
			devinode[key] = append(devinode[key], fi.Name)
		}
	}
	materialized := map[[2]uint64]string{}
	pending := map[[2]uint64][]pendingLink{}

	for {
		hdr, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "cpiopayload: read entry header")
		}
		name := NormalizeName(hdr.Name, isSource)
		fi, ok := files[name]
		if !ok {
			return errors.Errorf("cpiopayload: entry %q not present in package file list", name)
		}

		body, err := ioutil.ReadAll(r)
		if err != nil {
			return errors.Wrapf(err, "cpiopayload: read body for %q", name)
		}

		target := filepath.Join(destDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return errors.Wrapf(err, "cpiopayload: mkdir for %q", name)
		}

		mode := os.FileMode(fi.Mode)
		switch {
		case fi.Mode&0170000 == 040000: // directory
			if err := os.MkdirAll(target, mode.Perm()); err != nil {
				return errors.Wrapf(err, "cpiopayload: mkdir %q", name)
			}
			applyOwner(target, fi)
		case fi.Mode&0170000 == 0120000: // symlink
			if err := writeViaTemp(target, func(tmp string) error {
				return os.Symlink(string(body), tmp)
			}); err != nil {
				return errors.Wrapf(err, "cpiopayload: symlink %q", name)
			}
			applyOwner(target, fi)
		default: // regular file, possibly hardlinked
			key := [2]uint64{fi.Dev, fi.Inode}
			grouped := len(devinode[key]) > 1

			if existing, done := materialized[key]; done {
				if err := linkOrCopy(existing, target, body, mode, fi); err != nil {
					return errors.Wrapf(err, "cpiopayload: link %q", name)
				}
				continue
			}
			if grouped && len(body) == 0 {
				pending[key] = append(pending[key], pendingLink{target: target, mode: mode, fi: fi})
				continue
			}

			// Either an ungrouped file, or the data-bearing member of a
			// hardlink group: write it for real, then catch up every
			// member of the group seen so far.
			if err := writeRegular(target, body, mode, fi); err != nil {
				return errors.Wrapf(err, "cpiopayload: write %q", name)
			}
			if grouped {
				materialized[key] = target
				for _, p := range pending[key] {
					if err := linkOrCopy(target, p.target, body, p.mode, p.fi); err != nil {
						return errors.Wrapf(err, "cpiopayload: link deferred member %q", p.target)
					}
				}
				delete(pending, key)
			}
		}
	}

	// A group whose data-bearing member never appeared (truncated or
	// malformed archive) still needs its other members on disk.
	for _, group := range pending {
		for _, p := range group {
			if err := writeRegular(p.target, nil, p.mode, p.fi); err != nil {
				return errors.Wrapf(err, "cpiopayload: write orphaned hardlink member %q", p.target)
			}
		}
	}
	return nil
}

// linkOrCopy hardlinks target to existing, falling back to writing body as
// an independent regular file if the link fails (e.g. destDir crosses a
// filesystem boundary mid-tree).
func linkOrCopy(existing, target string, body []byte, mode os.FileMode, fi FileInfo) error {
	if err := os.Link(existing, target); err == nil {
		return nil
	}
	return writeRegular(target, body, mode, fi)
}

func writeRegular(target string, body []byte, mode os.FileMode, fi FileInfo) error {
	if err := writeViaTemp(target, func(tmp string) error {
		return ioutil.WriteFile(tmp, body, mode.Perm())
	}); err != nil {
		return err
	}
	applyOwner(target, fi)
	return nil
}

// writeViaTemp writes to a temp file beside target via create, then
// atomically renames into place, mirroring mkstemp_file+os.rename in
// oldpyrpm.py — never leaving a partially-written file at the final path.
func writeViaTemp(target string, create func(tmp string) error) error {
	tmp, err := ioutil.TempFile(filepath.Dir(target), "..pyrpm.")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	tmp.Close()
	os.Remove(tmpName)
	if err := create(tmpName); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, target)
}

func applyOwner(path string, fi FileInfo) {
	if fi.SetOwner {
		os.Lchown(path, fi.UID, fi.GID)
	}
}
