package resolver

import (
	"testing"

	"github.com/rpmcore/rpmcore/rpmpkg"
)

func TestFileConflictExemptDirectories(t *testing.T) {
	a := rpmpkg.FileEntry{Name: "/etc/foo", Mode: modeDir}
	b := rpmpkg.FileEntry{Name: "/etc/foo", Mode: modeDir}
	if !fileConflictExempt(a, b, "x86_64", "x86_64") {
		t.Error("two directories at the same path must not conflict")
	}
}

func TestFileConflictNotExemptDirectoryVsRegular(t *testing.T) {
	dir := rpmpkg.FileEntry{Name: "/etc/foo", Mode: modeDir}
	reg := rpmpkg.FileEntry{Name: "/etc/foo", Mode: 0100644}
	if fileConflictExempt(dir, reg, "x86_64", "x86_64") {
		t.Error("a directory colliding with a regular file at the same path must conflict")
	}
}

func TestFileConflictExemptSymlinksSameTarget(t *testing.T) {
	a := rpmpkg.FileEntry{Name: "/etc/foo", Mode: modeSymlink, LinkTo: "bar"}
	b := rpmpkg.FileEntry{Name: "/etc/foo", Mode: modeSymlink, LinkTo: "bar"}
	if !fileConflictExempt(a, b, "x86_64", "x86_64") {
		t.Error("symlinks with identical targets must not conflict")
	}
}

func TestFileConflictNotExemptSymlinksDifferentTarget(t *testing.T) {
	a := rpmpkg.FileEntry{Name: "/etc/foo", Mode: modeSymlink, LinkTo: "bar"}
	b := rpmpkg.FileEntry{Name: "/etc/foo", Mode: modeSymlink, LinkTo: "baz"}
	if fileConflictExempt(a, b, "x86_64", "x86_64") {
		t.Error("symlinks with differing targets must conflict")
	}
}

func TestFileConflictNotExemptSymlinkVsDirectory(t *testing.T) {
	link := rpmpkg.FileEntry{Name: "/etc/foo", Mode: modeSymlink, LinkTo: "bar"}
	dir := rpmpkg.FileEntry{Name: "/etc/foo", Mode: modeDir}
	if fileConflictExempt(link, dir, "x86_64", "x86_64") {
		t.Error("a symlink colliding with a directory at the same path must conflict")
	}
}
