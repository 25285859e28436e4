package rpmpkg

import (
	"bytes"
	"testing"

	"github.com/rpmcore/rpmcore/header"
	"github.com/rpmcore/rpmcore/rpmtag"
)

func TestBuilderWriteReadRoundTrip(t *testing.T) {
	b := NewBuilder(Meta{
		Name: "hello", Version: "1.0", Release: "1", Arch: "x86_64",
		Description: "a test package", License: "MIT",
		Requires: []Dependency{{Name: "glibc", Sense: rpmtag.SenseGreater | rpmtag.SenseEqual, EVR: parseDepEVR("2.0")}},
	})
	b.AddFile("/usr/bin/hello", []byte("#!/bin/sh\necho hi\n"), 0755, "root", "root", 0)

	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	pkg, payload, err := ReadAll(bytes.NewReader(buf.Bytes()), header.DecodeOptions{})
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if pkg.Name() != "hello" {
		t.Errorf("Name() = %q", pkg.Name())
	}
	if pkg.NEVRA() != "hello-1.0-1.x86_64" {
		t.Errorf("NEVRA() = %q", pkg.NEVRA())
	}
	reqs := pkg.Requires()
	if len(reqs) != 1 || reqs[0].Name != "glibc" {
		t.Fatalf("Requires() = %+v", reqs)
	}
	files := pkg.Files()
	if len(files) != 1 || files[0].Name != "/usr/bin/hello" {
		t.Fatalf("Files() = %+v", files)
	}
	if len(payload) == 0 {
		t.Errorf("expected non-empty payload bytes")
	}

	if err := b.Write(&buf); err != ErrWriteAfterClose {
		t.Errorf("expected ErrWriteAfterClose on second Write, got %v", err)
	}
}
