package header

import (
	"testing"

	"github.com/rpmcore/rpmcore/rpmtag"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	h := New(rpmtag.HeaderImmutable)
	h.SetString(rpmtag.Name, "hello")
	h.SetString(rpmtag.Version, "1.0")
	h.SetString(rpmtag.Release, "1")
	h.SetInt32(rpmtag.Epoch, 0)
	h.SetStringArray(rpmtag.ProvideName, []string{"hello", "hello(x86-64)"})
	h.SetInt32Array(rpmtag.ProvideFlags, []int32{8, 8})
	h.SetStringArray(rpmtag.ProvideVersion, []string{"1.0-1", "1.0-1"})

	enc, err := h.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, consumed, err := Decode(enc, 1, DecodeOptions{Verify: VerifyNormal})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if consumed != len(enc) {
		t.Errorf("consumed %d, want %d", consumed, len(enc))
	}
	if got.String(rpmtag.Name) != "hello" {
		t.Errorf("Name = %q", got.String(rpmtag.Name))
	}
	if got.String(rpmtag.Version) != "1.0" {
		t.Errorf("Version = %q", got.String(rpmtag.Version))
	}
	if got.Int32(rpmtag.Epoch) != 0 {
		t.Errorf("Epoch = %d", got.Int32(rpmtag.Epoch))
	}
	names := got.StringArray(rpmtag.ProvideName)
	if len(names) != 2 || names[0] != "hello" || names[1] != "hello(x86-64)" {
		t.Errorf("ProvideName = %v", names)
	}
	if got.RegionTag != rpmtag.HeaderImmutable {
		t.Errorf("RegionTag = %d, want %d", got.RegionTag, rpmtag.HeaderImmutable)
	}
}

func TestEncodeDecodeEmptyHeader(t *testing.T) {
	h := New(rpmtag.HeaderSignatures)
	enc, err := h.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, _, err := Decode(enc, 8, DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.RegionTag != rpmtag.HeaderSignatures {
		t.Errorf("RegionTag = %d", got.RegionTag)
	}
	if len(got.Tags()) != 0 {
		t.Errorf("expected no non-region tags, got %v", got.Tags())
	}
}

func TestDecodeLead(t *testing.T) {
	raw := EncodeLead("hello", "1.0-1")
	l, err := DecodeLead(raw)
	if err != nil {
		t.Fatalf("DecodeLead: %v", err)
	}
	if l.Name != "hello-1.0-1" {
		t.Errorf("Name = %q", l.Name)
	}
	if l.Major != 3 || l.SigType != 5 {
		t.Errorf("unexpected lead fields: %+v", l)
	}
}
