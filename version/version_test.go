package version

import (
	"testing"

	"github.com/rpmcore/rpmcore/rpmtag"
)

func TestCmpString(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "1.1", -1},
		{"1.1", "1.0", 1},
		{"1.01", "1.000001", 0},
		{"1.0", "1.0a", -1},
		{"2.0", "10.0", -1},
		{"a", "b", -1},
		{"1.0", "1.a", 1},
		{"5.5p1", "5.5p2", -1},
		{"5.5p10", "5.5p1", 1},
		{"10xyz", "10.1xyz", -1},
	}
	for _, c := range cases {
		if got := CmpString(c.a, c.b); sign(got) != sign(c.want) {
			t.Errorf("CmpString(%q, %q) = %d, want sign %d", c.a, c.b, got, c.want)
		}
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func TestCmpReleaseIgnoredWhenMissing(t *testing.T) {
	e1 := NewEVR("0", "1.0", "")
	e2 := NewEVR("0", "1.0", "5")
	if !Equal(e1, e2) {
		t.Fatalf("expected equal when one release is blank, got Cmp=%d", Cmp(e1, e2))
	}
}

func TestCmpEpoch(t *testing.T) {
	older := NewEVR("0", "9.0", "1")
	newer := NewEVR("1", "1.0", "1")
	if !Less(older, newer) {
		t.Fatalf("expected epoch 0 < epoch 1 regardless of version")
	}
}

func TestRangesOverlap(t *testing.T) {
	v1 := NewEVR("0", "1.0", "1")
	v2 := NewEVR("0", "2.0", "1")

	// Requires foo >= 1.0, Provides foo = 2.0 -> overlap.
	if !RangesOverlap(rpmtag.SenseGreater|rpmtag.SenseEqual, v1, rpmtag.SenseEqual, v2) {
		t.Errorf("expected >= 1.0 to overlap with = 2.0")
	}
	// Requires foo < 1.0, Provides foo = 2.0 -> no overlap.
	if RangesOverlap(rpmtag.SenseLess, v1, rpmtag.SenseEqual, v2) {
		t.Errorf("expected < 1.0 not to overlap with = 2.0")
	}
	// Unversioned requires always overlaps.
	if !RangesOverlap(rpmtag.SenseAny, v1, rpmtag.SenseEqual, v2) {
		t.Errorf("expected unversioned requires to overlap any provide")
	}
}
