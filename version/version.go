// Package version implements RPM's epoch/version/release comparison algebra:
// the alternating alpha/numeric segment comparison rpm calls rpmvercmp, and
// the EVR triple comparison built on top of it.
//
// Ported from oldpyrpm.py's stringCompare/labelCompare.
package version

import "strconv"

// EVR is an (epoch, version, release) triple. Epoch is stored as a string
// (rather than int) so an absent epoch and an epoch of "0" compare as rpm's
// own stringCompare would compare them — as equal.
type EVR struct {
	Epoch   string
	Version string
	Release string
}

// NewEVR builds an EVR, defaulting a blank epoch to "0" as rpm does when a
// header carries no Epoch tag.
func NewEVR(epoch, ver, rel string) EVR {
	if epoch == "" {
		epoch = "0"
	}
	return EVR{Epoch: epoch, Version: ver, Release: rel}
}

// EpochInt parses Epoch as an integer, returning 0 if it is blank or
// unparseable (mirroring rpm's tolerant epoch handling).
func (e EVR) EpochInt() int {
	n, err := strconv.Atoi(e.Epoch)
	if err != nil {
		return 0
	}
	return n
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlnum(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

// CmpString compares two version (or release, or epoch) strings segment by
// segment, alternating between runs of digits and runs of letters, the way
// rpm/lib/rpmver.c:rpmvercmp does. Non-alphanumeric bytes act only as
// segment separators and never participate in the comparison itself.
func CmpString(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}
	n1, n2 := len(s1), len(s2)
	i1, i2 := 0, 0
	for i1 < n1 && i2 < n2 {
		for i1 < n1 && !isAlnum(s1[i1]) {
			i1++
		}
		for i2 < n2 && !isAlnum(s2[i2]) {
			i2++
		}
		j1, j2 := i1, i2
		var isNum bool
		if j1 < n1 && isDigit(s1[j1]) {
			for j1 < n1 && isDigit(s1[j1]) {
				j1++
			}
			for j2 < n2 && isDigit(s2[j2]) {
				j2++
			}
			isNum = true
		} else {
			for j1 < n1 && isAlpha(s1[j1]) {
				j1++
			}
			for j2 < n2 && isAlpha(s2[j2]) {
				j2++
			}
			isNum = false
		}
		if j1 == i1 {
			return -1
		}
		if j2 == i2 {
			if isNum {
				return 1
			}
			return -1
		}
		if isNum {
			for i1 < j1 && s1[i1] == '0' {
				i1++
			}
			for i2 < j2 && s2[i2] == '0' {
				i2++
			}
			if j1-i1 > j2-i2 {
				return 1
			}
			if j2-i2 > j1-i1 {
				return -1
			}
		}
		if x := compareBytes(s1[i1:j1], s2[i2:j2]); x != 0 {
			return x
		}
		i1, i2 = j1, j2
	}
	if i1 == n1 {
		if i2 == n2 {
			return 0
		}
		return -1
	}
	return 1
}

func compareBytes(a, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Cmp compares two EVR triples, ignoring the release component entirely if
// either side's release is empty (the behavior rpm relies on when matching
// a dependency that names no release). A blank epoch compares as "0".
func Cmp(e1, e2 EVR) int {
	r1, r2 := e1.Release, e2.Release
	if r2 == "" {
		r1 = ""
	} else if r1 == "" {
		r2 = ""
	}
	ep1, ep2 := e1.Epoch, e2.Epoch
	if ep1 == "" {
		ep1 = "0"
	}
	if ep2 == "" {
		ep2 = "0"
	}
	if x := CmpString(ep1, ep2); x != 0 {
		return x
	}
	if x := CmpString(e1.Version, e2.Version); x != 0 {
		return x
	}
	return CmpString(r1, r2)
}

// Equal reports whether e1 and e2 compare equal under Cmp.
func Equal(e1, e2 EVR) bool { return Cmp(e1, e2) == 0 }

// Less reports whether e1 sorts strictly before e2 under Cmp.
func Less(e1, e2 EVR) bool { return Cmp(e1, e2) < 0 }
