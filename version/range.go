package version

import "github.com/rpmcore/rpmcore/rpmtag"

// RangesOverlap reports whether a dependency range (sense1, evr1) and a
// provide/installed range (sense2, evr2) can be satisfied simultaneously,
// i.e. whether there exists some version that matches both operators. This
// is the comparison rpm performs when checking a Requires against a
// Provides/Conflicts/Obsoletes range (rpmlib's rpmRangesOverlap).
//
// Either side may omit its version-comparison bits entirely (SenseAny),
// meaning "matches any version of this name" — common for file or virtual
// provides that carry no EVR.
func RangesOverlap(sense1 rpmtag.Sense, evr1 EVR, sense2 rpmtag.Sense, evr2 EVR) bool {
	op1 := sense1 & rpmtag.SenseVersionMask
	op2 := sense2 & rpmtag.SenseVersionMask
	if op1 == rpmtag.SenseAny || op2 == rpmtag.SenseAny {
		return true
	}
	sense := Cmp(evr1, evr2)
	switch {
	case sense < 0:
		if op1&rpmtag.SenseGreater != 0 || op2&rpmtag.SenseLess != 0 {
			return true
		}
	case sense > 0:
		if op1&rpmtag.SenseLess != 0 || op2&rpmtag.SenseGreater != 0 {
			return true
		}
	default:
		if op1&rpmtag.SenseEqual != 0 && op2&rpmtag.SenseEqual != 0 {
			return true
		}
		if op1&rpmtag.SenseLess != 0 && op2&rpmtag.SenseLess != 0 {
			return true
		}
		if op1&rpmtag.SenseGreater != 0 && op2&rpmtag.SenseGreater != 0 {
			return true
		}
	}
	return false
}
