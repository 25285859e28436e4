package rpmtag

// Sense is the RPMSENSE_* bitfield carried alongside a dependency's
// (name, evr) pair: comparison operator, scriptlet phase, trigger phase and
// a handful of classification bits. See §3 "Dependency triple".
type Sense uint32

const (
	SenseAny     Sense = 0
	SenseLess    Sense = 1 << 1
	SenseGreater Sense = 1 << 2
	SenseEqual   Sense = 1 << 3

	SensePreReq        Sense = 1 << 6
	SenseInterp        Sense = 1 << 8
	SenseScriptPre     Sense = 1 << 9
	SenseScriptPost    Sense = 1 << 10
	SenseScriptPreUn   Sense = 1 << 11
	SenseScriptPostUn  Sense = 1 << 12
	SenseRPMLib        Sense = 1 << 24
	SenseTriggerPreIn  Sense = 1 << 25
	SenseKeyring       Sense = 1 << 26
	SenseConfig        Sense = 1 << 28
	SenseMissingOK     Sense = 1 << 19
	SenseFindRequires  Sense = 1 << 16
	SenseFindProvides  Sense = 1 << 17

	SenseTriggerIn      Sense = 1 << 16
	SenseTriggerUn      Sense = 1 << 17
	SenseTriggerPostUn  Sense = 1 << 18
	SenseTriggerMask    = SenseTriggerIn | SenseTriggerUn | SenseTriggerPostUn | SenseTriggerPreIn
)

// SenseVersionMask isolates the comparison-operator bits of a Sense value.
const SenseVersionMask = SenseLess | SenseGreater | SenseEqual

// allRequiresMask matches pyrpm's RPMSENSE_SCRIPT_MASK in spirit: the set of
// bits that, with PREREQ, distinguish a legacy prereq from an ordinary one.
const allRequiresMask = SensePreReq | SenseScriptPre | SenseScriptPost |
	SenseScriptPreUn | SenseScriptPostUn | SenseRPMLib | SenseKeyring | SenseInterp

// IsLegacyPreReq reports whether flag is a "legacy prereq": PREREQ set with
// none of the script/rpmlib classification bits also set.
//
// Ported from oldpyrpm.py:isLegacyPreReq.
func IsLegacyPreReq(flag Sense) bool {
	return flag&allRequiresMask == SensePreReq
}

// IsInstallPreReq reports whether flag marks a prereq that must be satisfied
// before install/post-install scriptlets run.
//
// Ported from oldpyrpm.py:isInstallPreReq.
func IsInstallPreReq(flag Sense) bool {
	return flag&(SenseScriptPre|SenseScriptPost|SenseRPMLib|SenseKeyring) != 0
}

// IsErasePreReq reports whether flag marks a prereq needed before erase
// scriptlets run.
//
// Ported from oldpyrpm.py:isErasePreReq.
func IsErasePreReq(flag Sense) bool {
	return flag&(SenseScriptPreUn|SenseScriptPostUn) != 0
}
