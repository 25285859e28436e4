package rpmtag

// PossibleArchs is the set of architecture names a header's Arch tag is
// checked against. Ported from oldpyrpm.py's possible_archs table.
var PossibleArchs = map[string]bool{
	"noarch": true, "i386": true, "i486": true, "i586": true, "i686": true,
	"athlon": true, "pentium3": true, "pentium4": true, "x86_64": true,
	"ia32e": true, "ia64": true,
	"alpha": true, "alphaev6": true, "axp": true,
	"sparc": true, "sparc64": true,
	"s390": true, "s390x": true,
	"ppc": true, "ppc64": true, "ppc64iseries": true, "ppc64pseries": true,
	"ppcpseries": true, "ppciseries": true, "ppcmac": true, "ppc8260": true,
	"m68k": true,
	"arm": true, "armv4l": true,
	"mips": true, "mipseb": true, "mipsel": true,
	"hppa": true, "sh": true,
}

// archFamily groups architecture names that may satisfy a dependency on one
// another during multilib resolution. oldpyrpm.py's functions.py (not part
// of the retrieved source) carried the canonical archCompat/buildarchtranslate
// tables; this is the standard RPM multilib family grouping reconstructed
// from well-known platform convention (32-bit x86, ppc64, s390x, sparc64,
// alpha), documented as a gap in DESIGN.md.
var archFamily = map[string]string{
	"i386": "x86", "i486": "x86", "i586": "x86", "i686": "x86",
	"athlon": "x86", "pentium3": "x86", "pentium4": "x86",
	"x86_64": "x86_64", "ia32e": "x86_64",
	"ppc":          "ppc",
	"ppc64":        "ppc64", "ppc64iseries": "ppc64", "ppc64pseries": "ppc64",
	"ppcpseries": "ppc", "ppciseries": "ppc", "ppcmac": "ppc", "ppc8260": "ppc",
	"s390":  "s390",
	"s390x": "s390x",
	"sparc": "sparc", "sparc64": "sparc64",
	"alpha": "alpha", "alphaev6": "alpha", "axp": "alpha",
	"ia64": "ia64",
}

// buildarchtranslate maps a package-reported build arch to the multilib
// family it contributes files to, mirroring pyrpm's rpmconfig.buildarchtranslate
// table used by the file-conflict multilib exception (§4.4).
var buildarchtranslate = map[string]string{
	"i386": "i386", "i486": "i386", "i586": "i386", "i686": "i386",
	"athlon": "i386", "pentium3": "i386", "pentium4": "i386",
	"x86_64": "x86_64", "ia32e": "x86_64",
	"ppc": "ppc", "ppc64": "ppc64", "ppc64iseries": "ppc64",
	"ppc64pseries": "ppc64", "ppcpseries": "ppc", "ppciseries": "ppc",
	"ppcmac": "ppc", "ppc8260": "ppc",
	"s390": "s390", "s390x": "s390x",
	"sparc": "sparc", "sparc64": "sparc64",
	"alpha": "alpha", "alphaev6": "alpha", "axp": "alpha",
	"ia64": "ia64",
	"noarch": "noarch",
}

// ArchCompat reports whether a package built for have may satisfy a
// dependency or install alongside a package wanting want, per the same
// archCompat family grouping pyrpm uses for its multilib checks.
func ArchCompat(have, want string) bool {
	if have == want {
		return true
	}
	if have == "noarch" || want == "noarch" {
		return true
	}
	hf, ok1 := archFamily[have]
	wf, ok2 := archFamily[want]
	return ok1 && ok2 && hf == wf
}

// ArchDuplicate reports whether two installed packages with the given
// architectures are considered the "same" multilib slot for the purposes of
// update/obsolete matching (same family but not necessarily identical arch).
func ArchDuplicate(a, b string) bool {
	if a == b {
		return true
	}
	fa, ok1 := archFamily[a]
	fb, ok2 := archFamily[b]
	return ok1 && ok2 && fa == fb
}

// BuildArchTranslate maps an installed package's Arch tag to the multilib
// family used by the file-conflict buildarch exception in the resolver.
func BuildArchTranslate(arch string) string {
	if fam, ok := buildarchtranslate[arch]; ok {
		return fam
	}
	return arch
}
