package rpmpkg

import (
	"github.com/rpmcore/rpmcore/rpmtag"
	"github.com/rpmcore/rpmcore/version"
)

// Dependency is an RPM (name, flags, evr) triple — a single Provides,
// Requires, Conflicts, Obsoletes, Recommends or Suggests entry, or a
// Trigger's matching condition.
type Dependency struct {
	Name  string
	Sense rpmtag.Sense
	EVR   version.EVR
}

// Overlaps reports whether dep's range and other's range admit a common
// version, the core test the resolver runs to decide if a Requires is
// satisfied by a Provides, or a Conflicts/Obsoletes range hits an installed
// package.
func (d Dependency) Overlaps(other Dependency) bool {
	return version.RangesOverlap(d.Sense, d.EVR, other.Sense, other.EVR)
}

// IsLegacyPreReq reports whether this is a legacy (unqualified) prereq.
func (d Dependency) IsLegacyPreReq() bool { return rpmtag.IsLegacyPreReq(d.Sense) }

// IsInstallPreReq reports whether this prereq must be satisfied before
// install-time scriptlets run.
func (d Dependency) IsInstallPreReq() bool { return rpmtag.IsInstallPreReq(d.Sense) }

// IsErasePreReq reports whether this prereq must be satisfied before
// erase-time scriptlets run.
func (d Dependency) IsErasePreReq() bool { return rpmtag.IsErasePreReq(d.Sense) }

// IsRPMLib reports whether this is a synthetic rpmlib() feature dependency,
// which the resolver always treats as satisfied rather than resolving
// against another package's Provides.
func (d Dependency) IsRPMLib() bool { return d.Sense&rpmtag.SenseRPMLib != 0 }

// IsConfig reports whether this requirement names a config(...) capability,
// which pyrpm's orderer excludes from its dependency graph since config
// dependencies never gate install order.
func (d Dependency) IsConfig() bool {
	return len(d.Name) > 7 && d.Name[:7] == "config("
}
