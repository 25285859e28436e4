// Package rpmpkg models a single RPM package: its identity, its
// dependency triples, its file manifest, its scriptlets and triggers, all
// read out of a decoded header.Header.
//
// Grounded on the teacher's RPM/RPMMetaData/RPMFile (rpm.go) for shape, and
// on chennqqi-go-rpmdb's PackageInfo/PackageInfoEx (pkg/package.go) for the
// NEVRA/tag-dump accessor conventions.
package rpmpkg

import (
	"fmt"

	"github.com/rpmcore/rpmcore/header"
	"github.com/rpmcore/rpmcore/rpmtag"
	"github.com/rpmcore/rpmcore/version"
)

// Package is a parsed RPM: a signature header, a main header, and (for
// on-disk packages) a reference to where its payload begins.
type Package struct {
	Sig *header.Header
	Hdr *header.Header

	// PayloadOffset is the byte offset of the compressed cpio payload
	// within the source the package was decoded from, or 0 for packages
	// built in memory that have not yet been written out.
	PayloadOffset int64
}

// Name is the package's base name.
func (p *Package) Name() string { return p.Hdr.String(rpmtag.Name) }

// Arch is the package's target architecture ("noarch" for arch-independent
// packages).
func (p *Package) Arch() string { return p.Hdr.String(rpmtag.Arch) }

// OS is the package's target operating system.
func (p *Package) OS() string { return p.Hdr.String(rpmtag.OS) }

// IsSource reports whether this is a source package (no compiled
// binaries, carries a spec file and patches instead of /usr paths).
func (p *Package) IsSource() bool { return p.Hdr.String(rpmtag.SourceRPM) == "" }

// EVR returns the package's own (epoch, version, release) triple.
func (p *Package) EVR() version.EVR {
	return version.NewEVR(
		fmt.Sprintf("%d", p.Hdr.Int32(rpmtag.Epoch)),
		p.Hdr.String(rpmtag.Version),
		p.Hdr.String(rpmtag.Release),
	)
}

// NEVRA renders the package's name-epoch:version-release.arch identity
// string, the canonical key used throughout the resolver and orderer.
func (p *Package) NEVRA() string {
	evr := p.EVR()
	epoch := ""
	if evr.Epoch != "0" {
		epoch = evr.Epoch + ":"
	}
	return fmt.Sprintf("%s-%s%s-%s.%s", p.Name(), epoch, evr.Version, evr.Release, p.Arch())
}

// SelfProvide is the implicit Provides every package carries on its own
// (name, EVR) — required so a Requires: foo = 1.0 can match against the
// package named foo itself, not just an explicit Provides: foo entry.
func (p *Package) SelfProvide() Dependency {
	return Dependency{Name: p.Name(), Sense: rpmtag.SenseEqual, EVR: p.EVR()}
}

func depList(h *header.Header, nameTag, flagTag, verTag rpmtag.Tag) []Dependency {
	names := h.StringArray(nameTag)
	if len(names) == 0 {
		return nil
	}
	flags := h.Int32Array(flagTag)
	vers := h.StringArray(verTag)
	out := make([]Dependency, len(names))
	for i, n := range names {
		var sense rpmtag.Sense
		if i < len(flags) {
			sense = rpmtag.Sense(flags[i])
		}
		var v string
		if i < len(vers) {
			v = vers[i]
		}
		out[i] = Dependency{Name: n, Sense: sense, EVR: parseDepEVR(v)}
	}
	return out
}

// parseDepEVR parses a dependency's free-form version string ("1.2-3" or
// "2:1.2-3" or "") into an EVR triple; an empty string yields the zero EVR,
// matched by SenseAny since no comparison flag accompanies it.
func parseDepEVR(v string) version.EVR {
	if v == "" {
		return version.EVR{}
	}
	epoch := "0"
	rest := v
	for i := 0; i < len(v); i++ {
		if v[i] == ':' {
			epoch = v[:i]
			rest = v[i+1:]
			break
		}
	}
	ver, rel := rest, ""
	for i := 0; i < len(rest); i++ {
		if rest[i] == '-' {
			ver = rest[:i]
			rel = rest[i+1:]
			break
		}
	}
	return version.NewEVR(epoch, ver, rel)
}

// Provides returns every capability this package provides, including its
// own self-provide.
func (p *Package) Provides() []Dependency {
	out := append([]Dependency{p.SelfProvide()}, depList(p.Hdr, rpmtag.ProvideName, rpmtag.ProvideFlags, rpmtag.ProvideVersion)...)
	return out
}

// Requires returns every capability this package requires.
func (p *Package) Requires() []Dependency {
	return depList(p.Hdr, rpmtag.RequireName, rpmtag.RequireFlags, rpmtag.RequireVersion)
}

// Conflicts returns every capability this package conflicts with.
func (p *Package) Conflicts() []Dependency {
	return depList(p.Hdr, rpmtag.ConflictName, rpmtag.ConflictFlags, rpmtag.ConflictVersion)
}

// Obsoletes returns the set of packages this package obsoletes.
func (p *Package) Obsoletes() []Dependency {
	return depList(p.Hdr, rpmtag.ObsoleteName, rpmtag.ObsoleteFlags, rpmtag.ObsoleteVersion)
}

// Recommends returns the package's weak (non-failing) requirements.
func (p *Package) Recommends() []Dependency {
	return depList(p.Hdr, rpmtag.RecommendName, rpmtag.RecommendFlags, rpmtag.RecommendVersion)
}

// Suggests returns the package's weak (non-failing) suggestions.
func (p *Package) Suggests() []Dependency {
	return depList(p.Hdr, rpmtag.SuggestName, rpmtag.SuggestFlags, rpmtag.SuggestVersion)
}

// Scriptlets holds a package's install/erase scriptlet bodies and their
// interpreters.
type Scriptlets struct {
	PreIn, PostIn, PreUn, PostUn         string
	PreInProg, PostInProg, PreUnProg, PostUnProg string
}

// IsNoop reports whether script is empty or contains only blank lines and
// comments — pyrpm's isCommentOnly, used to skip forking an interpreter
// for scriptlets that do nothing.
func IsNoop(script string) bool {
	if script == "" {
		return true
	}
	start := 0
	for i := 0; i <= len(script); i++ {
		if i == len(script) || script[i] == '\n' {
			line := trimSpace(script[start:i])
			if line != "" && line[0] != '#' {
				return false
			}
			start = i + 1
		}
	}
	return true
}

func trimSpace(s string) string {
	i, j := 0, len(s)
	for i < j && isSpace(s[i]) {
		i++
	}
	for j > i && isSpace(s[j-1]) {
		j--
	}
	return s[i:j]
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' }

// Scriptlets returns the package's scriptlet bodies and interpreters.
func (p *Package) Scriptlets() Scriptlets {
	return Scriptlets{
		PreIn: p.Hdr.String(rpmtag.Prein), PostIn: p.Hdr.String(rpmtag.Postin),
		PreUn: p.Hdr.String(rpmtag.Preun), PostUn: p.Hdr.String(rpmtag.Postun),
		PreInProg: p.Hdr.String(rpmtag.PreInProg), PostInProg: p.Hdr.String(rpmtag.PostInProg),
		PreUnProg: p.Hdr.String(rpmtag.PreUnProg), PostUnProg: p.Hdr.String(rpmtag.PostUnProg),
	}
}

// FileEntry is one file in the package's manifest, reconstructed from the
// header's parallel basenames/dirnames/dirindexes/file* arrays.
type FileEntry struct {
	Name    string
	Size    uint32
	Mode    uint16
	MTime   uint32
	Digest  string
	LinkTo  string
	UserName, GroupName string
	Flags   int32
	Device, Inode int32
}

// Files reconstructs the package's full file manifest by joining dirnames,
// dirindexes and basenames, per oldpyrpm.py's getFilenames, falling back to
// the legacy OldFilenames tag for packages old enough to carry only that.
func (p *Package) Files() []FileEntry {
	basenames := p.Hdr.StringArray(rpmtag.Basenames)
	if len(basenames) == 0 {
		old := p.Hdr.StringArray(rpmtag.OldFilenames)
		if len(old) == 0 {
			return nil
		}
		out := make([]FileEntry, len(old))
		for i, n := range old {
			out[i] = FileEntry{Name: n}
		}
		return fillFileFields(p.Hdr, out)
	}
	dirnames := p.Hdr.StringArray(rpmtag.DirNames)
	dirindexes := p.Hdr.Int32Array(rpmtag.DirIndexes)
	out := make([]FileEntry, len(basenames))
	for i, b := range basenames {
		dir := ""
		if i < len(dirindexes) && int(dirindexes[i]) < len(dirnames) {
			dir = dirnames[dirindexes[i]]
		}
		out[i] = FileEntry{Name: dir + b}
	}
	return fillFileFields(p.Hdr, out)
}

func fillFileFields(h *header.Header, out []FileEntry) []FileEntry {
	sizes := h.Int32Array(rpmtag.FileSizes)
	modes := h.Int16Array(rpmtag.FileModes)
	mtimes := h.Int32Array(rpmtag.FileMTimes)
	digests := h.StringArray(rpmtag.FileDigests)
	linktos := h.StringArray(rpmtag.FileLinkTos)
	users := h.StringArray(rpmtag.FileUserName)
	groups := h.StringArray(rpmtag.FileGroupName)
	flags := h.Int32Array(rpmtag.FileFlags)
	devices := h.Int32Array(rpmtag.FileDevices)
	inodes := h.Int32Array(rpmtag.FileInodes)
	for i := range out {
		if i < len(sizes) {
			out[i].Size = uint32(sizes[i])
		}
		if i < len(modes) {
			out[i].Mode = uint16(modes[i])
		}
		if i < len(mtimes) {
			out[i].MTime = uint32(mtimes[i])
		}
		if i < len(digests) {
			out[i].Digest = digests[i]
		}
		if i < len(linktos) {
			out[i].LinkTo = linktos[i]
		}
		if i < len(users) {
			out[i].UserName = users[i]
		}
		if i < len(groups) {
			out[i].GroupName = groups[i]
		}
		if i < len(flags) {
			out[i].Flags = flags[i]
		}
		if i < len(devices) {
			out[i].Device = devices[i]
		}
		if i < len(inodes) {
			out[i].Inode = inodes[i]
		}
	}
	return out
}

// IsGhost reports whether a file carries the GHOST flag: listed in the
// header but not actually present in the payload (e.g. a log file the
// package expects to be created at runtime).
func (f FileEntry) IsGhost() bool { return f.Flags&fileFlagGhost != 0 }

// IsConfig reports whether a file is marked %config.
func (f FileEntry) IsConfig() bool { return f.Flags&fileFlagConfig != 0 }

const (
	fileFlagConfig = 1 << 0
	fileFlagGhost  = 1 << 6
)

// Trigger is one entry in a package's TriggerName/TriggerVersion/
// TriggerFlags/TriggerIndex parallel arrays: a dependency match condition
// plus which TriggerScripts body fires when it's hit.
type Trigger struct {
	Dependency
	ScriptIndex int32
}

// Triggers returns the package's trigger match conditions.
func (p *Package) Triggers() []Trigger {
	names := p.Hdr.StringArray(rpmtag.TriggerName)
	if len(names) == 0 {
		return nil
	}
	flags := p.Hdr.Int32Array(rpmtag.TriggerFlags)
	vers := p.Hdr.StringArray(rpmtag.TriggerVersion)
	idx := p.Hdr.Int32Array(rpmtag.TriggerIndex)
	out := make([]Trigger, len(names))
	for i, n := range names {
		var sense rpmtag.Sense
		if i < len(flags) {
			sense = rpmtag.Sense(flags[i])
		}
		var v string
		if i < len(vers) {
			v = vers[i]
		}
		var si int32
		if i < len(idx) {
			si = idx[i]
		}
		out[i] = Trigger{Dependency: Dependency{Name: n, Sense: sense, EVR: parseDepEVR(v)}, ScriptIndex: si}
	}
	return out
}

// TriggerScript returns the body and interpreter for the i'th trigger
// script, addressed by Trigger.ScriptIndex.
func (p *Package) TriggerScript(i int32) (body, prog string) {
	scripts := p.Hdr.StringArray(rpmtag.TriggerScripts)
	progs := p.Hdr.StringArray(rpmtag.TriggerScriptProg)
	if int(i) < len(scripts) {
		body = scripts[i]
	}
	if int(i) < len(progs) {
		prog = progs[i]
	}
	return body, prog
}
