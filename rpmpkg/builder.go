package rpmpkg

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/pkg/errors"
	"github.com/rpmcore/rpmcore/cpiopayload"
	"github.com/rpmcore/rpmcore/header"
	"github.com/rpmcore/rpmcore/rpmtag"
)

// ErrWriteAfterClose is returned when Write is called on a Builder that has
// already produced output.
var ErrWriteAfterClose = errors.New("rpmpkg: write after close")

// Meta carries the scalar package identity fields a Builder writes into the
// header, mirroring the teacher's RPMMetaData.
type Meta struct {
	Name, Description, Version, Release, Arch, OS string
	Vendor, URL, Packager, License                string

	Provides, Obsoletes, Suggests, Recommends, Requires, Conflicts []Dependency
}

// fileEntry is a staged file awaiting Write.
type fileEntry struct {
	name            string
	body            []byte
	mode            uint32
	owner, group    string
	mtime           uint32
}

// Builder assembles a package in memory: metadata, a file manifest, and
// scriptlets, then serializes lead + signature header + main header +
// compressed cpio payload on Write.
//
// Grounded on the teacher's RPM/NewRPM/AddFile/Write (rpm.go).
type Builder struct {
	Meta
	files  map[string]fileEntry
	closed bool

	prein, postin, preun, postun                 string
	preInProg, postInProg, preUnProg, postUnProg string
}

// NewBuilder returns a Builder seeded with m, defaulting OS to "linux" like
// the teacher's NewRPM.
func NewBuilder(m Meta) *Builder {
	if m.OS == "" {
		m.OS = "linux"
	}
	return &Builder{Meta: m, files: make(map[string]fileEntry)}
}

// AddFile stages a regular file, directory (mode&040000) or symlink
// (mode&0120000, body = link target) to be written at Write time.
func (b *Builder) AddFile(name string, body []byte, mode uint32, owner, group string, mtime uint32) {
	b.files[name] = fileEntry{name: name, body: body, mode: mode, owner: owner, group: group, mtime: mtime}
}

// SetScriptlets installs the package's four lifecycle scriptlets and their
// interpreters (empty prog defaults to /bin/sh at read time).
func (b *Builder) SetScriptlets(s Scriptlets) {
	b.prein, b.postin, b.preun, b.postun = s.PreIn, s.PostIn, s.PreUn, s.PostUn
	b.preInProg, b.postInProg, b.preUnProg, b.postUnProg = s.PreInProg, s.PostInProg, s.PreUnProg, s.PostUnProg
}

// FullVersion combines Version and Release the way rpm's lead name does.
func (b *Builder) FullVersion() string {
	if b.Release != "" {
		return fmt.Sprintf("%s-%s", b.Version, b.Release)
	}
	return b.Version
}

// Write serializes the complete RPM (lead, signature header, main header,
// compressed payload) to w. A Builder may only be written once.
func (b *Builder) Write(w io.Writer) error {
	if b.closed {
		return ErrWriteAfterClose
	}
	b.closed = true

	names := make([]string, 0, len(b.files))
	for n := range b.files {
		names = append(names, n)
	}
	sort.Strings(names)

	var payloadBuf bytes.Buffer
	pw := cpiopayload.NewWriter(&payloadBuf)

	dirIdx := newDirIndex()
	hdr := header.New(rpmtag.HeaderImmutable)

	var dirindexes, filesizes []int32
	var filemodes, filerdevs []int16
	var filemtimes, filedevices, fileinodes []int32
	var basenames, fileusers, filegroups, filedigests, filelinktos []string

	for _, n := range names {
		f := b.files[n]
		dir, base := path.Split(n)
		dirindexes = append(dirindexes, int32(dirIdx.get(dir)))
		basenames = append(basenames, base)
		fileusers = append(fileusers, f.owner)
		filegroups = append(filegroups, f.group)
		filemtimes = append(filemtimes, int32(f.mtime))
		filerdevs = append(filerdevs, 0)
		filedevices = append(filedevices, 1)
		fileinodes = append(fileinodes, int32(len(fileinodes)+1))

		links := 1
		mode := f.mode
		var body []byte
		switch {
		case mode&0170000 == 040000:
			filesizes = append(filesizes, 4096)
			filedigests = append(filedigests, "")
			filelinktos = append(filelinktos, "")
			links = 2
		case mode&0170000 == 0120000:
			filesizes = append(filesizes, int32(len(f.body)))
			filedigests = append(filedigests, "")
			filelinktos = append(filelinktos, string(f.body))
			body = f.body
		default:
			mode |= 0100000
			filesizes = append(filesizes, int32(len(f.body)))
			filedigests = append(filedigests, fmt.Sprintf("%x", sha256.Sum256(f.body)))
			filelinktos = append(filelinktos, "")
			body = f.body
		}
		filemodes = append(filemodes, int16(mode))
		if err := pw.WriteEntry(cpiopayload.Entry{Name: n, Mode: mode, Size: int64(len(body)), Links: links, Body: body}); err != nil {
			return errors.Wrapf(err, "rpmpkg: write payload entry %q", n)
		}
	}
	if err := pw.Close(); err != nil {
		return errors.Wrap(err, "rpmpkg: close payload")
	}

	hdr.SetStringArray(rpmtag.HeaderI18NTable, []string{"C"})
	hdr.SetInt32(rpmtag.Size, int32(pw.Size()))
	hdr.SetString(rpmtag.Name, b.Name)
	hdr.SetI18NStringArray(rpmtag.Description, []string{b.Description})
	hdr.SetString(rpmtag.Version, b.Version)
	hdr.SetString(rpmtag.Release, b.Release)
	hdr.SetString(rpmtag.PayloadFormat, "cpio")
	hdr.SetString(rpmtag.PayloadCompressor, "gzip")
	hdr.SetString(rpmtag.PayloadFlags, "9")
	hdr.SetString(rpmtag.OS, b.OS)
	hdr.SetString(rpmtag.Arch, b.Arch)
	hdr.SetString(rpmtag.Vendor, b.Vendor)
	hdr.SetString(rpmtag.License, b.License)
	hdr.SetString(rpmtag.Packager, b.Packager)
	hdr.SetString(rpmtag.URL, b.URL)

	if b.prein != "" {
		hdr.SetString(rpmtag.Prein, b.prein)
	}
	if b.preInProg != "" {
		hdr.SetString(rpmtag.PreInProg, b.preInProg)
	}
	if b.postin != "" {
		hdr.SetString(rpmtag.Postin, b.postin)
	}
	if b.postInProg != "" {
		hdr.SetString(rpmtag.PostInProg, b.postInProg)
	}
	if b.preun != "" {
		hdr.SetString(rpmtag.Preun, b.preun)
	}
	if b.preUnProg != "" {
		hdr.SetString(rpmtag.PreUnProg, b.preUnProg)
	}
	if b.postun != "" {
		hdr.SetString(rpmtag.Postun, b.postun)
	}
	if b.postUnProg != "" {
		hdr.SetString(rpmtag.PostUnProg, b.postUnProg)
	}

	writeDepSet(hdr, append(selfProvide(b.Name, b.Version), b.Provides...), rpmtag.ProvideName, rpmtag.ProvideFlags, rpmtag.ProvideVersion)
	writeDepSet(hdr, b.Requires, rpmtag.RequireName, rpmtag.RequireFlags, rpmtag.RequireVersion)
	writeDepSet(hdr, b.Conflicts, rpmtag.ConflictName, rpmtag.ConflictFlags, rpmtag.ConflictVersion)
	writeDepSet(hdr, b.Obsoletes, rpmtag.ObsoleteName, rpmtag.ObsoleteFlags, rpmtag.ObsoleteVersion)
	writeDepSet(hdr, b.Recommends, rpmtag.RecommendName, rpmtag.RecommendFlags, rpmtag.RecommendVersion)
	writeDepSet(hdr, b.Suggests, rpmtag.SuggestName, rpmtag.SuggestFlags, rpmtag.SuggestVersion)

	if len(basenames) > 0 {
		hdr.SetStringArray(rpmtag.Basenames, basenames)
		hdr.SetStringArray(rpmtag.DirNames, dirIdx.sorted())
		hdr.SetInt32Array(rpmtag.DirIndexes, dirindexes)
		hdr.SetInt32Array(rpmtag.FileSizes, filesizes)
		hdr.SetInt16Array(rpmtag.FileModes, filemodes)
		hdr.SetInt16Array(rpmtag.FileRDevs, filerdevs)
		hdr.SetInt32Array(rpmtag.FileMTimes, filemtimes)
		hdr.SetStringArray(rpmtag.FileDigests, filedigests)
		hdr.SetStringArray(rpmtag.FileLinkTos, filelinktos)
		hdr.SetStringArray(rpmtag.FileUserName, fileusers)
		hdr.SetStringArray(rpmtag.FileGroupName, filegroups)
		hdr.SetInt32Array(rpmtag.FileDevices, filedevices)
		hdr.SetInt32Array(rpmtag.FileInodes, fileinodes)
	}

	hb, err := hdr.Encode()
	if err != nil {
		return errors.Wrap(err, "rpmpkg: encode main header")
	}

	sig := header.New(rpmtag.HeaderSignatures)
	sig.SetInt32(rpmtag.SigSize, int32(payloadBuf.Len()+len(hb)))
	digest := sha256.Sum256(hb)
	sig.SetString(rpmtag.SigSHA256, fmt.Sprintf("%x", digest))
	sig.SetInt32(rpmtag.SigPayloadSize, int32(pw.Size()))
	sb, err := sig.Encode()
	if err != nil {
		return errors.Wrap(err, "rpmpkg: encode signature header")
	}

	if _, err := w.Write(header.EncodeLead(b.Name, b.FullVersion())); err != nil {
		return errors.Wrap(err, "rpmpkg: write lead")
	}
	if _, err := w.Write(sb); err != nil {
		return errors.Wrap(err, "rpmpkg: write signature header")
	}
	if pad := (8 - len(sb)%8) % 8; pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return errors.Wrap(err, "rpmpkg: write signature padding")
		}
	}
	if _, err := w.Write(hb); err != nil {
		return errors.Wrap(err, "rpmpkg: write main header")
	}
	_, err = w.Write(payloadBuf.Bytes())
	return errors.Wrap(err, "rpmpkg: write payload")
}

func selfProvide(name, version string) []Dependency {
	return []Dependency{{Name: name, Sense: rpmtag.SenseEqual, EVR: parseDepEVR(version)}}
}

func writeDepSet(h *header.Header, deps []Dependency, nameTag, flagTag, verTag rpmtag.Tag) {
	if len(deps) == 0 {
		return
	}
	names := make([]string, len(deps))
	flags := make([]int32, len(deps))
	vers := make([]string, len(deps))
	for i, d := range deps {
		names[i] = d.Name
		flags[i] = int32(d.Sense)
		if d.EVR.Version != "" {
			if d.EVR.Epoch != "" && d.EVR.Epoch != "0" {
				vers[i] = d.EVR.Epoch + ":" + d.EVR.Version
			} else {
				vers[i] = d.EVR.Version
			}
			if d.EVR.Release != "" {
				vers[i] += "-" + d.EVR.Release
			}
		}
	}
	h.SetStringArray(nameTag, names)
	h.SetInt32Array(flagTag, flags)
	h.SetStringArray(verTag, vers)
}

// dirIndex deduplicates directory names into a table in first-seen order, the way
// the teacher's dir.go:dirIndex does for DirNames/DirIndexes.
type dirIndex struct {
	idx map[string]int
}

func newDirIndex() *dirIndex { return &dirIndex{idx: make(map[string]int)} }

func (d *dirIndex) get(dir string) int {
	if i, ok := d.idx[dir]; ok {
		return i
	}
	i := len(d.idx)
	d.idx[dir] = i
	return i
}

func (d *dirIndex) sorted() []string {
	out := make([]string, len(d.idx))
	for dir, i := range d.idx {
		out[i] = dir
	}
	return out
}
