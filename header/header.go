// Package header implements the RPM header codec: the signature header and
// main header index/store structure shared by both, including the
// self-referential "immutable region" tag every real header carries.
//
// Grounded on the teacher's header.go (encode side) and on
// oldpyrpm.py's ReadRpm.__readIndex/__parseIndex/__verifyIndex (decode
// side and validation rules).
package header

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"
	"github.com/rpmcore/rpmcore/rpmtag"
)

// entrySize is the fixed width of one index record: tag, type, offset, count.
const entrySize = 16

// alignment gives the store-offset alignment each fixed-width scalar type
// requires. Variable-width types (strings, string arrays, bin) need none.
var alignment = map[rpmtag.Type]int{
	rpmtag.Int16: 2,
	rpmtag.Int32: 4,
	rpmtag.Int64: 8,
}

// Entry is one decoded tag/value pair from a header.
type Entry struct {
	Tag   rpmtag.Tag
	Type  rpmtag.Type
	Count int
	data  []byte
}

// Header is a decoded signature or main header: an ordered-by-tag map of
// entries plus the region tag that closes it.
type Header struct {
	RegionTag rpmtag.Tag
	entries   map[rpmtag.Tag]*Entry
}

// New returns an empty header that will be closed with the given region tag
// (rpmtag.HeaderSignatures for a signature header, rpmtag.HeaderImmutable
// for a main header) when encoded.
func New(regionTag rpmtag.Tag) *Header {
	return &Header{RegionTag: regionTag, entries: make(map[rpmtag.Tag]*Entry)}
}

// Has reports whether tag is present.
func (h *Header) Has(tag rpmtag.Tag) bool {
	_, ok := h.entries[tag]
	return ok
}

// Get returns the raw decoded entry for tag, or nil if absent.
func (h *Header) Get(tag rpmtag.Tag) *Entry {
	return h.entries[tag]
}

// Tags returns every tag present, sorted ascending (the order Encode writes
// them in, matching rpm's own convention of a tag-sorted index).
func (h *Header) Tags() []rpmtag.Tag {
	tags := make([]rpmtag.Tag, 0, len(h.entries))
	for t := range h.entries {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// ---- typed accessors ----

// String returns a RPM_STRING tag's value, or "" if absent or wrong type.
func (h *Header) String(tag rpmtag.Tag) string {
	e := h.entries[tag]
	if e == nil || e.Type != rpmtag.String {
		return ""
	}
	return string(bytes.TrimRight(e.data, "\x00"))
}

// StringArray returns a RPM_STRING_ARRAY/RPM_I18NSTRING tag's values.
func (h *Header) StringArray(tag rpmtag.Tag) []string {
	e := h.entries[tag]
	if e == nil || (e.Type != rpmtag.StringArray && e.Type != rpmtag.I18NString) {
		return nil
	}
	out := make([]string, 0, e.Count)
	start := 0
	for i := 0; i < e.Count; i++ {
		end := bytes.IndexByte(e.data[start:], 0)
		if end < 0 {
			break
		}
		out = append(out, string(e.data[start:start+end]))
		start += end + 1
	}
	return out
}

// Int32Array returns a RPM_INT32 tag's values.
func (h *Header) Int32Array(tag rpmtag.Tag) []int32 {
	e := h.entries[tag]
	if e == nil || e.Type != rpmtag.Int32 {
		return nil
	}
	out := make([]int32, e.Count)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(e.data[i*4:]))
	}
	return out
}

// Int32 returns the first value of a RPM_INT32 tag, or 0 if absent.
func (h *Header) Int32(tag rpmtag.Tag) int32 {
	v := h.Int32Array(tag)
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

// Int16Array returns a RPM_INT16 tag's values.
func (h *Header) Int16Array(tag rpmtag.Tag) []int16 {
	e := h.entries[tag]
	if e == nil || e.Type != rpmtag.Int16 {
		return nil
	}
	out := make([]int16, e.Count)
	for i := range out {
		out[i] = int16(binary.BigEndian.Uint16(e.data[i*2:]))
	}
	return out
}

// Bytes returns a RPM_BIN tag's raw value.
func (h *Header) Bytes(tag rpmtag.Tag) []byte {
	e := h.entries[tag]
	if e == nil || e.Type != rpmtag.Bin {
		return nil
	}
	return e.data
}

// ---- setters (encode side) ----

func (h *Header) add(tag rpmtag.Tag, t rpmtag.Type, count int, data []byte) {
	h.entries[tag] = &Entry{Tag: tag, Type: t, Count: count, data: data}
}

// SetString adds or replaces a RPM_STRING tag.
func (h *Header) SetString(tag rpmtag.Tag, v string) {
	h.add(tag, rpmtag.String, 1, append([]byte(v), 0))
}

// SetStringArray adds or replaces a RPM_STRING_ARRAY tag.
func (h *Header) SetStringArray(tag rpmtag.Tag, v []string) {
	var b bytes.Buffer
	for _, s := range v {
		b.WriteString(s)
		b.WriteByte(0)
	}
	h.add(tag, rpmtag.StringArray, len(v), b.Bytes())
}

// SetI18NStringArray adds or replaces a RPM_I18NSTRING tag (single-language
// headers store it identically to a string array).
func (h *Header) SetI18NStringArray(tag rpmtag.Tag, v []string) {
	var b bytes.Buffer
	for _, s := range v {
		b.WriteString(s)
		b.WriteByte(0)
	}
	h.add(tag, rpmtag.I18NString, len(v), b.Bytes())
}

// SetInt32Array adds or replaces a RPM_INT32 tag.
func (h *Header) SetInt32Array(tag rpmtag.Tag, v []int32) {
	b := make([]byte, 4*len(v))
	for i, x := range v {
		binary.BigEndian.PutUint32(b[i*4:], uint32(x))
	}
	h.add(tag, rpmtag.Int32, len(v), b)
}

// SetInt32 adds or replaces a single-valued RPM_INT32 tag.
func (h *Header) SetInt32(tag rpmtag.Tag, v int32) { h.SetInt32Array(tag, []int32{v}) }

// SetInt16Array adds or replaces a RPM_INT16 tag.
func (h *Header) SetInt16Array(tag rpmtag.Tag, v []int16) {
	b := make([]byte, 2*len(v))
	for i, x := range v {
		binary.BigEndian.PutUint16(b[i*2:], uint16(x))
	}
	h.add(tag, rpmtag.Int16, len(v), b)
}

// SetBytes adds or replaces a RPM_BIN tag.
func (h *Header) SetBytes(tag rpmtag.Tag, v []byte) {
	h.add(tag, rpmtag.Bin, len(v), v)
}

// Remove deletes tag if present.
func (h *Header) Remove(tag rpmtag.Tag) { delete(h.entries, tag) }
