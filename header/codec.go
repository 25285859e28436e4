package header

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/rpmcore/rpmcore/rpmtag"
)

func pad(w *bytes.Buffer, t rpmtag.Type) {
	if a, ok := alignment[t]; ok && w.Len()%a != 0 {
		w.Write(make([]byte, a-w.Len()%a))
	}
}

// Encode serializes the header to its on-disk form: an 8-byte magic/reserved
// prefix, a 4-byte entry count and 4-byte store size, the region tag's index
// record followed by every other tag's index record in ascending tag order,
// and finally the aligned, concatenated value store closed by the region
// tag's own 16-byte value.
//
// This mirrors the teacher's header.go:index.Bytes, including the
// "eigenHeader" trick: the region tag's index record is written first (tag
// order requires it, since region tags are numerically low) but its value
// bytes are appended last, and its offset is negative — the distance back
// from the end of the store to the start of the index records.
func (h *Header) Encode() ([]byte, error) {
	tags := h.Tags()
	store := &bytes.Buffer{}
	offsets := make([]int, len(tags))
	for i, tag := range tags {
		e := h.entries[tag]
		pad(store, e.Type)
		offsets[i] = store.Len()
		store.Write(e.data)
	}

	regionValue, err := regionEntryValue(h.RegionTag, len(tags))
	if err != nil {
		return nil, errors.Wrap(err, "header: encode region tag")
	}
	store.Write(regionValue)

	out := &bytes.Buffer{}
	out.Write(indexMagic)
	if err := binary.Write(out, binary.BigEndian, []int32{int32(len(tags)) + 1, int32(store.Len())}); err != nil {
		return nil, errors.Wrap(err, "header: encode count/size")
	}
	regionOffset := int32(store.Len()-16) * -1
	if err := writeIndexRecord(out, h.RegionTag, rpmtag.Bin, regionOffset, 16); err != nil {
		return nil, err
	}
	for i, tag := range tags {
		e := h.entries[tag]
		if err := writeIndexRecord(out, tag, e.Type, int32(offsets[i]), int32(e.Count)); err != nil {
			return nil, err
		}
	}
	out.Write(store.Bytes())
	return out.Bytes(), nil
}

func writeIndexRecord(w *bytes.Buffer, tag rpmtag.Tag, t rpmtag.Type, offset, count int32) error {
	return binary.Write(w, binary.BigEndian, []int32{int32(tag), int32(t), offset, count})
}

// regionEntryValue builds the 16-byte self-describing index record that the
// region tag's own value stores: itself, with an offset that points back
// past all n+1 index records.
func regionEntryValue(tag rpmtag.Tag, n int) ([]byte, error) {
	b := &bytes.Buffer{}
	if err := binary.Write(b, binary.BigEndian, []int32{
		int32(tag), int32(rpmtag.Bin), -int32(entrySize * (n + 1)), int32(entrySize),
	}); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// VerifyLevel selects how strictly Decode validates a header against the
// rpmtag.Schemas table.
type VerifyLevel int

const (
	// VerifyNone performs no schema validation; unknown or mistyped tags
	// are passed through as-is.
	VerifyNone VerifyLevel = iota
	// VerifyNormal validates type/count for tags present in rpmtag.Schemas
	// and returns an error on mismatch, but tolerates unknown tags.
	VerifyNormal
	// VerifyStrict additionally rejects FlagLegacy tags and unknown tags.
	VerifyStrict
)

// DecodeOptions controls Decode's validation strictness, corresponding to
// ReadRpm's verify/strict/nodigest flags.
type DecodeOptions struct {
	Verify VerifyLevel
	// IsSource marks a source-package header, gating FlagBinaryOnly checks
	// the way oldpyrpm.py's self.issrc does.
	IsSource bool
}

// Decode parses one header's index + store region starting at b[0]. It
// returns the parsed Header and the number of bytes consumed (8 magic + 8
// count/size + 16*indexNo index + storeSize, rounded up to pad).
//
// Ported from oldpyrpm.py's ReadRpm.__readIndex/__parseIndex.
func Decode(b []byte, pad int, opts DecodeOptions) (*Header, int, error) {
	if len(b) < 16 {
		return nil, 0, errors.New("header: truncated index prefix")
	}
	if !bytes.Equal(b[0:8], indexMagic) {
		return nil, 0, errors.New("header: bad index magic")
	}
	indexNo := int(binary.BigEndian.Uint32(b[8:12]))
	storeSize := int(binary.BigEndian.Uint32(b[12:16]))
	if indexNo < 1 {
		return nil, 0, errors.New("header: indexNo < 1")
	}
	recEnd := 16 + entrySize*indexNo
	storeEnd := recEnd + storeSize
	if len(b) < storeEnd {
		return nil, 0, errors.New("header: truncated index records/store")
	}
	records := b[16:recEnd]
	store := b[recEnd:storeEnd]

	h := &Header{entries: make(map[rpmtag.Tag]*Entry)}
	for i := 0; i < indexNo; i++ {
		rec := records[i*entrySize : (i+1)*entrySize]
		tag := rpmtag.Tag(int32(binary.BigEndian.Uint32(rec[0:4])))
		typ := rpmtag.Type(binary.BigEndian.Uint32(rec[4:8]))
		offset := int32(binary.BigEndian.Uint32(rec[8:12]))
		count := int(int32(binary.BigEndian.Uint32(rec[12:16])))

		switch tag {
		case rpmtag.HeaderSignatures, rpmtag.HeaderImmutable:
			h.RegionTag = tag
			continue
		}

		if offset < 0 || int(offset) >= len(store) {
			return nil, 0, errors.Errorf("header: tag %d has out-of-range offset %d", tag, offset)
		}
		size, err := sizeOf(typ, count, store, int(offset))
		if err != nil {
			return nil, 0, errors.Wrapf(err, "header: tag %d", tag)
		}
		if int(offset)+size > len(store) {
			return nil, 0, errors.Errorf("header: tag %d overruns store", tag)
		}
		data := store[offset : int(offset)+size]

		if opts.Verify != VerifyNone {
			if err := verifyTag(tag, typ, count, opts); err != nil {
				return nil, 0, err
			}
		}
		h.add(tag, typ, count, data)
	}

	consumed := storeEnd
	if pad > 1 && storeSize%pad != 0 {
		consumed += pad - storeSize%pad
	}
	return h, consumed, nil
}

func sizeOf(t rpmtag.Type, count int, store []byte, offset int) (int, error) {
	switch t {
	case rpmtag.Int8, rpmtag.Char:
		return count, nil
	case rpmtag.Int16:
		return count * 2, nil
	case rpmtag.Int32:
		return count * 4, nil
	case rpmtag.Int64:
		return count * 8, nil
	case rpmtag.Bin:
		return count, nil
	case rpmtag.String:
		if count != 1 {
			return 0, errors.New("string tag count must be 1")
		}
		end := bytes.IndexByte(store[offset:], 0)
		if end < 0 {
			return 0, errors.New("unterminated string")
		}
		return end + 1, nil
	case rpmtag.StringArray, rpmtag.I18NString:
		size := 0
		o := offset
		for i := 0; i < count; i++ {
			end := bytes.IndexByte(store[o:], 0)
			if end < 0 {
				return 0, errors.New("unterminated string array entry")
			}
			size += end + 1
			o += end + 1
		}
		return size, nil
	default:
		return 0, errors.Errorf("unknown tag type %d", t)
	}
}

func verifyTag(tag rpmtag.Tag, typ rpmtag.Type, count int, opts DecodeOptions) error {
	schema, ok := rpmtag.Schemas[tag]
	if !ok {
		if opts.Verify == VerifyStrict {
			return errors.Errorf("tag %d is not a known tag", tag)
		}
		return nil
	}
	if schema.Type != typ {
		return errors.Errorf("tag %d: expected type %d, got %d", tag, schema.Type, typ)
	}
	if schema.Count >= 0 && schema.Count != count {
		return errors.Errorf("tag %d: expected count %d, got %d", tag, schema.Count, count)
	}
	if schema.Flags&rpmtag.FlagLegacy != 0 && opts.Verify == VerifyStrict {
		return errors.Errorf("tag %d is a legacy tag", tag)
	}
	if opts.IsSource && schema.Flags&rpmtag.FlagBinaryOnly != 0 {
		return errors.Errorf("tag %d is binary-only, found in source header", tag)
	}
	if !opts.IsSource && schema.Flags&rpmtag.FlagSourceOnly != 0 {
		return errors.Errorf("tag %d is source-only, found in binary header", tag)
	}
	return nil
}
