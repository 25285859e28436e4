package rpmpkg

import (
	"io"
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/rpmcore/rpmcore/header"
)

// Read decodes a full RPM file (lead, signature header, main header) from
// r, leaving the compressed cpio payload unread at the stream's current
// position — callers that need file contents open a cpiopayload.Reader on
// the remainder themselves.
//
// Ported from oldpyrpm.py's ReadRpm.readHeader: a 96-byte lead, an 8-byte
// aligned signature header, then an unaligned main header.
func Read(r io.Reader, opts header.DecodeOptions) (*Package, error) {
	leadBuf := make([]byte, 96)
	if _, err := io.ReadFull(r, leadBuf); err != nil {
		return nil, errors.Wrap(err, "rpmpkg: read lead")
	}
	lead, err := header.DecodeLead(leadBuf)
	if err != nil && err != header.ErrLeadSuspect {
		return nil, errors.Wrap(err, "rpmpkg: decode lead")
	}

	sigPrefix := make([]byte, 16)
	if _, err := io.ReadFull(r, sigPrefix); err != nil {
		return nil, errors.Wrap(err, "rpmpkg: read signature prefix")
	}
	sigRest, err := readIndexRemainder(r, sigPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "rpmpkg: read signature body")
	}
	sigOpts := opts
	sigOpts.IsSource = lead.Type == 1
	sig, sigLen, err := header.Decode(append(sigPrefix, sigRest...), 8, sigOpts)
	if err != nil {
		return nil, errors.Wrap(err, "rpmpkg: decode signature header")
	}
	if padLen := sigLen - len(sigPrefix) - len(sigRest); padLen > 0 {
		if _, err := io.ReadFull(r, make([]byte, padLen)); err != nil {
			return nil, errors.Wrap(err, "rpmpkg: read signature padding")
		}
	}

	hdrPrefix := make([]byte, 16)
	if _, err := io.ReadFull(r, hdrPrefix); err != nil {
		return nil, errors.Wrap(err, "rpmpkg: read header prefix")
	}
	hdrRest, err := readIndexRemainder(r, hdrPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "rpmpkg: read header body")
	}
	hdrOpts := opts
	hdrOpts.IsSource = lead.Type == 1
	hdr, hdrLen, err := header.Decode(append(hdrPrefix, hdrRest...), 1, hdrOpts)
	if err != nil {
		return nil, errors.Wrap(err, "rpmpkg: decode main header")
	}

	return &Package{Sig: sig, Hdr: hdr, PayloadOffset: int64(len(leadBuf) + sigLen + hdrLen)}, nil
}

// readIndexRemainder reads the index records and value store that follow a
// 16-byte index prefix (magic+count+size) already consumed from r.
func readIndexRemainder(r io.Reader, prefix []byte) ([]byte, error) {
	indexNo := int(be32(prefix[8:12]))
	storeSize := int(be32(prefix[12:16]))
	if indexNo < 1 {
		return nil, errors.New("bad index magic")
	}
	rest := make([]byte, 16*indexNo+storeSize)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	return rest, nil
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// ReadAll is a convenience wrapper for small in-memory package buffers used
// in tests and tooling: it reads and discards nothing, returning the parsed
// Package and the unread payload bytes.
func ReadAll(r io.Reader, opts header.DecodeOptions) (*Package, []byte, error) {
	pkg, err := Read(r, opts)
	if err != nil {
		return nil, nil, err
	}
	payload, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, nil, errors.Wrap(err, "rpmpkg: read payload remainder")
	}
	return pkg, payload, nil
}
