package cpiopayload

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"strings"

	cpio "github.com/cavaliercoder/go-cpio"
	"github.com/pkg/errors"
)

// Reader decodes a payload stream, auto-detecting its compression framing
// (PayloadCompressor is "gzip" or "bzip2"; others are rejected rather than
// guessed) and exposing each cpio entry in archive order.
type Reader struct {
	cpio *cpio.Reader
	src  io.Closer
}

// NewReader opens a payload stream compressed with compressor ("gzip" or
// "bzip2", per a header's RPMTAG_PAYLOADCOMPRESSOR). r is wrapped in a
// bufio.Reader regardless, since gzip/bzip2 both want a ByteReader.
func NewReader(r io.Reader, compressor string) (*Reader, error) {
	br := bufio.NewReader(r)
	var payload io.Reader
	switch strings.ToLower(compressor) {
	case "", "gzip":
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "cpiopayload: open gzip stream")
		}
		payload = gz
	case "bzip2":
		payload = bzip2.NewReader(br)
	default:
		return nil, errors.Errorf("cpiopayload: unsupported payload compressor %q", compressor)
	}
	return &Reader{cpio: cpio.NewReader(payload)}, nil
}

// Next advances to the next entry and returns its header, or io.EOF once
// the TRAILER!!! sentinel entry is consumed.
func (r *Reader) Next() (*cpio.Header, error) {
	return r.cpio.Next()
}

// Read reads from the current entry's body, exactly like cpio.Reader.Read.
func (r *Reader) Read(p []byte) (int, error) {
	return r.cpio.Read(p)
}

// NormalizeName applies the path normalization oldpyrpm.py's readCpio
// performs on every cpio filename before matching it against the header's
// file list: strip a leading "./", force a leading "/" for binary packages,
// and drop a trailing "/".
func NormalizeName(name string, isSource bool) string {
	if strings.HasPrefix(name, "./") {
		name = name[1:]
	}
	if !isSource && !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	if len(name) > 1 && strings.HasSuffix(name, "/") {
		name = name[:len(name)-1]
	}
	return name
}
