// Package cpiopayload implements the compressed CPIO payload that follows
// an RPM's header: a "newc"/CRC format cpio archive gzip- or bzip2-framed.
//
// Grounded on the teacher's rpm.go writePayload (encode side, built on
// github.com/cavaliercoder/go-cpio) and on oldpyrpm.py's CPIO class (decode
// side: 110-byte ASCII-hex headers, 4-byte alignment, TRAILER!!! sentinel,
// path normalization).
package cpiopayload

import (
	"compress/gzip"
	"io"

	cpio "github.com/cavaliercoder/go-cpio"
	"github.com/pkg/errors"
)

// Entry is one file's payload content plus the metadata the cpio header
// carries alongside it.
type Entry struct {
	Name  string
	Mode  uint32
	Size  int64
	Links int
	Body  []byte
}

// Writer streams Entries into a gzip-compressed newc cpio archive. RPM's
// own cpio format historically also supports bzip2/xz/lzma framing for
// reading older packages, but Go's standard library only provides a bzip2
// reader, not a writer (compress/bzip2 is decode-only) — so the writer
// side here, like the teacher's, emits gzip only.
type Writer struct {
	gz   *gzip.Writer
	cpio *cpio.Writer
	size uint
}

// NewWriter wraps w, framing the eventual payload with gzip.
func NewWriter(w io.Writer) *Writer {
	gz := gzip.NewWriter(w)
	return &Writer{gz: gz, cpio: cpio.NewWriter(gz)}
}

// WriteEntry appends one file to the archive.
func (w *Writer) WriteEntry(e Entry) error {
	hdr := &cpio.Header{
		Name:  e.Name,
		Mode:  cpio.FileMode(e.Mode),
		Size:  e.Size,
		Links: e.Links,
	}
	if err := w.cpio.WriteHeader(hdr); err != nil {
		return errors.Wrap(err, "cpiopayload: write entry header")
	}
	if len(e.Body) > 0 {
		if _, err := w.cpio.Write(e.Body); err != nil {
			return errors.Wrap(err, "cpiopayload: write entry body")
		}
	}
	w.size += uint(len(e.Body))
	return nil
}

// Size returns the total uncompressed byte count written so far, the way
// RPMTAG_ARCHIVESIZE records it.
func (w *Writer) Size() uint { return w.size }

// Close finalizes the cpio trailer and the gzip stream.
func (w *Writer) Close() error {
	if err := w.cpio.Close(); err != nil {
		return errors.Wrap(err, "cpiopayload: close cpio writer")
	}
	return errors.Wrap(w.gz.Close(), "cpiopayload: close gzip writer")
}
