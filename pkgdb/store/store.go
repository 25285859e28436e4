// Package store implements the on-disk installed-package database layout:
// a primary "Packages" file of endian-detected, transaction-id-keyed header
// blobs. The names of rpm's secondary indices are listed
// (SecondaryIndexNames), but no secondary index files are written or read.
//
// This is a from-scratch, byte-compatible-in-shape codec — not a Berkeley
// DB implementation — grounded on chennqqi-go-rpmdb's pkg/rpmdb.go error
// style (golang.org/x/xerrors wrapping) applied to this package's own
// read/write path, since go-rpmdb itself only reads an existing bdb store
// rather than writing one.
package store

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/rpmcore/rpmcore/header"
	"github.com/rpmcore/rpmcore/rpmpkg"
)

// packagesFile is the primary store's filename, matching rpm's own on-disk
// rpmdb convention.
const packagesFile = "Packages"

// secondaryIndexNames lists the dependency/file index names rpm's own
// Berkeley DB keeps beside Packages; this package creates no files under
// these names.
var secondaryIndexNames = []string{
	"Name", "Providename", "Requirename", "Conflictname", "Obsoletename",
	"Triggername", "Basenames",
}

// recordHeader precedes every record in Packages: the transaction id (rpm
// calls this the "blob number") followed by the blob's length, both in the
// store's byte order — big-endian for a store made by Create, and whatever
// Open detected for an existing file (some real rpmdb files are
// little-endian).
type recordHeader struct {
	TID    uint32
	Length uint32
}

// Store is an open on-disk installed-package database directory.
type Store struct {
	dir         string
	littleEndian bool
}

// Create initializes a new, empty store directory.
func Create(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, xerrors.Errorf("store: create directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Open opens an existing store directory, endian-detecting the Packages
// file by reading its first record header both ways and preferring
// little-endian only when that reading alone yields an in-file-bounds
// length — the same heuristic chennqqi-go-rpmdb's bdb package applies to
// its own page headers.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, packagesFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Store{dir: dir}, nil
		}
		return nil, xerrors.Errorf("store: open %s: %w", packagesFile, err)
	}
	defer f.Close()

	var raw [8]byte
	n, err := io.ReadFull(f, raw[:])
	if err == io.EOF || n == 0 {
		return &Store{dir: dir}, nil
	}
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, xerrors.Errorf("store: read %s header: %w", packagesFile, err)
	}
	info, _ := f.Stat()
	beLen := binary.BigEndian.Uint32(raw[4:8])
	leLen := binary.LittleEndian.Uint32(raw[4:8])
	little := false
	if info != nil {
		sz := uint64(info.Size())
		beOK := uint64(beLen)+8 <= sz
		leOK := uint64(leLen)+8 <= sz
		if leOK && !beOK {
			little = true
		}
	}
	return &Store{dir: dir, littleEndian: little}, nil
}

func (s *Store) order() binary.ByteOrder {
	if s.littleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// WritePackage appends pkg's main header blob to Packages under the given
// transaction id, returning the byte offset the record starts at (its
// "index" for secondary-index purposes).
func (s *Store) WritePackage(tid uint32, pkg *rpmpkg.Package) (int64, error) {
	blob, err := pkg.Hdr.Encode()
	if err != nil {
		return 0, xerrors.Errorf("store: encode header: %w", err)
	}
	path := filepath.Join(s.dir, packagesFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, xerrors.Errorf("store: open %s for append: %w", packagesFile, err)
	}
	defer f.Close()
	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, xerrors.Errorf("store: seek %s: %w", packagesFile, err)
	}
	w := bufio.NewWriter(f)
	var rec [8]byte
	order := s.order()
	order.PutUint32(rec[0:4], tid)
	order.PutUint32(rec[4:8], uint32(len(blob)))
	if _, err := w.Write(rec[:]); err != nil {
		return 0, xerrors.Errorf("store: write record header: %w", err)
	}
	if _, err := w.Write(blob); err != nil {
		return 0, xerrors.Errorf("store: write record body: %w", err)
	}
	if err := w.Flush(); err != nil {
		return 0, xerrors.Errorf("store: flush %s: %w", packagesFile, err)
	}
	return offset, nil
}

// Record is one decoded entry from the primary store.
type Record struct {
	TID    uint32
	Offset int64
	Pkg    *rpmpkg.Package
}

// ReadAll decodes every record in Packages, in file order.
func (s *Store) ReadAll() ([]Record, error) {
	path := filepath.Join(s.dir, packagesFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, xerrors.Errorf("store: open %s: %w", packagesFile, err)
	}
	defer f.Close()

	order := s.order()
	var out []Record
	var offset int64
	for {
		var rec [8]byte
		n, err := io.ReadFull(f, rec[:])
		if err == io.EOF && n == 0 {
			break
		}
		if err != nil {
			return nil, xerrors.Errorf("store: read record header at %d: %w", offset, err)
		}
		tid := order.Uint32(rec[0:4])
		length := order.Uint32(rec[4:8])
		blob := make([]byte, length)
		if _, err := io.ReadFull(f, blob); err != nil {
			return nil, xerrors.Errorf("store: read record body at %d: %w", offset, err)
		}
		hdr, _, err := header.Decode(blob, 1, header.DecodeOptions{})
		if err != nil {
			return nil, xerrors.Errorf("store: decode header at %d: %w", offset, err)
		}
		out = append(out, Record{TID: tid, Offset: offset, Pkg: &rpmpkg.Package{Hdr: hdr}})
		offset += int64(8 + length)
	}
	return out, nil
}

// SecondaryIndexNames returns rpm's secondary index basenames. The store
// does not write or read files under these names.
func SecondaryIndexNames() []string {
	out := make([]string, len(secondaryIndexNames))
	copy(out, secondaryIndexNames)
	return out
}
