package header

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// leadMagic is the fixed 4-byte magic at the start of every RPM file.
var leadMagic = []byte{0xed, 0xab, 0xee, 0xdb}

// indexMagic is the fixed 8-byte magic preceding every header's index.
var indexMagic = []byte{0x8e, 0xad, 0xe8, 0x01, 0, 0, 0, 0}

// Lead is the 96-byte structure that opens every RPM file, ported from
// oldpyrpm.py's __verifyLead unpack("!4s2B2H66s2H16x", ...).
type Lead struct {
	Major, Minor byte
	Type         uint16 // 0 = binary, 1 = source
	ArchNum      uint16
	Name         string
	OSNum        uint16
	SigType      uint16
}

// EncodeLead renders name-fullversion into a 96 byte lead, matching the
// teacher's header.go:lead layout (rpm 3.0 binary, i386 archnum, sig type 5).
func EncodeLead(name, fullVersion string) []byte {
	n := []byte(fmt.Sprintf("%s-%s", name, fullVersion))
	if len(n) > 65 {
		n = n[:65]
	}
	n = append(n, make([]byte, 66-len(n))...)
	b := append([]byte{}, leadMagic...)
	b = append(b, 0x03, 0x00, 0x00, 0x00, 0x00, 0x01)
	b = append(b, n...)
	b = append(b, 0x00, 0x01, 0x00, 0x05)
	b = append(b, make([]byte, 16)...)
	return b
}

// DecodeLead parses and loosely validates a 96-byte lead. Unlike
// oldpyrpm.py's strict mode, unexpected major/minor/ostype values are
// reported as an error rather than merely printed, since this package has
// no stdout-logging escape hatch; callers wanting lenient parsing can catch
// ErrLeadSuspect and continue.
func DecodeLead(b []byte) (Lead, error) {
	if len(b) != 96 {
		return Lead{}, errors.Errorf("header: lead must be 96 bytes, got %d", len(b))
	}
	if !bytes.Equal(b[0:4], leadMagic) {
		return Lead{}, errors.New("header: bad lead magic")
	}
	l := Lead{
		Major:   b[4],
		Minor:   b[5],
		Type:    binary.BigEndian.Uint16(b[6:8]),
		ArchNum: binary.BigEndian.Uint16(b[8:10]),
	}
	name := b[10:76]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	l.Name = string(name)
	l.OSNum = binary.BigEndian.Uint16(b[76:78])
	l.SigType = binary.BigEndian.Uint16(b[78:80])

	if (l.Major != 3 && l.Major != 4) || l.Minor != 0 || l.SigType != 5 || (l.Type != 0 && l.Type != 1) {
		return l, ErrLeadSuspect
	}
	switch l.OSNum {
	case 1, 21, 255, 256: // linux, darwin, and the two legacy placeholders
	default:
		return l, ErrLeadSuspect
	}
	return l, nil
}

// ErrLeadSuspect marks a lead that parsed but carries values real rpm
// never writes (wrong rpm version, unknown ostype, ...). It is returned
// alongside the best-effort decoded Lead so strict callers can reject it
// while lenient ones proceed.
var ErrLeadSuspect = errors.New("header: lead contains unexpected field values")
