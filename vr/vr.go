// Package vr defines the DICOM Value Representation token.
//
// A Value Representation is the two-letter code (e.g. "CS", "PN", "OB")
// that names a DICOM element's data type. Dimble treats VR mostly
// opaquely — a fixed two-byte token carried verbatim from DICOM-JSON into
// the Dimble header and back — with a handful of named values (SQ, PN,
// OB, OW) that drive dispatch decisions in the encoder and decoder.
//
// See DICOM Part 5, Section 6.2:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
package vr

import "fmt"

// VR is the raw two-byte Value Representation token as it appears on the
// wire: a msgpack binary string in the Dimble directory, and a JSON
// string at the DICOM-JSON boundary.
type VR [2]byte

// Named VRs that the encoder/decoder dispatch on. Any other two-letter
// code round-trips through Dimble without Dimble ever inspecting it.
var (
	SequenceOfItems = VR{'S', 'Q'}
	PersonName      = VR{'P', 'N'}
	OtherByte       = VR{'O', 'B'}
	OtherWord       = VR{'O', 'W'}
)

// String returns the two-character representation of the VR.
func (v VR) String() string {
	return string(v[:])
}

// Parse parses a two-character VR string into a VR token. Returns an
// error if s is not exactly two bytes — Dimble doesn't otherwise
// restrict which two-letter codes are valid, since it isn't a full
// DICOM conformance checker.
func Parse(s string) (VR, error) {
	if len(s) != 2 {
		return VR{}, fmt.Errorf("vr: %q is not a two-character VR", s)
	}
	return VR{s[0], s[1]}, nil
}

// Bytes returns the VR as the fixed two-byte array Dimble persists in a
// directory entry.
func (v VR) Bytes() [2]byte {
	return v
}

// FromBytes wraps a raw two-byte VR token read from a Dimble directory
// entry.
func FromBytes(b [2]byte) VR {
	return VR(b)
}
