// Package header implements the Dimble directory region: a tagged-union
// tree of offsets into the data region that follows it, keyed by DICOM
// tag. It is the on-disk analogue of dicomjson.Document — every Document
// field becomes exactly one directory entry.
package header

import "github.com/strongresearch/dimble/vr"

// Kind identifies which directory-entry variant a Field holds.
type Kind int

const (
	// KindDeferred fields carry their payload in the data region at a
	// known offset and length. The wire tag for this variant is
	// "Deffered" — the original format's own spelling, preserved
	// exactly since it is part of the on-disk contract, not a typo to
	// be fixed in this implementation.
	KindDeferred Kind = iota
	// KindEmpty fields carry no payload, only a VR.
	KindEmpty
	// KindSequence fields carry zero or more nested directories.
	KindSequence
)

// Field is one directory entry.
type Field struct {
	Kind Kind

	// Offset, Length and VR are populated for KindDeferred. Offset is
	// relative to the start of the data region, i.e. byte 8+H of the
	// file, where H is the directory length read from the 8-byte
	// little-endian prefix.
	Offset uint64
	Length uint64
	VR     vr.VR

	// Items holds the nested directories for KindSequence. The Dimble
	// encoder (dimble.Encode) never produces more than one item — a DICOM-JSON
	// sequence with more than one item is downgraded to KindEmpty, a
	// limitation carried over unchanged from the format this was
	// derived from.
	Items []Map
}

// Deferred constructs a deferred field.
func Deferred(offset, length uint64, v vr.VR) *Field {
	return &Field{Kind: KindDeferred, Offset: offset, Length: length, VR: v}
}

// EmptyField constructs an empty field carrying only a VR.
func EmptyField(v vr.VR) *Field {
	return &Field{Kind: KindEmpty, VR: v}
}

// SequenceField constructs a sequence field from its (zero or more)
// nested directories.
func SequenceField(items ...Map) *Field {
	if items == nil {
		items = []Map{}
	}
	return &Field{Kind: KindSequence, Items: items}
}

// Equals reports whether two fields are structurally identical.
func (f *Field) Equals(other *Field) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.Kind != other.Kind {
		return false
	}
	switch f.Kind {
	case KindDeferred:
		return f.Offset == other.Offset && f.Length == other.Length && f.VR == other.VR
	case KindEmpty:
		return f.VR == other.VR
	case KindSequence:
		if len(f.Items) != len(other.Items) {
			return false
		}
		for i, m := range f.Items {
			if !m.Equals(other.Items[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
