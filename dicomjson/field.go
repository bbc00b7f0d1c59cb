package dicomjson

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/strongresearch/dimble/vr"
)

// ErrValueAndInlineBinaryBothPresent is returned when a Field carries both
// a Value list and an InlineBinary payload, which the format forbids —
// a field is either inline, deferred, or empty, never both.
var ErrValueAndInlineBinaryBothPresent = errors.New("dicomjson: field has both Value and InlineBinary")

// FieldInvariantError wraps ErrValueAndInlineBinaryBothPresent with the
// offending tag. Document.Validate returns this (rather than a plain
// fmt.Errorf-wrapped sentinel) specifically for this invariant so a
// caller like Encode can distinguish "semantically invalid field" from
// "syntactically malformed JSON" and raise the dedicated error kind
// spec.md gives each.
type FieldInvariantError struct {
	Tag string
}

func (e *FieldInvariantError) Error() string {
	return fmt.Sprintf("%s: tag %s", ErrValueAndInlineBinaryBothPresent.Error(), e.Tag)
}

func (e *FieldInvariantError) Unwrap() error { return ErrValueAndInlineBinaryBothPresent }

// Field is one DICOM-JSON attribute: its Value Representation plus either
// a (possibly empty) list of Value entries, or a base64 InlineBinary
// payload — never both.
type Field struct {
	VR vr.VR
	// Value holds the field's values, or nil for a field with no Value
	// key present at all (distinct from an explicit empty array).
	Value []Value
	// InlineBinary holds raw bytes pre-encoded as base64 text, used by
	// DICOM-JSON for OB/OW data too large to itemise as a Value array.
	InlineBinary *string
}

// HasValue reports whether the field carries a Value key at all (possibly
// an explicit empty array), as opposed to InlineBinary or neither.
func (f *Field) HasValue() bool {
	return f.Value != nil
}

// Validate checks the mutual-exclusion invariant between Value and
// InlineBinary, and that every entry of Value shares the same Kind.
func (f *Field) Validate() error {
	if f.Value != nil && f.InlineBinary != nil {
		return ErrValueAndInlineBinaryBothPresent
	}
	if len(f.Value) > 1 {
		kind := f.Value[0].Kind()
		for _, v := range f.Value[1:] {
			if v.Kind() != kind {
				return fmt.Errorf("dicomjson: mixed value kinds in one field (%s and %s)", kind, v.Kind())
			}
		}
	}
	return nil
}

type fieldWire struct {
	VR string `json:"vr"`
	// Value is a pointer so that omitempty drops the key only when Value
	// is nil (no Value key at all) and keeps it, as "[]", when Value is a
	// non-nil empty slice (an explicit empty SQ) — omitempty on a bare
	// slice drops both cases alike, which would re-encode an empty SQ as
	// Empty(SQ) on the next round trip.
	Value        *[]json.RawMessage `json:"Value,omitempty"`
	InlineBinary *string            `json:"InlineBinary,omitempty"`
}

func (f *Field) MarshalJSON() ([]byte, error) {
	w := fieldWire{VR: f.VR.String(), InlineBinary: f.InlineBinary}
	if f.Value != nil {
		values := make([]json.RawMessage, len(f.Value))
		for i, v := range f.Value {
			raw, err := marshalValue(v)
			if err != nil {
				return nil, err
			}
			values[i] = raw
		}
		w.Value = &values
	}
	return json.Marshal(w)
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var w fieldWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("dicomjson: invalid field: %w", err)
	}

	parsed, err := vr.Parse(w.VR)
	if err != nil {
		return err
	}
	f.VR = parsed
	f.InlineBinary = w.InlineBinary

	if w.Value != nil {
		values := *w.Value
		f.Value = make([]Value, len(values))
		for i, raw := range values {
			v, err := unmarshalValue(raw)
			if err != nil {
				return err
			}
			f.Value[i] = v
		}
	} else {
		f.Value = nil
	}

	// Semantic invariants (mutual exclusion, homogeneous Value kinds) are
	// checked by Document.Validate once the whole document is parsed, not
	// here — that keeps "malformed JSON" (a syntax error raised while
	// unmarshalling) distinct from "well-formed JSON that violates a
	// model invariant" (spec.md §7's FailedToParseJson vs.
	// ValueAndInlineBinaryBothPresent kinds).
	return nil
}

// Equals reports whether two fields are structurally identical.
func (f *Field) Equals(other *Field) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.VR != other.VR {
		return false
	}
	if (f.InlineBinary == nil) != (other.InlineBinary == nil) {
		return false
	}
	if f.InlineBinary != nil && *f.InlineBinary != *other.InlineBinary {
		return false
	}
	if (f.Value == nil) != (other.Value == nil) {
		return false
	}
	if len(f.Value) != len(other.Value) {
		return false
	}
	for i, v := range f.Value {
		if !v.Equals(other.Value[i]) {
			return false
		}
	}
	return true
}
