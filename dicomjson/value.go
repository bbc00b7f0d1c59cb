// Package dicomjson is the in-memory representation of a DICOM-JSON
// document: tag to Field, where a Field carries an optional multi-valued
// payload, a two-letter Value Representation, and an optional inline
// binary string.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part18.html#sect_F.2
package dicomjson

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value is one entry of a Field's Value list: a tagged union of string,
// integer, float, person-name component, or nested sequence item.
// Within a single Field's Value list every entry must share a kind —
// see Document.Validate.
type Value interface {
	// Kind names the variant, used by Document.Validate to enforce that
	// a single Value list is homogeneous.
	Kind() string
	// Equals reports whether this value equals another.
	Equals(other Value) bool
	// String returns a human-readable representation.
	String() string
}

// StringValue is one text value.
type StringValue string

func (v StringValue) Kind() string { return "string" }
func (v StringValue) String() string { return string(v) }
func (v StringValue) Equals(other Value) bool {
	o, ok := other.(StringValue)
	return ok && v == o
}

// IntegerValue fits in a signed 64-bit integer.
type IntegerValue int64

func (v IntegerValue) Kind() string { return "integer" }
func (v IntegerValue) String() string { return fmt.Sprintf("%d", int64(v)) }
func (v IntegerValue) Equals(other Value) bool {
	o, ok := other.(IntegerValue)
	return ok && v == o
}

// FloatValue is a 64-bit IEEE-754 value.
type FloatValue float64

func (v FloatValue) Kind() string { return "float" }
func (v FloatValue) String() string { return fmt.Sprintf("%g", float64(v)) }
func (v FloatValue) Equals(other Value) bool {
	o, ok := other.(FloatValue)
	return ok && v == o
}

// AlphabeticValue is a person-name component. Only the Alphabetic form is
// supported; Ideographic and Phonetic person-name components are an open
// question inherited from the original implementation and are rejected
// as unsupported rather than silently dropped.
type AlphabeticValue struct {
	Alphabetic string
}

func (v AlphabeticValue) Kind() string { return "alphabetic" }
func (v AlphabeticValue) String() string { return v.Alphabetic }
func (v AlphabeticValue) Equals(other Value) bool {
	o, ok := other.(AlphabeticValue)
	return ok && v == o
}

func (v AlphabeticValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Alphabetic string `json:"Alphabetic"`
	}{Alphabetic: v.Alphabetic})
}

// SeqValue is one item of a sequence: a nested DICOM-JSON sub-document.
type SeqValue struct {
	Document Document
}

func (v SeqValue) Kind() string { return "sequence" }
func (v SeqValue) String() string { return fmt.Sprintf("<sequence item, %d tags>", len(v.Document)) }
func (v SeqValue) Equals(other Value) bool {
	o, ok := other.(SeqValue)
	if !ok {
		return false
	}
	return v.Document.Equals(o.Document)
}

// unmarshalValue decodes one element of a Field's "Value" array.
func unmarshalValue(raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("dicomjson: empty value element")
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("dicomjson: invalid string value: %w", err)
		}
		return StringValue(s), nil

	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, fmt.Errorf("dicomjson: invalid object value: %w", err)
		}
		for _, k := range []string{"Ideographic", "Phonetic"} {
			if _, ok := probe[k]; ok {
				return nil, fmt.Errorf("dicomjson: unsupported person-name component %q (only Alphabetic is supported)", k)
			}
		}
		if a, ok := probe["Alphabetic"]; ok {
			var s string
			if err := json.Unmarshal(a, &s); err != nil {
				return nil, fmt.Errorf("dicomjson: invalid Alphabetic value: %w", err)
			}
			return AlphabeticValue{Alphabetic: s}, nil
		}
		doc, err := unmarshalDocument(raw)
		if err != nil {
			return nil, err
		}
		return SeqValue{Document: doc}, nil

	default:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var num json.Number
		if err := dec.Decode(&num); err != nil {
			return nil, fmt.Errorf("dicomjson: invalid numeric value %q: %w", trimmed, err)
		}
		if i, err := num.Int64(); err == nil {
			return IntegerValue(i), nil
		}
		f, err := num.Float64()
		if err != nil {
			return nil, fmt.Errorf("dicomjson: invalid numeric value %q: %w", num, err)
		}
		return FloatValue(f), nil
	}
}

func marshalValue(v Value) (json.RawMessage, error) {
	switch val := v.(type) {
	case StringValue:
		return json.Marshal(string(val))
	case IntegerValue:
		return json.Marshal(int64(val))
	case FloatValue:
		return json.Marshal(float64(val))
	case AlphabeticValue:
		return json.Marshal(val)
	case SeqValue:
		return json.Marshal(val.Document)
	default:
		return nil, fmt.Errorf("dicomjson: unknown value kind %T", v)
	}
}
