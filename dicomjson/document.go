package dicomjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Document is a DICOM-JSON object: tag key (8 hex chars) to Field. A
// sequence item is itself a Document, nested inside a SeqValue.
type Document map[string]*Field

func unmarshalDocument(data []byte) (Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("dicomjson: invalid document: %w", err)
	}
	doc := make(Document, len(raw))
	for tag, fieldData := range raw {
		var f Field
		if err := json.Unmarshal(fieldData, &f); err != nil {
			return nil, fmt.Errorf("dicomjson: tag %s: %w", tag, err)
		}
		doc[tag] = &f
	}
	return doc, nil
}

// Unmarshal decodes a DICOM-JSON document from data without checking its
// semantic invariants — only JSON syntax and per-value shape. Callers
// that need to distinguish a syntax error from an invariant violation
// (as Encode does, for spec.md §7's two distinct error kinds) call this
// and Document.Validate separately instead of using Parse.
func Unmarshal(data []byte) (Document, error) {
	return unmarshalDocument(data)
}

// Parse reads a DICOM-JSON document from r and validates it.
func Parse(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dicomjson: read: %w", err)
	}
	doc, err := unmarshalDocument(data)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Write serialises the document as compact JSON to w.
func Write(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	return enc.Encode(doc)
}

// WriteIndent serialises the document as pretty-printed JSON to w, each
// nesting level indented by indent. Compact output (Write) is the
// default for the training-pipeline path; this is for human inspection.
func WriteIndent(w io.Writer, doc Document, indent string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", indent)
	return enc.Encode(doc)
}

// Validate recursively checks every field's invariants, descending into
// sequence items.
func (d Document) Validate() error {
	for tag, f := range d {
		if err := f.Validate(); err != nil {
			if errors.Is(err, ErrValueAndInlineBinaryBothPresent) {
				return &FieldInvariantError{Tag: tag}
			}
			return fmt.Errorf("dicomjson: tag %s: %w", tag, err)
		}
		for _, v := range f.Value {
			if seq, ok := v.(SeqValue); ok {
				if err := seq.Document.Validate(); err != nil {
					var fe *FieldInvariantError
					if errors.As(err, &fe) {
						return fe
					}
					return fmt.Errorf("dicomjson: tag %s: %w", tag, err)
				}
			}
		}
	}
	return nil
}

// Equals reports whether two documents are structurally identical.
func (d Document) Equals(other Document) bool {
	if len(d) != len(other) {
		return false
	}
	for tag, f := range d {
		of, ok := other[tag]
		if !ok || !f.Equals(of) {
			return false
		}
	}
	return true
}
