// Package dimble implements the Dimble container format: a binary
// encoding of a DICOM-JSON document that supports lossless round-tripping
// and O(1) random access to individual tags without a full parse.
package dimble

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/strongresearch/dimble/dicomjson"
	"github.com/strongresearch/dimble/header"
	"github.com/strongresearch/dimble/internal/dimblelog"
	"github.com/strongresearch/dimble/internal/pack"
	"github.com/strongresearch/dimble/tag"
	"github.com/strongresearch/dimble/vr"
)

// Encode reads a DICOM-JSON document at jsonPath and writes it as a
// Dimble file at dimblePath. pixelArrayPath names a tensor container
// file (§6.3) whose bytes become the payload of the pixel-data tag; pass
// "" if the document has no inline-binary pixel-data field.
func Encode(jsonPath, dimblePath, pixelArrayPath string) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return &OpenError{Path: jsonPath, Cause: err}
	}

	// Unmarshal (syntax) and Validate (model invariants) are kept
	// separate so a field with both Value and InlineBinary present —
	// syntactically valid JSON that violates the format's invariant —
	// raises ValueAndInlineBinaryBothPresent, not FailedToParseJson.
	doc, err := dicomjson.Unmarshal(raw)
	if err != nil {
		return &ParseJSONError{Path: jsonPath, Cause: err}
	}
	if err := doc.Validate(); err != nil {
		var fe *dicomjson.FieldInvariantError
		if errors.As(err, &fe) {
			return &FieldInvariantError{Tag: fe.Tag}
		}
		return &ParseJSONError{Path: jsonPath, Cause: err}
	}

	b := &fieldBuilder{pixelArrayPath: pixelArrayPath}
	dir, err := b.buildMap(doc)
	if err != nil {
		return &SerialiseFieldsError{Cause: err}
	}

	headerBytes, err := header.Encode(dir)
	if err != nil {
		return &SerialiseFieldsError{Cause: err}
	}

	if err := writeDimbleFileAtomic(dimblePath, headerBytes, b.data); err != nil {
		return err
	}
	dimblelog.Vprintf(2, "dimble: encoded %s -> %s (%d header bytes, %d data bytes)", jsonPath, dimblePath, len(headerBytes), len(b.data))
	return nil
}

// fieldBuilder walks a dicomjson.Document and produces the matching
// header.Map, accumulating every field's payload into one flat data
// region shared across nested sequence items.
type fieldBuilder struct {
	pixelArrayPath string
	data           []byte
}

func (b *fieldBuilder) buildMap(doc dicomjson.Document) (header.Map, error) {
	out := make(header.Map, len(doc))
	for t, field := range doc {
		hf, err := b.buildField(t, field)
		if err != nil {
			return nil, err
		}
		out[t] = hf
	}
	return out, nil
}

func (b *fieldBuilder) buildField(t string, field *dicomjson.Field) (*header.Field, error) {
	switch {
	case field.Value != nil && field.InlineBinary == nil:
		return b.buildValueField(t, field)
	case field.Value == nil && field.InlineBinary == nil:
		return header.EmptyField(field.VR), nil
	case field.Value == nil && field.InlineBinary != nil:
		return b.buildInlineBinaryField(t, field)
	default:
		return nil, &FieldInvariantError{Tag: t}
	}
}

func (b *fieldBuilder) buildValueField(t string, field *dicomjson.Field) (*header.Field, error) {
	switch len(field.Value) {
	case 0:
		if field.VR == vr.SequenceOfItems {
			return header.SequenceField(), nil
		}
		return nil, fmt.Errorf("tag %s: empty Value for non-sequence VR %s", t, field.VR)

	case 1:
		if seq, ok := field.Value[0].(dicomjson.SeqValue); ok {
			sub, err := b.buildMap(seq.Document)
			if err != nil {
				return nil, err
			}
			return header.SequenceField(sub), nil
		}
		return b.extendField(t, field.VR, field.Value)

	default:
		if field.Value[0].Kind() == "sequence" {
			// A Value list of more than one SeqField cannot be
			// itemised into a single nested directory, so it is
			// downgraded to an empty field rather than encoding only
			// part of it — a known limitation carried over from the
			// format this was derived from.
			dimblelog.Vprintf(1, "tag %s: sequence has %d items, only one is representable; downgrading to Empty(%s)", t, len(field.Value), field.VR)
			return header.EmptyField(field.VR), nil
		}
		return b.extendField(t, field.VR, field.Value)
	}
}

func (b *fieldBuilder) buildInlineBinaryField(t string, field *dicomjson.Field) (*header.Field, error) {
	if tag.IsPixelData(t) {
		if b.pixelArrayPath == "" {
			return nil, fmt.Errorf("tag %s: pixel data field has no backing tensor container path", t)
		}
		blob, err := os.ReadFile(b.pixelArrayPath)
		if err != nil {
			return nil, fmt.Errorf("reading pixel array file %s: %w", b.pixelArrayPath, err)
		}
		return b.appendPayload(blob, field.VR), nil
	}

	payload, err := pack.Marshal(*field.InlineBinary)
	if err != nil {
		return nil, fmt.Errorf("tag %s: encoding inline binary: %w", t, err)
	}
	return b.appendPayload(payload, field.VR), nil
}

func (b *fieldBuilder) extendField(t string, v vr.VR, values []dicomjson.Value) (*header.Field, error) {
	payload, err := valuesToPayload(t, values)
	if err != nil {
		return nil, err
	}
	return b.appendPayload(payload, v), nil
}

func (b *fieldBuilder) appendPayload(payload []byte, v vr.VR) *header.Field {
	offset := uint64(len(b.data))
	b.data = append(b.data, payload...)
	return header.Deferred(offset, uint64(len(payload)), v)
}

// valuesToPayload renders a Value list as the msgpack bytes stored in the
// data region: a single element becomes a bare scalar, multiple strings,
// integers or floats become an array of that kind. A person-name list of
// more than one element is rejected with an error. dicomjson.Field.Validate
// already guarantees the list is homogeneous.
func valuesToPayload(t string, values []dicomjson.Value) ([]byte, error) {
	if len(values) == 1 {
		return scalarToPayload(t, values[0])
	}

	switch values[0].(type) {
	case dicomjson.StringValue:
		arr := make([]string, len(values))
		for i, v := range values {
			arr[i] = string(v.(dicomjson.StringValue))
		}
		return pack.Marshal(arr)
	case dicomjson.IntegerValue:
		arr := make([]int64, len(values))
		for i, v := range values {
			arr[i] = int64(v.(dicomjson.IntegerValue))
		}
		return pack.Marshal(arr)
	case dicomjson.FloatValue:
		arr := make([]float64, len(values))
		for i, v := range values {
			arr[i] = float64(v.(dicomjson.FloatValue))
		}
		return pack.Marshal(arr)
	default:
		return nil, fmt.Errorf("tag %s: multi-value %s fields are not supported", t, values[0].Kind())
	}
}

func scalarToPayload(t string, v dicomjson.Value) ([]byte, error) {
	switch val := v.(type) {
	case dicomjson.StringValue:
		return pack.Marshal(string(val))
	case dicomjson.IntegerValue:
		return pack.Marshal(int64(val))
	case dicomjson.FloatValue:
		return pack.Marshal(float64(val))
	case dicomjson.AlphabeticValue:
		return pack.Marshal(val.Alphabetic)
	default:
		return nil, fmt.Errorf("tag %s: unsupported value kind %s", t, v.Kind())
	}
}

// writeDimbleFileAtomic writes the 8-byte length prefix, directory, and
// data region to a temp file in dimblePath's directory, then renames it
// into place so a failed or interrupted encode never leaves a truncated
// file at the destination.
func writeDimbleFileAtomic(dimblePath string, headerBytes, dataBytes []byte) (err error) {
	dir := filepath.Dir(dimblePath)
	tmp, err := os.CreateTemp(dir, ".dimble-tmp-*")
	if err != nil {
		return &OpenError{Path: dimblePath, Cause: err}
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(headerBytes)))

	if _, err = tmp.Write(lenBuf[:]); err != nil {
		tmp.Close()
		return &SerialiseFieldsError{Cause: fmt.Errorf("writing header length: %w", err)}
	}
	if _, err = tmp.Write(headerBytes); err != nil {
		tmp.Close()
		return &SerialiseFieldsError{Cause: fmt.Errorf("writing header: %w", err)}
	}
	if _, err = tmp.Write(dataBytes); err != nil {
		tmp.Close()
		return &SerialiseFieldsError{Cause: fmt.Errorf("writing data region: %w", err)}
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return &SerialiseFieldsError{Cause: fmt.Errorf("sync: %w", err)}
	}
	if err = tmp.Close(); err != nil {
		return &SerialiseFieldsError{Cause: fmt.Errorf("close: %w", err)}
	}
	if err = os.Rename(tmpPath, dimblePath); err != nil {
		return &SerialiseFieldsError{Cause: fmt.Errorf("rename: %w", err)}
	}
	return nil
}
