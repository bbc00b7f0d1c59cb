package dimble

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/strongresearch/dimble/dicomjson"
	"github.com/strongresearch/dimble/header"
	"github.com/strongresearch/dimble/internal/dimblelog"
	"github.com/strongresearch/dimble/internal/pack"
	"github.com/strongresearch/dimble/tag"
	"github.com/strongresearch/dimble/vr"
)

// pixelDataPlaceholder is emitted in place of real pixel bytes when
// decoding to JSON — the JSON path is lossy for pixel data by design;
// only Load (§4.4) is lossless for images.
const pixelDataPlaceholder = "TODO encode pixel data correctly"

// DecodeToJSONOptions controls DecodeToJSON's output formatting. The
// zero value writes compact JSON, the right default for a format this
// pipeline re-reads rather than a human does.
type DecodeToJSONOptions struct {
	// Pretty indents the output JSON for human inspection. The original
	// this was carried over from always pretty-printed, which it flagged
	// itself as a debugging leftover; here it's an explicit opt-in.
	Pretty bool
	// Indent is the indent string used when Pretty is set. Defaults to
	// two spaces.
	Indent string
}

// DecodeToJSON reads a Dimble file and writes its reconstructed
// DICOM-JSON document to jsonPath as compact JSON.
func DecodeToJSON(dimblePath, jsonPath string) error {
	return DecodeToJSONWithOptions(dimblePath, jsonPath, DecodeToJSONOptions{})
}

// DecodeToJSONWithOptions is DecodeToJSON with explicit output formatting.
func DecodeToJSONWithOptions(dimblePath, jsonPath string, opts DecodeToJSONOptions) error {
	in, err := os.Open(dimblePath)
	if err != nil {
		return &OpenError{Path: dimblePath, Cause: err}
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return &OpenError{Path: dimblePath, Cause: err}
	}
	data, err := mmap.MapRegion(in, int(info.Size()), mmap.RDONLY, 0, 0)
	if err != nil {
		return &OpenError{Path: dimblePath, Cause: err}
	}
	defer data.Unmap()

	dir, headerLen, err := parseDirectory(data)
	if err != nil {
		return &HeaderInvalidError{Path: dimblePath, Cause: err}
	}

	doc, err := decodeMap(dir, data[8+headerLen:])
	if err != nil {
		return &SerialiseFieldsError{Cause: err}
	}

	out, err := os.Create(jsonPath)
	if err != nil {
		return &OpenError{Path: jsonPath, Cause: err}
	}
	defer out.Close()

	if opts.Pretty {
		indent := opts.Indent
		if indent == "" {
			indent = "  "
		}
		err = dicomjson.WriteIndent(out, doc, indent)
	} else {
		err = dicomjson.Write(out, doc)
	}
	if err != nil {
		return &SerialiseFieldsError{Cause: err}
	}
	return nil
}

// parseDirectory reads the 8-byte length prefix and decodes the
// directory that follows it, returning the directory's length H so
// callers can compute the data region's start as 8+H.
func parseDirectory(data []byte) (header.Map, uint64, error) {
	if len(data) < 8 {
		return nil, 0, fmt.Errorf("file shorter than the 8-byte length prefix")
	}
	headerLen := binary.LittleEndian.Uint64(data[0:8])
	if uint64(len(data)) < 8+headerLen {
		return nil, 0, fmt.Errorf("directory length %d exceeds file size %d", headerLen, len(data))
	}
	dir, err := header.Decode(data[8 : 8+headerLen])
	if err != nil {
		return nil, 0, err
	}
	return dir, headerLen, nil
}

func decodeMap(m header.Map, dataRegion []byte) (dicomjson.Document, error) {
	doc := make(dicomjson.Document, len(m))
	for t, f := range m {
		field, err := decodeField(t, f, dataRegion)
		if err != nil {
			return nil, err
		}
		doc[t] = field
	}
	return doc, nil
}

func decodeField(t string, f *header.Field, dataRegion []byte) (*dicomjson.Field, error) {
	switch f.Kind {
	case header.KindEmpty:
		return &dicomjson.Field{VR: f.VR}, nil

	case header.KindSequence:
		items := make([]dicomjson.Value, len(f.Items))
		for i, sub := range f.Items {
			subDoc, err := decodeMap(sub, dataRegion)
			if err != nil {
				return nil, err
			}
			items[i] = dicomjson.SeqValue{Document: subDoc}
		}
		return &dicomjson.Field{VR: vr.SequenceOfItems, Value: items}, nil

	case header.KindDeferred:
		if uint64(len(dataRegion)) < f.Offset+f.Length {
			return nil, fmt.Errorf("tag %s: deferred range [%d:%d] exceeds data region of %d bytes", t, f.Offset, f.Offset+f.Length, len(dataRegion))
		}
		raw := dataRegion[f.Offset : f.Offset+f.Length]
		return decodeFieldPayload(t, f.VR, raw)

	default:
		return nil, fmt.Errorf("tag %s: unknown header field kind", t)
	}
}

func decodeFieldPayload(t string, v vr.VR, raw []byte) (*dicomjson.Field, error) {
	switch v {
	case vr.OtherByte, vr.OtherWord:
		if tag.IsPixelData(t) {
			dimblelog.Vprintf(1, "tag %s: pixel data is not carried through JSON; emitting placeholder InlineBinary", t)
			placeholder := pixelDataPlaceholder
			return &dicomjson.Field{VR: v, InlineBinary: &placeholder}, nil
		}
		var s string
		if err := pack.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("tag %s: decoding inline binary: %w", t, err)
		}
		return &dicomjson.Field{VR: v, InlineBinary: &s}, nil

	case vr.PersonName:
		var name string
		if err := pack.Unmarshal(raw, &name); err != nil {
			return nil, fmt.Errorf("tag %s: decoding person name: %w", t, err)
		}
		return &dicomjson.Field{VR: v, Value: []dicomjson.Value{dicomjson.AlphabeticValue{Alphabetic: name}}}, nil

	default:
		var generic interface{}
		if err := pack.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("tag %s: decoding value: %w", t, err)
		}
		values, err := untaggedValuesFrom(t, generic)
		if err != nil {
			return nil, err
		}
		return &dicomjson.Field{VR: v, Value: values}, nil
	}
}

// untaggedValuesFrom mirrors the original decoder's untagged-enum
// decode order: string, array-of-string, integer, array-of-integer,
// float, array-of-float.
func untaggedValuesFrom(t string, generic interface{}) ([]dicomjson.Value, error) {
	switch v := generic.(type) {
	case string:
		return []dicomjson.Value{dicomjson.StringValue(v)}, nil
	case int64:
		return []dicomjson.Value{dicomjson.IntegerValue(v)}, nil
	case uint64:
		// An unsigned value that doesn't fit in i64 is rejected rather
		// than reinterpreted by a truncating cast (see DESIGN.md).
		n, err := toInt64(v)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", t, err)
		}
		return []dicomjson.Value{dicomjson.IntegerValue(n)}, nil
	case float64:
		return []dicomjson.Value{dicomjson.FloatValue(v)}, nil
	case []interface{}:
		return untaggedArrayValuesFrom(t, v)
	default:
		return nil, fmt.Errorf("tag %s: unsupported decoded value type %T", t, generic)
	}
}

func untaggedArrayValuesFrom(t string, arr []interface{}) ([]dicomjson.Value, error) {
	if len(arr) == 0 {
		return nil, fmt.Errorf("tag %s: empty array value", t)
	}

	switch arr[0].(type) {
	case string:
		values := make([]dicomjson.Value, len(arr))
		for i, elem := range arr {
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("tag %s: array element %d is not a string", t, i)
			}
			values[i] = dicomjson.StringValue(s)
		}
		return values, nil

	case int64, uint64:
		values := make([]dicomjson.Value, len(arr))
		for i, elem := range arr {
			n, err := toInt64(elem)
			if err != nil {
				return nil, fmt.Errorf("tag %s: array element %d: %w", t, i, err)
			}
			values[i] = dicomjson.IntegerValue(n)
		}
		return values, nil

	case float64:
		values := make([]dicomjson.Value, len(arr))
		for i, elem := range arr {
			f, ok := elem.(float64)
			if !ok {
				return nil, fmt.Errorf("tag %s: array element %d is not a float", t, i)
			}
			values[i] = dicomjson.FloatValue(f)
		}
		return values, nil

	default:
		return nil, fmt.Errorf("tag %s: unsupported array element type %T", t, arr[0])
	}
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("unsigned value %d overflows i64", n)
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}
