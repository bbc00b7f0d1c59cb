package header

import (
	"fmt"

	"github.com/strongresearch/dimble/internal/pack"
	"github.com/strongresearch/dimble/vr"
)

// Encode serialises a directory to the msgpack bytes stored at the start
// of a Dimble file, right after the 8-byte length prefix.
func Encode(m Map) ([]byte, error) {
	data, err := pack.Marshal(m.toWire())
	if err != nil {
		return nil, fmt.Errorf("header: encode: %w", err)
	}
	return data, nil
}

// Decode parses the directory region of a Dimble file.
func Decode(data []byte) (Map, error) {
	var raw interface{}
	if err := pack.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("header: decode: %w", err)
	}
	m, err := mapFromWire(raw)
	if err != nil {
		return nil, fmt.Errorf("header: decode: %w", err)
	}
	return m, nil
}

// toWire renders a directory as the generic map/array/int tree that
// pack.Marshal turns into msgpack bytes. Each Field becomes a one-entry
// map whose key names the variant — the same externally-tagged shape an
// enum gets when serialised field-by-field rather than through Go
// struct tags, which lets the "Deffered" wire spelling stay exactly
// as-is instead of being normalised by a struct field name.
func (m Map) toWire() map[string]interface{} {
	wire := make(map[string]interface{}, len(m))
	for tag, f := range m {
		wire[tag] = f.toWire()
	}
	return wire
}

func (f *Field) toWire() map[string]interface{} {
	switch f.Kind {
	case KindDeferred:
		return map[string]interface{}{
			"Deffered": []interface{}{f.Offset, f.Length, vrToWire(f.VR)},
		}
	case KindEmpty:
		return map[string]interface{}{"Empty": []interface{}{vrToWire(f.VR)}}
	case KindSequence:
		items := make([]interface{}, len(f.Items))
		for i, sub := range f.Items {
			items[i] = sub.toWire()
		}
		return map[string]interface{}{"SQ": []interface{}{items}}
	default:
		panic(fmt.Sprintf("header: unknown field kind %d", f.Kind))
	}
}

// vrToWire renders a VR as the 2-byte msgpack binary string the wire
// format uses, not an array of integers — VR is textualised only at the
// DICOM-JSON boundary.
func vrToWire(v vr.VR) []byte {
	b := v.Bytes()
	return []byte{b[0], b[1]}
}

func vrFromWire(raw interface{}) (vr.VR, error) {
	// The shared codec's RawToString setting (internal/pack) decodes a
	// msgpack str/raw value into a Go string, not []byte, even though
	// vrToWire writes it as a []byte — so both shapes have to be
	// accepted here.
	switch b := raw.(type) {
	case string:
		if len(b) != 2 {
			return vr.VR{}, fmt.Errorf("malformed VR %#v", raw)
		}
		return vr.FromBytes([2]byte{b[0], b[1]}), nil
	case []byte:
		if len(b) != 2 {
			return vr.VR{}, fmt.Errorf("malformed VR %#v", raw)
		}
		return vr.FromBytes([2]byte{b[0], b[1]}), nil
	default:
		return vr.VR{}, fmt.Errorf("malformed VR %#v", raw)
	}
}

func mapFromWire(raw interface{}) (Map, error) {
	wireMap, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("malformed directory %#v", raw)
	}
	out := make(Map, len(wireMap))
	for tag, v := range wireMap {
		f, err := fieldFromWire(v)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", tag, err)
		}
		out[tag] = f
	}
	return out, nil
}

func fieldFromWire(raw interface{}) (*Field, error) {
	wireMap, ok := raw.(map[string]interface{})
	if !ok || len(wireMap) != 1 {
		return nil, fmt.Errorf("malformed field %#v", raw)
	}
	for variant, val := range wireMap {
		switch variant {
		case "Deffered":
			arr, ok := val.([]interface{})
			if !ok || len(arr) != 3 {
				return nil, fmt.Errorf("malformed Deffered field %#v", val)
			}
			offset, err := toUint64(arr[0])
			if err != nil {
				return nil, fmt.Errorf("Deffered offset: %w", err)
			}
			length, err := toUint64(arr[1])
			if err != nil {
				return nil, fmt.Errorf("Deffered length: %w", err)
			}
			v, err := vrFromWire(arr[2])
			if err != nil {
				return nil, fmt.Errorf("Deffered vr: %w", err)
			}
			return Deferred(offset, length, v), nil

		case "Empty":
			arr, ok := val.([]interface{})
			if !ok || len(arr) != 1 {
				return nil, fmt.Errorf("malformed Empty field %#v", val)
			}
			v, err := vrFromWire(arr[0])
			if err != nil {
				return nil, fmt.Errorf("Empty vr: %w", err)
			}
			return EmptyField(v), nil

		case "SQ":
			outer, ok := val.([]interface{})
			if !ok || len(outer) != 1 {
				return nil, fmt.Errorf("malformed SQ field %#v", val)
			}
			arr, ok := outer[0].([]interface{})
			if !ok {
				return nil, fmt.Errorf("malformed SQ items %#v", outer[0])
			}
			items := make([]Map, len(arr))
			for i, item := range arr {
				sub, err := mapFromWire(item)
				if err != nil {
					return nil, fmt.Errorf("SQ item %d: %w", i, err)
				}
				items[i] = sub
			}
			return SequenceField(items...), nil

		default:
			return nil, fmt.Errorf("unknown field variant %q", variant)
		}
	}
	panic("unreachable")
}

func toUint64(v interface{}) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("negative value %d where unsigned expected", n)
		}
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("negative value %d where unsigned expected", n)
		}
		return uint64(n), nil
	case uint:
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}
