// Package pack is the single msgpack encode/decode chokepoint used by the
// header directory codec and by the per-field payload codec. Everything
// that touches the wire format goes through Marshal/Unmarshal so the
// struct-as-map variant convention (see header.Field) stays in one place.
package pack

import (
	"bytes"
	"reflect"

	"github.com/hashicorp/go-msgpack/codec"
)

// handle is shared across all Marshal/Unmarshal calls. RawToString makes
// decoded msgpack strings come back as Go strings rather than []byte, and
// MapType forces decoded maps to be map[string]interface{} instead of the
// default map[interface{}]interface{} — both are required to decode the
// directory region and field payloads into plain Go values without a
// reflection target.
var handle = func() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{RawToString: true}
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	return h
}()

// Marshal msgpack-encodes v using the shared handle.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, handle)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal msgpack-decodes data into v using the shared handle.
func Unmarshal(data []byte, v interface{}) error {
	dec := codec.NewDecoder(bytes.NewReader(data), handle)
	return dec.Decode(v)
}
