package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strongresearch/dimble/vr"
)

func TestEncodeDecodeDeferredRoundTrip(t *testing.T) {
	m := Map{
		"00080005": Deferred(0, 4, vr.VR{'C', 'S'}),
	}

	data, err := Encode(m)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, m.Equals(decoded))
}

func TestEncodeDecodeEmptyRoundTrip(t *testing.T) {
	m := Map{
		"00100010": EmptyField(vr.PersonName),
	}

	data, err := Encode(m)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, m.Equals(decoded))

	field, ok := decoded["00100010"]
	require.True(t, ok)
	assert.Equal(t, KindEmpty, field.Kind)
	assert.Equal(t, vr.PersonName, field.VR)
}

func TestEncodeDecodeEmptySequenceRoundTrip(t *testing.T) {
	m := Map{
		"00400275": SequenceField(),
	}

	data, err := Encode(m)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.True(t, m.Equals(decoded))
	assert.Len(t, decoded["00400275"].Items, 0)
}

func TestEncodeDecodeNestedSequenceRoundTrip(t *testing.T) {
	inner := Map{
		"00400009": Deferred(0, 4, vr.VR{'S', 'H'}),
	}
	m := Map{
		"00400275": SequenceField(inner),
	}

	data, err := Encode(m)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, m.Equals(decoded))

	field := decoded["00400275"]
	require.Len(t, field.Items, 1)
	assert.True(t, inner.Equals(field.Items[0]))
}

func TestDeferredWireUsesOriginalSpelling(t *testing.T) {
	m := Map{"00080005": Deferred(0, 4, vr.VR{'C', 'S'})}
	wire := m.toWire()
	fieldWire, ok := wire["00080005"].(map[string]interface{})
	require.True(t, ok)
	_, hasDeffered := fieldWire["Deffered"]
	assert.True(t, hasDeffered, "wire representation must use the historical 'Deffered' spelling")
}

func TestDecodeRejectsUnknownVariant(t *testing.T) {
	_, err := fieldFromWire(map[string]interface{}{"Bogus": uint64(1)})
	assert.Error(t, err)
}

func TestDecodeRejectsMalformedDeferred(t *testing.T) {
	_, err := fieldFromWire(map[string]interface{}{"Deffered": []interface{}{uint64(1)}})
	assert.Error(t, err)
}
