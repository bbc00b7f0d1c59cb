package dimble

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeFixture(t *testing.T, jsonContent, pixelArrayPath string) string {
	t.Helper()
	dir := t.TempDir()
	jsonPath := writeJSON(t, dir, "in.json", jsonContent)
	dimblePath := filepath.Join(dir, "out.dimble")
	require.NoError(t, Encode(jsonPath, dimblePath, pixelArrayPath))
	return dimblePath
}

func TestLoadScalarAndArrayValues(t *testing.T) {
	dimblePath := encodeFixture(t, `{
		"00080005":{"vr":"CS","Value":["ISO_IR 100"]},
		"00080008":{"vr":"CS","Value":["ORIGINAL","PRIMARY","OTHER"]}
	}`, "")

	result, err := Load(dimblePath, LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "ISO_IR 100", result["00080005"])
	assert.Equal(t, []interface{}{"ORIGINAL", "PRIMARY", "OTHER"}, result["00080008"])
}

func TestLoadEmptyFieldYieldsNil(t *testing.T) {
	dimblePath := encodeFixture(t, `{"00080090":{"vr":"PN"}}`, "")

	result, err := Load(dimblePath, LoadOptions{})
	require.NoError(t, err)

	v, ok := result["00080090"]
	require.True(t, ok)
	assert.Nil(t, v)
}

// TestS6PartialLoadSubset exercises the §8 S6 scenario: requesting a
// strict subset of tags returns exactly that subset. Proving that the
// unrequested tag's bytes are literally never read would require a
// counting reader wrapped around the mmap view, which the real OS-backed
// mmap used here doesn't expose; this instead verifies the observable
// contract at the Load boundary, which is what every caller depends on.
func TestS6PartialLoadSubset(t *testing.T) {
	dimblePath := encodeFixture(t, `{
		"00080005":{"vr":"CS","Value":["A"]},
		"00080008":{"vr":"CS","Value":["B"]},
		"00080090":{"vr":"CS","Value":["C"]}
	}`, "")

	result, err := Load(dimblePath, LoadOptions{RequestedTags: []string{"00080005", "00080090"}})
	require.NoError(t, err)

	assert.Len(t, result, 2)
	assert.Equal(t, "A", result["00080005"])
	assert.Equal(t, "C", result["00080090"])
	_, hasB := result["00080008"]
	assert.False(t, hasB)
}

func TestLoadMissingTagIsFatal(t *testing.T) {
	dimblePath := encodeFixture(t, `{"00080005":{"vr":"CS","Value":["A"]}}`, "")

	_, err := Load(dimblePath, LoadOptions{RequestedTags: []string{"FFFFFFFF"}})
	assert.ErrorIs(t, err, ErrTagMissing)
}

func TestLoadNestedSequenceFirstItemOnly(t *testing.T) {
	dimblePath := encodeFixture(t, `{
		"00400275":{"vr":"SQ","Value":[
			{"00400009":{"vr":"SH","Value":["SPS1"]}}
		]}
	}`, "")

	result, err := Load(dimblePath, LoadOptions{})
	require.NoError(t, err)

	sub, ok := result["00400275"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "SPS1", sub["00400009"])
}

func TestLoadRejectsUnsupportedDevice(t *testing.T) {
	dimblePath := encodeFixture(t, `{"00080005":{"vr":"CS","Value":["A"]}}`, "")

	_, err := Load(dimblePath, LoadOptions{Device: "cuda:0"})
	assert.Error(t, err)
}

func writeSafetensorsBlob(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "pixels.safetensors")

	metadataJSON := `{"pixel_array":{"dtype":"F32","shape":[2,2],"data_offsets":[0,16]}}`
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(metadataJSON)))

	data := append(append([]byte{}, lenBuf[:]...), []byte(metadataJSON)...)
	floats := []float32{1, 2, 3, 4}
	for _, f := range floats {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(f))
		data = append(data, b[:]...)
	}

	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadPixelArrayTensor(t *testing.T) {
	dir := t.TempDir()
	blobPath := writeSafetensorsBlob(t, dir)
	dimblePath := encodeFixture(t, `{"7FE00010":{"vr":"OW","InlineBinary":"ignored"}}`, blobPath)

	arr, err := LoadPixelArray(dimblePath, "cpu")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, arr.Shape())
}
