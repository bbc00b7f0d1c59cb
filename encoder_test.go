package dimble

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func roundTrip(t *testing.T, jsonContent string) string {
	t.Helper()
	dir := t.TempDir()
	jsonPath := writeJSON(t, dir, "in.json", jsonContent)
	dimblePath := filepath.Join(dir, "out.dimble")
	reconPath := filepath.Join(dir, "recon.json")

	require.NoError(t, Encode(jsonPath, dimblePath, ""))
	require.NoError(t, DecodeToJSON(dimblePath, reconPath))

	data, err := os.ReadFile(reconPath)
	require.NoError(t, err)
	return string(data)
}

func TestS1SingleString(t *testing.T) {
	out := roundTrip(t, `{"00080005":{"vr":"CS","Value":["ISO_IR 100"]}}`)
	assert.JSONEq(t, `{"00080005":{"vr":"CS","Value":["ISO_IR 100"]}}`, out)
}

func TestS2StringArray(t *testing.T) {
	out := roundTrip(t, `{"00080008":{"vr":"CS","Value":["ORIGINAL","PRIMARY","OTHER"]}}`)
	assert.JSONEq(t, `{"00080008":{"vr":"CS","Value":["ORIGINAL","PRIMARY","OTHER"]}}`, out)
}

func TestS3EmptyField(t *testing.T) {
	out := roundTrip(t, `{"00080090":{"vr":"PN"}}`)
	assert.JSONEq(t, `{"00080090":{"vr":"PN"}}`, out)
}

func TestS4InlineBinaryNonPixel(t *testing.T) {
	out := roundTrip(t, `{"00080008":{"vr":"OB","InlineBinary":"ABCD"}}`)
	assert.JSONEq(t, `{"00080008":{"vr":"OB","InlineBinary":"ABCD"}}`, out)
}

func TestS5PersonName(t *testing.T) {
	out := roundTrip(t, `{"00100010":{"vr":"PN","Value":[{"Alphabetic":"Doe^John"}]}}`)
	assert.JSONEq(t, `{"00100010":{"vr":"PN","Value":[{"Alphabetic":"Doe^John"}]}}`, out)
}

func TestNestedSequenceRoundTrip(t *testing.T) {
	in := `{"00400275":{"vr":"SQ","Value":[{"00400009":{"vr":"SH","Value":["SPS1"]}}]}}`
	out := roundTrip(t, in)
	assert.JSONEq(t, in, out)
}

func TestEmptySequenceRoundTrip(t *testing.T) {
	in := `{"00400275":{"vr":"SQ","Value":[]}}`
	out := roundTrip(t, in)
	assert.JSONEq(t, in, out)
}

func TestMultiItemSequenceDowngradesToEmpty(t *testing.T) {
	in := `{"00400275":{"vr":"SQ","Value":[
		{"00400009":{"vr":"SH","Value":["SPS1"]}},
		{"00400009":{"vr":"SH","Value":["SPS2"]}}
	]}}`
	out := roundTrip(t, in)
	assert.JSONEq(t, `{"00400275":{"vr":"SQ"}}`, out)
}

func TestMultipleFieldsRoundTrip(t *testing.T) {
	in := `{
		"00080005":{"vr":"CS","Value":["ISO_IR 100"]},
		"00080008":{"vr":"CS","Value":["ORIGINAL","PRIMARY","OTHER"]},
		"00080090":{"vr":"PN"},
		"00100010":{"vr":"PN","Value":[{"Alphabetic":"Doe^John"}]}
	}`
	out := roundTrip(t, in)
	assert.JSONEq(t, in, out)
}

func TestEncodeRejectsValueAndInlineBinaryBothPresent(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeJSON(t, dir, "bad.json", `{"00080008":{"vr":"OB","Value":["x"],"InlineBinary":"AA=="}}`)
	dimblePath := filepath.Join(dir, "out.dimble")

	err := Encode(jsonPath, dimblePath, "")
	assert.ErrorIs(t, err, ErrValueAndInlineBinaryBothPresent)
}

func TestEncodeMissingInputFile(t *testing.T) {
	dir := t.TempDir()
	err := Encode(filepath.Join(dir, "nope.json"), filepath.Join(dir, "out.dimble"), "")
	assert.ErrorIs(t, err, ErrCouldNotOpen)
}

func TestPixelDataInlineBinaryPlaceholder(t *testing.T) {
	dir := t.TempDir()
	blobPath := filepath.Join(dir, "pixels.bin")
	require.NoError(t, os.WriteFile(blobPath, []byte{1, 2, 3, 4}, 0o644))

	jsonPath := writeJSON(t, dir, "in.json", `{"7FE00010":{"vr":"OW","InlineBinary":"ignored"}}`)
	dimblePath := filepath.Join(dir, "out.dimble")
	reconPath := filepath.Join(dir, "recon.json")

	require.NoError(t, Encode(jsonPath, dimblePath, blobPath))
	require.NoError(t, DecodeToJSON(dimblePath, reconPath))

	data, err := os.ReadFile(reconPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), pixelDataPlaceholder)
}
