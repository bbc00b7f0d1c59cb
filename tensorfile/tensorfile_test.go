package tensorfile

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSafetensorsFile(t *testing.T, dir string, values []float32, shape []int) string {
	t.Helper()

	metadataJSON := `{"__metadata__":{"producer":"test"},"pixel_array":{"dtype":"F32","shape":[`
	for i, s := range shape {
		if i > 0 {
			metadataJSON += ","
		}
		metadataJSON += itoa(s)
	}
	metadataJSON += `],"data_offsets":[0,` + itoa(len(values)*4) + `]}}`

	path := filepath.Join(dir, "pixels.safetensors")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(metadataJSON)))
	_, err = f.Write(lenBuf[:])
	require.NoError(t, err)
	_, err = f.Write([]byte(metadataJSON))
	require.NoError(t, err)

	for _, v := range values {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		_, err = f.Write(b[:])
		require.NoError(t, err)
	}

	return path
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

func TestOpenAndReadPixelArray(t *testing.T) {
	dir := t.TempDir()
	path := writeSafetensorsFile(t, dir, []float32{1, 2, 3, 4, 5, 6}, []int{2, 3})

	tf, err := Open(path, 0, 0)
	require.NoError(t, err)
	defer tf.Close()

	assert.Equal(t, "test", tf.Metadata()["producer"])
	assert.ElementsMatch(t, []string{"pixel_array"}, tf.TensorNames())

	arr, err := tf.PixelArray()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, arr.Shape())
	assert.Equal(t, float32(1), arr.Data().([]float32)[0])
	assert.Equal(t, float32(6), arr.Data().([]float32)[5])
}

func TestOpenRegionWithinLargerFile(t *testing.T) {
	dir := t.TempDir()
	inner := writeSafetensorsFile(t, dir, []float32{9, 8, 7, 6}, []int{4})
	innerBytes, err := os.ReadFile(inner)
	require.NoError(t, err)

	combined := filepath.Join(dir, "combined.bin")
	prefix := []byte("some preceding bytes")
	require.NoError(t, os.WriteFile(combined, append(prefix, innerBytes...), 0o644))

	tf, err := Open(combined, int64(len(prefix)), len(innerBytes))
	require.NoError(t, err)
	defer tf.Close()

	arr, err := tf.PixelArray()
	require.NoError(t, err)
	assert.Equal(t, []int{4}, arr.Shape())
	assert.Equal(t, float32(9), arr.Data().([]float32)[0])
}

func TestUnsupportedDtypeIsRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.safetensors")
	metadataJSON := `{"pixel_array":{"dtype":"F64","shape":[1],"data_offsets":[0,8]}}`

	f, err := os.Create(path)
	require.NoError(t, err)
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(metadataJSON)))
	_, err = f.Write(lenBuf[:])
	require.NoError(t, err)
	_, err = f.Write([]byte(metadataJSON))
	require.NoError(t, err)
	_, err = f.Write(make([]byte, 8))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	tf, err := Open(path, 0, 0)
	require.NoError(t, err)
	defer tf.Close()

	_, err = tf.PixelArray()
	assert.Error(t, err)
}

func TestOpenRejectsInvalidHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	_, err := Open(path, 0, 0)
	assert.ErrorIs(t, err, ErrHeaderInvalid)
}
