// Package tensorfile reads the safetensors-style container Dimble uses
// to embed a pixel array: an 8-byte little-endian metadata length, a JSON
// metadata block describing one or more named tensors, and a raw tensor
// data section.
//
// https://github.com/huggingface/safetensors
package tensorfile

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/edsrzf/mmap-go"
	"gorgonia.org/tensor"
)

// pixelArrayName is the tensor name Dimble always looks up when decoding
// pixel data — the format doesn't address tensors by name at the
// dicomjson/header level, only this one well-known entry.
const pixelArrayName = "pixel_array"

// File is a memory-mapped tensor container, either a standalone
// safetensors file or a byte range embedded inside a Dimble data region.
type File struct {
	f         *os.File
	data      mmap.MMap
	headerLen uint64
	metadata  map[string]string
	tensors   map[string]TensorInfo
}

// Open memory-maps length bytes of path starting at offset and parses
// its tensor metadata. Pass length 0 to map to the end of the file.
func Open(path string, offset int64, length int) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tensorfile: open %s: %w", path, err)
	}

	if length == 0 {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("tensorfile: stat %s: %w", path, err)
		}
		length = int(info.Size()) - int(offset)
	}

	data, err := mmap.MapRegion(f, length, mmap.RDONLY, 0, offset)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("tensorfile: mmap %s: %w", path, err)
	}

	tf, err := newFromMapped(f, data)
	if err != nil {
		data.Unmap()
		f.Close()
		return nil, err
	}
	return tf, nil
}

func newFromMapped(f *os.File, data mmap.MMap) (*File, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("tensorfile: %w: region too short for header length", ErrHeaderInvalid)
	}
	headerLen := binary.LittleEndian.Uint64(data[0:8])
	if uint64(len(data)) < 8+headerLen {
		return nil, fmt.Errorf("tensorfile: %w: header length %d exceeds region", ErrHeaderInvalid, headerLen)
	}

	meta, tensors, err := parseMetadata(data[8 : 8+headerLen])
	if err != nil {
		return nil, fmt.Errorf("tensorfile: %w: %v", ErrHeaderInvalid, err)
	}

	return &File{f: f, data: data, headerLen: headerLen, metadata: meta, tensors: tensors}, nil
}

// Close unmaps the file and releases its descriptor.
func (tf *File) Close() error {
	if err := tf.data.Unmap(); err != nil {
		return fmt.Errorf("tensorfile: unmap: %w", err)
	}
	return tf.f.Close()
}

// Metadata returns the container's free-form "__metadata__" entries, if
// any were present.
func (tf *File) Metadata() map[string]string {
	return tf.metadata
}

// TensorNames returns the names of every tensor this container describes.
func (tf *File) TensorNames() []string {
	names := make([]string, 0, len(tf.tensors))
	for name := range tf.tensors {
		names = append(names, name)
	}
	return names
}

// PixelArray decodes the well-known "pixel_array" tensor, optionally
// slicing it along one or more axes.
func (tf *File) PixelArray(slices ...tensor.Slice) (*tensor.Dense, error) {
	return tf.Tensor(pixelArrayName, slices...)
}

// Tensor decodes the named tensor. Only the float32 dtype is supported —
// the implementation this was carried over from hardcodes the same
// restriction; any other dtype is rejected rather than silently
// reinterpreted.
func (tf *File) Tensor(name string, slices ...tensor.Slice) (*tensor.Dense, error) {
	info, ok := tf.tensors[name]
	if !ok {
		return nil, fmt.Errorf("tensorfile: tensor %q not found", name)
	}
	if info.Dtype != "F32" {
		return nil, fmt.Errorf("tensorfile: unsupported dtype %q for tensor %q (only F32 is supported)", info.Dtype, name)
	}

	dataStart := 8 + tf.headerLen + info.DataOffsets[0]
	dataEnd := 8 + tf.headerLen + info.DataOffsets[1]
	if dataEnd > uint64(len(tf.data)) || dataStart > dataEnd {
		return nil, fmt.Errorf("tensorfile: tensor %q data range [%d:%d] out of bounds", name, dataStart, dataEnd)
	}

	raw := tf.data[dataStart:dataEnd]
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("tensorfile: tensor %q byte range is not a whole number of float32s", name)
	}
	backing := make([]float32, len(raw)/4)
	for i := range backing {
		backing[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4 : i*4+4]))
	}

	t := tensor.New(tensor.WithShape(info.Shape...), tensor.WithBacking(backing))
	if len(slices) == 0 {
		return t, nil
	}

	sliced, err := t.Slice(slices...)
	if err != nil {
		return nil, fmt.Errorf("tensorfile: slicing tensor %q: %w", name, err)
	}
	dense, ok := sliced.(*tensor.Dense)
	if !ok {
		return nil, fmt.Errorf("tensorfile: unexpected slice result type %T", sliced)
	}
	return dense, nil
}
