package dimble

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/go-playground/validator/v10"
	"gorgonia.org/tensor"

	"github.com/strongresearch/dimble/header"
	"github.com/strongresearch/dimble/internal/pack"
	"github.com/strongresearch/dimble/tag"
	"github.com/strongresearch/dimble/tensorfile"
)

var optionsValidator = validator.New()

// LoadOptions configures Load's tag selection and pixel decoding.
type LoadOptions struct {
	// RequestedTags selects which top-level tags to materialise. A nil
	// or empty slice requests every top-level tag.
	RequestedTags []string
	// Device is passed through to the tensor reader. This implementation
	// only supports "cpu" (the default) or "" for it, since
	// gorgonia.org/tensor has no GPU backend to relocate to.
	Device string `validate:"omitempty,oneof=cpu"`
	// Slices optionally narrows the pixel-data tensor along one or more
	// axes. The slicing is applied after the whole tensor has been
	// decoded from the file.
	Slices []tensor.Slice
}

// Validate checks LoadOptions' struct-level constraints. Load calls this
// itself; exported so callers can validate before doing other work.
func (o LoadOptions) Validate() error {
	if err := optionsValidator.Struct(o); err != nil {
		return fmt.Errorf("dimble: invalid load options: %w", err)
	}
	return nil
}

// Load mmaps dimblePath, parses its directory, and materialises only the
// requested tags into a native Go map — the byte ranges of every other
// tag are never read. This is the hot path for training-time access.
func Load(dimblePath string, opts LoadOptions) (map[string]interface{}, error) {
	tensorRuntimeHandle()

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(dimblePath)
	if err != nil {
		return nil, &OpenError{Path: dimblePath, Cause: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &OpenError{Path: dimblePath, Cause: err}
	}

	mapped, err := mmap.MapRegion(f, int(info.Size()), mmap.RDONLY, 0, 0)
	if err != nil {
		return nil, &OpenError{Path: dimblePath, Cause: err}
	}
	defer mapped.Unmap()

	dir, headerLen, err := parseDirectory(mapped)
	if err != nil {
		return nil, &HeaderInvalidError{Path: dimblePath, Cause: err}
	}

	tags := opts.RequestedTags
	if len(tags) == 0 {
		tags = make([]string, 0, len(dir))
		for t := range dir {
			tags = append(tags, t)
		}
	}

	result := make(map[string]interface{}, len(tags))
	for _, t := range tags {
		field, ok := dir[t]
		if !ok {
			return nil, &TagMissingError{Tag: t}
		}
		v, err := loadValue(dimblePath, t, field, mapped, headerLen, opts)
		if err != nil {
			return nil, err
		}
		result[t] = v
	}
	return result, nil
}

// LoadPixelArray loads just the pixel-data tag as a tensor, touching
// only the directory and the pixel tag's own byte range.
func LoadPixelArray(dimblePath, device string, slices ...tensor.Slice) (*tensor.Dense, error) {
	result, err := Load(dimblePath, LoadOptions{
		RequestedTags: []string{tag.PixelData},
		Device:        device,
		Slices:        slices,
	})
	if err != nil {
		return nil, err
	}
	arr, ok := result[tag.PixelData].(*tensor.Dense)
	if !ok {
		return nil, fmt.Errorf("dimble: %s is not a pixel-array tensor in %s", tag.PixelData, dimblePath)
	}
	return arr, nil
}

func loadValue(path, t string, f *header.Field, mapped []byte, headerLen uint64, opts LoadOptions) (interface{}, error) {
	switch f.Kind {
	case header.KindEmpty:
		return nil, nil

	case header.KindSequence:
		// Only the first item is materialised — items beyond it are
		// ignored at this interface, consistent with the encoder's
		// single-item sequence limitation.
		if len(f.Items) == 0 {
			return nil, nil
		}
		return loadMap(path, f.Items[0], mapped, headerLen, opts)

	case header.KindDeferred:
		absOffset := 8 + headerLen + f.Offset

		if tag.IsPixelData(t) {
			return loadPixelTensor(path, absOffset, f.Length, opts)
		}

		if absOffset+f.Length > uint64(len(mapped)) {
			return nil, fmt.Errorf("tag %s: deferred range exceeds file size", t)
		}
		raw := mapped[absOffset : absOffset+f.Length]
		var generic interface{}
		if err := pack.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("tag %s: decoding value: %w", t, err)
		}
		return nativeValue(generic), nil

	default:
		return nil, fmt.Errorf("tag %s: unknown header field kind", t)
	}
}

func loadPixelTensor(path string, absOffset, length uint64, opts LoadOptions) (interface{}, error) {
	tf, err := tensorfile.Open(path, int64(absOffset), int(length))
	if err != nil {
		return nil, &TensorHeaderInvalidError{Path: path, Cause: err}
	}
	defer tf.Close()

	arr, err := tf.PixelArray(opts.Slices...)
	if err != nil {
		return nil, &TensorHeaderInvalidError{Path: path, Cause: err}
	}
	return arr, nil
}

func loadMap(path string, m header.Map, mapped []byte, headerLen uint64, opts LoadOptions) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(m))
	for t, f := range m {
		v, err := loadValue(path, t, f, mapped, headerLen, opts)
		if err != nil {
			return nil, err
		}
		result[t] = v
	}
	return result, nil
}

// nativeValue recursively converts a decoded msgpack value tree into the
// DICOM-JSON -> native projection: scalars pass through, arrays convert
// element-wise.
func nativeValue(generic interface{}) interface{} {
	arr, ok := generic.([]interface{})
	if !ok {
		return generic
	}
	out := make([]interface{}, len(arr))
	for i, elem := range arr {
		out[i] = nativeValue(elem)
	}
	return out
}
