package tensorfile

import (
	"encoding/json"
	"fmt"
)

// TensorInfo describes one tensor's dtype, shape, and byte range within
// the data section that follows the metadata block.
type TensorInfo struct {
	Dtype       string `json:"dtype"`
	Shape       []int  `json:"shape"`
	DataOffsets [2]uint64 `json:"data_offsets"`
}

// parseMetadata splits a safetensors-style metadata block into its
// optional free-form "__metadata__" map and its per-tensor entries. The
// Rust type this was carried over from flattens the tensor map and the
// metadata map into one JSON object; Go has no equivalent of
// #[serde(flatten)], so this does the same split by hand.
func parseMetadata(data []byte) (map[string]string, map[string]TensorInfo, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("invalid metadata json: %w", err)
	}

	var meta map[string]string
	if m, ok := raw["__metadata__"]; ok {
		if err := json.Unmarshal(m, &meta); err != nil {
			return nil, nil, fmt.Errorf("invalid __metadata__: %w", err)
		}
		delete(raw, "__metadata__")
	}

	tensors := make(map[string]TensorInfo, len(raw))
	for name, v := range raw {
		var info TensorInfo
		if err := json.Unmarshal(v, &info); err != nil {
			return nil, nil, fmt.Errorf("invalid tensor info for %q: %w", name, err)
		}
		tensors[name] = info
	}
	return meta, tensors, nil
}
