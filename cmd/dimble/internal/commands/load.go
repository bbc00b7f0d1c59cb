package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"gorgonia.org/tensor"

	"github.com/strongresearch/dimble"
)

// LoadCmd partially loads selected tags from a Dimble file without
// touching the rest of the file's byte ranges.
type LoadCmd struct {
	DimblePath string `arg:"" type:"existingfile" help:"Input Dimble file"`
	Tags       string `help:"Comma-separated list of tags to load; all tags if omitted"`
	Device     string `default:"cpu" help:"Tensor device for any pixel-data tag encountered"`
}

// Run executes the load command, printing the resulting map as JSON.
func (c *LoadCmd) Run(logger *log.Logger) error {
	var tags []string
	if c.Tags != "" {
		tags = strings.Split(c.Tags, ",")
	}

	result, err := dimble.Load(c.DimblePath, dimble.LoadOptions{
		RequestedTags: tags,
		Device:        c.Device,
	})
	if err != nil {
		return err
	}

	logger.Debug("loaded", "dimble", c.DimblePath, "tags", len(result))
	out, err := json.MarshalIndent(describable(result), "", "  ")
	if err != nil {
		return fmt.Errorf("cmd/dimble: marshalling load result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// LoadPixelArrayCmd loads just the pixel-data tensor from a Dimble file.
type LoadPixelArrayCmd struct {
	DimblePath string `arg:"" type:"existingfile" help:"Input Dimble file"`
	Device     string `default:"cpu" help:"Tensor device"`
}

// Run executes the load-pixel-array command, printing the tensor's shape.
func (c *LoadPixelArrayCmd) Run(logger *log.Logger) error {
	arr, err := dimble.LoadPixelArray(c.DimblePath, c.Device)
	if err != nil {
		return err
	}
	logger.Info("loaded pixel array", "dimble", c.DimblePath, "shape", arr.Shape())
	return nil
}

// describable converts a *tensor.Dense value (not JSON-marshalable as-is)
// into its shape, so the load command's JSON output stays uniform across
// every tag kind.
func describable(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if dense, ok := v.(*tensor.Dense); ok {
			out[k] = map[string]interface{}{"tensor_shape": []int(dense.Shape())}
			continue
		}
		out[k] = v
	}
	return out
}
