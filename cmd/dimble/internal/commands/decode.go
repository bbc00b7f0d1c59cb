package commands

import (
	"github.com/charmbracelet/log"

	"github.com/strongresearch/dimble"
)

// DecodeCmd decodes a Dimble file back into DICOM-JSON.
type DecodeCmd struct {
	DimblePath string `arg:"" type:"existingfile" help:"Input Dimble file"`
	JSONPath   string `arg:"" help:"Output DICOM-JSON path"`
	Pretty     bool   `help:"Pretty-print the output JSON"`
}

// Run executes the decode command.
func (c *DecodeCmd) Run(logger *log.Logger) error {
	opts := dimble.DecodeToJSONOptions{Pretty: c.Pretty}
	if err := dimble.DecodeToJSONWithOptions(c.DimblePath, c.JSONPath, opts); err != nil {
		return err
	}
	logger.Info("decoded", "dimble", c.DimblePath, "json", c.JSONPath)
	return nil
}
