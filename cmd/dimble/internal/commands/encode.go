// Package commands implements the dimble CLI's subcommands.
package commands

import (
	"github.com/charmbracelet/log"

	"github.com/strongresearch/dimble"
)

// EncodeCmd encodes a DICOM-JSON document into a Dimble file.
type EncodeCmd struct {
	JSONPath       string `arg:"" type:"existingfile" help:"Input DICOM-JSON document"`
	DimblePath     string `arg:"" help:"Output Dimble file path"`
	PixelArrayPath string `name:"pixel-array" help:"Tensor container file backing the pixel-data tag, if any"`
}

// Run executes the encode command.
func (c *EncodeCmd) Run(logger *log.Logger) error {
	if err := dimble.Encode(c.JSONPath, c.DimblePath, c.PixelArrayPath); err != nil {
		return err
	}
	logger.Info("encoded", "json", c.JSONPath, "dimble", c.DimblePath)
	return nil
}
