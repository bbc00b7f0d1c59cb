// Package cli wires the dimble CLI's subcommands together with kong.
package cli

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/strongresearch/dimble/cmd/dimble/internal/commands"
)

const (
	appName        = "dimble"
	appDescription = "Encode, decode and load Dimble container files"
)

// GlobalConfig holds flags shared by every subcommand.
type GlobalConfig struct {
	LogLevel string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log verbosity"`
}

// CLI is the root command structure.
type CLI struct {
	GlobalConfig

	Encode        commands.EncodeCmd        `cmd:"" help:"Encode a DICOM-JSON document into a Dimble file"`
	Decode        commands.DecodeCmd        `cmd:"" help:"Decode a Dimble file back into DICOM-JSON"`
	Load          commands.LoadCmd          `cmd:"" help:"Partially load selected tags from a Dimble file"`
	LoadPixelArray commands.LoadPixelArrayCmd `cmd:"" name:"load-pixel-array" help:"Load just the pixel-data tensor from a Dimble file"`
}

// Run parses os.Args and executes the selected subcommand.
func Run(version, commit, date string) error {
	cliStruct := &CLI{}
	ctx := kong.Parse(cliStruct,
		kong.Name(appName),
		kong.Description(appDescription),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": version, "commit": commit, "date": date},
	)

	logger := setupLogger(&cliStruct.GlobalConfig)
	return ctx.Run(logger)
}

func setupLogger(cfg *GlobalConfig) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	switch cfg.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	log.SetDefault(logger)
	return logger
}
