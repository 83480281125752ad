package main

import (
	"fmt"
	"os"

	. "github.com/streamingfast/cli"
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

// Version is set via ldflags at build time
var version = "dev"

var zlog, _ = logging.PackageLogger("pgate", "github.com/streamingfast/pgate/cmd/main")

func init() {
	logging.InstantiateLoggers(logging.WithDefaultLevel(zap.DPanicLevel))
}

func main() {
	Run(
		"pgate <command>",
		"Postgres startup gate for containers",

		ConfigureVersion(version),
		ConfigureViper("PGATE"),

		// Default command (no subcommand = run)
		Execute(runE),

		RunCommand,
		WaitCommand,
		InitCommand,
		InfoCommand,

		OnCommandError(func(err error) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			zlog.Debug("command error", zap.Error(err))
			os.Exit(1)
		}),
	)
}
