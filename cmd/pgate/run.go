package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/pgate"
	"go.uber.org/zap"
)

var RunCommand = Command(runE,
	"run -- <command> [args...]",
	"Wait for the database, run initialization, then exec the final command",
	Description(`
		Runs the full startup sequence for a container entrypoint:

		1. Polls the configured Postgres endpoint until it accepts connections,
		   printing a diagnostic line per failed attempt.
		2. Runs the configured initialization routine once, passing it the
		   database name. A failing routine aborts the sequence unless
		   --init-optional is set.
		3. Replaces this process with the trailing command via exec, so the
		   final command becomes the container's primary process.

		Without a trailing command the sequence ends after initialization.
	`),
	Flags(func(flags *pflag.FlagSet) {
		gateFlags(flags)
		initFlags(flags)
	}),
)

// runE executes the full three-phase startup sequence
func runE(cmd *cobra.Command, args []string) error {
	zlog.Debug("starting pgate run command")

	config, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// Everything after -- is the final command, handed off verbatim.
	command := args
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		command = args[at:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zlog.Debug("resolved startup sequence",
		zap.String("endpoint", config.RedactedConnString()),
		zap.String("stage", config.Stage),
		zap.Strings("command", command))

	return pgate.NewSequencer(config).Run(ctx, command)
}
