package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/pgate"
)

var InitCommand = Command(initE,
	"init",
	"Run the initialization routine against an already-ready database",
	Description(`
		Runs the configured initialization routine once, passing it the
		database name, without waiting for readiness first. Useful for
		re-running initialization by hand or from a migration job.

		The routine's exit code is propagated: a non-zero exit makes this
		command fail with the same diagnostic the full sequence would print.
	`),
	Flags(func(flags *pflag.FlagSet) {
		gateFlags(flags)
		initFlags(flags)
	}),
)

// initE runs only the initialization phase of the sequence
func initE(cmd *cobra.Command, args []string) error {
	config, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	init := pgate.NewCommandInitializer(config)
	if init == nil {
		return fmt.Errorf("no initialization command configured (set PGATE_INIT_CMD or --init-cmd)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syscall.Umask(0)

	result := init.Initialize(ctx, config.Database)
	if result.Err != nil {
		return fmt.Errorf("initialization failed: %w", result.Err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("initialization routine exited with code %d", result.ExitCode)
	}

	cmd.Printf("Initialization completed in %s\n", result.Duration.Round(time.Millisecond))
	return nil
}
