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
)

var WaitCommand = Command(waitE,
	"wait",
	"Wait for the database to accept connections, then exit",
	Description(`
		Polls the configured Postgres endpoint until it accepts connections and
		answers a ping, then exits 0. Prints one diagnostic line per failed
		attempt to stderr.

		The wait is unbounded by default; use --max-attempts or --wait-timeout
		to make it give up, in which case the command exits non-zero.
	`),
	Flags(func(flags *pflag.FlagSet) {
		gateFlags(flags)
	}),
)

// waitE runs only the readiness phase of the sequence
func waitE(cmd *cobra.Command, args []string) error {
	config, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	waiter := pgate.NewWaiter(pgate.NewPgConnProber(config), config.WaitPolicy())
	return waiter.Wait(ctx)
}
