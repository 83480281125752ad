package main

import (
	"context"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/pgate"
)

var InfoCommand = Command(infoE,
	"info",
	"Show the resolved gate configuration and current database status",
	Description(`
		Shows the configuration the startup sequence would run with, after
		layering the config file, environment variables and flags. Probes the
		database once to report whether it is currently reachable.

		Passwords never appear in the output.
	`),
	Flags(func(flags *pflag.FlagSet) {
		gateFlags(flags)
		initFlags(flags)
	}),
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Width(12)
	upStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	downStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// infoE shows the resolved configuration and a one-shot readiness check
func infoE(cmd *cobra.Command, args []string) error {
	config, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	printField := func(label, value string) {
		cmd.Printf("%s %s\n", labelStyle.Render(label), value)
	}

	printField("Stage:", config.Stage)
	printField("Endpoint:", config.RedactedConnString())
	printField("Interval:", config.ProbeInterval.String())
	printField("Bound:", formatBound(config.MaxAttempts, config.WaitTimeout))

	if config.InitCommand != "" {
		printField("Init:", config.InitCommand)
		if config.InitParams != "" {
			printField("Params:", config.InitParams)
		}
		if config.InitOptional {
			printField("", dimStyle.Render("(failures do not abort the sequence)"))
		}
	} else {
		printField("Init:", dimStyle.Render("none configured"))
	}

	prober := pgate.NewPgConnProber(config)
	if probeErr := prober.Probe(context.Background()); probeErr != nil {
		printField("Status:", downStyle.Render("unreachable"))
		cmd.Printf("%s %s\n", labelStyle.Render(""), dimStyle.Render(probeErr.Error()))
	} else {
		printField("Status:", upStyle.Render("ready"))
	}

	return nil
}
