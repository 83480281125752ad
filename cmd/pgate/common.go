package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/streamingfast/pgate"
)

// gateFlags declares the flags shared by every command that resolves the
// gate configuration. Flags override both the config file and environment.
func gateFlags(flags *pflag.FlagSet) {
	flags.String("host", "", "Database host (overrides POSTGRES_HOST)")
	flags.Int("port", 0, "Database port (overrides POSTGRES_PORT)")
	flags.StringP("database", "d", "", "Database name (overrides POSTGRES_DB)")
	flags.String("stage", "", "Deployment stage label (overrides STAGE)")
	flags.Duration("probe-interval", 0, "Delay between readiness probes")
	flags.Duration("probe-timeout", 0, "Timeout applied to each individual probe")
	flags.Int("max-attempts", 0, "Give up after this many failed probes (0 = unbounded)")
	flags.Duration("wait-timeout", 0, "Give up once this much time has elapsed (0 = unbounded)")
}

func initFlags(flags *pflag.FlagSet) {
	flags.String("init-cmd", "", "Initialization executable to run once the database is ready")
	flags.Bool("init-optional", false, "Continue to the final command even when initialization fails")
	flags.String("init-params", "", "Base JSON parameters file passed to the initialization routine")
	flags.String("init-params-dir", "", "Directory holding per-stage JSON overlays (<stage>.json)")
}

// resolveConfig loads the layered configuration and overlays any flag the
// user explicitly set on the command line.
func resolveConfig(cmd *cobra.Command) (*pgate.Config, error) {
	config, err := pgate.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		config.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		config.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("database") {
		config.Database, _ = flags.GetString("database")
	}
	if flags.Changed("stage") {
		config.Stage, _ = flags.GetString("stage")
	}
	if flags.Changed("probe-interval") {
		config.ProbeInterval, _ = flags.GetDuration("probe-interval")
	}
	if flags.Changed("probe-timeout") {
		config.ProbeTimeout, _ = flags.GetDuration("probe-timeout")
	}
	if flags.Changed("max-attempts") {
		config.MaxAttempts, _ = flags.GetInt("max-attempts")
	}
	if flags.Changed("wait-timeout") {
		config.WaitTimeout, _ = flags.GetDuration("wait-timeout")
	}

	if flags.Lookup("init-cmd") != nil {
		if flags.Changed("init-cmd") {
			config.InitCommand, _ = flags.GetString("init-cmd")
		}
		if flags.Changed("init-optional") {
			config.InitOptional, _ = flags.GetBool("init-optional")
		}
		if flags.Changed("init-params") {
			config.InitParams, _ = flags.GetString("init-params")
		}
		if flags.Changed("init-params-dir") {
			config.InitParamsDir, _ = flags.GetString("init-params-dir")
		}
	}

	if config.ProbeInterval <= 0 {
		config.ProbeInterval = pgate.DefaultProbeInterval
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = pgate.DefaultProbeTimeout
	}

	return config, nil
}

func formatBound(attempts int, timeout time.Duration) string {
	switch {
	case attempts > 0 && timeout > 0:
		return fmt.Sprintf("%d attempts or %s", attempts, timeout)
	case attempts > 0:
		return fmt.Sprintf("%d attempts", attempts)
	case timeout > 0:
		return timeout.String()
	default:
		return "unbounded"
	}
}
