package pgate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/kaptinlin/jsonmerge"
	"go.uber.org/zap"
)

// InitParamsEnvVar carries the resolved JSON parameters document to the
// initialization routine.
const InitParamsEnvVar = "PGATE_INIT_PARAMS"

// InitResult captures the outcome of the initialization routine explicitly,
// instead of leaving exit-status propagation to ambient shell settings.
type InitResult struct {
	// Ran is false when no routine was configured.
	Ran bool

	// ExitCode is the routine's exit code when it ran to completion.
	ExitCode int

	// Err is set when the routine could not be started or was interrupted.
	Err error

	Duration time.Duration
}

// Failed reports whether the routine ran and did not succeed.
func (r InitResult) Failed() bool {
	return r.Err != nil || r.ExitCode != 0
}

// Initializer invokes the external one-time initialization routine.
type Initializer interface {
	Initialize(ctx context.Context, database string) InitResult
}

// CommandInitializer runs an external executable with the database name as
// its single argument. The routine is opaque: pgate does not parse its
// output or interpret partial failure, it only captures the exit status.
type CommandInitializer struct {
	// Command is the executable to run.
	Command string

	// ParamsFile is an optional base JSON parameters document. ParamsDir may
	// hold a per-stage overlay named <stage>.json merged over the base.
	ParamsFile string
	ParamsDir  string
	Stage      string

	// Stdout and Stderr receive the routine's output; both default to the
	// calling process's streams.
	Stdout io.Writer
	Stderr io.Writer
}

// NewCommandInitializer builds the production initializer from the resolved
// config. Returns nil when no init command is configured.
func NewCommandInitializer(config *Config) *CommandInitializer {
	if config.InitCommand == "" {
		return nil
	}
	return &CommandInitializer{
		Command:    config.InitCommand,
		ParamsFile: config.InitParams,
		ParamsDir:  config.InitParamsDir,
		Stage:      config.Stage,
	}
}

func (c *CommandInitializer) Initialize(ctx context.Context, database string) InitResult {
	params, err := c.resolveParams()
	if err != nil {
		return InitResult{Ran: true, Err: err}
	}

	cmd := exec.CommandContext(ctx, c.Command, database)
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if params != "" {
		cmd.Env = append(os.Environ(), InitParamsEnvVar+"="+params)
	}

	zlog.Info("running initialization routine",
		zap.String("command", c.Command),
		zap.String("database", database))

	start := time.Now()
	runErr := cmd.Run()
	result := InitResult{Ran: true, Duration: time.Since(start)}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
	case errors.As(runErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.Err = fmt.Errorf("failed to run %s: %w", c.Command, runErr)
	}

	zlog.Info("initialization routine finished",
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration),
		zap.Error(result.Err))

	return result
}

// resolveParams reads the base parameters document and merges the per-stage
// overlay over it when one exists. A missing overlay is not an error; a
// configured but unreadable base file is.
func (c *CommandInitializer) resolveParams() (string, error) {
	if c.ParamsFile == "" {
		return "", nil
	}

	base, err := os.ReadFile(c.ParamsFile)
	if err != nil {
		return "", fmt.Errorf("failed to read init params: %w", err)
	}

	if c.ParamsDir == "" || c.Stage == "" {
		return string(base), nil
	}

	overlayPath := filepath.Join(c.ParamsDir, c.Stage+".json")
	overlay, err := os.ReadFile(overlayPath)
	if err != nil {
		if os.IsNotExist(err) {
			zlog.Debug("no stage overlay for init params", zap.String("path", overlayPath))
			return string(base), nil
		}
		return "", fmt.Errorf("failed to read init params overlay: %w", err)
	}

	merged, err := jsonmerge.Merge(string(base), string(overlay))
	if err != nil {
		return "", fmt.Errorf("failed to merge init params overlay %s: %w", overlayPath, err)
	}

	zlog.Debug("merged init params overlay", zap.String("overlay", overlayPath))
	return merged.Doc, nil
}
