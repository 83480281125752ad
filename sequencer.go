package pgate

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"

	"go.uber.org/zap"
)

// Phase identifies where the startup sequence currently is. Transitions are
// strictly linear: Waiting -> Ready -> Initialized -> Running.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseReady
	PhaseInitialized
	PhaseRunning
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseReady:
		return "ready"
	case PhaseInitialized:
		return "initialized"
	case PhaseRunning:
		return "running"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// Sequencer runs the three-phase startup gate: wait for the database, run
// the initialization routine, hand off to the final command.
type Sequencer struct {
	Config      *Config
	Waiter      *Waiter
	Initializer Initializer
	Execer      Execer

	// Diagnostics receives the stage banner; stderr in production.
	Diagnostics io.Writer

	// RelaxUmask broadens default file-creation permissions before the init
	// routine runs, so files it creates stay writable by the service user.
	RelaxUmask bool

	phase Phase
}

// NewSequencer wires the production sequencer from the resolved config.
func NewSequencer(config *Config) *Sequencer {
	waiter := NewWaiter(NewPgConnProber(config), config.WaitPolicy())

	seq := &Sequencer{
		Config:      config,
		Waiter:      waiter,
		Execer:      SyscallExecer{},
		Diagnostics: os.Stderr,
		RelaxUmask:  true,
	}
	if init := NewCommandInitializer(config); init != nil {
		seq.Initializer = init
	}
	return seq
}

// Phase returns the phase the sequence last reached.
func (s *Sequencer) Phase() Phase {
	return s.phase
}

func (s *Sequencer) diagnostics() io.Writer {
	if s.Diagnostics == nil {
		return os.Stderr
	}
	return s.Diagnostics
}

// Run executes the full sequence for the given final command. When the
// command is non-empty and the handoff succeeds, Run never returns.
func (s *Sequencer) Run(ctx context.Context, command []string) error {
	s.phase = PhaseWaiting
	s.printBanner()

	if err := s.Waiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for database: %w", err)
	}
	s.phase = PhaseReady

	if err := s.initialize(ctx); err != nil {
		return err
	}
	s.phase = PhaseInitialized

	s.phase = PhaseRunning
	return s.Execer.Exec(command)
}

// initialize runs the init routine exactly once and applies the explicit
// failure policy: abort unless the routine is marked optional.
func (s *Sequencer) initialize(ctx context.Context) error {
	if s.Initializer == nil {
		zlog.Debug("no initialization routine configured, skipping")
		return nil
	}

	if s.RelaxUmask {
		// Files created by the init routine must stay group/world writable.
		syscall.Umask(0)
	}

	result := s.Initializer.Initialize(ctx, s.Config.Database)
	if !result.Failed() {
		return nil
	}

	if s.Config.InitOptional {
		zlog.Warn("initialization routine failed, continuing as configured",
			zap.Int("exit_code", result.ExitCode),
			zap.Error(result.Err))
		return nil
	}

	if result.Err != nil {
		return fmt.Errorf("initialization failed: %w", result.Err)
	}
	return fmt.Errorf("initialization routine exited with code %d", result.ExitCode)
}

// printBanner emits the stage label and target endpoint to the diagnostic
// stream, once, before the readiness loop starts.
func (s *Sequencer) printBanner() {
	out := s.diagnostics()
	fmt.Fprintf(out, "stage: %s\n", s.Config.Stage)
	fmt.Fprintf(out, "waiting for database at %s:%d\n", s.Config.Host, s.Config.Port)
}
