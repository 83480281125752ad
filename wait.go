package pgate

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// Clock abstracts time so tests can simulate many probe attempts without
// real delays.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// WaitPolicy bounds the readiness loop. The zero value retries forever at
// the default interval.
type WaitPolicy struct {
	// Interval is the delay after each failed probe.
	Interval time.Duration

	// MaxAttempts aborts the wait after this many failed probes. Zero means
	// no attempt limit.
	MaxAttempts int

	// Timeout aborts the wait once this much time has elapsed. Zero means no
	// deadline.
	Timeout time.Duration
}

// Waiter repeats readiness probes until the target accepts connections or
// the policy gives up. Failed probes are an expected transient state, logged
// once per attempt and never treated as fatal on their own.
type Waiter struct {
	Prober Prober
	Policy WaitPolicy

	// Clock defaults to the real clock; tests inject a fake.
	Clock Clock

	// Diagnostics receives the per-attempt and success messages; stderr in
	// production so they never mix with the final command's stdout.
	Diagnostics io.Writer
}

// NewWaiter returns a production Waiter for the given prober and policy.
func NewWaiter(prober Prober, policy WaitPolicy) *Waiter {
	return &Waiter{
		Prober:      prober,
		Policy:      policy,
		Clock:       realClock{},
		Diagnostics: os.Stderr,
	}
}

func (w *Waiter) clock() Clock {
	if w.Clock == nil {
		return realClock{}
	}
	return w.Clock
}

func (w *Waiter) diagnostics() io.Writer {
	if w.Diagnostics == nil {
		return os.Stderr
	}
	return w.Diagnostics
}

// Wait blocks until a probe succeeds, emitting exactly one success message.
// It returns an error only when the policy bounds are exceeded or the
// context is canceled.
func (w *Waiter) Wait(ctx context.Context) error {
	interval := w.Policy.Interval
	if interval <= 0 {
		interval = DefaultProbeInterval
	}

	clock := w.clock()
	var deadline time.Time
	if w.Policy.Timeout > 0 {
		deadline = clock.Now().Add(w.Policy.Timeout)
	}

	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("readiness wait canceled: %w", err)
		}

		err := w.Prober.Probe(ctx)
		if err == nil {
			fmt.Fprintln(w.diagnostics(), "database is up - continuing")
			zlog.Info("database ready", zap.Int("failed_attempts", attempt))
			return nil
		}

		attempt++
		fmt.Fprintln(w.diagnostics(), "database is unavailable - sleeping")
		zlog.Debug("probe failed", zap.Int("attempt", attempt), zap.Error(err))

		if w.Policy.MaxAttempts > 0 && attempt >= w.Policy.MaxAttempts {
			return fmt.Errorf("database did not become ready after %d attempts: %w", attempt, err)
		}
		if !deadline.IsZero() && !clock.Now().Before(deadline) {
			return fmt.Errorf("database did not become ready within %s: %w", w.Policy.Timeout, err)
		}

		clock.Sleep(interval)
	}
}
