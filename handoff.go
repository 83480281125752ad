package pgate

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

// Execer replaces the current process with the final command. An empty argv
// is a no-op: the sequence ends successfully without a handoff.
type Execer interface {
	Exec(argv []string) error
}

// SyscallExecer hands off via execve, making the final command the
// container's primary process. On success it never returns.
type SyscallExecer struct{}

func (SyscallExecer) Exec(argv []string) error {
	if len(argv) == 0 {
		zlog.Debug("no final command supplied, nothing to hand off to")
		return nil
	}

	path, err := resolveExecutable(argv[0])
	if err != nil {
		return fmt.Errorf("failed to find %s: %w", argv[0], err)
	}

	zlog.Info("handing off to final command",
		zap.String("path", path),
		zap.Strings("argv", argv))

	if err := syscall.Exec(path, argv, os.Environ()); err != nil {
		return fmt.Errorf("failed to exec %s: %w", path, err)
	}
	return nil
}

// resolveExecutable resolves a bare command name through PATH; anything
// containing a path separator is used as-is after an existence check.
func resolveExecutable(name string) (string, error) {
	if strings.Contains(name, "/") {
		if _, err := os.Stat(name); err != nil {
			return "", err
		}
		return name, nil
	}
	return exec.LookPath(name)
}
