// Package toolexec runs the external analysis tools smellwalk drives
// (RefactoringMiner, DesigniteJava, sonar-scanner) as blocking child processes.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// maxStderrTail bounds how much of a failing tool's stderr ends up in the error.
const maxStderrTail = 2048

// ErrToolFailed is returned when a tool exits unsuccessfully.
var ErrToolFailed = errors.New("external tool failed")

// Command describes one tool invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env entries are appended to the inherited environment.
	Env []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes a command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	logger *slog.Logger
}

// NewExecRunner creates a runner that logs every invocation at debug level.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}

	return &ExecRunner{logger: logger}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) ([]byte, error) {
	proc := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	proc.Dir = cmd.Dir

	if len(cmd.Env) > 0 {
		proc.Env = append(proc.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer

	proc.Stdout = &stdout
	proc.Stderr = &stderr

	start := time.Now()

	r.logger.DebugContext(ctx, "running tool", "command", cmd.String(), "dir", cmd.Dir)

	err := proc.Run()

	r.logger.DebugContext(ctx, "tool finished",
		"command", cmd.Name,
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
		"ok", err == nil)

	if err != nil {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", cmd.Name, ctxErr)
		}

		return nil, fmt.Errorf("%w: %s: %w: %s", ErrToolFailed, cmd.Name, err, tail(stderr.String()))
	}

	return stdout.Bytes(), nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxStderrTail {
		return s
	}

	return "..." + s[len(s)-maxStderrTail:]
}
