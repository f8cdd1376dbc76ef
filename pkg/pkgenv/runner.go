package pkgenv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExitError is returned by ExecRunner when the command ran but exited
// with a non-zero status. The captured stdout is returned alongside it.
type ExitError struct {
	Stderr string
	Code   int
}

// Error implements error.
func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}

	return fmt.Sprintf("exit status %d: %s", e.Code, e.Stderr)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Dir is the working directory of the command; empty means the current one.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

// Run implements Runner. Stdout is captured verbatim; stderr is only kept
// for error reporting.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // commands come from operator configuration.
	cmd.Dir = r.Dir

	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return stdout.Bytes(), &ExitError{
				Code:   exitErr.ExitCode(),
				Stderr: strings.TrimSpace(stderr.String()),
			}
		}

		return stdout.Bytes(), fmt.Errorf("run %s: %w", name, err)
	}

	return stdout.Bytes(), nil
}
