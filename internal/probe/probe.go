// Package probe runs external diagnostic commands with a bounded
// timeout and classifies their failures. It does not interpret output.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

var (
	// ErrNotFound means the executable is not present on the system.
	ErrNotFound = errors.New("executable not found")
	// ErrTimeout means the command exceeded its execution bound.
	ErrTimeout = errors.New("command timed out")
)

// Result carries the raw outcome of one command invocation. A non-zero
// exit code is not an error by itself: smartctl reports SMART status
// bits through the exit code while still emitting complete output.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner is the capability used by the enumerator and reader, so both
// can be tested against canned outputs without real hardware tooling.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner invokes commands via os/exec with a per-call timeout.
type ExecRunner struct {
	timeout time.Duration
}

// NewExecRunner creates a runner whose every invocation is bounded by
// timeout. A zero timeout disables the bound.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{timeout: timeout}
}

// Run executes name with args and returns its output. Launch failures
// map to ErrNotFound, deadline hits to ErrTimeout; a command that ran
// and exited non-zero returns its output with a nil error.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	// The context check must come first: a killed process surfaces as
	// an ExitError even when the real cause was the deadline.
	if ctx.Err() != nil {
		return res, fmt.Errorf("%w: %s", ErrTimeout, name)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return res, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return res, fmt.Errorf("run %s: %w", name, err)
}
