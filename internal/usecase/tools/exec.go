package tools

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// Output is the captured result of one external executable run. Non-zero
// exit codes are reported here, not as Go errors: the caller decides what a
// failing scan means.
type Output struct {
	Status string   `json:"status"` // "ok" / "error"
	Code   int      `json:"code"`
	Stdout string   `json:"stdout"`
	Stderr string   `json:"stderr"`
	Cmd    []string `json:"cmd"`
}

// execRunner is the consumer contract for running external executables.
type execRunner interface {
	Run(ctx context.Context, name string, args ...string) Output
}

// Runner executes external tools with a bounded runtime.
type Runner struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewRunner creates a runner. Each run is capped at timeout.
func NewRunner(timeout time.Duration, logger *zap.Logger) *Runner {
	return &Runner{timeout: timeout, logger: logger}
}

// Run executes name with args and captures stdout, stderr and the exit code.
func (r *Runner) Run(ctx context.Context, name string, args ...string) Output {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	out := Output{
		Status: "ok",
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Cmd:    append([]string{name}, args...),
	}

	if err != nil {
		out.Status = "error"
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			out.Code = exitErr.ExitCode()
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			out.Code = -1
			out.Stderr = "timed out after " + r.timeout.String()
		default:
			// Binary missing or not startable.
			out.Code = -1
			out.Stderr = err.Error()
		}
	}

	r.logger.Debug("exec finished",
		zap.Strings("cmd", out.Cmd),
		zap.String("status", out.Status),
		zap.Int("code", out.Code),
		zap.Duration("duration", duration),
	)

	return out
}
