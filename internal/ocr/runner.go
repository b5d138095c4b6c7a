package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ocr-studio/internal/logging"
)

// CommandLog captures one external command invocation result.
type CommandLog struct {
	Command  string        `json:"command"`
	Args     []string      `json:"args"`
	ExitCode int           `json:"exitCode"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	Duration time.Duration `json:"duration"`
}

// CommandResult is the captured outcome of one process run.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// OK reports a zero exit status.
func (r CommandResult) OK() bool {
	return r.ExitCode == 0
}

// Log converts the result into a CommandLog for the given invocation.
func (r CommandResult) Log(name string, args []string) CommandLog {
	return CommandLog{
		Command:  name,
		Args:     args,
		ExitCode: r.ExitCode,
		Stdout:   r.Stdout,
		Stderr:   r.Stderr,
		Duration: r.Duration,
	}
}

// Runner abstracts process execution for testability.
//
// Run returns a nil error for any process that started, whatever its exit
// status. A non-nil error is always an *Error of kind KindLaunchFailure.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

// ExecRunner executes commands via os/exec.
type ExecRunner struct {
	// Timeout bounds each invocation when positive. Zero means no limit.
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewExecRunner builds a runner with the given logger and no timeout.
func NewExecRunner(logger zerolog.Logger) *ExecRunner {
	return &ExecRunner{Logger: logger}
}

// Run executes one command and captures stdout, stderr and exit code.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		r.Logger.Debug().
			Str("cmd", name).
			Str("args", strings.Join(args, " ")).
			Int64("duration_ms", result.Duration.Milliseconds()).
			Int("stdout_bytes", stdout.Len()).
			Int("stderr_bytes", stderr.Len()).
			Msg("exec ok")
		return result, nil
	}

	var exitErr *exec.ExitError
	ctxErr := ctx.Err()
	if errors.As(err, &exitErr) || ctxErr != nil {
		result.ExitCode = -1
		if exitErr != nil {
			result.ExitCode = exitErr.ExitCode()
		}
		if ctxErr != nil {
			// killed by timeout or shutdown: a tool failure, not a launch failure
			result.ExitCode = -1
			result.Stderr = strings.TrimSpace(result.Stderr + "\n" + ctxErr.Error())
		}
		r.Logger.Warn().
			Str("cmd", name).
			Str("args", strings.Join(args, " ")).
			Int("exit_code", result.ExitCode).
			Int64("duration_ms", result.Duration.Milliseconds()).
			Str("stderr", logging.Truncate(result.Stderr, 8<<10)).
			Msg("exec exited non-zero")
		return result, nil
	}

	result.ExitCode = -1
	r.Logger.Error().
		Str("cmd", name).
		Err(err).
		Msg("exec failed to start")
	return result, &Error{
		Kind:       KindLaunchFailure,
		Message:    fmt.Sprintf("cannot launch %s", name),
		CommandLog: result.Log(name, args),
		Err:        err,
	}
}

// exitFailure builds a ToolExitFailure for a completed non-zero invocation.
func exitFailure(stage string, log CommandLog) *Error {
	return &Error{
		Kind:       KindToolExitFailure,
		Stage:      stage,
		Message:    strings.TrimSpace(log.Stderr),
		CommandLog: log,
	}
}
