// Shell Command Executor.
//
// Information Hiding:
// - Shell invocation (sh -c) and process lifecycle hidden
// - Stdout streamed live while stderr is captured for error analysis
// - A terminal stdout is handed to the child untouched
// - Timeout and cancellation kill the whole process group, exit code -1

package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/richinex/resolvai/internal/ui"
)

// ExitAbnormal is reported when the process did not exit normally:
// it failed to start, was killed by a signal, or hit the timeout.
const ExitAbnormal = -1

// waitDelay bounds how long Wait keeps reading pipes held open by
// grandchildren after the shell itself has been killed.
const waitDelay = 2 * time.Second

// ExecutionResult is the outcome of one shell command.
type ExecutionResult struct {
	// Command is what actually ran, after compatibility rewrites.
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	TimedOut bool
}

// Success reports whether the command exited with status 0.
func (r ExecutionResult) Success() bool {
	return r.ExitCode == 0
}

// ShellTool executes shell commands via sh -c.
type ShellTool struct {
	timeout time.Duration
	stdout  io.Writer
	stderr  io.Writer
	logger  *zap.Logger
}

// ShellOption configures a ShellTool.
type ShellOption func(*ShellTool)

// WithCommandTimeout kills commands that run longer than d. Zero means no limit.
func WithCommandTimeout(d time.Duration) ShellOption {
	return func(t *ShellTool) { t.timeout = d }
}

// WithOutput sets where live stdout and the stderr echo are written.
func WithOutput(stdout, stderr io.Writer) ShellOption {
	return func(t *ShellTool) {
		if stdout != nil {
			t.stdout = stdout
		}
		if stderr != nil {
			t.stderr = stderr
		}
	}
}

// WithShellLogger sets the diagnostic logger.
func WithShellLogger(logger *zap.Logger) ShellOption {
	return func(t *ShellTool) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewShellTool creates a shell executor writing to the process stdout/stderr.
func NewShellTool(opts ...ShellOption) *ShellTool {
	t := &ShellTool{
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run executes the command and returns its result. A non-zero exit is a
// normal result, never an error.
func (t *ShellTool) Run(ctx context.Context, command string) ExecutionResult {
	command = RewriteFindExec(command)
	managed := IsPackageManagement(command)
	if managed {
		fmt.Fprintln(t.stdout, ui.Banner.Render("[resolve-ai] Executing package management command"))
		fmt.Fprintln(t.stdout, ui.BannerText.Render("[resolve-ai] Command: "+command))
		fmt.Fprintln(t.stdout, ui.BannerText.Render("[resolve-ai] Live output:"))
	}

	result := t.run(ctx, command)

	if result.Stderr != "" {
		fmt.Fprint(t.stderr, result.Stderr)
		if result.Stderr[len(result.Stderr)-1] != '\n' {
			fmt.Fprintln(t.stderr)
		}
	}
	if managed {
		if result.Success() {
			fmt.Fprintln(t.stdout, ui.Banner.Render("[resolve-ai] Package management command completed"))
		} else {
			fmt.Fprintln(t.stdout, ui.Error.Render(fmt.Sprintf("[resolve-ai] Command failed with exit code: %d", result.ExitCode)))
		}
	}

	t.logger.Debug("command finished",
		zap.String("command", command),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("elapsed", result.Duration),
		zap.Bool("timed_out", result.TimedOut))
	return result
}

func (t *ShellTool) run(ctx context.Context, command string) ExecutionResult {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdin = nil // reads from the null device: prompts see EOF
	cmd.Stdout = t.stdoutFor(&stdout)
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	start := time.Now()
	err := cmd.Run()
	result := ExecutionResult{
		Command:  command,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.ExitCode = ExitAbnormal
		result.TimedOut = true
		result.Stderr = appendNote(result.Stderr, fmt.Sprintf("command timed out after %s", t.timeout))
	case ctx.Err() != nil:
		result.ExitCode = ExitAbnormal
		result.Stderr = appendNote(result.Stderr, "command cancelled: "+ctx.Err().Error())
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// ExitCode is -1 when the process was killed by a signal.
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = ExitAbnormal
			result.Stderr = appendNote(result.Stderr, "failed to execute command: "+err.Error())
		}
	}
	return result
}

// stdoutFor returns the child's stdout. A terminal is passed through as the
// *os.File itself so progress bars and colours survive; its output is then
// not captured. Any other writer is teed into capture.
func (t *ShellTool) stdoutFor(capture *bytes.Buffer) io.Writer {
	if f, ok := t.stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return f
	}
	return io.MultiWriter(t.stdout, capture)
}

func appendNote(stderr, note string) string {
	if stderr == "" || stderr[len(stderr)-1] == '\n' {
		return stderr + note
	}
	return stderr + "\n" + note
}
