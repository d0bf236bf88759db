package resolver

import (
	"context"
	"fmt"
	"io"

	"github.com/richinex/resolvai/internal/ui"
	"github.com/richinex/resolvai/tools"
)

// Runner executes one shell command. *tools.ShellTool is the production
// implementation.
type Runner interface {
	Run(ctx context.Context, command string) tools.ExecutionResult
}

// ProbeCommand returns the read-only command that confirms target is
// installed.
func ProbeCommand(t Target) string {
	switch {
	case t.Kind == KindNPM && t.FileMode:
		return "npm list"
	case t.Kind == KindNPM:
		return "npm list " + t.PackageName()
	case t.Env == EnvConda && t.FileMode:
		return "conda list"
	case t.Env == EnvConda:
		return "conda list " + t.PackageName()
	case t.FileMode:
		return "pip list"
	default:
		return "pip show " + t.PackageName()
	}
}

// Verifier checks that an installation really took effect, independent of
// the install command's own exit status.
type Verifier struct {
	runner Runner
	out    io.Writer
}

// NewVerifier creates a verifier that runs probes through runner.
func NewVerifier(runner Runner, out io.Writer) Verifier {
	return Verifier{runner: runner, out: out}
}

// Verify runs the probe for t. Success means the probe exited 0.
func (v Verifier) Verify(ctx context.Context, t Target) (string, tools.ExecutionResult) {
	probe := ProbeCommand(t)
	fmt.Fprintf(v.out, "Verifying installation: %s\n", probe)

	result := v.runner.Run(ctx, probe)
	if result.Success() {
		fmt.Fprintln(v.out, ui.Success.Render("Verification successful"))
	} else {
		fmt.Fprintln(v.out, ui.Error.Render(fmt.Sprintf("Verification failed (exit code %d)", result.ExitCode)))
	}
	return probe, result
}
