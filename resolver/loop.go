// Package resolver turns a package request into verified shell actions.
//
// The Engine asks an oracle for installation commands, filters them down to
// a whitelisted and deduplicated batch, runs the batch after confirmation,
// verifies installs with a read-only probe, and feeds failures back to the
// oracle for a revised plan until the attempt budget runs out.
package resolver

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/richinex/resolvai/internal/ui"
	"github.com/richinex/resolvai/llm"
)

// Engine drives resolution sessions. It holds no per-session state.
type Engine struct {
	oracle      llm.Oracle
	runner      Runner
	gate        Gate
	verifier    Verifier
	system      string
	maxAttempts int
	excerpt     int
	out         io.Writer
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithSystemPrompt sets the system prompt sent with every oracle query.
func WithSystemPrompt(prompt string) Option {
	return func(e *Engine) { e.system = prompt }
}

// WithMaxAttempts lowers the batch budget. Values outside 1..MaxAttempts
// are ignored.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n >= 1 && n <= MaxAttempts {
			e.maxAttempts = n
		}
	}
}

// WithStderrExcerpt sets how many trailing stderr bytes each ErrorRecord keeps.
func WithStderrExcerpt(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.excerpt = n
		}
	}
}

// WithOutput sets where progress is printed.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		if w != nil {
			e.out = w
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides time.Now for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine wires an engine from its three collaborators.
func NewEngine(oracle llm.Oracle, runner Runner, gate Gate, opts ...Option) *Engine {
	e := &Engine{
		oracle:      oracle,
		runner:      runner,
		gate:        gate,
		maxAttempts: MaxAttempts,
		excerpt:     DefaultStderrExcerpt,
		out:         os.Stdout,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.verifier = NewVerifier(runner, e.out)
	return e
}

// Run resolves target and returns the finished session. The error is nil
// for Success, Unresolved, Aborted and NoCommands; otherwise it is an
// *OracleError or *ExhaustedError, or the context error on cancellation.
// An Unresolved session is reported through its summary and Outcome only.
func (e *Engine) Run(ctx context.Context, target Target) (Session, error) {
	s := NewSession(target, e.now())
	log := e.logger.With(zap.String("session", s.ID), zap.String("target", target.Spec))
	log.Info("resolution started",
		zap.String("kind", string(target.Kind)),
		zap.Bool("file_mode", target.FileMode),
		zap.String("manager", target.Manager()))

	e.printHeader(target)

	s, err := e.plan(ctx, s)
	for err == nil && !s.Outcome.Terminal() {
		s, err = e.confirm(ctx, s)
		if err != nil || s.Outcome.Terminal() {
			break
		}
		s, err = e.execute(ctx, s, log)
	}

	e.summarize(s, err)
	log.Info("resolution finished",
		zap.Stringer("outcome", s.Outcome),
		zap.Int("attempts", s.Attempts),
		zap.Int("errors", len(s.History)),
		zap.Error(err))
	return s, err
}

// plan queries the oracle for the first batch.
func (e *Engine) plan(ctx context.Context, s Session) (Session, error) {
	text, err := e.oracle.Query(ctx, e.system, InitialPrompt(s.Target))
	if err != nil {
		return s.finish(OutcomeOracleFailed, e.now()), &OracleError{Stage: "initial", Err: err}
	}

	batch := Deduplicate(Extract(text))
	if len(batch) == 0 {
		fmt.Fprintln(e.out, ui.Warning.Render("No executable commands found in the oracle response."))
		fmt.Fprintln(e.out, "Oracle response:")
		fmt.Fprintln(e.out, text)
		return s.finish(OutcomeNoCommands, e.now()), nil
	}
	s.Batch = batch
	return s, nil
}

// confirm shows the pending batch and asks the gate.
func (e *Engine) confirm(ctx context.Context, s Session) (Session, error) {
	question := "Execute these resolution commands?"
	if s.Attempts == 0 {
		fmt.Fprintln(e.out, "Suggested commands:")
	} else {
		fmt.Fprintf(e.out, "New resolution commands (%d):\n", len(s.Batch))
		question = "Execute these new resolution commands?"
	}
	for i, cmd := range s.Batch {
		fmt.Fprintf(e.out, "  %d. %s\n", i+1, cmd)
	}
	fmt.Fprintln(e.out)

	ok, err := e.gate.Confirm(ctx, question)
	if err != nil {
		return s.finish(OutcomeAborted, e.now()), err
	}
	if !ok {
		fmt.Fprintln(e.out, ui.Warning.Render("Resolution commands not executed."))
		return s.finish(OutcomeAborted, e.now()), nil
	}
	return s, nil
}

// execute runs one batch and decides what comes next.
func (e *Engine) execute(ctx context.Context, s Session, log *zap.Logger) (Session, error) {
	batch := s.Batch
	s.Batch = nil
	s.Attempts++
	log = log.With(zap.Int("attempt", s.Attempts))

	fmt.Fprintln(e.out, ui.Accent.Render(fmt.Sprintf("\nAttempt %d: executing %d commands", s.Attempts, len(batch))))

	var next []Command
	failed := false
	for i, cmd := range batch {
		if err := ctx.Err(); err != nil {
			return s.finish(OutcomeAborted, e.now()), err
		}
		fmt.Fprintf(e.out, "\nCommand %d: %s\n", i+1, cmd)

		result := e.runner.Run(ctx, cmd.String())
		if err := ctx.Err(); err != nil {
			return s.finish(OutcomeAborted, e.now()), err
		}
		install := s.Target.IsInstallCommand(cmd.String())
		log.Debug("command executed",
			zap.String("command", cmd.String()),
			zap.Int("exit_code", result.ExitCode),
			zap.Bool("install", install))

		if result.Success() {
			fmt.Fprintln(e.out, ui.Success.Render("Command completed successfully"))
			if !install {
				continue
			}
			probe, check := e.verifier.Verify(ctx, s.Target)
			if check.Success() {
				s.Verified = true
				fmt.Fprintln(e.out, ui.Success.Render(fmt.Sprintf("%s successfully installed and verified", capitalize(s.Target.Describe()))))
				return s.finish(OutcomeSuccess, e.now()), nil
			}
			log.Info("verification failed", zap.String("probe", probe), zap.Int("exit_code", check.ExitCode))
			failed = true
			s.History = s.History.Append(ErrorRecord{
				Kind:     FailureVerification,
				Command:  cmd.String(),
				Probe:    probe,
				ExitCode: check.ExitCode,
				Stderr:   excerpt(check.Stderr, e.excerpt),
			})
		} else {
			fmt.Fprintln(e.out, ui.Error.Render(fmt.Sprintf("Command failed with exit code: %d", result.ExitCode)))
			failed = true
			s.History = s.History.Append(ErrorRecord{
				Kind:     FailureExecution,
				Command:  cmd.String(),
				ExitCode: result.ExitCode,
				Stderr:   excerpt(result.Stderr, e.excerpt),
			})
			if !install {
				continue
			}
		}

		s.InstallFailed = true

		if s.Attempts >= e.maxAttempts {
			log.Debug("replan skipped: attempt budget spent")
			continue
		}
		more, err := e.replan(ctx, s)
		s.Replans++
		if err != nil {
			log.Warn("replan failed", zap.Error(err))
			return s.finish(OutcomeOracleFailed, e.now()), &OracleError{Stage: "replan", Err: err}
		}
		log.Info("replan received", zap.Int("commands", len(more)))
		next = Merge(next, more)
	}

	switch {
	case failed && s.Attempts >= e.maxAttempts:
		s = s.finish(OutcomeExhausted, e.now())
		return s, &ExhaustedError{Target: s.Target, Attempts: s.Attempts, History: s.History}
	case len(next) == 0 && s.InstallFailed:
		// Completing without a verified install only counts as success
		// when no installation ever failed.
		return s.finish(OutcomeUnresolved, e.now()), nil
	case len(next) == 0:
		return s.finish(OutcomeSuccess, e.now()), nil
	}
	s.Batch = next
	return s, nil
}

// replan asks the oracle for corrective commands given the history so far.
func (e *Engine) replan(ctx context.Context, s Session) ([]Command, error) {
	fmt.Fprintln(e.out, ui.Muted.Render("Analyzing error and requesting new resolution steps..."))
	text, err := e.oracle.Query(ctx, e.system, ReplanPrompt(s.Target, s.History))
	if err != nil {
		return nil, err
	}
	return Deduplicate(Extract(text)), nil
}

// summarize prints the terminal report for s.
func (e *Engine) summarize(s Session, err error) {
	switch s.Outcome {
	case OutcomeSuccess:
		if !s.Verified {
			fmt.Fprintln(e.out, ui.Success.Render("All resolution commands completed"))
		}
	case OutcomeAborted:
		if err != nil {
			fmt.Fprintln(e.out, ui.Warning.Render("Resolution stopped: "+err.Error()))
		}
	case OutcomeExhausted:
		fmt.Fprintln(e.out, ui.Error.Render(fmt.Sprintf("Maximum resolution attempts (%d) reached. Installation failed.", s.Attempts)))
		fmt.Fprintln(e.out, "Error history:")
		fmt.Fprint(e.out, s.History.Numbered())
	case OutcomeUnresolved:
		fmt.Fprintln(e.out, ui.Error.Render(fmt.Sprintf("Could not install %s; no further commands were proposed.", s.Target.Describe())))
		fmt.Fprintln(e.out, "Error history:")
		fmt.Fprint(e.out, s.History.Numbered())
	case OutcomeOracleFailed:
		fmt.Fprintln(e.out, ui.Error.Render("Failed to get resolution commands from the oracle: "+err.Error()))
		if len(s.History) > 0 {
			fmt.Fprintln(e.out, "Error history:")
			fmt.Fprint(e.out, s.History.Numbered())
		}
	}
}

func (e *Engine) printHeader(t Target) {
	fmt.Fprintln(e.out, "Processing your package resolution request...")
	if t.FileMode {
		fmt.Fprintf(e.out, "Dependency file: %s\n", t.Spec)
		fmt.Fprintf(e.out, "Detected type: %s\n\n", t.Kind)
	} else {
		fmt.Fprintf(e.out, "Package: %s\n", t.Spec)
		fmt.Fprintf(e.out, "Type: %s\n\n", t.Kind)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
