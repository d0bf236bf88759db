// Command execution for CLI commands.
//
// Information Hiding:
// - Provider, executor and journal setup hidden
// - Target parsing and typo correction hidden
// - Output formatting hidden

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/richinex/resolvai/config"
	"github.com/richinex/resolvai/internal/ui"
	"github.com/richinex/resolvai/llm"
	"github.com/richinex/resolvai/prompts"
	"github.com/richinex/resolvai/resolver"
	"github.com/richinex/resolvai/storage"
	"github.com/richinex/resolvai/tools"
)

// Options holds CLI execution options.
type Options struct {
	Kind      string
	Package   string
	File      string
	Env       string
	Provider  string
	DBPath    string
	Yes       bool
	NoJournal bool

	Logger *zap.Logger
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

func (o Options) in() io.Reader {
	if o.In != nil {
		return o.In
	}
	return os.Stdin
}

func (o Options) out() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

func (o Options) errOut() io.Writer {
	if o.ErrOut != nil {
		return o.ErrOut
	}
	return os.Stderr
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}

// Resolve runs one resolution session and journals its outcome. The
// returned error is nil for Success, Aborted and NoCommands.
func Resolve(ctx context.Context, opts Options) error {
	out := opts.out()
	logger := opts.logger()

	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}

	target, err := buildTarget(opts, out)
	if err != nil {
		return err
	}

	provider, err := createProvider(settings)
	if err != nil {
		return err
	}
	client := llm.NewClient(provider,
		llm.WithTimeout(settings.LLM.Timeout),
		llm.WithLogger(logger))

	def, err := prompts.Load("resolve")
	if err != nil {
		return err
	}

	shell := tools.NewShellTool(
		tools.WithCommandTimeout(settings.Resolver.CommandTimeout),
		tools.WithOutput(out, opts.errOut()),
		tools.WithShellLogger(logger))

	gate, closeGate := selectGate(opts)
	defer closeGate()

	fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("Using %s (%s)", provider.Name(), provider.Model())))

	engine := resolver.NewEngine(client, shell, gate,
		resolver.WithSystemPrompt(def.SystemPrompt),
		resolver.WithMaxAttempts(settings.Resolver.MaxAttempts),
		resolver.WithStderrExcerpt(settings.Resolver.StderrExcerpt),
		resolver.WithOutput(out),
		resolver.WithLogger(logger))

	session, runErr := engine.Run(ctx, target)

	if !opts.NoJournal {
		dbPath := opts.DBPath
		if dbPath == "" {
			dbPath = settings.Resolver.DBPath
		}
		// The session is already over; a cancelled ctx must not lose it.
		if err := journalSession(context.WithoutCancel(ctx), dbPath, sessionRecord(session, provider)); err != nil {
			logger.Warn("failed to journal session", zap.String("session", session.ID), zap.Error(err))
			fmt.Fprintf(opts.errOut(), "Warning: failed to record session: %v\n", err)
		}
	}

	return runErr
}

// buildTarget turns flags into a validated target. Python package names
// with well-known typos are corrected first.
func buildTarget(opts Options, out io.Writer) (resolver.Target, error) {
	env, err := resolver.ParseEnv(opts.Env)
	if err != nil {
		return resolver.Target{}, err
	}

	if opts.File != "" {
		if opts.Kind != "" || opts.Package != "" {
			return resolver.Target{}, errors.New("--file cannot be combined with --type or --package")
		}
		return resolver.NewFileTarget(opts.File, env)
	}
	if opts.Kind == "" || opts.Package == "" {
		return resolver.Target{}, errors.New("either --file, or both --type and --package, must be given")
	}

	kind, err := resolver.ParseKind(opts.Kind)
	if err != nil {
		return resolver.Target{}, err
	}

	spec := strings.TrimSpace(opts.Package)
	if kind == resolver.KindPython {
		if fixed, ok := resolver.CorrectTypo(spec); ok {
			fmt.Fprintln(out, ui.Warning.Render(fmt.Sprintf("Corrected package name: '%s' -> '%s'", spec, fixed)))
			spec = fixed
		}
	}

	target, err := resolver.NewPackageTarget(kind, spec, env)
	if err != nil {
		return resolver.Target{}, err
	}
	if guidance := target.Guidance(); guidance != "" {
		fmt.Fprintln(out, ui.Warning.Render(guidance))
		fmt.Fprintln(out)
	}
	return target, nil
}

func createProvider(settings config.Settings) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}
	return providerType.
		Model(settings.LLM.Model).
		MaxTokens(settings.LLM.MaxTokens).
		Temperature(float32(settings.LLM.Temperature)).
		FromEnv()
}

func sessionRecord(s resolver.Session, provider llm.Provider) storage.SessionRecord {
	rec := storage.SessionRecord{
		ID:         s.ID,
		Kind:       string(s.Target.Kind),
		Spec:       s.Target.Spec,
		FileMode:   s.Target.FileMode,
		Env:        string(s.Target.Env),
		Outcome:    s.Outcome.String(),
		Attempts:   s.Attempts,
		Replans:    s.Replans,
		Verified:   s.Verified,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
	if provider != nil {
		rec.Provider = provider.Name()
		rec.Model = provider.Model()
	}
	for _, r := range s.History {
		rec.Errors = append(rec.Errors, storage.ErrorRow{
			Kind:     string(r.Kind),
			Command:  r.Command,
			Probe:    r.Probe,
			ExitCode: r.ExitCode,
			Stderr:   r.Stderr,
		})
	}
	return rec
}

func journalSession(ctx context.Context, dbPath string, rec storage.SessionRecord) error {
	j, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return err
	}
	defer j.Close()
	return j.Record(ctx, rec)
}

// HistoryOptions controls the history listing.
type HistoryOptions struct {
	DBPath string
	Limit  int
	Errors bool
	Out    io.Writer
}

// History prints the most recent journaled sessions.
func History(ctx context.Context, opts HistoryOptions) error {
	dbPath := opts.DBPath
	if dbPath == "" {
		cfg, err := config.LoadResolver()
		if err != nil {
			return err
		}
		dbPath = cfg.DBPath
	}

	j, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return printHistory(ctx, j, opts.Limit, opts.Errors, out)
}

func printHistory(ctx context.Context, j storage.Journal, limit int, withErrors bool, out io.Writer) error {
	records, err := j.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No sessions recorded yet.")
		return nil
	}

	for _, rec := range records {
		target := rec.Spec
		if rec.FileMode {
			target = "-f " + rec.Spec
		}
		fmt.Fprintf(out, "%s  %-13s %-7s %-40s attempts=%-2d %s\n",
			rec.StartedAt.Local().Format("2006-01-02 15:04"),
			outcomeStyle(rec.Outcome).Render(rec.Outcome),
			rec.Kind,
			target,
			rec.Attempts,
			ui.Muted.Render(rec.Duration().Round(time.Second).String()))

		if !withErrors {
			continue
		}
		rows, err := j.Errors(ctx, rec.ID)
		if err != nil {
			return err
		}
		for _, row := range rows {
			line := fmt.Sprintf("    %d. [%s] %s (exit %d)", row.Seq, row.Kind, row.Command, row.ExitCode)
			if row.Probe != "" {
				line += " probe: " + row.Probe
			}
			fmt.Fprintln(out, ui.Muted.Render(line))
		}
	}
	return nil
}

func outcomeStyle(outcome string) lipgloss.Style {
	switch outcome {
	case resolver.OutcomeSuccess.String():
		return ui.Success
	case resolver.OutcomeAborted.String(), resolver.OutcomeNoCommands.String():
		return ui.Warning
	default:
		return ui.Error
	}
}

// ListProviders prints every supported provider with its key variable and
// the model that would be used.
func ListProviders(out io.Writer) error {
	fmt.Fprintln(out, "Supported providers:")
	for _, p := range llm.AllProviders {
		keyEnv, err := config.APIKeyEnvFor(p.String())
		if err != nil {
			return err
		}
		model, err := config.ModelFor(p.String())
		if err != nil {
			return err
		}

		credential := keyEnv
		if credential == "" {
			credential = "no key (" + llm.OllamaHostEnv + ")"
		}
		status := "ready"
		if _, err := config.APIKeyFor(p.String()); err != nil {
			status = "missing " + keyEnv
		}
		marker := ""
		if p.String() == config.DefaultProvider {
			marker = ui.Muted.Render(" (default)")
		}
		fmt.Fprintf(out, "  %-10s %-28s %-26s %s%s\n", p, credential, model, status, marker)
	}
	return nil
}
