// Package main provides the resolve-ai CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/richinex/resolvai/cli"
	"github.com/richinex/resolvai/prompts"
)

var (
	// Global flags
	verbose bool
	dbPath  string

	logger *zap.Logger
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts cli.Options

	cmd := &cobra.Command{
		Use:   "resolve-ai",
		Short: "Install npm or Python packages, letting an LLM fix what breaks",
		Long:  rootLong(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.File == "" && opts.Kind == "" && opts.Package == "" {
				return cmd.Help()
			}
			opts.DBPath = dbPath
			opts.Logger = logger
			return cli.Resolve(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write debug logs to stderr")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Journal database path (default $RESOLVE_DB_PATH or .resolve-ai/journal.db)")

	cmd.Flags().StringVarP(&opts.Kind, "type", "t", "", "Package type: npm or python")
	cmd.Flags().StringVarP(&opts.Package, "package", "p", "", "Package with version, e.g. express@4.18.2 or requests==2.31.0")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Dependency file, e.g. package.json or requirements.txt")
	cmd.Flags().StringVarP(&opts.Env, "env", "e", "venv", "Python environment: venv (pip) or conda")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "LLM provider: ollama, openai, anthropic, deepseek, gemini (default $RESOLVE_PROVIDER or ollama)")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Run every batch without asking")
	cmd.Flags().BoolVar(&opts.NoJournal, "no-journal", false, "Do not record the session")

	cmd.MarkFlagsMutuallyExclusive("file", "type")
	cmd.MarkFlagsMutuallyExclusive("file", "package")
	cmd.MarkFlagsRequiredTogether("type", "package")

	cmd.AddCommand(historyCmd())
	cmd.AddCommand(providersCmd())

	return cmd
}

const rootDescription = `Resolve and install a package (or every dependency in a file).

An LLM proposes installation commands. After you confirm, they run in your
shell; failures are fed back to the LLM for corrected commands, up to 15
attempts. A successful install is confirmed with a read-only probe such as
'pip show' or 'npm list'.

Examples:
  resolve-ai -t python -p requests==2.31.0
  resolve-ai -t npm -p express@4.18.2 --provider openai
  resolve-ai -f requirements.txt -e conda --yes`

// rootLong appends the arguments declared by the resolve prompt definition.
func rootLong() string {
	def, err := prompts.Load("resolve")
	if err != nil {
		return rootDescription
	}
	usage := def.Usage()
	if usage == "" {
		return rootDescription
	}
	return rootDescription + "\n\nArguments:\n" + strings.TrimRight(usage, "\n")
}

func historyCmd() *cobra.Command {
	var limit int
	var withErrors bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent resolution sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.History(cmd.Context(), cli.HistoryOptions{
				DBPath: dbPath,
				Limit:  limit,
				Errors: withErrors,
				Out:    cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of sessions to show")
	cmd.Flags().BoolVar(&withErrors, "errors", false, "Show the failed commands of each session")

	return cmd
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported LLM providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ListProviders(cmd.OutOrStdout())
		},
	}
}
