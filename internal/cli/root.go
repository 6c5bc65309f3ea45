package cli

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"activation-gate/internal/application"
	"activation-gate/internal/config"
	"activation-gate/internal/infra/logging"
	"activation-gate/internal/usecase"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Dev        bool
	Format     string // "json" | "text"
	Admin      string

	// Open builds the use case. Tests swap it for an in-memory one.
	Open func(ctx context.Context, opts *RootOptions) (usecase.ActivationUseCase, func(), error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the admin CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{Open: openStack})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codectl",
		Short: "Administer activation codes",
		Long:  "Create, inspect and manage single-use activation codes directly against the configured store.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "config.yaml", "path to YAML config file")
	cmd.PersistentFlags().BoolVar(&opts.Dev, "dev", false, "developer mode (allows the memory driver)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Admin, "as", "cli", "admin name recorded in the audit log")

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewTransitionCommand(opts, "reset", "Return a code to available, unbinding its device"))
	cmd.AddCommand(NewTransitionCommand(opts, "disable", "Make a code unclaimable until reset"))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewLogsCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

func openStack(ctx context.Context, opts *RootOptions) (usecase.ActivationUseCase, func(), error) {
	cfg, err := config.LoadConfig(opts.ConfigPath, opts.Dev)
	if err != nil {
		return nil, nil, err
	}
	// Diagnostics go to stderr so stdout stays machine-readable.
	base := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel).With().Timestamp().Logger()
	stack, err := application.Open(ctx, cfg, &base)
	if err != nil {
		return nil, nil, err
	}
	return stack.UseCase(cfg, &base), stack.Close, nil
}

// run opens the use case, tags the context with the admin name and calls fn.
func run(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, uc usecase.ActivationUseCase, out *OutputFormatter) error) error {
	ctx := logging.WithAdmin(cmd.Context(), opts.Admin)
	uc, closeFn, err := opts.Open(ctx, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeFn()
	return fn(ctx, uc, &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()})
}
