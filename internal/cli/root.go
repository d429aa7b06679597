package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/zatekoja/cashflow-diagnosis/internal/app"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/observability"
	"github.com/zatekoja/cashflow-diagnosis/pkg/config"
	"github.com/zatekoja/cashflow-diagnosis/pkg/secrets"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"

	// Build wires the application for commands that need it.
	Build func(ctx context.Context) (*app.App, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the diagnose CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{Build: BuildApp})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Cash-flow diagnosis from the command line",
		Long:  "Runs the cash-flow self-diagnosis against an answers file and inspects the event log.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewQuestionnaireCommand(opts))
	cmd.AddCommand(NewEvaluateCommand(opts))

	return cmd
}

// BuildApp loads Vault secrets and configuration from the environment and
// wires the application.
func BuildApp(ctx context.Context) (*app.App, error) {
	logger := observability.GetLogger()

	res, err := secrets.NewVault(secrets.LoadVaultConfigFromEnv()).Apply(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("path", res.Path).Msg("failed to load secrets from Vault")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return app.New(ctx, cfg)
}
