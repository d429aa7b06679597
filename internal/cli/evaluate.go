package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zatekoja/cashflow-diagnosis/internal/app"
	"github.com/zatekoja/cashflow-diagnosis/internal/application/services"
	"github.com/zatekoja/cashflow-diagnosis/internal/evaluation"
	"github.com/zatekoja/cashflow-diagnosis/internal/questionnaire"
	"github.com/zatekoja/cashflow-diagnosis/pkg/config"
)

// EvaluateOptions holds flags for the evaluate command.
type EvaluateOptions struct {
	*RootOptions
	CasesPath         string
	MinTypeAccuracy   float64
	MinSignalAccuracy float64
	MinRiskAccuracy   float64
}

// NewEvaluateCommand creates the evaluate command. It runs labeled answer
// sets through scoring and classification with the configured thresholds,
// so questionnaire or threshold edits can be checked before release.
func NewEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvaluateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "evaluate",
		Short:         "Check classification against a labeled case set",
		Example:       "  diagnose evaluate --cases internal/evaluation/testdata/cases.yaml",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluation(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.CasesPath, "cases", "c", "", "path to the cases YAML file (required)")
	cmd.Flags().Float64Var(&opts.MinTypeAccuracy, "min-type-accuracy", 1.0, "minimum type accuracy")
	cmd.Flags().Float64Var(&opts.MinSignalAccuracy, "min-signal-accuracy", 1.0, "minimum signal accuracy")
	cmd.Flags().Float64Var(&opts.MinRiskAccuracy, "min-risk-accuracy", 1.0, "minimum risk accuracy")
	_ = cmd.MarkFlagRequired("cases")

	return cmd
}

func runEvaluation(cmd *cobra.Command, opts *EvaluateOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	q, err := questionnaire.Load(cfg.App.QuestionnairePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load questionnaire", err)
	}

	cases, err := evaluation.LoadCases(opts.CasesPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read cases", err)
	}
	if err := evaluation.ValidateCases(cases, q); err != nil {
		return WrapExitError(ExitCommandError, "invalid cases", err)
	}

	runner := evaluation.NewRunner(services.NewScorer(q), services.NewClassifier(q, app.Thresholds(cfg.Scoring)))
	summary := runner.Run(cmd.Context(), cases)

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if err := formatter.Success(summary, func(w io.Writer) { printSummary(w, summary) }); err != nil {
		return err
	}

	guard := evaluation.NewGuardrails(evaluation.GuardrailConfig{
		MinTypeAccuracy:   opts.MinTypeAccuracy,
		MinSignalAccuracy: opts.MinSignalAccuracy,
		MinRiskAccuracy:   opts.MinRiskAccuracy,
	})
	if err := guard.Check(summary); err != nil {
		return WrapExitError(ExitFailure, "evaluation below guardrails", err)
	}
	return nil
}

func printSummary(w io.Writer, s *evaluation.Summary) {
	fmt.Fprintf(w, "Cases:    %d (%d passed)\n", s.TotalCases, s.PassedCases)
	fmt.Fprintf(w, "Type:     %.3f\n", s.TypeAccuracy)
	fmt.Fprintf(w, "Signal:   %.3f\n", s.SignalAccuracy)
	fmt.Fprintf(w, "Risk:     %.3f\n", s.RiskAccuracy)

	keys := make([]string, 0, len(s.ByType))
	for k := range s.ByType {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tCASES\tRECALL\tPRECISION")
	for _, k := range keys {
		ts := s.ByType[k]
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\n", k, ts.Count, ts.Recall, s.Confusion.Precision(k))
	}
	_ = tw.Flush()

	if len(s.Failures) == 0 {
		return
	}
	fmt.Fprintln(w, "\nFailures:")
	for _, f := range s.Failures {
		fmt.Fprintf(w, "  %s: got %s / %s / %s (overall %.2f)\n", f.ID, f.GotType, f.GotSignal, f.GotRisk, f.Overall)
	}
}
