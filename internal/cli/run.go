package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zatekoja/cashflow-diagnosis/internal/application/services"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	AnswersPath string
	Company     string
	Email       string
	OutDir      string
	NoReport    bool
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
}

// answersFile is the YAML document read by "diagnose run". Flags given on
// the command line win over the file's company and email.
type answersFile struct {
	Company string            `yaml:"company"`
	Email   string            `yaml:"email"`
	Answers map[string]string `yaml:"answers"`
}

type runResult struct {
	SessionID   string                   `json:"session_id"`
	Company     string                   `json:"company"`
	Email       string                   `json:"email"`
	TypeKey     string                   `json:"type_key"`
	TypeLabel   string                   `json:"type_label"`
	Signal      string                   `json:"signal"`
	Overall     float64                  `json:"overall"`
	RiskLevel   string                   `json:"risk_level"`
	Scores      []entities.CategoryScore `json:"scores"`
	Narrative   string                   `json:"narrative"`
	Generated   bool                     `json:"narrative_generated"`
	Persistence services.WriteResult     `json:"persistence"`
	ReportPath  string                   `json:"report_path,omitempty"`
	ReportError bool                     `json:"report_error,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Diagnose one set of answers and write the PDF report",
		Long: `Reads an answers file, runs scoring, classification and narrative
generation, appends the record to the configured store chain and writes the
PDF report into the output directory.

The answers file is YAML:

  company: Acme Trading
  email: owner@acme.example
  answers:
    q01: "Yes"
    q02: "Somewhat"`,
		Example: `  diagnose run --answers answers.yaml
  diagnose run --answers answers.yaml --company "Acme" --email owner@acme.example --out reports/`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnosis(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.AnswersPath, "answers", "a", "", "path to the answers YAML file (required)")
	cmd.Flags().StringVar(&opts.Company, "company", "", "company name (overrides the file)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "contact email (overrides the file)")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", ".", "directory the PDF report is written to")
	cmd.Flags().BoolVar(&opts.NoReport, "no-report", false, "do not write the PDF report")
	cmd.Flags().StringVar(&opts.UTMSource, "utm-source", "", "acquisition source tag")
	cmd.Flags().StringVar(&opts.UTMMedium, "utm-medium", "", "acquisition medium tag")
	cmd.Flags().StringVar(&opts.UTMCampaign, "utm-campaign", "", "acquisition campaign tag")
	_ = cmd.MarkFlagRequired("answers")

	return cmd
}

func readAnswers(path string) (*answersFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f answersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Answers) == 0 {
		return nil, fmt.Errorf("%s has no answers", path)
	}
	return &f, nil
}

func runDiagnosis(cmd *cobra.Command, opts *RunOptions) error {
	file, err := readAnswers(opts.AnswersPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read answers", err)
	}
	if opts.Company != "" {
		file.Company = opts.Company
	}
	if opts.Email != "" {
		file.Email = opts.Email
	}

	ctx := cmd.Context()
	application, err := opts.Build(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to initialize", err)
	}
	defer application.Close()

	out, err := application.Diagnosis.Submit(ctx, services.SubmissionInput{
		Company: file.Company,
		Email:   file.Email,
		Answers: file.Answers,
		Acquisition: entities.Acquisition{
			Source:   opts.UTMSource,
			Medium:   opts.UTMMedium,
			Campaign: opts.UTMCampaign,
		},
	})
	if err != nil {
		return WrapExitError(ExitFailure, "diagnosis failed", err)
	}

	sub := out.Submission
	result := runResult{
		SessionID:   sub.ID,
		Company:     sub.Company,
		Email:       sub.Email,
		TypeKey:     sub.Classification.TypeKey,
		TypeLabel:   sub.Classification.TypeLabel,
		Signal:      sub.Classification.Signal.Label(),
		Overall:     sub.Classification.Overall,
		RiskLevel:   string(sub.Classification.Risk),
		Scores:      sub.Scores,
		Narrative:   sub.NarrativeText(),
		Generated:   sub.Narrative.Generated(),
		Persistence: out.Write,
	}
	if !result.Generated {
		result.Narrative = sub.Classification.Description
	}

	if !opts.NoReport && out.Report == nil {
		result.ReportError = true
	}
	if !opts.NoReport && out.Report != nil {
		if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
			return WrapExitError(ExitFailure, "failed to create output directory", err)
		}
		path := filepath.Join(opts.OutDir, out.Report.Filename)
		if err := os.WriteFile(path, out.Report.Content, 0o644); err != nil {
			return WrapExitError(ExitFailure, "failed to write report", err)
		}
		result.ReportPath = path
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if err := formatter.Success(result, func(w io.Writer) { printRunResult(w, result) }); err != nil {
		return err
	}
	if result.ReportError {
		return WrapExitError(ExitFailure, "report could not be rendered, the diagnosis was saved without it", nil)
	}
	return nil
}

func printRunResult(w io.Writer, r runResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Session:\t%s\n", r.SessionID)
	fmt.Fprintf(tw, "Company:\t%s\n", r.Company)
	fmt.Fprintf(tw, "Type:\t%s (%s)\n", r.TypeLabel, r.Signal)
	fmt.Fprintf(tw, "Overall:\t%.1f %s\n", r.Overall, r.RiskLevel)
	for _, s := range r.Scores {
		fmt.Fprintf(tw, "  %s\t%.1f\n", s.Name, s.Score)
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	if r.Generated {
		fmt.Fprintln(w, "Comment:")
	} else {
		fmt.Fprintln(w, "Comment (standard text, AI comment unavailable):")
	}
	fmt.Fprintln(w, r.Narrative)
	fmt.Fprintln(w)

	switch {
	case r.Persistence.Skipped:
		fmt.Fprintln(w, "Saved:   already saved")
	case r.Persistence.Failed:
		fmt.Fprintln(w, "Saved:   no store accepted the record")
	case r.Persistence.UsedFallback:
		fmt.Fprintf(w, "Saved:   %s (fallback)\n", r.Persistence.Store)
	default:
		fmt.Fprintf(w, "Saved:   %s\n", r.Persistence.Store)
	}
	if r.ReportPath != "" {
		fmt.Fprintf(w, "Report:  %s\n", r.ReportPath)
	}
	if r.ReportError {
		fmt.Fprintln(w, "Report:  not rendered, see the event log")
	}
}
