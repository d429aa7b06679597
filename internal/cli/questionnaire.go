package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	"github.com/zatekoja/cashflow-diagnosis/internal/questionnaire"
)

// QuestionnaireOptions holds flags for the questionnaire command.
type QuestionnaireOptions struct {
	*RootOptions
	Path string
}

// NewQuestionnaireCommand creates the questionnaire command. It prints the
// questions with their choices, which is what an answers file must match.
func NewQuestionnaireCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QuestionnaireOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "questionnaire",
		Short:         "Print the questionnaire and its accepted choices",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := questionnaire.Load(opts.Path)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load questionnaire", err)
			}
			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Success(q, func(w io.Writer) { printQuestionnaire(w, q) })
		},
	}

	cmd.Flags().StringVar(&opts.Path, "file", "", "questionnaire YAML file (default: built-in)")

	return cmd
}

func printQuestionnaire(w io.Writer, q *entities.Questionnaire) {
	fmt.Fprintf(w, "%s (%s)\n", q.Title, q.Version)
	for _, c := range q.Categories {
		fmt.Fprintf(w, "\n%s\n", c.Name)
		for _, qu := range q.Questions {
			if qu.Category != c.Key {
				continue
			}
			fmt.Fprintf(w, "  %s  %s\n", qu.ID, qu.Text)
			if f, ok := q.Family(qu.Family); ok {
				labels := make([]string, len(f.Choices))
				for i, ch := range f.Choices {
					labels[i] = ch.Label
				}
				fmt.Fprintf(w, "        [%s]\n", strings.Join(labels, " / "))
			}
		}
	}
}
