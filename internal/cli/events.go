package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Limit int
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "events",
		Short:         "Show the most recent operational events, newest first",
		Example:       "  diagnose events --limit 20 --format json",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listEvents(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 50, "number of events to show")

	return cmd
}

func listEvents(cmd *cobra.Command, opts *EventsOptions) error {
	if opts.Limit <= 0 {
		return WrapExitError(ExitCommandError, "invalid limit", fmt.Errorf("limit must be positive, got %d", opts.Limit))
	}

	ctx := cmd.Context()
	application, err := opts.Build(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to initialize", err)
	}
	defer application.Close()

	events, err := application.Events.Recent(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read events", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(events, func(w io.Writer) { printEvents(w, events) })
}

func printEvents(w io.Writer, events []*entities.EventLogEntry) {
	if len(events) == 0 {
		fmt.Fprintln(w, "no events")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tLEVEL\tMESSAGE\tPAYLOAD")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Timestamp, e.Level, e.Message, e.Payload)
	}
	_ = tw.Flush()
}
