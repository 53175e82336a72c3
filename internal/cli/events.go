package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:           "events",
		Short:         "List recent fallback events from a history database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(rootOpts, dbPath, limit, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the history database (required)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum events to list (0 for all)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runEvents(opts *RootOptions, dbPath string, limit int, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	store, err := openStore(formatter, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	events, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, fmt.Sprintf("read events: %v", err), nil)
		return &ExitError{Code: ExitCommandError, Message: "read events", Err: err}
	}

	return formatter.JSON(events, func(w io.Writer) {
		if len(events) == 0 {
			fmt.Fprintln(w, "no events")
			return
		}
		for _, e := range events {
			fmt.Fprintf(w, "%s  %-9s %-22s attempts=%d  %s\n",
				e.At.Format(time.RFC3339),
				e.Kind,
				e.Outcome,
				e.Attempts,
				e.Resource,
			)
		}
	})
}
