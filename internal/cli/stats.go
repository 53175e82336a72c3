package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lodeworks/lode/internal/history"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate fallback statistics from a history database",
		Long: `Fold a persisted fallback event log into its aggregate statistics:
total events, fallback substitutions per kind, retries performed, and
how many failures still ended with a usable value.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, dbPath, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the history database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runStats(opts *RootOptions, dbPath string, cmd *cobra.Command) error {
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

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, fmt.Sprintf("aggregate events: %v", err), nil)
		return &ExitError{Code: ExitCommandError, Message: "aggregate events", Err: err}
	}

	return formatter.JSON(stats, func(w io.Writer) {
		writeStatsText(w, stats)
	})
}

func writeStatsText(w io.Writer, s history.Stats) {
	fmt.Fprintf(w, "total events:         %d\n", s.TotalEvents)
	fmt.Fprintf(w, "chunk fallbacks:      %d\n", s.ChunkFallbacks)
	fmt.Fprintf(w, "component fallbacks:  %d\n", s.ComponentFallbacks)
	fmt.Fprintf(w, "retry attempts:       %d\n", s.RetryAttempts)
	fmt.Fprintf(w, "successful fallbacks: %d\n", s.SuccessfulFallbacks)
}

// openStore opens the history database, translating failures into
// formatted command errors.
func openStore(formatter *OutputFormatter, dbPath string) (*history.Store, error) {
	store, err := history.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, fmt.Sprintf("open history database: %v", err), nil)
		return nil, &ExitError{Code: ExitCommandError, Message: "open history database", Err: err}
	}
	return store, nil
}
