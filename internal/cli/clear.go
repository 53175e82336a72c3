package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all events from a history database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(rootOpts, dbPath, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the history database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runClear(opts *RootOptions, dbPath string, cmd *cobra.Command) error {
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

	if err := store.Clear(cmd.Context()); err != nil {
		_ = formatter.Error(ErrCodeDatabase, fmt.Sprintf("clear events: %v", err), nil)
		return &ExitError{Code: ExitCommandError, Message: "clear events", Err: err}
	}

	return formatter.JSON(map[string]bool{"cleared": true}, func(w io.Writer) {
		fmt.Fprintln(w, "cleared")
	})
}
