package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lodeworks/lode/internal/manifest"
)

// ValidationResult holds validation output for one manifest.
type ValidationResult struct {
	Valid  bool                        `json:"valid"`
	Errors []manifest.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest>",
		Short: "Validate a loader manifest",
		Long: `Validate a YAML loader manifest against the embedded schema.

Checks document shape, value constraints (retry bounds, threshold range)
and id uniqueness without touching any loader state.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("read manifest: %v", err), nil)
		return &ExitError{Code: ExitCommandError, Message: "read manifest", Err: err}
	}

	formatter.VerboseLog("Validating %s (%d bytes)", path, len(data))

	errs := manifest.Validate(data)
	if len(errs) > 0 {
		result := ValidationResult{Valid: false, Errors: errs}
		_ = formatter.JSON(result, func(w io.Writer) {
			fmt.Fprintf(w, "invalid: %d error(s)\n", len(errs))
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", e.Error())
			}
		})
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d validation error(s)", len(errs))}
	}

	return formatter.JSON(ValidationResult{Valid: true}, func(w io.Writer) {
		fmt.Fprintln(w, "valid")
	})
}
