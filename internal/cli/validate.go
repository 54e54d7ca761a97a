package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/barline/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <score>",
		Short: "Validate a score definition",
		Long: `Check a CUE score definition without opening a log.

Reports every problem found: CUE syntax and type errors, malformed
voices, time signatures the metre model rejects, custom segments that do
not add up, and misplaced pickups.`,
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
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(path); err != nil {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("score definition not found: %s", path), nil)
		return WrapExitError(ExitCommandError, "score definition not found", err)
	}

	var errs []compiler.ValidationError
	spec, err := compiler.CompileFile(path)
	if err != nil {
		errs = append(errs, compileErrorToValidation(err))
	} else {
		f.VerboseLog("compiled %d measure(s), %d voice(s)", len(spec.Measures), len(spec.Voices))
		errs = compiler.Validate(*spec)
	}

	if len(errs) > 0 {
		return outputValidationErrors(f, cmd, errs)
	}
	if f.JSON() {
		return f.Success(ValidationResult{Valid: true})
	}
	return f.Success("✓ Score is valid")
}

func compileErrorToValidation(err error) compiler.ValidationError {
	var cErr *compiler.CompileError
	if errors.As(err, &cErr) {
		line := 0
		if cErr.Pos.IsValid() {
			line = cErr.Pos.Line()
		}
		return compiler.ValidationError{
			Field:   cErr.Field,
			Message: cErr.Message,
			Code:    ErrCodeLoadFailed,
			Line:    line,
		}
	}
	return compiler.ValidationError{Field: "score", Message: err.Error(), Code: ErrCodeLoadFailed}
}

func outputValidationErrors(f *OutputFormatter, cmd *cobra.Command, errs []compiler.ValidationError) error {
	msg := fmt.Sprintf("%d validation error(s)", len(errs))
	if f.JSON() {
		return f.Failure(ErrCodeInvalid, msg, ValidationResult{Valid: false, Errors: errs})
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✗ %s\n", msg)
	for _, e := range errs {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
	return NewExitError(ExitFailure, msg)
}
