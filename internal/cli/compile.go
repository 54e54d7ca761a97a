package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/barline/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string
}

// CompileResult is what compile writes.
type CompileResult struct {
	ScoreHash string       `json:"score_hash"`
	Score     ir.ScoreSpec `json:"score"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <score>",
		Short: "Compile a CUE score definition",
		Long: `Compile a CUE score definition (a .cue file or a package directory)
and print the measures, voices and score hash the engine will use.

Examples:
  barline compile ./score.cue
  barline compile ./scores/waltz -o waltz.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled score as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	spec, err := loadScore(path)
	if err != nil {
		return f.Fail(ErrCodeLoadFailed, err)
	}
	hash, err := ir.ScoreHash(*spec)
	if err != nil {
		return f.Fail(ErrCodeGeneric, WrapExitError(ExitCommandError, "failed to hash score", err))
	}
	result := CompileResult{ScoreHash: hash, Score: *spec}

	if opts.Output != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return f.Fail(ErrCodeGeneric, WrapExitError(ExitCommandError, "failed to encode score", err))
		}
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0o644); err != nil {
			return f.Fail(ErrCodeWriteFailed, WrapExitError(ExitCommandError, "failed to write output", err))
		}
		f.VerboseLog("wrote %s", opts.Output)
	}

	if f.JSON() {
		return f.Success(result)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s\n", titleOr(spec.Title))
	fmt.Fprintf(w, "  voices:   %d\n", len(spec.Voices))
	fmt.Fprintf(w, "  measures: %d\n", len(spec.Measures))
	fmt.Fprintf(w, "  hash:     %s\n", hash)
	return nil
}

func titleOr(title string) string {
	if title == "" {
		return "(untitled)"
	}
	return title
}
