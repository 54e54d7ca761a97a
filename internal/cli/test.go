package cli

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/barline/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Golden string
	Update bool
	Filter string
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden"` // "match", "mismatch", "missing", "updated"
	Errors []string `json:"errors,omitempty"`
}

// TestResult summarises a test run.
type TestResult struct {
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Scenarios []ScenarioResult `json:"scenarios"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run edit scenarios against golden snapshots",
		Long: `Run every *.yaml scenario in a directory on an in-memory log, evaluate
its assertions and compare the resulting snapshot with <name>.golden.

Golden files live in the "golden" directory next to the scenarios directory
unless --golden says otherwise. --update rewrites them from the current run.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (directory not found, unreadable scenario)

Examples:
  barline test testdata/scenarios
  barline test testdata/scenarios --filter waltz
  barline test testdata/scenarios --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Golden, "golden", "", "golden directory (default: <scenarios-dir>/../golden)")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose file name contains this string")

	return cmd
}

func runTest(opts *TestOptions, cmd *cobra.Command, dir string) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	info, err := os.Stat(dir)
	if err != nil {
		return f.Fail(ErrCodeNotFound, WrapExitError(ExitCommandError, "scenarios directory not found", err))
	}
	if !info.IsDir() {
		return f.Fail(ErrCodeNotFound, NewExitError(ExitCommandError, fmt.Sprintf("%s is not a directory", dir)))
	}

	golden := opts.Golden
	if golden == "" {
		golden = filepath.Join(filepath.Dir(filepath.Clean(dir)), "golden")
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return f.Fail(ErrCodeGeneric, WrapExitError(ExitCommandError, "failed to list scenarios", err))
	}
	sort.Strings(files)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.Verbose {
		logger = slog.Default()
	}

	result := TestResult{Scenarios: []ScenarioResult{}}
	for _, file := range files {
		if opts.Filter != "" && !strings.Contains(filepath.Base(file), opts.Filter) {
			continue
		}
		sr, err := runScenarioFile(file, golden, opts.Update, logger)
		if err != nil {
			return f.Fail(ErrCodeLoadFailed, WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", file), err))
		}
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}

	if f.JSON() {
		if result.Failed > 0 {
			return f.Failure(ErrCodeTestFailed, fmt.Sprintf("%d scenario(s) failed", result.Failed), result)
		}
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	if len(result.Scenarios) == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}
	for _, sr := range result.Scenarios {
		mark := "✓"
		if !sr.Pass {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s (golden: %s)\n", mark, sr.Name, sr.Golden)
		for _, e := range sr.Errors {
			for _, line := range strings.Split(e, "\n") {
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed\n", result.Passed, result.Failed)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// runScenarioFile returns an error only when the scenario cannot be loaded
// or executed. Failed assertions and golden mismatches are reported in the
// result.
func runScenarioFile(file, goldenDir string, update bool, logger *slog.Logger) (ScenarioResult, error) {
	sc, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{}, err
	}
	res, err := harness.RunWithLogger(sc, logger)
	if err != nil {
		return ScenarioResult{}, err
	}

	sr := ScenarioResult{Name: sc.Name, File: file, Pass: res.Pass, Errors: res.Errors}

	got, err := harness.MarshalSnapshot(sc.Name, res)
	if err != nil {
		return ScenarioResult{}, err
	}
	path := filepath.Join(goldenDir, sc.Name+".golden")

	if update {
		if err := os.MkdirAll(goldenDir, 0o755); err != nil {
			return ScenarioResult{}, err
		}
		if err := os.WriteFile(path, got, 0o644); err != nil {
			return ScenarioResult{}, err
		}
		sr.Golden = "updated"
		return sr, nil
	}

	want, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		sr.Golden = "missing"
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf("golden file %s not found (run with --update)", path))
	case err != nil:
		return ScenarioResult{}, err
	case bytes.Equal(bytes.TrimSpace(want), got):
		sr.Golden = "match"
	default:
		sr.Golden = "mismatch"
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf("snapshot differs from %s\nExpected: %s\nActual:   %s", path, bytes.TrimSpace(want), got))
	}
	return sr, nil
}
