package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/barline/internal/engine"
	"github.com/roach88/barline/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	LogOptions
}

// ReplayResult holds the replay result.
type ReplayResult struct {
	ScoreHash     string              `json:"score_hash"`
	Edits         int                 `json:"edits"`
	Applied       int                 `json:"applied"`
	Rejected      int                 `json:"rejected"`
	LastSeq       int64               `json:"last_seq"`
	Deterministic bool                `json:"deterministic"`
	Divergences   []engine.Divergence `json:"divergences"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay an edit log and verify determinism",
		Long: `Replay the edit log against a fresh score and check that every edit
reproduces its recorded result: applied edits must give the same bar hash,
rejected edits the same error code.

Exit codes:
  0 - Every edit replayed identically
  1 - One or more divergences
  2 - Command error (database not found, log belongs to another score, etc.)

Examples:
  barline replay --db score.db --score score.cue
  barline replay --db score.db --score score.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	addLogFlags(cmd, &opts.LogOptions)

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := commandContext(cmd)

	spec, err := loadScore(opts.Score)
	if err != nil {
		return f.Fail(ErrCodeLoadFailed, err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Fail(ErrCodeLoadFailed, WrapExitError(ExitCommandError, "failed to open database", err))
	}
	defer st.Close()

	report, err := engine.Replay(ctx, st, *spec, opts.engineOptions()...)
	if err != nil {
		code := ErrCodeGeneric
		if engine.IsScoreMismatch(err) {
			code = ErrCodeScoreMismatch
		}
		return f.Fail(code, engineError(err))
	}

	result := ReplayResult{
		ScoreHash:     report.ScoreHash,
		Edits:         report.Edits,
		Applied:       report.Applied,
		Rejected:      report.Rejected,
		LastSeq:       report.LastSeq,
		Deterministic: len(report.Divergences) == 0,
		Divergences:   report.Divergences,
	}
	if result.Divergences == nil {
		result.Divergences = []engine.Divergence{}
	}

	if f.JSON() {
		if !result.Deterministic {
			return f.Failure(ErrCodeDivergence, "determinism verification failed", result)
		}
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Replay Summary: %d edit(s), %d applied, %d rejected, last seq %d\n",
		result.Edits, result.Applied, result.Rejected, result.LastSeq)
	if opts.Verbose {
		fmt.Fprintf(w, "  Score: %s\n", result.ScoreHash)
	}
	fmt.Fprintln(w)

	if result.Deterministic {
		fmt.Fprintln(w, "✓ All edits replayed identically")
		return nil
	}
	for _, d := range result.Divergences {
		fmt.Fprintf(w, "✗ %s\n", d)
	}
	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
