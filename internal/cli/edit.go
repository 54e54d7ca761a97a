package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/barline/internal/engine"
	"github.com/roach88/barline/internal/score"
)

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	LogOptions
	EditFlags
}

// EditResult is what edit prints.
type EditResult struct {
	ID      string   `json:"id"`
	Seq     int64    `json:"seq"`
	Voice   string   `json:"voice"`
	Measure int      `json:"measure"`
	Status  string   `json:"status"`
	Code    string   `json:"code,omitempty"`
	Cause   string   `json:"cause,omitempty"`
	Rhythm  string   `json:"rhythm,omitempty"`
	BarHash string   `json:"bar_hash,omitempty"`
	Bar     *BarView `json:"bar,omitempty"`
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <token>...",
		Short: "Apply one edit to a logged score",
		Long: `Apply one edit to a score and record it in the edit log.

The log is replayed first, so the edit lands on the current state of the
bar. Rejected edits are recorded too, with their error code, and exit 1.

Examples:
  barline edit --db score.db --score score.cue --at 1/4 n4
  barline edit --db score.db --score score.cue --voice bass --measure 2 "n8 n8"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(opts, args, cmd)
		},
	}

	addLogFlags(cmd, &opts.LogOptions)
	cmd.Flags().StringVar(&opts.Voice, "voice", "", "voice to edit (default: first voice)")
	cmd.Flags().IntVar(&opts.Measure, "measure", 0, "measure index, from 0")
	cmd.Flags().StringVar(&opts.At, "at", "0", "offset of the edit in whole notes")
	cmd.Flags().StringVar(&opts.Lifetime, "lifetime", "explicit", "lifetime of struck entries")

	return cmd
}

func addLogFlags(cmd *cobra.Command, opts *LogOptions) {
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite edit log (required)")
	cmd.Flags().StringVar(&opts.Score, "score", "", "CUE score definition (required)")
	cmd.Flags().IntVar(&opts.SearchQuota, "search-quota", 0, "respelling search quota (0 = default)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("score")
}

func runEdit(opts *EditOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := commandContext(cmd)

	eng, st, err := opts.openEngine(ctx)
	if err != nil {
		return f.Fail(ErrCodeLoadFailed, err)
	}
	defer st.Close()

	var voice string
	eng.View(func(sc *score.Score) { voice = firstVoice(sc.Spec()) })
	edit, err := opts.edit(voice, args)
	if err != nil {
		return f.Fail(ErrCodeInvalid, WrapExitError(ExitCommandError, "invalid edit", err))
	}

	res, err := eng.Apply(ctx, edit)
	if err != nil {
		return f.Fail(ErrCodeGeneric, WrapExitError(ExitCommandError, "failed to record edit", err))
	}
	f.VerboseLog("edit %s at seq %d", res.Record.ID, res.Record.Seq)

	out := editResult(res)
	if res.Applied() {
		if bar, err := eng.Bar(edit.Voice, edit.Measure); err == nil {
			view := barStateView(bar)
			out.Bar = &view
		}
	}

	if !res.Applied() {
		msg := fmt.Sprintf("edit rejected: %s", out.Code)
		if f.JSON() {
			return f.Failure(ErrCodeRejected, msg, out)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✗ seq %d %s/%d rejected [%s]: %s\n", out.Seq, out.Voice, out.Measure, out.Code, out.Cause)
		return NewExitError(ExitFailure, msg)
	}

	if f.JSON() {
		return f.Success(out)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ seq %d %s/%d\n", out.Seq, out.Voice, out.Measure)
	if out.Bar != nil {
		printBarView(cmd, *out.Bar)
	}
	return nil
}

func editResult(res engine.Result) EditResult {
	out := EditResult{
		ID:      res.Record.ID,
		Seq:     res.Record.Seq,
		Voice:   res.Record.Edit.Voice,
		Measure: res.Record.Edit.Measure,
		Status:  string(res.Record.Status),
		Code:    res.Record.ErrorCode,
	}
	if res.Cause != nil {
		out.Cause = res.Cause.Error()
	}
	if res.Snapshot != nil {
		out.Rhythm = rhythmText(res.Snapshot.Rhythm)
		out.BarHash = res.Snapshot.BarHash
	}
	return out
}

func barStateView(bar engine.BarState) BarView {
	view := BarView{
		Metre:    bar.Metre,
		Rhythm:   rhythmText(bar.Rhythm),
		Children: []ChildView{},
		Beams:    []BeamView{},
	}
	for _, c := range bar.Children {
		view.Children = append(view.Children, childView(c))
	}
	for _, g := range bar.Beams {
		view.Beams = append(view.Beams, beamView(g))
	}
	return view
}
