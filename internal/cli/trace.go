package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/barline/internal/ir"
	"github.com/roach88/barline/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Voice    string
	Measure  int
}

// TraceEvent is one logged edit with the bar it produced.
type TraceEvent struct {
	Seq         int64    `json:"seq"`
	ID          string   `json:"id"`
	Voice       string   `json:"voice"`
	Measure     int      `json:"measure"`
	Start       string   `json:"start"`
	Replacement []string `json:"replacement"`
	Lifetime    string   `json:"lifetime"`
	Status      string   `json:"status"`
	Code        string   `json:"code,omitempty"`
	Rhythm      string   `json:"rhythm,omitempty"`
	BarHash     string   `json:"bar_hash,omitempty"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Edits     int `json:"edits"`
	Applied   int `json:"applied"`
	Rejected  int `json:"rejected"`
	Timelines int `json:"timelines"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the edit history of a log",
		Long: `List logged edits in seq order with the rhythm each applied edit left
behind. Restrict to one timeline with --voice and --measure.

Examples:
  barline trace --db score.db
  barline trace --db score.db --voice upper --measure 3
  barline trace --db score.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite edit log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Voice, "voice", "", "only edits of this voice (requires --measure to narrow further)")
	cmd.Flags().IntVar(&opts.Measure, "measure", -1, "only edits of this measure (with --voice)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := commandContext(cmd)

	if opts.Measure >= 0 && opts.Voice == "" {
		return f.Fail(ErrCodeInvalid, NewExitError(ExitCommandError, "--measure requires --voice"))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Fail(ErrCodeLoadFailed, WrapExitError(ExitCommandError, "failed to open database", err))
	}
	defer st.Close()

	var edits []ir.EditRecord
	if opts.Voice != "" && opts.Measure >= 0 {
		edits, err = st.ReadEditsFor(ctx, opts.Voice, opts.Measure)
	} else {
		edits, err = st.ReadEdits(ctx)
	}
	if err != nil {
		return f.Fail(ErrCodeGeneric, WrapExitError(ExitCommandError, "failed to read edits", err))
	}

	timelines, err := st.ListTimelines(ctx)
	if err != nil {
		return f.Fail(ErrCodeGeneric, WrapExitError(ExitCommandError, "failed to list timelines", err))
	}

	result := TraceResult{Timeline: []TraceEvent{}, Stats: TraceStats{Timelines: len(timelines)}}
	for _, rec := range edits {
		if opts.Voice != "" && rec.Edit.Voice != opts.Voice {
			continue
		}
		ev := TraceEvent{
			Seq:         rec.Seq,
			ID:          rec.ID,
			Voice:       rec.Edit.Voice,
			Measure:     rec.Edit.Measure,
			Start:       rec.Edit.Start.String(),
			Replacement: rec.Edit.Replacement,
			Lifetime:    rec.Edit.Lifetime,
			Status:      string(rec.Status),
			Code:        rec.ErrorCode,
		}
		if rec.Status == ir.EditApplied {
			snap, err := st.ReadSnapshot(ctx, rec.ID)
			if err != nil {
				return f.Fail(ErrCodeGeneric, WrapExitError(ExitCommandError, fmt.Sprintf("failed to read snapshot of seq %d", rec.Seq), err))
			}
			ev.Rhythm = rhythmText(snap.Rhythm)
			ev.BarHash = snap.BarHash
			result.Stats.Applied++
		} else {
			result.Stats.Rejected++
		}
		result.Timeline = append(result.Timeline, ev)
	}
	result.Stats.Edits = len(result.Timeline)

	if f.JSON() {
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No edits found.")
		return nil
	}
	fmt.Fprintf(w, "Trace: %d edit(s), %d applied, %d rejected, %d timeline(s) touched\n\n",
		result.Stats.Edits, result.Stats.Applied, result.Stats.Rejected, result.Stats.Timelines)
	for _, ev := range result.Timeline {
		fmt.Fprintf(w, "[%d] %s/%d @%s %s (%s)\n", ev.Seq, ev.Voice, ev.Measure, ev.Start, rhythmText(ev.Replacement), ev.Lifetime)
		if ev.Status == string(ir.EditApplied) {
			fmt.Fprintf(w, "    → | %s |\n", ev.Rhythm)
		} else {
			fmt.Fprintf(w, "    ✗ rejected [%s]\n", ev.Code)
		}
		if opts.Verbose {
			fmt.Fprintf(w, "    id %s\n", ev.ID)
			if ev.BarHash != "" {
				fmt.Fprintf(w, "    bar %s\n", ev.BarHash)
			}
		}
	}
	return nil
}
