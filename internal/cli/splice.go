package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/barline/internal/frac"
	"github.com/roach88/barline/internal/ir"
	"github.com/roach88/barline/internal/rhythm"
	"github.com/roach88/barline/internal/score"
)

// SpliceOptions holds flags for the splice command.
type SpliceOptions struct {
	*RootOptions
	Time        string
	Pickup      bool
	Base        string
	At          string
	Lifetime    string
	SearchQuota int
}

// ChildView is one child as the CLI prints it.
type ChildView struct {
	Start    string `json:"start"`
	Token    string `json:"token"`
	Lifetime string `json:"lifetime"`
	Slot     string `json:"slot"`
}

// BeamView is one beam group as the CLI prints it.
type BeamView struct {
	ID      int      `json:"id"`
	Start   string   `json:"start"`
	Slots   []string `json:"slots"`
	Degrees []string `json:"degrees"` // "in/out" per note
}

// BarView is a bar with its children and beams.
type BarView struct {
	Metre    string      `json:"metre"`
	Rhythm   string      `json:"rhythm"`
	Children []ChildView `json:"children"`
	Beams    []BeamView  `json:"beams"`
}

// NewSpliceCommand creates the splice command.
func NewSpliceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SpliceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "splice <token>...",
		Short: "Splice tokens into a scratch bar",
		Long: `Splice notes and rests into a single bar without a log and print
the re-spelled result.

Tokens: n4 (quarter note), r2. (dotted half rest), n8@3/2 (triplet eighth),
r[5/16] (rest with an exact display length). Values run from maxima,
longa and breve down to 256.

Examples:
  barline splice --time 4/4 --at 1/4 n4
  barline splice --time 6/8 --base "n4. n4." --at 1/8 "n8 n8"
  barline splice --time 3/4 --pickup --at 1/2 n4 --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplice(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Time, "time", "4/4", "time signature")
	cmd.Flags().BoolVar(&opts.Pickup, "pickup", false, "treat the bar as a pickup measure")
	cmd.Flags().StringVar(&opts.Base, "base", "", "tokens spliced at 0 before the edit")
	cmd.Flags().StringVar(&opts.At, "at", "0", "offset of the edit in whole notes")
	cmd.Flags().StringVar(&opts.Lifetime, "lifetime", "explicit", "lifetime of struck entries (explicit|temporary|automatic|hidden)")
	cmd.Flags().IntVar(&opts.SearchQuota, "search-quota", 0, "respelling search quota (0 = default)")

	return cmd
}

func runSplice(opts *SpliceOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	tl, err := opts.timeline()
	if err != nil {
		return f.Fail(ErrCodeInvalid, WrapExitError(ExitCommandError, "invalid bar", err))
	}
	start, err := frac.Parse(opts.At)
	if err != nil {
		return f.Fail(ErrCodeInvalid, WrapExitError(ExitCommandError, "invalid --at", err))
	}
	lifetime, err := score.ParseLifetime(opts.Lifetime)
	if err != nil {
		return f.Fail(ErrCodeInvalid, WrapExitError(ExitCommandError, "invalid --lifetime", err))
	}

	if opts.Base != "" {
		if err := spliceTokens(tl, frac.Zero, strings.Fields(opts.Base), score.Explicit); err != nil {
			return f.Fail(ErrCodeRejected, WrapExitError(ExitFailure, "base rejected", err))
		}
		f.VerboseLog("base: %s", tl)
	}
	if err := spliceTokens(tl, start, splitTokens(args), lifetime); err != nil {
		return f.Fail(ErrCodeRejected, WrapExitError(ExitFailure, "splice rejected", err))
	}

	view := barView(tl, score.NewBeamPool())
	if f.JSON() {
		return f.Success(view)
	}
	printBarView(cmd, view)
	return nil
}

func (o *SpliceOptions) timeline() (*score.Timeline, error) {
	num, den, ok := strings.Cut(o.Time, "/")
	if !ok {
		return nil, fmt.Errorf("time signature %q must look like \"3/4\"", o.Time)
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return nil, fmt.Errorf("time signature %q: %w", o.Time, err)
	}
	d, err := strconv.Atoi(den)
	if err != nil {
		return nil, fmt.Errorf("time signature %q: %w", o.Time, err)
	}
	m, err := score.MetreFor(ir.MeasureSpec{Num: n, Den: d, Pickup: o.Pickup})
	if err != nil {
		return nil, err
	}

	var barOpts []rhythm.BarOption
	if o.SearchQuota > 0 {
		barOpts = append(barOpts, rhythm.WithSearchQuota(o.SearchQuota))
	}
	alloc := score.NewIDAllocator(score.NewSequenceGenerator("slot-"))
	return score.NewTimeline(m, alloc, score.WithPickup(o.Pickup), score.WithBarOptions(barOpts...)), nil
}

func spliceTokens(tl *score.Timeline, start frac.Q, tokens []string, lifetime score.Lifetime) error {
	entries := make([]rhythm.Entry, len(tokens))
	for i, tok := range tokens {
		e, err := rhythm.ParseEntry(tok)
		if err != nil {
			return err
		}
		entries[i] = e
	}
	return tl.Splice(start, entries, lifetime)
}

func barView(tl *score.Timeline, pool *score.BeamPool) BarView {
	view := BarView{
		Metre:    tl.Metre().String(),
		Rhythm:   rhythmText(tl.Tokens()),
		Children: []ChildView{},
		Beams:    []BeamView{},
	}
	for _, c := range tl.Children() {
		view.Children = append(view.Children, childView(c))
	}
	for _, g := range tl.Beams(pool) {
		view.Beams = append(view.Beams, beamView(g))
	}
	return view
}

func childView(c score.Child) ChildView {
	return ChildView{
		Start:    c.Start.String(),
		Token:    rhythm.Entry{Duration: c.Duration, Struck: c.Struck}.String(),
		Lifetime: c.Lifetime.String(),
		Slot:     c.SlotID,
	}
}

func beamView(g score.BeamGroup) BeamView {
	bv := BeamView{ID: g.ID, Start: g.Start.String(), Slots: g.SlotIDs, Degrees: []string{}}
	for _, d := range g.Degrees {
		bv.Degrees = append(bv.Degrees, fmt.Sprintf("%d/%d", d.In, d.Out))
	}
	return bv
}

func printBarView(cmd *cobra.Command, view BarView) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s | %s |\n", view.Metre, view.Rhythm)
	for _, c := range view.Children {
		fmt.Fprintf(w, "  %-6s %-8s %-9s %s\n", c.Start, c.Token, c.Lifetime, c.Slot)
	}
	for _, b := range view.Beams {
		fmt.Fprintf(w, "  beam %d at %s: %s [%s]\n", b.ID, b.Start, strings.Join(b.Slots, " "), strings.Join(b.Degrees, " "))
	}
}
