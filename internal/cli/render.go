package cli

import (
	"fmt"

	"github.com/fogleman/gg"
	"github.com/spf13/cobra"

	"github.com/roach88/barline/internal/engine"
	"github.com/roach88/barline/internal/rhythm"
	"github.com/roach88/barline/internal/score"
	"github.com/roach88/barline/internal/store"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	LogOptions
	Unit      float64
	LineWidth float64
	PNG       string
}

// ChildLayout is one bar child at its horizontal offset within the bar.
type ChildLayout struct {
	X      float64 `json:"x"`
	Width  float64 `json:"width"`
	Token  string  `json:"token"`
	Struck bool    `json:"struck"`
}

// VoiceLayout is one voice's content of a laid-out bar.
type VoiceLayout struct {
	Voice    string        `json:"voice"`
	Rhythm   string        `json:"rhythm"`
	Children []ChildLayout `json:"children"`
}

// BarLayout is one measure placed on a line.
type BarLayout struct {
	Measure int           `json:"measure"`
	Metre   string        `json:"metre"`
	X       float64       `json:"x"`
	Width   float64       `json:"width"`
	Voices  []VoiceLayout `json:"voices"`
}

// RenderResult is the laid-out score.
type RenderResult struct {
	Unit      float64       `json:"unit"`
	LineWidth float64       `json:"line_width"`
	Lines     [][]BarLayout `json:"lines"`
	PNG       string        `json:"png,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Lay out the current score and optionally draw it",
		Long: `Replay the edit log, space every bar proportionally to its durations and
break the measures into lines. With --png the layout is drawn as a raster
preview: noteheads for struck entries, boxes for rests, barlines between
measures.

Examples:
  barline render --db score.db --score score.cue
  barline render --db score.db --score score.cue --unit 24 --line-width 600 --png score.png`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, cmd)
		},
	}

	addLogFlags(cmd, &opts.LogOptions)
	cmd.Flags().Float64Var(&opts.Unit, "unit", 20, "width of the shortest duration in a bar")
	cmd.Flags().Float64Var(&opts.LineWidth, "line-width", 480, "maximum line width")
	cmd.Flags().StringVar(&opts.PNG, "png", "", "write a PNG preview to this path")

	return cmd
}

func runRender(opts *RenderOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := commandContext(cmd)

	if opts.Unit <= 0 || opts.LineWidth <= 0 {
		return f.Fail(ErrCodeInvalid, NewExitError(ExitCommandError, "--unit and --line-width must be positive"))
	}

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
	if err := report.Err(); err != nil {
		return f.Fail(ErrCodeDivergence, engineError(err))
	}

	result, err := layout(report.Score, opts.Unit, opts.LineWidth)
	if err != nil {
		return f.Fail(ErrCodeGeneric, WrapExitError(ExitCommandError, "failed to lay out score", err))
	}

	if opts.PNG != "" {
		if err := drawPNG(result, len(report.Score.Voices()), opts.PNG); err != nil {
			return f.Fail(ErrCodeWriteFailed, WrapExitError(ExitCommandError, "failed to write PNG", err))
		}
		result.PNG = opts.PNG
		f.VerboseLog("wrote %s", opts.PNG)
	}

	if f.JSON() {
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	for i, line := range result.Lines {
		fmt.Fprintf(w, "Line %d:\n", i+1)
		for _, bar := range line {
			fmt.Fprintf(w, "  [%d] %s x=%.1f w=%.1f\n", bar.Measure, bar.Metre, bar.X, bar.Width)
			for _, v := range bar.Voices {
				fmt.Fprintf(w, "    %s: | %s |\n", v.Voice, v.Rhythm)
			}
		}
	}
	if result.PNG != "" {
		fmt.Fprintf(w, "\n✓ Wrote %s\n", result.PNG)
	}
	return nil
}

// layout spaces every measure and breaks the score into lines.
func layout(sc *score.Score, unit, lineWidth float64) (RenderResult, error) {
	result := RenderResult{Unit: unit, LineWidth: lineWidth, Lines: [][]BarLayout{}}
	widths := sc.Widths(unit)

	measure := 0
	for _, count := range score.BreakLines(widths, lineWidth) {
		xs := score.Offsets(widths[measure : measure+count])
		line := make([]BarLayout, 0, count)
		for i := range count {
			bar := BarLayout{
				Measure: measure,
				Metre:   sc.Metre(measure).String(),
				X:       xs[i],
				Width:   widths[measure],
			}
			for _, voice := range sc.Voices() {
				tl, err := sc.Timeline(voice, measure)
				if err != nil {
					return RenderResult{}, err
				}
				bar.Voices = append(bar.Voices, voiceLayout(voice, tl, unit))
			}
			line = append(line, bar)
			measure++
		}
		result.Lines = append(result.Lines, line)
	}
	return result, nil
}

func voiceLayout(voice string, tl *score.Timeline, unit float64) VoiceLayout {
	children := tl.Children()
	spacing := score.Spacing(children, unit)
	xs := score.Offsets(spacing)
	out := VoiceLayout{Voice: voice, Rhythm: tl.String(), Children: make([]ChildLayout, len(children))}
	for i, c := range children {
		token := rhythm.Entry{Duration: c.Duration, Struck: c.Struck}.String()
		out.Children[i] = ChildLayout{X: xs[i], Width: spacing[i], Token: token, Struck: c.Struck}
	}
	return out
}

const (
	pngMargin    = 24.0
	pngStaffGap  = 48.0
	pngLineGap   = 32.0
	pngNoteSize  = 5.0
	pngRestWidth = 6.0
)

// drawPNG draws one horizontal staff line per voice for every line of the
// layout. Whole-bar rests are drawn centred in their bar.
func drawPNG(result RenderResult, voices int, path string) error {
	lineHeight := float64(voices)*pngStaffGap + pngLineGap
	width := int(result.LineWidth + 2*pngMargin)
	height := int(float64(len(result.Lines))*lineHeight + 2*pngMargin)

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetLineWidth(1)

	for li, line := range result.Lines {
		top := pngMargin + float64(li)*lineHeight
		lineEnd := pngMargin
		if n := len(line); n > 0 {
			lineEnd += line[n-1].X + line[n-1].Width
		}
		for vi := range voices {
			y := top + float64(vi)*pngStaffGap + pngStaffGap/2
			dc.SetRGB(0.6, 0.6, 0.6)
			dc.DrawLine(pngMargin, y, lineEnd, y)
			dc.Stroke()
		}
		for _, bar := range line {
			x0 := pngMargin + bar.X
			dc.SetRGB(0, 0, 0)
			dc.DrawLine(x0+bar.Width, top, x0+bar.Width, top+float64(voices)*pngStaffGap)
			dc.Stroke()
			for vi, v := range bar.Voices {
				y := top + float64(vi)*pngStaffGap + pngStaffGap/2
				for _, c := range v.Children {
					x := x0 + c.X + pngNoteSize + 1
					if c.Token == "R" {
						x = x0 + bar.Width/2
					}
					if c.Struck {
						dc.DrawCircle(x, y, pngNoteSize)
						dc.Fill()
						continue
					}
					dc.DrawRectangle(x-pngRestWidth/2, y-pngNoteSize, pngRestWidth, pngNoteSize)
					dc.Fill()
				}
			}
			dc.DrawString(fmt.Sprintf("%d", bar.Measure+1), x0+2, top+10)
		}
	}
	return dc.SavePNG(path)
}
