package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/barline/internal/engine"
	"github.com/roach88/barline/internal/frac"
	"github.com/roach88/barline/internal/ir"
	"github.com/roach88/barline/internal/score"
	"github.com/roach88/barline/internal/store"
)

// Harness executes one scenario against a real engine.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	spec   ir.ScoreSpec
	quota  int
	logger *slog.Logger
}

// Run executes a scenario with logging discarded.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger executes a scenario and returns its result.
//
// Each run uses a fresh in-memory store and a sequence slot id generator,
// so results are reproducible. The returned error covers setup and store
// failures; failed expectations are reported in Result.Errors.
//
// Execution flow:
//  1. Build the score and open an engine on an empty log
//  2. Apply flow steps in order, checking expect clauses
//  3. Snapshot every bar
//  4. Replay the log and record divergences
//  5. Evaluate assertions
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	spec, err := scenario.ScoreSpec()
	if err != nil {
		return nil, fmt.Errorf("failed to build score: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		spec:   spec,
		quota:  scenario.SearchQuota,
		logger: logger.With("scenario", scenario.Name),
	}

	ctx := context.Background()
	eng, err := engine.New(ctx, st, spec, h.engineOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}
	h.engine = eng

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	if err := h.collectBars(result); err != nil {
		return nil, err
	}

	report, err := engine.Replay(ctx, st, spec, h.engineOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to replay: %w", err)
	}
	for _, d := range report.Divergences {
		result.Divergences = append(result.Divergences, d.String())
	}

	actx := &AssertionContext{
		Ctx:          ctx,
		Store:        st,
		Engine:       eng,
		DefaultVoice: h.defaultVoice(),
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished", "pass", result.Pass, "steps", len(result.Steps), "errors", len(result.Errors))
	return result, nil
}

// engineOptions returns fresh options; the id generator must not be shared
// between the live engine and the replay.
func (h *Harness) engineOptions() []engine.Option {
	opts := []engine.Option{engine.WithIDGenerator(score.NewSequenceGenerator("slot-"))}
	if h.quota > 0 {
		opts = append(opts, engine.WithSearchQuota(h.quota))
	}
	return opts
}

func (h *Harness) defaultVoice() string {
	if len(h.spec.Voices) == 0 {
		return ""
	}
	return h.spec.Voices[0].Name
}

// executeFlow applies every step. Rejected edits are results, not errors;
// only engine and store failures abort the flow.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		voice := step.Voice
		if voice == "" {
			voice = h.defaultVoice()
		}
		at := frac.Zero
		if step.At != "" {
			var err error
			if at, err = frac.Parse(step.At); err != nil {
				return fmt.Errorf("flow[%d]: at: %w", i, err)
			}
		}
		tokens := strings.Fields(step.Put)

		res, err := h.engine.Apply(ctx, ir.Edit{
			Voice:       voice,
			Measure:     step.Measure,
			Start:       at,
			Replacement: tokens,
			Lifetime:    step.Lifetime,
		})
		if err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}

		sr := StepResult{
			Seq:     res.Record.Seq,
			Voice:   voice,
			Measure: step.Measure,
			At:      at.String(),
			Put:     strings.Join(tokens, " "),
			Status:  string(res.Record.Status),
			Code:    res.Record.ErrorCode,
		}
		if res.Applied() {
			sr.Rhythm = formatRhythm(res.Snapshot.Rhythm)
		}
		result.AddStep(sr)

		h.logger.Debug("flow step",
			"index", i,
			"seq", sr.Seq,
			"status", sr.Status,
			"code", sr.Code,
			"rhythm", sr.Rhythm,
		)

		if step.Expect != nil {
			if msg := checkExpect(i, step.Expect, sr); msg != "" {
				result.AddError(msg)
			}
		}
	}
	return nil
}

func checkExpect(index int, expect *ExpectClause, sr StepResult) string {
	if expect.Rejected != "" {
		if sr.Status != string(ir.EditRejected) || sr.Code != expect.Rejected {
			return fmt.Sprintf("flow[%d]: expected rejection %s, got %s", index, expect.Rejected, describeStep(sr))
		}
		return ""
	}
	if sr.Status != string(ir.EditApplied) {
		return fmt.Sprintf("flow[%d]: expected rhythm %q, got %s", index, normalizeRhythm(expect.Rhythm), describeStep(sr))
	}
	if want := normalizeRhythm(expect.Rhythm); sr.Rhythm != want {
		return fmt.Sprintf("flow[%d]: expected rhythm %q, got %q", index, want, sr.Rhythm)
	}
	return ""
}

func describeStep(sr StepResult) string {
	if sr.Status == string(ir.EditRejected) {
		return "rejected " + sr.Code
	}
	return fmt.Sprintf("applied %q", sr.Rhythm)
}

func (h *Harness) collectBars(result *Result) error {
	bars, err := h.engine.Bars()
	if err != nil {
		return fmt.Errorf("failed to read bars: %w", err)
	}
	for _, b := range bars {
		result.Bars = append(result.Bars, BarResult{
			Voice:   b.Voice,
			Measure: b.Measure,
			Metre:   b.Metre,
			Rhythm:  formatRhythm(b.Rhythm),
			BarHash: b.BarHash,
			Beams:   len(b.Beams),
		})
	}
	return nil
}
