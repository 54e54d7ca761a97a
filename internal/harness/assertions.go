package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/barline/internal/engine"
	"github.com/roach88/barline/internal/frac"
	"github.com/roach88/barline/internal/ir"
	"github.com/roach88/barline/internal/score"
	"github.com/roach88/barline/internal/store"
)

// AssertionContext gives assertions access to the finished run.
type AssertionContext struct {
	Ctx          context.Context
	Store        *store.Store
	Engine       *engine.Engine
	DefaultVoice string
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Target   string // "voice/measure", empty for log-wide assertions
	Expected string
	Actual   string
	Steps    []StepResult
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Target != "" {
		fmt.Fprintf(&buf, " (%s)", e.Target)
	}
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Steps) > 0 {
		fmt.Fprintf(&buf, "\nSteps:\n")
		for _, s := range e.Steps {
			fmt.Fprintf(&buf, "  [%d] %s/%d @%s %q -> %s\n", s.Seq, s.Voice, s.Measure, s.At, s.Put, describeStep(s))
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertRhythm, AssertWholeRest, AssertChildren, AssertBeams:
		voice := a.Voice
		if voice == "" {
			voice = actx.DefaultVoice
		}
		bar, err := actx.Engine.Bar(voice, a.Measure)
		if err != nil {
			return err
		}
		fail := func(expected, actual string) error {
			return &AssertionError{
				Type:     a.Type,
				Target:   fmt.Sprintf("%s/%d", voice, a.Measure),
				Expected: expected,
				Actual:   actual,
				Steps:    result.Steps,
			}
		}
		switch a.Type {
		case AssertRhythm:
			return assertRhythm(bar, a, fail)
		case AssertWholeRest:
			return assertWholeRest(bar, a, fail)
		case AssertChildren:
			return assertChildren(bar, a, fail)
		default:
			return assertBeams(bar, a, fail)
		}
	case AssertEditCount:
		return assertEditCount(result, a, actx)
	case AssertReplay:
		if len(result.Divergences) > 0 {
			return &AssertionError{
				Type:     a.Type,
				Expected: "replay reproduces every bar",
				Actual:   strings.Join(result.Divergences, "; "),
			}
		}
		return nil
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

type failFunc func(expected, actual string) error

func assertRhythm(bar engine.BarState, a Assertion, fail failFunc) error {
	want := normalizeRhythm(a.Rhythm)
	if got := formatRhythm(bar.Rhythm); got != want {
		return fail(want, got)
	}
	return nil
}

func assertWholeRest(bar engine.BarState, a Assertion, fail failFunc) error {
	want := a.Value == nil || *a.Value
	if got := len(bar.Rhythm) == 0; got != want {
		return fail(fmt.Sprintf("whole rest %t", want), formatRhythm(bar.Rhythm))
	}
	return nil
}

func assertChildren(bar engine.BarState, a Assertion, fail failFunc) error {
	if len(bar.Children) != len(a.Children) {
		return fail(fmt.Sprintf("%d children", len(a.Children)), fmt.Sprintf("%d children (%s)", len(bar.Children), formatRhythm(bar.Rhythm)))
	}
	for i, want := range a.Children {
		got := bar.Children[i]
		if want.Start != "" {
			start := frac.MustParse(want.Start)
			if !got.Start.Equal(start) {
				return fail(fmt.Sprintf("child %d at %s", i, start), fmt.Sprintf("child %d at %s", i, got.Start))
			}
		}
		if want.Lifetime != "" {
			lt, err := score.ParseLifetime(want.Lifetime)
			if err != nil {
				return err
			}
			if got.Lifetime != lt {
				return fail(fmt.Sprintf("child %d %s", i, lt), fmt.Sprintf("child %d %s", i, got.Lifetime))
			}
		}
		if want.Struck != nil && got.Struck != *want.Struck {
			return fail(fmt.Sprintf("child %d struck=%t", i, *want.Struck), fmt.Sprintf("child %d struck=%t", i, got.Struck))
		}
	}
	return nil
}

func assertBeams(bar engine.BarState, a Assertion, fail failFunc) error {
	if len(bar.Beams) != *a.Count {
		return fail(fmt.Sprintf("%d beam group(s)", *a.Count), fmt.Sprintf("%d beam group(s)", len(bar.Beams)))
	}
	return nil
}

func assertEditCount(result *Result, a Assertion, actx *AssertionContext) error {
	edits, err := actx.Store.ReadEdits(actx.Ctx)
	if err != nil {
		return err
	}
	applied, rejected := 0, 0
	for _, rec := range edits {
		if rec.Status == ir.EditApplied {
			applied++
		} else {
			rejected++
		}
	}
	if (a.Applied != nil && *a.Applied != applied) || (a.Rejected != nil && *a.Rejected != rejected) {
		return &AssertionError{
			Type:     a.Type,
			Expected: formatCounts(a.Applied, a.Rejected),
			Actual:   fmt.Sprintf("applied=%d rejected=%d", applied, rejected),
			Steps:    result.Steps,
		}
	}
	return nil
}

func formatCounts(applied, rejected *int) string {
	var parts []string
	if applied != nil {
		parts = append(parts, fmt.Sprintf("applied=%d", *applied))
	}
	if rejected != nil {
		parts = append(parts, fmt.Sprintf("rejected=%d", *rejected))
	}
	return strings.Join(parts, " ")
}
