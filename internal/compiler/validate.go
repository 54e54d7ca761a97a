package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/barline/internal/frac"
	"github.com/roach88/barline/internal/ir"
	"github.com/roach88/barline/internal/score"
)

// Validation error codes (E100-E199)
const (
	ErrNoVoices        = "E101" // at least one voice required
	ErrNoMeasures      = "E102" // at least one measure required
	ErrDuplicateVoice  = "E103" // voice names must be unique
	ErrInvalidVoice    = "E104" // voice name empty or malformed
	ErrInvalidMetre    = "E105" // time signature or custom segments rejected by the metre model
	ErrSegmentMismatch = "E106" // custom segments do not add up to the time signature
	ErrPickupPlacement = "E107" // only the first measure may be a pickup
)

var voiceNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled score. Returns all errors found (does not fail-fast).
func Validate(spec ir.ScoreSpec) []ValidationError {
	var errs []ValidationError

	if len(spec.Voices) == 0 {
		errs = append(errs, ValidationError{
			Field:   "voices",
			Message: "at least one voice is required",
			Code:    ErrNoVoices,
		})
	}

	seen := make(map[string]bool)
	for i, v := range spec.Voices {
		field := fmt.Sprintf("voices[%d]", i)
		if !voiceNamePattern.MatchString(v.Name) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("invalid voice name %q: must start with a letter and use letters, digits, _ or -", v.Name),
				Code:    ErrInvalidVoice,
			})
		}
		if seen[v.Name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate voice name: %q", v.Name),
				Code:    ErrDuplicateVoice,
			})
		}
		seen[v.Name] = true
	}

	if len(spec.Measures) == 0 {
		errs = append(errs, ValidationError{
			Field:   "measures",
			Message: "at least one measure is required",
			Code:    ErrNoMeasures,
		})
	}

	for i, m := range spec.Measures {
		errs = append(errs, validateMeasure(i, m)...)
	}

	return errs
}

func validateMeasure(i int, m ir.MeasureSpec) []ValidationError {
	var errs []ValidationError
	field := fmt.Sprintf("measures[%d]", i)

	if m.Pickup && i != 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".pickup",
			Message: "only the first measure may be a pickup",
			Code:    ErrPickupPlacement,
		})
	}

	if len(m.Segments) > 0 && m.Num > 0 && m.Den > 0 {
		total := frac.Zero
		for _, s := range m.Segments {
			total = total.Add(s.Duration)
		}
		if want := frac.New(int64(m.Num), int64(m.Den)); !total.Equal(want) {
			errs = append(errs, ValidationError{
				Field:   field + ".segments",
				Message: fmt.Sprintf("segments add up to %s, time signature is %d/%d", total, m.Num, m.Den),
				Code:    ErrSegmentMismatch,
			})
		}
	}

	if _, err := score.MetreFor(m); err != nil {
		errs = append(errs, ValidationError{
			Field:   field + ".time",
			Message: strings.TrimSpace(err.Error()),
			Code:    ErrInvalidMetre,
		})
	}

	return errs
}

// Errors joins validation errors into one error, or returns nil.
func Errors(errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%d validation error(s):\n  %s", len(errs), strings.Join(msgs, "\n  "))
}
