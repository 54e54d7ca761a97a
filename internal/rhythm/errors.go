package rhythm

import (
	"errors"
	"fmt"
)

// RhythmError is the single error type surfaced by the rhythm core.
//
// Every error leaves the Bar it came from untouched: Splice computes the new
// rhythm on a private copy and only commits it once all passes succeed.
type RhythmError struct {
	// Code identifies the error category.
	Code RhythmErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context (offending values, positions).
	Details map[string]string
}

// RhythmErrorCode categorizes rhythm errors.
type RhythmErrorCode string

const (
	// ErrCodeInvalidMetre indicates an unsupported time signature.
	ErrCodeInvalidMetre RhythmErrorCode = "INVALID_METRE"

	// ErrCodeTooManyDots indicates a duration with more than MaxDots dots.
	ErrCodeTooManyDots RhythmErrorCode = "TOO_MANY_DOTS"

	// ErrCodeOverfilledBar indicates the simplify pass ran past the last
	// metre segment. This is an internal invariant violation, not user error.
	ErrCodeOverfilledBar RhythmErrorCode = "OVERFILLED_BAR"

	// ErrCodeNoSpellingFound indicates the respelling search finished
	// without a complete decomposition.
	ErrCodeNoSpellingFound RhythmErrorCode = "NO_SPELLING_FOUND"
)

// Error implements the error interface.
func (e *RhythmError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidMetre returns true if err is (or wraps) an INVALID_METRE error.
func IsInvalidMetre(err error) bool { return hasCode(err, ErrCodeInvalidMetre) }

// IsTooManyDots returns true if err is (or wraps) a TOO_MANY_DOTS error.
func IsTooManyDots(err error) bool { return hasCode(err, ErrCodeTooManyDots) }

// IsOverfilledBar returns true if err is (or wraps) an OVERFILLED_BAR error.
func IsOverfilledBar(err error) bool { return hasCode(err, ErrCodeOverfilledBar) }

// IsNoSpellingFound returns true if err is (or wraps) a NO_SPELLING_FOUND error.
func IsNoSpellingFound(err error) bool { return hasCode(err, ErrCodeNoSpellingFound) }

// CodeOf returns the RhythmErrorCode carried by err, or "" if err is not a RhythmError.
func CodeOf(err error) RhythmErrorCode {
	var re *RhythmError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func hasCode(err error, code RhythmErrorCode) bool {
	var re *RhythmError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

func newInvalidMetreError(num, den int, reason string) *RhythmError {
	return &RhythmError{
		Code:    ErrCodeInvalidMetre,
		Message: fmt.Sprintf("unsupported time signature %d/%d: %s", num, den, reason),
		Details: map[string]string{
			"numerator":   fmt.Sprintf("%d", num),
			"denominator": fmt.Sprintf("%d", den),
		},
	}
}

func newTooManyDotsError(dots int) *RhythmError {
	return &RhythmError{
		Code:    ErrCodeTooManyDots,
		Message: fmt.Sprintf("%d dots requested, at most %d allowed", dots, MaxDots),
		Details: map[string]string{"dots": fmt.Sprintf("%d", dots)},
	}
}
