package score

import (
	"errors"
	"fmt"
)

// ScoreError reports a lookup or input problem in the collaborator layer.
// Rhythm failures pass through unchanged as *rhythm.RhythmError.
type ScoreError struct {
	Code    ScoreErrorCode
	Message string
}

// ScoreErrorCode categorizes score errors.
type ScoreErrorCode string

const (
	ErrCodeUnknownVoice       ScoreErrorCode = "UNKNOWN_VOICE"
	ErrCodeMeasureOutOfRange  ScoreErrorCode = "MEASURE_OUT_OF_RANGE"
	ErrCodeInvalidLifetime    ScoreErrorCode = "INVALID_LIFETIME"
	ErrCodeInvalidScoreSpec   ScoreErrorCode = "INVALID_SCORE_SPEC"
	ErrCodeInvalidReplacement ScoreErrorCode = "INVALID_REPLACEMENT"
)

func (e *ScoreError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the ScoreErrorCode carried by err, or "".
func CodeOf(err error) ScoreErrorCode {
	var se *ScoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsUnknownVoice returns true if err is (or wraps) an UNKNOWN_VOICE error.
func IsUnknownVoice(err error) bool { return CodeOf(err) == ErrCodeUnknownVoice }

// IsMeasureOutOfRange returns true if err is (or wraps) a MEASURE_OUT_OF_RANGE error.
func IsMeasureOutOfRange(err error) bool { return CodeOf(err) == ErrCodeMeasureOutOfRange }
