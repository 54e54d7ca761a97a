package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/barline/internal/rhythm"
	"github.com/roach88/barline/internal/score"
)

// RuntimeError reports an engine-level failure: the log and the score do not
// agree, or the engine can no longer accept work. Rejected edits are not
// runtime errors; they are recorded and reported through Result.
type RuntimeError struct {
	Code    RuntimeErrorCode
	Message string
	EditID  string
	Seq     int64
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeScoreMismatch: the log was recorded against another score definition.
	ErrCodeScoreMismatch RuntimeErrorCode = "SCORE_MISMATCH"

	// ErrCodeReplayDivergence: re-applying a logged edit gave a different bar.
	ErrCodeReplayDivergence RuntimeErrorCode = "REPLAY_DIVERGENCE"

	// ErrCodeOrphanedEdit: an applied edit has no snapshot.
	ErrCodeOrphanedEdit RuntimeErrorCode = "ORPHANED_EDIT"

	// ErrCodeStopped: the engine no longer accepts edits.
	ErrCodeStopped RuntimeErrorCode = "ENGINE_STOPPED"
)

func (e *RuntimeError) Error() string {
	if e.EditID != "" {
		return fmt.Sprintf("%s: %s (edit=%s, seq=%d)", e.Code, e.Message, short(e.EditID), e.Seq)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsDivergence returns true if err is (or wraps) a replay divergence.
func IsDivergence(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeReplayDivergence
}

// IsScoreMismatch returns true if err is (or wraps) a score mismatch.
func IsScoreMismatch(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeScoreMismatch
}

// IsStopped returns true if err is (or wraps) ErrCodeStopped.
func IsStopped(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeStopped
}

// RejectionCode returns the code recorded for an edit that failed with err:
// the rhythm or score error code, or "" when err is neither.
func RejectionCode(err error) string {
	if code := rhythm.CodeOf(err); code != "" {
		return string(code)
	}
	if code := score.CodeOf(err); code != "" {
		return string(code)
	}
	return ""
}

func short(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
