package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/barline/internal/frac"
	"github.com/roach88/barline/internal/ir"
)

// CompileScore parses a CUE value into a ScoreSpec.
//
// The value should be the score struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(src)
//	spec, err := CompileScore(v.LookupPath(cue.ParsePath("score")))
func CompileScore(v cue.Value) (*ir.ScoreSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if !v.Exists() {
		return nil, &CompileError{Field: "score", Message: "score is required"}
	}

	spec := &ir.ScoreSpec{}

	if titleVal := v.LookupPath(cue.ParsePath("title")); titleVal.Exists() {
		title, err := titleVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Title = title
	}

	voices, err := parseVoices(v)
	if err != nil {
		return nil, err
	}
	spec.Voices = voices

	measures, err := parseMeasures(v)
	if err != nil {
		return nil, err
	}
	spec.Measures = measures

	return spec, nil
}

// parseVoices accepts a list of names or a list of {name: ...} structs.
func parseVoices(v cue.Value) ([]ir.VoiceSpec, error) {
	voicesVal := v.LookupPath(cue.ParsePath("voices"))
	if !voicesVal.Exists() {
		return nil, &CompileError{Field: "voices", Message: "voices is required", Pos: v.Pos()}
	}

	iter, err := voicesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var voices []ir.VoiceSpec
	for iter.Next() {
		item := iter.Value()
		if name, err := item.String(); err == nil {
			voices = append(voices, ir.VoiceSpec{Name: name})
			continue
		}
		nameVal := item.LookupPath(cue.ParsePath("name"))
		if !nameVal.Exists() {
			return nil, &CompileError{
				Field:   "voices",
				Message: "voice must be a string or a struct with a name field",
				Pos:     item.Pos(),
			}
		}
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		voices = append(voices, ir.VoiceSpec{Name: name})
	}
	return voices, nil
}

func parseMeasures(v cue.Value) ([]ir.MeasureSpec, error) {
	measuresVal := v.LookupPath(cue.ParsePath("measures"))
	if !measuresVal.Exists() {
		return nil, &CompileError{Field: "measures", Message: "measures is required", Pos: v.Pos()}
	}

	iter, err := measuresVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var measures []ir.MeasureSpec
	for iter.Next() {
		m, count, err := parseMeasure(iter.Value())
		if err != nil {
			return nil, err
		}
		for i := 0; i < count; i++ {
			measures = append(measures, m)
		}
	}
	return measures, nil
}

// parseMeasure returns the measure and how many times it repeats.
func parseMeasure(v cue.Value) (ir.MeasureSpec, int, error) {
	var m ir.MeasureSpec

	timeVal := v.LookupPath(cue.ParsePath("time"))
	if !timeVal.Exists() {
		return m, 0, &CompileError{Field: "time", Message: "time is required", Pos: v.Pos()}
	}
	timeStr, err := timeVal.String()
	if err != nil {
		return m, 0, formatCUEError(err)
	}
	m.Num, m.Den, err = parseTimeSignature(timeStr)
	if err != nil {
		return m, 0, &CompileError{Field: "time", Message: err.Error(), Pos: timeVal.Pos()}
	}

	if pickupVal := v.LookupPath(cue.ParsePath("pickup")); pickupVal.Exists() {
		pickup, err := pickupVal.Bool()
		if err != nil {
			return m, 0, formatCUEError(err)
		}
		m.Pickup = pickup
	}

	count := 1
	if repeatVal := v.LookupPath(cue.ParsePath("repeat")); repeatVal.Exists() {
		n, err := intValue(repeatVal, "repeat")
		if err != nil {
			return m, 0, err
		}
		if n < 1 {
			return m, 0, &CompileError{Field: "repeat", Message: "repeat must be at least 1", Pos: repeatVal.Pos()}
		}
		count = n
	}

	if segsVal := v.LookupPath(cue.ParsePath("segments")); segsVal.Exists() {
		segs, err := parseSegments(segsVal)
		if err != nil {
			return m, 0, err
		}
		m.Segments = segs
	}

	return m, count, nil
}

func parseSegments(v cue.Value) ([]ir.SegmentSpec, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var segs []ir.SegmentSpec
	for iter.Next() {
		item := iter.Value()
		var seg ir.SegmentSpec

		durVal := item.LookupPath(cue.ParsePath("duration"))
		if !durVal.Exists() {
			return nil, &CompileError{Field: "segments.duration", Message: "duration is required", Pos: item.Pos()}
		}
		durStr, err := durVal.String()
		if err != nil {
			return nil, &CompileError{
				Field:   "segments.duration",
				Message: `duration must be an "n/d" string`,
				Pos:     durVal.Pos(),
			}
		}
		seg.Duration, err = frac.Parse(durStr)
		if err != nil {
			return nil, &CompileError{Field: "segments.duration", Message: err.Error(), Pos: durVal.Pos()}
		}

		subVal := item.LookupPath(cue.ParsePath("subdivisions"))
		if !subVal.Exists() {
			return nil, &CompileError{Field: "segments.subdivisions", Message: "subdivisions is required", Pos: item.Pos()}
		}
		seg.Subdivisions, err = intValue(subVal, "segments.subdivisions")
		if err != nil {
			return nil, err
		}

		seg.Role = "duple"
		if roleVal := item.LookupPath(cue.ParsePath("role")); roleVal.Exists() {
			seg.Role, err = roleVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
		}

		segs = append(segs, seg)
	}
	return segs, nil
}

// intValue reads an integer, rejecting float literals.
func intValue(v cue.Value, field string) (int, error) {
	switch v.IncompleteKind() {
	case cue.FloatKind, cue.NumberKind:
		return 0, &CompileError{
			Field:   field,
			Message: "float values are forbidden - use an integer",
			Pos:     v.Pos(),
		}
	}
	n, err := v.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

// parseTimeSignature reads "num/den". Range checks happen in Validate.
func parseTimeSignature(s string) (num, den int, err error) {
	n, d, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return 0, 0, fmt.Errorf("time signature %q must look like \"3/4\"", s)
	}
	num, err = strconv.Atoi(n)
	if err != nil {
		return 0, 0, fmt.Errorf("time signature %q: bad numerator", s)
	}
	den, err = strconv.Atoi(d)
	if err != nil {
		return 0, 0, fmt.Errorf("time signature %q: bad denominator", s)
	}
	return num, den, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
