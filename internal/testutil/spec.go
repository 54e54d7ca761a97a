package testutil

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/barline/internal/ir"
)

// DefaultVoice is the voice name used by single-voice specs.
const DefaultVoice = "v"

// Spec builds a score with the given voices and one measure per time
// signature ("4/4", "6/8", ...).
func Spec(voices []string, times ...string) (ir.ScoreSpec, error) {
	spec := ir.ScoreSpec{Title: "test"}
	for _, v := range voices {
		spec.Voices = append(spec.Voices, ir.VoiceSpec{Name: v})
	}
	for _, ts := range times {
		n, d, ok := strings.Cut(ts, "/")
		if !ok {
			return ir.ScoreSpec{}, fmt.Errorf("time signature %q must look like \"3/4\"", ts)
		}
		num, err := strconv.Atoi(n)
		if err != nil {
			return ir.ScoreSpec{}, fmt.Errorf("time signature %q: %w", ts, err)
		}
		den, err := strconv.Atoi(d)
		if err != nil {
			return ir.ScoreSpec{}, fmt.Errorf("time signature %q: %w", ts, err)
		}
		spec.Measures = append(spec.Measures, ir.MeasureSpec{Num: num, Den: den})
	}
	return spec, nil
}

// MustSpec is like Spec but panics on error.
func MustSpec(voices []string, times ...string) ir.ScoreSpec {
	spec, err := Spec(voices, times...)
	if err != nil {
		panic(err)
	}
	return spec
}

// SingleBar is a one-voice, one-measure score.
func SingleBar(time string, pickup bool) (ir.ScoreSpec, error) {
	spec, err := Spec([]string{DefaultVoice}, time)
	if err != nil {
		return ir.ScoreSpec{}, err
	}
	spec.Measures[0].Pickup = pickup
	return spec, nil
}
