package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/barline/internal/frac"
	"github.com/roach88/barline/internal/ir"
)

func validSpec() ir.ScoreSpec {
	return ir.ScoreSpec{
		Title:    "t",
		Measures: []ir.MeasureSpec{{Num: 4, Den: 4}},
		Voices:   []ir.VoiceSpec{{Name: "upper"}},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ir.ScoreSpec)
		want   []string
	}{
		{
			name:   "valid",
			mutate: func(*ir.ScoreSpec) {},
			want:   []string{},
		},
		{
			name:   "no voices",
			mutate: func(s *ir.ScoreSpec) { s.Voices = nil },
			want:   []string{ErrNoVoices},
		},
		{
			name:   "no measures",
			mutate: func(s *ir.ScoreSpec) { s.Measures = nil },
			want:   []string{ErrNoMeasures},
		},
		{
			name: "duplicate voice",
			mutate: func(s *ir.ScoreSpec) {
				s.Voices = append(s.Voices, ir.VoiceSpec{Name: "upper"})
			},
			want: []string{ErrDuplicateVoice},
		},
		{
			name:   "bad voice name",
			mutate: func(s *ir.ScoreSpec) { s.Voices[0].Name = "9lives" },
			want:   []string{ErrInvalidVoice},
		},
		{
			name:   "bad denominator",
			mutate: func(s *ir.ScoreSpec) { s.Measures[0].Den = 3 },
			want:   []string{ErrInvalidMetre},
		},
		{
			name:   "zero numerator",
			mutate: func(s *ir.ScoreSpec) { s.Measures[0].Num = 0 },
			want:   []string{ErrInvalidMetre},
		},
		{
			name: "late pickup",
			mutate: func(s *ir.ScoreSpec) {
				s.Measures = append(s.Measures, ir.MeasureSpec{Num: 1, Den: 4, Pickup: true})
			},
			want: []string{ErrPickupPlacement},
		},
		{
			name: "segment sum",
			mutate: func(s *ir.ScoreSpec) {
				s.Measures[0].Segments = []ir.SegmentSpec{
					{Duration: frac.New(1, 2), Subdivisions: 2, Role: "duple"},
				}
			},
			want: []string{ErrSegmentMismatch},
		},
		{
			name: "segment role",
			mutate: func(s *ir.ScoreSpec) {
				s.Measures[0].Segments = []ir.SegmentSpec{
					{Duration: frac.New(1, 1), Subdivisions: 4, Role: "sextuple"},
				}
			},
			want: []string{ErrInvalidMetre},
		},
		{
			name: "collects every error",
			mutate: func(s *ir.ScoreSpec) {
				s.Voices = []ir.VoiceSpec{{Name: ""}, {Name: ""}}
				s.Measures[0].Den = 5
			},
			want: []string{ErrInvalidVoice, ErrInvalidVoice, ErrDuplicateVoice, ErrInvalidMetre},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(&spec)
			assert.Equal(t, tt.want, codes(Validate(spec)))
		})
	}
}

func TestErrors(t *testing.T) {
	assert.NoError(t, Errors(nil))

	err := Errors([]ValidationError{
		{Field: "voices", Message: "at least one voice is required", Code: ErrNoVoices},
		{Field: "measures[2].time", Message: "bad", Code: ErrInvalidMetre, Line: 7},
	})
	require.Error(t, err)
	assert.Equal(t,
		"2 validation error(s):\n  [E101] voices: at least one voice is required\n  [E105] line 7: measures[2].time: bad",
		err.Error())
}
