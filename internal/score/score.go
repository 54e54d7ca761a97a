package score

import (
	"fmt"
	"slices"

	"github.com/roach88/barline/internal/frac"
	"github.com/roach88/barline/internal/ir"
	"github.com/roach88/barline/internal/rhythm"
)

// Score is a grid of timelines: one per voice per measure.
type Score struct {
	spec      ir.ScoreSpec
	metres    []rhythm.Metre
	voices    []string
	timelines map[string][]*Timeline
	alloc     Allocator
	beams     *BeamPool
}

// MetreFor builds the metre of one measure.
func MetreFor(m ir.MeasureSpec) (rhythm.Metre, error) {
	if len(m.Segments) == 0 {
		return rhythm.NewMetre(m.Num, m.Den)
	}
	segs := make([]rhythm.MetreSegment, len(m.Segments))
	for i, s := range m.Segments {
		role, err := rhythm.ParseRole(s.Role)
		if err != nil {
			return rhythm.Metre{}, fmt.Errorf("segment %d: %w", i, err)
		}
		if s.Subdivisions < 1 || s.Subdivisions > 255 {
			return rhythm.Metre{}, fmt.Errorf("segment %d: subdivisions %d out of range", i, s.Subdivisions)
		}
		segs[i] = rhythm.MetreSegment{
			Duration:     s.Duration,
			Subdivisions: uint8(s.Subdivisions),
			Role:         role,
		}
	}
	return rhythm.NewMetreFromSegments(segs)
}

// NewScore builds every timeline of spec. All timelines start as whole-bar
// rests. barOpts apply to every bar.
func NewScore(spec ir.ScoreSpec, alloc Allocator, barOpts ...rhythm.BarOption) (*Score, error) {
	if len(spec.Measures) == 0 {
		return nil, &ScoreError{Code: ErrCodeInvalidScoreSpec, Message: "score has no measures"}
	}
	if len(spec.Voices) == 0 {
		return nil, &ScoreError{Code: ErrCodeInvalidScoreSpec, Message: "score has no voices"}
	}

	s := &Score{
		spec:      spec,
		timelines: make(map[string][]*Timeline, len(spec.Voices)),
		alloc:     alloc,
		beams:     NewBeamPool(),
	}
	for i, m := range spec.Measures {
		metre, err := MetreFor(m)
		if err != nil {
			return nil, fmt.Errorf("measure %d: %w", i, err)
		}
		s.metres = append(s.metres, metre)
	}

	for _, v := range spec.Voices {
		if _, dup := s.timelines[v.Name]; dup {
			return nil, &ScoreError{
				Code:    ErrCodeInvalidScoreSpec,
				Message: fmt.Sprintf("duplicate voice %q", v.Name),
			}
		}
		row := make([]*Timeline, len(s.metres))
		for i, metre := range s.metres {
			row[i] = NewTimeline(metre, alloc,
				WithPickup(spec.Measures[i].Pickup),
				WithBarOptions(barOpts...))
		}
		s.voices = append(s.voices, v.Name)
		s.timelines[v.Name] = row
	}
	return s, nil
}

// Spec returns the definition the score was built from.
func (s *Score) Spec() ir.ScoreSpec { return s.spec }

// Voices returns voice names in declaration order.
func (s *Score) Voices() []string { return slices.Clone(s.voices) }

// Measures returns the number of measures.
func (s *Score) Measures() int { return len(s.metres) }

// Metre returns the metre of measure i.
func (s *Score) Metre(i int) rhythm.Metre { return s.metres[i] }

// BeamPool returns the pool shared by every timeline of the score.
func (s *Score) BeamPool() *BeamPool { return s.beams }

// Timeline returns the timeline for voice in measure.
func (s *Score) Timeline(voice string, measure int) (*Timeline, error) {
	row, ok := s.timelines[voice]
	if !ok {
		return nil, &ScoreError{Code: ErrCodeUnknownVoice, Message: fmt.Sprintf("unknown voice %q", voice)}
	}
	if measure < 0 || measure >= len(row) {
		return nil, &ScoreError{
			Code:    ErrCodeMeasureOutOfRange,
			Message: fmt.Sprintf("measure %d out of range [0, %d)", measure, len(row)),
		}
	}
	return row[measure], nil
}

// Splice parses tokens and applies them to one timeline.
func (s *Score) Splice(voice string, measure int, start frac.Q, tokens []string, lifetime Lifetime) (*Timeline, error) {
	p, err := s.Prepare(voice, measure, start, tokens, lifetime)
	if err != nil {
		return nil, err
	}
	p.Commit()
	return p.Timeline(), nil
}

// Prepare parses tokens and computes the splice for one timeline without
// applying it.
func (s *Score) Prepare(voice string, measure int, start frac.Q, tokens []string, lifetime Lifetime) (*Pending, error) {
	tl, err := s.Timeline(voice, measure)
	if err != nil {
		return nil, err
	}
	entries := make([]rhythm.Entry, len(tokens))
	for i, tok := range tokens {
		e, err := rhythm.ParseEntry(tok)
		if err != nil {
			if rhythm.CodeOf(err) != "" {
				return nil, err
			}
			return nil, &ScoreError{Code: ErrCodeInvalidReplacement, Message: err.Error()}
		}
		entries[i] = e
	}
	return tl.Prepare(start, entries, lifetime)
}

// Widths returns the spaced width of every measure, taking the widest
// voice for each.
func (s *Score) Widths(unit float64) []float64 {
	out := make([]float64, len(s.metres))
	for _, v := range s.voices {
		for i, tl := range s.timelines[v] {
			out[i] = max(out[i], BarWidth(tl.Children(), unit))
		}
	}
	return out
}
