package rhythm

import (
	"fmt"
	"strings"

	"github.com/roach88/barline/internal/frac"
)

// Role is the structural role of a metre segment within its bar.
type Role int

const (
	Duple Role = iota + 1
	Triple
	Quadruple
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case Duple:
		return "duple"
	case Triple:
		return "triple"
	case Quadruple:
		return "quadruple"
	default:
		return "unknown"
	}
}

// ParseRole parses a lowercase role name.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "duple":
		return Duple, nil
	case "triple":
		return Triple, nil
	case "quadruple":
		return Quadruple, nil
	}
	return 0, fmt.Errorf("unknown metre role %q", s)
}

// Subdivision is the way a segment divides into beats.
type Subdivision int

const (
	Simple Subdivision = iota + 1
	Compound
)

// String returns "simple" or "compound".
func (s Subdivision) String() string {
	if s == Compound {
		return "compound"
	}
	return "simple"
}

// MetreSegment is a metrically significant span of a bar starting on a stress.
type MetreSegment struct {
	Duration     frac.Q
	Subdivisions uint8
	Role         Role
}

// Subdivision is Simple when Subdivisions is even or 1, otherwise Compound.
func (s MetreSegment) Subdivision() Subdivision {
	if s.Subdivisions == 1 || s.Subdivisions%2 == 0 {
		return Simple
	}
	return Compound
}

// Beat returns the length of one subdivision of the segment.
func (s MetreSegment) Beat() frac.Q {
	n := int64(s.Subdivisions)
	if n < 1 {
		n = 1
	}
	return s.Duration.DivInt(n)
}

// Metre is the metric skeleton of a bar: an ordered list of segments whose
// durations sum to the bar length. Metre is immutable after construction.
type Metre struct {
	segments []MetreSegment
	starts   []frac.Q // starts[i] is the offset of segments[i]; len = len(segments)+1
	num, den int      // time signature, zero for custom metres
}

var supportedDenominators = map[int]bool{1: true, 2: true, 4: true, 8: true, 16: true, 32: true}

func seg(num, den int64, subdivisions uint8, role Role) MetreSegment {
	return MetreSegment{Duration: frac.New(num, den), Subdivisions: subdivisions, Role: role}
}

func repeat(n int, s MetreSegment) []MetreSegment {
	out := make([]MetreSegment, n)
	for i := range out {
		out[i] = s
	}
	return out
}

// NewMetre builds the metre for a time signature. Common signatures come
// from a fixed table; anything else with a supported denominator is grouped
// greedily into segments of 4, 3, 2 and 1 beats.
func NewMetre(num, den int) (Metre, error) {
	if !supportedDenominators[den] {
		return Metre{}, newInvalidMetreError(num, den, "denominator must be one of 1, 2, 4, 8, 16, 32")
	}
	if num <= 0 {
		return Metre{}, newInvalidMetreError(num, den, "numerator must be positive")
	}

	var segments []MetreSegment
	switch fmt.Sprintf("%d/%d", num, den) {
	case "4/4":
		segments = repeat(4, seg(1, 4, 1, Quadruple))
	case "2/2":
		segments = repeat(2, seg(1, 2, 1, Duple))
	case "4/8":
		segments = repeat(2, seg(1, 4, 2, Duple))
	case "2/4":
		segments = repeat(2, seg(1, 4, 1, Duple))
	case "6/16":
		segments = repeat(2, seg(3, 16, 3, Duple))
	case "6/8":
		segments = repeat(2, seg(3, 8, 3, Duple))
	case "6/4":
		segments = repeat(2, seg(3, 4, 3, Duple))
	case "12/8":
		segments = repeat(4, seg(3, 8, 3, Quadruple))
	case "3/4":
		segments = repeat(3, seg(1, 4, 1, Triple))
	case "3/8":
		segments = repeat(3, seg(1, 8, 1, Triple))
	case "9/8":
		segments = repeat(3, seg(3, 8, 3, Triple))
	default:
		segments = genericSegments(num, den)
	}

	m := newMetre(segments)
	m.num, m.den = num, den
	return m, nil
}

// genericSegments greedily groups num beats of 1/den into segments of
// 4, then 3, then 2, then 1 beats.
func genericSegments(num, den int) []MetreSegment {
	var units []int
	for left := num; left > 0; {
		for _, u := range []int{4, 3, 2, 1} {
			if left >= u {
				units = append(units, u)
				left -= u
				break
			}
		}
	}

	role := Duple
	switch len(units) {
	case 3:
		role = Triple
	case 4:
		role = Quadruple
	}

	segments := make([]MetreSegment, len(units))
	for i, u := range units {
		segments[i] = seg(int64(u), int64(den), uint8(u), role)
	}
	return segments
}

// NewMetreFromSegments builds a custom metre from explicit segments.
func NewMetreFromSegments(segments []MetreSegment) (Metre, error) {
	if len(segments) == 0 {
		return Metre{}, &RhythmError{Code: ErrCodeInvalidMetre, Message: "custom metre needs at least one segment"}
	}
	for i, s := range segments {
		if !s.Duration.Positive() {
			return Metre{}, &RhythmError{
				Code:    ErrCodeInvalidMetre,
				Message: fmt.Sprintf("segment %d: duration must be positive", i),
				Details: map[string]string{"segment": fmt.Sprintf("%d", i), "duration": s.Duration.String()},
			}
		}
		if s.Subdivisions < 1 {
			return Metre{}, &RhythmError{
				Code:    ErrCodeInvalidMetre,
				Message: fmt.Sprintf("segment %d: subdivisions must be at least 1", i),
				Details: map[string]string{"segment": fmt.Sprintf("%d", i)},
			}
		}
		if s.Role < Duple || s.Role > Quadruple {
			return Metre{}, &RhythmError{
				Code:    ErrCodeInvalidMetre,
				Message: fmt.Sprintf("segment %d: unknown role", i),
				Details: map[string]string{"segment": fmt.Sprintf("%d", i)},
			}
		}
	}
	return newMetre(segments), nil
}

// MustMetre is like NewMetre but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustMetre(num, den int) Metre {
	m, err := NewMetre(num, den)
	if err != nil {
		panic(err)
	}
	return m
}

func newMetre(segments []MetreSegment) Metre {
	segs := make([]MetreSegment, len(segments))
	copy(segs, segments)
	starts := make([]frac.Q, len(segs)+1)
	t := frac.Zero
	for i, s := range segs {
		starts[i] = t
		t = t.Add(s.Duration)
	}
	starts[len(segs)] = t
	return Metre{segments: segs, starts: starts}
}

// Duration returns the bar length.
func (m Metre) Duration() frac.Q {
	if len(m.starts) == 0 {
		return frac.Zero
	}
	return m.starts[len(m.starts)-1]
}

// Segments returns a copy of the segment list.
func (m Metre) Segments() []MetreSegment {
	out := make([]MetreSegment, len(m.segments))
	copy(out, m.segments)
	return out
}

// Signature returns the time signature the metre was built from, or 0, 0
// for a custom metre.
func (m Metre) Signature() (num, den int) { return m.num, m.den }

// String returns "num/den", or the segment list for custom metres.
func (m Metre) String() string {
	if m.den != 0 {
		return fmt.Sprintf("%d/%d", m.num, m.den)
	}
	parts := make([]string, len(m.segments))
	for i, s := range m.segments {
		parts[i] = fmt.Sprintf("%s:%d:%s", s.Duration, s.Subdivisions, s.Role)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// SegmentStart returns the offset of segment i. i == len(Segments()) is the bar end.
func (m Metre) SegmentStart(i int) frac.Q { return m.starts[i] }

// divisionIndex returns the index of the segment containing t, saturating
// to the last segment for t at or past the end.
func (m Metre) divisionIndex(t frac.Q) int {
	for i := range m.segments {
		if t.Less(m.starts[i+1]) {
			return i
		}
	}
	return len(m.segments) - 1
}

// Division returns the segment containing t and that segment's start.
// For t at or past the end it returns the last segment.
func (m Metre) Division(t frac.Q) (MetreSegment, frac.Q) {
	i := m.divisionIndex(t)
	return m.segments[i], m.starts[i]
}

// OnDivision returns the segment starting exactly at t, if any.
func (m Metre) OnDivision(t frac.Q) (MetreSegment, bool) {
	for i, s := range m.segments {
		if m.starts[i].Equal(t) {
			return s, true
		}
	}
	return MetreSegment{}, false
}

// Beats returns every beat boundary across all segments, ending with the
// boundary where the following bar starts.
func (m Metre) Beats() []frac.Q {
	var out []frac.Q
	for i, s := range m.segments {
		beat := s.Beat()
		t := m.starts[i]
		for b := 0; b < int(s.Subdivisions); b++ {
			out = append(out, t)
			t = t.Add(beat)
		}
	}
	return append(out, m.Duration())
}

// LCM returns the least common multiple of the denominators of every
// segment's beat length. It is the coarsest grid on which every beat falls.
func (m Metre) LCM() int64 {
	l := int64(1)
	for _, s := range m.segments {
		l = frac.LCM(l, s.Beat().Denom())
	}
	return l
}

// CrossesQuadrupleMidpoint reports whether the span [s, e) strictly
// contains the midpoint of a group of four Quadruple segments, i.e. the
// start of the third segment of such a group.
func (m Metre) CrossesQuadrupleMidpoint(s, e frac.Q) bool {
	run := 0
	for i, sg := range m.segments {
		if sg.Role != Quadruple {
			run = 0
			continue
		}
		if run%4 == 2 {
			mid := m.starts[i]
			if s.Less(mid) && mid.Less(e) {
				return true
			}
		}
		run++
	}
	return false
}
