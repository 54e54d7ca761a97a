package rhythm

import (
	"fmt"

	"github.com/roach88/barline/internal/frac"
)

// simplify merges adjacent rests in one time-ordered pass.
//
// Rests are first cut at every division boundary they span. Each piece is
// then merged into the previous output rest when the merged duration is
// printable and either the previous rest lies wholly inside the current
// division, or the merge is a valid multi-division merge (see
// validMultiMerge). Struck entries are copied through and end any merge.
func simplify(m Metre, entries []Entry) ([]Entry, error) {
	out := make([]Entry, 0, len(entries))
	var lastStart frac.Q // start of out[len(out)-1]

	t := frac.Zero
	div := 0
	nDiv := len(m.segments)

	for _, e := range entries {
		d := e.Duration.Duration()
		if e.Struck {
			out = append(out, e)
			lastStart = t
			t = t.Add(d)
			continue
		}

		tuplet := e.Duration.Tuplet()
		for remaining := d; remaining.Positive(); {
			for div < nDiv && !t.Less(m.starts[div+1]) {
				div++
			}
			if div >= nDiv {
				return nil, &RhythmError{
					Code:    ErrCodeOverfilledBar,
					Message: fmt.Sprintf("rest at %s runs past the last metre segment", t),
					Details: map[string]string{"at": t.String(), "bar": m.Duration().String()},
				}
			}

			piece := remaining.Min(m.starts[div+1].Sub(t))
			pieceDur := FromReal(piece, tuplet)
			if piece.Equal(d) {
				pieceDur = e.Duration
			}

			if merged, ok := tryAmend(m, out, lastStart, t, pieceDur, m.starts[div]); ok {
				out[len(out)-1] = Rest(merged)
			} else {
				out = append(out, Rest(pieceDur))
				lastStart = t
			}

			t = t.Add(piece)
			remaining = remaining.Sub(piece)
		}
	}
	return out, nil
}

// tryAmend reports whether the rest piece starting at t can be merged into
// the last output entry, and returns the merged duration.
func tryAmend(m Metre, out []Entry, lastStart, t frac.Q, piece Duration, divStart frac.Q) (Duration, bool) {
	if len(out) == 0 {
		return Duration{}, false
	}
	prev := out[len(out)-1]
	if prev.Struck || prev.Duration.WholeRest() {
		return Duration{}, false
	}
	if !prev.Duration.Tuplet().Equal(piece.Tuplet()) {
		return Duration{}, false
	}

	merged := Exact(prev.Duration.DisplayDuration().Add(piece.DisplayDuration()), piece.Tuplet())
	if !merged.Printable() {
		return Duration{}, false
	}

	end := t.Add(piece.Duration())
	if !divStart.LessEq(lastStart) && !validMultiMerge(m, lastStart, end) {
		return Duration{}, false
	}
	return merged, true
}

// validMultiMerge reports whether a rest spanning [s, e) across divisions is
// allowed: it must start on a non-Triple division boundary, end on one (or
// at the bar end), and not hide the midpoint of a Quadruple bar.
func validMultiMerge(m Metre, s, e frac.Q) bool {
	first, ok := m.OnDivision(s)
	if !ok || first.Role == Triple {
		return false
	}
	if !e.Equal(m.Duration()) {
		last, ok := m.OnDivision(e)
		if !ok || last.Role == Triple {
			return false
		}
	}
	return !m.CrossesQuadrupleMidpoint(s, e)
}
