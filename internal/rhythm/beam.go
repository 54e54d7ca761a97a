package rhythm

import (
	"github.com/roach88/barline/internal/frac"
)

// BeamDegree is the number of beams entering (In) and leaving (Out) a note.
type BeamDegree struct {
	In  int
	Out int
}

// BeamDegrees returns per-note beam counts for notes placed back to back
// from start. Two neighbours are joined by min(flags) beams when both carry
// flags and both start in the same metre segment.
func (m Metre) BeamDegrees(start frac.Q, notes []Duration) []BeamDegree {
	out := make([]BeamDegree, len(notes))
	flags := make([]int, len(notes))
	segs := make([]int, len(notes))

	t := start
	for i, d := range notes {
		if base, ok := d.DisplayBase(); ok && !d.WholeRest() {
			flags[i] = base.Flags()
		}
		segs[i] = m.divisionIndex(t)
		t = t.Add(d.Duration())
	}

	for i := 1; i < len(notes); i++ {
		if flags[i-1] == 0 || flags[i] == 0 || segs[i-1] != segs[i] {
			continue
		}
		n := min(flags[i-1], flags[i])
		out[i-1].Out = n
		out[i].In = n
	}
	return out
}
