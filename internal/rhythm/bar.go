package rhythm

import (
	"strings"

	"github.com/roach88/barline/internal/frac"
)

// Entry is one slot of a bar's rhythm: a Duration and whether it is struck
// (a note or chord) or silent (a rest).
type Entry struct {
	Duration Duration
	Struck   bool
}

// Note returns a struck entry.
func Note(d Duration) Entry { return Entry{Duration: d, Struck: true} }

// Rest returns a silent entry.
func Rest(d Duration) Entry { return Entry{Duration: d} }

// Equal reports structural equality.
func (e Entry) Equal(o Entry) bool {
	return e.Struck == o.Struck && e.Duration.Equal(o.Duration)
}

// Compare is a total order over entries: rests before notes, then Duration.Compare.
func (e Entry) Compare(o Entry) int {
	if e.Struck != o.Struck {
		if e.Struck {
			return 1
		}
		return -1
	}
	return e.Duration.Compare(o.Duration)
}

// Child is the derived, read-only view of one rhythm entry with its
// absolute start time.
type Child struct {
	Duration Duration
	Struck   bool
	Start    frac.Q
	Index    int // position in Rhythm(); collaborators key slot identity on it
}

// Bar is the rhythm timeline of one voice in one bar.
//
// INVARIANTS (held after every successful Splice):
//   - an empty rhythm is the canonical whole-bar rest
//   - a non-empty rhythm sums exactly to the metre duration
//   - every rest is printable
//   - no two adjacent rests could be merged by the simplify rules
//
// Bar has no internal synchronization; callers serialize edits.
type Bar struct {
	metre  Metre
	rhythm []Entry
	quota  int
}

// BarOption configures a Bar.
type BarOption func(*Bar)

// WithSearchQuota bounds the number of states the respelling search may
// expand per rest run. Default: DefaultSearchQuota.
func WithSearchQuota(n int) BarOption {
	return func(b *Bar) {
		b.quota = n
	}
}

// NewBar creates an empty bar, which is an implicit whole rest.
func NewBar(metre Metre, opts ...BarOption) *Bar {
	b := &Bar{metre: metre, quota: DefaultSearchQuota}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Metre returns the bar's metre.
func (b *Bar) Metre() Metre { return b.metre }

// Rhythm returns a copy of the entry list.
func (b *Bar) Rhythm() []Entry {
	out := make([]Entry, len(b.rhythm))
	copy(out, b.rhythm)
	return out
}

// WholeRest reports whether the bar is the implicit whole-bar rest.
func (b *Bar) WholeRest() bool { return len(b.rhythm) == 0 }

// Clone returns an independent copy of the bar.
func (b *Bar) Clone() *Bar {
	return &Bar{metre: b.metre, rhythm: b.Rhythm(), quota: b.quota}
}

// Children returns one Child per entry with its absolute start.
func (b *Bar) Children() []Child {
	out := make([]Child, len(b.rhythm))
	t := frac.Zero
	for i, e := range b.rhythm {
		out[i] = Child{Duration: e.Duration, Struck: e.Struck, Start: t, Index: i}
		t = t.Add(e.Duration.Duration())
	}
	return out
}

// String renders the rhythm in text notation, "R" for a whole-bar rest.
func (b *Bar) String() string {
	if b.WholeRest() {
		return "R"
	}
	parts := make([]string, len(b.rhythm))
	for i, e := range b.rhythm {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

// Splice replaces the time range starting at start with replacement, then
// re-spells the surrounding rests. Edits starting at or past the bar end are
// ignored. On error the bar is left exactly as it was.
func (b *Bar) Splice(start frac.Q, replacement []Entry) error {
	end := b.metre.Duration()
	if !start.Less(end) || start.Sign() < 0 {
		return nil
	}

	entries := b.fill()
	entries = rewrite(entries, start, replacement, end)

	entries, err := simplify(b.metre, entries)
	if err != nil {
		return err
	}
	entries, err = optimize(b.metre, entries, b.quota)
	if err != nil {
		return err
	}
	// Respelled pieces may now merge with their neighbours.
	entries, err = simplify(b.metre, entries)
	if err != nil {
		return err
	}

	if !anyStruck(entries) {
		entries = nil
	}
	b.rhythm = entries
	return nil
}

// fill returns a private copy of the rhythm, materializing a whole-bar rest
// into one rest per metre segment.
func (b *Bar) fill() []Entry {
	if !b.WholeRest() {
		return b.Rhythm()
	}
	entries := make([]Entry, 0, len(b.metre.segments))
	for _, s := range b.metre.segments {
		entries = append(entries, Rest(Exact(s.Duration, frac.One)))
	}
	return entries
}

// rewrite replaces [start, start+len(replacement)) in entries. Entries before
// start are copied, the entry straddling start keeps its leading part, the
// replacement is clipped to the bar end, and the gap up to the next old
// boundary is padded with a rest. The total length is conserved.
func rewrite(entries []Entry, start frac.Q, replacement []Entry, end frac.Q) []Entry {
	out := make([]Entry, 0, len(entries)+len(replacement)+1)

	tRead := frac.Zero
	i := 0
	for ; i < len(entries); i++ {
		e := entries[i]
		next := tRead.Add(e.Duration.Duration())
		if next.LessEq(start) {
			out = append(out, e)
			tRead = next
			continue
		}
		if tRead.Less(start) {
			head := start.Sub(tRead)
			out = append(out, Entry{Duration: FromReal(head, e.Duration.Tuplet()), Struck: e.Struck})
		}
		break
	}

	tWrite := start
	for _, r := range replacement {
		d := r.Duration.Duration()
		if !d.Positive() {
			continue
		}
		if end.Less(tWrite.Add(d)) {
			clipped := end.Sub(tWrite)
			if clipped.Positive() {
				out = append(out, Entry{Duration: FromReal(clipped, r.Duration.Tuplet()), Struck: r.Struck})
			}
			tWrite = end
			break
		}
		out = append(out, r)
		tWrite = tWrite.Add(d)
	}

	// Skip old entries covered by the replacement; pad the partially covered one.
	for ; i < len(entries); i++ {
		e := entries[i]
		next := tRead.Add(e.Duration.Duration())
		if next.LessEq(tWrite) {
			tRead = next
			continue
		}
		if tRead.Less(tWrite) {
			tail := next.Sub(tWrite)
			out = append(out, Rest(FromReal(tail, e.Duration.Tuplet())))
			tRead = next
			i++
		}
		break
	}
	return append(out, entries[i:]...)
}

func anyStruck(entries []Entry) bool {
	for _, e := range entries {
		if e.Struck {
			return true
		}
	}
	return false
}
