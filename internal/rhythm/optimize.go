package rhythm

import (
	"container/heap"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/roach88/barline/internal/frac"
)

// Scores are integers in milli-points so that equal scores compare equal
// regardless of summation order. Higher is better; every term is a penalty.
const (
	costUnprintable   int64 = 10_000_000
	costSymbol        int64 = 1_000
	costHiddenPulse   int64 = 990
	costTupletChange  int64 = 500
	costAlignmentStep int64 = 1
)

// optimize re-spells every rest run containing a non-printable rest into
// printable rests. A run is a maximal sequence of rests together with the
// struck entries that follow it; struck entries pass through unchanged.
// Runs whose rests are all printable are already optimal and are copied.
func optimize(m Metre, entries []Entry, quota int) ([]Entry, error) {
	var grain frac.Q
	tuplets := tupletKinds(entries)

	out := make([]Entry, 0, len(entries))
	t := frac.Zero
	for i := 0; i < len(entries); {
		if entries[i].Struck {
			out = append(out, entries[i])
			t = t.Add(entries[i].Duration.Duration())
			i++
			continue
		}

		j := i
		for j < len(entries) && !entries[j].Struck {
			j++
		}
		for j < len(entries) && entries[j].Struck {
			j++
		}
		run := entries[i:j]

		if allRestsPrintable(run) {
			out = append(out, run...)
		} else {
			if grain.IsZero() {
				g, err := quantum(m, entries)
				if err != nil {
					return nil, err
				}
				grain = g
			}
			spelled, err := respell(m, grain, tuplets, t, run, quota)
			if err != nil {
				return nil, err
			}
			out = append(out, spelled...)
		}
		for _, e := range run {
			t = t.Add(e.Duration.Duration())
		}
		i = j
	}
	return out, nil
}

// maxGrainDenom bounds the search grain.
const maxGrainDenom = 1 << 32

// quantum returns the search grain: 1 / lcm(every entry denominator, metre LCM).
// A grain finer than 1/maxGrainDenom is reported as NO_SPELLING_FOUND.
func quantum(m Metre, entries []Entry) (frac.Q, error) {
	l := big.NewInt(m.LCM())
	g := new(big.Int)
	for _, e := range entries {
		d := e.Duration.Duration().DenomBig()
		g.GCD(nil, nil, l, d)
		l.Mul(l.Quo(l, g), d)
	}
	if l.Cmp(big.NewInt(maxGrainDenom)) > 0 {
		return frac.Zero, &RhythmError{
			Code:    ErrCodeNoSpellingFound,
			Message: "search grain is too fine",
			Details: map[string]string{"lcm": l.String()},
		}
	}
	return frac.New(1, l.Int64()), nil
}

// tupletKinds returns the sorted set of tuplet ratios in the bar, always
// including 1.
func tupletKinds(entries []Entry) []frac.Q {
	kinds := []frac.Q{frac.One}
	for _, e := range entries {
		t := e.Duration.Tuplet()
		found := false
		for _, k := range kinds {
			if k.Equal(t) {
				found = true
				break
			}
		}
		if !found {
			kinds = append(kinds, t)
		}
	}
	sort.Slice(kinds, func(a, b int) bool { return kinds[a].Less(kinds[b]) })
	return kinds
}

func allRestsPrintable(run []Entry) bool {
	for _, e := range run {
		if !e.Struck && !e.Duration.Printable() {
			return false
		}
	}
	return true
}

// searchState is a node of the best-first search.
type searchState struct {
	score     int64
	elapsed   frac.Q
	remaining []Entry
	emitted   []Entry
}

// stateKey identifies the future of a state. The cost of completing a state
// depends only on where it is and what is left, so the first time a key is
// popped it is popped with its best score.
func (s *searchState) key() string {
	var b strings.Builder
	b.WriteString(s.elapsed.String())
	for _, e := range s.remaining {
		b.WriteByte('|')
		b.WriteString(entryKey(e))
	}
	return b.String()
}

func entryKey(e Entry) string {
	kind := "r"
	if e.Struck {
		kind = "n"
	}
	return kind + e.Duration.DisplayDuration().String() + "@" + e.Duration.Tuplet().String()
}

// stateHeap orders states best first. Equal scores fall back to a fixed
// total order: further elapsed first, then emitted, then remaining.
type stateHeap []*searchState

func (h stateHeap) Len() int { return len(h) }

func (h stateHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.score != b.score {
		return a.score > b.score
	}
	if c := a.elapsed.Cmp(b.elapsed); c != 0 {
		return c > 0
	}
	if c := compareEntries(a.emitted, b.emitted); c != 0 {
		return c < 0
	}
	return compareEntries(a.remaining, b.remaining) < 0
}

func (h stateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *stateHeap) Push(x any) { *h = append(*h, x.(*searchState)) }

func (h *stateHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// compareEntries orders entry lists lexicographically, shorter prefix first.
func compareEntries(a, b []Entry) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// respell runs the best-first search over one run starting at offset start.
func respell(m Metre, grain frac.Q, tuplets []frac.Q, start frac.Q, run []Entry, quota int) ([]Entry, error) {
	q := newSearchQuota(quota)
	closed := make(map[string]struct{})

	h := &stateHeap{{elapsed: start, remaining: run}}
	for h.Len() > 0 {
		s := heap.Pop(h).(*searchState)
		if len(s.remaining) == 0 {
			if s.score <= -costUnprintable {
				// The best spelling still needs a rest no note value can show.
				return nil, &RhythmError{
					Code:    ErrCodeNoSpellingFound,
					Message: fmt.Sprintf("no printable spelling for rests at %s", start),
					Details: map[string]string{"at": start.String(), "grain": grain.String()},
				}
			}
			return s.emitted, nil
		}

		k := s.key()
		if _, seen := closed[k]; seen {
			continue
		}
		closed[k] = struct{}{}

		if err := q.Check(start); err != nil {
			return nil, err
		}
		successors, err := expand(m, grain, tuplets, s, q, start)
		if err != nil {
			return nil, err
		}
		for _, next := range successors {
			heap.Push(h, next)
		}
	}

	return nil, &RhythmError{
		Code:    ErrCodeNoSpellingFound,
		Message: fmt.Sprintf("no spelling found for rests at %s", start),
		Details: map[string]string{"at": start.String(), "grain": grain.String()},
	}
}

// expand returns the successors of s. A struck head passes through
// unchanged; a rest head of length L yields one successor per candidate
// length k*grain (k from L/grain down to 1) and per tuplet kind. Successors
// are charged to q before any is built.
func expand(m Metre, grain frac.Q, tuplets []frac.Q, s *searchState, q *searchQuota, at frac.Q) ([]*searchState, error) {
	head := s.remaining[0]
	tail := s.remaining[1:]
	length := head.Duration.Duration()

	if head.Struck {
		return []*searchState{{
			score:     s.score,
			elapsed:   s.elapsed.Add(length),
			remaining: tail,
			emitted:   appendEntry(s.emitted, head),
		}}, nil
	}

	units := length.Div(grain)
	if units.Cmp(frac.Int(math.MaxInt64)) > 0 {
		return nil, q.Reserve(at, math.MaxInt64)
	}
	n := units.Floor()
	if n > math.MaxInt64/int64(len(tuplets)) {
		return nil, q.Reserve(at, math.MaxInt64)
	}
	if err := q.Reserve(at, n*int64(len(tuplets))); err != nil {
		return nil, err
	}
	out := make([]*searchState, 0, n*int64(len(tuplets)))
	for k := n; k >= 1; k-- {
		piece := grain.MulInt(k)
		left := length.Sub(piece)

		var remaining []Entry
		if left.Positive() {
			remaining = make([]Entry, 0, len(tail)+1)
			remaining = append(remaining, Rest(FromReal(left, head.Duration.Tuplet())))
			remaining = append(remaining, tail...)
		} else {
			remaining = tail
		}

		for _, t := range tuplets {
			cand := FromReal(piece, t)
			out = append(out, &searchState{
				score:     s.score - candidateCost(m, grain, s.elapsed, cand, head.Duration.Tuplet()),
				elapsed:   s.elapsed.Add(piece),
				remaining: remaining,
				emitted:   appendEntry(s.emitted, Rest(cand)),
			})
		}
	}
	return out, nil
}

func appendEntry(list []Entry, e Entry) []Entry {
	out := make([]Entry, len(list), len(list)+1)
	copy(out, list)
	return append(out, e)
}

// candidateCost is the penalty for emitting rest cand at time at.
func candidateCost(m Metre, grain, at frac.Q, cand Duration, inputTuplet frac.Q) int64 {
	cost := costSymbol
	if !cand.Printable() {
		cost += costUnprintable
	}
	if !cand.Tuplet().Equal(inputTuplet) {
		cost += costTupletChange
	}
	if hidesPulse(m, at, cand.Duration()) {
		cost += costHiddenPulse
	}
	cost += int64(alignmentDepth(m, grain, at)) * costAlignmentStep
	return cost
}

// hidesPulse reports whether a rest of the given length starting at at,
// inside a compound division, covers the first beat and runs into a later
// beat without ending on a beat boundary, leaving that beat's remainder as
// a separate attack point.
func hidesPulse(m Metre, at, length frac.Q) bool {
	sg, segStart := m.Division(at)
	if sg.Subdivision() != Compound || !at.Equal(segStart) {
		return false
	}
	beat := sg.Beat()
	end := at.Add(length)
	segEnd := segStart.Add(sg.Duration)
	if !segStart.Add(beat).Less(end) || !end.Less(segEnd) {
		return false
	}
	return !end.Sub(segStart).Div(beat).IsInt()
}

// alignmentDepth measures how natural the boundary at is within its
// division. Level 0 is the division itself; the next level splits it into
// its beats; further levels halve while possible (duple preferred) and then
// split by the remaining prime factors down to one grain. The depth is the
// first level whose grid contains at.
func alignmentDepth(m Metre, grain, at frac.Q) int {
	sg, segStart := m.Division(at)
	units := sg.Duration.Div(grain)
	offset := at.Sub(segStart).Div(grain)
	if !units.IsInt() || !offset.IsInt() {
		return 0
	}
	n, off := units.Num(), offset.Num()

	levels := []int64{n}
	size := n
	if sub := int64(sg.Subdivisions); sub > 1 && size%sub == 0 {
		size /= sub
		levels = append(levels, size)
	}
	for size%2 == 0 {
		size /= 2
		levels = append(levels, size)
	}
	for p := int64(3); size > 1; {
		if p*p > size {
			// size is prime
			levels = append(levels, 1)
			break
		}
		if size%p == 0 {
			size /= p
			levels = append(levels, size)
			continue
		}
		p += 2
	}

	for depth, l := range levels {
		if off%l == 0 {
			return depth
		}
	}
	return len(levels)
}
