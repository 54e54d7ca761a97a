package score

import (
	"container/heap"

	"github.com/roach88/barline/internal/frac"
	"github.com/roach88/barline/internal/rhythm"
)

// BeamPool hands out small integer beam ids, reusing the lowest released id
// first so that redraws are stable.
type BeamPool struct {
	free  intHeap
	next  int
	inUse map[int]bool
}

// NewBeamPool creates an empty pool. The first id is 1.
func NewBeamPool() *BeamPool {
	return &BeamPool{next: 1, inUse: make(map[int]bool)}
}

// Acquire returns the lowest free id.
func (p *BeamPool) Acquire() int {
	var id int
	if p.free.Len() > 0 {
		id = heap.Pop(&p.free).(int)
	} else {
		id = p.next
		p.next++
	}
	p.inUse[id] = true
	return id
}

// Release returns id to the pool. Ids not in use are ignored.
func (p *BeamPool) Release(id int) {
	if !p.inUse[id] {
		return
	}
	delete(p.inUse, id)
	heap.Push(&p.free, id)
}

// InUse returns the number of ids currently held.
func (p *BeamPool) InUse() int { return len(p.inUse) }

type intHeap []int

func (h intHeap) Len() int           { return len(h) }
func (h intHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// BeamGroup is a run of notes drawn under shared beams.
type BeamGroup struct {
	ID      int
	Start   frac.Q
	SlotIDs []string
	Degrees []rhythm.BeamDegree
}

// Beams recomputes the timeline's beam groups. Ids held from the previous
// call go back to pool first, so an unchanged timeline gets its old ids.
func (t *Timeline) Beams(pool *BeamPool) []BeamGroup {
	for _, id := range t.beams {
		pool.Release(id)
	}
	t.beams = t.beams[:0]

	m := t.bar.Metre()
	var groups []BeamGroup
	for _, run := range beamRuns(m, t.Children()) {
		durations := make([]rhythm.Duration, len(run))
		ids := make([]string, len(run))
		for i, c := range run {
			durations[i] = c.Duration
			ids[i] = c.SlotID
		}
		id := pool.Acquire()
		t.beams = append(t.beams, id)
		groups = append(groups, BeamGroup{
			ID:      id,
			Start:   run[0].Start,
			SlotIDs: ids,
			Degrees: m.BeamDegrees(run[0].Start, durations),
		})
	}
	return groups
}

func beamable(c Child) bool {
	if !c.Struck || c.Lifetime == Temporary || c.Lifetime.Filler() {
		return false
	}
	base, ok := c.Duration.DisplayBase()
	return ok && base.Flags() > 0
}

// beamRuns splits children into runs of consecutive beamable notes that
// start in the same metre segment. Runs of one note are dropped.
func beamRuns(m rhythm.Metre, children []Child) [][]Child {
	var runs [][]Child
	var cur []Child
	var curSeg frac.Q

	flush := func() {
		if len(cur) >= 2 {
			runs = append(runs, cur)
		}
		cur = nil
	}
	for _, c := range children {
		if !beamable(c) {
			flush()
			continue
		}
		_, seg := m.Division(c.Start)
		if len(cur) > 0 && !seg.Equal(curSeg) {
			flush()
		}
		cur = append(cur, c)
		curSeg = seg
	}
	flush()
	return runs
}
