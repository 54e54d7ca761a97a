package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/barline/internal/frac"
	"github.com/roach88/barline/internal/rhythm"
)

func TestBeamPool_ReusesLowestFirst(t *testing.T) {
	p := NewBeamPool()
	assert.Equal(t, 1, p.Acquire())
	assert.Equal(t, 2, p.Acquire())
	assert.Equal(t, 3, p.Acquire())

	p.Release(3)
	p.Release(1)
	p.Release(1) // ignored
	p.Release(42)
	assert.Equal(t, 1, p.InUse())

	assert.Equal(t, 1, p.Acquire())
	assert.Equal(t, 3, p.Acquire())
	assert.Equal(t, 4, p.Acquire())
}

func TestTimeline_Beams(t *testing.T) {
	tl, _ := newTestTimeline(t, 4, 4)
	require.NoError(t, tl.Splice(frac.Zero, parse(t, "n8 n8 n16 n16"), Explicit))
	require.Equal(t, []string{"n8", "n8", "n16", "n16", "r2"}, tl.Tokens())

	pool := NewBeamPool()
	groups := tl.Beams(pool)
	require.Len(t, groups, 2)

	assert.Equal(t, 1, groups[0].ID)
	assert.Equal(t, "0", groups[0].Start.String())
	assert.Equal(t, []rhythm.BeamDegree{{In: 0, Out: 1}, {In: 1, Out: 0}}, groups[0].Degrees)

	assert.Equal(t, 2, groups[1].ID)
	assert.Equal(t, "1/4", groups[1].Start.String())
	assert.Equal(t, []rhythm.BeamDegree{{In: 0, Out: 2}, {In: 2, Out: 0}}, groups[1].Degrees)
	assert.Len(t, groups[1].SlotIDs, 2)

	// Recomputing an unchanged timeline keeps its ids.
	again := tl.Beams(pool)
	assert.Equal(t, []int{1, 2}, []int{again[0].ID, again[1].ID})
	assert.Equal(t, 2, pool.InUse())
}

func TestTimeline_BeamsSkipTemporaryAndRests(t *testing.T) {
	tl, _ := newTestTimeline(t, 2, 4)
	require.NoError(t, tl.Splice(frac.Zero, parse(t, "n8 n8"), Temporary))
	assert.Empty(t, tl.Beams(NewBeamPool()))

	tl, _ = newTestTimeline(t, 2, 4)
	require.NoError(t, tl.Splice(frac.Zero, parse(t, "n8 r8 n8"), Explicit))
	assert.Empty(t, tl.Beams(NewBeamPool()))
}

func TestSpacing(t *testing.T) {
	tl, _ := newTestTimeline(t, 4, 4)
	require.NoError(t, tl.Splice(frac.Zero, parse(t, "n4"), Explicit))

	widths := Spacing(tl.Children(), 10)
	assert.InDeltaSlice(t, []float64{10, 10, 20}, widths, 1e-9)
	assert.InDelta(t, 40, BarWidth(tl.Children(), 10), 1e-9)
	assert.InDeltaSlice(t, []float64{0, 10, 20}, Offsets(widths), 1e-9)
	assert.Nil(t, Spacing(nil, 10))
}

func TestBreakLines(t *testing.T) {
	assert.Equal(t, []int{2, 1, 1}, BreakLines([]float64{3, 3, 3, 5}, 7))
	assert.Equal(t, []int{1, 1}, BreakLines([]float64{10, 2}, 7))
	assert.Equal(t, []int{3}, BreakLines([]float64{2, 2, 2}, 6))
	assert.Nil(t, BreakLines(nil, 7))
}
