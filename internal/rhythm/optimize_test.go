package rhythm

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/barline/internal/frac"
)

func TestQuantum(t *testing.T) {
	tests := []struct {
		metre  Metre
		tokens string
		want   string
	}{
		{MustMetre(4, 4), "n4 r4 r2", "1/4"},
		{MustMetre(4, 4), "n4@3/2 r[1/12] r4 r2", "1/12"},
		{MustMetre(6, 8), "", "1/8"},
	}
	for _, tt := range tests {
		t.Run(tt.tokens, func(t *testing.T) {
			g, err := quantum(tt.metre, entries(t, tt.tokens))
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.String())
		})
	}
}

func TestQuantum_TooFine(t *testing.T) {
	tests := []string{
		"n[1/3037000499] r[3037000495/12148001996] r4 r2",
		"n4@99999999999999999999 r4 r2",
	}
	for _, tokens := range tests {
		t.Run(tokens, func(t *testing.T) {
			_, err := quantum(MustMetre(4, 4), entries(t, tokens))
			require.Error(t, err)
			assert.True(t, IsNoSpellingFound(err))
		})
	}
}

func TestTupletKinds_SortedAndIncludesOne(t *testing.T) {
	kinds := tupletKinds(entries(t, "n8@3/2 n8@5/4 n8@3/2"))
	assert.Equal(t, []string{"1", "5/4", "3/2"}, fracs(kinds))
}

func TestHidesPulse(t *testing.T) {
	m := MustMetre(6, 8)
	assert.True(t, hidesPulse(m, frac.Zero, frac.New(5, 16)))
	assert.False(t, hidesPulse(m, frac.Zero, frac.New(1, 4)), "ends on a beat")
	assert.False(t, hidesPulse(m, frac.Zero, frac.New(1, 16)), "inside the first beat")
	assert.False(t, hidesPulse(m, frac.New(1, 8), frac.New(3, 16)), "not at the segment start")
	assert.False(t, hidesPulse(MustMetre(4, 4), frac.Zero, frac.New(3, 16)), "simple time")
}

func TestAlignmentDepth(t *testing.T) {
	m := MustMetre(4, 4)
	grain := frac.New(1, 16)
	assert.Equal(t, 0, alignmentDepth(m, grain, frac.New(1, 4)))
	assert.Equal(t, 1, alignmentDepth(m, grain, frac.New(3, 8)))
	assert.Equal(t, 2, alignmentDepth(m, grain, frac.New(5, 16)))

	c := MustMetre(6, 8)
	assert.Equal(t, 0, alignmentDepth(c, grain, frac.Zero))
	assert.Equal(t, 1, alignmentDepth(c, grain, frac.New(1, 8)))
	assert.Equal(t, 2, alignmentDepth(c, grain, frac.New(1, 16)))
}

func TestStateHeap_Order(t *testing.T) {
	a := &searchState{score: -2000, elapsed: frac.New(1, 2)}
	b := &searchState{score: -1000, elapsed: frac.New(1, 4)}
	c := &searchState{score: -1000, elapsed: frac.New(1, 2)}

	h := &stateHeap{}
	for _, s := range []*searchState{a, b, c} {
		heap.Push(h, s)
	}
	assert.Same(t, c, heap.Pop(h))
	assert.Same(t, b, heap.Pop(h))
	assert.Same(t, a, heap.Pop(h))
}

func TestRespell_NonPrintableRest(t *testing.T) {
	m := MustMetre(4, 4)
	run := entries(t, "r[5/16]")

	out, err := respell(m, frac.New(1, 16), []frac.Q{frac.One}, frac.Zero, run, 0)
	require.NoError(t, err)
	assert.Equal(t, "r4 r16", FormatEntries(out))
}

func TestRespell_Unprintable(t *testing.T) {
	tests := []struct {
		name  string
		grain frac.Q
		run   string
		quota int
	}{
		{"no note value fits", frac.New(1, 48), "r[1/48]", 0},
		{"successors exceed the budget", frac.New(1, 1024), "r[1/4]", 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := respell(MustMetre(4, 4), tt.grain, []frac.Q{frac.One}, frac.Zero, entries(t, tt.run), tt.quota)
			require.Error(t, err)
			assert.True(t, IsNoSpellingFound(err))
			assert.Nil(t, out)
		})
	}
}

func TestOptimize_PassesStruckAndPrintableRuns(t *testing.T) {
	m := MustMetre(4, 4)
	in := entries(t, "n4 r[5/16] n16 r4 r8")
	out, err := optimize(m, in, 0)
	require.NoError(t, err)
	assert.Equal(t, "n4 r4 r16 n16 r4 r8", FormatEntries(out))
}
