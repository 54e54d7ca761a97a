package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/barline/internal/frac"
	"github.com/roach88/barline/internal/ir"
	"github.com/roach88/barline/internal/score"
	"github.com/roach88/barline/internal/store"
	"github.com/roach88/barline/internal/testutil"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSpec() ir.ScoreSpec {
	return ir.ScoreSpec{
		Title: "test",
		Measures: []ir.MeasureSpec{
			{Num: 4, Den: 4},
			{Num: 6, Den: 8},
		},
		Voices: []ir.VoiceSpec{{Name: "upper"}, {Name: "lower"}},
	}
}

func newTestEngine(t *testing.T, s *store.Store, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithIDGenerator(score.NewSequenceGenerator("s"))}, opts...)
	e, err := New(context.Background(), s, testSpec(), opts...)
	require.NoError(t, err)
	return e
}

func edit(voice string, measure int, start string, tokens ...string) ir.Edit {
	return ir.Edit{
		Voice:       voice,
		Measure:     measure,
		Start:       frac.MustParse(start),
		Replacement: tokens,
	}
}

func TestEngine_New(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	assert.Equal(t, int64(0), e.Seq())
	assert.Equal(t, 0, e.QueueLen())

	want, err := ir.ScoreHash(testSpec())
	require.NoError(t, err)
	assert.Equal(t, want, e.ScoreHash())

	bound, err := s.ScoreHash(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, bound)
}

func TestEngine_Apply(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	res, err := e.Apply(ctx, edit("upper", 0, "0", "n4"))
	require.NoError(t, err)
	require.True(t, res.Applied())
	require.NotNil(t, res.Snapshot)
	assert.NoError(t, res.Cause)

	assert.Equal(t, int64(1), res.Record.Seq)
	assert.Equal(t, "explicit", res.Record.Edit.Lifetime)
	assert.Equal(t, []string{"n4", "r4", "r2"}, res.Snapshot.Rhythm)
	assert.Equal(t, ir.MustBarHash("4/4", []string{"n4", "r4", "r2"}), res.Snapshot.BarHash)

	wantID, err := ir.EditID(res.Record.Edit, 1)
	require.NoError(t, err)
	assert.Equal(t, wantID, res.Record.ID)

	stored, err := s.ReadSnapshot(ctx, res.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, *res.Snapshot, stored)

	bar, err := e.Bar("upper", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"n4", "r4", "r2"}, bar.Rhythm)
	assert.Len(t, bar.Children, 3)
}

func TestEngine_Apply_Rejected(t *testing.T) {
	tests := []struct {
		name string
		edit ir.Edit
		code string
	}{
		{"unknown voice", edit("alto", 0, "0", "n4"), "UNKNOWN_VOICE"},
		{"measure out of range", edit("upper", 5, "0", "n4"), "MEASURE_OUT_OF_RANGE"},
		{"bad token", edit("upper", 0, "0", "x4"), "INVALID_REPLACEMENT"},
		{"bad lifetime", ir.Edit{Voice: "upper", Start: frac.Zero, Replacement: []string{"n4"}, Lifetime: "forever"}, "INVALID_LIFETIME"},
		{"too many dots", edit("upper", 0, "0", "n4....."), "TOO_MANY_DOTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := setupTestStore(t)
			e := newTestEngine(t, s)

			res, err := e.Apply(ctx, tt.edit)
			require.NoError(t, err)
			assert.False(t, res.Applied())
			assert.Nil(t, res.Snapshot)
			require.Error(t, res.Cause)
			assert.Equal(t, ir.EditRejected, res.Record.Status)
			assert.Equal(t, tt.code, res.Record.ErrorCode)

			rec, err := s.ReadEdit(ctx, res.Record.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.code, rec.ErrorCode)

			bar, err := e.Bar("upper", 0)
			require.NoError(t, err)
			assert.Empty(t, bar.Rhythm, "rejected edits leave the bar alone")
		})
	}
}

func TestEngine_Apply_SearchQuota(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s, WithSearchQuota(1))

	res, err := e.Apply(ctx, edit("upper", 0, "0", "n4"))
	require.NoError(t, err)
	require.True(t, res.Applied())

	res, err = e.Apply(ctx, edit("upper", 0, "0", "n4@5/4"))
	require.NoError(t, err)
	assert.Equal(t, "NO_SPELLING_FOUND", res.Record.ErrorCode)

	bar, err := e.Bar("upper", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"n4", "r4", "r2"}, bar.Rhythm)
}

func TestEngine_Apply_WriteFailureLeavesStateAlone(t *testing.T) {
	tests := []struct {
		name  string
		table string
		edit  ir.Edit
	}{
		{"applied edit", "snapshots", edit("upper", 0, "0", "n4")},
		{"rejected edit", "edits", edit("alto", 0, "0", "n4")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := setupTestStore(t)
			e := newTestEngine(t, s)

			before, err := e.Bar("upper", 0)
			require.NoError(t, err)

			_, err = s.DB().ExecContext(ctx, "DROP TABLE "+tt.table)
			require.NoError(t, err)

			_, err = e.Apply(ctx, tt.edit)
			require.Error(t, err)

			after, err := e.Bar("upper", 0)
			require.NoError(t, err)
			assert.Empty(t, after.Rhythm)
			assert.Equal(t, before.Children, after.Children, "slots must not move")
			assert.Equal(t, int64(0), e.Seq())
		})
	}
}

func TestEngine_Apply_NoSeqGapAfterWriteFailure(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	_, err := s.DB().ExecContext(ctx, "DROP TABLE snapshots")
	require.NoError(t, err)

	_, err = e.Apply(ctx, edit("upper", 0, "0", "n4"))
	require.Error(t, err)

	res, err := e.Apply(ctx, edit("alto", 0, "0", "n4"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Record.Seq)
	assert.Equal(t, int64(1), e.Seq())

	recs, err := s.ReadEdits(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(1), recs[0].Seq)
	assert.Equal(t, ir.EditRejected, recs[0].Status)
}

func TestEngine_Resume(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	e := newTestEngine(t, s)
	_, err := e.Apply(ctx, edit("upper", 0, "0", "n8", "n8"))
	require.NoError(t, err)
	_, err = e.Apply(ctx, edit("lower", 1, "3/8", "n4."))
	require.NoError(t, err)
	_, err = e.Apply(ctx, edit("nobody", 0, "0", "n4"))
	require.NoError(t, err)

	resumed := newTestEngine(t, s)
	assert.Equal(t, int64(3), resumed.Seq())

	before, err := e.Bars()
	require.NoError(t, err)
	after, err := resumed.Bars()
	require.NoError(t, err)
	require.Len(t, after, 4)
	for i := range before {
		assert.Equal(t, before[i].BarHash, after[i].BarHash, "%s/%d", before[i].Voice, before[i].Measure)
	}

	res, err := resumed.Apply(ctx, edit("upper", 1, "0", "n4."))
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Record.Seq)
}

func TestEngine_ScoreMismatch(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	newTestEngine(t, s)

	other := testSpec()
	other.Title = "something else"
	_, err := New(ctx, s, other)
	require.Error(t, err)
	assert.True(t, IsScoreMismatch(err))
}

func TestEngine_RunSubmit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	res, err := e.Submit(ctx, edit("upper", 0, "1/4", "n4"))
	require.NoError(t, err)
	assert.True(t, res.Applied())
	assert.Equal(t, []string{"r4", "n4", "r2"}, res.Snapshot.Rhythm)

	require.True(t, e.Enqueue(edit("upper", 0, "1/2", "n4")))
	res, err = e.Submit(ctx, edit("upper", 0, "3/4", "n4"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Record.Seq)
	assert.Equal(t, []string{"r4", "n4", "n4", "n4"}, res.Snapshot.Rhythm)

	e.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("Run did not return after Stop")
	}

	assert.False(t, e.Enqueue(edit("upper", 0, "0", "n4")))
	_, err = e.Submit(ctx, edit("upper", 0, "0", "n4"))
	assert.True(t, IsStopped(err))
	_, err = e.Apply(ctx, edit("upper", 0, "0", "n4"))
	assert.True(t, IsStopped(err))
}

func TestEngine_RunContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestEngine_Beams(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	_, err := e.Apply(ctx, edit("upper", 0, "0", "n8", "n8"))
	require.NoError(t, err)

	bar, err := e.Bar("upper", 0)
	require.NoError(t, err)
	require.Len(t, bar.Beams, 1)
	assert.Equal(t, 1, bar.Beams[0].ID)

	var voices []string
	e.View(func(sc *score.Score) { voices = sc.Voices() })
	assert.Equal(t, []string{"upper", "lower"}, voices)
}

func TestEngine_SlotIdentity(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	gen := testutil.NewFixedIDGenerator("a", "b", "c", "d")
	e, err := New(ctx, s, testutil.MustSpec([]string{testutil.DefaultVoice}, "4/4"), WithIDGenerator(gen))
	require.NoError(t, err)

	_, err = e.Apply(ctx, edit(testutil.DefaultVoice, 0, "1/4", "n4"))
	require.NoError(t, err)

	bar, err := e.Bar(testutil.DefaultVoice, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"r4", "n4", "r2"}, bar.Rhythm)
	var slots []string
	for _, c := range bar.Children {
		slots = append(slots, c.SlotID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, slots, "the whole-bar rest keeps the first slot")
	assert.Equal(t, 1, gen.Remaining())

	// Back to a whole-bar rest: the trailing slots are released.
	_, err = e.Apply(ctx, edit(testutil.DefaultVoice, 0, "1/4", "r4"))
	require.NoError(t, err)
	bar, err = e.Bar(testutil.DefaultVoice, 0)
	require.NoError(t, err)
	assert.Empty(t, bar.Rhythm)
	require.Len(t, bar.Children, 1)
	assert.Equal(t, "a", bar.Children[0].SlotID)
}

func TestRejectionCode(t *testing.T) {
	assert.Equal(t, "UNKNOWN_VOICE", RejectionCode(&score.ScoreError{Code: score.ErrCodeUnknownVoice}))
	assert.Empty(t, RejectionCode(assert.AnError))
}
