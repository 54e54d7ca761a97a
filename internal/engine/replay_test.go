package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/barline/internal/ir"
)

func TestReplay_Clean(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	edits := []ir.Edit{
		edit("upper", 0, "0", "n8", "n8"),
		edit("upper", 0, "1/2", "n4@3/2", "n4@3/2", "n4@3/2"),
		edit("lower", 1, "0", "n4."),
		edit("upper", 0, "0", "r4"),
		edit("lower", 0, "9/8", "n4"),
	}
	for _, ed := range edits {
		_, err := e.Apply(ctx, ed)
		require.NoError(t, err)
	}

	report, err := Replay(ctx, s, testSpec())
	require.NoError(t, err)
	assert.NoError(t, report.Err())
	assert.Equal(t, 5, report.Edits)
	assert.Equal(t, 5, report.Applied)
	assert.Equal(t, 0, report.Rejected)
	assert.Equal(t, int64(5), report.LastSeq)
	assert.Empty(t, report.Divergences)

	tl, err := report.Score.Timeline("upper", 0)
	require.NoError(t, err)
	live, err := e.Bar("upper", 0)
	require.NoError(t, err)
	assert.Equal(t, live.Rhythm, tl.Tokens())
}

func TestReplay_EmptyLog(t *testing.T) {
	s := setupTestStore(t)

	report, err := Replay(context.Background(), s, testSpec())
	require.NoError(t, err)
	assert.Zero(t, report.Edits)
	assert.NoError(t, report.Err())
	assert.NotNil(t, report.Score)
}

func TestReplay_TamperedSnapshot(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	res, err := e.Apply(ctx, edit("upper", 0, "0", "n4"))
	require.NoError(t, err)

	_, err = s.DB().ExecContext(ctx,
		`UPDATE snapshots SET bar_hash = ?, rhythm = ? WHERE edit_id = ?`,
		ir.MustBarHash("4/4", []string{"n2", "r2"}), `["n2","r2"]`, res.Record.ID)
	require.NoError(t, err)

	report, err := Replay(ctx, s, testSpec())
	require.NoError(t, err)
	require.Len(t, report.Divergences, 1)

	d := report.Divergences[0]
	assert.Equal(t, res.Record.ID, d.EditID)
	assert.Equal(t, "bar hash differs", d.Reason)
	assert.Equal(t, []string{"n2", "r2"}, d.WantRhythm)
	assert.Equal(t, []string{"n4", "r4", "r2"}, d.GotRhythm)

	err = report.Err()
	require.Error(t, err)
	assert.True(t, IsDivergence(err))

	_, err = New(ctx, s, testSpec())
	assert.True(t, IsDivergence(err), "engines refuse a log that does not replay")
}

func TestReplay_RejectionNowApplies(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s, WithSearchQuota(1))

	_, err := e.Apply(ctx, edit("upper", 0, "0", "n4"))
	require.NoError(t, err)
	res, err := e.Apply(ctx, edit("upper", 0, "0", "n4@5/4"))
	require.NoError(t, err)
	require.False(t, res.Applied())

	report, err := Replay(ctx, s, testSpec(), WithSearchQuota(1))
	require.NoError(t, err)
	assert.Empty(t, report.Divergences)
	assert.Equal(t, 1, report.Rejected)

	// Without the tight quota the quintuplet spells fine.
	report, err = Replay(ctx, s, testSpec())
	require.NoError(t, err)
	require.Len(t, report.Divergences, 1)
	assert.Contains(t, report.Divergences[0].Reason, "now applies")
	assert.Contains(t, report.Divergences[0].String(), "seq 2 upper/0")
}

func TestReplay_ScoreMismatch(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	newTestEngine(t, s)

	other := testSpec()
	other.Voices = other.Voices[:1]
	_, err := Replay(ctx, s, other)
	assert.True(t, IsScoreMismatch(err))
}

func TestReplay_Orphaned(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	res, err := e.Apply(ctx, edit("upper", 0, "0", "n4"))
	require.NoError(t, err)
	_, err = s.DB().ExecContext(ctx, `DELETE FROM snapshots WHERE edit_id = ?`, res.Record.ID)
	require.NoError(t, err)

	_, err = Replay(ctx, s, testSpec())
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeOrphanedEdit, re.Code)
}
