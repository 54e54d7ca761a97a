package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/barline/internal/frac"
	"github.com/roach88/barline/internal/ir"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEdit builds an edit record with a real content-addressed id.
func createTestEdit(t *testing.T, voice string, measure int, start string, seq int64, tokens ...string) ir.EditRecord {
	t.Helper()
	e := ir.Edit{
		Voice:       voice,
		Measure:     measure,
		Start:       frac.MustParse(start),
		Replacement: tokens,
		Lifetime:    "explicit",
	}
	id, err := ir.EditID(e, seq)
	require.NoError(t, err)
	return ir.EditRecord{ID: id, Seq: seq, Edit: e, Status: ir.EditApplied}
}

func createTestSnapshot(rec ir.EditRecord, metre string, rhythm ...string) ir.Snapshot {
	if rhythm == nil {
		rhythm = []string{}
	}
	return ir.Snapshot{
		EditID:  rec.ID,
		Seq:     rec.Seq,
		Voice:   rec.Edit.Voice,
		Measure: rec.Edit.Measure,
		BarHash: ir.MustBarHash(metre, rhythm),
		Rhythm:  rhythm,
	}
}
