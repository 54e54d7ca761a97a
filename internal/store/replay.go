package store

import (
	"context"
	"fmt"

	"github.com/roach88/barline/internal/ir"
)

// LogState summarises an edit log for replay and recovery.
type LogState struct {
	ScoreHash string
	Edits     []ir.EditRecord
	Snapshots map[string]ir.Snapshot // keyed by edit id
	LastSeq   int64
	Applied   int
	Rejected  int
	Orphaned  []string // applied edits with no snapshot, in log order
}

// GetLogState reads the whole log. Orphaned edits only appear when a log was
// written outside WriteAppliedEdit; replay treats them as corruption.
func (s *Store) GetLogState(ctx context.Context) (LogState, error) {
	state := LogState{Snapshots: map[string]ir.Snapshot{}}

	hash, err := s.ScoreHash(ctx)
	if err != nil {
		return state, fmt.Errorf("get log state: %w", err)
	}
	state.ScoreHash = hash

	edits, err := s.ReadEdits(ctx)
	if err != nil {
		return state, fmt.Errorf("get log state: %w", err)
	}
	state.Edits = edits

	snaps, err := s.ReadSnapshots(ctx)
	if err != nil {
		return state, fmt.Errorf("get log state: %w", err)
	}
	for _, snap := range snaps {
		state.Snapshots[snap.EditID] = snap
	}

	for _, rec := range edits {
		if rec.Seq > state.LastSeq {
			state.LastSeq = rec.Seq
		}
		switch rec.Status {
		case ir.EditApplied:
			state.Applied++
			if _, ok := state.Snapshots[rec.ID]; !ok {
				state.Orphaned = append(state.Orphaned, rec.ID)
			}
		case ir.EditRejected:
			state.Rejected++
		}
	}

	return state, nil
}

// GetLastSeq returns the highest seq in the log, 0 when empty.
// The engine resumes its clock from here.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM edits`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq, nil
}

// ListTimelines returns every (voice, measure) pair that has been edited,
// ordered by voice then measure.
func (s *Store) ListTimelines(ctx context.Context) ([]TimelineKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT voice, measure FROM edits
		ORDER BY voice COLLATE BINARY ASC, measure ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list timelines: %w", err)
	}
	defer rows.Close()

	keys := []TimelineKey{}
	for rows.Next() {
		var k TimelineKey
		if err := rows.Scan(&k.Voice, &k.Measure); err != nil {
			return nil, fmt.Errorf("scan timeline: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timelines: %w", err)
	}
	return keys, nil
}

// TimelineKey names one voice's bar.
type TimelineKey struct {
	Voice   string
	Measure int
}
