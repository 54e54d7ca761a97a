package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/barline/internal/ir"
)

const editColumns = `id, seq, voice, measure, start, replacement, lifetime, status, error_code`

const snapshotColumns = `edit_id, seq, voice, measure, bar_hash, rhythm`

// ReadEdits returns every edit in log order: ORDER BY seq ASC, id ASC COLLATE BINARY.
// Returns an empty slice (not nil) for an empty log.
func (s *Store) ReadEdits(ctx context.Context) ([]ir.EditRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+editColumns+`
		FROM edits
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query edits: %w", err)
	}
	return collectEdits(rows)
}

// ReadEditsFor returns the edits that targeted one timeline, in log order.
func (s *Store) ReadEditsFor(ctx context.Context, voice string, measure int) ([]ir.EditRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+editColumns+`
		FROM edits
		WHERE voice = ? AND measure = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, voice, measure)
	if err != nil {
		return nil, fmt.Errorf("query edits for %s/%d: %w", voice, measure, err)
	}
	return collectEdits(rows)
}

// ReadEdit retrieves a single edit by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadEdit(ctx context.Context, id string) (ir.EditRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+editColumns+` FROM edits WHERE id = ?`, id)
	return scanEdit(row)
}

// ReadSnapshots returns every snapshot in log order.
func (s *Store) ReadSnapshots(ctx context.Context) ([]ir.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		ORDER BY seq ASC, edit_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	return collectSnapshots(rows)
}

// ReadSnapshot retrieves the snapshot produced by an edit.
// Returns sql.ErrNoRows if the edit has none.
func (s *Store) ReadSnapshot(ctx context.Context, editID string) (ir.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots WHERE edit_id = ?`, editID)
	return scanSnapshot(row)
}

// LatestSnapshot returns the most recent snapshot of one timeline. ok is
// false when the timeline was never edited.
func (s *Store) LatestSnapshot(ctx context.Context, voice string, measure int) (snap ir.Snapshot, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM snapshots
		WHERE voice = ? AND measure = ?
		ORDER BY seq DESC, edit_id COLLATE BINARY DESC
		LIMIT 1
	`, voice, measure)
	snap, err = scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Snapshot{}, false, nil
	}
	if err != nil {
		return ir.Snapshot{}, false, fmt.Errorf("latest snapshot: %w", err)
	}
	return snap, true, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEdit(row rowScanner) (ir.EditRecord, error) {
	var rec ir.EditRecord
	var start, replacementJSON, status string

	if err := row.Scan(
		&rec.ID, &rec.Seq, &rec.Edit.Voice, &rec.Edit.Measure, &start,
		&replacementJSON, &rec.Edit.Lifetime, &status, &rec.ErrorCode,
	); err != nil {
		return ir.EditRecord{}, err
	}
	rec.Status = ir.EditStatus(status)

	q, err := unmarshalStart(start)
	if err != nil {
		return ir.EditRecord{}, err
	}
	rec.Edit.Start = q

	tokens, err := unmarshalTokens(replacementJSON)
	if err != nil {
		return ir.EditRecord{}, err
	}
	rec.Edit.Replacement = tokens

	return rec, nil
}

func scanSnapshot(row rowScanner) (ir.Snapshot, error) {
	var snap ir.Snapshot
	var rhythmJSON string

	if err := row.Scan(
		&snap.EditID, &snap.Seq, &snap.Voice, &snap.Measure, &snap.BarHash, &rhythmJSON,
	); err != nil {
		return ir.Snapshot{}, err
	}

	tokens, err := unmarshalTokens(rhythmJSON)
	if err != nil {
		return ir.Snapshot{}, err
	}
	snap.Rhythm = tokens
	return snap, nil
}

func collectEdits(rows *sql.Rows) ([]ir.EditRecord, error) {
	defer rows.Close()

	edits := []ir.EditRecord{}
	for rows.Next() {
		rec, err := scanEdit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan edit: %w", err)
		}
		edits = append(edits, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edits: %w", err)
	}
	return edits, nil
}

func collectSnapshots(rows *sql.Rows) ([]ir.Snapshot, error) {
	defer rows.Close()

	snaps := []ir.Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}
