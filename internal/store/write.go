package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/barline/internal/ir"
)

// WriteEdit inserts an edit record. Duplicate ids are silently ignored so a
// retried write is harmless; a different edit reusing a seq is an error.
func (s *Store) WriteEdit(ctx context.Context, rec ir.EditRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write edit: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertEdit(ctx, tx, rec); err != nil {
		return fmt.Errorf("write edit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write edit: commit: %w", err)
	}
	return nil
}

// WriteAppliedEdit writes an applied edit and the snapshot it produced in a
// single transaction, so a crash never leaves an applied edit without its
// snapshot.
func (s *Store) WriteAppliedEdit(ctx context.Context, rec ir.EditRecord, snap ir.Snapshot) error {
	if rec.Status != ir.EditApplied {
		return fmt.Errorf("write applied edit: status is %q", rec.Status)
	}
	if snap.EditID != rec.ID {
		return fmt.Errorf("write applied edit: snapshot belongs to %q, not %q", snap.EditID, rec.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write applied edit: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertEdit(ctx, tx, rec); err != nil {
		return fmt.Errorf("write applied edit: %w", err)
	}

	rhythmJSON, err := marshalTokens(snap.Rhythm)
	if err != nil {
		return fmt.Errorf("write applied edit: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots
		(edit_id, seq, voice, measure, bar_hash, rhythm)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(edit_id) DO NOTHING
	`,
		snap.EditID,
		snap.Seq,
		snap.Voice,
		snap.Measure,
		snap.BarHash,
		rhythmJSON,
	)
	if err != nil {
		return fmt.Errorf("write applied edit: write snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write applied edit: commit: %w", err)
	}
	return nil
}

func insertEdit(ctx context.Context, tx *sql.Tx, rec ir.EditRecord) error {
	replacementJSON, err := marshalTokens(rec.Edit.Replacement)
	if err != nil {
		return err
	}
	lifetime := rec.Edit.Lifetime
	if lifetime == "" {
		lifetime = "explicit"
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO edits
		(id, seq, voice, measure, start, replacement, lifetime, status, error_code, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Seq,
		rec.Edit.Voice,
		rec.Edit.Measure,
		rec.Edit.Start.String(),
		replacementJSON,
		lifetime,
		string(rec.Status),
		rec.ErrorCode,
		ir.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("insert edit: %w", err)
	}
	return nil
}
