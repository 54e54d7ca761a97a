package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/barline/internal/ir"
	"github.com/roach88/barline/internal/score"
	"github.com/roach88/barline/internal/store"
)

// Replay re-applies a log to a fresh score built from spec.
//
// Replay goes through the same splice path as live edits. Each applied edit
// must reproduce its recorded bar hash and each rejected edit must fail
// with its recorded code. Mismatches are collected as divergences rather
// than stopping the replay, so one run reports every affected bar.
//
// The returned error is reserved for problems that make replay meaningless:
// a log bound to another score, orphaned edits, or store failures.
func Replay(ctx context.Context, s *store.Store, spec ir.ScoreSpec, opts ...Option) (*ReplayReport, error) {
	cfg := newConfig(opts)

	hash, err := ir.ScoreHash(spec)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	state, err := s.GetLogState(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	if state.ScoreHash != "" && state.ScoreHash != hash {
		return nil, &RuntimeError{
			Code:    ErrCodeScoreMismatch,
			Message: fmt.Sprintf("log recorded against score %s, replaying %s", short(state.ScoreHash), short(hash)),
		}
	}
	if len(state.Orphaned) > 0 {
		return nil, &RuntimeError{
			Code:    ErrCodeOrphanedEdit,
			Message: fmt.Sprintf("%d applied edit(s) have no snapshot", len(state.Orphaned)),
			EditID:  state.Orphaned[0],
		}
	}

	sc, err := cfg.newScore(spec)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	report := &ReplayReport{
		ScoreHash: hash,
		LastSeq:   state.LastSeq,
		Score:     sc,
	}

	for _, rec := range state.Edits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Edits++

		tl, cause := spliceEdit(sc, rec.Edit)

		switch rec.Status {
		case ir.EditApplied:
			report.Applied++
			want := state.Snapshots[rec.ID]
			if cause != nil {
				report.add(rec, Divergence{
					Reason:     fmt.Sprintf("edit was applied, now rejected with %s", RejectionCode(cause)),
					WantHash:   want.BarHash,
					WantRhythm: want.Rhythm,
				})
				continue
			}
			got, err := snapshotOf(tl, rec)
			if err != nil {
				return nil, fmt.Errorf("replay: %w", err)
			}
			if got.BarHash != want.BarHash {
				report.add(rec, Divergence{
					Reason:     "bar hash differs",
					WantHash:   want.BarHash,
					GotHash:    got.BarHash,
					WantRhythm: want.Rhythm,
					GotRhythm:  got.Rhythm,
				})
			}

		case ir.EditRejected:
			report.Rejected++
			if cause == nil {
				got, err := snapshotOf(tl, rec)
				if err != nil {
					return nil, fmt.Errorf("replay: %w", err)
				}
				report.add(rec, Divergence{
					Reason:    fmt.Sprintf("edit was rejected with %s, now applies", rec.ErrorCode),
					GotHash:   got.BarHash,
					GotRhythm: got.Rhythm,
				})
				continue
			}
			if code := RejectionCode(cause); code != rec.ErrorCode {
				report.add(rec, Divergence{
					Reason: fmt.Sprintf("edit was rejected with %s, now rejected with %s", rec.ErrorCode, code),
				})
			}

		default:
			return nil, fmt.Errorf("replay: edit %s has unknown status %q", short(rec.ID), rec.Status)
		}
	}

	if len(report.Divergences) > 0 {
		slog.Warn("replay diverged",
			"edits", report.Edits,
			"divergences", len(report.Divergences),
		)
	}
	return report, nil
}

// ReplayReport summarises a replay.
type ReplayReport struct {
	ScoreHash   string
	Edits       int
	Applied     int
	Rejected    int
	LastSeq     int64
	Divergences []Divergence
	// Score holds the replayed state. It is ready for new edits only when
	// Divergences is empty.
	Score *score.Score
}

// Divergence is one logged edit that replayed differently.
type Divergence struct {
	EditID     string   `json:"edit_id"`
	Seq        int64    `json:"seq"`
	Voice      string   `json:"voice"`
	Measure    int      `json:"measure"`
	Reason     string   `json:"reason"`
	WantHash   string   `json:"want_hash,omitempty"`
	GotHash    string   `json:"got_hash,omitempty"`
	WantRhythm []string `json:"want_rhythm,omitempty"`
	GotRhythm  []string `json:"got_rhythm,omitempty"`
}

func (d Divergence) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "seq %d %s/%d: %s", d.Seq, d.Voice, d.Measure, d.Reason)
	if d.WantRhythm != nil || d.GotRhythm != nil {
		fmt.Fprintf(&b, " (want %q, got %q)", strings.Join(d.WantRhythm, " "), strings.Join(d.GotRhythm, " "))
	}
	return b.String()
}

func (r *ReplayReport) add(rec ir.EditRecord, d Divergence) {
	d.EditID = rec.ID
	d.Seq = rec.Seq
	d.Voice = rec.Edit.Voice
	d.Measure = rec.Edit.Measure
	r.Divergences = append(r.Divergences, d)
}

// Err returns the first divergence as a RuntimeError, or nil.
func (r *ReplayReport) Err() error {
	if len(r.Divergences) == 0 {
		return nil
	}
	d := r.Divergences[0]
	return &RuntimeError{
		Code:    ErrCodeReplayDivergence,
		Message: fmt.Sprintf("%d divergence(s), first: %s", len(r.Divergences), d),
		EditID:  d.EditID,
		Seq:     d.Seq,
	}
}
