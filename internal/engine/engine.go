package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/barline/internal/ir"
	"github.com/roach88/barline/internal/rhythm"
	"github.com/roach88/barline/internal/score"
	"github.com/roach88/barline/internal/store"
)

// Engine is the single-writer edit loop.
//
// Thread-safety model:
//   - Enqueue, Submit, Apply and the read methods are safe from any goroutine
//   - Run must be called from exactly one goroutine
//   - edits are applied one at a time under mu, in seq order
type Engine struct {
	mu        sync.Mutex
	store     *store.Store
	clock     *Clock
	spec      ir.ScoreSpec
	scoreHash string
	score     *score.Score
	queue     *editQueue
	stopped   bool
}

// Result is the outcome of one edit. Cause is set when the edit was
// rejected; Snapshot is set when it was applied.
type Result struct {
	Record   ir.EditRecord
	Snapshot *ir.Snapshot
	Cause    error
}

// Applied reports whether the edit changed the score.
func (r Result) Applied() bool { return r.Record.Status == ir.EditApplied }

type config struct {
	gen         score.IDGenerator
	alloc       score.Allocator
	searchQuota int
}

// Option configures an Engine or a replay.
type Option func(*config)

// WithIDGenerator sets the generator behind slot ids. Defaults to UUIDv7.
func WithIDGenerator(gen score.IDGenerator) Option {
	return func(c *config) { c.gen = gen }
}

// WithAllocator replaces the slot allocator entirely. Takes precedence over
// WithIDGenerator.
func WithAllocator(a score.Allocator) Option {
	return func(c *config) { c.alloc = a }
}

// WithSearchQuota caps the rest-spelling search of every bar.
func WithSearchQuota(n int) Option {
	return func(c *config) { c.searchQuota = n }
}

func newConfig(opts []Option) config {
	c := config{gen: score.UUIDv7Generator{}, searchQuota: rhythm.DefaultSearchQuota}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c config) newScore(spec ir.ScoreSpec) (*score.Score, error) {
	alloc := c.alloc
	if alloc == nil {
		alloc = score.NewIDAllocator(c.gen)
	}
	return score.NewScore(spec, alloc, rhythm.WithSearchQuota(c.searchQuota))
}

// New opens an engine over s for spec. The log is bound to spec on first
// use; an existing log is replayed and must reproduce every recorded bar
// before the engine accepts new edits.
func New(ctx context.Context, s *store.Store, spec ir.ScoreSpec, opts ...Option) (*Engine, error) {
	hash, err := ir.ScoreHash(spec)
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	if err := s.BindScore(ctx, hash); err != nil {
		if errors.Is(err, store.ErrScoreMismatch) {
			return nil, &RuntimeError{Code: ErrCodeScoreMismatch, Message: err.Error()}
		}
		return nil, fmt.Errorf("new engine: %w", err)
	}

	report, err := Replay(ctx, s, spec, opts...)
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	if err := report.Err(); err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}

	if report.Edits > 0 {
		slog.Info("engine resumed from log",
			"edits", report.Edits,
			"applied", report.Applied,
			"rejected", report.Rejected,
			"last_seq", report.LastSeq,
		)
	}

	return &Engine{
		store:     s,
		clock:     NewClockAt(report.LastSeq),
		spec:      spec,
		scoreHash: hash,
		score:     report.Score,
		queue:     newEditQueue(),
	}, nil
}

// ScoreHash returns the hash of the score definition this engine edits.
func (e *Engine) ScoreHash() string { return e.scoreHash }

// Seq returns the seq of the most recent edit.
func (e *Engine) Seq() int64 { return e.clock.Current() }

// QueueLen returns the number of edits waiting for Run.
func (e *Engine) QueueLen() int { return e.queue.Len() }

type outcome struct {
	res Result
	err error
}

type event struct {
	edit  ir.Edit
	reply chan outcome // nil for fire-and-forget
}

// Enqueue submits an edit to the Run loop without waiting.
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(edit ir.Edit) bool {
	return e.queue.Enqueue(event{edit: edit})
}

// Submit enqueues an edit and waits for Run to process it.
func (e *Engine) Submit(ctx context.Context, edit ir.Edit) (Result, error) {
	reply := make(chan outcome, 1)
	if !e.queue.Enqueue(event{edit: edit, reply: reply}) {
		return Result{}, &RuntimeError{Code: ErrCodeStopped, Message: "engine stopped"}
	}
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case out := <-reply:
		return out.res, out.err
	}
}

// Apply processes an edit synchronously, bypassing the queue.
func (e *Engine) Apply(ctx context.Context, edit ir.Edit) (Result, error) {
	if e.isStopped() {
		return Result{}, &RuntimeError{Code: ErrCodeStopped, Message: "engine stopped"}
	}
	return e.processEdit(ctx, edit)
}

// Run starts the single-writer loop. Blocks until ctx is cancelled or Stop
// is called.
//
// A failing edit is logged and the loop continues; retrying would stamp
// the edit with a new seq and change the log.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting", "score_hash", short(e.scoreHash), "seq", e.clock.Current())

	for {
		ev, ok := e.queue.TryDequeue()
		if ok {
			res, err := e.processEdit(ctx, ev.edit)
			if err != nil {
				logEditError(ev.edit, err)
			}
			if ev.reply != nil {
				ev.reply <- outcome{res: res, err: err}
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.Stop()
			return ctx.Err()

		case <-e.queue.Wait():
			if e.queue.Len() == 0 && e.isStopped() {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run drains what is already queued and returns.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()
	e.queue.Close()
}

func (e *Engine) isStopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopped
}

// processEdit stamps, applies and records one edit. The returned error is
// reserved for infrastructure failures; rejected edits come back as a
// Result with Cause set. The timeline and the clock change only after the
// store accepts the record.
func (e *Engine) processEdit(ctx context.Context, edit ir.Edit) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if lt, err := score.ParseLifetime(edit.Lifetime); err == nil {
		edit.Lifetime = lt.String()
	}

	seq := e.clock.Peek()
	id, err := ir.EditID(edit, seq)
	if err != nil {
		return Result{}, fmt.Errorf("edit id: %w", err)
	}
	rec := ir.EditRecord{ID: id, Seq: seq, Edit: edit}

	slog.Debug("processing edit",
		"id", short(id),
		"seq", seq,
		"voice", edit.Voice,
		"measure", edit.Measure,
		"start", edit.Start.String(),
	)

	pending, cause := prepareEdit(e.score, edit)
	if cause != nil {
		code := RejectionCode(cause)
		if code == "" {
			return Result{}, fmt.Errorf("apply edit %s: %w", short(id), cause)
		}
		rec.Status = ir.EditRejected
		rec.ErrorCode = code
		if err := e.store.WriteEdit(ctx, rec); err != nil {
			return Result{}, fmt.Errorf("record rejected edit %s: %w", short(id), err)
		}
		e.clock.Next()
		slog.Warn("edit rejected",
			"id", short(id),
			"seq", seq,
			"code", code,
			"error", cause,
		)
		return Result{Record: rec, Cause: cause}, nil
	}

	rec.Status = ir.EditApplied
	snap, err := snapshotOf(pending, rec)
	if err != nil {
		return Result{}, err
	}
	if err := e.store.WriteAppliedEdit(ctx, rec, snap); err != nil {
		return Result{}, fmt.Errorf("record edit %s: %w", short(id), err)
	}
	pending.Commit()
	e.clock.Next()

	slog.Info("edit applied",
		"id", short(id),
		"seq", seq,
		"voice", edit.Voice,
		"measure", edit.Measure,
		"rhythm", pending.Timeline().String(),
	)
	return Result{Record: rec, Snapshot: &snap}, nil
}

// prepareEdit computes edit against sc without applying it. Lifetime and
// token errors surface as *score.ScoreError, rhythm failures as
// *rhythm.RhythmError.
func prepareEdit(sc *score.Score, edit ir.Edit) (*score.Pending, error) {
	lifetime, err := score.ParseLifetime(edit.Lifetime)
	if err != nil {
		return nil, err
	}
	return sc.Prepare(edit.Voice, edit.Measure, edit.Start, edit.Replacement, lifetime)
}

// spliceEdit applies edit to sc.
func spliceEdit(sc *score.Score, edit ir.Edit) (*score.Timeline, error) {
	p, err := prepareEdit(sc, edit)
	if err != nil {
		return nil, err
	}
	p.Commit()
	return p.Timeline(), nil
}

// tokenSource is what a snapshot records: a metre and its rhythm tokens.
type tokenSource interface {
	Metre() rhythm.Metre
	Tokens() []string
}

func snapshotOf(tl tokenSource, rec ir.EditRecord) (ir.Snapshot, error) {
	tokens := tl.Tokens()
	if tokens == nil {
		tokens = []string{}
	}
	hash, err := ir.BarHash(tl.Metre().String(), tokens)
	if err != nil {
		return ir.Snapshot{}, fmt.Errorf("snapshot %s: %w", short(rec.ID), err)
	}
	return ir.Snapshot{
		EditID:  rec.ID,
		Seq:     rec.Seq,
		Voice:   rec.Edit.Voice,
		Measure: rec.Edit.Measure,
		BarHash: hash,
		Rhythm:  tokens,
	}, nil
}

func logEditError(edit ir.Edit, err error) {
	slog.Error("edit processing failed",
		"voice", edit.Voice,
		"measure", edit.Measure,
		"start", edit.Start.String(),
		"replacement", edit.Replacement,
		"error", err,
	)
}
