// Package engine applies edits to a score and records them.
//
// The engine owns a score.Score and a store.Store. Every edit is stamped
// with the next value of a logical clock, applied to one timeline, and
// written to the log together with a snapshot of the resulting bar.
//
// Single-writer loop:
//
//  1. Callers Enqueue edits (any goroutine) or call Apply directly.
//  2. Run dequeues edits one at a time in FIFO order.
//  3. Each edit is spliced into its timeline. A rejected edit is logged
//     with its error code and leaves the timeline untouched.
//  4. The edit record and snapshot are written in one transaction.
//
// Ordering uses seq from the logical clock, never wall time. Replay reads the
// log in seq order, re-applies every edit to a fresh score and compares each
// recomputed bar hash with the recorded one. Equal hashes mean the rhythm
// core is deterministic for this log.
package engine
