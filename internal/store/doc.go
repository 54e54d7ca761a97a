// Package store provides SQLite-backed durable storage for barline edit logs.
//
// The store is an append-only log with:
//   - Edits: every edit submitted to the engine, applied or rejected
//   - Snapshots: the rhythm and bar hash of the edited timeline after each applied edit
//   - Score meta: the hash of the score definition the log was recorded against
//
// # Ordering
//
// All reads are ordered by seq ASC, id ASC COLLATE BINARY. seq comes from the
// engine's logical clock; wall time is never stored.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: A snapshot must reference an existing edit
//
// Edit ids and bar hashes are computed in internal/ir from canonical JSON.
package store
