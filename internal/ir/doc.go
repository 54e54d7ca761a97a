// Package ir holds the canonical records shared by the barline layers: the
// compiled score definition, edits and their persisted outcomes, and the
// canonical JSON used to give them content-addressed identity.
//
// ir imports only frac. Everything above it (score, store, engine, cli)
// speaks in these types.
//
// Key constraints:
//   - no floats anywhere; times are frac.Q rendered as "n/d" strings
//   - rhythm is carried as text-notation tokens ("n4", "r2.", "n8@3/2")
//   - JSON tags are snake_case
//   - ordering comes from the logical clock (seq), never wall time
package ir
