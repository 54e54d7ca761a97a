// Package score is the collaborator layer around rhythm.Bar.
//
// A Timeline wraps one bar of one voice and owns everything the rhythm core
// deliberately does not: the opaque identifier of every rhythm slot, the
// slot's lifetime (why it exists), and the beam groups drawn over it. Slot
// identity is positional. After each splice the timeline allocates ids when
// the bar gained slots and releases the surplus when it lost some, so
// downstream render state can be keyed on SlotID.
//
// A Score arranges timelines as voices x measures from an ir.ScoreSpec.
// Spacing and BreakLines turn the children of a bar into widths and
// bars-per-line decisions.
//
// Nothing here is safe for concurrent use. The engine serializes edits.
package score
