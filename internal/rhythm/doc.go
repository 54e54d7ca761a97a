// Package rhythm implements the rhythmic notation core of barline.
//
// A Bar holds the rhythm of one voice in one measure as an ordered list of
// entries, each a Duration plus a struck flag (note or rest). The only
// mutator is Bar.Splice, which places new content at a start time and then
// re-spells the surrounding silence so that the bar always:
//   - fills its Metre exactly (or is empty, meaning a whole-bar rest)
//   - uses only printable rests (base value plus at most four dots)
//   - groups rests the conventional way for its metre
//   - leaves user-placed notes untouched
//
// PIPELINE:
//
// Splice runs its passes in a fixed order on a private copy:
//  1. fill: an empty bar becomes one rest per metre segment
//  2. rewrite: the edited range is replaced, clipped to the bar end
//  3. simplify: rests are cut at segment boundaries and merged
//  4. optimize: runs holding a non-printable rest are re-spelled by a
//     best-first search over a quantized grid
//  5. simplify again, then a bar without struck entries is normalised
//     to the whole-bar rest
//
// The result is committed only when every pass succeeds, so a RhythmError
// leaves the bar exactly as it was.
//
// DETERMINISM:
//
// Every time value is an exact frac.Q. Search scores are integers and the
// heap breaks ties on a fixed total order over (elapsed, emitted,
// remaining), so a given sequence of splices always yields the same rhythm.
//
// Bar has no internal locking. Callers serialize edits.
package rhythm
