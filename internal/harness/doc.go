// Package harness runs edit scenarios against a real engine.
//
// A scenario names a score, a flow of edits and assertions on the bars the
// flow leaves behind. Each run gets a fresh in-memory store, a sequence slot
// id generator and its own engine, so the same scenario always produces the
// same log, the same bar hashes and the same golden snapshot.
//
// # Scenario Format
//
//	name: dotted_rhythms_in_compound_time
//	description: "Dotted quarters fill 6/8 by halves"
//	measures: ["6/8"]          # or score: path/to/score.cue
//	voices: [melody]           # defaults to a single voice "v"
//	flow:
//	  - at: "0"
//	    put: "n4."
//	    expect:
//	      rhythm: "n4. r4."
//	  - measure: 3
//	    put: "n4"
//	    expect:
//	      rejected: MEASURE_OUT_OF_RANGE
//	assertions:
//	  - type: rhythm
//	    rhythm: "n4. r4."
//	  - type: replay
//
// Omitted voices default to the first voice of the score, omitted measures
// to 0 and omitted offsets to the start of the bar. The whole-bar rest is
// written "R".
//
// # Assertion Types
//
//   - rhythm: the bar reads exactly as the given tokens
//   - whole_rest: the bar does (value: true, the default) or does not hold
//     only the whole-bar rest
//   - children: start, lifetime and struck flag of every child, in order
//   - beams: number of beam groups in the bar
//   - edit_count: applied and/or rejected edits in the log
//   - replay: replaying the log reproduces every bar hash
//
// # Golden Snapshots
//
// RunWithGolden stores the step results and final bars as canonical JSON
// under testdata/golden/<name>.golden. Regenerate with
//
//	go test ./internal/harness -update
package harness
