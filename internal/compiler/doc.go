// Package compiler turns CUE score definitions into ir.ScoreSpec.
//
// A definition looks like:
//
//	score: {
//		title: "Etude"
//		voices: ["upper", "lower"]
//		measures: [
//			{time: "1/4", pickup: true},
//			{time: "4/4", repeat: 3},
//			{time: "5/8", segments: [
//				{duration: "1/4", subdivisions: 2},
//				{duration: "3/8", subdivisions: 3},
//			]},
//		]
//	}
//
// Durations and time signatures are written as "n/d" strings. Float literals
// are rejected anywhere a number is expected so that every length stays exact.
//
// CompileScore only checks shape. Validate checks the compiled spec against
// the rules the engine relies on and reports every problem it finds.
package compiler
