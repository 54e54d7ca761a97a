package harness

import "strings"

// StepResult is the outcome of one flow step.
type StepResult struct {
	Seq     int64  `json:"seq"`
	Voice   string `json:"voice"`
	Measure int    `json:"measure"`
	At      string `json:"at"`
	Put     string `json:"put"`
	Status  string `json:"status"`           // "applied" or "rejected"
	Code    string `json:"code,omitempty"`   // rejection code
	Rhythm  string `json:"rhythm,omitempty"` // bar after the step, applied steps only
}

// BarResult is the final state of one timeline.
type BarResult struct {
	Voice   string `json:"voice"`
	Measure int    `json:"measure"`
	Metre   string `json:"metre"`
	Rhythm  string `json:"rhythm"`
	BarHash string `json:"bar_hash"`
	Beams   int    `json:"beams"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	Steps []StepResult `json:"steps"`
	Bars  []BarResult  `json:"bars"`

	// Divergences lists what replaying the finished log reported.
	Divergences []string `json:"divergences,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with no steps.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Bars:   []BarResult{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step result.
func (r *Result) AddStep(s StepResult) {
	r.Steps = append(r.Steps, s)
}

// Bar returns the final state of one timeline.
func (r *Result) Bar(voice string, measure int) (BarResult, bool) {
	for _, b := range r.Bars {
		if b.Voice == voice && b.Measure == measure {
			return b, true
		}
	}
	return BarResult{}, false
}

// formatRhythm renders a token list the way scenarios write it.
func formatRhythm(tokens []string) string {
	if len(tokens) == 0 {
		return "R"
	}
	return strings.Join(tokens, " ")
}

// normalizeRhythm collapses whitespace so "n4  r4" matches "n4 r4".
func normalizeRhythm(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
