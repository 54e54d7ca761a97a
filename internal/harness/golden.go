package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/barline/internal/ir"
)

// Snapshot is the golden form of a scenario run.
type Snapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Steps        []StepResult `json:"steps"`
	Bars         []BarResult  `json:"bars"`
}

// toCanonicalMap converts s for ir.MarshalCanonical, which only accepts
// maps, slices and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	steps := make([]any, len(s.Steps))
	for i, st := range s.Steps {
		m := map[string]any{
			"seq":     st.Seq,
			"voice":   st.Voice,
			"measure": st.Measure,
			"at":      st.At,
			"put":     st.Put,
			"status":  st.Status,
		}
		if st.Code != "" {
			m["code"] = st.Code
		}
		if st.Rhythm != "" {
			m["rhythm"] = st.Rhythm
		}
		steps[i] = m
	}

	bars := make([]any, len(s.Bars))
	for i, b := range s.Bars {
		bars[i] = map[string]any{
			"voice":    b.Voice,
			"measure":  b.Measure,
			"metre":    b.Metre,
			"rhythm":   b.Rhythm,
			"bar_hash": b.BarHash,
			"beams":    b.Beams,
		}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"steps":         steps,
		"bars":          bars,
	}
}

// MarshalSnapshot renders a result as canonical JSON.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snap := Snapshot{ScenarioName: name, Steps: result.Steps, Bars: result.Bars}
	return ir.MarshalCanonical(snap.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
