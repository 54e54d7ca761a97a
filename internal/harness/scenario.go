package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/barline/internal/compiler"
	"github.com/roach88/barline/internal/frac"
	"github.com/roach88/barline/internal/ir"
	"github.com/roach88/barline/internal/score"
	"github.com/roach88/barline/internal/testutil"
)

// Scenario is one edit scenario.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Score is a CUE score definition, relative to the scenario file.
	// Mutually exclusive with Measures.
	Score string `yaml:"score,omitempty"`

	// Measures is a shortcut for a score with one measure per time signature.
	Measures []string `yaml:"measures,omitempty"`

	// Voices used with Measures. Defaults to a single voice "v".
	Voices []string `yaml:"voices,omitempty"`

	// Pickup marks the first shortcut measure as a pickup.
	Pickup bool `yaml:"pickup,omitempty"`

	// SearchQuota overrides the respelling search quota when positive.
	SearchQuota int `yaml:"search_quota,omitempty"`

	Flow       []FlowStep  `yaml:"flow"`
	Assertions []Assertion `yaml:"assertions"`
}

// FlowStep is one edit.
type FlowStep struct {
	Voice    string        `yaml:"voice,omitempty"`
	Measure  int           `yaml:"measure,omitempty"`
	At       string        `yaml:"at,omitempty"` // offset in whole notes, "0" when empty
	Put      string        `yaml:"put"`          // replacement tokens
	Lifetime string        `yaml:"lifetime,omitempty"`
	Expect   *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause checks a single step. Exactly one field is set.
type ExpectClause struct {
	// Rhythm is the bar after the step; "R" for the whole-bar rest.
	Rhythm string `yaml:"rhythm,omitempty"`

	// Rejected is the code the step must fail with.
	Rejected string `yaml:"rejected,omitempty"`
}

// Assertion checks the state after the flow.
type Assertion struct {
	Type string `yaml:"type"`

	Voice   string `yaml:"voice,omitempty"`
	Measure int    `yaml:"measure,omitempty"`

	// Rhythm is used by rhythm.
	Rhythm string `yaml:"rhythm,omitempty"`

	// Value is used by whole_rest; nil means true.
	Value *bool `yaml:"value,omitempty"`

	// Children is used by children.
	Children []ChildExpect `yaml:"children,omitempty"`

	// Count is used by beams.
	Count *int `yaml:"count,omitempty"`

	// Applied and Rejected are used by edit_count.
	Applied  *int `yaml:"applied,omitempty"`
	Rejected *int `yaml:"rejected,omitempty"`
}

// ChildExpect describes one child. Empty fields are not checked.
type ChildExpect struct {
	Start    string `yaml:"start,omitempty"`
	Lifetime string `yaml:"lifetime,omitempty"`
	Struck   *bool  `yaml:"struck,omitempty"`
}

// Assertion type constants.
const (
	AssertRhythm    = "rhythm"
	AssertWholeRest = "whole_rest"
	AssertChildren  = "children"
	AssertBeams     = "beams"
	AssertEditCount = "edit_count"
	AssertReplay    = "replay"
)

// LoadScenario reads and parses a scenario YAML file. A relative score
// path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Score != "" && !filepath.IsAbs(scenario.Score) {
		scenario.Score = filepath.Join(filepath.Dir(path), scenario.Score)
	}
	if scenario.Score != "" {
		if _, err := os.Stat(scenario.Score); err != nil {
			return nil, fmt.Errorf("invalid scenario: score file not found: %s", scenario.Score)
		}
	}
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML. Unknown fields are
// rejected so a typo like "assertion:" fails instead of passing silently.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// ScoreSpec builds the score the scenario runs against.
func (s *Scenario) ScoreSpec() (ir.ScoreSpec, error) {
	if s.Score != "" {
		spec, err := compiler.LoadScore(s.Score)
		if err != nil {
			return ir.ScoreSpec{}, err
		}
		return *spec, nil
	}

	voices := s.Voices
	if len(voices) == 0 {
		voices = []string{testutil.DefaultVoice}
	}
	spec, err := testutil.Spec(voices, s.Measures...)
	if err != nil {
		return ir.ScoreSpec{}, err
	}
	spec.Title = s.Name
	spec.Measures[0].Pickup = s.Pickup
	if err := compiler.Errors(compiler.Validate(spec)); err != nil {
		return ir.ScoreSpec{}, err
	}
	return spec, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Score == "" && len(s.Measures) == 0:
		return fmt.Errorf("one of score or measures is required")
	case s.Score != "" && len(s.Measures) > 0:
		return fmt.Errorf("score and measures are mutually exclusive")
	case s.Score != "" && (len(s.Voices) > 0 || s.Pickup):
		return fmt.Errorf("voices and pickup only apply to measures")
	}
	if s.SearchQuota < 0 {
		return fmt.Errorf("search_quota must be non-negative")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *FlowStep) error {
	if step.Put == "" {
		return fmt.Errorf("flow[%d]: put is required", index)
	}
	if step.Measure < 0 {
		return fmt.Errorf("flow[%d]: measure must be non-negative", index)
	}
	if step.At != "" {
		if _, err := frac.Parse(step.At); err != nil {
			return fmt.Errorf("flow[%d]: at: %w", index, err)
		}
	}
	if _, err := score.ParseLifetime(step.Lifetime); err != nil {
		return fmt.Errorf("flow[%d]: %w", index, err)
	}
	if e := step.Expect; e != nil {
		if (e.Rhythm == "") == (e.Rejected == "") {
			return fmt.Errorf("flow[%d].expect: exactly one of rhythm or rejected is required", index)
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Measure < 0 {
		return fmt.Errorf("assertions[%d]: measure must be non-negative", index)
	}

	switch a.Type {
	case AssertRhythm:
		if a.Rhythm == "" {
			return fmt.Errorf("assertions[%d]: rhythm is required for rhythm", index)
		}
	case AssertWholeRest, AssertReplay:
	case AssertChildren:
		if len(a.Children) == 0 {
			return fmt.Errorf("assertions[%d]: children list is required for children", index)
		}
		for j, c := range a.Children {
			if c.Start != "" {
				if _, err := frac.Parse(c.Start); err != nil {
					return fmt.Errorf("assertions[%d].children[%d]: start: %w", index, j, err)
				}
			}
			if c.Lifetime != "" {
				if _, err := score.ParseLifetime(c.Lifetime); err != nil {
					return fmt.Errorf("assertions[%d].children[%d]: %w", index, j, err)
				}
			}
		}
	case AssertBeams:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for beams", index)
		}
	case AssertEditCount:
		if a.Applied == nil && a.Rejected == nil {
			return fmt.Errorf("assertions[%d]: applied or rejected is required for edit_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
