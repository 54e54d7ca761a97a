package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "../harness/testdata/scenarios"

func TestTest_HarnessScenariosPass(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "test", scenariosDir, "--format", "json")
	require.NoError(t, err)

	var result TestResult
	resp := decodeResponse(t, stdout, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 5, result.Passed)
	for _, sr := range result.Scenarios {
		assert.Equal(t, "match", sr.Golden, sr.Name)
	}
}

func TestTest_Filter(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "test", scenariosDir, "--filter", "waltz")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ two_voice_waltz (golden: match)")
	assert.Contains(t, stdout, "1 passed, 0 failed")
}

func TestTest_UpdateThenMatch(t *testing.T) {
	golden := t.TempDir()

	_, _, err := executeCommand(t, "", "test", scenariosDir, "--golden", golden, "--filter", "compound", "--update")
	require.NoError(t, err)

	want, err := os.ReadFile(filepath.Join(scenariosDir, "..", "golden", "compound_time_eighths.golden"))
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(golden, "compound_time_eighths.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	stdout, _, err := executeCommand(t, "", "test", scenariosDir, "--golden", golden, "--filter", "compound")
	require.NoError(t, err)
	assert.Contains(t, stdout, "(golden: match)")
}

func TestTest_MissingGolden(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "test", scenariosDir, "--golden", t.TempDir(), "--filter", "pickup")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ pickup_measure (golden: missing)")
}

func TestTest_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	scenarios := filepath.Join(dir, "scenarios")
	require.NoError(t, os.Mkdir(scenarios, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "wrong.yaml"), []byte(`name: wrong
description: "expects the wrong rhythm"
measures: ["4/4"]
flow:
  - put: "n4"
assertions:
  - type: rhythm
    rhythm: "n2 r2"
`), 0o644))

	_, _, err := executeCommand(t, "", "test", scenarios, "--update")
	require.Error(t, err, "assertion failures fail even when updating goldens")

	stdout, _, err := executeCommand(t, "", "test", scenarios, "--format", "json")
	require.Error(t, err)

	var result TestResult
	resp := decodeResponse(t, stdout, &result)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	require.Len(t, result.Scenarios, 1)
	assert.False(t, result.Scenarios[0].Pass)
	assert.Equal(t, "match", result.Scenarios[0].Golden)
	assert.NotEmpty(t, result.Scenarios[0].Errors)
}

func TestTest_BadDirectory(t *testing.T) {
	_, _, err := executeCommand(t, "", "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_BrokenScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [\n"), 0o644))

	_, _, err := executeCommand(t, "", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
