package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Text(t *testing.T) {
	path := writeScore(t, t.TempDir(), testScore)

	stdout, _, err := executeCommand(t, "", "compile", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Etude")
	assert.Contains(t, stdout, "voices:   1")
	assert.Contains(t, stdout, "measures: 2")
}

func TestCompile_OutputFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScore(t, dir, testScore)
	out := filepath.Join(dir, "score.json")

	stdout, _, err := executeCommand(t, "", "compile", path, "-o", out, "--format", "json")
	require.NoError(t, err)

	var printed CompileResult
	decodeResponse(t, stdout, &printed)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var written CompileResult
	require.NoError(t, json.Unmarshal(data, &written))

	assert.Equal(t, printed.ScoreHash, written.ScoreHash)
	assert.Len(t, written.ScoreHash, 64)
	assert.Equal(t, "Etude", written.Score.Title)
}

func TestCompile_HashIgnoresFormatting(t *testing.T) {
	a := writeScore(t, t.TempDir(), testScore)
	b := writeScore(t, t.TempDir(), `score: {title: "Etude", voices: ["v"], measures: [{time: "4/4"}, {time: "4/4"}]}`)

	hashOf := func(path string) string {
		stdout, _, err := executeCommand(t, "", "compile", path, "--format", "json")
		require.NoError(t, err)
		var r CompileResult
		decodeResponse(t, stdout, &r)
		return r.ScoreHash
	}
	assert.Equal(t, hashOf(a), hashOf(b))
}

func TestCompile_Invalid(t *testing.T) {
	path := writeScore(t, t.TempDir(), `score: {voices: [], measures: []}`)

	_, _, err := executeCommand(t, "", "compile", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
