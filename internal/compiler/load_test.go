package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waltzSource = `package demo

score: {
	title: "Waltz"
	voices: ["melody"]
	measures: [{time: "3/4", repeat: 8}]
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScore_File(t *testing.T) {
	path := writeFile(t, t.TempDir(), "waltz.cue", waltzSource)

	spec, err := LoadScore(path)
	require.NoError(t, err)
	assert.Equal(t, "Waltz", spec.Title)
	assert.Len(t, spec.Measures, 8)
}

func TestLoadScore_Dir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "score.cue", waltzSource)

	spec, err := LoadScore(dir)
	require.NoError(t, err)
	assert.Equal(t, "melody", spec.Voices[0].Name)
}

func TestLoadScore_ValidationFails(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.cue", `score: {
	voices: ["a", "a"]
	measures: [{time: "4/3"}]
}
`)

	_, err := LoadScore(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[E103]")
	assert.Contains(t, err.Error(), "[E105]")

	spec, err := CompileFile(path)
	require.NoError(t, err, "CompileFile does not validate")
	assert.Len(t, Validate(*spec), 2)
}

func TestLoadScore_Missing(t *testing.T) {
	_, err := LoadScore(filepath.Join(t.TempDir(), "nope.cue"))
	assert.Error(t, err)
}

func TestLoadScore_SyntaxError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.cue", "score: {\n")
	_, err := LoadScore(path)
	assert.Error(t, err)
}
