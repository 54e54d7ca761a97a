package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testScore = `score: {
	title: "Etude"
	voices: ["v"]
	measures: [{time: "4/4", repeat: 2}]
}
`

// executeCommand runs the root command with args and returns what it wrote.
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeScore(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "score.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// logFixture is a score file and an empty edit log in a temp directory.
type logFixture struct {
	dir   string
	score string
	db    string
}

func newLogFixture(t *testing.T) logFixture {
	t.Helper()
	dir := t.TempDir()
	return logFixture{
		dir:   dir,
		score: writeScore(t, dir, testScore),
		db:    filepath.Join(dir, "edits.db"),
	}
}

func (f logFixture) args(cmd string, extra ...string) []string {
	return append([]string{cmd, "--db", f.db, "--score", f.score}, extra...)
}

func (f logFixture) edit(t *testing.T, extra ...string) {
	t.Helper()
	_, _, err := executeCommand(t, "", f.args("edit", extra...)...)
	require.NoError(t, err)
}

// decodeResponse parses a JSON envelope and decodes its data into out.
func decodeResponse(t *testing.T, stdout string, out any) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), "stdout: %s", stdout)
	if out != nil && resp.Data != nil {
		data, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, out))
	}
	return resp
}
