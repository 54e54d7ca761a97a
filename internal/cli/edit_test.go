package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdit_AppliesAndPrintsBar(t *testing.T) {
	fx := newLogFixture(t)

	stdout, _, err := executeCommand(t, "", fx.args("edit", "--at", "1/4", "n4")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ seq 1 v/0")
	assert.Contains(t, stdout, "4/4 | r4 n4 r2 |")
}

func TestEdit_ResumesFromLog(t *testing.T) {
	fx := newLogFixture(t)
	fx.edit(t, "--at", "1/4", "n4")

	stdout, _, err := executeCommand(t, "", fx.args("edit", "--format", "json", "--at", "1/2", "n4")...)
	require.NoError(t, err)

	var out EditResult
	resp := decodeResponse(t, stdout, &out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(2), out.Seq)
	assert.Equal(t, "applied", out.Status)
	assert.Equal(t, "r4 n4 n4 r4", out.Rhythm)
	assert.Len(t, out.BarHash, 64)
	require.NotNil(t, out.Bar)
	assert.Equal(t, "4/4", out.Bar.Metre)
	assert.Len(t, out.Bar.Children, 4)
}

func TestEdit_Rejected(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"measure out of range", []string{"--measure", "5", "n4"}, "MEASURE_OUT_OF_RANGE"},
		{"unknown voice", []string{"--voice", "oboe", "n4"}, "UNKNOWN_VOICE"},
		{"too many dots", []string{"n4....."}, "TOO_MANY_DOTS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newLogFixture(t)

			args := fx.args("edit", append([]string{"--format", "json"}, tt.args...)...)
			stdout, _, err := executeCommand(t, "", args...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var out EditResult
			resp := decodeResponse(t, stdout, &out)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, ErrCodeRejected, resp.Error.Code)
			assert.Equal(t, "rejected", out.Status)
			assert.Equal(t, tt.code, out.Code)
			assert.Equal(t, int64(1), out.Seq, "rejected edits are logged")
			assert.Nil(t, out.Bar)
		})
	}
}

func TestEdit_RejectedText(t *testing.T) {
	fx := newLogFixture(t)

	stdout, _, err := executeCommand(t, "", fx.args("edit", "--measure", "2", "n4")...)
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ seq 1 v/2 rejected [MEASURE_OUT_OF_RANGE]")
}

func TestEdit_InvalidFlags(t *testing.T) {
	fx := newLogFixture(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad offset", []string{"--at", "x", "n4"}},
		{"bad lifetime", []string{"--lifetime", "forever", "n4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, "", fx.args("edit", tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestEdit_ScoreMismatch(t *testing.T) {
	fx := newLogFixture(t)
	fx.edit(t, "n4")

	other := writeScore(t, t.TempDir(), `score: {
	voices: ["v"]
	measures: [{time: "3/4"}]
}
`)
	_, _, err := executeCommand(t, "", "edit", "--db", fx.db, "--score", other, "n4")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "log belongs to a different score")
}

func TestEdit_MissingScore(t *testing.T) {
	fx := newLogFixture(t)

	_, _, err := executeCommand(t, "", "edit", "--db", fx.db, "--score", fx.dir+"/nope.cue", "n4")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEdit_RequiresLogFlags(t *testing.T) {
	_, _, err := executeCommand(t, "", "edit", "n4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
