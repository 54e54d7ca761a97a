package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Text(t *testing.T) {
	fx := newLogFixture(t)
	fx.edit(t, "--at", "1/4", "n4")

	stdout, _, err := executeCommand(t, "", fx.args("render")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Line 1:")
	assert.Contains(t, stdout, "[0] 4/4 x=0.0 w=80.0")
	assert.Contains(t, stdout, "v: | r4 n4 r2 |")
	assert.NotContains(t, stdout, "Line 2:")
}

func TestRender_LineBreaks(t *testing.T) {
	fx := newLogFixture(t)
	fx.edit(t, "--at", "1/4", "n4")

	stdout, _, err := executeCommand(t, "", fx.args("render", "--line-width", "50", "--format", "json")...)
	require.NoError(t, err)

	var result RenderResult
	decodeResponse(t, stdout, &result)
	require.Len(t, result.Lines, 2)
	assert.Equal(t, 0, result.Lines[0][0].Measure)
	assert.Equal(t, 1, result.Lines[1][0].Measure)
	assert.Zero(t, result.Lines[1][0].X, "each line starts at 0")

	bar := result.Lines[0][0]
	require.Len(t, bar.Voices, 1)
	children := bar.Voices[0].Children
	require.Len(t, children, 3)
	assert.Equal(t, []float64{0, 20, 40}, []float64{children[0].X, children[1].X, children[2].X})
	assert.Equal(t, 40.0, children[2].Width, "a half is one unit wider than a quarter")
	assert.True(t, children[1].Struck)
	assert.Equal(t, "n4", children[1].Token)
}

func TestRender_PNG(t *testing.T) {
	fx := newLogFixture(t)
	fx.edit(t, "--at", "1/4", "n4")
	out := filepath.Join(fx.dir, "score.png")

	stdout, _, err := executeCommand(t, "", fx.args("render", "--png", out)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Wrote "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")))
}

func TestRender_InvalidUnit(t *testing.T) {
	fx := newLogFixture(t)

	_, _, err := executeCommand(t, "", fx.args("render", "--unit", "0")...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
