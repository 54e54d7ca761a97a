package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"compile", "validate", "splice", "edit", "run", "replay", "trace", "test", "render"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, _, err := executeCommand(t, "", "splice", "--format", "yaml", "n4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestRootCommand_OptionsBound(t *testing.T) {
	opts := &RootOptions{}
	cmd := NewRootCommandWithOptions(opts)
	cmd.SetArgs([]string{"--verbose", "--format", "json", "splice", "n1"})
	cmd.SetOut(new(nopWriter))

	require.NoError(t, cmd.Execute())
	assert.True(t, opts.Verbose)
	assert.Equal(t, "json", opts.Format)
}

type nopWriter struct{}

func (*nopWriter) Write(p []byte) (int, error) { return len(p), nil }
