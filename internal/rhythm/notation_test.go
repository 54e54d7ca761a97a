package rhythm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/barline/internal/frac"
)

func TestParseEntry(t *testing.T) {
	tests := []struct {
		token   string
		struck  bool
		display string
		tuplet  string
	}{
		{"n4", true, "1/4", "1"},
		{"r2.", false, "3/4", "1"},
		{"n8@3/2", true, "1/8", "3/2"},
		{"r[5/16]", false, "5/16", "1"},
		{"n1", true, "1", "1"},
		{"rbreve", false, "2", "1"},
		{"n16..@5/4", true, "7/64", "5/4"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			e, err := ParseEntry(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.struck, e.Struck)
			assert.Equal(t, tt.display, e.Duration.DisplayDuration().String())
			assert.Equal(t, tt.tuplet, e.Duration.Tuplet().String())
			assert.Equal(t, tt.token, e.String())
		})
	}
}

func TestParseEntry_Errors(t *testing.T) {
	for _, token := range []string{"", "x4", "n3", "n4@0", "r[0]", "n4@", "n"} {
		_, err := ParseEntry(token)
		assert.Error(t, err, token)
	}

	_, err := ParseEntry("n4.....")
	require.Error(t, err)
	assert.True(t, IsTooManyDots(err))
}

func TestParseEntries(t *testing.T) {
	es, err := ParseEntries("  n4 r4\tr2 ")
	require.NoError(t, err)
	require.Len(t, es, 3)
	assert.Equal(t, "n4 r4 r2", FormatEntries(es))

	es, err = ParseEntries("")
	require.NoError(t, err)
	assert.Empty(t, es)

	_, err = ParseEntries("n4 bogus")
	assert.Error(t, err)
}

func TestEntry_StringWholeRest(t *testing.T) {
	assert.Equal(t, "R", Rest(NewWholeRest(frac.One)).String())
}
