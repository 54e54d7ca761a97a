package rhythm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/barline/internal/frac"
)

func TestBeamDegrees(t *testing.T) {
	m := MustMetre(4, 4)
	notes := []Duration{Plain(Eighth), Plain(Eighth), Plain(Sixteenth), Plain(Sixteenth)}

	got := m.BeamDegrees(frac.Zero, notes)
	assert.Equal(t, []BeamDegree{{0, 1}, {1, 0}, {0, 2}, {2, 0}}, got)
}

func TestBeamDegrees_MixedFlags(t *testing.T) {
	m := MustMetre(2, 4)
	notes := []Duration{Plain(Sixteenth), Plain(ThirtySecond), Plain(ThirtySecond), Plain(Eighth)}

	got := m.BeamDegrees(frac.Zero, notes)
	assert.Equal(t, []BeamDegree{{0, 2}, {2, 3}, {3, 1}, {1, 0}}, got)
}

func TestBeamDegrees_NoFlags(t *testing.T) {
	m := MustMetre(3, 4)
	got := m.BeamDegrees(frac.Zero, []Duration{Plain(Quarter), Plain(Eighth), Plain(Eighth)})
	assert.Equal(t, []BeamDegree{{0, 0}, {0, 1}, {1, 0}}, got)
	assert.Empty(t, m.BeamDegrees(frac.Zero, nil))
}
