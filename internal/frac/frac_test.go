package frac

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestArithmetic(t *testing.T) {
	a, b := New(1, 4), New(1, 6)
	assert.Equal(t, "5/12", a.Add(b).String())
	assert.Equal(t, "1/12", a.Sub(b).String())
	assert.Equal(t, "1/24", a.Mul(b).String())
	assert.Equal(t, "3/2", a.Div(b).String())
	assert.Equal(t, "3/4", a.MulInt(3).String())
	assert.Equal(t, "1/8", a.DivInt(2).String())
	assert.Equal(t, "-1/4", a.Neg().String())

	// Operations never mutate their operands.
	assert.Equal(t, "1/4", a.String())
	assert.Equal(t, "1/6", b.String())
}

func TestZeroValue(t *testing.T) {
	var z Q
	assert.True(t, z.IsZero())
	assert.Equal(t, "0", z.String())
	assert.True(t, z.Equal(Zero))
	assert.Equal(t, "1/2", z.Add(New(1, 2)).String())
	assert.Equal(t, int64(1), z.Denom())
}

func TestReduced(t *testing.T) {
	q := New(6, 8)
	assert.Equal(t, int64(3), q.Num())
	assert.Equal(t, int64(4), q.Denom())
	assert.Equal(t, "2", New(4, 2).String())
	assert.True(t, New(4, 2).IsInt())
}

func TestCompare(t *testing.T) {
	a, b := New(1, 3), New(1, 2)
	assert.True(t, a.Less(b))
	assert.True(t, a.LessEq(a))
	assert.False(t, b.Less(a))
	assert.Equal(t, -1, a.Cmp(b))
	assert.Equal(t, a, a.Min(b))
	assert.Equal(t, b, a.Max(b))
	assert.True(t, New(2, 6).Equal(a))
	assert.True(t, a.Positive())
	assert.Equal(t, -1, a.Neg().Sign())
}

func TestFloorCeil(t *testing.T) {
	tests := []struct {
		in          string
		floor, ceil int64
	}{
		{"7/2", 3, 4},
		{"-1/2", -1, 0},
		{"-3", -3, -3},
		{"0", 0, 0},
		{"5/3", 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			q := MustParse(tt.in)
			assert.Equal(t, tt.floor, q.Floor())
			assert.Equal(t, tt.ceil, q.Ceil())
		})
	}
}

func TestParse(t *testing.T) {
	q, err := Parse(" 3/8 ")
	require.NoError(t, err)
	assert.Equal(t, "3/8", q.String())

	q, err = Parse("2")
	require.NoError(t, err)
	assert.True(t, q.Equal(Int(2)))

	for _, bad := range []string{"", "x", "1/0", "1/2/3"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
	assert.Panics(t, func() { MustParse("nope") })
	assert.Panics(t, func() { New(1, 0) })
}

func TestGCDLCM(t *testing.T) {
	assert.Equal(t, int64(4), GCD(12, -8))
	assert.Equal(t, int64(5), GCD(0, 5))
	assert.Equal(t, int64(24), LCM(8, 12))
	assert.Equal(t, int64(7), LCM(0, 7))
	assert.Equal(t, int64(7), LCM(7, 0))
}

func TestJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		At Q `json:"at"`
	}{At: New(3, 8)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"3/8"}`, string(data))

	var out struct {
		At Q `json:"at"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, out.At.Equal(New(3, 8)))

	assert.Error(t, json.Unmarshal([]byte(`{"at":0.375}`), &out))
}

func TestYAML(t *testing.T) {
	var out struct {
		Start Q `yaml:"start"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("start: 5/8\n"), &out))
	assert.Equal(t, "5/8", out.Start.String())

	data, err := yaml.Marshal(struct {
		Start Q `yaml:"start"`
	}{Start: New(1, 6)})
	require.NoError(t, err)
	assert.Equal(t, "start: 1/6\n", string(data))
}

func TestFloat64(t *testing.T) {
	assert.InDelta(t, 0.375, New(3, 8).Float64(), 1e-12)
}
