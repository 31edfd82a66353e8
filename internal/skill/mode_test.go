package skill

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func at(x, y float64) Reading {
	return Reading{X: x, Y: y, Size: 10, Area: 500}
}

func TestModeErrorAndGate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mode     ModeID
		reading  Reading
		wantErr  float64
		onTarget bool
	}{
		{"line on guide", ModeLine, at(100, 240), 0, true},
		{"line off guide", ModeLine, at(100, 260), 20, false},
		{"line at tolerance", ModeLine, at(100, 252), 12, false},
		{"circle on ring", ModeCircle, at(420, 240), 0, true},
		{"circle outside ring", ModeCircle, at(450, 240), 30, false},
		{"needle on target", ModeNeedleTarget, at(320, 240), 0, true},
		{"needle off target", ModeNeedleTarget, at(323, 244), 5, true},
		{"needle far", ModeNeedleTarget, at(332, 240), 12, false},
		{"brain on path", ModeBrain, at(80, 300), 0, true},
		{"brain beyond tolerance", ModeBrain, at(80, 330), 15, false},
		{"suturing stitch centre", ModeSuturing, at(90, 240), 0, true},
		{"suturing spacing at tolerance", ModeSuturing, at(100, 240), 10, false},
		{"depth drill in band", ModeDepthDrill, Reading{X: 1, Y: 1, Size: 20}, 0, true},
		{"depth drill band upper edge", ModeDepthDrill, Reading{X: 1, Y: 1, Size: 40}, 0, false},
		{"depth drill band lower edge", ModeDepthDrill, Reading{X: 1, Y: 1, Size: 15}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := LookupMode(tt.mode)
			require.NoError(t, err)

			got := m.Error(tt.reading)
			assert.InDelta(t, tt.wantErr, got, 1e-9)
			require.NotNil(t, m.OnTarget)
			assert.Equal(t, tt.onTarget, m.OnTarget(tt.reading, got))
		})
	}
}

func TestVisualOnlyModesNeverAdvance(t *testing.T) {
	t.Parallel()

	for _, id := range []ModeID{ModeMicro, ModeAngle} {
		m, err := LookupMode(id)
		require.NoError(t, err)
		assert.Nil(t, m.OnTarget, id)
		assert.Zero(t, m.Error(at(0, 0)), id)
	}
}

func TestBrainRestrictedZoneIsStrict(t *testing.T) {
	t.Parallel()

	m, err := LookupMode(ModeBrain)
	require.NoError(t, err)
	require.NotNil(t, m.InZone)

	assert.True(t, m.InZone(at(350, 200)))
	assert.False(t, m.InZone(at(300, 200)), "left edge")
	assert.False(t, m.InZone(at(350, 240)), "bottom edge")
	assert.False(t, m.InZone(at(450, 200)))
}

func TestLookupModeUnknown(t *testing.T) {
	t.Parallel()

	_, err := LookupMode("spiral")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMode))

	_, err = ParseModeID("")
	assert.ErrorIs(t, err, ErrUnknownMode)

	id, err := ParseModeID("needle_target")
	require.NoError(t, err)
	assert.Equal(t, ModeNeedleTarget, id)
}

func TestModesRegistry(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []ModeID{
		ModeAngle, ModeBrain, ModeCircle, ModeDepthDrill,
		ModeLine, ModeMicro, ModeNeedleTarget, ModeSuturing,
	}, Modes())
}

func TestIdealPath(t *testing.T) {
	t.Parallel()

	line, err := LookupMode(ModeLine)
	require.NoError(t, err)
	path := line.IdealPath(5)
	require.Len(t, path, 109)
	assert.Equal(t, r2.Vec{X: 50, Y: 240}, path[0])
	assert.Equal(t, r2.Vec{X: 590, Y: 240}, path[len(path)-1])

	drill, err := LookupMode(ModeDepthDrill)
	require.NoError(t, err)
	assert.Empty(t, drill.IdealPath(5))

	needle, err := LookupMode(ModeNeedleTarget)
	require.NoError(t, err)
	assert.Equal(t, []r2.Vec{{X: 320, Y: 240}}, needle.IdealPath(5))

	suturing, err := LookupMode(ModeSuturing)
	require.NoError(t, err)
	for _, p := range suturing.IdealPath(5) {
		assert.True(t, p.Y == 220 || p.Y == 280, "guide point %v", p)
	}
}

func TestPolylineDistance(t *testing.T) {
	t.Parallel()

	path := []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	tests := []struct {
		p    r2.Vec
		want float64
	}{
		{r2.Vec{X: 5, Y: 3}, 3},
		{r2.Vec{X: -4, Y: 3}, 5},
		{r2.Vec{X: 13, Y: 5}, 3},
		{r2.Vec{X: 10, Y: 14}, 4},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, polylineDistance(tt.p, path), 1e-9, "%v", tt.p)
	}
}
