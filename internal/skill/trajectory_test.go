package skill

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrajectoryPointJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal([]TrajectoryPoint{{X: 100, Y: 240, Depth: 12.5, State: StateOnTarget}})
	require.NoError(t, err)
	assert.JSONEq(t, `[[100,240,12.5,"on_target"]]`, string(b))

	var pts []TrajectoryPoint
	require.NoError(t, json.Unmarshal([]byte(`[[1,2,3,"high_tremor"],[4,5,6,"restricted"]]`), &pts))
	assert.Equal(t, []TrajectoryPoint{
		{X: 1, Y: 2, Depth: 3, State: StateHighTremor},
		{X: 4, Y: 5, Depth: 6, State: StateRestricted},
	}, pts)
}

func TestTrajectoryPointJSONRejectsMalformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		`[1,2,3]`,
		`[1,2,3,"sideways"]`,
		`["a",2,3,"on_target"]`,
		`{"x":1}`,
	} {
		var p TrajectoryPoint
		assert.Error(t, json.Unmarshal([]byte(in), &p), in)
	}
}

func TestTrajectoryPointsIsACopy(t *testing.T) {
	t.Parallel()

	var tr Trajectory
	assert.NotNil(t, tr.Points())
	assert.Empty(t, tr.Points())

	tr.Append(TrajectoryPoint{X: 1, State: StateOnTarget})
	tr.Append(TrajectoryPoint{X: 2, State: StateOffPath})
	pts := tr.Points()
	pts[0].X = 99
	assert.Equal(t, 1.0, tr.Points()[0].X)
	assert.Equal(t, 2, tr.Len())
}

func TestClassifyPointPriority(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StateHighTremor, classifyPoint(16, 50, true))
	assert.Equal(t, StateOffPath, classifyPoint(15, 21, true))
	assert.Equal(t, StateRestricted, classifyPoint(0, 20, true))
	assert.Equal(t, StateOnTarget, classifyPoint(0, 0, false))
}
