package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(nodes []Node) []int {
	out := make([]int, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestNewXYEnvironment_Invalid(t *testing.T) {
	_, err := NewXYEnvironment(10, 10, 1, 5)
	assert.ErrorIs(t, err, ErrInvalidGrid)

	_, err = NewXYEnvironment(0, 10, 5, 5)
	assert.ErrorIs(t, err, ErrInvalidGrid)

	_, err = NewXYTEnvironment(10, 10, 5, 5, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidGrid)
}

func TestXYEnvironment_IDRoundTrip(t *testing.T) {
	env, err := NewXYEnvironment(10, 10, 20, 30)
	require.NoError(t, err)

	for id := 0; id < env.NodeCount(); id++ {
		mx, my := env.CoordFromID(id)
		assert.Equal(t, id, env.IDFromCoord(mx, my))

		x, y := env.LocationFromID(id)
		assert.Equal(t, id, env.IDFromLocation(x, y), "location round trip for id %d", id)
	}
}

func TestXYEnvironment_Neighbors(t *testing.T) {
	env, err := NewXYEnvironment(2, 2, 3, 3)
	require.NoError(t, err)

	tests := []struct {
		name     string
		id       int
		expected []int
	}{
		{"bottom-left corner", 0, []int{1, 3}},
		{"bottom edge", 1, []int{2, 0, 4}},
		{"bottom-right corner", 2, []int{1, 5}},
		{"center", 4, []int{5, 3, 7, 1}},
		{"top-right corner", 8, []int{7, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ids(env.Neighbors(env.Node(tt.id))))
		})
	}
}

func TestXYEnvironment_NeighborsPositions(t *testing.T) {
	env, err := NewXYEnvironment(2, 2, 3, 3)
	require.NoError(t, err)

	for _, nbr := range env.Neighbors(env.Node(4)) {
		x, y := env.LocationFromID(nbr.ID)
		assert.Equal(t, x, nbr.X)
		assert.Equal(t, y, nbr.Y)
		assert.Equal(t, Spatial, nbr.Kind)
		assert.InDelta(t, 1.0, env.SpatialDistance(env.Node(4), nbr), 1e-12)
	}
}

func TestXYTEnvironment_IDRoundTrip(t *testing.T) {
	env, err := NewXYTEnvironment(10, 10, 4, 5, 10, 6)
	require.NoError(t, err)

	assert.Equal(t, 20, env.SpatialCount())
	assert.Equal(t, 120, env.NodeCount())
	for id := 0; id < env.NodeCount(); id++ {
		mx, my, tIdx := env.IndexFromID(id)
		assert.Equal(t, id, env.IDFromIndex(mx, my, tIdx))

		x, y, tIdx := env.LocationFromID(id)
		assert.Equal(t, id, env.IDFromLocation(x, y, tIdx))
	}
}

func TestXYTEnvironment_NeighborsInTime(t *testing.T) {
	env, err := NewXYTEnvironment(1, 1, 2, 2, 3, 3)
	require.NoError(t, err)

	start := env.Node(0)
	assert.Equal(t, []int{4, 5, 6}, ids(env.NeighborsInTime(start, true)))
	assert.Equal(t, []int{5, 6}, ids(env.NeighborsInTime(start, false)))

	for _, nbr := range env.NeighborsInTime(start, true) {
		assert.Equal(t, 1, nbr.TimeIdx)
		assert.InDelta(t, env.TSep, nbr.Time, 1e-12)
		assert.Equal(t, SpatialTime, nbr.Kind)
	}

	last := env.Node(env.NodeCount() - 1)
	assert.Empty(t, env.NeighborsInTime(last, true))
}

func TestXYTEnvironment_NeighborsStayInRange(t *testing.T) {
	env, err := NewXYTEnvironment(10, 10, 5, 4, 10, 7)
	require.NoError(t, err)

	for id := 0; id < env.NodeCount(); id++ {
		node := env.Node(id)
		for _, wait := range []bool{true, false} {
			for _, nbr := range env.NeighborsInTime(node, wait) {
				assert.GreaterOrEqual(t, nbr.ID, 0)
				assert.Less(t, nbr.ID, env.NodeCount())
				assert.Equal(t, node.TimeIdx+1, nbr.TimeIdx)
			}
		}
	}
}

func TestEuclideanHeuristic(t *testing.T) {
	h := EuclideanHeuristic(2)
	a := Node{X: 0, Y: 0}
	b := Node{X: 3, Y: 4}
	assert.InDelta(t, 10.0, h(a, b), 1e-12)
	assert.Zero(t, ZeroHeuristic(a, b))
}
