package planner

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"threatnav-go/core"
	"threatnav-go/search"
	"threatnav-go/threat"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	searches int
	costs    []float64
}

func (r *fakeRecorder) ObserveSearch(string, bool, int, time.Duration) { r.searches++ }

func (r *fakeRecorder) ObservePathCost(_ string, cost float64) { r.costs = append(r.costs, cost) }

func spatialConfig() *core.Config {
	cfg := core.DefaultConfig()
	cfg.Grid = core.GridConfig{XSize: 4, YSize: 4, XPts: 5, YPts: 5}
	cfg.Time = core.TimeConfig{}
	cfg.Route = core.RouteConfig{Start: core.PointConfig{X: 0, Y: 0}, Goal: core.GoalConfig{X: 4, Y: 4}}
	cfg.Field = core.FieldConfig{
		Offset: 1,
		Threats: []threat.GaussDynamicThreat{
			{GaussThreat: threat.GaussThreat{Location: threat.Point{X: 2, Y: 2}, Shape: threat.Point{X: 1, Y: 1}, Intensity: 5}},
		},
	}
	return cfg
}

func timedConfig() *core.Config {
	cfg := spatialConfig()
	cfg.Time = core.TimeConfig{Enabled: true, TFinal: 12, TPts: 12, Wait: true}
	cfg.Field.Random = &core.RandomFieldConfig{Count: 3, Seed: 5}
	return cfg
}

func newPlanner(t *testing.T, cfg *core.Config, opts ...Option) *Planner {
	t.Helper()
	require.NoError(t, cfg.Validate())
	scenario, err := NewScenario(cfg, core.NewFileManager(t.TempDir()))
	require.NoError(t, err)
	return New(scenario, opts...)
}

func TestPlanner_Spatial(t *testing.T) {
	rec := &fakeRecorder{}
	p := newPlanner(t, spatialConfig(), WithRecorder(rec))

	plan, err := p.Plan(context.Background(), PlanRequest{}, nil)
	require.NoError(t, err)
	require.True(t, plan.Found)

	assert.Equal(t, "astar", plan.Variant)
	assert.False(t, plan.Wait)
	_, err = uuid.Parse(plan.RunID)
	assert.NoError(t, err)
	require.Len(t, plan.Waypoints, 9)
	assert.Equal(t, 0, plan.Waypoints[0].ID)
	assert.Equal(t, 24, plan.Waypoints[8].ID)

	// Nine waypoints, eight moves, each costing at least the offset.
	assert.Greater(t, plan.Cost, 8.0)
	require.Len(t, plan.Threat, 9)
	sum := 0.0
	for i, node := range plan.Waypoints {
		assert.InDelta(t, p.Scenario().Field.Value(node.X, node.Y, 0), plan.Threat[i], 1e-12)
		if i > 0 {
			sum += plan.Threat[i]
		}
	}
	assert.InDelta(t, plan.Cost, sum, 1e-9)
	assert.Equal(t, 1, rec.searches)
	assert.Equal(t, []float64{plan.Cost}, rec.costs)
}

func TestPlanner_Timed(t *testing.T) {
	p := newPlanner(t, timedConfig())

	var steps int
	plan, err := p.Plan(context.Background(), PlanRequest{}, func(search.Step) error {
		steps++
		return nil
	})
	require.NoError(t, err)
	require.True(t, plan.Found)
	assert.Equal(t, "time_astar", plan.Variant)
	assert.True(t, plan.Wait)
	assert.Equal(t, plan.Expanded, steps)

	last := plan.Waypoints[len(plan.Waypoints)-1]
	assert.Equal(t, 11, last.TimeIdx)
	assert.Equal(t, 4.0, last.X)
	assert.Equal(t, 4.0, last.Y)
}

func TestPlanner_Overrides(t *testing.T) {
	p := newPlanner(t, timedConfig())
	noWait := false
	tIdx := 8
	req := PlanRequest{
		Wait:    &noWait,
		Weights: &search.Weights{Move: 1},
		Goal:    &core.GoalConfig{X: 4, Y: 4, TIdx: &tIdx},
	}

	plan, err := p.Plan(context.Background(), req, nil)
	require.NoError(t, err)
	require.True(t, plan.Found)
	assert.False(t, plan.Wait)
	assert.Len(t, plan.Waypoints, 9)
	assert.InDelta(t, 8.0, plan.Cost, 1e-9)

	req.Window = &search.TimeWindow{T0: 3, T1: 1}
	_, err = p.Plan(context.Background(), req, nil)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestPlanner_OutOfBounds(t *testing.T) {
	p := newPlanner(t, spatialConfig())

	_, err := p.Plan(context.Background(), PlanRequest{Start: &core.PointConfig{X: -1, Y: 0}}, nil)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = p.Plan(context.Background(), PlanRequest{Goal: &core.GoalConfig{X: 2, Y: 9}}, nil)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestPlanner_ExpansionLimit(t *testing.T) {
	cfg := spatialConfig()
	cfg.Search.MaxExpansions = 3
	p := newPlanner(t, cfg)

	_, err := p.Plan(context.Background(), PlanRequest{}, nil)
	assert.ErrorIs(t, err, ErrExpansionLimit)
	assert.ErrorIs(t, err, search.ErrAborted)
}

func TestPlanner_Cancelled(t *testing.T) {
	p := newPlanner(t, timedConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Plan(ctx, PlanRequest{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlanner_ObserverAborts(t *testing.T) {
	p := newPlanner(t, spatialConfig())
	stop := errors.New("client went away")

	_, err := p.Plan(context.Background(), PlanRequest{}, func(search.Step) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestPlanner_EuclideanHeuristicKeepsCost(t *testing.T) {
	cfg := timedConfig()
	zero := newPlanner(t, cfg)
	plain, err := zero.Plan(context.Background(), PlanRequest{}, nil)
	require.NoError(t, err)

	guidedCfg := timedConfig()
	guidedCfg.Search.Heuristic = "euclidean"
	guided, err := newPlanner(t, guidedCfg).Plan(context.Background(), PlanRequest{}, nil)
	require.NoError(t, err)

	assert.InDelta(t, plain.Cost, guided.Cost, 1e-9)
	assert.LessOrEqual(t, guided.Expanded, plain.Expanded)
}

func TestPlanner_CompareWait(t *testing.T) {
	cfg := timedConfig()
	// Without waiting the exact final-layer goal has the wrong parity.
	cfg.Time.Window = &core.WindowConfig{Start: 0, End: cfg.Time.TFinal}
	p := newPlanner(t, cfg)

	results, err := p.CompareWait(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Run)
		assert.Equal(t, int64(5+i), r.Seed)
		assert.Equal(t, 4, r.NThreats)
		require.True(t, r.Wait.Found)
		require.True(t, r.NoWait.Found)
		assert.GreaterOrEqual(t, r.Saving(), -1e-9)
	}
	assert.NotEqual(t, results[0].Wait.Cost, results[1].Wait.Cost)

	_, err = newPlanner(t, spatialConfig()).CompareWait(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoTimeDimension)
}

func TestNewScenario_ThreatsFile(t *testing.T) {
	dir := t.TempDir()
	content := `[{"location": {"x": 1, "y": 1}, "shape": {"x": 1, "y": 1}, "intensity": 2}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "threats.json"), []byte(content), 0644))

	cfg := spatialConfig()
	cfg.Field.ThreatsFile = "threats.json"
	scenario, err := NewScenario(cfg, core.NewFileManager(dir))
	require.NoError(t, err)
	assert.Len(t, scenario.Field.Threats, 2)
	assert.False(t, scenario.HasTime())

	cfg.Field.ThreatsFile = "missing.json"
	_, err = NewScenario(cfg, core.NewFileManager(dir))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewScenario_RejectsDegenerateShapes(t *testing.T) {
	cfg := spatialConfig()
	cfg.Field.Threats[0].Shape = threat.Point{X: 0, Y: 0}
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)

	dir := t.TempDir()
	flat := `[{"location": {"x": 1, "y": 1}, "shape": {"x": 0, "y": 1}, "intensity": 2}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flat.json"), []byte(flat), 0644))
	cfg = spatialConfig()
	cfg.Field.ThreatsFile = "flat.json"
	_, err := NewScenario(cfg, core.NewFileManager(dir))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	// Shape reaches zero at t=10, inside the 12 step horizon.
	shrinking := `[{"location": {"x": 1, "y": 1}, "shape": {"x": 1, "y": 1}, "shape_rate": {"x": -0.1, "y": 0}, "intensity": 2}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shrinking.json"), []byte(shrinking), 0644))
	cfg = timedConfig()
	cfg.Field.ThreatsFile = "shrinking.json"
	_, err = NewScenario(cfg, core.NewFileManager(dir))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	cfg = spatialConfig()
	cfg.Field.ThreatsFile = "shrinking.json"
	scenario, err := NewScenario(cfg, core.NewFileManager(dir))
	require.NoError(t, err)
	plan, err := New(scenario).Plan(context.Background(), PlanRequest{}, nil)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(plan.Cost))
}

func TestScenario_GoalDefaultsToFinalLayer(t *testing.T) {
	scenario, err := NewScenario(timedConfig(), core.NewFileManager(t.TempDir()))
	require.NoError(t, err)

	goal, err := scenario.GoalNode(core.GoalConfig{X: 3.9, Y: 0.2})
	require.NoError(t, err)
	assert.Equal(t, 11, goal.TimeIdx)
	assert.Equal(t, 4.0, goal.X)
	assert.Equal(t, 0.0, goal.Y)

	start, err := scenario.StartNode(core.PointConfig{X: 1, Y: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, start.TimeIdx)
	assert.Equal(t, 6, start.ID)
}
