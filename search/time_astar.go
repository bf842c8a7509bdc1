package search

import (
	"fmt"
	"threatnav-go/graph"
	"threatnav-go/grid"
	"threatnav-go/threat"
)

// Weights blend the three parts of a time-expanded edge cost.
type Weights struct {
	Exposure float64 `json:"exposure" yaml:"exposure"`
	Move     float64 `json:"move" yaml:"move"`
	Wait     float64 `json:"wait" yaml:"wait"`
}

// TimeWindow accepts arrival at the goal location at any time in [T0, T1].
type TimeWindow struct {
	T0 float64 `json:"start" yaml:"start"`
	T1 float64 `json:"end" yaml:"end"`
}

// Contains reports whether t lies in the window, bounds included.
func (w TimeWindow) Contains(t float64) bool {
	return t >= w.T0 && t <= w.T1
}

// TimeParams configures TimeAstar.
type TimeParams struct {
	Weights Weights
	Wait    bool
	Window  *TimeWindow
}

// TimeAstar searches a time-expanded graph. Each step advances one time index
// and costs
//
//	Exposure*field(x, y, t) + Move*distance + Wait*dt
//
// evaluated at the destination node. With a window, any node at the goal
// location whose time lies in the window is accepted; otherwise only the exact
// goal node is.
func TimeAstar(g *graph.Graph, field threat.DynamicField, start, goal grid.Node, params TimeParams, opts ...Option) (Result, error) {
	env, ok := g.Env().(grid.TimeEnvironment)
	if !ok {
		return Result{}, fmt.Errorf("%w: %T", ErrNotTimeExpanded, g.Env())
	}
	spatialCount := env.SpatialCount()
	w := params.Weights

	return run(g, start, goal, problem{
		variant: "time_astar",
		neighbors: func(node grid.Node) []grid.Node {
			return env.NeighborsInTime(node, params.Wait)
		},
		edgeCost: func(from, to grid.Node) float64 {
			return w.Exposure*field.Value(to.X, to.Y, to.Time) +
				w.Move*env.SpatialDistance(from, to) +
				w.Wait*(to.Time-from.Time)
		},
		isGoal: func(node grid.Node) bool {
			if params.Window != nil && node.ID%spatialCount == goal.ID%spatialCount && params.Window.Contains(node.Time) {
				return true
			}
			return node.Equal(goal)
		},
	}, newOptions(opts))
}
