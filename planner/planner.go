// Package planner turns a scenario config into searches: it builds the grid,
// field and graph, runs the matching search variant and reports plans.
package planner

import (
	"context"
	"threatnav-go/core"
	"threatnav-go/graph"
	"threatnav-go/grid"
	"threatnav-go/search"
	"threatnav-go/threat"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrExpansionLimit stops a search that closed more vertices than allowed.
var ErrExpansionLimit = errors.New("expansion limit reached")

// Recorder receives search and plan statistics.
type Recorder interface {
	search.Recorder
	ObservePathCost(variant string, cost float64)
}

// PlanRequest overrides parts of the scenario for a single plan. Nil fields
// keep the configured value.
type PlanRequest struct {
	Wait    *bool              `json:"wait,omitempty"`
	Window  *search.TimeWindow `json:"window,omitempty"`
	Weights *search.Weights    `json:"weights,omitempty"`
	Start   *core.PointConfig  `json:"start,omitempty"`
	Goal    *core.GoalConfig   `json:"goal,omitempty"`
}

// Plan is the outcome of one search. Threat[i] is the field sampled at
// Waypoints[i].
type Plan struct {
	RunID     string        `json:"run_id"`
	Variant   string        `json:"variant"`
	Wait      bool          `json:"wait"`
	Waypoints []grid.Node   `json:"waypoints"`
	Threat    []float64     `json:"threat"`
	Cost      float64       `json:"cost"`
	Found     bool          `json:"found"`
	Expanded  int           `json:"expanded"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Planner runs searches over one scenario. It is safe for concurrent use;
// every search gets its own graph.
type Planner struct {
	scenario *Scenario
	logger   logr.Logger
	recorder Recorder
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the planner's logger.
func WithLogger(logger logr.Logger) Option {
	return func(p *Planner) { p.logger = logger }
}

// WithRecorder reports search statistics to r.
func WithRecorder(r Recorder) Option {
	return func(p *Planner) { p.recorder = r }
}

// New creates a planner for scenario.
func New(scenario *Scenario, opts ...Option) *Planner {
	p := &Planner{
		scenario: scenario,
		logger:   logr.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Scenario returns the planner's scenario.
func (p *Planner) Scenario() *Scenario {
	return p.scenario
}

// Plan searches the scenario with the overrides in req. observer, if not nil,
// sees every expansion.
func (p *Planner) Plan(ctx context.Context, req PlanRequest, observer search.Observer) (*Plan, error) {
	cfg := p.scenario.Config

	startPoint := cfg.Route.Start
	if req.Start != nil {
		startPoint = *req.Start
	}
	goalPoint := cfg.Route.Goal
	if req.Goal != nil {
		goalPoint = *req.Goal
	}
	start, err := p.scenario.StartNode(startPoint)
	if err != nil {
		return nil, err
	}
	goal, err := p.scenario.GoalNode(goalPoint)
	if err != nil {
		return nil, err
	}

	params := search.TimeParams{
		Weights: search.Weights{Exposure: cfg.Costs.Exposure, Move: cfg.Costs.Move, Wait: cfg.Costs.Wait},
		Wait:    cfg.Time.Wait,
	}
	if w := cfg.Time.Window; w != nil {
		params.Window = &search.TimeWindow{T0: w.Start, T1: w.End}
	}
	if req.Weights != nil {
		params.Weights = *req.Weights
	}
	if req.Wait != nil {
		params.Wait = *req.Wait
	}
	if req.Window != nil {
		params.Window = req.Window
	}
	if req.Window != nil && req.Window.T0 > req.Window.T1 {
		return nil, errors.Wrapf(core.ErrInvalidConfig, "time window starts after it ends: [%g, %g]", req.Window.T0, req.Window.T1)
	}

	return p.run(ctx, p.scenario.Field, start, goal, params, observer)
}

func (p *Planner) run(ctx context.Context, field threat.DynamicField, start, goal grid.Node, params search.TimeParams, observer search.Observer) (*Plan, error) {
	cfg := p.scenario.Config
	runID := uuid.NewString()
	log := p.logger.WithValues("run", runID)

	weights := core.CostConfig{Exposure: params.Weights.Exposure, Move: params.Weights.Move, Wait: params.Weights.Wait}
	opts := []search.Option{
		search.WithLogger(log),
		search.WithHeuristic(p.scenario.heuristic(cfg.Search.Heuristic, weights)),
		search.WithObserver(p.observer(ctx, observer)),
	}
	if p.recorder != nil {
		opts = append(opts, search.WithRecorder(p.recorder))
	}
	if cfg.Search.CheckNegative {
		opts = append(opts, search.WithNegativeCostCheck())
	}

	g := graph.New(p.scenario.Env())
	began := time.Now()
	var (
		res     search.Result
		err     error
		variant string
	)
	if p.scenario.HasTime() {
		variant = "time_astar"
		res, err = search.TimeAstar(g, field, start, goal, params, opts...)
	} else {
		variant = "astar"
		res, err = search.Astar(g, threat.AtTime(field, 0), start, goal, opts...)
	}
	elapsed := time.Since(began)
	if err != nil {
		return nil, errors.Wrapf(err, "%s search from %d to %d", variant, start.ID, goal.ID)
	}

	plan := &Plan{
		RunID:     runID,
		Variant:   variant,
		Wait:      params.Wait && p.scenario.HasTime(),
		Waypoints: res.Path,
		Threat:    sampleThreat(field, res.Path),
		Cost:      res.Cost,
		Found:     res.Found,
		Expanded:  res.Expanded,
		Elapsed:   elapsed,
	}
	if res.Found && p.recorder != nil {
		p.recorder.ObservePathCost(variant, res.Cost)
	}
	log.Info("plan finished", "variant", variant, "found", plan.Found, "cost", plan.Cost, "waypoints", len(plan.Waypoints), "expanded", plan.Expanded, "elapsed", elapsed)
	return plan, nil
}

func sampleThreat(field threat.DynamicField, path []grid.Node) []float64 {
	samples := make([]float64, len(path))
	for i, node := range path {
		samples[i] = field.Value(node.X, node.Y, node.Time)
	}
	return samples
}

// observer enforces cancellation and the expansion limit before handing the
// step to next.
func (p *Planner) observer(ctx context.Context, next search.Observer) search.Observer {
	limit := p.scenario.Config.Search.MaxExpansions
	return func(step search.Step) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if limit > 0 && step.ClosedCount > limit {
			return errors.Wrapf(ErrExpansionLimit, "%d vertices", limit)
		}
		if next != nil {
			return next(step)
		}
		return nil
	}
}
