package planner

import (
	"context"
	"threatnav-go/core"
	"threatnav-go/search"

	"github.com/pkg/errors"
)

// Outcome is one side of a wait comparison.
type Outcome struct {
	Found    bool    `json:"found"`
	Cost     float64 `json:"cost"`
	Expanded int     `json:"expanded"`
	Steps    int     `json:"steps"`
	Seconds  float64 `json:"seconds"`
}

// SimResult compares searching with and without waiting on one random field.
type SimResult struct {
	Run      int     `json:"run"`
	Seed     int64   `json:"seed"`
	NThreats int     `json:"n_threats"`
	Wait     Outcome `json:"wait"`
	NoWait   Outcome `json:"no_wait"`
}

// Saving is how much cheaper the waiting path is.
func (r SimResult) Saving() float64 {
	return r.NoWait.Cost - r.Wait.Cost
}

// CompareWait runs the scenario runs times, each on a freshly drawn random
// field, searching once with waiting and once without.
func (p *Planner) CompareWait(ctx context.Context, runs int) ([]SimResult, error) {
	if !p.scenario.HasTime() {
		return nil, ErrNoTimeDimension
	}
	cfg := p.scenario.Config
	start, err := p.scenario.StartNode(cfg.Route.Start)
	if err != nil {
		return nil, err
	}
	goal, err := p.scenario.GoalNode(cfg.Route.Goal)
	if err != nil {
		return nil, err
	}

	random := cfg.Field.Random
	if random == nil {
		random = &core.RandomFieldConfig{}
	}
	params := search.TimeParams{
		Weights: search.Weights{Exposure: cfg.Costs.Exposure, Move: cfg.Costs.Move, Wait: cfg.Costs.Wait},
	}
	if w := cfg.Time.Window; w != nil {
		params.Window = &search.TimeWindow{T0: w.Start, T1: w.End}
	}

	results := make([]SimResult, 0, runs)
	for run := 0; run < runs; run++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		seed := random.Seed + int64(run)
		field := p.scenario.FieldWithSeed(seed, random)
		result := SimResult{Run: run, Seed: seed, NThreats: len(field.Threats)}

		for _, wait := range []bool{true, false} {
			params.Wait = wait
			plan, err := p.run(ctx, field, start, goal, params, nil)
			if err != nil {
				return results, errors.Wrapf(err, "run %d", run)
			}
			outcome := Outcome{
				Found:    plan.Found,
				Cost:     plan.Cost,
				Expanded: plan.Expanded,
				Steps:    len(plan.Waypoints),
				Seconds:  plan.Elapsed.Seconds(),
			}
			if wait {
				result.Wait = outcome
			} else {
				result.NoWait = outcome
			}
		}
		p.logger.V(1).Info("comparison run finished", "run", run, "seed", seed, "wait_cost", result.Wait.Cost, "no_wait_cost", result.NoWait.Cost)
		results = append(results, result)
	}
	return results, nil
}
