// Package search finds least-cost paths over a lazily built grid graph. Astar
// prices each move by the cost field at the destination; TimeAstar searches a
// time-expanded grid and blends exposure, distance and waiting costs.
package search

import (
	"errors"
	"fmt"
	"threatnav-go/graph"
	"threatnav-go/grid"
	"threatnav-go/threat"
	"time"
)

var (
	// ErrAborted wraps the error returned by an Observer that stopped the search.
	ErrAborted = errors.New("search aborted")
	// ErrNegativeCost is returned when the negative cost check finds a negative edge.
	ErrNegativeCost = errors.New("negative edge cost")
	// ErrNotTimeExpanded is returned by TimeAstar for a graph over a spatial environment.
	ErrNotTimeExpanded = errors.New("graph environment is not time-expanded")
)

// unitWeight is the weight recorded on graph edges. Traversal costs are priced
// separately during relaxation.
const unitWeight = 1.0

// Result is the outcome of a search. Exhausting the reachable grid without
// reaching the goal is reported as Found == false with a nil error.
type Result struct {
	Path     []grid.Node   `json:"path"`
	Cost     float64       `json:"cost"`
	Found    bool          `json:"found"`
	Expanded int           `json:"expanded"`
	Terminal *graph.Vertex `json:"-"`
}

// problem is what distinguishes the two search variants.
type problem struct {
	variant   string
	neighbors func(node grid.Node) []grid.Node
	edgeCost  func(from, to grid.Node) float64
	isGoal    func(node grid.Node) bool
}

// Astar searches a spatial graph. Moving onto a node costs the field value at
// that node.
func Astar(g *graph.Graph, field threat.StaticField, start, goal grid.Node, opts ...Option) (Result, error) {
	env := g.Env()
	return run(g, start, goal, problem{
		variant:   "astar",
		neighbors: env.Neighbors,
		edgeCost: func(_, to grid.Node) float64 {
			return field.Value(to.X, to.Y)
		},
		isGoal: goal.Equal,
	}, newOptions(opts))
}

func run(g *graph.Graph, start, goal grid.Node, p problem, options Options) (Result, error) {
	if err := g.Begin(); err != nil {
		return Result{}, err
	}
	began := time.Now()
	log := options.Logger.WithValues("variant", p.variant, "start", start.ID, "goal", goal.ID)

	result, err := expand(g, start, goal, p, options)
	elapsed := time.Since(began)
	if err != nil {
		log.Error(err, "search failed", "expanded", result.Expanded)
		return result, err
	}
	if options.Recorder != nil {
		options.Recorder.ObserveSearch(p.variant, result.Found, result.Expanded, elapsed)
	}
	if result.Found {
		log.V(1).Info("path found", "cost", result.Cost, "length", len(result.Path), "expanded", result.Expanded, "elapsed", elapsed)
	} else {
		log.V(1).Info("no path", "expanded", result.Expanded, "vertices", g.Len(), "elapsed", elapsed)
	}
	return result, nil
}

func expand(g *graph.Graph, start, goal grid.Node, p problem, options Options) (Result, error) {
	gen := g.Generation()
	queue := NewPriorityQueue()

	root := g.Vertex(start)
	root.G = 0
	root.H = options.Heuristic(start, goal)
	root.F = root.H
	root.Open = true
	queue.AddOrUpdate(Key{ID: start.ID, Generation: gen}, 0)

	expanded := 0
	for !queue.IsEmpty() {
		key, err := queue.Pop()
		if err != nil {
			return Result{Expanded: expanded}, err
		}
		current := g.GetVertex(key.ID)
		if current == nil || key.Generation != gen || current.Closed {
			continue
		}
		if p.isGoal(current.Node) {
			return Result{
				Path:     PathTo(current),
				Cost:     current.G,
				Found:    true,
				Expanded: expanded,
				Terminal: current,
			}, nil
		}

		current.Open = false
		current.Closed = true
		expanded++

		for _, nbr := range p.neighbors(current.Node) {
			g.AddEdge(current.Node, nbr, unitWeight)
			next := g.GetVertex(nbr.ID)
			if next.Closed {
				continue
			}
			cost := p.edgeCost(current.Node, nbr)
			if options.CheckNegative && cost < 0 {
				return Result{Expanded: expanded}, fmt.Errorf("%w: %g from %d to %d", ErrNegativeCost, cost, current.Node.ID, nbr.ID)
			}
			candidate := current.G + cost
			if !next.Open || candidate < next.G {
				next.Parent = current
				next.G = candidate
				next.H = options.Heuristic(nbr, goal)
				next.F = candidate + next.H
				queue.AddOrUpdate(Key{ID: nbr.ID, Generation: gen}, next.F)
				next.Open = true
			}
		}

		if options.Observer != nil {
			step := Step{
				Index:       expanded,
				Current:     current.Node,
				G:           current.G,
				OpenCount:   queue.Len(),
				ClosedCount: expanded,
			}
			if err := options.Observer(step); err != nil {
				return Result{Expanded: expanded}, fmt.Errorf("%w: %w", ErrAborted, err)
			}
		}
	}
	return Result{Expanded: expanded}, nil
}
