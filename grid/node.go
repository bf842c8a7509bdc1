package grid

import (
	"fmt"
	"math"
)

// Kind tags which coordinates a Node carries.
type Kind int

const (
	// Spatial nodes carry only an (x, y) position.
	Spatial Kind = iota
	// SpatialTime nodes also carry a time index and time value.
	SpatialTime
)

func (k Kind) String() string {
	switch k {
	case Spatial:
		return "xy"
	case SpatialTime:
		return "xyt"
	default:
		return "unknown"
	}
}

// Node is the immutable identity of a grid point.
type Node struct {
	ID      int     `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	TimeIdx int     `json:"t_idx,omitempty"`
	Time    float64 `json:"t,omitempty"`
	Kind    Kind    `json:"-"`
}

// Heuristic estimates the remaining cost from a node to the goal.
type Heuristic func(node, goal Node) float64

// Heuristic returns the built-in estimate to goal. Both kinds use zero.
func (n Node) Heuristic(goal Node) float64 {
	return 0
}

// Equal reports whether two nodes are the same grid point.
func (n Node) Equal(other Node) bool {
	return n.ID == other.ID
}

func (n Node) String() string {
	if n.Kind == SpatialTime {
		return fmt.Sprintf("XYTNode: id = %d, pos_x = %.2f, pos_y = %.2f, time = %.2f, time_idx = %d", n.ID, n.X, n.Y, n.Time, n.TimeIdx)
	}
	return fmt.Sprintf("XYNode: id = %d, pos_x = %.2f, pos_y = %.2f", n.ID, n.X, n.Y)
}

// ZeroHeuristic is admissible for any non-negative field and turns A* into
// uniform-cost search.
func ZeroHeuristic(node, goal Node) float64 {
	return node.Heuristic(goal)
}

// EuclideanHeuristic scales the straight-line distance to the goal. It is
// admissible only while scale does not exceed the cheapest cost per unit of
// distance, e.g. the move weight of a time-expanded search.
func EuclideanHeuristic(scale float64) Heuristic {
	return func(node, goal Node) float64 {
		return scale * Distance(node, goal)
	}
}

// Distance returns the Euclidean distance between two node positions.
func Distance(a, b Node) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
