package graph

import (
	"fmt"
	"math"
	"threatnav-go/grid"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// State is the position of a vertex in the search lifecycle.
type State int

const (
	Unseen State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unseen"
	}
}

// Vertex holds the per-run search state of one discovered node.
type Vertex struct {
	Node   grid.Node
	Parent *Vertex
	G      float64
	H      float64
	F      float64
	Open   bool
	Closed bool

	// neighbors keeps the recorded edge costs in discovery order, so
	// NeighborIDs reports edges the same way on every run.
	neighbors *orderedmap.OrderedMap[int, float64]
}

func newVertex(node grid.Node) *Vertex {
	return &Vertex{
		Node:      node,
		G:         math.Inf(1),
		H:         0,
		F:         math.Inf(1),
		neighbors: orderedmap.New[int, float64](),
	}
}

// ID returns the id of the wrapped node.
func (v *Vertex) ID() int {
	return v.Node.ID
}

// State derives the lifecycle state from the open and closed flags.
func (v *Vertex) State() State {
	switch {
	case v.Closed:
		return Closed
	case v.Open:
		return Open
	default:
		return Unseen
	}
}

// Degree returns the number of recorded neighbors.
func (v *Vertex) Degree() int {
	return v.neighbors.Len()
}

// EdgeCost returns the recorded cost of the edge to the neighbor with the given id.
func (v *Vertex) EdgeCost(id int) (float64, bool) {
	return v.neighbors.Get(id)
}

// NeighborIDs returns the ids of recorded neighbors in the order they were first seen.
func (v *Vertex) NeighborIDs() []int {
	ids := make([]int, 0, v.neighbors.Len())
	for pair := v.neighbors.Oldest(); pair != nil; pair = pair.Next() {
		ids = append(ids, pair.Key)
	}
	return ids
}

func (v *Vertex) setNeighbor(id int, cost float64) {
	v.neighbors.Set(id, cost)
}

func (v *Vertex) String() string {
	return fmt.Sprintf("Vertex: id = %d, g = %.3f, h = %.3f, f = %.3f, state = %s", v.Node.ID, v.G, v.H, v.F, v.State())
}
