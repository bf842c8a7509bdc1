// Package graph holds the lazily discovered vertices of a grid and the search
// state attached to them. A Graph serves one search run at a time.
package graph

import (
	"errors"
	"fmt"
	"threatnav-go/grid"
)

var (
	// ErrVertexExists is returned by AddVertex for a node that is already registered.
	ErrVertexExists = errors.New("vertex already exists")
	// ErrGraphNotReset is returned by Begin when a previous run has not been reset.
	ErrGraphNotReset = errors.New("graph holds state from a previous run")
)

// Option configures a Graph.
type Option func(*Graph)

// WithSymmetricEdges overrides whether AddEdge records the reverse direction.
func WithSymmetricEdges(symmetric bool) Option {
	return func(g *Graph) {
		g.symmetric = symmetric
	}
}

// Graph maps node ids to vertices for one environment.
type Graph struct {
	env        grid.Environment
	vertices   map[int]*Vertex
	symmetric  bool
	generation uint64
	inUse      bool
}

// New creates an empty graph over env. Edges are symmetric for spatial
// environments and directed forward in time for time-expanded ones.
func New(env grid.Environment, opts ...Option) *Graph {
	_, timed := env.(grid.TimeEnvironment)
	g := &Graph{
		env:       env,
		vertices:  make(map[int]*Vertex),
		symmetric: !timed,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Env returns the environment the graph was built over.
func (g *Graph) Env() grid.Environment {
	return g.env
}

// Len returns the number of discovered vertices.
func (g *Graph) Len() int {
	return len(g.vertices)
}

// Symmetric reports whether edges are recorded in both directions.
func (g *Graph) Symmetric() bool {
	return g.symmetric
}

// Generation counts resets. Queue entries tagged with an older generation are stale.
func (g *Graph) Generation() uint64 {
	return g.generation
}

// GetVertex returns the vertex for id, or nil if it has not been discovered.
func (g *Graph) GetVertex(id int) *Vertex {
	return g.vertices[id]
}

// AddVertex registers a fresh vertex for node.
func (g *Graph) AddVertex(node grid.Node) (*Vertex, error) {
	if _, ok := g.vertices[node.ID]; ok {
		return nil, fmt.Errorf("%w: id %d", ErrVertexExists, node.ID)
	}
	v := newVertex(node)
	g.vertices[node.ID] = v
	return v, nil
}

// Vertex returns the vertex for node, registering it on first sight.
func (g *Graph) Vertex(node grid.Node) *Vertex {
	if v, ok := g.vertices[node.ID]; ok {
		return v
	}
	v := newVertex(node)
	g.vertices[node.ID] = v
	return v
}

// AddEdge records cost on the src to dst edge, creating missing vertices.
// Symmetric graphs also record dst to src.
func (g *Graph) AddEdge(src, dst grid.Node, cost float64) {
	from := g.Vertex(src)
	to := g.Vertex(dst)
	from.setNeighbor(dst.ID, cost)
	if g.symmetric {
		to.setNeighbor(src.ID, cost)
	}
}

// Begin claims the graph for a search run.
func (g *Graph) Begin() error {
	if g.inUse {
		return ErrGraphNotReset
	}
	g.inUse = true
	return nil
}

// Reset discards every vertex and starts a new generation. The environment is kept.
func (g *Graph) Reset() {
	g.vertices = make(map[int]*Vertex)
	g.generation++
	g.inUse = false
}

func (g *Graph) String() string {
	return fmt.Sprintf("Graph: vertices = %d, generation = %d, symmetric = %t", len(g.vertices), g.generation, g.symmetric)
}
