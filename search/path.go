package search

import (
	"threatnav-go/graph"
	"threatnav-go/grid"
)

// Reconstruct follows parent links from v to the root and returns the nodes
// in goal to start order.
func Reconstruct(v *graph.Vertex) []grid.Node {
	var path []grid.Node
	for cur := v; cur != nil; cur = cur.Parent {
		path = append(path, cur.Node)
	}
	return path
}

// PathTo returns the nodes from the root to v.
func PathTo(v *graph.Vertex) []grid.Node {
	path := Reconstruct(v)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
