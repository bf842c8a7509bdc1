// Package grid defines the grid geometry that paths are searched over: node
// identity, id and coordinate conversion, and neighbor enumeration for spatial
// and time-expanded grids.
package grid

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGrid is returned when grid dimensions cannot describe a grid.
var ErrInvalidGrid = errors.New("invalid grid dimensions")

// Environment enumerates neighbors of grid nodes.
type Environment interface {
	Neighbors(node Node) []Node
	NodeCount() int
}

// TimeEnvironment is an Environment replicated once per discrete time step.
type TimeEnvironment interface {
	Environment
	NeighborsInTime(node Node, wait bool) []Node
	SpatialCount() int
	SpatialDistance(a, b Node) float64
}

// XYEnvironment is a 2D grid with 4-way connectivity.
type XYEnvironment struct {
	XSize float64
	YSize float64
	NX    int
	NY    int
	SepX  float64
	SepY  float64
}

// NewXYEnvironment creates a grid of xPts by yPts points spanning xSize by ySize.
func NewXYEnvironment(xSize, ySize float64, xPts, yPts int) (*XYEnvironment, error) {
	if xPts < 2 || yPts < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points per axis, got %dx%d", ErrInvalidGrid, xPts, yPts)
	}
	if xSize <= 0 || ySize <= 0 {
		return nil, fmt.Errorf("%w: sizes must be positive, got %gx%g", ErrInvalidGrid, xSize, ySize)
	}
	return &XYEnvironment{
		XSize: xSize,
		YSize: ySize,
		NX:    xPts,
		NY:    yPts,
		SepX:  xSize / float64(xPts-1),
		SepY:  ySize / float64(yPts-1),
	}, nil
}

// NodeCount returns the number of grid points.
func (e *XYEnvironment) NodeCount() int {
	return e.NX * e.NY
}

// CoordFromID returns the x and y indices of a grid point.
func (e *XYEnvironment) CoordFromID(id int) (int, int) {
	return id % e.NX, id / e.NX
}

// IDFromCoord returns the grid point id at the given indices.
func (e *XYEnvironment) IDFromCoord(xIdx, yIdx int) int {
	return yIdx*e.NX + xIdx
}

// LocationFromID returns the x, y position of a grid point.
func (e *XYEnvironment) LocationFromID(id int) (float64, float64) {
	mx, my := e.CoordFromID(id)
	return float64(mx) * e.SepX, float64(my) * e.SepY
}

// IDFromLocation returns the id of the grid point nearest to x, y. Bounds are
// not checked; see Contains.
func (e *XYEnvironment) IDFromLocation(x, y float64) int {
	return e.IDFromCoord(e.snapX(x), e.snapY(y))
}

// Contains reports whether x, y lies inside the workspace.
func (e *XYEnvironment) Contains(x, y float64) bool {
	return x >= 0 && x <= e.XSize && y >= 0 && y <= e.YSize
}

// Node builds the spatial node for a grid point id.
func (e *XYEnvironment) Node(id int) Node {
	x, y := e.LocationFromID(id)
	return Node{ID: id, X: x, Y: y, Kind: Spatial}
}

// Neighbors returns up to four neighbors in the order right, left, above, below.
func (e *XYEnvironment) Neighbors(node Node) []Node {
	neighbors := make([]Node, 0, 4)
	for _, id := range e.spatialNeighborIDs(node.ID) {
		neighbors = append(neighbors, e.Node(id))
	}
	return neighbors
}

// SpatialDistance returns the Euclidean distance between two nodes.
func (e *XYEnvironment) SpatialDistance(a, b Node) float64 {
	return Distance(a, b)
}

func (e *XYEnvironment) String() string {
	return fmt.Sprintf("XYEnv: x_size = %g, y_size = %g, n_grid_x = %d, n_grid_y = %d", e.XSize, e.YSize, e.NX, e.NY)
}

// spatialNeighborIDs works on a spatial id in [0, NX*NY).
func (e *XYEnvironment) spatialNeighborIDs(id int) []int {
	n := e.NodeCount()
	ids := make([]int, 0, 4)
	if id+1 < n && (id+1)%e.NX != 0 {
		ids = append(ids, id+1)
	}
	if id-1 >= 0 && id%e.NX != 0 {
		ids = append(ids, id-1)
	}
	if id+e.NX < n {
		ids = append(ids, id+e.NX)
	}
	if id-e.NX >= 0 {
		ids = append(ids, id-e.NX)
	}
	return ids
}

func (e *XYEnvironment) snapX(x float64) int {
	return int(math.Round(x / e.SepX))
}

func (e *XYEnvironment) snapY(y float64) int {
	return int(math.Round(y / e.SepY))
}

// XYTEnvironment is an XYEnvironment repeated over TPts time steps.
type XYTEnvironment struct {
	XYEnvironment
	TFinal float64
	TPts   int
	TSep   float64
}

// NewXYTEnvironment creates a time-expanded grid with tPts steps of tFinal/tPts.
func NewXYTEnvironment(xSize, ySize float64, xPts, yPts int, tFinal float64, tPts int) (*XYTEnvironment, error) {
	spatial, err := NewXYEnvironment(xSize, ySize, xPts, yPts)
	if err != nil {
		return nil, err
	}
	if tPts < 1 || tFinal <= 0 {
		return nil, fmt.Errorf("%w: need a positive horizon and at least one time step, got t_final=%g t_pts=%d", ErrInvalidGrid, tFinal, tPts)
	}
	return &XYTEnvironment{
		XYEnvironment: *spatial,
		TFinal:        tFinal,
		TPts:          tPts,
		TSep:          tFinal / float64(tPts),
	}, nil
}

// SpatialCount returns the number of grid points in one time layer.
func (e *XYTEnvironment) SpatialCount() int {
	return e.XYEnvironment.NodeCount()
}

// NodeCount returns the number of grid points across all time layers.
func (e *XYTEnvironment) NodeCount() int {
	return e.SpatialCount() * e.TPts
}

// IndexFromID returns the x, y and time indices of a grid point.
func (e *XYTEnvironment) IndexFromID(id int) (int, int, int) {
	n := e.SpatialCount()
	mx, my := e.CoordFromID(id % n)
	return mx, my, id / n
}

// IDFromIndex returns the grid point id at the given indices.
func (e *XYTEnvironment) IDFromIndex(xIdx, yIdx, tIdx int) int {
	return e.IDFromCoord(xIdx, yIdx) + tIdx*e.SpatialCount()
}

// LocationFromID returns the x, y position and time index of a grid point.
func (e *XYTEnvironment) LocationFromID(id int) (float64, float64, int) {
	mx, my, tIdx := e.IndexFromID(id)
	return float64(mx) * e.SepX, float64(my) * e.SepY, tIdx
}

// IDFromLocation returns the id of the grid point nearest to x, y at tIdx.
func (e *XYTEnvironment) IDFromLocation(x, y float64, tIdx int) int {
	return e.IDFromIndex(e.snapX(x), e.snapY(y), tIdx)
}

// TimeAt returns the time value of a time index.
func (e *XYTEnvironment) TimeAt(tIdx int) float64 {
	return float64(tIdx) * e.TSep
}

// Node builds the time-aware node for a grid point id.
func (e *XYTEnvironment) Node(id int) Node {
	x, y, tIdx := e.LocationFromID(id)
	return Node{ID: id, X: x, Y: y, TimeIdx: tIdx, Time: e.TimeAt(tIdx), Kind: SpatialTime}
}

// Neighbors returns the time-expanded neighbors with waiting enabled.
func (e *XYTEnvironment) Neighbors(node Node) []Node {
	return e.NeighborsInTime(node, true)
}

// NeighborsInTime returns the neighbors one time step ahead: the wait-in-place
// node first when wait is set, then right, left, above, below. Nodes on the
// final time layer have no neighbors.
func (e *XYTEnvironment) NeighborsInTime(node Node, wait bool) []Node {
	n := e.SpatialCount()
	spatialID := node.ID % n
	nextLayer := (node.ID/n + 1) * n
	if nextLayer >= e.NodeCount() {
		return nil
	}

	neighbors := make([]Node, 0, 5)
	if wait {
		neighbors = append(neighbors, e.Node(nextLayer+spatialID))
	}
	for _, id := range e.spatialNeighborIDs(spatialID) {
		neighbors = append(neighbors, e.Node(nextLayer+id))
	}
	return neighbors
}

func (e *XYTEnvironment) String() string {
	return fmt.Sprintf("XYTEnv: x_size = %g, y_size = %g, n_grid_x = %d, n_grid_y = %d, t_final = %g", e.XSize, e.YSize, e.NX, e.NY, e.TFinal)
}
