// Package grid partitions the scene into uniform cells for broad-phase contact
// detection.
//
// Bodies live in a flat arena with stable slots; each cell holds the slots of
// the bodies whose clamped position falls inside it. Slots never move, so a
// cluster member found through [Grid.Lookup] stays valid across rehashes.
package grid

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/pbdsim/internal/body"
)

// edgeEpsilon keeps positions on the far edge inside the last row/column.
const edgeEpsilon = 1e-3

// Grid is a uniform spatial partition of a width×height scene.
// The zero value has no cells and every operation on it is a no-op.
type Grid struct {
	width, height float64
	target        float64
	cols, rows    int
	cellW, cellH  float64

	bodies []body.Body
	cells  [][]int
	spare  [][]int // rebuilt on every rehash, then swapped with cells
	locks  []sync.Mutex
	index  map[body.Key]int
}

// New creates a grid whose cells are close to targetCellSize on each side.
func New(width, height, targetCellSize float64) *Grid {
	g := &Grid{
		target: targetCellSize,
		index:  make(map[body.Key]int),
	}
	g.layout(width, height)
	return g
}

// layout recomputes the cell dimensions and allocates empty buckets.
func (g *Grid) layout(width, height float64) {
	g.width = math.Max(1, width)
	g.height = math.Max(1, height)

	target := g.target
	if target <= 0 {
		target = math.Max(g.width, g.height)
	}

	g.cols = max(1, int(math.Ceil(g.width/target)))
	g.rows = max(1, int(math.Ceil(g.height/target)))
	g.cellW = g.width / float64(g.cols)
	g.cellH = g.height / float64(g.rows)

	n := g.cols * g.rows
	g.cells = make([][]int, n)
	g.spare = make([][]int, n)
	g.locks = make([]sync.Mutex, n)
}

// Resize rebuilds the grid for new scene bounds and reinserts every body by
// its current position. Must not run concurrently with any other grid access.
func (g *Grid) Resize(width, height float64) {
	if g.index == nil {
		g.index = make(map[body.Key]int)
	}
	g.layout(width, height)
	g.Rehash()
}

func (g *Grid) empty() bool { return len(g.cells) == 0 }

// CellIndexFor maps a position to its row-major cell index after clamping it
// into the scene bounds. Returns -1 on a grid without cells.
func (g *Grid) CellIndexFor(p r2.Vec) int {
	if g.empty() {
		return -1
	}
	x := clamp(p.X, 0, g.width-edgeEpsilon)
	y := clamp(p.Y, 0, g.height-edgeEpsilon)

	col := clampInt(int(x/g.cellW), 0, g.cols-1)
	row := clampInt(int(y/g.cellH), 0, g.rows-1)
	return row*g.cols + col
}

// Insert adds b to the arena and to the bucket its position resolves to.
// It returns the body's slot, or -1 when the grid has no cells.
func (g *Grid) Insert(b body.Body) int {
	if g.empty() {
		return -1
	}
	slot := len(g.bodies)
	g.bodies = append(g.bodies, b)
	idx := g.CellIndexFor(b.Position)
	g.cells[idx] = append(g.cells[idx], slot)
	if b.Clustered() {
		g.index[b.Key()] = slot
	}
	return slot
}

// Rehash redistributes every body into a freshly filled bucket array and
// swaps it in, so later reads only ever observe a complete distribution.
func (g *Grid) Rehash() {
	if g.empty() {
		return
	}
	for i := range g.spare {
		g.spare[i] = g.spare[i][:0]
	}
	for slot := range g.bodies {
		idx := g.CellIndexFor(g.bodies[slot].Position)
		g.spare[idx] = append(g.spare[idx], slot)
	}
	g.cells, g.spare = g.spare, g.cells
}

// Lookup finds a cluster member by (group, node).
func (g *Grid) Lookup(key body.Key) (*body.Body, bool) {
	slot, ok := g.index[key]
	if !ok || slot >= len(g.bodies) {
		return nil, false
	}
	return &g.bodies[slot], true
}

// Cell returns the slots held by cell i. The slice must not be modified.
func (g *Grid) Cell(i int) []int {
	if i < 0 || i >= len(g.cells) {
		return nil
	}
	return g.cells[i]
}

// Body returns the arena entry for slot.
func (g *Grid) Body(slot int) *body.Body { return &g.bodies[slot] }

// Lock returns the mutex guarding cell i.
func (g *Grid) Lock(i int) *sync.Mutex { return &g.locks[i] }

// Bodies exposes the arena. Callers outside the engine should copy it.
func (g *Grid) Bodies() []body.Body { return g.bodies }

func (g *Grid) Cols() int       { return g.cols }
func (g *Grid) Rows() int       { return g.rows }
func (g *Grid) Len() int        { return len(g.cells) }
func (g *Grid) Count() int      { return len(g.bodies) }
func (g *Grid) Target() float64 { return g.target }

// Size returns the scene dimensions the grid covers.
func (g *Grid) Size() (width, height float64) { return g.width, g.height }

// CellSize returns the exact tile dimensions.
func (g *Grid) CellSize() (width, height float64) { return g.cellW, g.cellH }

// CellBounds returns the rectangle covered by cell i.
func (g *Grid) CellBounds(i int) (lo, hi r2.Vec) {
	if g.empty() || i < 0 || i >= len(g.cells) {
		return r2.Vec{}, r2.Vec{}
	}
	row, col := i/g.cols, i%g.cols
	lo = r2.Vec{X: float64(col) * g.cellW, Y: float64(row) * g.cellH}
	hi = r2.Vec{X: lo.X + g.cellW, Y: lo.Y + g.cellH}
	return lo, hi
}

// Clamp confines p to the region CellIndexFor buckets it by.
func (g *Grid) Clamp(p r2.Vec) r2.Vec {
	return r2.Vec{
		X: clamp(p.X, 0, g.width-edgeEpsilon),
		Y: clamp(p.Y, 0, g.height-edgeEpsilon),
	}
}

// Valid reports whether (col, row) addresses a cell.
func (g *Grid) Valid(col, row int) bool {
	return col >= 0 && col < g.cols && row >= 0 && row < g.rows
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Min(math.Max(v, lo), hi)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
