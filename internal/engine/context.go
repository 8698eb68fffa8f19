// Package engine owns a particle scene and advances it frame by frame.
//
// A [Context] is the single mutation point for a scene: it holds the grid,
// the boundary constraints and the spring links, and exposes spawners and
// [Context.Step]. Everything handed out by its accessors is a copy.
package engine

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/pbdsim/internal/body"
	"github.com/san-kum/pbdsim/internal/constraint"
	"github.com/san-kum/pbdsim/internal/dispatch"
	"github.com/san-kum/pbdsim/internal/grid"
	"github.com/san-kum/pbdsim/internal/solver"
	"github.com/san-kum/pbdsim/internal/spring"
)

var clusterColor = color.RGBA{R: 220, G: 80, B: 80, A: 255}

// Context is not safe for concurrent use. Step, the spawners and ResizeScene
// must be serialized by the caller; the accessors may not overlap a Step.
type Context struct {
	cfg Config
	log *slog.Logger
	rng *rand.Rand

	grid        *grid.Grid
	constraints constraint.Set
	links       []spring.Link
	nextGroup   int

	pool   *dispatch.Dispatcher
	solver *solver.Solver

	ticks     int
	simTime   float64
	substepDt float64
}

// New validates cfg and builds an empty scene. A nil logger means
// slog.Default().
func New(cfg Config, log *slog.Logger) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	pool := dispatch.New(cfg.Workers)
	c := &Context{
		cfg:    cfg,
		log:    log,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		grid:   grid.New(cfg.Width, cfg.Height, cfg.CellSize),
		pool:   pool,
		solver: solver.New(cfg.Solver, pool),
	}
	c.constraints = constraint.Boundary(cfg.Width, cfg.Height, cfg.Layout)

	log.Debug("engine ready",
		"width", cfg.Width,
		"height", cfg.Height,
		"cols", c.grid.Cols(),
		"rows", c.grid.Rows(),
		"workers", pool.Workers(),
		"sub_steps", c.solver.Params().Substeps,
		"iterations", c.solver.Params().Iterations,
	)
	return c, nil
}

// Close stops the worker pool.
func (c *Context) Close() {
	c.pool.Close()
}

// Step advances the scene by one frame. A non-positive frameDt is ignored.
func (c *Context) Step(frameDt float64) {
	dt, ok := c.solver.Step(solver.Scene{
		Grid:        c.grid,
		Constraints: c.constraints,
		Links:       c.links,
	}, frameDt)
	if !ok {
		return
	}
	c.ticks++
	c.substepDt = dt
	c.simTime += dt * float64(c.solver.Params().Substeps)
}

// SpawnBody inserts a free body and returns its slot.
func (c *Context) SpawnBody(pos r2.Vec, radius, mass float64, vel r2.Vec) int {
	b := body.New(pos, radius, mass)
	b.Velocity = vel
	return c.grid.Insert(b)
}

// AddUserBody drops a large body with a random color at pos.
func (c *Context) AddUserBody(pos r2.Vec) int {
	r := c.cfg.Spawn.UserRadius
	b := body.New(pos, r, math.Max(1, r*0.5))
	b.Color = c.randomColor()
	return c.grid.Insert(b)
}

// EmitCenterBody launches a small body from the scene center. The horizontal
// speed sweeps with t.
func (c *Context) EmitCenterBody(t float64) int {
	sp := c.cfg.Spawn
	b := body.New(c.SceneCenter(), sp.EmitterRadius, sp.EmitterMass)
	b.Color = c.randomColor()
	b.Velocity = r2.Vec{X: math.Cos(t) * sp.EmitterSpeed, Y: sp.EmitterSpeed}
	return c.grid.Insert(b)
}

// SpawnCluster creates a four-node diamond around center tied by four edge
// springs and two diagonals. It returns the new group id.
func (c *Context) SpawnCluster(center r2.Vec) int {
	sp := c.cfg.Spawn
	h := sp.ClusterHalfSpacing
	offsets := [4]r2.Vec{
		{X: 0, Y: -h},
		{X: h, Y: 0},
		{X: 0, Y: h},
		{X: -h, Y: 0},
	}

	group := c.nextGroup
	c.nextGroup++

	nodes := make([]r2.Vec, len(offsets))
	for i, off := range offsets {
		nodes[i] = r2.Add(center, off)
		c.insertMember(nodes[i], sp.ClusterRadius, sp.ClusterMass, clusterColor, group, i)
	}

	for _, e := range [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}} {
		c.link(group, nodes, e[0], e[1], sp.ClusterEdgeStiff)
	}
	c.link(group, nodes, 0, 2, sp.ClusterDiagonalStiff)
	c.link(group, nodes, 1, 3, sp.ClusterDiagonalStiff)

	c.log.Debug("cluster spawned", "group", group, "x", center.X, "y", center.Y)
	return group
}

// CreateSoftBody builds a horizontal ladder of spec.Pairs node pairs centered
// on center. Even nodes form the top rail, odd nodes the bottom rail; rails,
// rungs and cross braces are all springs of spec.Stiffness. It returns the new
// group id.
func (c *Context) CreateSoftBody(center r2.Vec, spec SoftBodySpec) int {
	pairs := max(1, spec.Pairs)
	group := c.nextGroup
	c.nextGroup++

	col := c.randomColor()
	half := spec.Spacing * 0.5
	left := center.X - spec.Spacing*float64(pairs-1)*0.5

	nodes := make([]r2.Vec, 2*pairs)
	for i := 0; i < pairs; i++ {
		x := left + float64(i)*spec.Spacing
		nodes[2*i] = r2.Vec{X: x, Y: center.Y - half}
		nodes[2*i+1] = r2.Vec{X: x, Y: center.Y + half}
		c.insertMember(nodes[2*i], spec.Radius, spec.Mass, col, group, 2*i)
		c.insertMember(nodes[2*i+1], spec.Radius, spec.Mass, col, group, 2*i+1)
	}

	for i := 0; i < pairs; i++ {
		top, bottom := 2*i, 2*i+1
		c.link(group, nodes, top, bottom, spec.Stiffness)
		if i+1 == pairs {
			continue
		}
		c.link(group, nodes, top, top+2, spec.Stiffness)
		c.link(group, nodes, bottom, bottom+2, spec.Stiffness)
		c.link(group, nodes, top, bottom+2, spec.Stiffness)
		c.link(group, nodes, bottom, top+2, spec.Stiffness)
	}

	c.log.Debug("soft body spawned", "group", group, "pairs", pairs)
	return group
}

func (c *Context) insertMember(pos r2.Vec, radius, mass float64, col color.RGBA, group, node int) {
	b := body.New(pos, radius, mass)
	b.Color = col
	b.GroupID = group
	b.NodeIndex = node
	c.grid.Insert(b)
}

func (c *Context) link(group int, nodes []r2.Vec, a, b int, stiffness float64) {
	c.links = append(c.links, spring.Link{
		GroupID:    group,
		NodeA:      a,
		NodeB:      b,
		RestLength: r2.Norm(r2.Sub(nodes[b], nodes[a])),
		Stiffness:  stiffness,
	})
}

func (c *Context) randomColor() color.RGBA {
	return color.RGBA{
		R: uint8(c.rng.Intn(256)),
		G: uint8(c.rng.Intn(256)),
		B: uint8(c.rng.Intn(256)),
		A: 255,
	}
}

// ResizeScene rebuilds the grid and the boundary for new scene bounds. Bodies
// keep their positions; the walls push them back inside on the next Step.
// Non-positive sizes are ignored.
func (c *Context) ResizeScene(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	c.cfg.Width, c.cfg.Height = width, height
	c.grid.Resize(width, height)
	c.constraints = constraint.Boundary(width, height, c.cfg.Layout)
	c.log.Debug("scene resized",
		"width", width,
		"height", height,
		"cols", c.grid.Cols(),
		"rows", c.grid.Rows(),
	)
}

// IsCenterCellEmpty reports whether the cell under the scene center holds no
// body.
func (c *Context) IsCenterCellEmpty() bool {
	idx := c.grid.CellIndexFor(c.SceneCenter())
	return idx < 0 || len(c.grid.Cell(idx)) == 0
}

func (c *Context) SceneSize() (width, height float64) { return c.grid.Size() }

func (c *Context) SceneCenter() r2.Vec {
	w, h := c.grid.Size()
	return r2.Vec{X: w * 0.5, Y: h * 0.5}
}

func (c *Context) GridDims() (cols, rows int) { return c.grid.Cols(), c.grid.Rows() }

func (c *Context) Constraints() constraint.Set { return c.constraints }

func (c *Context) Config() Config { return c.cfg }

// Ticks is the number of frames stepped so far, skipped frames excluded.
func (c *Context) Ticks() int { return c.ticks }

// Time is the simulated time in seconds after clamping.
func (c *Context) Time() float64 { return c.simTime }

func (c *Context) BodyCount() int { return c.grid.Count() }

func (c *Context) ClusterCount() int { return c.nextGroup }

// Bodies returns a copy of every body in slot order.
func (c *Context) Bodies() []body.Body {
	src := c.grid.Bodies()
	out := make([]body.Body, len(src))
	copy(out, src)
	return out
}

// Cells returns a copy of the bodies held by each cell, row-major.
func (c *Context) Cells() [][]body.Body {
	out := make([][]body.Body, c.grid.Len())
	for i := range out {
		slots := c.grid.Cell(i)
		cell := make([]body.Body, len(slots))
		for j, slot := range slots {
			cell[j] = *c.grid.Body(slot)
		}
		out[i] = cell
	}
	return out
}

// Springs returns a copy of the spring links.
func (c *Context) Springs() []spring.Link {
	out := make([]spring.Link, len(c.links))
	copy(out, c.links)
	return out
}
