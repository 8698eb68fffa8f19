// Package solver advances a particle scene by one frame using position-based
// dynamics.
//
// A frame is split into substeps. Each substep integrates every body, then
// runs a fixed number of iterations of
//
//	static constraints -> springs -> contacts
//
// rehashing the grid after each pass, and finally rebuilds velocities from the
// position delta and damps them.
package solver

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/pbdsim/internal/body"
	"github.com/san-kum/pbdsim/internal/constraint"
	"github.com/san-kum/pbdsim/internal/dispatch"
	"github.com/san-kum/pbdsim/internal/grid"
	"github.com/san-kum/pbdsim/internal/spring"
)

const (
	DefaultSubsteps   = 4
	DefaultIterations = 4
	DefaultDamping    = 0.998

	MinFrameDt = 1.0 / 240
	MaxFrameDt = 1.0 / 20

	// contactEpsilon is the separation below which two bodies are treated as
	// coincident.
	contactEpsilon = 1e-6
)

// DefaultGravity points down the screen (y grows downward).
var DefaultGravity = r2.Vec{X: 0, Y: 400}

// neighborOffsets visits each unordered neighbor pair exactly once.
var neighborOffsets = [...]struct{ dc, dr int }{
	{1, 0},
	{0, 1},
	{1, 1},
	{-1, 1},
}

// Params controls the integration.
type Params struct {
	Gravity r2.Vec
	// MassScaledGravity multiplies the gravity acceleration by each body's mass.
	MassScaledGravity bool
	Damping           float64
	Substeps          int
	Iterations        int
	MinFrameDt        float64
	MaxFrameDt        float64
}

func DefaultParams() Params {
	return Params{
		Gravity:           DefaultGravity,
		MassScaledGravity: true,
		Damping:           DefaultDamping,
		Substeps:          DefaultSubsteps,
		Iterations:        DefaultIterations,
		MinFrameDt:        MinFrameDt,
		MaxFrameDt:        MaxFrameDt,
	}
}

// normalized fills in usable values for anything left unset.
func (p Params) normalized() Params {
	if p.Substeps < 1 {
		p.Substeps = 1
	}
	if p.Iterations < 0 {
		p.Iterations = 0
	}
	if p.MinFrameDt <= 0 {
		p.MinFrameDt = MinFrameDt
	}
	if p.MaxFrameDt < p.MinFrameDt {
		p.MaxFrameDt = p.MinFrameDt
	}
	return p
}

// FrameDt clamps a raw frame duration into [MinFrameDt, MaxFrameDt]. It
// returns false for a non-positive frame, which must be skipped.
func (p Params) FrameDt(frameDt float64) (float64, bool) {
	if frameDt <= 0 || math.IsNaN(frameDt) {
		return 0, false
	}
	return math.Min(math.Max(frameDt, p.MinFrameDt), p.MaxFrameDt), true
}

// Scene is the state one Step mutates.
type Scene struct {
	Grid        *grid.Grid
	Constraints constraint.Set
	Links       []spring.Link
}

// Solver runs the substep pipeline over a Scene.
type Solver struct {
	params   Params
	dispatch *dispatch.Dispatcher
}

func New(params Params, d *dispatch.Dispatcher) *Solver {
	return &Solver{params: params.normalized(), dispatch: d}
}

func (s *Solver) Params() Params { return s.params }

// Step advances sc by one frame. It returns the substep duration used, or
// false when the frame was skipped.
func (s *Solver) Step(sc Scene, frameDt float64) (float64, bool) {
	frame, ok := s.params.FrameDt(frameDt)
	if !ok || sc.Grid == nil {
		return 0, false
	}
	dt := frame / float64(s.params.Substeps)
	g := sc.Grid

	for sub := 0; sub < s.params.Substeps; sub++ {
		s.Integrate(g, dt)
		g.Rehash()

		for it := 0; it < s.params.Iterations; it++ {
			s.SatisfyStatic(g, sc.Constraints)
			g.Rehash()

			s.SatisfySprings(g, sc.Links)
			g.Rehash()

			s.SolveContacts(g)
			g.Rehash()
		}

		s.UpdateVelocities(g, dt)
		s.ApplyDamping(g)
	}
	return dt, true
}

// Integrate applies gravity and advances every movable body by velocity*dt,
// saving its previous position first.
func (s *Solver) Integrate(g *grid.Grid, dt float64) {
	gravity, scaled := s.params.Gravity, s.params.MassScaledGravity
	s.dispatch.ForEachBody(g, func(b *body.Body) {
		if !b.Movable() {
			return
		}
		acc := gravity
		if scaled {
			acc = r2.Scale(b.Mass(), gravity)
		}
		b.Velocity = r2.Add(b.Velocity, r2.Scale(dt, acc))
		b.PrevPosition = b.Position
		b.Move(r2.Scale(dt, b.Velocity))
	})
}

// SatisfyStatic projects every body against each constraint in order.
func (s *Solver) SatisfyStatic(g *grid.Grid, cs constraint.Set) {
	if cs.Len() == 0 {
		return
	}
	s.dispatch.ForEachBody(g, cs.Project)
}

// SatisfySprings resolves every link once, sequentially.
func (s *Solver) SatisfySprings(g *grid.Grid, links []spring.Link) {
	if len(links) == 0 {
		return
	}
	spring.Resolve(links, g.Lookup, s.params.Substeps)
}

// SolveContacts separates overlapping bodies within each cell and across the
// forward half of its neighborhood. Cells are locked individually; neighbor
// pairs are locked lower index first.
func (s *Solver) SolveContacts(g *grid.Grid) {
	cols := g.Cols()
	s.dispatch.ForEachCell(g, func(col, row int) {
		idx := row*cols + col

		own := g.Lock(idx)
		own.Lock()
		cell := g.Cell(idx)
		for i := 0; i < len(cell); i++ {
			for j := i + 1; j < len(cell); j++ {
				ResolvePair(g.Body(cell[i]), g.Body(cell[j]))
			}
		}
		own.Unlock()

		for _, off := range neighborOffsets {
			nc, nr := col+off.dc, row+off.dr
			if !g.Valid(nc, nr) {
				continue
			}
			nidx := nr*cols + nc
			first, second := g.Lock(min(idx, nidx)), g.Lock(max(idx, nidx))
			first.Lock()
			second.Lock()
			neighbor := g.Cell(nidx)
			for _, a := range cell {
				for _, b := range neighbor {
					ResolvePair(g.Body(a), g.Body(b))
				}
			}
			second.Unlock()
			first.Unlock()
		}
	})
}

// ResolvePair pushes a and b apart along their center line until they touch,
// splitting the correction by inverse mass.
func ResolvePair(a, b *body.Body) {
	delta := r2.Sub(b.Position, a.Position)
	dist := r2.Norm(delta)
	minDist := a.Radius + b.Radius
	if dist >= minDist {
		return
	}
	if dist < contactEpsilon {
		delta, dist = r2.Vec{X: 1, Y: 0}, 1
	}
	total := a.InvMass + b.InvMass
	if total <= 0 {
		return
	}
	corr := r2.Scale((minDist-dist)/dist, delta)
	a.Move(r2.Scale(-a.InvMass/total, corr))
	b.Move(r2.Scale(b.InvMass/total, corr))
}

// UpdateVelocities rebuilds each velocity from the substep's displacement.
func (s *Solver) UpdateVelocities(g *grid.Grid, dt float64) {
	if dt <= 0 {
		return
	}
	inv := 1 / dt
	s.dispatch.ForEachBody(g, func(b *body.Body) {
		b.Velocity = r2.Scale(inv, r2.Sub(b.Position, b.PrevPosition))
	})
}

// ApplyDamping scales every velocity by the damping factor.
func (s *Solver) ApplyDamping(g *grid.Grid) {
	k := s.params.Damping
	if k == 1 {
		return
	}
	s.dispatch.ForEachBody(g, func(b *body.Body) {
		b.Velocity = r2.Scale(k, b.Velocity)
	})
}
