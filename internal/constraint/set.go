package constraint

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/pbdsim/internal/body"
)

// Set is an immutable, ordered list of constraints. The solver applies them
// in order, so later entries win when two disagree.
type Set struct {
	items []Constraint
}

// NewSet copies cs into a new Set.
func NewSet(cs ...Constraint) Set {
	items := make([]Constraint, len(cs))
	copy(items, cs)
	return Set{items: items}
}

func (s Set) Len() int { return len(s.items) }

// At returns the i-th constraint.
func (s Set) At(i int) Constraint { return s.items[i] }

// All returns a copy of the constraints.
func (s Set) All() []Constraint {
	out := make([]Constraint, len(s.items))
	copy(out, s.items)
	return out
}

// Project applies every constraint to b once, in order.
func (s Set) Project(b *body.Body) {
	for i := range s.items {
		s.items[i].Project(b)
	}
}

// Obstacle describes a solid disk placed relative to the scene size.
type Obstacle struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`
}

// Layout holds the optional shapes added on top of the four walls.
type Layout struct {
	Bowl      bool       `yaml:"bowl"`
	Obstacles []Obstacle `yaml:"obstacles"`
}

// DefaultLayout is four walls and the bowl.
func DefaultLayout() Layout {
	return Layout{Bowl: true}
}

// Boundary builds the constraint set for a width×height scene: four inward
// planes, then the bowl at (0.5w, 0.3h) with radius max(w,h)/2, then any
// obstacles. Obstacle coordinates and radii are fractions of the scene.
func Boundary(width, height float64, layout Layout) Set {
	cs := []Constraint{
		NewPlane(r2.Vec{X: 1, Y: 0}, 0),
		NewPlane(r2.Vec{X: -1, Y: 0}, -width),
		NewPlane(r2.Vec{X: 0, Y: 1}, 0),
		NewPlane(r2.Vec{X: 0, Y: -1}, -height),
	}
	if layout.Bowl {
		cs = append(cs, NewContainingDisk(
			r2.Vec{X: 0.5 * width, Y: 0.3 * height},
			math.Max(width, height)*0.5,
		))
	}
	scale := math.Min(width, height)
	for _, o := range layout.Obstacles {
		cs = append(cs, NewExcludingDisk(
			r2.Vec{X: o.X * width, Y: o.Y * height},
			o.Radius*scale,
		))
	}
	return Set{items: cs}
}
