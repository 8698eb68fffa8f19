// Package body defines the disk-shaped point mass moved by the solver.
package body

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// NoGroup marks a body that belongs to no spring cluster.
const NoGroup = -1

// Body is a disk integrated by position-based dynamics.
type Body struct {
	Position     r2.Vec
	PrevPosition r2.Vec
	Velocity     r2.Vec
	InvMass      float64
	Radius       float64
	GroupID      int
	NodeIndex    int
	Color        color.RGBA
}

// New returns an unclustered body at rest at pos.
func New(pos r2.Vec, radius, mass float64) Body {
	b := Body{
		Position:     pos,
		PrevPosition: pos,
		Radius:       math.Max(0, radius),
		GroupID:      NoGroup,
		NodeIndex:    NoGroup,
		Color:        color.RGBA{R: 0, G: 0, B: 255, A: 255},
	}
	b.SetMass(mass)
	return b
}

// SetMass stores the inverse mass. A non-positive mass makes the body immovable.
func (b *Body) SetMass(mass float64) {
	if mass <= 0 {
		b.InvMass = 0
		return
	}
	b.InvMass = 1 / mass
}

// Mass is +Inf for immovable bodies.
func (b *Body) Mass() float64 {
	if b.InvMass <= 0 {
		return math.Inf(1)
	}
	return 1 / b.InvMass
}

func (b *Body) Movable() bool { return b.InvMass > 0 }

func (b *Body) Clustered() bool { return b.GroupID != NoGroup }

// Move translates the position by d.
func (b *Body) Move(d r2.Vec) {
	b.Position = r2.Add(b.Position, d)
}

// Key identifies a cluster member.
type Key struct {
	Group int
	Node  int
}

func (b *Body) Key() Key { return Key{Group: b.GroupID, Node: b.NodeIndex} }
