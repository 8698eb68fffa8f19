// Package constraint implements the static boundary constraints bodies are
// projected against every solver iteration.
//
// A [Constraint] is a closed variant over three shapes:
//
//   - [Plane]: half-plane dot(n, p) - offset >= radius
//   - [ExcludingDisk]: solid obstacle, bodies stay outside
//   - [ContainingDisk]: bowl or arena, bodies stay inside
//
// Projection is a pure position correction: valid or immovable bodies are left
// untouched, others are moved by exactly their penetration depth.
package constraint

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/pbdsim/internal/body"
)

// Kind tags the shape a Constraint carries.
type Kind uint8

const (
	Plane Kind = iota
	ExcludingDisk
	ContainingDisk
)

func (k Kind) String() string {
	switch k {
	case Plane:
		return "plane"
	case ExcludingDisk:
		return "excluding_disk"
	case ContainingDisk:
		return "containing_disk"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// degenerateDist is the separation below which a disk constraint falls back
// to a fixed direction.
const degenerateDist = 1e-5

var (
	// ExcludingFallback pushes a body sitting on an obstacle center along +x.
	ExcludingFallback = r2.Vec{X: 1, Y: 0}
	// ContainingFallback is the direction used for a body exactly at a bowl
	// center.
	ContainingFallback = r2.Vec{X: 0, Y: -1}
)

// Constraint is an immutable static constraint. Only the fields relevant to
// its Kind are meaningful: Normal/Offset for planes, Center/Radius for disks.
type Constraint struct {
	Kind   Kind
	Normal r2.Vec
	Offset float64
	Center r2.Vec
	Radius float64
}

// NewPlane builds a half-plane. The normal is normalized; a zero normal falls
// back to (0, 1).
func NewPlane(normal r2.Vec, offset float64) Constraint {
	n := normal
	if r2.Norm2(n) == 0 {
		n = r2.Vec{X: 0, Y: 1}
	} else {
		n = r2.Unit(n)
	}
	return Constraint{Kind: Plane, Normal: n, Offset: offset}
}

// NewExcludingDisk keeps bodies outside a solid disk.
func NewExcludingDisk(center r2.Vec, radius float64) Constraint {
	return Constraint{Kind: ExcludingDisk, Center: center, Radius: math.Max(0, radius)}
}

// NewContainingDisk keeps bodies inside a disk.
func NewContainingDisk(center r2.Vec, radius float64) Constraint {
	return Constraint{Kind: ContainingDisk, Center: center, Radius: math.Max(0, radius)}
}

// Penetration returns how far b violates c; zero or negative means valid.
func (c Constraint) Penetration(b *body.Body) float64 {
	switch c.Kind {
	case Plane:
		return -(r2.Dot(c.Normal, b.Position) - c.Offset - b.Radius)
	case ExcludingDisk:
		return c.Radius + b.Radius - r2.Norm(r2.Sub(b.Position, c.Center))
	case ContainingDisk:
		if c.Radius <= 0 {
			return 0
		}
		return r2.Norm(r2.Sub(b.Position, c.Center)) - math.Max(0, c.Radius-b.Radius)
	}
	return 0
}

// Project moves b the minimum distance that satisfies c.
func (c Constraint) Project(b *body.Body) {
	if b.InvMass <= 0 {
		return
	}
	switch c.Kind {
	case Plane:
		c.projectPlane(b)
	case ExcludingDisk:
		c.projectExcluding(b)
	case ContainingDisk:
		c.projectContaining(b)
	}
}

func (c Constraint) projectPlane(b *body.Body) {
	signed := r2.Dot(c.Normal, b.Position) - c.Offset - b.Radius
	if signed < 0 {
		b.Move(r2.Scale(-signed, c.Normal))
	}
}

func (c Constraint) projectExcluding(b *body.Body) {
	delta := r2.Sub(b.Position, c.Center)
	dist := r2.Norm(delta)
	minDist := c.Radius + b.Radius
	if dist >= minDist {
		return
	}
	if dist < degenerateDist {
		delta, dist = ExcludingFallback, 1
	}
	normal := r2.Scale(1/dist, delta)
	b.Move(r2.Scale(minDist-dist, normal))
}

func (c Constraint) projectContaining(b *body.Body) {
	if c.Radius <= 0 {
		return
	}
	delta := r2.Sub(b.Position, c.Center)
	dist := r2.Norm(delta)
	maxDist := math.Max(0, c.Radius-b.Radius)
	if dist <= maxDist {
		return
	}
	if dist < degenerateDist {
		delta, dist = ContainingFallback, 1
	}
	normal := r2.Scale(1/dist, delta)
	b.Move(r2.Scale(-(dist - maxDist), normal))
}
