package engine

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/pbdsim/internal/body"
	"github.com/san-kum/pbdsim/internal/constraint"
	"github.com/san-kum/pbdsim/internal/spring"
)

// Frame is a detached copy of a scene, safe to hand to renderers and
// recorders while the Context keeps stepping.
type Frame struct {
	Tick   int
	Time   float64
	Width  float64
	Height float64
	Cols   int
	Rows   int

	Bodies []body.Body
	// Cells holds indices into Bodies, row-major.
	Cells       [][]int
	Constraints []constraint.Constraint
	Springs     []spring.Link
}

// Snapshot copies the current scene.
func (c *Context) Snapshot() Frame {
	w, h := c.grid.Size()
	f := Frame{
		Tick:        c.ticks,
		Time:        c.simTime,
		Width:       w,
		Height:      h,
		Cols:        c.grid.Cols(),
		Rows:        c.grid.Rows(),
		Bodies:      c.Bodies(),
		Cells:       make([][]int, c.grid.Len()),
		Constraints: c.constraints.All(),
		Springs:     c.Springs(),
	}
	for i := range f.Cells {
		f.Cells[i] = append([]int(nil), c.grid.Cell(i)...)
	}
	return f
}

// Lookup returns a spring.Lookup over the frame's cluster members.
func (f *Frame) Lookup() spring.Lookup {
	index := make(map[body.Key]int)
	for i := range f.Bodies {
		if f.Bodies[i].Clustered() {
			index[f.Bodies[i].Key()] = i
		}
	}
	return func(k body.Key) (*body.Body, bool) {
		i, ok := index[k]
		if !ok {
			return nil, false
		}
		return &f.Bodies[i], true
	}
}

// Center returns the scene center.
func (f *Frame) Center() r2.Vec {
	return r2.Vec{X: f.Width * 0.5, Y: f.Height * 0.5}
}
