package viz

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/pbdsim/internal/constraint"
	"github.com/san-kum/pbdsim/internal/engine"
)

// Projection maps scene coordinates onto canvas pixels, keeping the aspect
// ratio and centering the scene.
type Projection struct {
	Scale      float64
	OffX, OffY float64
}

func NewProjection(sceneW, sceneH float64, pixelW, pixelH int) Projection {
	if sceneW <= 0 || sceneH <= 0 || pixelW <= 0 || pixelH <= 0 {
		return Projection{Scale: 1}
	}
	s := math.Min(float64(pixelW-1)/sceneW, float64(pixelH-1)/sceneH)
	return Projection{
		Scale: s,
		OffX:  (float64(pixelW-1) - sceneW*s) / 2,
		OffY:  (float64(pixelH-1) - sceneH*s) / 2,
	}
}

// Point converts a scene position to a pixel.
func (p Projection) Point(v r2.Vec) (int, int) {
	return int(math.Round(v.X*p.Scale + p.OffX)), int(math.Round(v.Y*p.Scale + p.OffY))
}

// Length converts a scene distance to pixels.
func (p Projection) Length(l float64) int {
	return int(math.Round(l * p.Scale))
}

// Unproject converts a pixel back to scene coordinates.
func (p Projection) Unproject(x, y int) r2.Vec {
	if p.Scale == 0 {
		return r2.Vec{}
	}
	return r2.Vec{X: (float64(x) - p.OffX) / p.Scale, Y: (float64(y) - p.OffY) / p.Scale}
}

// RenderOptions selects the optional layers DrawFrame paints.
type RenderOptions struct {
	Springs     bool
	Constraints bool
	Grid        bool
}

func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Springs: true, Constraints: true}
}

// DrawFrame clears c and paints f onto it.
func DrawFrame(c *Canvas, f *engine.Frame, opts RenderOptions) Projection {
	c.Clear()
	pw, ph := c.Pixels()
	proj := NewProjection(f.Width, f.Height, pw, ph)

	if opts.Grid {
		drawGrid(c, f, proj)
	}
	if opts.Constraints {
		for _, k := range f.Constraints {
			drawConstraint(c, k, f, proj)
		}
	}
	if opts.Springs {
		lookup := f.Lookup()
		for _, l := range f.Springs {
			a, okA := lookup(l.KeyA())
			b, okB := lookup(l.KeyB())
			if !okA || !okB {
				continue
			}
			x0, y0 := proj.Point(a.Position)
			x1, y1 := proj.Point(b.Position)
			c.DrawLine(x0, y0, x1, y1)
		}
	}
	for i := range f.Bodies {
		b := &f.Bodies[i]
		x, y := proj.Point(b.Position)
		r := proj.Length(b.Radius)
		if r <= 2 {
			c.FillCircle(x, y, r)
		} else {
			c.DrawCircle(x, y, r)
		}
	}
	return proj
}

func drawGrid(c *Canvas, f *engine.Frame, proj Projection) {
	if f.Cols == 0 || f.Rows == 0 {
		return
	}
	cw, ch := f.Width/float64(f.Cols), f.Height/float64(f.Rows)
	for i := 1; i < f.Cols; i++ {
		x, y0 := proj.Point(r2.Vec{X: float64(i) * cw})
		_, y1 := proj.Point(r2.Vec{X: float64(i) * cw, Y: f.Height})
		for y := y0; y <= y1; y += 3 {
			c.Set(x, y)
		}
	}
	for j := 1; j < f.Rows; j++ {
		x0, y := proj.Point(r2.Vec{Y: float64(j) * ch})
		x1, _ := proj.Point(r2.Vec{X: f.Width, Y: float64(j) * ch})
		for x := x0; x <= x1; x += 3 {
			c.Set(x, y)
		}
	}
}

func drawConstraint(c *Canvas, k constraint.Constraint, f *engine.Frame, proj Projection) {
	switch k.Kind {
	case constraint.Plane:
		// dot(n, p) = offset, clipped to the scene diagonal
		origin := r2.Scale(k.Offset, k.Normal)
		dir := r2.Vec{X: -k.Normal.Y, Y: k.Normal.X}
		reach := math.Hypot(f.Width, f.Height)
		x0, y0 := proj.Point(r2.Add(origin, r2.Scale(-reach, dir)))
		x1, y1 := proj.Point(r2.Add(origin, r2.Scale(reach, dir)))
		c.DrawLine(x0, y0, x1, y1)
	case constraint.ExcludingDisk:
		x, y := proj.Point(k.Center)
		c.FillCircle(x, y, proj.Length(k.Radius))
	case constraint.ContainingDisk:
		x, y := proj.Point(k.Center)
		c.DrawCircle(x, y, proj.Length(k.Radius))
	}
}
