package constraint

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/pbdsim/internal/body"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestPlaneProject(t *testing.T) {
	tests := []struct {
		name  string
		plane Constraint
		start r2.Vec
		want  r2.Vec
	}{
		{"left wall pushes right", NewPlane(r2.Vec{X: 1}, 0), r2.Vec{X: 20, Y: 100}, r2.Vec{X: 30, Y: 100}},
		{"right wall pushes left", NewPlane(r2.Vec{X: -1}, -800), r2.Vec{X: 790, Y: 100}, r2.Vec{X: 770, Y: 100}},
		{"valid untouched", NewPlane(r2.Vec{X: 1}, 0), r2.Vec{X: 50, Y: 100}, r2.Vec{X: 50, Y: 100}},
		{"exactly touching", NewPlane(r2.Vec{Y: 1}, 0), r2.Vec{X: 5, Y: 30}, r2.Vec{X: 5, Y: 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := body.New(tt.start, 30, 1)
			tt.plane.Project(&b)
			if !near(b.Position.X, tt.want.X) || !near(b.Position.Y, tt.want.Y) {
				t.Errorf("expected %v, got %v", tt.want, b.Position)
			}
		})
	}
}

func TestPlaneZeroNormal(t *testing.T) {
	p := NewPlane(r2.Vec{}, 0)
	if p.Normal != (r2.Vec{X: 0, Y: 1}) {
		t.Errorf("expected fallback normal (0,1), got %v", p.Normal)
	}
}

func TestPlaneNormalized(t *testing.T) {
	p := NewPlane(r2.Vec{X: 3, Y: 4}, 0)
	if !near(r2.Norm(p.Normal), 1) {
		t.Errorf("expected unit normal, got length %f", r2.Norm(p.Normal))
	}
}

func TestExcludingDisk(t *testing.T) {
	c := NewExcludingDisk(r2.Vec{X: 100, Y: 100}, 50)

	b := body.New(r2.Vec{X: 160, Y: 100}, 20, 1)
	c.Project(&b)
	if !near(b.Position.X, 170) || !near(b.Position.Y, 100) {
		t.Errorf("expected (170,100), got %v", b.Position)
	}

	centered := body.New(r2.Vec{X: 100, Y: 100}, 20, 1)
	c.Project(&centered)
	if !near(centered.Position.X, 100+70-1) {
		t.Errorf("expected fallback push along +x to %f, got %v", 169.0, centered.Position)
	}
}

func TestContainingDisk(t *testing.T) {
	c := NewContainingDisk(r2.Vec{X: 0, Y: 0}, 100)

	b := body.New(r2.Vec{X: 0, Y: 120}, 10, 1)
	c.Project(&b)
	if !near(b.Position.Y, 90) || !near(b.Position.X, 0) {
		t.Errorf("expected (0,90), got %v", b.Position)
	}

	inside := body.New(r2.Vec{X: 10, Y: 10}, 10, 1)
	c.Project(&inside)
	if inside.Position != (r2.Vec{X: 10, Y: 10}) {
		t.Errorf("inside body moved to %v", inside.Position)
	}
}

func TestContainingDiskDegenerate(t *testing.T) {
	empty := NewContainingDisk(r2.Vec{}, 0)
	b := body.New(r2.Vec{X: 500, Y: 500}, 10, 1)
	empty.Project(&b)
	if b.Position != (r2.Vec{X: 500, Y: 500}) {
		t.Errorf("zero-radius bowl should be a no-op, moved to %v", b.Position)
	}

	// body larger than the bowl: maxDist is 0, the center is the only valid spot
	tiny := NewContainingDisk(r2.Vec{X: 50, Y: 50}, 5)
	big := body.New(r2.Vec{X: 60, Y: 50}, 10, 1)
	tiny.Project(&big)
	if !near(big.Position.X, 50) || !near(big.Position.Y, 50) {
		t.Errorf("expected body pulled to center, got %v", big.Position)
	}
}

func TestImmovableUntouched(t *testing.T) {
	cs := []Constraint{
		NewPlane(r2.Vec{X: 1}, 0),
		NewExcludingDisk(r2.Vec{}, 50),
		NewContainingDisk(r2.Vec{X: 1000, Y: 1000}, 10),
	}
	for _, c := range cs {
		t.Run(c.Kind.String(), func(t *testing.T) {
			b := body.New(r2.Vec{X: 1, Y: 1}, 10, 0)
			c.Project(&b)
			if b.Position != (r2.Vec{X: 1, Y: 1}) {
				t.Errorf("immovable body moved to %v", b.Position)
			}
		})
	}
}

func TestProjectionSettles(t *testing.T) {
	cs := []Constraint{
		NewPlane(r2.Vec{X: 1, Y: 1}, 10),
		NewExcludingDisk(r2.Vec{X: 40, Y: 40}, 30),
		NewContainingDisk(r2.Vec{X: 0, Y: 0}, 60),
	}
	for _, c := range cs {
		t.Run(c.Kind.String(), func(t *testing.T) {
			b := body.New(r2.Vec{X: 30, Y: 35}, 8, 1)
			c.Project(&b)
			if pen := c.Penetration(&b); pen > 1e-9 {
				t.Errorf("still penetrating by %g after projection", pen)
			}
			once := b.Position
			c.Project(&b)
			if !near(once.X, b.Position.X) || !near(once.Y, b.Position.Y) {
				t.Errorf("second projection moved %v -> %v", once, b.Position)
			}
		})
	}
}

func TestBoundary(t *testing.T) {
	s := Boundary(800, 600, DefaultLayout())
	if s.Len() != 5 {
		t.Fatalf("expected 4 walls + bowl, got %d", s.Len())
	}
	bowl := s.At(4)
	if bowl.Kind != ContainingDisk {
		t.Fatalf("expected bowl last, got %s", bowl.Kind)
	}
	if bowl.Center != (r2.Vec{X: 400, Y: 180}) || bowl.Radius != 400 {
		t.Errorf("unexpected bowl %v r=%f", bowl.Center, bowl.Radius)
	}

	withObstacle := Boundary(800, 600, Layout{Obstacles: []Obstacle{{X: 0.5, Y: 0.5, Radius: 0.1}}})
	if withObstacle.Len() != 5 || withObstacle.At(4).Kind != ExcludingDisk {
		t.Fatalf("expected walls + obstacle, got %d", withObstacle.Len())
	}
	if withObstacle.At(4).Radius != 60 {
		t.Errorf("expected obstacle radius 60, got %f", withObstacle.At(4).Radius)
	}
}

func TestSetAllIsCopy(t *testing.T) {
	s := NewSet(NewPlane(r2.Vec{X: 1}, 0))
	all := s.All()
	all[0].Offset = 99
	if s.At(0).Offset != 0 {
		t.Error("mutating All() leaked into the set")
	}
}
