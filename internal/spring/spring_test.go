package spring

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/pbdsim/internal/body"
)

func member(x, y float64, mass float64, node int) *body.Body {
	b := body.New(r2.Vec{X: x, Y: y}, 5, mass)
	b.GroupID, b.NodeIndex = 0, node
	return &b
}

func lookupOf(bs ...*body.Body) Lookup {
	m := make(map[body.Key]*body.Body, len(bs))
	for _, b := range bs {
		m[b.Key()] = b
	}
	return func(k body.Key) (*body.Body, bool) {
		b, ok := m[k]
		return b, ok
	}
}

func TestCompliance(t *testing.T) {
	tests := []struct {
		name      string
		stiffness float64
		substeps  int
		want      float64
	}{
		{"single substep", 0.5, 1, 0.5},
		{"rigid", 1, 4, 1},
		{"slack", 0, 4, 0},
		{"quartered", 0.9375, 4, 0.5},
		{"clamped high", 2, 4, 1},
		{"clamped low", -1, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compliance(tt.stiffness, tt.substeps); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestResolveLinkEqualMass(t *testing.T) {
	a := member(0, 0, 1, 0)
	b := member(20, 0, 1, 1)

	ResolveLink(a, b, 10, 1)

	if math.Abs(a.Position.X-5) > 1e-9 || math.Abs(b.Position.X-15) > 1e-9 {
		t.Errorf("expected 5 and 15, got %f and %f", a.Position.X, b.Position.X)
	}
}

func TestResolveLinkMassSplit(t *testing.T) {
	a := member(0, 0, 1, 0)
	b := member(0, 30, 0, 1) // anchored

	ResolveLink(a, b, 10, 1)

	if b.Position != (r2.Vec{X: 0, Y: 30}) {
		t.Errorf("anchor moved to %v", b.Position)
	}
	if math.Abs(a.Position.Y-20) > 1e-9 {
		t.Errorf("expected free end at y=20, got %f", a.Position.Y)
	}
}

func TestResolveLinkSkips(t *testing.T) {
	t.Run("both immovable", func(t *testing.T) {
		a, b := member(0, 0, 0, 0), member(50, 0, 0, 1)
		ResolveLink(a, b, 10, 1)
		if a.Position.X != 0 || b.Position.X != 50 {
			t.Error("immovable pair moved")
		}
	})
	t.Run("coincident", func(t *testing.T) {
		a, b := member(5, 5, 1, 0), member(5, 5, 1, 1)
		ResolveLink(a, b, 10, 1)
		if a.Position != b.Position {
			t.Error("coincident pair moved")
		}
	})
}

func TestResolveMissingEndpoint(t *testing.T) {
	a := member(0, 0, 1, 0)
	links := []Link{{GroupID: 0, NodeA: 0, NodeB: 7, RestLength: 1, Stiffness: 1}}

	Resolve(links, lookupOf(a), 4)

	if a.Position != (r2.Vec{}) {
		t.Errorf("link to a missing node moved %v", a.Position)
	}
}

func TestResolveConverges(t *testing.T) {
	a := member(0, 0, 1, 0)
	b := member(40, 0, 1, 1)
	links := []Link{{GroupID: 0, NodeA: 0, NodeB: 1, RestLength: 20, Stiffness: 0.5}}
	lookup := lookupOf(a, b)

	before := Stretch(links[0], lookup)
	for i := 0; i < 64; i++ {
		Resolve(links, lookup, 4)
	}
	after := Stretch(links[0], lookup)

	if after >= before || after > 1e-3 {
		t.Errorf("expected stretch to shrink toward 0, went %f -> %f", before, after)
	}
	mid := r2.Scale(0.5, r2.Add(a.Position, b.Position))
	if math.Abs(mid.X-20) > 1e-9 {
		t.Errorf("equal masses should keep the midpoint, got %v", mid)
	}
}
