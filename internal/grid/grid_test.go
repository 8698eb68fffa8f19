package grid

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/pbdsim/internal/body"
)

func TestNewDimensions(t *testing.T) {
	tests := []struct {
		name       string
		w, h, size float64
		cols, rows int
	}{
		{"exact", 800, 600, 200, 4, 3},
		{"ceil", 801, 599, 200, 5, 3},
		{"smaller than cell", 50, 40, 200, 1, 1},
		{"degenerate scene", 0, 0, 200, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.w, tt.h, tt.size)
			if g.Cols() != tt.cols || g.Rows() != tt.rows {
				t.Errorf("expected %dx%d, got %dx%d", tt.cols, tt.rows, g.Cols(), g.Rows())
			}
			w, h := g.Size()
			cw, ch := g.CellSize()
			if cw*float64(g.Cols()) != w || ch*float64(g.Rows()) != h {
				t.Errorf("cells do not tile the scene: %fx%f over %fx%f", cw, ch, w, h)
			}
		})
	}
}

func TestCellIndexFor(t *testing.T) {
	g := New(800, 600, 200)

	tests := []struct {
		name string
		p    r2.Vec
		want int
	}{
		{"origin", r2.Vec{X: 0, Y: 0}, 0},
		{"second column", r2.Vec{X: 250, Y: 10}, 1},
		{"second row", r2.Vec{X: 10, Y: 250}, 4},
		{"far corner", r2.Vec{X: 800, Y: 600}, 11},
		{"negative clamps", r2.Vec{X: -50, Y: -50}, 0},
		{"beyond clamps", r2.Vec{X: 5000, Y: 10}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.CellIndexFor(tt.p); got != tt.want {
				t.Errorf("CellIndexFor(%v) = %d, want %d", tt.p, got, tt.want)
			}
		})
	}
}

func TestZeroGridIsNoop(t *testing.T) {
	var g Grid

	if idx := g.CellIndexFor(r2.Vec{X: 1, Y: 1}); idx != -1 {
		t.Errorf("expected -1, got %d", idx)
	}
	if slot := g.Insert(body.New(r2.Vec{}, 1, 1)); slot != -1 {
		t.Errorf("expected -1 slot, got %d", slot)
	}
	g.Rehash()
	if g.Count() != 0 {
		t.Errorf("expected no bodies, got %d", g.Count())
	}
}

// assertInvariant checks that every body is in exactly one cell and that cell
// contains its clamped position.
func assertInvariant(t *testing.T, g *Grid) {
	t.Helper()
	seen := make([]int, g.Count())
	for i := 0; i < g.Len(); i++ {
		lo, hi := g.CellBounds(i)
		for _, slot := range g.Cell(i) {
			seen[slot]++
			p := g.Clamp(g.Body(slot).Position)
			if p.X < lo.X || p.X >= hi.X || p.Y < lo.Y || p.Y >= hi.Y {
				t.Errorf("body %d at %v outside cell %d [%v, %v)", slot, p, i, lo, hi)
			}
		}
	}
	for slot, n := range seen {
		if n != 1 {
			t.Errorf("body %d appears in %d cells", slot, n)
		}
	}
}

func TestRehashInvariant(t *testing.T) {
	g := New(800, 600, 100)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		p := r2.Vec{X: rng.Float64()*1000 - 100, Y: rng.Float64()*800 - 100}
		g.Insert(body.New(p, 5, 1))
	}
	assertInvariant(t, g)

	for slot := 0; slot < g.Count(); slot++ {
		b := g.Body(slot)
		b.Move(r2.Vec{X: rng.Float64()*300 - 150, Y: rng.Float64()*300 - 150})
	}
	g.Rehash()
	assertInvariant(t, g)
}

func TestResizeReclamps(t *testing.T) {
	g := New(800, 600, 200)
	for x := 10.0; x < 800; x += 50 {
		g.Insert(body.New(r2.Vec{X: x, Y: 300}, 5, 1))
	}

	g.Resize(400, 600)

	if g.Cols() != 2 || g.Rows() != 3 {
		t.Errorf("expected 2x3 after resize, got %dx%d", g.Cols(), g.Rows())
	}
	if g.Count() != 16 {
		t.Errorf("expected 16 bodies kept, got %d", g.Count())
	}
	assertInvariant(t, g)
}

func TestLookup(t *testing.T) {
	g := New(800, 600, 200)
	b := body.New(r2.Vec{X: 100, Y: 100}, 5, 1)
	b.GroupID, b.NodeIndex = 3, 2
	g.Insert(body.New(r2.Vec{X: 10, Y: 10}, 5, 1))
	slot := g.Insert(b)

	got, ok := g.Lookup(body.Key{Group: 3, Node: 2})
	if !ok {
		t.Fatal("cluster member not found")
	}
	if got != g.Body(slot) {
		t.Error("lookup returned a different slot")
	}

	if _, ok := g.Lookup(body.Key{Group: 3, Node: 1}); ok {
		t.Error("expected missing node")
	}
}

func BenchmarkRehash(b *testing.B) {
	g := New(1920, 1080, 64)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20000; i++ {
		g.Insert(body.New(r2.Vec{X: rng.Float64() * 1920, Y: rng.Float64() * 1080}, 3, 1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Rehash()
	}
}
