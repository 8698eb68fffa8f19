package dispatch

import (
	"sync"
	"sync/atomic"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/pbdsim/internal/body"
	"github.com/san-kum/pbdsim/internal/grid"
)

func TestChunks(t *testing.T) {
	tests := []struct {
		name    string
		cols    int
		workers int
		want    []Span
	}{
		{"even", 8, 4, []Span{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{"ragged", 10, 4, []Span{{0, 3}, {3, 6}, {6, 9}, {9, 10}}},
		{"more workers than cols", 3, 16, []Span{{0, 1}, {1, 2}, {2, 3}}},
		{"single worker", 5, 1, []Span{{0, 5}}},
		{"no columns", 0, 4, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunks(tt.cols, tt.workers)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d spans, got %d: %v", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("span %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestRunCoversEveryColumnOnce(t *testing.T) {
	d := New(4)
	defer d.Close()

	const cols = 37
	var hits [cols]atomic.Int32
	d.Run(cols, func(lo, hi int) {
		for c := lo; c < hi; c++ {
			hits[c].Add(1)
		}
	})

	for c := range hits {
		if n := hits[c].Load(); n != 1 {
			t.Errorf("column %d visited %d times", c, n)
		}
	}
	if batches, chunks := d.Stats(); batches != 1 || chunks != 4 {
		t.Errorf("expected 1 batch of 4 chunks, got %d/%d", batches, chunks)
	}
}

func TestSingleWorkerRunsInline(t *testing.T) {
	d := New(1)
	defer d.Close()

	calls := 0
	d.Run(12, func(lo, hi int) {
		calls++
		if lo != 0 || hi != 12 {
			t.Errorf("expected the full range, got [%d,%d)", lo, hi)
		}
	})
	if calls != 1 {
		t.Errorf("expected one inline call, got %d", calls)
	}
}

func TestRunAfterClose(t *testing.T) {
	d := New(4)
	d.Close()
	d.Close()

	var total int
	d.Run(9, func(lo, hi int) { total += hi - lo })
	if total != 9 {
		t.Errorf("expected inline run over 9 columns, got %d", total)
	}
}

func TestForEachBody(t *testing.T) {
	g := grid.New(800, 600, 50)
	for x := 5.0; x < 800; x += 10 {
		for y := 5.0; y < 600; y += 40 {
			g.Insert(body.New(r2.Vec{X: x, Y: y}, 2, 1))
		}
	}

	d := New(8)
	defer d.Close()

	d.ForEachBody(g, func(b *body.Body) {
		b.Move(r2.Vec{X: 0, Y: 1})
	})

	for slot := 0; slot < g.Count(); slot++ {
		b := g.Body(slot)
		if b.Position.Y-b.PrevPosition.Y != 1 {
			t.Fatalf("body %d moved by %f", slot, b.Position.Y-b.PrevPosition.Y)
		}
	}
}

func TestForEachCell(t *testing.T) {
	g := grid.New(400, 300, 50)
	d := New(3)
	defer d.Close()

	var mu sync.Mutex
	seen := make(map[[2]int]int)
	d.ForEachCell(g, func(col, row int) {
		mu.Lock()
		seen[[2]int{col, row}]++
		mu.Unlock()
	})

	if len(seen) != g.Len() {
		t.Errorf("expected %d cells, got %d", g.Len(), len(seen))
	}
	for k, n := range seen {
		if n != 1 {
			t.Errorf("cell %v visited %d times", k, n)
		}
	}
}

func BenchmarkRun(b *testing.B) {
	d := New(0)
	defer d.Close()
	var sink atomic.Int64

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Run(64, func(lo, hi int) { sink.Add(int64(hi - lo)) })
	}
}
