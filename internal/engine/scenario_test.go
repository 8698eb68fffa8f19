package engine_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/pbdsim/internal/engine"
	"github.com/san-kum/pbdsim/internal/spring"
)

const frame = 1.0 / 60

var _ = Describe("Context", func() {
	var ctx *engine.Context

	newContext := func(mutate func(*engine.Config)) *engine.Context {
		cfg := engine.DefaultConfig()
		cfg.Workers = 4
		if mutate != nil {
			mutate(&cfg)
		}
		c, err := engine.New(cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(c.Close)
		return c
	}

	Context("when the frame duration is not positive", func() {
		BeforeEach(func() {
			ctx = newContext(nil)
			ctx.SpawnBody(r2.Vec{X: 200, Y: 100}, 10, 1, r2.Vec{X: 5, Y: 0})
			ctx.SpawnCluster(r2.Vec{X: 500, Y: 200})
		})

		It("leaves the scene untouched", func() {
			before := ctx.Snapshot()
			ctx.Step(0)
			ctx.Step(-frame)
			after := ctx.Snapshot()

			Expect(after.Tick).To(Equal(before.Tick))
			Expect(after.Bodies).To(Equal(before.Bodies))
		})
	})

	Context("with a body pressed into the left wall", func() {
		It("projects it out by its penetration depth", func() {
			ctx = newContext(func(cfg *engine.Config) { cfg.Solver.Gravity = r2.Vec{} })
			ctx.SpawnBody(r2.Vec{X: 20, Y: 300}, 30, 1, r2.Vec{})

			cs := ctx.Constraints()
			b := ctx.Bodies()[0]
			cs.At(0).Project(&b)
			Expect(b.Position.X).To(BeNumerically("~", 30, 1e-9))
			Expect(b.Position.Y).To(Equal(300.0))
		})
	})

	Context("with two overlapping equal bodies and no gravity", func() {
		It("separates them symmetrically", func() {
			ctx = newContext(func(cfg *engine.Config) {
				cfg.Solver.Gravity = r2.Vec{}
				cfg.Layout.Bowl = false
			})
			ctx.SpawnBody(r2.Vec{X: 400, Y: 300}, 10, 1, r2.Vec{})
			ctx.SpawnBody(r2.Vec{X: 405, Y: 300}, 10, 1, r2.Vec{})

			ctx.Step(frame)

			bs := ctx.Bodies()
			Expect(r2.Norm(r2.Sub(bs[1].Position, bs[0].Position))).To(BeNumerically(">=", 20-1e-6))
			mid := r2.Scale(0.5, r2.Add(bs[0].Position, bs[1].Position))
			Expect(mid.X).To(BeNumerically("~", 402.5, 1e-6))
			Expect(bs[0].Position.Y).To(Equal(300.0))
			Expect(bs[0].Velocity.X).To(BeNumerically("~", -bs[1].Velocity.X, 1e-6))
		})
	})

	Context("with a spring cluster", func() {
		BeforeEach(func() {
			ctx = newContext(nil)
			ctx.SpawnCluster(r2.Vec{X: 400, Y: 300})
		})

		It("keeps every link near its rest length while settling", func() {
			for i := 0; i < 300; i++ {
				ctx.Step(frame)
			}

			f := ctx.Snapshot()
			lookup := f.Lookup()
			Expect(f.Springs).To(HaveLen(6))
			for _, l := range f.Springs {
				Expect(spring.Stretch(l, lookup)).To(BeNumerically("<", 0.1),
					"link %d-%d", l.NodeA, l.NodeB)
			}
		})

		It("comes to rest inside the scene", func() {
			for i := 0; i < 300; i++ {
				ctx.Step(frame)
			}
			w, h := ctx.SceneSize()
			for _, b := range ctx.Bodies() {
				Expect(b.Position.X).To(BeNumerically(">=", b.Radius-1e-6))
				Expect(b.Position.X).To(BeNumerically("<=", w-b.Radius+1e-6))
				Expect(b.Position.Y).To(BeNumerically("<=", h-b.Radius+1e-6))
			}
		})
	})

	Context("when the scene is resized to half its width", func() {
		BeforeEach(func() {
			ctx = newContext(nil)
			for i := 0; i < 8; i++ {
				ctx.SpawnBody(r2.Vec{X: 50 + 100*float64(i), Y: 50 + 60*float64(i)}, 5, 1, r2.Vec{})
			}
			ctx.ResizeScene(400, 600)
		})

		It("recomputes the grid from the cell size", func() {
			cols, rows := ctx.GridDims()
			Expect(cols).To(Equal(2))
			Expect(rows).To(Equal(3))
		})

		It("buckets every body by its clamped position", func() {
			f := ctx.Snapshot()
			cw, ch := f.Width/float64(f.Cols), f.Height/float64(f.Rows)
			seen := 0
			for idx, cell := range f.Cells {
				col, row := idx%f.Cols, idx/f.Cols
				for _, i := range cell {
					p := f.Bodies[i].Position
					x := math.Min(math.Max(p.X, 0), f.Width-1e-3)
					y := math.Min(math.Max(p.Y, 0), f.Height-1e-3)
					Expect(int(x / cw)).To(Equal(col))
					Expect(int(y / ch)).To(Equal(row))
					seen++
				}
			}
			Expect(seen).To(Equal(8))
		})

		It("pushes bodies back inside the new walls on the next step", func() {
			ctx.Step(frame)
			for _, b := range ctx.Bodies() {
				Expect(b.Position.X).To(BeNumerically("<=", 400-b.Radius+1e-6))
			}
		})
	})
})
