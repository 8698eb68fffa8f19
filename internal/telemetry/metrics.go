// Package telemetry measures a running scene and records per-tick statistics.
package telemetry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/pbdsim/internal/body"
	"github.com/san-kum/pbdsim/internal/engine"
	"github.com/san-kum/pbdsim/internal/spring"
)

// Metric accumulates a scalar over a sequence of frames.
type Metric interface {
	Name() string
	Observe(f *engine.Frame)
	Value() float64
	Reset()
}

// KineticEnergy is the mean of 0.5*m*|v|^2 summed over movable bodies.
type KineticEnergy struct {
	last    float64
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy { return &KineticEnergy{} }

func (k *KineticEnergy) Name() string { return "kinetic_energy" }

func (k *KineticEnergy) Observe(f *engine.Frame) {
	k.last = SceneEnergy(f.Bodies)
	k.total += k.last
	k.samples++
}

func (k *KineticEnergy) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

// Last is the energy at the most recent frame.
func (k *KineticEnergy) Last() float64 { return k.last }

func (k *KineticEnergy) Reset() { *k = KineticEnergy{} }

// SceneEnergy sums the kinetic energy of every movable body.
func SceneEnergy(bodies []body.Body) float64 {
	var e float64
	for i := range bodies {
		b := &bodies[i]
		if !b.Movable() {
			continue
		}
		e += 0.5 * b.Mass() * r2.Norm2(b.Velocity)
	}
	return e
}

// MaxOverlap tracks the deepest body-body penetration seen.
type MaxOverlap struct {
	max float64
}

func NewMaxOverlap() *MaxOverlap { return &MaxOverlap{} }

func (m *MaxOverlap) Name() string { return "max_overlap" }

func (m *MaxOverlap) Observe(f *engine.Frame) {
	m.max = math.Max(m.max, FrameOverlap(f))
}

func (m *MaxOverlap) Value() float64 { return m.max }

func (m *MaxOverlap) Reset() { m.max = 0 }

var neighbors = [...][2]int{{1, 0}, {0, 1}, {1, 1}, {-1, 1}}

// FrameOverlap returns the deepest penetration between any two bodies in
// the same or adjacent cells.
func FrameOverlap(f *engine.Frame) float64 {
	var worst float64
	pen := func(i, j int) {
		a, b := &f.Bodies[i], &f.Bodies[j]
		d := r2.Norm(r2.Sub(b.Position, a.Position))
		worst = math.Max(worst, a.Radius+b.Radius-d)
	}
	for idx, cell := range f.Cells {
		col, row := idx%f.Cols, idx/f.Cols
		for i := 0; i < len(cell); i++ {
			for j := i + 1; j < len(cell); j++ {
				pen(cell[i], cell[j])
			}
		}
		for _, off := range neighbors {
			nc, nr := col+off[0], row+off[1]
			if nc < 0 || nc >= f.Cols || nr < 0 || nr >= f.Rows {
				continue
			}
			for _, a := range cell {
				for _, b := range f.Cells[nr*f.Cols+nc] {
					pen(a, b)
				}
			}
		}
	}
	return worst
}

// SpringError tracks the relative stretch of every link.
type SpringError struct {
	mean, p90 float64
	sumMeans  float64
	samples   int
}

func NewSpringError() *SpringError { return &SpringError{} }

func (s *SpringError) Name() string { return "spring_error" }

func (s *SpringError) Observe(f *engine.Frame) {
	s.mean, s.p90 = LinkStretch(f)
	s.sumMeans += s.mean
	s.samples++
}

// Value is the mean relative stretch averaged over all observed frames.
func (s *SpringError) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.sumMeans / float64(s.samples)
}

// Last returns the mean and 90th percentile stretch of the latest frame.
func (s *SpringError) Last() (mean, p90 float64) { return s.mean, s.p90 }

func (s *SpringError) Reset() { *s = SpringError{} }

// LinkStretch returns the mean and 90th percentile of |d-rest|/rest over the
// frame's links.
func LinkStretch(f *engine.Frame) (mean, p90 float64) {
	if len(f.Springs) == 0 {
		return 0, 0
	}
	lookup := f.Lookup()
	errs := make([]float64, len(f.Springs))
	for i, l := range f.Springs {
		errs[i] = spring.Stretch(l, lookup)
	}
	sort.Float64s(errs)
	return stat.Mean(errs, nil), stat.Quantile(0.9, stat.Empirical, errs, nil)
}
