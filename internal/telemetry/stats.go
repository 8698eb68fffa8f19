package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/pbdsim/internal/engine"
)

// TickStats is one telemetry row.
type TickStats struct {
	Tick     int     `csv:"tick"`
	SimTime  float64 `csv:"sim_time"`
	Bodies   int     `csv:"bodies"`
	Clusters int     `csv:"clusters"`
	Links    int     `csv:"links"`

	KineticEnergy float64 `csv:"kinetic_energy"`
	MaxOverlap    float64 `csv:"max_overlap"`
	SpringMean    float64 `csv:"spring_err_mean"`
	SpringP90     float64 `csv:"spring_err_p90"`

	StepMicros int64 `csv:"step_us"`
}

// Collect measures a frame. stepTime is the wall time of the Step that
// produced it.
func Collect(f *engine.Frame, stepTime time.Duration) TickStats {
	groups := make(map[int]struct{})
	for i := range f.Bodies {
		if f.Bodies[i].Clustered() {
			groups[f.Bodies[i].GroupID] = struct{}{}
		}
	}
	mean, p90 := LinkStretch(f)
	return TickStats{
		Tick:          f.Tick,
		SimTime:       f.Time,
		Bodies:        len(f.Bodies),
		Clusters:      len(groups),
		Links:         len(f.Springs),
		KineticEnergy: SceneEnergy(f.Bodies),
		MaxOverlap:    FrameOverlap(f),
		SpringMean:    mean,
		SpringP90:     p90,
		StepMicros:    stepTime.Microseconds(),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s TickStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", s.Tick),
		slog.Float64("sim_time", s.SimTime),
		slog.Int("bodies", s.Bodies),
		slog.Int("clusters", s.Clusters),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("max_overlap", s.MaxOverlap),
		slog.Float64("spring_err_mean", s.SpringMean),
		slog.Int64("step_us", s.StepMicros),
	)
}

// Summary aggregates a run.
type Summary struct {
	Ticks          int
	FinalBodies    int
	EnergyMean     float64
	EnergyStd      float64
	WorstOverlap   float64
	SpringErrMean  float64
	StepMicrosMean float64
	StepMicrosP90  float64
}

func Summarize(rows []TickStats) Summary {
	if len(rows) == 0 {
		return Summary{}
	}
	energy := make([]float64, len(rows))
	springErr := make([]float64, len(rows))
	step := make([]float64, len(rows))
	var worst float64
	for i, r := range rows {
		energy[i] = r.KineticEnergy
		springErr[i] = r.SpringMean
		step[i] = float64(r.StepMicros)
		worst = max(worst, r.MaxOverlap)
	}

	s := Summary{
		Ticks:         len(rows),
		FinalBodies:   rows[len(rows)-1].Bodies,
		WorstOverlap:  worst,
		SpringErrMean: stat.Mean(springErr, nil),
	}
	s.EnergyMean, s.EnergyStd = stat.MeanStdDev(energy, nil)
	if len(rows) == 1 {
		s.EnergyStd = 0
	}
	s.StepMicrosMean = stat.Mean(step, nil)
	sort.Float64s(step)
	s.StepMicrosP90 = stat.Quantile(0.9, stat.Empirical, step, nil)
	return s
}

// Metrics flattens a summary for run metadata.
func (s Summary) Metrics() map[string]float64 {
	return map[string]float64{
		"ticks":           float64(s.Ticks),
		"final_bodies":    float64(s.FinalBodies),
		"energy_mean":     s.EnergyMean,
		"energy_std":      s.EnergyStd,
		"worst_overlap":   s.WorstOverlap,
		"spring_err_mean": s.SpringErrMean,
		"step_us_mean":    s.StepMicrosMean,
		"step_us_p90":     s.StepMicrosP90,
	}
}
