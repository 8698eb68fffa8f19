package engine

import (
	"math"

	"github.com/san-kum/pbdsim/internal/constraint"
	"github.com/san-kum/pbdsim/internal/solver"
)

const (
	DefaultWidth    = 800
	DefaultHeight   = 600
	DefaultCellSize = 200
)

// SpawnConfig holds the shapes produced by the convenience spawners.
type SpawnConfig struct {
	UserRadius float64

	EmitterRadius   float64
	EmitterMass     float64
	EmitterSpeed    float64
	EmitterInterval float64

	ClusterRadius        float64
	ClusterHalfSpacing   float64
	ClusterMass          float64
	ClusterEdgeStiff     float64
	ClusterDiagonalStiff float64

	SoftBody SoftBodySpec
}

// SoftBodySpec describes a ladder-shaped soft body.
type SoftBodySpec struct {
	Pairs     int
	Radius    float64
	Spacing   float64
	Mass      float64
	Stiffness float64
}

func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{
		UserRadius:           30,
		EmitterRadius:        5,
		EmitterMass:          1,
		EmitterSpeed:         220,
		EmitterInterval:      0.12,
		ClusterRadius:        18,
		ClusterHalfSpacing:   26,
		ClusterMass:          6,
		ClusterEdgeStiff:     0.92,
		ClusterDiagonalStiff: 0.95,
		SoftBody:             DefaultSoftBody(),
	}
}

func DefaultSoftBody() SoftBodySpec {
	return SoftBodySpec{Pairs: 15, Radius: 5, Spacing: 25, Mass: 1.5, Stiffness: 0.3}
}

// Config is everything a Context needs at construction.
type Config struct {
	Width    float64
	Height   float64
	CellSize float64
	// Workers is the dispatcher pool size; 0 means GOMAXPROCS.
	Workers int
	Seed    int64

	Solver solver.Params
	Layout constraint.Layout
	Spawn  SpawnConfig
}

func DefaultConfig() Config {
	return Config{
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		CellSize: DefaultCellSize,
		Seed:     1,
		Solver:   solver.DefaultParams(),
		Layout:   constraint.DefaultLayout(),
		Spawn:    DefaultSpawnConfig(),
	}
}

// Validate rejects values the engine cannot run with. Errors wrap
// ErrParameterBounds.
func (c Config) Validate() error {
	checks := []struct {
		field string
		value float64
		ok    bool
	}{
		{"width", c.Width, c.Width > 0},
		{"height", c.Height, c.Height > 0},
		{"cell_size", c.CellSize, c.CellSize > 0},
		{"workers", float64(c.Workers), c.Workers >= 0},
		{"sub_steps", float64(c.Solver.Substeps), c.Solver.Substeps >= 1},
		{"iterations", float64(c.Solver.Iterations), c.Solver.Iterations >= 0},
		{"damping", c.Solver.Damping, c.Solver.Damping >= 0 && c.Solver.Damping <= 1},
		{"min_frame_dt", c.Solver.MinFrameDt, c.Solver.MinFrameDt > 0},
		{"max_frame_dt", c.Solver.MaxFrameDt, c.Solver.MaxFrameDt >= c.Solver.MinFrameDt},
		{"gravity", c.Solver.Gravity.X + c.Solver.Gravity.Y, finite(c.Solver.Gravity.X) && finite(c.Solver.Gravity.Y)},
		{"emitter_interval", c.Spawn.EmitterInterval, c.Spawn.EmitterInterval > 0},
		{"soft_body.pairs", float64(c.Spawn.SoftBody.Pairs), c.Spawn.SoftBody.Pairs >= 1},
	}
	for _, chk := range checks {
		if !chk.ok {
			return &ParamError{Field: chk.field, Value: chk.value, Wrapped: ErrParameterBounds}
		}
	}
	for _, o := range c.Layout.Obstacles {
		if o.Radius < 0 {
			return &ParamError{Field: "obstacle.radius", Value: o.Radius, Wrapped: ErrParameterBounds}
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
