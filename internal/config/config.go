package config

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pbdsim/internal/constraint"
	"github.com/san-kum/pbdsim/internal/engine"
	"github.com/san-kum/pbdsim/internal/solver"
)

const (
	DefaultTicks      = 600
	DefaultFrameDt    = 1.0 / 60
	DefaultBodies     = 200
	DefaultBodyRadius = 6.0
	DefaultBodyMass   = 1.0
)

type Config struct {
	Scene    SceneConfig       `yaml:"scene"`
	Grid     GridConfig        `yaml:"grid"`
	Solver   SolverConfig      `yaml:"solver"`
	Dispatch DispatchConfig    `yaml:"dispatch"`
	Arena    constraint.Layout `yaml:"arena"`
	Spawn    SpawnConfig       `yaml:"spawn"`
	Scenario ScenarioConfig    `yaml:"scenario"`
}

type SceneConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type GridConfig struct {
	CellSize float64 `yaml:"cell_size"`
}

type SolverConfig struct {
	SubSteps              int     `yaml:"sub_steps"`
	Iterations            int     `yaml:"iterations"`
	Damping               float64 `yaml:"damping"`
	GravityX              float64 `yaml:"gravity_x"`
	GravityY              float64 `yaml:"gravity_y"`
	GravityScalesWithMass bool    `yaml:"gravity_scales_with_mass"`
	MinFrameDt            float64 `yaml:"min_frame_dt"`
	MaxFrameDt            float64 `yaml:"max_frame_dt"`
}

type DispatchConfig struct {
	Workers int `yaml:"workers"`
}

type SpawnConfig struct {
	UserRadius float64        `yaml:"user_radius"`
	Emitter    EmitterConfig  `yaml:"emitter"`
	Cluster    ClusterConfig  `yaml:"cluster"`
	SoftBody   SoftBodyConfig `yaml:"soft_body"`
}

type EmitterConfig struct {
	Radius   float64 `yaml:"radius"`
	Mass     float64 `yaml:"mass"`
	Speed    float64 `yaml:"speed"`
	Interval float64 `yaml:"interval"`
}

type ClusterConfig struct {
	Radius            float64 `yaml:"radius"`
	HalfSpacing       float64 `yaml:"half_spacing"`
	Mass              float64 `yaml:"mass"`
	EdgeStiffness     float64 `yaml:"edge_stiffness"`
	DiagonalStiffness float64 `yaml:"diagonal_stiffness"`
}

type SoftBodyConfig struct {
	Pairs     int     `yaml:"pairs"`
	Radius    float64 `yaml:"radius"`
	Spacing   float64 `yaml:"spacing"`
	Mass      float64 `yaml:"mass"`
	Stiffness float64 `yaml:"stiffness"`
}

// ScenarioConfig describes a headless run.
type ScenarioConfig struct {
	Ticks      int     `yaml:"ticks"`
	FrameDt    float64 `yaml:"frame_dt"`
	Seed       int64   `yaml:"seed"`
	Bodies     int     `yaml:"bodies"`
	BodyRadius float64 `yaml:"body_radius"`
	BodyMass   float64 `yaml:"body_mass"`
	Clusters   int     `yaml:"clusters"`
	SoftBodies int     `yaml:"soft_bodies"`
	Emitter    bool    `yaml:"emitter"`
	// Script is an optional path to a timed event file.
	Script string `yaml:"script,omitempty"`
}

func DefaultConfig() *Config {
	ec := engine.DefaultConfig()
	sp := ec.Spawn
	return &Config{
		Scene: SceneConfig{Width: ec.Width, Height: ec.Height},
		Grid:  GridConfig{CellSize: ec.CellSize},
		Solver: SolverConfig{
			SubSteps:              solver.DefaultSubsteps,
			Iterations:            solver.DefaultIterations,
			Damping:               solver.DefaultDamping,
			GravityX:              solver.DefaultGravity.X,
			GravityY:              solver.DefaultGravity.Y,
			GravityScalesWithMass: true,
			MinFrameDt:            solver.MinFrameDt,
			MaxFrameDt:            solver.MaxFrameDt,
		},
		Arena: constraint.DefaultLayout(),
		Spawn: SpawnConfig{
			UserRadius: sp.UserRadius,
			Emitter: EmitterConfig{
				Radius:   sp.EmitterRadius,
				Mass:     sp.EmitterMass,
				Speed:    sp.EmitterSpeed,
				Interval: sp.EmitterInterval,
			},
			Cluster: ClusterConfig{
				Radius:            sp.ClusterRadius,
				HalfSpacing:       sp.ClusterHalfSpacing,
				Mass:              sp.ClusterMass,
				EdgeStiffness:     sp.ClusterEdgeStiff,
				DiagonalStiffness: sp.ClusterDiagonalStiff,
			},
			SoftBody: SoftBodyConfig{
				Pairs:     sp.SoftBody.Pairs,
				Radius:    sp.SoftBody.Radius,
				Spacing:   sp.SoftBody.Spacing,
				Mass:      sp.SoftBody.Mass,
				Stiffness: sp.SoftBody.Stiffness,
			},
		},
		Scenario: ScenarioConfig{
			Ticks:      DefaultTicks,
			FrameDt:    DefaultFrameDt,
			Seed:       ec.Seed,
			Bodies:     DefaultBodies,
			BodyRadius: DefaultBodyRadius,
			BodyMass:   DefaultBodyMass,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EngineConfig maps the file layout onto the engine's construction parameters.
func (c *Config) EngineConfig() engine.Config {
	sp := c.Spawn
	return engine.Config{
		Width:    c.Scene.Width,
		Height:   c.Scene.Height,
		CellSize: c.Grid.CellSize,
		Workers:  c.Dispatch.Workers,
		Seed:     c.Scenario.Seed,
		Solver: solver.Params{
			Gravity:           r2.Vec{X: c.Solver.GravityX, Y: c.Solver.GravityY},
			MassScaledGravity: c.Solver.GravityScalesWithMass,
			Damping:           c.Solver.Damping,
			Substeps:          c.Solver.SubSteps,
			Iterations:        c.Solver.Iterations,
			MinFrameDt:        c.Solver.MinFrameDt,
			MaxFrameDt:        c.Solver.MaxFrameDt,
		},
		Layout: c.Arena,
		Spawn: engine.SpawnConfig{
			UserRadius:           sp.UserRadius,
			EmitterRadius:        sp.Emitter.Radius,
			EmitterMass:          sp.Emitter.Mass,
			EmitterSpeed:         sp.Emitter.Speed,
			EmitterInterval:      sp.Emitter.Interval,
			ClusterRadius:        sp.Cluster.Radius,
			ClusterHalfSpacing:   sp.Cluster.HalfSpacing,
			ClusterMass:          sp.Cluster.Mass,
			ClusterEdgeStiff:     sp.Cluster.EdgeStiffness,
			ClusterDiagonalStiff: sp.Cluster.DiagonalStiffness,
			SoftBody: engine.SoftBodySpec{
				Pairs:     sp.SoftBody.Pairs,
				Radius:    sp.SoftBody.Radius,
				Spacing:   sp.SoftBody.Spacing,
				Mass:      sp.SoftBody.Mass,
				Stiffness: sp.SoftBody.Stiffness,
			},
		},
	}
}

// Validate checks the engine parameters and the run settings. Errors wrap
// engine.ErrParameterBounds.
func (c *Config) Validate() error {
	if err := c.EngineConfig().Validate(); err != nil {
		return err
	}
	s := c.Scenario
	switch {
	case s.Ticks < 0:
		return &engine.ParamError{Field: "scenario.ticks", Value: float64(s.Ticks), Wrapped: engine.ErrParameterBounds}
	case s.FrameDt <= 0:
		return &engine.ParamError{Field: "scenario.frame_dt", Value: s.FrameDt, Wrapped: engine.ErrParameterBounds}
	case s.Bodies < 0:
		return &engine.ParamError{Field: "scenario.bodies", Value: float64(s.Bodies), Wrapped: engine.ErrParameterBounds}
	case s.Bodies > 0 && s.BodyRadius <= 0:
		return &engine.ParamError{Field: "scenario.body_radius", Value: s.BodyRadius, Wrapped: engine.ErrParameterBounds}
	}
	return nil
}
