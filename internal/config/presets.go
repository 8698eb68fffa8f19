package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/pbdsim/internal/constraint"
	"github.com/san-kum/pbdsim/internal/engine"
)

// Preset is a named adjustment applied on top of DefaultConfig.
type Preset struct {
	Description string
	Apply       func(*Config)
}

var Presets = map[string]Preset{
	"default": {
		Description: "walls and bowl, 200 loose bodies",
		Apply:       func(*Config) {},
	},
	"pile": {
		Description: "dense pile of small bodies",
		Apply: func(c *Config) {
			c.Scenario.Bodies = 1500
			c.Scenario.BodyRadius = 4
			c.Grid.CellSize = 40
		},
	},
	"clusters": {
		Description: "spring diamonds and two soft bodies",
		Apply: func(c *Config) {
			c.Scenario.Bodies = 60
			c.Scenario.Clusters = 12
			c.Scenario.SoftBodies = 2
		},
	},
	"fountain": {
		Description: "center emitter over obstacles",
		Apply: func(c *Config) {
			c.Scenario.Bodies = 0
			c.Scenario.Emitter = true
			c.Scenario.Ticks = 1200
			c.Arena.Obstacles = []constraint.Obstacle{
				{X: 0.5, Y: 0.8, Radius: 0.1},
				{X: 0.3, Y: 0.6, Radius: 0.1},
				{X: 0.7, Y: 0.6, Radius: 0.1},
			}
		},
	},
	"stress": {
		Description: "large scene for throughput measurement",
		Apply: func(c *Config) {
			c.Scene = SceneConfig{Width: 1920, Height: 1080}
			c.Grid.CellSize = 32
			c.Scenario.Bodies = 8000
			c.Scenario.BodyRadius = 3
		},
	},
	"zero-g": {
		Description: "no gravity, no bowl",
		Apply: func(c *Config) {
			c.Solver.GravityX, c.Solver.GravityY = 0, 0
			c.Arena.Bowl = false
		},
	},
	"legacy": {
		Description: "mass-independent gravity of 1200, undamped",
		Apply: func(c *Config) {
			c.Solver.GravityY = 1200
			c.Solver.GravityScalesWithMass = false
			c.Solver.Damping = 1.0
		},
	},
}

// GetPreset returns DefaultConfig with the named preset applied, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.Apply(cfg)
	return cfg
}

// Resolve is GetPreset with an error for unknown names.
func Resolve(name string) (*Config, error) {
	cfg := GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("%w: %q", engine.ErrUnknownPreset, name)
	}
	return cfg, nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
