// Package scenario drives headless runs: it populates a scene, replays timed
// events from a YAML script and collects telemetry every tick.
package scenario

import (
	"fmt"
	"os"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pbdsim/internal/engine"
)

// Actions understood by Event.
const (
	ActionBody         = "body"
	ActionUserBody     = "user_body"
	ActionCluster      = "cluster"
	ActionSoftBody     = "soft_body"
	ActionResize       = "resize"
	ActionEmitterStart = "emitter_start"
	ActionEmitterStop  = "emitter_stop"
)

// Script is a list of events keyed by simulated time.
type Script struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Events      []Event `yaml:"events"`
}

// Event is a single scripted action. Which fields matter depends on Action.
type Event struct {
	At     float64 `yaml:"at"`
	Action string  `yaml:"action"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	VX     float64 `yaml:"vx"`
	VY     float64 `yaml:"vy"`
	Radius float64 `yaml:"radius"`
	Mass   float64 `yaml:"mass"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	// Count repeats the action; bodies are spread horizontally by Spacing.
	Count   int     `yaml:"count"`
	Spacing float64 `yaml:"spacing"`
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// Validate checks every event and sorts them by time.
func (s *Script) Validate() error {
	for i, ev := range s.Events {
		switch ev.Action {
		case ActionBody:
			if ev.Radius <= 0 {
				return fmt.Errorf("event %d: %w: radius", i+1, engine.ErrParameterBounds)
			}
		case ActionResize:
			if ev.Width <= 0 || ev.Height <= 0 {
				return fmt.Errorf("event %d: %w: size", i+1, engine.ErrParameterBounds)
			}
		case ActionUserBody, ActionCluster, ActionSoftBody, ActionEmitterStart, ActionEmitterStop:
		default:
			return fmt.Errorf("event %d: unknown action %q", i+1, ev.Action)
		}
		if ev.At < 0 {
			return fmt.Errorf("event %d: %w: at", i+1, engine.ErrParameterBounds)
		}
	}
	sort.SliceStable(s.Events, func(i, j int) bool { return s.Events[i].At < s.Events[j].At })
	return nil
}

// apply performs ev on c.
func (ev Event) apply(c *engine.Context, em *engine.Emitter) {
	n := max(1, ev.Count)
	for i := 0; i < n; i++ {
		pos := r2.Vec{X: ev.X + float64(i)*ev.Spacing, Y: ev.Y}
		switch ev.Action {
		case ActionBody:
			c.SpawnBody(pos, ev.Radius, ev.Mass, r2.Vec{X: ev.VX, Y: ev.VY})
		case ActionUserBody:
			c.AddUserBody(pos)
		case ActionCluster:
			c.SpawnCluster(pos)
		case ActionSoftBody:
			c.CreateSoftBody(pos, c.Config().Spawn.SoftBody)
		case ActionResize:
			c.ResizeScene(ev.Width, ev.Height)
			return
		case ActionEmitterStart:
			em.Start(c)
			return
		case ActionEmitterStop:
			em.Stop()
			return
		}
	}
}
