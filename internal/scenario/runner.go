package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/pbdsim/internal/config"
	"github.com/san-kum/pbdsim/internal/engine"
	"github.com/san-kum/pbdsim/internal/telemetry"
)

// Result is the outcome of a headless run.
type Result struct {
	Rows    []telemetry.TickStats
	Summary telemetry.Summary
	Final   engine.Frame
	Elapsed time.Duration
}

// Runner executes one configured run.
type Runner struct {
	cfg    *config.Config
	script *Script
	log    *slog.Logger

	// OnTick, if set, receives every telemetry row as it is produced.
	OnTick func(telemetry.TickStats)
	// LogEvery logs a telemetry row every n ticks; 0 disables it.
	LogEvery int
}

func NewRunner(cfg *config.Config, script *Script, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{cfg: cfg, script: script, log: log}
}

// Populate spawns the initial bodies, clusters and soft bodies described by
// sc. Loose bodies are scattered over the upper half of the scene.
func Populate(c *engine.Context, sc config.ScenarioConfig, rng *rand.Rand) {
	w, h := c.SceneSize()
	for i := 0; i < sc.Bodies; i++ {
		r := sc.BodyRadius
		pos := r2.Vec{
			X: r + rng.Float64()*max(0, w-2*r),
			Y: r + rng.Float64()*max(0, h*0.5-2*r),
		}
		c.SpawnBody(pos, r, sc.BodyMass, r2.Vec{})
	}
	for i := 0; i < sc.Clusters; i++ {
		x := w * float64(i+1) / float64(sc.Clusters+1)
		c.SpawnCluster(r2.Vec{X: x, Y: h * 0.2})
	}
	for i := 0; i < sc.SoftBodies; i++ {
		y := h * (0.1 + 0.1*float64(i))
		c.CreateSoftBody(r2.Vec{X: w * 0.5, Y: y}, c.Config().Spawn.SoftBody)
	}
}

// Run builds a Context, populates it and steps it for the configured number
// of ticks. It stops early with ctx.Err() when ctx is canceled.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	c, err := engine.New(r.cfg.EngineConfig(), r.log)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	sc := r.cfg.Scenario
	Populate(c, sc, rand.New(rand.NewSource(sc.Seed)))

	em := engine.NewEmitter(r.cfg.Spawn.Emitter.Interval)
	if sc.Emitter {
		em.Start(c)
	}

	var events []Event
	if r.script != nil {
		if err := r.script.Validate(); err != nil {
			return nil, err
		}
		events = r.script.Events
	}

	res := &Result{Rows: make([]telemetry.TickStats, 0, sc.Ticks)}
	start := time.Now()
	for tick := 0; tick < sc.Ticks; tick++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("run canceled at tick %d: %w", tick, ctx.Err())
		default:
		}

		for len(events) > 0 && events[0].At <= c.Time() {
			r.log.Debug("scenario event", "action", events[0].Action, "at", events[0].At)
			events[0].apply(c, em)
			events = events[1:]
		}

		t0 := time.Now()
		c.Step(sc.FrameDt)
		stepTime := time.Since(t0)
		em.Advance(c, min(max(sc.FrameDt, r.cfg.Solver.MinFrameDt), r.cfg.Solver.MaxFrameDt))

		f := c.Snapshot()
		row := telemetry.Collect(&f, stepTime)
		res.Rows = append(res.Rows, row)
		if r.OnTick != nil {
			r.OnTick(row)
		}
		if r.LogEvery > 0 && (tick+1)%r.LogEvery == 0 {
			r.log.Info("tick", "stats", row)
		}
	}
	res.Elapsed = time.Since(start)
	res.Final = c.Snapshot()
	res.Summary = telemetry.Summarize(res.Rows)
	return res, nil
}

// BenchResult is the throughput of one worker count.
type BenchResult struct {
	Workers     int
	Ticks       int
	Elapsed     time.Duration
	TicksPerSec float64
}

// Bench runs the same populated scene once per worker count and measures
// step throughput.
func Bench(ctx context.Context, cfg *config.Config, workers []int, log *slog.Logger) ([]BenchResult, error) {
	results := make([]BenchResult, 0, len(workers))
	for _, n := range workers {
		run := *cfg
		run.Dispatch.Workers = n

		ec := run.EngineConfig()
		c, err := engine.New(ec, log)
		if err != nil {
			return nil, err
		}
		Populate(c, run.Scenario, rand.New(rand.NewSource(run.Scenario.Seed)))

		start := time.Now()
		ticks := 0
		for ; ticks < run.Scenario.Ticks; ticks++ {
			if ctx.Err() != nil {
				break
			}
			c.Step(run.Scenario.FrameDt)
		}
		elapsed := time.Since(start)
		c.Close()

		if err := ctx.Err(); err != nil {
			return results, err
		}

		br := BenchResult{Workers: n, Ticks: ticks, Elapsed: elapsed}
		if elapsed > 0 {
			br.TicksPerSec = float64(ticks) / elapsed.Seconds()
		}
		results = append(results, br)
	}
	return results, nil
}
