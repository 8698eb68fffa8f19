package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pbdsim/internal/config"
	"github.com/san-kum/pbdsim/internal/engine"
	"github.com/san-kum/pbdsim/internal/export"
	"github.com/san-kum/pbdsim/internal/scenario"
	"github.com/san-kum/pbdsim/internal/storage"
	"github.com/san-kum/pbdsim/internal/telemetry"
	"github.com/san-kum/pbdsim/internal/viz"
)

// loadConfig resolves the preset, then the config file, then flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Resolve(preset)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, config.ListPresets())
	}
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("ticks") {
		cfg.Scenario.Ticks = ticks
	}
	if flags.Changed("dt") {
		cfg.Scenario.FrameDt = frameDt
	}
	if flags.Changed("workers") {
		cfg.Dispatch.Workers = workers
	}
	if flags.Changed("seed") {
		cfg.Scenario.Seed = seed
	}
	if flags.Changed("bodies") {
		cfg.Scenario.Bodies = bodies
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadScript() (*scenario.Script, error) {
	if scriptFile == "" {
		return nil, nil
	}
	return scenario.LoadScript(scriptFile)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	script, err := loadScript()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	r := scenario.NewRunner(cfg, script, slog.Default())
	r.LogEvery = logEvery

	fmt.Printf("running %s for %d ticks...\n", preset, cfg.Scenario.Ticks)
	res, err := r.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", res.Elapsed)
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.RunMetadata{
			Preset:  preset,
			Seed:    cfg.Scenario.Seed,
			FrameDt: cfg.Scenario.FrameDt,
			Ticks:   cfg.Scenario.Ticks,
			Width:   res.Final.Width,
			Height:  res.Final.Height,
			Workers: cfg.Dispatch.Workers,
			Metrics: res.Summary.Metrics(),
		}, cfg, res.Rows)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	fmt.Printf("bodies: %d\n", len(res.Final.Bodies))
	printMetrics(res.Summary.Metrics())
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// the viewer owns the terminal
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := engine.New(cfg.EngineConfig(), quiet)
	if err != nil {
		return err
	}
	defer c.Close()

	scenario.Populate(c, cfg.Scenario, rand.New(rand.NewSource(cfg.Scenario.Seed)))
	em := engine.NewEmitter(cfg.Spawn.Emitter.Interval)
	if cfg.Scenario.Emitter {
		em.Start(c)
	}

	m := viz.NewModel(c, em, cfg.Scenario.FrameDt, theme)
	m.SetGIFPath(gifPath)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tTICKS\tDT\tWORKERS\tBODIES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%d\t%.0f\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.FrameDt,
			run.Workers,
			run.Metrics["final_bodies"],
		)
	}
	return w.Flush()
}

// columnNames lists the telemetry columns plot accepts.
var columnNames = []string{"kinetic_energy", "max_overlap", "spring_err_mean", "spring_err_p90", "bodies", "step_us"}

func column(rows []telemetry.TickStats, name string) ([]float64, error) {
	var get func(telemetry.TickStats) float64
	switch name {
	case "kinetic_energy":
		get = func(s telemetry.TickStats) float64 { return s.KineticEnergy }
	case "max_overlap":
		get = func(s telemetry.TickStats) float64 { return s.MaxOverlap }
	case "spring_err_mean":
		get = func(s telemetry.TickStats) float64 { return s.SpringMean }
	case "spring_err_p90":
		get = func(s telemetry.TickStats) float64 { return s.SpringP90 }
	case "bodies":
		get = func(s telemetry.TickStats) float64 { return float64(s.Bodies) }
	case "step_us":
		get = func(s telemetry.TickStats) float64 { return float64(s.StepMicros) }
	default:
		return nil, fmt.Errorf("unknown metric %q (available: %v)", name, columnNames)
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = get(r)
	}
	return out, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadTelemetry(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}
	data, err := column(rows, metric)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("samples: %d\n\n", len(rows))

	graph := asciigraph.Plot(data,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(metric+" vs tick"),
	)
	fmt.Println(graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	if asCSV {
		rows, err := st.LoadTelemetry(runID)
		if err != nil {
			return err
		}
		return telemetry.WriteAll(os.Stdout, rows)
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	script, err := loadScript()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := scenario.NewRunner(cfg, script, slog.Default()).Run(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()

	opts := export.DefaultSVGOptions()
	opts.Scale = scale
	if err := export.WriteFrame(f, &res.Final, opts, braille, 120, 45); err != nil {
		return err
	}
	fmt.Printf("wrote tick %d (%d bodies) to %s\n", res.Final.Tick, len(res.Final.Bodies), outFile)
	return nil
}

func bench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("benchmarking %s: %d bodies, %d ticks\n\n", preset, cfg.Scenario.Bodies, cfg.Scenario.Ticks)
	results, err := scenario.Bench(ctx, cfg, benchWorkers, slog.Default())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKERS\tTICKS\tTIME\tTICKS/SEC\tSPEEDUP")
	var base float64
	for i, r := range results {
		if i == 0 {
			base = r.TicksPerSec
		}
		speedup := 0.0
		if base > 0 {
			speedup = r.TicksPerSec / base
		}
		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%.2fx\n", r.Workers, r.Ticks, r.Elapsed, r.TicksPerSec, speedup)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		fmt.Fprintf(w, "%s\t%s\n", name, config.Presets[name].Description)
	}
	return w.Flush()
}

func printConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func themeNames() []string { return viz.ThemeNames() }
