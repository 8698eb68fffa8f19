package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logFormat  string
	logLevel   string
	configFile string
	preset     string
	ticks      int
	frameDt    float64
	workers    int
	seed       int64
	bodies     int
	scriptFile string
	noSave     bool
	logEvery   int
	// live view
	theme   string
	gifPath string
	// plot / export
	metric  string
	asCSV   bool
	outFile string
	braille bool
	scale   float64
	// bench
	benchWorkers []int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pbdsim",
		Short:         "parallel position-based dynamics sandbox",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(os.Stderr)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pbdsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text|json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and record telemetry",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().StringVar(&scriptFile, "script", "", "scenario script (yaml)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the run")
	runCmd.Flags().IntVar(&logEvery, "log-every", 0, "log telemetry every n ticks (0 = off)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the simulation in the terminal viewer",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme ("+strings.Join(themeNames(), "|")+")")
	liveCmd.Flags().StringVar(&gifPath, "gif", "pbdsim.gif", "where GIF recordings are written")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a telemetry column of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&metric, "metric", "kinetic_energy", "telemetry column ("+strings.Join(columnNames, "|")+")")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON, or telemetry as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().BoolVar(&asCSV, "csv", false, "export telemetry rows instead of metadata")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "run headless and write the final frame as SVG",
		Args:  cobra.NoArgs,
		RunE:  snapshot,
	}
	addSceneFlags(snapshotCmd)
	snapshotCmd.Flags().StringVar(&scriptFile, "script", "", "scenario script (yaml)")
	snapshotCmd.Flags().StringVarP(&outFile, "out", "o", "snapshot.svg", "output file")
	snapshotCmd.Flags().BoolVar(&braille, "braille", false, "render through the braille canvas")
	snapshotCmd.Flags().Float64Var(&scale, "scale", 1, "svg scale")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure step throughput per worker count",
		Args:  cobra.NoArgs,
		RunE:  bench,
	}
	addSceneFlags(benchCmd)
	benchCmd.Flags().IntSliceVar(&benchWorkers, "pool", []int{1, 2, 4, 8}, "worker counts to compare")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE:  printConfig,
	}
	addSceneFlags(configCmd)

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, snapshotCmd, benchCmd, presetsCmd, configCmd)
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "default", "use preset configuration")
	cmd.Flags().IntVar(&ticks, "ticks", 0, "number of frames to simulate")
	cmd.Flags().Float64Var(&frameDt, "dt", 0, "frame time in seconds")
	cmd.Flags().IntVar(&workers, "workers", 0, "dispatcher workers (0 = GOMAXPROCS)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().IntVar(&bodies, "bodies", 0, "initial loose bodies")
}

// setupLogger installs the default slog handler from --log-format and
// --log-level.
func setupLogger(w io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch logFormat {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	case "text":
		h = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format %q", logFormat)
	}
	slog.SetDefault(slog.New(h))
	return nil
}
