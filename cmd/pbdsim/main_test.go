package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/san-kum/pbdsim/internal/telemetry"
)

func TestColumn(t *testing.T) {
	rows := []telemetry.TickStats{
		{Bodies: 3, KineticEnergy: 1.5, StepMicros: 40},
		{Bodies: 4, KineticEnergy: 2.5, StepMicros: 60},
	}
	tests := []struct {
		name string
		want []float64
	}{
		{"kinetic_energy", []float64{1.5, 2.5}},
		{"bodies", []float64{3, 4}},
		{"step_us", []float64{40, 60}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := column(rows, tt.name)
			if err != nil {
				t.Fatal(err)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("row %d: got %f, want %f", i, got[i], tt.want[i])
				}
			}
		})
	}
	if _, err := column(rows, "nope"); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	logFormat, logLevel = "json", "warn"
	if err := setupLogger(&buf); err != nil {
		t.Fatal(err)
	}
	slog.Info("hidden")
	slog.Warn("shown", "k", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("unexpected log output %q", out)
	}

	logFormat = "xml"
	if err := setupLogger(&buf); err == nil {
		t.Error("expected error for unknown format")
	}
	logFormat, logLevel = "text", "loud"
	if err := setupLogger(&buf); err == nil {
		t.Error("expected error for unknown level")
	}
}
