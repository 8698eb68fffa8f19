package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/pbdsim/internal/config"
	"github.com/san-kum/pbdsim/internal/telemetry"
)

const (
	metadataFile  = "metadata.json"
	telemetryFile = "telemetry.csv"
	configFile    = "config.yaml"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	FrameDt   float64            `json:"frame_dt"`
	Ticks     int                `json:"ticks"`
	Width     float64            `json:"width"`
	Height    float64            `json:"height"`
	Workers   int                `json:"workers"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes a run directory holding the metadata, the effective config and
// the telemetry rows. It returns the run id.
func (s *Store) Save(meta RunMetadata, cfg *config.Config, rows []telemetry.TickStats) (string, error) {
	now := s.now()
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Preset, now.UnixNano())
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = now
	}
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if cfg != nil {
		if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
			return "", fmt.Errorf("saving config: %w", err)
		}
	}

	csvFile, err := os.Create(filepath.Join(runDir, telemetryFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if len(rows) == 0 {
		return meta.ID, nil
	}
	if err := telemetry.WriteAll(csvFile, rows); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadConfig reads the config a run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

func (s *Store) LoadTelemetry(runID string) ([]telemetry.TickStats, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, telemetryFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return []telemetry.TickStats{}, nil
	}
	return telemetry.ReadAll(file)
}
