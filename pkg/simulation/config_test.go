package simulation

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.CellSize() != 0.5 {
		t.Errorf("CellSize() = %v; want 0.5", cfg.CellSize())
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"NegativeAgents", func(c *Config) { c.NumAgents = -1 }},
		{"NegativeRadius", func(c *Config) { c.RadiusSeparation = -0.1 }},
		{"AllRadiiZero", func(c *Config) { c.RadiusSeparation, c.RadiusAlignment, c.RadiusCohesion = 0, 0, 0 }},
		{"InfiniteRadius", func(c *Config) { c.RadiusCohesion = math.Inf(1) }},
		{"NaNWeight", func(c *Config) { c.WeightAlignment = math.NaN() }},
		{"NegativeMaxVelocity", func(c *Config) { c.MaxVelocity = -1 }},
		{"ZeroTimeStep", func(c *Config) { c.TimeStep = 0 }},
		{"ZeroWidth", func(c *Config) { c.RegionWidth = 0 }},
		{"NegativeHeight", func(c *Config) { c.RegionHeight = -3 }},
		{"NegativeWorkers", func(c *Config) { c.Workers = -2 }},
		{"TravelExceedsRegion", func(c *Config) { c.MaxVelocity = 200 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v; want ErrInvalidConfig", err)
			}
		})
	}

	t.Run("SingleNonZeroRadius", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RadiusAlignment, cfg.RadiusCohesion = 0, 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v; want nil", err)
		}
		if cfg.CellSize() != cfg.RadiusSeparation {
			t.Errorf("CellSize() = %v; want %v", cfg.CellSize(), cfg.RadiusSeparation)
		}
	})
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadConfig_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "JSON",
			file: "boids.json",
			content: `{
  "numAgents": 250,
  "radiusCohesion": 0.8,
  "weightCohesion": 0.25,
  "workers": 4,
  "seed": 42
}`,
		},
		{
			name: "YAML",
			file: "boids.yaml",
			content: `numAgents: 250
radiusCohesion: 0.8
weightCohesion: 0.25
workers: 4
seed: 42
`,
		},
		{
			name: "TOML",
			file: "boids.toml",
			content: `numAgents = 250
radiusCohesion = 0.8
weightCohesion = 0.25
workers = 4
seed = 42
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			if cfg.NumAgents != 250 || cfg.RadiusCohesion != 0.8 || cfg.WeightCohesion != 0.25 {
				t.Errorf("overrides not applied: %+v", cfg)
			}
			if cfg.Workers != 4 || cfg.Seed != 42 {
				t.Errorf("workers/seed = %d/%d; want 4/42", cfg.Workers, cfg.Seed)
			}
			// untouched keys keep their defaults
			def := DefaultConfig()
			if cfg.RadiusSeparation != def.RadiusSeparation || cfg.TimeStep != def.TimeStep {
				t.Errorf("defaults lost: %+v", cfg)
			}
			if cfg.CellSize() != 0.8 {
				t.Errorf("CellSize() = %v; want 0.8", cfg.CellSize())
			}
		})
	}
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"UnknownKey", "boids.json", `{"numBoids": 10}`},
		{"NegativeAgents", "boids.yaml", "numAgents: -5\n"},
		{"WrongType", "boids.toml", "timeStep = \"fast\"\n"},
		{"ZeroTimeStep", "boids.json", `{"timeStep": 0}`},
		{"TravelExceedsRegion", "boids.yaml", "maxVelocity: 50\nregionWidth: 2\n"},
		{"Malformed", "boids.json", `{"numAgents": `},
		{"UnsupportedFormat", "boids.ini", "numAgents=3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.file, tt.content)); err == nil {
				t.Error("LoadConfig() = nil error; want failure")
			}
		})
	}

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
			t.Error("LoadConfig() = nil error for a missing file")
		}
	})
}
