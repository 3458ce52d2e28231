package simulation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every parameter validation failure.
var ErrInvalidConfig = errors.New("invalid simulation config")

//go:embed config.schema.json
var configSchema string

type Config struct {
	// Population
	NumAgents int `json:"numAgents" yaml:"numAgents" toml:"numAgents"`

	// Interaction Radii, the grid cell size is the largest of the three
	RadiusSeparation float64 `json:"radiusSeparation" yaml:"radiusSeparation" toml:"radiusSeparation"`
	RadiusAlignment  float64 `json:"radiusAlignment" yaml:"radiusAlignment" toml:"radiusAlignment"`
	RadiusCohesion   float64 `json:"radiusCohesion" yaml:"radiusCohesion" toml:"radiusCohesion"`

	// Rule weights
	WeightSeparation float64 `json:"weightSeparation" yaml:"weightSeparation" toml:"weightSeparation"`
	WeightAlignment  float64 `json:"weightAlignment" yaml:"weightAlignment" toml:"weightAlignment"`
	WeightCohesion   float64 `json:"weightCohesion" yaml:"weightCohesion" toml:"weightCohesion"`

	// Kinematics
	MaxVelocity float64 `json:"maxVelocity" yaml:"maxVelocity" toml:"maxVelocity"`
	TimeStep    float64 `json:"timeStep" yaml:"timeStep" toml:"timeStep"`

	// World Dimensions
	RegionX      float64 `json:"regionX" yaml:"regionX" toml:"regionX"`
	RegionY      float64 `json:"regionY" yaml:"regionY" toml:"regionY"`
	RegionWidth  float64 `json:"regionWidth" yaml:"regionWidth" toml:"regionWidth"`
	RegionHeight float64 `json:"regionHeight" yaml:"regionHeight" toml:"regionHeight"`

	// Workers used for the force phase, 0 or 1 runs it sequentially.
	Workers int `json:"workers" yaml:"workers" toml:"workers"`
	// Seed of the population generator, 0 picks a random one at every reset.
	Seed uint64 `json:"seed" yaml:"seed" toml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		NumAgents:        100,
		RadiusSeparation: 0.2,
		RadiusAlignment:  0.5,
		RadiusCohesion:   0.5,
		WeightSeparation: 1.0,
		WeightAlignment:  1.0,
		WeightCohesion:   0.5,
		MaxVelocity:      0.4,
		TimeStep:         0.1,
		RegionX:          0,
		RegionY:          0,
		RegionWidth:      10,
		RegionHeight:     10,
	}
}

// CellSize is the grid cell size derived from the radii.
func (c *Config) CellSize() float64 {
	return math.Max(c.RadiusSeparation, math.Max(c.RadiusAlignment, c.RadiusCohesion))
}

// Validate checks the parameter set before it is used to build an engine.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.NumAgents >= 0, "numAgents must be >= 0, got %d", c.NumAgents)
	check(c.RadiusSeparation >= 0, "radiusSeparation must be >= 0, got %v", c.RadiusSeparation)
	check(c.RadiusAlignment >= 0, "radiusAlignment must be >= 0, got %v", c.RadiusAlignment)
	check(c.RadiusCohesion >= 0, "radiusCohesion must be >= 0, got %v", c.RadiusCohesion)
	check(c.CellSize() > 0 && !math.IsInf(c.CellSize(), 0), "at least one finite interaction radius must be > 0")
	check(isFinite(c.WeightSeparation) && isFinite(c.WeightAlignment) && isFinite(c.WeightCohesion),
		"rule weights must be finite")
	check(c.MaxVelocity >= 0 && isFinite(c.MaxVelocity), "maxVelocity must be >= 0, got %v", c.MaxVelocity)
	check(c.TimeStep > 0 && isFinite(c.TimeStep), "timeStep must be > 0, got %v", c.TimeStep)
	check(c.RegionWidth > 0 && isFinite(c.RegionWidth), "regionWidth must be > 0, got %v", c.RegionWidth)
	check(c.RegionHeight > 0 && isFinite(c.RegionHeight), "regionHeight must be > 0, got %v", c.RegionHeight)
	check(isFinite(c.RegionX) && isFinite(c.RegionY), "region origin must be finite")
	check(c.Workers >= 0, "workers must be >= 0, got %d", c.Workers)

	// One wrap per axis per step is only enough below one region size.
	travel := c.MaxVelocity * c.TimeStep
	check(travel < c.RegionWidth && travel < c.RegionHeight,
		"maxVelocity*timeStep (%v) must be smaller than the region size", travel)

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString("config.schema.json", configSchema)
	})
	return compiledSchema, schemaErr
}

// LoadConfig loads a JSON, YAML or TOML configuration file, validates it
// against the embedded schema and returns it merged over DefaultConfig.
func LoadConfig(configFile string) (*Config, error) {
	// 1. Read Config File
	raw, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 2. Normalise to JSON
	doc, err := toJSON(filepath.Ext(configFile), raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", configFile, err)
	}

	// 3. Validate against the schema
	sch, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal over the defaults
	cfg := DefaultConfig()
	if err := json.Unmarshal(doc, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// toJSON converts a config document to JSON according to its extension.
func toJSON(ext string, raw []byte) ([]byte, error) {
	var m map[string]interface{}
	switch strings.ToLower(ext) {
	case ".json", "":
		return raw, nil
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if m == nil {
		m = map[string]interface{}{}
	}
	return json.Marshal(m)
}
