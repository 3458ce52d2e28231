package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
	golog "github.com/tochemey/goakt/v3/log"
)

// Engine owns the whole simulation state: parameters, region, agents,
// grid, clock and run flag. It is not safe for concurrent use; Step and
// Reset must be serialised by the caller (EngineActor does that).
type Engine struct {
	cfg        Config
	region     geometry.Region
	agents     []Agent
	grid       *Grid
	forces     ForceModel
	integrator Integrator

	clock   float64
	steps   uint64
	running bool

	rng    *rand.Rand
	logger golog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine.
func WithLogger(logger golog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Snapshot is a copy of the state the display side needs.
type Snapshot struct {
	Time       float64
	Steps      uint64
	Running    bool
	Positions  []geometry.Vector2D
	Velocities []geometry.Vector2D
}

// NewEngine validates cfg and returns a paused engine with a fresh population.
func NewEngine(cfg *Config, opts ...Option) (*Engine, error) {
	e := &Engine{logger: golog.DiscardLogger}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.Reset(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset replaces the parameters with cfg (nil keeps the current ones),
// draws a new population, zeroes the clock and pauses the engine.
func (e *Engine) Reset(cfg *Config) error {
	if cfg == nil {
		current := e.cfg
		cfg = &current
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	region := geometry.NewRegion(cfg.RegionX, cfg.RegionY, cfg.RegionWidth, cfg.RegionHeight)
	grid, err := NewGrid(region, cfg.CellSize())
	if err != nil {
		return err
	}
	forces := NewForceModel(cfg)
	if err := CheckCoverage(forces.Reach(), grid); err != nil {
		return err
	}

	e.cfg = *cfg
	e.region = region
	e.grid = grid
	e.forces = forces
	e.integrator = Integrator{Region: region, MaxVelocity: cfg.MaxVelocity}
	e.rng = newRand(cfg.Seed)
	e.agents = e.spawn(cfg.NumAgents)
	e.clock = 0
	e.steps = 0
	e.running = false

	nx, ny := grid.Dims()
	e.logger.Infof("engine reset: %d agents in %s, cell size %.3f (%dx%d cells)",
		len(e.agents), region, grid.CellSize(), nx, ny)
	return nil
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// spawn draws uniform positions inside the region and uniform velocity
// components in [-maxVelocity, maxVelocity].
func (e *Engine) spawn(n int) []Agent {
	agents := make([]Agent, n)
	vmax := e.cfg.MaxVelocity
	for i := range agents {
		pos := e.region.RandomPoint(e.rng.Float64(), e.rng.Float64())
		vel := geometry.Vector2D{
			X: vmax * (2*e.rng.Float64() - 1),
			Y: vmax * (2*e.rng.Float64() - 1),
		}
		agents[i] = NewAgent(pos, vel)
	}
	return agents
}

// Populate replaces the population with a copy of agents, keeping the
// clock and run flag. Every active agent must lie inside the region.
func (e *Engine) Populate(agents []Agent) error {
	for i := range agents {
		if agents[i].Active && !e.region.Contains(agents[i].Pos) {
			return fmt.Errorf("%w: agent %d at %v not in %v", ErrOutsideRegion, i, agents[i].Pos, e.region)
		}
	}
	e.agents = append(make([]Agent, 0, len(agents)), agents...)
	return nil
}

// Step advances the clock by dt and performs one full update:
// grid rebuild, force computation, integration. It is a no-op while the
// engine is paused. An unusable dt is rejected with ErrInvalidConfig
// before any state changes, and a failed step leaves the clock untouched.
func (e *Engine) Step(dt float64) error {
	if err := e.checkTimeStep(dt); err != nil {
		return err
	}
	if !e.running {
		return nil
	}

	if err := e.grid.Build(e.agents); err != nil {
		return fmt.Errorf("step %d: %w", e.steps+1, err)
	}
	if err := e.forces.ComputeAll(context.Background(), e.agents, e.grid, e.cfg.Workers); err != nil {
		return fmt.Errorf("step %d: %w", e.steps+1, err)
	}
	e.integrator.AdvanceAll(e.agents, dt)
	e.clock += dt
	e.steps++

	e.logger.Debugf("step %d done, t=%.3f", e.steps, e.clock)
	return nil
}

// checkTimeStep applies the timeStep rules of Config.Validate to dt:
// positive, finite and small enough for a single wrap per axis.
func (e *Engine) checkTimeStep(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: dt must be > 0 and finite, got %v", ErrInvalidConfig, dt)
	}
	if travel := e.cfg.MaxVelocity * dt; travel >= e.region.Width || travel >= e.region.Height {
		return fmt.Errorf("%w: maxVelocity*dt (%v) must be smaller than the region size", ErrInvalidConfig, travel)
	}
	return nil
}

// Tick is Step with the configured timestep.
func (e *Engine) Tick() error {
	return e.Step(e.cfg.TimeStep)
}

// Time returns the simulation clock.
func (e *Engine) Time() float64 { return e.clock }

// Steps returns the number of completed steps since the last reset.
func (e *Engine) Steps() uint64 { return e.steps }

// IsRunning reports whether Step currently advances the simulation.
func (e *Engine) IsRunning() bool { return e.running }

// SetRunning starts or pauses the engine.
func (e *Engine) SetRunning(running bool) { e.running = running }

// Toggle flips the run flag and returns the new value.
func (e *Engine) Toggle() bool {
	e.running = !e.running
	return e.running
}

// Config returns a copy of the current parameters.
func (e *Engine) Config() Config { return e.cfg }

// Region returns the simulation region.
func (e *Engine) Region() geometry.Region { return e.region }

// Agents returns a copy of every agent slot, active or not.
func (e *Engine) Agents() []Agent {
	return append([]Agent(nil), e.agents...)
}

// ActiveCount returns the number of active agents.
func (e *Engine) ActiveCount() int {
	n := 0
	for i := range e.agents {
		if e.agents[i].Active {
			n++
		}
	}
	return n
}

// Remove marks agent i as removed. It reports false for an unknown index.
func (e *Engine) Remove(i int) bool {
	if i < 0 || i >= len(e.agents) {
		return false
	}
	e.agents[i].Remove()
	return true
}

// Positions returns the positions of the active agents, in slot order.
func (e *Engine) Positions() []geometry.Vector2D {
	out := make([]geometry.Vector2D, 0, len(e.agents))
	for i := range e.agents {
		if e.agents[i].Active {
			out = append(out, e.agents[i].Pos)
		}
	}
	return out
}

// Snapshot copies the clock, run flag and active agent kinematics.
func (e *Engine) Snapshot() *Snapshot {
	s := &Snapshot{
		Time:       e.clock,
		Steps:      e.steps,
		Running:    e.running,
		Positions:  make([]geometry.Vector2D, 0, len(e.agents)),
		Velocities: make([]geometry.Vector2D, 0, len(e.agents)),
	}
	for i := range e.agents {
		if !e.agents[i].Active {
			continue
		}
		s.Positions = append(s.Positions, e.agents[i].Pos)
		s.Velocities = append(s.Velocities, e.agents[i].Vel)
	}
	return s
}
