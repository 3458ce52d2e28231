package simulation

import (
	"context"
	"math"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
	"golang.org/x/sync/errgroup"
)

// ForceModel holds the radii and weights of the three flocking rules.
type ForceModel struct {
	RadiusSeparation float64
	RadiusAlignment  float64
	RadiusCohesion   float64

	WeightSeparation float64
	WeightAlignment  float64
	WeightCohesion   float64
}

// NewForceModel extracts the rule parameters from cfg.
func NewForceModel(cfg *Config) ForceModel {
	return ForceModel{
		RadiusSeparation: cfg.RadiusSeparation,
		RadiusAlignment:  cfg.RadiusAlignment,
		RadiusCohesion:   cfg.RadiusCohesion,
		WeightSeparation: cfg.WeightSeparation,
		WeightAlignment:  cfg.WeightAlignment,
		WeightCohesion:   cfg.WeightCohesion,
	}
}

// Reach is the largest of the three radii.
func (m *ForceModel) Reach() float64 {
	return math.Max(m.RadiusSeparation, math.Max(m.RadiusAlignment, m.RadiusCohesion))
}

// flockAccumulator gathers the raw rule sums for a single agent while the
// grid walks its neighbourhood.
type flockAccumulator struct {
	model *ForceModel

	separation geometry.Vector2D
	velSum     geometry.Vector2D
	posSum     geometry.Vector2D
	nAlign     int
	nCohesion  int
}

func (acc *flockAccumulator) VisitNeighbor(self, other *Agent, rv geometry.Vector2D) {
	if self == other {
		return
	}
	r := rv.Len()

	// Separation: inverse distance repulsion, coincident agents excluded
	if r > 0 && r <= acc.model.RadiusSeparation {
		acc.separation.AddScaled(rv, 1/(r*r))
	}

	// Alignment
	if r <= acc.model.RadiusAlignment {
		acc.velSum = acc.velSum.Add(other.Vel)
		acc.nAlign++
	}

	// Cohesion
	if r <= acc.model.RadiusCohesion {
		acc.posSum = acc.posSum.Add(other.Pos)
		acc.nCohesion++
	}
}

// force turns the sums into the weighted combination of unit directions.
func (acc *flockAccumulator) force(self *Agent) geometry.Vector2D {
	separation := acc.separation

	var alignment geometry.Vector2D
	if acc.nAlign > 0 {
		alignment = acc.velSum.Mul(1 / float64(acc.nAlign)).Sub(self.Vel)
	}

	var cohesion geometry.Vector2D
	if acc.nCohesion > 0 {
		cohesion = acc.posSum.Mul(1 / float64(acc.nCohesion)).Sub(self.Pos)
	}

	separation.Unit()
	alignment.Unit()
	cohesion.Unit()

	var f geometry.Vector2D
	f.AddScaled(separation, acc.model.WeightSeparation)
	f.AddScaled(alignment, acc.model.WeightAlignment)
	f.AddScaled(cohesion, acc.model.WeightCohesion)
	return f
}

// Compute overwrites a.Force with the flocking force from the neighbours
// found in g. An inactive agent gets a zero force.
func (m *ForceModel) Compute(a *Agent, g *Grid) {
	if !a.Active {
		a.Force = geometry.Vector2D{}
		return
	}
	acc := flockAccumulator{model: m}
	g.ForNeighbors(a, g.CellSize(), &acc)
	a.Force = acc.force(a)
}

// ComputeAll fills the Force of every agent. With workers > 1 the slice is
// split into contiguous chunks handled concurrently; each worker only
// writes the Force of its own chunk and reads the grid. All workers are
// done when ComputeAll returns. More workers than agents are not used.
func (m *ForceModel) ComputeAll(ctx context.Context, agents []Agent, g *Grid, workers int) error {
	if err := CheckCoverage(m.Reach(), g); err != nil {
		return err
	}

	workers = min(workers, len(agents))
	if workers <= 1 || len(agents) < 2*workers {
		for i := range agents {
			m.Compute(&agents[i], g)
		}
		return nil
	}

	chunk := (len(agents) + workers - 1) / workers
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for start := 0; start < len(agents); start += chunk {
		part := agents[start:min(start+chunk, len(agents))]
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := range part {
				m.Compute(&part[i], g)
			}
			return nil
		})
	}
	return eg.Wait()
}
