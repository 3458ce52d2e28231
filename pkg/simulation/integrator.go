package simulation

import "github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"

// Integrator applies the step force to velocity and velocity to position.
// It must run after ForceModel.ComputeAll for the same step.
type Integrator struct {
	Region      geometry.Region
	MaxVelocity float64
}

// Advance moves a single agent by dt: semi-implicit Euler with an exact
// speed clamp, then one toroidal wrap per axis.
func (in Integrator) Advance(a *Agent, dt float64) {
	a.Vel.AddScaled(a.Force, dt)
	a.Vel.LimitMax(in.MaxVelocity)
	a.Pos.AddScaled(a.Vel, dt)
	a.Pos = in.Region.Wrap(a.Pos)
}

// AdvanceAll advances every active agent.
func (in Integrator) AdvanceAll(agents []Agent, dt float64) {
	for i := range agents {
		if !agents[i].Active {
			continue
		}
		in.Advance(&agents[i], dt)
	}
}
