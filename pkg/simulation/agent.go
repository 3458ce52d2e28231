package simulation

import "github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"

// Agent is one boid: a point mass with the force accumulated for the
// current step. Agents live in a contiguous slice owned by the Engine and
// are referenced by pointer from the grid buckets.
type Agent struct {
	Pos   geometry.Vector2D
	Vel   geometry.Vector2D
	Force geometry.Vector2D

	// Active is false for a logically removed slot. Removed agents keep
	// their storage but are skipped by the grid, forces and integration.
	Active bool
}

// NewAgent returns an active agent with zero force.
func NewAgent(pos, vel geometry.Vector2D) Agent {
	return Agent{Pos: pos, Vel: vel, Active: true}
}

// Remove marks the agent as logically removed.
func (a *Agent) Remove() {
	a.Active = false
}

// DistanceTo gives the cartesian distance from this Agent to the other.
func (a *Agent) DistanceTo(other *Agent) float64 {
	return a.Pos.Sub(other.Pos).Len()
}
