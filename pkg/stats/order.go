// Package stats measures the collective state of a flock and records it.
package stats

import "github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"

// OrderParameters summarises one flock state.
type OrderParameters struct {
	Time   float64 `json:"time"`
	Agents int     `json:"agents"`
	// Polarization is |sum of unit velocities| / N, 1 for a fully aligned
	// flock and close to 0 for a disordered one.
	Polarization float64           `json:"polarization"`
	MeanSpeed    float64           `json:"meanSpeed"`
	Centroid     geometry.Vector2D `json:"centroid"`
}

// Measure computes the order parameters of the agents described by the
// parallel slices velocities and positions at simulation time t.
// The centroid is the plain arithmetic mean and ignores the periodic
// boundary.
func Measure(t float64, velocities, positions []geometry.Vector2D) OrderParameters {
	p := OrderParameters{Time: t, Agents: len(velocities)}
	if len(velocities) == 0 {
		return p
	}

	var heading, centroid geometry.Vector2D
	speed := 0.0
	for i, v := range velocities {
		heading = heading.Add(v.Normalize())
		speed += v.Len()
		if i < len(positions) {
			centroid = centroid.Add(positions[i])
		}
	}

	n := float64(len(velocities))
	p.Polarization = heading.Len() / n
	p.MeanSpeed = speed / n
	if len(positions) > 0 {
		p.Centroid = centroid.Mul(1 / float64(min(len(positions), len(velocities))))
	}
	return p
}
