// Package simulator drives one fluid tick: spawn, advect, push-apart,
// push-out-of-obstacles, P2G, mark/voxelize, pressure projection,
// extrapolation, G2P (spec.md §4.4).
package simulator

import (
	"fluidcore/config"
	"fluidcore/grid"
	"fluidcore/obstacle"
	"fluidcore/particle"
)

// Simulator owns the particle set, grid, and cloned obstacle list for one
// tick, plus the rolling substep timings (spec.md §4.4 State).
type Simulator struct {
	Particles *particle.Set
	Grid      *grid.Grid
	Obstacles []*obstacle.Obstacle

	Config config.Configuration

	timings Timings
}

// New constructs a Simulator wired to the given particle set and grid.
// Particles and Grid are owned by the caller (the Manager) for the
// lifetime of the tick; Simulate mutates them in place.
func New(particles *particle.Set, g *grid.Grid, cfg config.Configuration) *Simulator {
	return &Simulator{Particles: particles, Grid: g, Config: cfg, timings: newTimings()}
}
