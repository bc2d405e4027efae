package simulator

import (
	"context"
	"math"
	"math/rand"

	"fluidcore/obstacle"
	"fluidcore/particle"
	"fluidcore/vecmath"
)

// spawn implements S1: every sphere-source obstacle accumulates
// spawn_rate*dt plus its carried fractional remainder; the integer part
// becomes new particles placed uniformly on the source's shell with
// outward radial velocity (spec.md §4.4 S1).
func (sim *Simulator) spawn(ctx context.Context, rng *rand.Rand, dt float64) error {
	if !sim.Config.SimulatorConfig.ParticleSpawningEnabled {
		return nil
	}
	spawned := false
	for _, o := range sim.Obstacles {
		if o.Kind != obstacle.KindSphereSource {
			continue
		}
		budget := o.SpawnRate*dt + o.SpawnFraction()
		count := int(math.Floor(budget))
		o.SetSpawnFraction(budget - float64(count))
		if count == 0 {
			continue
		}
		spawned = true
		shell := o.EffectiveRadius(sim.Particles.Radius)
		for i := 0; i < count; i++ {
			theta := rng.Float64() * 2 * math.Pi
			phi := math.Acos(2*rng.Float64() - 1)
			normal := vecmath.NewVec3(
				math.Sin(phi)*math.Cos(theta),
				math.Sin(phi)*math.Sin(theta),
				math.Cos(phi),
			)
			sim.Particles.Append(particle.Particle{
				Pos: o.Pos.Add(normal.Scale(shell)),
				Vel: normal.Scale(o.SpawnSpeed),
			})
		}
	}
	if spawned {
		return sim.Particles.Rehash(ctx)
	}
	return nil
}
