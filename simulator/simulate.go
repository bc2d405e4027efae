package simulator

import (
	"context"
	"math/rand"
	"time"

	"fluidcore/config"
	"fluidcore/grid"
	"fluidcore/particle"
	"fluidcore/vecmath"
)

// Simulate runs one full tick, sequencing S1 through S12 exactly as
// spec.md §4.4 orders them; none of the substeps may overlap (spec.md §9
// "within a tick, substeps S1..S12 have a strict happens-before chain").
// rng drives S1's spawn placement and carries no other state across
// ticks.
func (sim *Simulator) Simulate(ctx context.Context, rng *rand.Rand, dt float64) error {
	cfg := sim.Config
	g := sim.Grid
	p := sim.Particles

	if err := sim.timed(SubstepSimulateParticles, func() error {
		if err := sim.spawn(ctx, rng, dt); err != nil {
			return err
		}
		removed := p.Advect(sim.Obstacles, dt, cfg.SimulatorConfig.ParticleDespawningEnabled)
		p.RemoveMarked(removed)
		return p.Rehash(ctx)
	}); err != nil {
		return err
	}

	if err := sim.timed(SubstepPushParticlesApart, func() error {
		if !cfg.SimulatorConfig.PushApartEnabled {
			return nil
		}
		if err := p.Rehash(ctx); err != nil {
			return err
		}
		return p.PushApart(ctx)
	}); err != nil {
		return err
	}

	if err := sim.timed(SubstepPushParticlesOutOfObstacles, func() error {
		p.PushOutOfObstacles(sim.Obstacles)
		if cfg.SimulatorConfig.StopParticles {
			for i := range p.Particles {
				p.Particles[i].Vel = vecmath.Vec3{}
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := sim.timed(SubstepP2GTransfer, func() error {
		sim.p2g()
		g.MarkFluidCells(particlePositions(p.Particles))
		g.VoxelizeObstacles(sim.Obstacles)
		g.ApplyBorderSolid()
		g.SetDt(dt)
		g.PostP2GUpdate(cfg.SimulatorConfig.Gravity, cfg.SimulatorConfig.GravityEnabled)
		return nil
	}); err != nil {
		return err
	}

	var system *grid.PoissonSystem
	if err := sim.timed(SubstepIncompressibilityPrep, func() error {
		if !cfg.PressureEnabled {
			return nil
		}
		system = g.BuildSystem(dt, cfg.FluidDensity)
		return nil
	}); err != nil {
		return err
	}

	if err := sim.timedIter(SubstepIncompressibility, func() (int, error) {
		if !cfg.PressureEnabled || system == nil || system.N == 0 {
			return 0, nil
		}
		if cfg.GridSolverType == config.SolverBasic {
			pressure := make([]float64, len(g.Cells))
			iters, _ := g.SolvePressureBasic(ctx, pressure, dt, cfg.FluidDensity, cfg.ResidualTolerance, cfg.IncompressibilityIterationCount)
			g.ApplyPressureBasic(pressure, dt, cfg.FluidDensity)
			return iters, nil
		}
		pressure := make([]float64, system.N)
		iters, _ := grid.SolvePressureBridson(system, pressure, cfg.ResidualTolerance, cfg.IncompressibilityIterationCount)
		g.ApplyPressure(pressure, dt, cfg.FluidDensity)
		return iters, nil
	}); err != nil {
		return err
	}

	if err := sim.timed(SubstepVelocityExtrapolation, func() error {
		g.Extrapolate()
		return nil
	}); err != nil {
		return err
	}

	return sim.timed(SubstepG2PTransfer, func() error {
		sim.g2p()
		return nil
	})
}

func particlePositions(particles []particle.Particle) []vecmath.Vec3 {
	out := make([]vecmath.Vec3, len(particles))
	for i, p := range particles {
		out[i] = p.Pos
	}
	return out
}

func (sim *Simulator) timed(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	sim.timings.record(name, time.Since(start))
	return err
}

func (sim *Simulator) timedIter(name string, fn func() (int, error)) error {
	start := time.Now()
	iters, err := fn()
	sim.timings.record(name, time.Since(start))
	sim.timings.iterCount = iters
	return err
}

// StepDurations exposes the rolling per-substep timing EMA (spec.md §6).
func (sim *Simulator) StepDurations() map[string]time.Duration {
	return sim.timings.StepDurations()
}
