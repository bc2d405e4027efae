// Package integration_test holds whole-tick and multi-tick scenario tests
// (spec.md §8 S-A..S-F).
package integration_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"fluidcore/config"
	"fluidcore/grid"
	"fluidcore/obstacle"
	"fluidcore/particle"
	"fluidcore/simulator"
	"fluidcore/vecmath"
)

func newHarness(t *testing.T, worldSize vecmath.Vec3, cellsPerUnit float64, simulation2D bool) (*simulator.Simulator, *particle.Set, *grid.Grid) {
	t.Helper()
	return buildHarness(worldSize, cellsPerUnit, simulation2D)
}

func buildHarness(worldSize vecmath.Vec3, cellsPerUnit float64, simulation2D bool) (*simulator.Simulator, *particle.Set, *grid.Grid) {
	g := grid.New(worldSize, cellsPerUnit, simulation2D, false)
	const radius = 0.1
	margin := vecmath.NewVec3(g.Spacing[0]+1.01*radius, g.Spacing[1]+1.01*radius, g.Spacing[2]+1.01*radius)
	domain := particle.Domain{
		Low:          margin,
		High:         worldSize.Sub(margin),
		Simulation2D: simulation2D,
		FixedZ:       worldSize.Z / 2,
	}
	p := particle.New(radius, domain)
	cfg := *config.DefaultConfig()
	cfg.WorldSize = worldSize
	cfg.GridResolution = cellsPerUnit
	cfg.Simulation2D = simulation2D
	cfg.SimulatorConfig.ParticleSpawningEnabled = false
	cfg.SimulatorConfig.ParticleDespawningEnabled = false
	sim := simulator.New(p, g, cfg)
	return sim, p, g
}

func maxSpeed(particles []particle.Particle) float64 {
	var m float64
	for _, p := range particles {
		if v := p.Vel.Length(); v > m {
			m = v
		}
	}
	return m
}

// S-A: 10x10x10 grid, h=1, rho=1, g=0, residual_tol=1e-8, 200 particles at
// rest. After 10 ticks of dt=0.01, max particle speed stays under 1e-4.
func TestScenarioA_RestingFluidStaysAtRest(t *testing.T) {
	sim, p, _ := newHarness(t, vecmath.NewVec3(10, 10, 10), 1.0, false)
	sim.Config.SimulatorConfig.GravityEnabled = false
	sim.Config.ResidualTolerance = 1e-8
	sim.Config.IncompressibilityIterationCount = 200
	sim.Config.FluidDensity = 1.0

	rng := rand.New(rand.NewSource(42))
	p.SeedRandom(rng, 200)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, sim.Simulate(ctx, rng, 0.01))
	}
	require.Less(t, maxSpeed(p.Particles), 1e-4)
}

// S-B: same grid with g=-9.81 and a column of 100 particles. After 1s of
// simulated time the column has picked up substantial downward velocity,
// while every particle remains within the interior (P1).
func TestScenarioB_GravityAcceleratesColumn(t *testing.T) {
	sim, p, g := newHarness(t, vecmath.NewVec3(10, 10, 10), 1.0, false)
	sim.Config.SimulatorConfig.GravityEnabled = true
	sim.Config.SimulatorConfig.Gravity = -9.81
	sim.Config.FluidDensity = 1.0

	for i := 0; i < 100; i++ {
		p.Append(particle.Particle{Pos: vecmath.NewVec3(5, 2+float64(i)*0.05, 5)})
	}

	rng := rand.New(rand.NewSource(7))
	ctx := context.Background()
	const dt = 0.01
	for i := 0; i < 100; i++ {
		require.NoError(t, sim.Simulate(ctx, rng, dt))
	}

	var sumAbsVY float64
	for _, pt := range p.Particles {
		sumAbsVY += math.Abs(pt.Vel.Y)
		lowBound := g.Spacing[0] + 1.01*p.Radius
		highBound := float64(g.Size[0])*g.Spacing[0] - g.Spacing[0] - 1.01*p.Radius
		require.GreaterOrEqual(t, pt.Pos.X, lowBound)
		require.LessOrEqual(t, pt.Pos.X, highBound)
	}
	meanAbsVY := sumAbsVY / float64(len(p.Particles))
	require.Greater(t, meanAbsVY, 0.5*9.81*1.0, "expected substantial downward velocity after falling under gravity")
}

// S-C: 2-D mode, 40x22x3 grid, a single column of particles in the middle
// cell, flipRatio=0.99. After 2s with g=-176, every particle has v.z == 0.
func TestScenarioC_2DModeKeepsZVelocityZero(t *testing.T) {
	sim, p, _ := newHarness(t, vecmath.NewVec3(40, 22, 3), 1.0, true)
	sim.Config.SimulatorConfig.GravityEnabled = true
	sim.Config.SimulatorConfig.Gravity = -176
	sim.Config.SimulatorConfig.FlipRatio = 0.99
	sim.Config.FluidDensity = 1.0

	for i := 0; i < 20; i++ {
		p.Append(particle.Particle{Pos: vecmath.NewVec3(20, 2+float64(i)*0.5, 1.5)})
	}

	rng := rand.New(rand.NewSource(3))
	ctx := context.Background()
	const dt = 0.01
	for i := 0; i < 200; i++ {
		require.NoError(t, sim.Simulate(ctx, rng, dt))
	}

	for _, pt := range p.Particles {
		require.Equal(t, 0.0, pt.Vel.Z)
	}
}

// S-D: a stationary sphere obstacle at the center of a populated domain;
// after push-out, no particle is closer than (radius + r - 1e-6) to the
// obstacle center.
func TestScenarioD_PushOutClearsObstacleShell(t *testing.T) {
	sim, p, _ := newHarness(t, vecmath.NewVec3(10, 10, 10), 1.0, false)
	sphere := obstacle.NewSphere(vecmath.NewVec3(5, 5, 5), 3)
	sim.Obstacles = []*obstacle.Obstacle{sphere}

	rng := rand.New(rand.NewSource(11))
	p.SeedRandom(rng, 500)

	p.PushOutOfObstacles(sim.Obstacles)

	shell := sphere.Radius + p.Radius - 1e-6
	for _, pt := range p.Particles {
		require.GreaterOrEqual(t, pt.Pos.Sub(sphere.Pos).Length(), shell)
	}
}

// S-E: a sphere source spawning at exactly 1 particle/tick for 10 ticks
// increases the particle count by exactly 10.
func TestScenarioE_SourceSpawnsExactCount(t *testing.T) {
	sim, p, _ := newHarness(t, vecmath.NewVec3(10, 10, 10), 1.0, false)
	sim.Config.SimulatorConfig.ParticleSpawningEnabled = true
	sim.Config.SimulatorConfig.GravityEnabled = false

	source := obstacle.NewSphereSource(vecmath.NewVec3(5, 5, 5), 1, 100, 0.5)
	sim.Obstacles = []*obstacle.Obstacle{source}

	before := len(p.Particles)
	rng := rand.New(rand.NewSource(5))
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, sim.Simulate(ctx, rng, 0.01))
	}
	require.Equal(t, before+10, len(p.Particles))
}

// S-F: when the post-P2G divergence is already within tolerance, the PCG
// solver exits after zero iterations and leaves v2 untouched.
func TestScenarioF_PCGEarlyExitLeavesV2Unchanged(t *testing.T) {
	g := grid.New(vecmath.NewVec3(6, 6, 6), 1.0, false, false)
	for k := 1; k < g.Size[2]-1; k++ {
		for j := 1; j < g.Size[1]-1; j++ {
			for i := 1; i < g.Size[0]-1; i++ {
				g.At(i, j, k).Type = grid.Water
			}
		}
	}
	g.RebuildFluidCellPositions()

	before := make([]float64, len(g.Cells))
	for i := range g.Cells {
		before[i] = g.Cells[i].Faces[0].V2
	}

	sys := g.BuildSystem(0.01, 1.0)
	pressure := make([]float64, sys.N)
	iterations, converged := grid.SolvePressureBridson(sys, pressure, 1e-3, 200)
	require.Equal(t, 0, iterations)
	require.True(t, converged)

	for i := range g.Cells {
		require.Equal(t, before[i], g.Cells[i].Faces[0].V2)
	}
}
