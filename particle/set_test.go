package particle

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"fluidcore/vecmath"
)

func TestSeedRandomStaysInDomain(t *testing.T) {
	s := New(0.1, testDomain())
	rng := rand.New(rand.NewSource(3))
	s.SeedRandom(rng, 50)

	for _, p := range s.Particles {
		require.True(t, p.Pos.X >= s.Domain.Low.X && p.Pos.X <= s.Domain.High.X)
		require.Equal(t, vecmath.Vec3{}, p.Vel)
	}
}

func TestSetTargetCountGrowsAndShrinks(t *testing.T) {
	s := New(0.1, testDomain())
	rng := rand.New(rand.NewSource(4))
	s.SetTargetCount(rng, 10)
	require.Len(t, s.Particles, 10)

	s.SetTargetCount(rng, 3)
	require.Len(t, s.Particles, 3)

	s.SetTargetCount(rng, 7)
	require.Len(t, s.Particles, 7)
}

func TestRemoveMarked(t *testing.T) {
	s := New(0.1, testDomain())
	s.Particles = []Particle{{Pos: vecmath.NewVec3(1, 1, 1)}, {Pos: vecmath.NewVec3(2, 2, 2)}, {Pos: vecmath.NewVec3(3, 3, 3)}}

	s.RemoveMarked(map[int]bool{1: true})

	require.Len(t, s.Particles, 2)
	require.Equal(t, vecmath.NewVec3(1, 1, 1), s.Particles[0].Pos)
	require.Equal(t, vecmath.NewVec3(3, 3, 3), s.Particles[1].Pos)
}

func TestUpdateDomainClampsExistingParticles(t *testing.T) {
	s := New(0.1, testDomain())
	s.Particles = []Particle{{Pos: vecmath.NewVec3(8.9, 8.9, 8.9)}}

	s.UpdateDomain(Domain{Low: vecmath.NewVec3(1, 1, 1), High: vecmath.NewVec3(5, 5, 5)})

	require.Equal(t, vecmath.NewVec3(5, 5, 5), s.Particles[0].Pos)
}
