package particle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fluidcore/obstacle"
	"fluidcore/vecmath"
)

func TestAdvectBouncesOffWall(t *testing.T) {
	s := New(0.1, testDomain())
	s.Particles = []Particle{{Pos: vecmath.NewVec3(8.9, 5, 5), Vel: vecmath.NewVec3(10, 0, 0)}}

	s.Advect(nil, 0.1, false)

	require.LessOrEqual(t, s.Particles[0].Pos.X, testDomain().High.X+1e-9)
	require.Less(t, s.Particles[0].Vel.X, 0.0, "velocity should reverse off the +x wall")
}

func TestAdvectSphereSinkRemovesParticle(t *testing.T) {
	s := New(0.1, testDomain())
	sink := obstacle.NewSphereSink(vecmath.NewVec3(5, 5, 5), 0.5)
	s.Particles = []Particle{{Pos: vecmath.NewVec3(5.3, 5, 5), Vel: vecmath.NewVec3(0, 0, 0)}}

	removed := s.Advect([]*obstacle.Obstacle{sink}, 0.01, true)

	require.True(t, removed[0])
}

func TestAdvectSphereSinkIgnoredWhenDespawnDisabled(t *testing.T) {
	s := New(0.1, testDomain())
	sink := obstacle.NewSphereSink(vecmath.NewVec3(5, 5, 5), 0.5)
	s.Particles = []Particle{{Pos: vecmath.NewVec3(5.3, 5, 5)}}

	removed := s.Advect([]*obstacle.Obstacle{sink}, 0.01, false)
	require.Empty(t, removed)
}

func TestAdvectBouncesOffStationarySphere(t *testing.T) {
	s := New(0.1, testDomain())
	sphere := obstacle.NewSphere(vecmath.NewVec3(5, 5, 5), 0.5)
	s.Particles = []Particle{{Pos: vecmath.NewVec3(3, 5, 5), Vel: vecmath.NewVec3(10, 0, 0)}}

	s.Advect([]*obstacle.Obstacle{sphere}, 0.1, false)

	dist := s.Particles[0].Pos.Sub(sphere.Pos).Length()
	require.GreaterOrEqual(t, dist, sphere.EffectiveRadius(s.Radius)-1e-6)
}
