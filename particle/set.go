package particle

import (
	"math/rand"

	"fluidcore/vecmath"
)

// Set is the dense particle array plus its spatial hash and the domain
// it is kept clamped to (spec.md §4.3).
type Set struct {
	Particles []Particle
	Radius    float64
	Domain    Domain
	Hash      Hash

	removeMark []bool // unused; the sink pass passes a map to RemoveMarked
}

// New constructs an empty set over domain with the given particle radius.
func New(radius float64, domain Domain) *Set {
	return &Set{Radius: radius, Domain: domain}
}

// SeedRandom appends n particles uniformly distributed in the interior
// box with zero velocity and zero affine vectors (spec.md §4.3
// Construction).
func (s *Set) SeedRandom(rng *rand.Rand, n int) {
	for i := 0; i < n; i++ {
		s.Particles = append(s.Particles, Particle{Pos: s.randomInteriorPoint(rng)})
	}
}

// Reseed discards all particles and seeds n fresh ones (spec.md §4.5
// step 6, restart).
func (s *Set) Reseed(rng *rand.Rand, n int) {
	s.Particles = s.Particles[:0]
	s.SeedRandom(rng, n)
}

func (s *Set) randomInteriorPoint(rng *rand.Rand) vecmath.Vec3 {
	lerp := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }
	p := vecmath.NewVec3(
		lerp(s.Domain.Low.X, s.Domain.High.X),
		lerp(s.Domain.Low.Y, s.Domain.High.Y),
		lerp(s.Domain.Low.Z, s.Domain.High.Z),
	)
	if s.Domain.Simulation2D {
		p.Z = s.Domain.FixedZ
	}
	return p
}

// SetTargetCount grows or shrinks the set to exactly n particles (spec.md
// §4.3 "Particle-count change"): grow appends random in-box particles,
// shrink truncates.
func (s *Set) SetTargetCount(rng *rand.Rand, n int) {
	switch {
	case n > len(s.Particles):
		s.SeedRandom(rng, n-len(s.Particles))
	case n < len(s.Particles):
		s.Particles = s.Particles[:n]
	}
}

// Append adds one particle (used by the simulator's sphere-source spawn
// step, spec.md §4.4 S1).
func (s *Set) Append(p Particle) {
	s.Particles = append(s.Particles, p)
}

// UpdateDomain replaces the clamp box (spec.md §4.5 step 2
// "update_grid_params"), clamping every existing particle into the new
// interior immediately so P1 holds before the next tick runs.
func (s *Set) UpdateDomain(domain Domain) {
	s.Domain = domain
	for i := range s.Particles {
		s.Particles[i].Pos = domain.Clamp(s.Particles[i].Pos)
	}
}

// RemoveMarked deletes every particle whose index is in marked (spec.md
// §4.4 S2, sphere-sink removal), preserving relative order of survivors.
func (s *Set) RemoveMarked(marked map[int]bool) {
	if len(marked) == 0 {
		return
	}
	out := s.Particles[:0]
	for i, p := range s.Particles {
		if marked[i] {
			continue
		}
		out = append(out, p)
	}
	s.Particles = out
}

// MaxSpeed returns the largest velocity magnitude in the set.
func (s *Set) MaxSpeed() float64 {
	var max float64
	for _, p := range s.Particles {
		if v := p.Vel.Length(); v > max {
			max = v
		}
	}
	return max
}

// ClampAll projects every particle back into the interior box (spec.md
// §4.3, §4.4 S2).
func (s *Set) ClampAll() {
	for i := range s.Particles {
		s.Particles[i].Pos = s.Domain.Clamp(s.Particles[i].Pos)
	}
}
