// Package obstacle implements the polymorphic movable bodies the grid
// voxelizes and the simulator collides particles against (spec.md §4.1).
//
// The original C++ uses a class hierarchy with dynamic dispatch over four
// concrete obstacle types. Go has no sum types and this core avoids an
// interface-plus-dynamic-dispatch translation because the simulator's inner
// loops need to switch on variant for every particle every tick (spec.md
// §9 calls this out explicitly: "re-express as a tagged sum ... Simulator
// dispatches by variant tag"). Obstacle is therefore one struct carrying a
// Kind tag; fields irrelevant to a given Kind are simply left zero.
package obstacle

import (
	"github.com/google/uuid"

	"fluidcore/vecmath"
)

// Kind identifies which obstacle variant a value represents.
type Kind int

const (
	KindSphere Kind = iota
	KindRectangle
	KindSphereSource
	KindSphereSink
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindRectangle:
		return "rectangle"
	case KindSphereSource:
		return "sphere-source"
	case KindSphereSink:
		return "sphere-sink"
	default:
		return "unknown"
	}
}

// Obstacle is a tagged sum over the four obstacle variants. ID is a stable
// identity (spec.md §3 "Ownership: the Manager holds the authoritative
// list; Simulator holds a cloned list per tick" — a stable id, rather than
// a slice index that shifts under concurrent reconfiguration, is what lets
// the Manager and its caller reconcile which obstacle is which across a
// clone boundary).
type Obstacle struct {
	ID   uuid.UUID
	Kind Kind

	// Sphere / SphereSource / SphereSink geometry.
	Radius float64

	// Rectangle geometry (full extent on each axis; the box spans
	// Pos - Size/2 to Pos + Size/2).
	Size vecmath.Vec3

	// Pose. Pos is current, Prev is the pose as of the previous SetNewPos
	// call (ComputeSpeed reads it but does not change it); Speed is
	// derived, never set directly except by ComputeSpeed.
	Pos   vecmath.Vec3
	Prev  vecmath.Vec3
	Speed vecmath.Vec3

	// SphereSource fields.
	SpawnRate         float64 // particles spawned per second
	SpawnSpeed        float64 // outward speed imparted to spawned particles
	lastSpawnFraction float64 // carried fractional particle count across ticks
}

// NewSphere creates a stationary (or externally posed) sphere obstacle.
func NewSphere(center vecmath.Vec3, radius float64) *Obstacle {
	return &Obstacle{ID: uuid.New(), Kind: KindSphere, Pos: center, Prev: center, Radius: radius}
}

// NewRectangle creates a rectangle obstacle. size is the full extent on
// each axis (spec.md §3 "rectangle (center, size)").
func NewRectangle(center, size vecmath.Vec3) *Obstacle {
	return &Obstacle{ID: uuid.New(), Kind: KindRectangle, Pos: center, Prev: center, Size: size}
}

// NewSphereSource creates a particle-spawning sphere obstacle.
func NewSphereSource(center vecmath.Vec3, radius, spawnRate, spawnSpeed float64) *Obstacle {
	return &Obstacle{
		ID: uuid.New(), Kind: KindSphereSource, Pos: center, Prev: center,
		Radius: radius, SpawnRate: spawnRate, SpawnSpeed: spawnSpeed,
	}
}

// NewSphereSink creates a particle-absorbing sphere obstacle.
func NewSphereSink(center vecmath.Vec3, radius float64) *Obstacle {
	return &Obstacle{ID: uuid.New(), Kind: KindSphereSink, Pos: center, Prev: center, Radius: radius}
}

// Clone deep-copies the obstacle. Obstacle has no reference-typed fields so
// a value copy already qualifies; Clone exists as the documented contract
// spec.md §4.1 requires (so the Simulator can snapshot state without
// aliasing the Manager's list) and to keep call sites self-describing.
func (o *Obstacle) Clone() *Obstacle {
	clone := *o
	return &clone
}

// SetNewPos stores Prev <- Pos, then Pos <- p (spec.md §4.1).
func (o *Obstacle) SetNewPos(p vecmath.Vec3) {
	o.Prev = o.Pos
	o.Pos = p
}

// ComputeSpeed sets Speed <- (Pos - Prev) / dt. Called once per tick by the
// Manager before the tick runs (spec.md §4.1, §4.5 step 5).
func (o *Obstacle) ComputeSpeed(dt float64) {
	if dt <= 0 {
		o.Speed = vecmath.Vec3{}
		return
	}
	o.Speed = o.Pos.Sub(o.Prev).Scale(1.0 / dt)
}

// SpawnFraction returns the carried fractional particle count from the
// previous tick (sphere-source only).
func (o *Obstacle) SpawnFraction() float64 {
	return o.lastSpawnFraction
}

// SetSpawnFraction stores the fractional remainder after a tick's spawn
// count has been taken (spec.md §4.1: "carries a last_spawn_fraction
// accumulator so that fractional particles-per-tick accrue correctly
// across ticks").
func (o *Obstacle) SetSpawnFraction(f float64) {
	o.lastSpawnFraction = f
}

// EffectiveRadius returns Radius + particleRadius, the shell sphere/sphere-
// source/sphere-sink obstacles collide and spawn against.
func (o *Obstacle) EffectiveRadius(particleRadius float64) float64 {
	return o.Radius + particleRadius
}

// CloneList deep-copies a slice of obstacles (spec.md §4.5 step 5: "Clone
// obstacles ... hand clones to Simulator").
func CloneList(list []*Obstacle) []*Obstacle {
	out := make([]*Obstacle, len(list))
	for i, o := range list {
		out[i] = o.Clone()
	}
	return out
}
