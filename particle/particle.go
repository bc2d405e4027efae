// Package particle implements the dense marker-particle array, its
// uniform spatial hash, and push-apart relaxation (spec.md §4.3).
package particle

import "fluidcore/vecmath"

// Particle is one marker particle: position, velocity, and the three
// APIC affine-velocity vectors (one per transferred axis).
type Particle struct {
	Pos vecmath.Vec3
	Vel vecmath.Vec3
	C   [3]vecmath.Vec3
}

// Domain is the interior box particle positions must stay within, and the
// fixed z-plane used in 2-D mode (spec.md §3 "Hashed-particle domain").
type Domain struct {
	Low, High    vecmath.Vec3
	Simulation2D bool
	FixedZ       float64
}

// Clamp projects p into the domain's interior box, pinning z in 2-D mode.
func (d Domain) Clamp(p vecmath.Vec3) vecmath.Vec3 {
	c := vecmath.Clamp(p, d.Low, d.High)
	if d.Simulation2D {
		c.Z = d.FixedZ
	}
	return c
}
