package particle

import (
	"fluidcore/obstacle"
	"fluidcore/vecmath"
)

const (
	maxRunCount          = 200
	wallRestitution      = 0.3
	sphereRestitution    = 1.0
	rectangleRestitution = 0.2
	bisectionStep        = 2e-4
)

// Advect steps every particle through up to maxRunCount sub-collisions
// within dt (spec.md §4.4 S2): wall planes reflect with wallRestitution,
// spheres and sphere-sources reflect with sphereRestitution in the
// obstacle's rest frame, rectangles reflect the single crossed axis with
// rectangleRestitution, and sphere-sinks mark the particle for removal
// when despawnEnabled. Removed indices are returned for the caller to
// pass to RemoveMarked.
func (s *Set) Advect(obstacles []*obstacle.Obstacle, dt float64, despawnEnabled bool) map[int]bool {
	removed := make(map[int]bool)
	for i := range s.Particles {
		s.advectOne(i, obstacles, dt, despawnEnabled, removed)
	}
	return removed
}

func (s *Set) advectOne(i int, obstacles []*obstacle.Obstacle, dt float64, despawnEnabled bool, removed map[int]bool) {
	p := &s.Particles[i]
	remaining := dt
	elapsed := 0.0

	for iter := 0; iter < maxRunCount && remaining > 0; iter++ {
		if axis, t, ok := s.timeToWallHit(p.Pos, p.Vel, remaining); ok {
			step := 0.999 * t
			p.Pos = p.Pos.Add(p.Vel.Scale(step))
			v := -wallRestitution * p.Vel.Axis(axis)
			p.Vel = p.Vel.WithAxis(axis, v)
			remaining -= step
			elapsed += step
			continue
		}

		collided := false
		for _, o := range obstacles {
			switch o.Kind {
			case obstacle.KindSphereSink:
				if despawnEnabled && s.insideSinkAt(p.Pos, o, dt, elapsed+remaining) {
					removed[i] = true
					return
				}
			case obstacle.KindSphere, obstacle.KindSphereSource:
				if t, hit := s.bisectSphere(p.Pos, p.Vel, o, dt, elapsed, remaining); hit {
					obstaclePos := obstaclePositionAt(o, dt, elapsed+t)
					candidate := p.Pos.Add(p.Vel.Scale(t))
					normal := candidate.Sub(obstaclePos)
					if l := normal.Length(); l > pushApartEpsilon {
						normal = normal.Scale(1 / l)
					}
					relVel := p.Vel.Sub(o.Speed)
					reflected := relVel.Sub(normal.Scale(2 * relVel.Dot(normal)))
					p.Vel = reflected.Scale(sphereRestitution).Add(o.Speed)
					p.Pos = candidate
					remaining -= t
					elapsed += t
					collided = true
				}
			case obstacle.KindRectangle:
				if t, axis, ok := s.bisectRectangle(p.Pos, p.Vel, o, remaining); ok {
					candidate := p.Pos.Add(p.Vel.Scale(t))
					v := -rectangleRestitution * p.Vel.Axis(axis)
					p.Vel = p.Vel.WithAxis(axis, v)
					p.Pos = candidate
					remaining -= t
					elapsed += t
					collided = true
				}
			}
			if collided {
				break
			}
		}

		if !collided {
			p.Pos = p.Pos.Add(p.Vel.Scale(remaining))
			elapsed += remaining
			remaining = 0
		}
	}

	p.Pos = s.Domain.Clamp(p.Pos)
}

func obstaclePositionAt(o *obstacle.Obstacle, dt, elapsed float64) vecmath.Vec3 {
	if dt <= 0 {
		return o.Pos
	}
	return o.Prev.Add(o.Speed.Scale(elapsed))
}

// timeToWallHit returns the earliest of the six axis-aligned domain walls
// the particle's linear trajectory crosses within remaining, if any.
func (s *Set) timeToWallHit(pos, vel vecmath.Vec3, remaining float64) (axis int, t float64, ok bool) {
	best := remaining
	found := false
	for a := 0; a < 3; a++ {
		v := vel.Axis(a)
		if v == 0 {
			continue
		}
		lo, hi := s.Domain.Low.Axis(a), s.Domain.High.Axis(a)
		boundary := lo
		if v > 0 {
			boundary = hi
		}
		tt := (boundary - pos.Axis(a)) / v
		if tt >= 0 && tt <= best {
			best, axis, found = tt, a, true
		}
	}
	return axis, best, found
}

func (s *Set) insideSinkAt(pos vecmath.Vec3, o *obstacle.Obstacle, dt, elapsed float64) bool {
	center := obstaclePositionAt(o, dt, elapsed)
	shell := o.EffectiveRadius(s.Radius)
	return pos.Sub(center).Length() < shell
}

// bisectSphere finds the latest sub-time t in [0, remaining] at which the
// particle's trajectory lies outside the (possibly moving) sphere's
// shell, walking backward from the tentative full step in bisectionStep
// increments (spec.md §4.4 S2). It reports no hit when the tentative full
// step already ends outside the shell, or when no such t > 0 exists.
func (s *Set) bisectSphere(pos, vel vecmath.Vec3, o *obstacle.Obstacle, dt, elapsed, remaining float64) (t float64, hit bool) {
	shell := o.EffectiveRadius(s.Radius)
	end := pos.Add(vel.Scale(remaining))
	if end.Sub(obstaclePositionAt(o, dt, elapsed+remaining)).Length() >= shell {
		return 0, false
	}
	t = remaining - bisectionStep
	for t > 0 {
		candidate := pos.Add(vel.Scale(t))
		center := obstaclePositionAt(o, dt, elapsed+t)
		if candidate.Sub(center).Length() >= shell {
			return t, true
		}
		t -= bisectionStep
	}
	return 0, false
}

// bisectRectangle is bisectSphere's rectangle analogue: it walks backward
// from the tentative full step until the particle is outside the
// obstacle's (stationary, in this core) box, then reports which axis'
// face plane was crossed. Like bisectSphere, it reports no hit when the
// tentative full step already ends outside the box.
func (s *Set) bisectRectangle(pos, vel vecmath.Vec3, o *obstacle.Obstacle, remaining float64) (t float64, axis int, ok bool) {
	half := o.Size.Scale(0.5)
	if d := vecmath.Abs(pos.Add(vel.Scale(remaining)).Sub(o.Pos)); d.X > half.X || d.Y > half.Y || d.Z > half.Z {
		return 0, 0, false
	}
	t = remaining - bisectionStep
	for t > 0 {
		candidate := pos.Add(vel.Scale(t))
		d := vecmath.Abs(candidate.Sub(o.Pos))
		if d.X > half.X || d.Y > half.Y || d.Z > half.Z {
			return t, crossedAxis(d, half), true
		}
		t -= bisectionStep
	}
	return 0, 0, false
}

// crossedAxis returns the first axis whose offset from the rectangle
// center exceeds its half-extent (spec.md §4.4 S2 "the first axis whose
// coordinate lies outside the face plane").
func crossedAxis(d, half vecmath.Vec3) int {
	for a := 0; a < 3; a++ {
		if d.Axis(a) > half.Axis(a) {
			return a
		}
	}
	return 2
}
