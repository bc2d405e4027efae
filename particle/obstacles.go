package particle

import (
	"math"

	"fluidcore/obstacle"
	"fluidcore/vecmath"
)

// PushOutOfObstacles projects every particle intersecting an obstacle's
// shell back onto it (spec.md §4.4 S4). Sphere and sphere-source
// obstacles push along the radial normal; rectangles push along whichever
// axis has the smallest extrusion distance. Sphere-sinks do not push
// (they remove particles instead, handled during advection).
func (s *Set) PushOutOfObstacles(obstacles []*obstacle.Obstacle) {
	for i := range s.Particles {
		for _, o := range obstacles {
			if o.Kind == obstacle.KindSphereSink {
				continue
			}
			s.pushOutOfOne(i, o)
		}
	}
}

func (s *Set) pushOutOfOne(i int, o *obstacle.Obstacle) {
	p := &s.Particles[i]
	switch o.Kind {
	case obstacle.KindRectangle:
		pushOutOfRectangle(p, o)
	default: // sphere, sphere-source
		shell := o.EffectiveRadius(s.Radius)
		diff := p.Pos.Sub(o.Pos)
		dist := diff.Length()
		if dist >= shell || dist <= pushApartEpsilon {
			return
		}
		normal := diff.Scale(1 / dist)
		p.Pos = o.Pos.Add(normal.Scale(shell))
	}
	p.Pos = s.Domain.Clamp(p.Pos)
}

func pushOutOfRectangle(p *Particle, o *obstacle.Obstacle) {
	half := o.Size.Scale(0.5)
	diff := p.Pos.Sub(o.Pos)
	d := vecmath.Abs(diff)
	if d.X > half.X || d.Y > half.Y || d.Z > half.Z {
		return // already outside
	}

	penetration := half.Sub(d) // positive on each axis if inside
	axis, best := 0, math.Inf(1)
	for a := 0; a < 3; a++ {
		if v := penetration.Axis(a); v < best {
			best, axis = v, a
		}
	}

	sign := 1.0
	if diff.Axis(axis) < 0 {
		sign = -1.0
	}
	p.Pos = p.Pos.WithAxis(axis, o.Pos.Axis(axis)+sign*half.Axis(axis))
}
