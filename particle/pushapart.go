package particle

import (
	"context"
	"math"

	"fluidcore/grid"
)

const pushApartEpsilon = 1e-8

// PushApart runs one push-apart relaxation pass (spec.md §4.3): for each
// particle, every other particle within its own and the 26 neighboring
// hash cells at squared distance in (1e-8, (2r)^2) is pushed away by half
// the overlap along the line between them. Concurrent updates are
// intentionally race-tolerant (spec.md §9) — a particle may be nudged by
// more than one neighbor in the same pass, and positions stay bounded
// because every touch is immediately clamped to the interior domain.
func (s *Set) PushApart(ctx context.Context) error {
	d := 2 * s.Radius
	d2 := d * d

	return grid.ParallelFor(ctx, len(s.Particles), func(i int) {
		s.Neighbors(i, func(j int) {
			if j == i {
				return
			}
			diff := s.Particles[i].Pos.Sub(s.Particles[j].Pos)
			dist2 := diff.LengthSq()
			if dist2 >= d2 || dist2 <= pushApartEpsilon {
				return
			}
			dist := math.Sqrt(dist2)
			push := diff.Scale(0.5 * (d - dist) / dist)

			s.Particles[i].Pos = s.Domain.Clamp(s.Particles[i].Pos.Add(push))
			s.Particles[j].Pos = s.Domain.Clamp(s.Particles[j].Pos.Sub(push))
		})
	})
}
