package particle

import (
	"context"
	"math"
	"sync/atomic"

	"fluidcore/grid"
	"fluidcore/vecmath"
)

// Hash is the uniform spatial hash at spacing 2r used for neighbor
// queries during push-apart (spec.md §3 "Particle spatial hash").
// CellStart is a prefix-summed indirection array: CellStart[i] is the
// start offset of cell i's particles in ParticleIDs, and
// CellStart[i+1]-CellStart[i] is that cell's particle count.
type Hash struct {
	Spacing    float64
	Origin     vecmath.Vec3
	Dims       [3]int
	CellStart  []int32
	ParticleIDs []int32
}

func (s *Set) hashSpacing() float64 { return 2 * s.Radius }

func (s *Set) hashDims() [3]int {
	span := s.Domain.High.Sub(s.Domain.Low)
	spacing := s.hashSpacing()
	dim := func(v float64) int {
		n := int(math.Ceil(v/spacing)) + 1
		if n < 1 {
			n = 1
		}
		return n
	}
	return [3]int{dim(span.X), dim(span.Y), dim(span.Z)}
}

func (h *Hash) cellCoord(p, origin vecmath.Vec3, spacing float64) (int, int, int) {
	rel := p.Sub(origin)
	return int(math.Floor(rel.X / spacing)), int(math.Floor(rel.Y / spacing)), int(math.Floor(rel.Z / spacing))
}

func (h *Hash) clampCoord(i, j, k int) (int, int, int) {
	clamp := func(v, max int) int {
		if v < 0 {
			return 0
		}
		if v >= max {
			return max - 1
		}
		return v
	}
	return clamp(i, h.Dims[0]), clamp(j, h.Dims[1]), clamp(k, h.Dims[2])
}

func (h *Hash) linear(i, j, k int) int {
	return i + h.Dims[0]*(j+h.Dims[1]*k)
}

func (h *Hash) numCells() int { return h.Dims[0] * h.Dims[1] * h.Dims[2] }

// Rehash rebuilds the hash from the current particle positions (spec.md
// §4.3 "rehash_intersections"): an atomic count phase, a serial prefix
// sum, then an atomic decrement-and-write scatter phase (spec.md §9).
func (s *Set) Rehash(ctx context.Context) error {
	n := len(s.Particles)
	s.Hash.Spacing = s.hashSpacing()
	s.Hash.Origin = s.Domain.Low
	s.Hash.Dims = s.hashDims()
	numCells := s.Hash.numCells()

	counts := make([]atomic.Int32, numCells)
	cellOf := make([]int32, n)

	err := grid.ParallelFor(ctx, n, func(idx int) {
		i, j, k := s.Hash.cellCoord(s.Particles[idx].Pos, s.Hash.Origin, s.Hash.Spacing)
		i, j, k = s.Hash.clampCoord(i, j, k)
		cell := int32(s.Hash.linear(i, j, k))
		cellOf[idx] = cell
		counts[cell].Add(1)
	})
	if err != nil {
		return err
	}

	start := make([]int32, numCells+1)
	for i := 0; i < numCells; i++ {
		start[i+1] = start[i] + counts[i].Load()
	}

	cursor := make([]atomic.Int32, numCells)
	for i := 0; i < numCells; i++ {
		cursor[i].Store(start[i+1])
	}

	ids := make([]int32, n)
	err = grid.ParallelFor(ctx, n, func(idx int) {
		cell := cellOf[idx]
		slot := cursor[cell].Add(-1)
		ids[slot] = int32(idx)
	})
	if err != nil {
		return err
	}

	s.Hash.CellStart = start
	s.Hash.ParticleIDs = ids
	return nil
}

// Neighbors calls visit(j) for every particle (including i itself) in the
// 27 hash cells surrounding particle i's cell.
func (s *Set) Neighbors(i int, visit func(j int)) {
	ci, cj, ck := s.Hash.cellCoord(s.Particles[i].Pos, s.Hash.Origin, s.Hash.Spacing)
	for dk := -1; dk <= 1; dk++ {
		for dj := -1; dj <= 1; dj++ {
			for di := -1; di <= 1; di++ {
				ni, nj, nk := ci+di, cj+dj, ck+dk
				if ni < 0 || ni >= s.Hash.Dims[0] || nj < 0 || nj >= s.Hash.Dims[1] || nk < 0 || nk >= s.Hash.Dims[2] {
					continue
				}
				cell := s.Hash.linear(ni, nj, nk)
				for slot := s.Hash.CellStart[cell]; slot < s.Hash.CellStart[cell+1]; slot++ {
					visit(int(s.Hash.ParticleIDs[slot]))
				}
			}
		}
	}
}
