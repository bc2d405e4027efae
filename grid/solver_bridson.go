package grid

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// bridsonMaxIterations caps the PCG loop independent of the configured
// incompressibility iteration count: a configured count of zero, a
// negative count, or one above 200 is replaced by this ceiling.
const bridsonMaxIterations = 200

// SolvePressureBridson runs preconditioned conjugate gradient on s (built
// by Grid.BuildSystem) and writes the resulting pressure into p, which
// must be pre-sized to s.N. It returns the iteration count and whether the
// residual tolerance was met; it never returns an error; spec.md §7
// "the pressure solve has no failure mode visible to its caller, only a
// convergence flag" (SPEC_FULL.md §7) — a solve that fails to converge
// within bridsonMaxIterations still leaves p at its best estimate so far.
func SolvePressureBridson(s *PoissonSystem, p []float64, tolerance float64, maxIterations int) (iterations int, converged bool) {
	n := s.N
	if n == 0 {
		return 0, true
	}
	if maxIterations <= 0 || maxIterations > bridsonMaxIterations {
		maxIterations = bridsonMaxIterations
	}

	for i := range p {
		p[i] = 0
	}

	residualNormSq := floats.Dot(s.RHS, s.RHS)
	if residualNormSq < tolerance*tolerance {
		return 0, true
	}

	r := make([]float64, n)
	copy(r, s.RHS)

	z := make([]float64, n)
	q := make([]float64, n)
	sVec := make([]float64, n)
	temp := make([]float64, n)

	s.ApplyPreconditioner(r, q, z)
	copy(sVec, z)
	sigma := floats.Dot(z, r)

	for it := 1; it <= maxIterations; it++ {
		s.ApplyOperator(sVec, z)
		denom := floats.Dot(z, sVec)
		if denom == 0 || math.IsNaN(denom) {
			return it - 1, false
		}
		alpha := sigma / denom

		floats.AddScaled(p, alpha, sVec)
		floats.AddScaled(r, -alpha, z)

		rMax := floats.Norm(r, math.Inf(1))
		if rMax < tolerance {
			return it, true
		}
		if math.IsNaN(rMax) || math.IsInf(rMax, 1) {
			return it, false
		}

		s.ApplyPreconditioner(r, q, temp)
		sigmaNew := floats.Dot(temp, r)
		beta := sigmaNew / sigma
		if math.IsNaN(beta) {
			return it, false
		}

		for i := range sVec {
			sVec[i] = temp[i] + beta*sVec[i]
		}
		sigma = sigmaNew
	}
	return maxIterations, false
}

// ApplyPressure corrects face velocities by the pressure gradient so the
// projected field satisfies incompressibility to the solver's tolerance
// (spec.md §4.2). p is indexed by FluidCellPositions row id.
func (g *Grid) ApplyPressure(p []float64, dt, density float64) {
	scale := dt / density
	hInv := g.SpacingInv

	for row, coord := range g.FluidCellPositions {
		i, j, k := coord[0], coord[1], coord[2]
		pi := p[row]
		for a := 0; a < 3; a++ {
			// +axis face: stored on this cell, owned regardless of
			// neighbor type (WATER, AIR, or skipped if SOLID).
			if nt := g.NeighborType(i, j, k, a, 1); nt != Solid {
				var pNeighbor float64
				if nt == Water {
					ni, nj, nk := neighborCoord(i, j, k, a, 1)
					pNeighbor = p[g.At(ni, nj, nk).FluidID]
				}
				face := &g.At(i, j, k).Faces[a]
				face.V2 -= scale * hInv[a] * (pNeighbor - pi)
			}

			// -axis face: stored on the -axis neighbor's Faces[a]. If
			// that neighbor is itself WATER it owns and applies this
			// correction on its own iteration; if it is AIR it will
			// never appear in FluidCellPositions, so this cell must
			// apply the correction on its behalf.
			if nt := g.NeighborType(i, j, k, a, -1); nt == Air {
				ni, nj, nk := neighborCoord(i, j, k, a, -1)
				face := &g.At(ni, nj, nk).Faces[a]
				face.V2 -= scale * hInv[a] * (pi - 0)
			}
		}
	}
}
