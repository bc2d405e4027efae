package grid

import "math"

// PoissonSystem is the sparse symmetric positive semi-definite linear
// system A p = b for the pressure projection (spec.md §4.2 "Solve
// incompressibility"), compressed to one row per WATER cell in
// FluidCellPositions order. Off-diagonal coupling is stored once per edge,
// at the lower-indexed ("-axis") endpoint, as a positive magnitude; the
// actual matrix entry is its negation (spec.md's reference algorithm,
// mirrored from the original's bridsonSolverGrid.h, represents the
// Laplacian this way). Products of two off-diagonal entries in the
// modified-incomplete-Cholesky recurrence are unaffected by that sign;
// the recurrence's tau term subtracts them, and ApplyPreconditioner's two
// substitution sweeps add the stored magnitudes where the textbook form
// subtracts the (negative) matrix entries.
type PoissonSystem struct {
	N int

	Diag               []float64
	PlusX, PlusY, PlusZ []float64

	// Fluid-row id of each axis' neighbor, or -1 if that neighbor is not
	// WATER (air or solid).
	NegXID, NegYID, NegZID []int
	PosXID, PosYID, PosZID []int

	RHS     []float64
	Precond []float64
}

// BuildSystem assembles the pressure Poisson system from the grid's
// current face velocities and cell types (spec.md §4.2). dt and density
// are the physical coefficients scaling the discrete Laplacian so that
// ApplyPressure's correction exactly cancels the divergence it measures.
func (g *Grid) BuildSystem(dt, density float64) *PoissonSystem {
	n := len(g.FluidCellPositions)
	s := &PoissonSystem{
		N: n,
		Diag: make([]float64, n), PlusX: make([]float64, n), PlusY: make([]float64, n), PlusZ: make([]float64, n),
		NegXID: make([]int, n), NegYID: make([]int, n), NegZID: make([]int, n),
		PosXID: make([]int, n), PosYID: make([]int, n), PosZID: make([]int, n),
		RHS:     make([]float64, n),
		Precond: make([]float64, n),
	}
	coeff := [3]float64{
		dt / density * g.SpacingInv[0] * g.SpacingInv[0],
		dt / density * g.SpacingInv[1] * g.SpacingInv[1],
		dt / density * g.SpacingInv[2] * g.SpacingInv[2],
	}

	for row, coord := range g.FluidCellPositions {
		i, j, k := coord[0], coord[1], coord[2]
		s.NegXID[row], s.NegYID[row], s.NegZID[row] = -1, -1, -1
		s.PosXID[row], s.PosYID[row], s.PosZID[row] = -1, -1, -1

		for a := 0; a < 3; a++ {
			for dir := -1; dir <= 1; dir += 2 {
				nt := g.NeighborType(i, j, k, a, dir)
				if nt == Solid {
					continue
				}
				s.Diag[row] += coeff[a]
				if nt != Water {
					continue
				}
				ni, nj, nk := neighborCoord(i, j, k, a, dir)
				nid := g.At(ni, nj, nk).FluidID
				if dir == 1 {
					switch a {
					case 0:
						s.PlusX[row] = coeff[a]
						s.PosXID[row] = nid
					case 1:
						s.PlusY[row] = coeff[a]
						s.PosYID[row] = nid
					default:
						s.PlusZ[row] = coeff[a]
						s.PosZID[row] = nid
					}
				} else {
					switch a {
					case 0:
						s.NegXID[row] = nid
					case 1:
						s.NegYID[row] = nid
					default:
						s.NegZID[row] = nid
					}
				}
			}
		}

		c := g.At(i, j, k)
		div := (c.Faces[0].V2 - g.negFaceV2(i, j, k, 0)) * g.SpacingInv[0]
		div += (c.Faces[1].V2 - g.negFaceV2(i, j, k, 1)) * g.SpacingInv[1]
		div += (c.Faces[2].V2 - g.negFaceV2(i, j, k, 2)) * g.SpacingInv[2]
		s.RHS[row] = -div
	}

	s.buildPreconditioner()
	return s
}

// negFaceV2 returns the velocity on the -axis face of (i,j,k), which is
// the +axis face of its -axis neighbor, or 0 at the domain edge.
func (g *Grid) negFaceV2(i, j, k, axis int) float64 {
	ni, nj, nk := neighborCoord(i, j, k, axis, -1)
	if !g.InBounds(ni, nj, nk) {
		return 0
	}
	return g.Cells[g.Index(ni, nj, nk)].Faces[axis].V2
}

// miCholeskyTau and miCholeskySigma are Bridson's standard modified
// incomplete Cholesky tuning constants.
const (
	miCholeskyTau   = 0.97
	miCholeskySigma = 0.25
)

// buildPreconditioner computes the modified incomplete Cholesky (MIC(0))
// diagonal factor, processed in FluidCellPositions order (spec.md's
// reference solver and the original's bridsonSolverGrid.h; this is
// Bridson's textbook MICCG(0) recurrence, not a project-specific
// invention).
func (s *PoissonSystem) buildPreconditioner() {
	at := func(id int, arr []float64) float64 {
		if id < 0 {
			return 0
		}
		return arr[id]
	}
	for row := 0; row < s.N; row++ {
		if s.Diag[row] <= 0 {
			s.Precond[row] = 0
			continue
		}
		nx, ny, nz := s.NegXID[row], s.NegYID[row], s.NegZID[row]

		px, py, pz := at(nx, s.PlusX), at(ny, s.PlusY), at(nz, s.PlusZ)
		precX, precY, precZ := at(nx, s.Precond), at(ny, s.Precond), at(nz, s.Precond)

		e := s.Diag[row] - sq(px*precX) - sq(py*precY) - sq(pz*precZ)

		if nx >= 0 {
			e -= miCholeskyTau * px * (at(nx, s.PlusY) + at(nx, s.PlusZ)) * sq(precX)
		}
		if ny >= 0 {
			e -= miCholeskyTau * py * (at(ny, s.PlusX) + at(ny, s.PlusZ)) * sq(precY)
		}
		if nz >= 0 {
			e -= miCholeskyTau * pz * (at(nz, s.PlusX) + at(nz, s.PlusY)) * sq(precZ)
		}

		if e < miCholeskySigma*s.Diag[row] {
			e = s.Diag[row]
		}
		s.Precond[row] = 1 / sqrtPositive(e)
	}
}

// ApplyOperator computes out = A*p.
func (s *PoissonSystem) ApplyOperator(p, out []float64) {
	at := func(id int, arr []float64) float64 {
		if id < 0 {
			return 0
		}
		return arr[id]
	}
	for row := 0; row < s.N; row++ {
		v := s.Diag[row] * p[row]
		if s.PosXID[row] >= 0 {
			v -= s.PlusX[row] * p[s.PosXID[row]]
		}
		if s.PosYID[row] >= 0 {
			v -= s.PlusY[row] * p[s.PosYID[row]]
		}
		if s.PosZID[row] >= 0 {
			v -= s.PlusZ[row] * p[s.PosZID[row]]
		}
		if nx := s.NegXID[row]; nx >= 0 {
			v -= at(nx, s.PlusX) * p[nx]
		}
		if ny := s.NegYID[row]; ny >= 0 {
			v -= at(ny, s.PlusY) * p[ny]
		}
		if nz := s.NegZID[row]; nz >= 0 {
			v -= at(nz, s.PlusZ) * p[nz]
		}
		out[row] = v
	}
}

// ApplyPreconditioner solves M z = r for the MIC(0) preconditioner M =
// L*L^T via forward then back substitution (Bridson's textbook routine;
// FluidCellPositions order guarantees every -axis neighbor referenced in
// the forward sweep, and every +axis neighbor referenced in the backward
// sweep, has already been written).
func (s *PoissonSystem) ApplyPreconditioner(r, q, z []float64) {
	at := func(id int, arr []float64) float64 {
		if id < 0 {
			return 0
		}
		return arr[id]
	}
	for row := 0; row < s.N; row++ {
		t := r[row]
		if nx := s.NegXID[row]; nx >= 0 {
			t += at(nx, s.PlusX) * s.Precond[nx] * q[nx]
		}
		if ny := s.NegYID[row]; ny >= 0 {
			t += at(ny, s.PlusY) * s.Precond[ny] * q[ny]
		}
		if nz := s.NegZID[row]; nz >= 0 {
			t += at(nz, s.PlusZ) * s.Precond[nz] * q[nz]
		}
		q[row] = t * s.Precond[row]
	}
	for row := s.N - 1; row >= 0; row-- {
		t := q[row]
		if s.PosXID[row] >= 0 {
			t += s.PlusX[row] * s.Precond[row] * z[s.PosXID[row]]
		}
		if s.PosYID[row] >= 0 {
			t += s.PlusY[row] * s.Precond[row] * z[s.PosYID[row]]
		}
		if s.PosZID[row] >= 0 {
			t += s.PlusZ[row] * s.Precond[row] * z[s.PosZID[row]]
		}
		z[row] = t * s.Precond[row]
	}
}

func sq(v float64) float64 { return v * v }

// sqrtPositive guards against a non-positive factorization pivot, which
// the sigma fallback above should already prevent except in degenerate
// all-solid-neighbor configurations.
func sqrtPositive(v float64) float64 {
	if v <= 0 {
		return 1e-12
	}
	return math.Sqrt(v)
}
