package grid

import (
	"context"
	"math"
)

// basicOmega is the SOR over-relaxation factor for the "basic" red-black
// Gauss-Seidel solver (spec.md §4.2).
const basicOmega = 1.98

// SolvePressureBasic runs red-black SOR directly over the dense grid for
// maxIterations passes (or until the residual drops below tolerance) and
// writes the result into pressure, sized nx*ny*nz and indexed by
// Grid.Index. Unlike SolvePressureBridson it does not compact to fluid
// rows; non-WATER entries of pressure are left at zero.
//
// The two-color partition keys color on (i+j) parity only, not (i+j+k):
// within a single k-slab this is correctly checkerboard, but successive
// slabs reuse the same (i,j) pattern instead of alternating it, so the
// true 3-D coloring is not independent along z. This mirrors the
// original's basic solver (see DESIGN.md, Open Question decisions) and is
// left as-is rather than generalized to full (i+j+k) coloring.
func (g *Grid) SolvePressureBasic(ctx context.Context, pressure []float64, dt, density, tolerance float64, maxIterations int) (iterations int, converged bool) {
	coeff := [3]float64{
		dt / density * g.SpacingInv[0] * g.SpacingInv[0],
		dt / density * g.SpacingInv[1] * g.SpacingInv[1],
		dt / density * g.SpacingInv[2] * g.SpacingInv[2],
	}

	for i := range pressure {
		pressure[i] = 0
	}

	red, black := g.colorFluidCells()
	if len(red)+len(black) == 0 {
		return 0, true
	}

	for it := 1; it <= maxIterations; it++ {
		_ = ParallelFor(ctx, len(red), func(n int) {
			g.sorUpdate(pressure, red[n], coeff)
		})
		_ = ParallelFor(ctx, len(black), func(n int) {
			g.sorUpdate(pressure, black[n], coeff)
		})

		residual := g.residualNormSq(pressure, coeff)
		if residual < tolerance*tolerance {
			return it, true
		}
		if math.IsNaN(residual) {
			return it, false
		}
	}
	return maxIterations, false
}

func (g *Grid) colorFluidCells() (red, black [][3]int) {
	for _, coord := range g.FluidCellPositions {
		i, j := coord[0], coord[1]
		if (i+j)%2 == 0 {
			red = append(red, coord)
		} else {
			black = append(black, coord)
		}
	}
	return red, black
}

func (g *Grid) sorUpdate(pressure []float64, coord [3]int, coeff [3]float64) {
	i, j, k := coord[0], coord[1], coord[2]
	idx := g.Index(i, j, k)

	var diag, sum float64
	for a := 0; a < 3; a++ {
		for dir := -1; dir <= 1; dir += 2 {
			nt := g.NeighborType(i, j, k, a, dir)
			if nt == Solid {
				continue
			}
			diag += coeff[a]
			if nt == Water {
				ni, nj, nk := neighborCoord(i, j, k, a, dir)
				sum += coeff[a] * pressure[g.Index(ni, nj, nk)]
			}
		}
	}
	if diag == 0 {
		return
	}

	rhs := -g.divergenceAt(i, j, k)
	gaussSeidel := (sum + rhs) / diag
	pressure[idx] = (1-basicOmega)*pressure[idx] + basicOmega*gaussSeidel
}

func (g *Grid) divergenceAt(i, j, k int) float64 {
	c := g.At(i, j, k)
	div := (c.Faces[0].V2 - g.negFaceV2(i, j, k, 0)) * g.SpacingInv[0]
	div += (c.Faces[1].V2 - g.negFaceV2(i, j, k, 1)) * g.SpacingInv[1]
	div += (c.Faces[2].V2 - g.negFaceV2(i, j, k, 2)) * g.SpacingInv[2]
	return div
}

func (g *Grid) residualNormSq(pressure []float64, coeff [3]float64) float64 {
	var sumSq float64
	for _, coord := range g.FluidCellPositions {
		i, j, k := coord[0], coord[1], coord[2]
		var diag, sum float64
		for a := 0; a < 3; a++ {
			for dir := -1; dir <= 1; dir += 2 {
				nt := g.NeighborType(i, j, k, a, dir)
				if nt == Solid {
					continue
				}
				diag += coeff[a]
				if nt == Water {
					ni, nj, nk := neighborCoord(i, j, k, a, dir)
					sum += coeff[a] * pressure[g.Index(ni, nj, nk)]
				}
			}
		}
		residual := diag*pressure[g.Index(i, j, k)] - sum + g.divergenceAt(i, j, k)
		sumSq += residual * residual
	}
	return sumSq
}

// ApplyPressureBasic is SolvePressureBasic's counterpart to ApplyPressure,
// reading pressure straight from the dense grid-indexed array.
func (g *Grid) ApplyPressureBasic(pressure []float64, dt, density float64) {
	scale := dt / density
	hInv := g.SpacingInv

	for _, coord := range g.FluidCellPositions {
		i, j, k := coord[0], coord[1], coord[2]
		pi := pressure[g.Index(i, j, k)]
		for a := 0; a < 3; a++ {
			if nt := g.NeighborType(i, j, k, a, 1); nt != Solid {
				var pNeighbor float64
				if nt == Water {
					ni, nj, nk := neighborCoord(i, j, k, a, 1)
					pNeighbor = pressure[g.Index(ni, nj, nk)]
				}
				face := &g.At(i, j, k).Faces[a]
				face.V2 -= scale * hInv[a] * (pNeighbor - pi)
			}
			if nt := g.NeighborType(i, j, k, a, -1); nt == Air {
				ni, nj, nk := neighborCoord(i, j, k, a, -1)
				face := &g.At(ni, nj, nk).Faces[a]
				face.V2 -= scale * hInv[a] * pi
			}
		}
	}
}
