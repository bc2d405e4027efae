package grid

import (
	"math"

	"fluidcore/vecmath"
)

// corner is one of the eight grid points in a trilinear stencil, together
// with its weight and the weight's gradient with respect to world
// position (spec.md §4.2: "the transfer kernel is the standard trilinear
// hat function; APIC additionally needs its gradient").
type corner struct {
	I, J, K int
	Weight  float64
	Grad    vecmath.Vec3
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// weight1 and gradAxis implement the 1-D hat function and its derivative
// for a stencil corner on the low (d=0) or high (d=1) side.
func weight1(d int, frac float64) float64 {
	if d == 1 {
		return frac
	}
	return 1 - frac
}

func gradAxis(d int, hInv float64) float64 {
	if d == 1 {
		return hInv
	}
	return -hInv
}

// cornersForAxis builds the 8-point trilinear stencil around world point p
// for axis's staggered grid: axis -1 samples the cell-center grid (used
// for cell-scalar fields like AvgPNum), axis 0/1/2 samples the
// corresponding face grid. Indices are clamped into range so particles
// outside the fluid interior still get a well-defined, if degenerate,
// stencil (spec.md §4.2 "weights degenerate cleanly at the boundary").
func (g *Grid) cornersForAxis(p vecmath.Vec3, axis int) [8]corner {
	var idx [3]float64
	for b := 0; b < 3; b++ {
		v := p.Axis(b) * g.SpacingInv[b]
		if b == axis {
			v -= 1
		} else {
			v -= 0.5
		}
		idx[b] = clampf(v, 0, float64(g.Size[b]-1))
	}

	var i0, i1 [3]int
	var frac [3]float64
	for b := 0; b < 3; b++ {
		i0[b] = int(math.Floor(idx[b]))
		frac[b] = idx[b] - float64(i0[b])
		i1[b] = i0[b] + 1
		if i1[b] > g.Size[b]-1 {
			i1[b] = g.Size[b] - 1
		}
	}

	pick := func(d, lo, hi int) int {
		if d == 1 {
			return hi
		}
		return lo
	}

	var out [8]corner
	n := 0
	for dz := 0; dz < 2; dz++ {
		wz := weight1(dz, frac[2])
		for dy := 0; dy < 2; dy++ {
			wy := weight1(dy, frac[1])
			for dx := 0; dx < 2; dx++ {
				wx := weight1(dx, frac[0])
				out[n] = corner{
					I: pick(dx, i0[0], i1[0]),
					J: pick(dy, i0[1], i1[1]),
					K: pick(dz, i0[2], i1[2]),
					Weight: wx * wy * wz,
					Grad: vecmath.NewVec3(
						gradAxis(dx, g.SpacingInv[0])*wy*wz,
						gradAxis(dy, g.SpacingInv[1])*wx*wz,
						gradAxis(dz, g.SpacingInv[2])*wx*wy,
					),
				}
				n++
			}
		}
	}
	return out
}

// FacesAround returns the trilinear stencil around p for the axis-th face
// grid (spec.md §4.2 faces_around).
func (g *Grid) FacesAround(p vecmath.Vec3, axis int) [8]corner {
	return g.cornersForAxis(p, axis)
}

// CellsAround returns the trilinear stencil around p for the cell-center
// grid (spec.md §4.2 cells_around), used by the optional average-pressure
// compressibility term.
func (g *Grid) CellsAround(p vecmath.Vec3) [8]corner {
	return g.cornersForAxis(p, -1)
}

// GatherFaceVelocity trilinearly interpolates the axis component of the
// post-projection velocity field V2 at world point p, returning both the
// value and its gradient (the latter feeds APIC's affine C matrix).
func (g *Grid) GatherFaceVelocity(p vecmath.Vec3, axis int) (value float64, grad vecmath.Vec3) {
	for _, c := range g.cornersForAxis(p, axis) {
		v2 := g.At(c.I, c.J, c.K).Faces[axis].V2
		value += c.Weight * v2
		grad = grad.Add(c.Grad.Scale(v2))
	}
	return value, grad
}

// ScatterFaceVelocity atomically accumulates a particle's contribution to
// the axis-th face grid's V and Weight accumulators (spec.md §4.2 P2G).
func (g *Grid) ScatterFaceVelocity(p vecmath.Vec3, axis int, particleVel float64) {
	for _, c := range g.cornersForAxis(p, axis) {
		if c.Weight == 0 {
			continue
		}
		face := &g.At(c.I, c.J, c.K).Faces[axis]
		face.V.Add(c.Weight * particleVel)
		face.Weight.Add(c.Weight)
	}
}

// ScatterAvgPNum atomically accumulates one particle's trilinear-weighted
// presence onto the cell-center AvgPNum field.
func (g *Grid) ScatterAvgPNum(p vecmath.Vec3) {
	for _, c := range g.CellsAround(p) {
		if c.Weight == 0 {
			continue
		}
		g.At(c.I, c.J, c.K).AvgPNum.Add(c.Weight)
	}
}

// p2gWeightThreshold is the minimum accumulated weight a face needs before
// its P2G accumulator is trusted (spec.md §4.4 S6: "for each cell face
// with weight > 1e-6, face.v <- face.v/weight; otherwise face.v <- 0").
const p2gWeightThreshold = 1e-6

// NormalizeFaceWeights divides each face's accumulated V by its
// accumulated Weight wherever Weight exceeds p2gWeightThreshold, the
// divide-by-weight pass that follows the parallel P2G scatter (spec.md
// §4.2, §9 memory-barrier note). Every other face has V set to zero, left
// to extrapolation.
func (g *Grid) NormalizeFaceWeights() {
	for idx := range g.Cells {
		c := &g.Cells[idx]
		for a := 0; a < 3; a++ {
			w := c.Faces[a].Weight.Load()
			if w > p2gWeightThreshold {
				c.Faces[a].V.Store(c.Faces[a].V.Load() / w)
			} else {
				c.Faces[a].V.Store(0)
			}
		}
	}
}
