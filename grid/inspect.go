package grid

import "fluidcore/vecmath"

// CellView is a read-only snapshot of one cell, returned by the
// out-of-process inspection API (SPEC_FULL.md §6). Ok is false when the
// requested coordinate fell outside the grid; in that case the rest of
// the struct is a dummy interior cell (AIR, zero velocity, zero center)
// rather than a zero-valued CellView, so callers that forget to check Ok
// get a harmless-looking cell instead of a panic-inducing one.
type CellView struct {
	Ok       bool
	Type     CellType
	Center   vecmath.Vec3
	Velocity vecmath.Vec3 // V2 of the cell's three +axis faces (Faces[0..2])
	AvgPNum  float64
}

var dummyInteriorCell = CellView{Ok: false, Type: Air}

// CellAtIndex returns a view of cell (i,j,k), or the dummy interior cell
// if out of range.
func (g *Grid) CellAtIndex(i, j, k int) CellView {
	if !g.InBounds(i, j, k) {
		return dummyInteriorCell
	}
	c := g.At(i, j, k)
	return CellView{
		Ok:     true,
		Type:   c.Type,
		Center: c.Center,
		Velocity: vecmath.NewVec3(
			c.Faces[0].V2, c.Faces[1].V2, c.Faces[2].V2,
		),
		AvgPNum: c.AvgPNum.Load(),
	}
}

// CellAt returns a view of the cell containing world position p, or the
// dummy interior cell if p falls outside the grid.
func (g *Grid) CellAt(p vecmath.Vec3) CellView {
	i, j, k, ok := g.cellIndexAt(p)
	if !ok {
		return dummyInteriorCell
	}
	return g.CellAtIndex(i, j, k)
}

func (g *Grid) cellIndexAt(p vecmath.Vec3) (i, j, k int, ok bool) {
	i = int(p.X * g.SpacingInv[0])
	j = int(p.Y * g.SpacingInv[1])
	k = int(p.Z * g.SpacingInv[2])
	if p.X < 0 {
		i--
	}
	if p.Y < 0 {
		j--
	}
	if p.Z < 0 {
		k--
	}
	return i, j, k, g.InBounds(i, j, k)
}
