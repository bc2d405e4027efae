package grid

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fluidcore/vecmath"
)

func newTestGrid(t *testing.T) *Grid {
	t.Helper()
	return New(vecmath.NewVec3(4, 4, 4), 1.0, false, false)
}

func TestNewGridBorderSolid(t *testing.T) {
	g := newTestGrid(t)
	nx, ny, nz := g.Size[0], g.Size[1], g.Size[2]

	require.Equal(t, Solid, g.At(0, 1, 1).Type)
	require.Equal(t, Solid, g.At(nx-1, 1, 1).Type)
	require.Equal(t, Solid, g.At(1, 0, 1).Type)
	require.Equal(t, Solid, g.At(1, 1, 0).Type)
	require.Equal(t, Solid, g.At(1, 1, nz-1).Type)
	require.Equal(t, Air, g.At(1, ny-1, 1).Type, "top open by default")
}

func TestNewGridTopSolid(t *testing.T) {
	g := New(vecmath.NewVec3(4, 4, 4), 1.0, false, true)
	require.Equal(t, Solid, g.At(1, g.Size[1]-1, 1).Type)
}

func TestResetReturnsToAir(t *testing.T) {
	g := newTestGrid(t)
	c := g.At(1, 1, 1)
	c.Type = Water
	c.Faces[0].V.Store(3)

	g.Reset()
	require.Equal(t, Air, g.At(1, 1, 1).Type)
	require.Equal(t, 0.0, g.At(1, 1, 1).Faces[0].V.Load())
}

func TestMarkFluidCellsSkipsSolid(t *testing.T) {
	g := newTestGrid(t)
	positions := []vecmath.Vec3{
		g.At(1, 1, 1).Center,
		vecmath.NewVec3(0.05, 0.05, 0.05), // inside the solid border shell
	}
	g.MarkFluidCells(positions)

	require.Equal(t, Water, g.At(1, 1, 1).Type)
	require.Equal(t, Solid, g.At(0, 0, 0).Type, "border cell must not be demoted to WATER")
}

func TestRebuildFluidCellPositionsAssignsSequentialIDs(t *testing.T) {
	g := newTestGrid(t)
	g.At(1, 1, 1).Type = Water
	g.At(1, 1, 2).Type = Water

	g.RebuildFluidCellPositions()

	require.Len(t, g.FluidCellPositions, 2)
	require.Equal(t, 0, g.At(1, 1, 1).FluidID)
	require.Equal(t, 1, g.At(1, 1, 2).FluidID)
}

func TestCellAtIndexOutOfRangeReturnsDummy(t *testing.T) {
	g := newTestGrid(t)
	view := g.CellAtIndex(-1, 0, 0)
	require.False(t, view.Ok)
	require.Equal(t, Air, view.Type)
}

func TestCellAtFindsContainingCell(t *testing.T) {
	g := newTestGrid(t)
	view := g.CellAt(g.At(2, 2, 2).Center)
	require.True(t, view.Ok)
}

func TestCellAtOutsideWorldReturnsDummy(t *testing.T) {
	g := newTestGrid(t)
	view := g.CellAt(vecmath.NewVec3(-1, -1, -1))
	require.False(t, view.Ok)
}
