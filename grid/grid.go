// Package grid implements the staggered MAC velocity grid: storage,
// spatial queries, obstacle voxelization, pressure projection and velocity
// extrapolation (spec.md §4.2).
package grid

import (
	"math"

	"fluidcore/vecmath"
)

// Grid is the 3-D (or three-slab 2-D) staggered MAC grid.
type Grid struct {
	Size       [3]int // nx, ny, nz
	Spacing    [3]float64
	SpacingInv [3]float64

	Cells []Cell // dense, row-major: index = i + nx*(j + ny*k)

	// FluidCellPositions is the ordered list of WATER cell grid indices,
	// rebuilt each tick after P2G; position in the slice is the cell's
	// Poisson-row id (spec.md §3).
	FluidCellPositions [][3]int

	simulation2D          bool
	isTopOfContainerSolid bool
	lastDt                float64
}

// New constructs a grid for world dimension worldSize and resolution
// cellsPerUnit (spec.md §4.2 Construction). In 2-D mode the z axis is a
// fixed three-cell-thick slab with hz = worldSize.Z/3 regardless of
// cellsPerUnit.
func New(worldSize vecmath.Vec3, cellsPerUnit float64, simulation2D, topSolid bool) *Grid {
	h := 1.0 / cellsPerUnit

	nx := int(math.Floor(worldSize.X / h))
	ny := int(math.Floor(worldSize.Y / h))
	var nz int
	hz := h
	if simulation2D {
		nz = 3
		hz = worldSize.Z / 3
	} else {
		nz = int(math.Floor(worldSize.Z / h))
	}
	if nx < 3 {
		nx = 3
	}
	if ny < 3 {
		ny = 3
	}
	if nz < 3 {
		nz = 3
	}

	g := &Grid{
		Size:                  [3]int{nx, ny, nz},
		Spacing:               [3]float64{h, h, hz},
		SpacingInv:            [3]float64{1 / h, 1 / h, 1 / hz},
		Cells:                 make([]Cell, nx*ny*nz),
		simulation2D:          simulation2D,
		isTopOfContainerSolid: topSolid,
	}
	g.initCells()
	g.ApplyBorderSolid()
	return g
}

func (g *Grid) initCells() {
	nx, ny, nz := g.Size[0], g.Size[1], g.Size[2]
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				c := &g.Cells[g.Index(i, j, k)]
				c.Type = Air
				c.FluidID = -1
				c.Center = g.cellCenter(i, j, k)
				for a := 0; a < 3; a++ {
					c.Faces[a].Centroid = g.faceCentroid(i, j, k, a)
				}
			}
		}
	}
}

// Index maps a cell coordinate to its offset in Cells. Out-of-range
// coordinates are the caller's responsibility; use InBounds first.
func (g *Grid) Index(i, j, k int) int {
	return i + g.Size[0]*(j+g.Size[1]*k)
}

// InBounds reports whether (i,j,k) addresses an existing cell.
func (g *Grid) InBounds(i, j, k int) bool {
	return i >= 0 && i < g.Size[0] && j >= 0 && j < g.Size[1] && k >= 0 && k < g.Size[2]
}

func (g *Grid) cellCenter(i, j, k int) vecmath.Vec3 {
	return vecmath.NewVec3(
		(float64(i)+0.5)*g.Spacing[0],
		(float64(j)+0.5)*g.Spacing[1],
		(float64(k)+0.5)*g.Spacing[2],
	)
}

// faceCentroid returns the world position of cell (i,j,k)'s axis-a face,
// the interface shared with its +axis neighbor.
func (g *Grid) faceCentroid(i, j, k, a int) vecmath.Vec3 {
	c := g.cellCenter(i, j, k)
	return c.WithAxis(a, (float64(idxOf(i, j, k, a))+1)*g.Spacing[a])
}

func idxOf(i, j, k, axis int) int {
	switch axis {
	case 0:
		return i
	case 1:
		return j
	default:
		return k
	}
}

// neighborCoord returns the coordinate of the neighbor of (i,j,k) along
// axis in direction dir (+1 or -1).
func neighborCoord(i, j, k, axis, dir int) (int, int, int) {
	switch axis {
	case 0:
		return i + dir, j, k
	case 1:
		return i, j + dir, k
	default:
		return i, j, k + dir
	}
}

// NeighborType returns the type of the neighbor of (i,j,k) along axis in
// direction dir, treating out-of-grid neighbors as SOLID (the domain wall).
func (g *Grid) NeighborType(i, j, k, axis, dir int) CellType {
	ni, nj, nk := neighborCoord(i, j, k, axis, dir)
	if !g.InBounds(ni, nj, nk) {
		return Solid
	}
	return g.Cells[g.Index(ni, nj, nk)].Type
}

// At returns a pointer to the cell at (i,j,k). Caller must check InBounds.
func (g *Grid) At(i, j, k int) *Cell {
	return &g.Cells[g.Index(i, j, k)]
}

// Reset zeros all face V, V2, Weight, AvgPNum and sets every cell AIR
// (spec.md §4.2 Reset). Border restoration must be reapplied by the
// caller before and after the P2G/projection pipeline.
func (g *Grid) Reset() {
	for idx := range g.Cells {
		c := &g.Cells[idx]
		c.Type = Air
		c.FluidID = -1
		c.AvgPNum.Store(0)
		for a := 0; a < 3; a++ {
			c.Faces[a].V.Store(0)
			c.Faces[a].Weight.Store(0)
			c.Faces[a].V2 = 0
		}
	}
}

// ApplyBorderSolid enforces the outer-shell-SOLID invariant (spec.md §3):
// x=0, x=nx-1, y=0, z=0, z=nz-1 are always SOLID; y=ny-1 is SOLID only when
// isTopOfContainerSolid is set. Face velocities adjacent to a WATER
// neighbor are zeroed on the solid side.
func (g *Grid) ApplyBorderSolid() {
	nx, ny, nz := g.Size[0], g.Size[1], g.Size[2]
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				isBorder := i == 0 || i == nx-1 || j == 0 || k == 0 || k == nz-1
				if g.isTopOfContainerSolid && j == ny-1 {
					isBorder = true
				}
				if !isBorder {
					continue
				}
				c := g.At(i, j, k)
				c.Type = Solid
				c.FluidID = -1
				g.zeroFacesTouching(i, j, k)
			}
		}
	}
}

// zeroFacesTouching zeros the face velocities of (i,j,k) and of its
// neighbors' shared faces, wherever the other side is WATER (spec.md §3:
// "their corresponding face velocities adjacent to WATER are zeroed").
func (g *Grid) zeroFacesTouching(i, j, k int) {
	c := g.At(i, j, k)
	for a := 0; a < 3; a++ {
		c.Faces[a].V2 = 0
		c.Faces[a].V.Store(0)

		ni, nj, nk := neighborCoord(i, j, k, a, -1)
		if g.InBounds(ni, nj, nk) {
			n := g.At(ni, nj, nk)
			if n.Type == Water {
				n.Faces[a].V2 = 0
				n.Faces[a].V.Store(0)
			}
		}
	}
}

// RebuildFluidCellPositions recomputes FluidCellPositions in scan order and
// assigns each WATER cell its row id (spec.md §4.2 "Post-P2G update").
func (g *Grid) RebuildFluidCellPositions() {
	g.FluidCellPositions = g.FluidCellPositions[:0]
	nx, ny, nz := g.Size[0], g.Size[1], g.Size[2]
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				c := g.At(i, j, k)
				if c.Type != Water {
					c.FluidID = -1
					continue
				}
				c.FluidID = len(g.FluidCellPositions)
				g.FluidCellPositions = append(g.FluidCellPositions, [3]int{i, j, k})
			}
		}
	}
}

// PostP2GUpdate applies the post-P2G update (spec.md §4.2): v2 <- v, then
// gravity is added on interior y-faces between two non-SOLID cells, then
// the fluid-cell index is rebuilt.
func (g *Grid) PostP2GUpdate(gravity float64, gravityEnabled bool) {
	nx, ny, nz := g.Size[0], g.Size[1], g.Size[2]
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				c := g.At(i, j, k)
				for a := 0; a < 3; a++ {
					c.Faces[a].V2 = c.Faces[a].V.Load()
				}
				if !gravityEnabled || c.Type == Solid {
					continue
				}
				if g.NeighborType(i, j, k, 1, 1) == Solid {
					continue
				}
				c.Faces[1].V2 += gravity * g.lastDt
			}
		}
	}
	g.RebuildFluidCellPositions()
}

// MarkFluidCells sets every non-SOLID cell containing a particle to WATER
// (spec.md §4.2 "Mark fluid cells"). Must run after Reset/ApplyBorderSolid
// so border cells are not overwritten; VoxelizeObstacles, which runs after
// it, turns any WATER cell inside an obstacle into SOLID.
func (g *Grid) MarkFluidCells(positions []vecmath.Vec3) {
	for _, p := range positions {
		i, j, k, ok := g.cellIndexAt(p)
		if !ok {
			continue
		}
		c := g.At(i, j, k)
		if c.Type != Solid {
			c.Type = Water
		}
	}
}

// lastDt is stashed by PostP2GUpdate's caller (the simulator) via SetDt so
// PostP2GUpdate's signature stays in terms of the physical gravity
// constant; see SetDt.
func (g *Grid) SetDt(dt float64) { g.lastDt = dt }

// dt is part of Grid's mutable per-tick state, not its construction
// parameters, so it is a plain field rather than a constructor argument.
