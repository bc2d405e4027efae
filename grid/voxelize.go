package grid

import (
	"math"

	"fluidcore/obstacle"
	"fluidcore/vecmath"
)

// VoxelizeObstacles marks every cell whose center lies inside a
// solid obstacle as SOLID (spec.md §4.2 Voxelize). Sphere-sink obstacles
// absorb particles rather than block flow and are excluded, matching
// spec.md §4.1's description of the sink as non-blocking.
func (g *Grid) VoxelizeObstacles(obstacles []*obstacle.Obstacle) {
	for _, o := range obstacles {
		if o.Kind == obstacle.KindSphereSink {
			continue
		}
		g.voxelizeOne(o)
	}
}

func (g *Grid) voxelizeOne(o *obstacle.Obstacle) {
	lo, hi := g.obstacleBounds(o)
	for k := lo[2]; k <= hi[2]; k++ {
		for j := lo[1]; j <= hi[1]; j++ {
			for i := lo[0]; i <= hi[0]; i++ {
				if !g.InBounds(i, j, k) {
					continue
				}
				c := g.At(i, j, k)
				if c.Type == Solid {
					continue // already a border/other-obstacle cell
				}
				if !containsPoint(o, c.Center) {
					continue
				}
				c.Type = Solid
				c.FluidID = -1
				g.setObstacleFaceVelocities(i, j, k, o.Speed)
			}
		}
	}
}

// obstacleBounds returns the inclusive grid-index range an obstacle's
// world-space bounding box overlaps, clamped defensively; callers still
// check InBounds per cell since clamping alone does not guarantee a
// nonempty intersection with the grid.
func (g *Grid) obstacleBounds(o *obstacle.Obstacle) (lo, hi [3]int) {
	var boxLo, boxHi vecmath.Vec3
	switch o.Kind {
	case obstacle.KindRectangle:
		half := o.Size.Scale(0.5)
		boxLo, boxHi = o.Pos.Sub(half), o.Pos.Add(half)
	default: // sphere, sphere-source
		r := vecmath.NewVec3(o.Radius, o.Radius, o.Radius)
		boxLo, boxHi = o.Pos.Sub(r), o.Pos.Add(r)
	}
	for b := 0; b < 3; b++ {
		lo[b] = int(math.Floor(boxLo.Axis(b)*g.SpacingInv[b])) - 1
		hi[b] = int(math.Ceil(boxHi.Axis(b)*g.SpacingInv[b])) + 1
	}
	return lo, hi
}

// setObstacleFaceVelocities zeros (i,j,k)'s own faces and, on any face
// shared with a WATER neighbor (on either side along an axis), sets that
// face's velocity to the corresponding component of the obstacle's world
// velocity (spec.md §4.2 Voxelize: "faces shared with a WATER neighbor
// ... the corresponding component of the obstacle's world velocity" —
// this is what lets a moving sphere impart velocity into the fluid it
// displaces, property P9).
func (g *Grid) setObstacleFaceVelocities(i, j, k int, vel vecmath.Vec3) {
	c := g.At(i, j, k)
	for a := 0; a < 3; a++ {
		c.Faces[a].V2 = 0
		c.Faces[a].V.Store(0)
		if g.NeighborType(i, j, k, a, 1) == Water {
			c.Faces[a].V2 = vel.Axis(a)
			c.Faces[a].V.Store(vel.Axis(a))
		}

		ni, nj, nk := neighborCoord(i, j, k, a, -1)
		if !g.InBounds(ni, nj, nk) {
			continue
		}
		n := g.At(ni, nj, nk)
		if n.Type == Water {
			v := vel.Axis(a)
			n.Faces[a].V2 = v
			n.Faces[a].V.Store(v)
		}
	}
}

func containsPoint(o *obstacle.Obstacle, p vecmath.Vec3) bool {
	switch o.Kind {
	case obstacle.KindRectangle:
		d := vecmath.Abs(p.Sub(o.Pos))
		half := o.Size.Scale(0.5)
		return d.X <= half.X && d.Y <= half.Y && d.Z <= half.Z
	default: // sphere, sphere-source
		return p.Sub(o.Pos).Length() <= o.Radius
	}
}
