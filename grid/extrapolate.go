package grid

// Extrapolate propagates V2 on faces adjacent to a WATER cell into faces
// with no WATER cell on either side (AIR or SOLID), two sweeps deep, so advection sampling near the
// fluid surface and FLIP's PIC/FLIP blend never reads an untouched-zero
// face (spec.md §4.2 Extrapolate: "two passes are sufficient for the
// half-cell of slack the transfer kernel's support introduces").
const extrapolateDepth = 2

// faceKnown tracks, per axis, whether a face has a trustworthy velocity:
// true once scattered to by P2G or set by a previous extrapolation pass.
type faceKnown [3][]bool

func (g *Grid) newFaceKnown() faceKnown {
	n := len(g.Cells)
	var fk faceKnown
	for a := 0; a < 3; a++ {
		fk[a] = make([]bool, n)
	}
	return fk
}

func (g *Grid) Extrapolate() {
	known := g.newFaceKnown()
	nx, ny, nz := g.Size[0], g.Size[1], g.Size[2]

	// Seed: a face is known if either adjacent cell is WATER.
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				c := g.At(i, j, k)
				for a := 0; a < 3; a++ {
					if c.Type == Water || g.NeighborType(i, j, k, a, 1) == Water {
						known[a][g.Index(i, j, k)] = true
					}
				}
			}
		}
	}

	for pass := 0; pass < extrapolateDepth; pass++ {
		next := g.newFaceKnown()
		for a := 0; a < 3; a++ {
			copy(next[a], known[a])
		}
		for k := 0; k < nz; k++ {
			for j := 0; j < ny; j++ {
				for i := 0; i < nx; i++ {
					for a := 0; a < 3; a++ {
						idx := g.Index(i, j, k)
						if known[a][idx] {
							continue
						}
						sum, count := 0.0, 0
						for axis := 0; axis < 3; axis++ {
							for dir := -1; dir <= 1; dir += 2 {
								ni, nj, nk := neighborCoord(i, j, k, axis, dir)
								if !g.InBounds(ni, nj, nk) {
									continue
								}
								nidx := g.Index(ni, nj, nk)
								if known[a][nidx] {
									sum += g.Cells[nidx].Faces[a].V2
									count++
								}
							}
						}
						if count > 0 {
							g.Cells[idx].Faces[a].V2 = sum / float64(count)
							next[a][idx] = true
						}
					}
				}
			}
		}
		known = next
	}
}
