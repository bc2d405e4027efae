package simulator

import (
	"fluidcore/config"
	"fluidcore/vecmath"
)

// p2g resets the grid then scatters every particle's velocity onto the
// face grids and avgPNum (spec.md §4.4 S6).
func (sim *Simulator) p2g() {
	g := sim.Grid
	g.Reset()

	transfer := sim.Config.SimulatorConfig.TransferType
	for _, p := range sim.Particles.Particles {
		for a := 0; a < 3; a++ {
			for _, c := range g.FacesAround(p.Pos, a) {
				if c.Weight == 0 {
					continue
				}
				cell := g.At(c.I, c.J, c.K)
				val := p.Vel.Axis(a)
				if transfer == config.TransferAPIC {
					val += p.C[a].Dot(cell.Faces[a].Centroid.Sub(p.Pos))
				}
				cell.Faces[a].V.Add(c.Weight * val)
				cell.Faces[a].Weight.Add(c.Weight)
			}
		}
		for _, c := range g.CellsAround(p.Pos) {
			if c.Weight == 0 {
				continue
			}
			g.At(c.I, c.J, c.K).AvgPNum.Add(c.Weight)
		}
	}
	g.NormalizeFaceWeights()
}

// g2p reads back the projected velocity field into each particle
// according to the configured transfer scheme (spec.md §4.4 S12).
func (sim *Simulator) g2p() {
	g := sim.Grid
	transfer := sim.Config.SimulatorConfig.TransferType
	flipRatio := sim.Config.SimulatorConfig.FlipRatio

	for i := range sim.Particles.Particles {
		p := &sim.Particles.Particles[i]
		for a := 0; a < 3; a++ {
			var picValue, flipDelta float64
			var gradient [3]float64
			for _, c := range g.FacesAround(p.Pos, a) {
				if c.Weight == 0 {
					continue
				}
				face := &g.At(c.I, c.J, c.K).Faces[a]
				picValue += c.Weight * face.V2
				flipDelta += c.Weight * (face.V2 - face.V.Load())
				gradient[0] += c.Grad.X * face.V2
				gradient[1] += c.Grad.Y * face.V2
				gradient[2] += c.Grad.Z * face.V2
			}

			switch transfer {
			case config.TransferPIC:
				p.Vel = p.Vel.WithAxis(a, picValue)
			case config.TransferFLIP:
				flip := p.Vel.Axis(a) + flipDelta
				p.Vel = p.Vel.WithAxis(a, picValue*(1-flipRatio)+flip*flipRatio)
			case config.TransferAPIC:
				p.Vel = p.Vel.WithAxis(a, picValue)
				p.C[a] = vecmath.NewVec3(gradient[0], gradient[1], gradient[2])
			}
		}
		if sim.Config.Simulation2D {
			p.Vel = p.Vel.WithAxis(2, 0)
		}
	}
}
