package grid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fluidcore/vecmath"
)

func waterBlockGrid(t *testing.T) *Grid {
	t.Helper()
	g := New(vecmath.NewVec3(6, 6, 6), 1.0, false, false)
	for k := 1; k < g.Size[2]-1; k++ {
		for j := 1; j < g.Size[1]-1; j++ {
			for i := 1; i < g.Size[0]-1; i++ {
				g.At(i, j, k).Type = Water
			}
		}
	}
	g.RebuildFluidCellPositions()
	return g
}

func TestBridsonSolveDrivesDivergenceToZero(t *testing.T) {
	g := waterBlockGrid(t)
	// Inject a divergent source at one interior cell.
	g.At(2, 2, 2).Faces[0].V2 = 3.0

	const dt, density = 0.01, 1.0
	sys := g.BuildSystem(dt, density)
	p := make([]float64, sys.N)

	iterations, converged := SolvePressureBridson(sys, p, 1e-7, 0)
	require.True(t, converged, "expected convergence within %d iterations", iterations)

	g.ApplyPressure(p, dt, density)

	postDivergence := g.BuildSystem(dt, density).RHS
	var maxDiv float64
	for _, d := range postDivergence {
		if d < 0 {
			d = -d
		}
		if d > maxDiv {
			maxDiv = d
		}
	}
	require.Less(t, maxDiv, 1e-4)
}

func TestBasicSolverConvergesOnSameSystem(t *testing.T) {
	g := waterBlockGrid(t)
	g.At(2, 2, 2).Faces[0].V2 = 3.0

	const dt, density = 0.01, 1.0
	pressure := make([]float64, len(g.Cells))
	_, converged := g.SolvePressureBasic(context.Background(), pressure, dt, density, 1e-6, 1000)
	require.True(t, converged)
}

func TestPreconBuildsWithoutNaN(t *testing.T) {
	g := waterBlockGrid(t)
	sys := g.BuildSystem(0.01, 1.0)
	for _, v := range sys.Precond {
		require.False(t, v != v, "NaN preconditioner entry")
	}
}
