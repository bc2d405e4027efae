package grid

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fluidcore/vecmath"
)

func TestExtrapolatePropagatesFromWater(t *testing.T) {
	g := New(vecmath.NewVec3(6, 6, 6), 1.0, false, false)
	wi, wj, wk := 2, 2, 2
	g.At(wi, wj, wk).Type = Water
	g.At(wi, wj, wk).Faces[0].V2 = 7.0

	g.Extrapolate()

	// The neighboring AIR cell one step away along x should now carry a
	// value derived from the water cell's face.
	require.NotEqual(t, 0.0, g.At(wi+1, wj, wk).Faces[0].V2)
}
