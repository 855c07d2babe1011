package l3raster

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/terrain.map/internal/terrain/l2surface"
)

func gridOf[T any](w int, vals ...T) *l2surface.Grid[T] {
	g := l2surface.NewGrid[T](w, len(vals)/w)
	copy(g.Cells, vals)
	return g
}

func TestBoxMean(t *testing.T) {
	g := gridOf(3,
		1.0, 2.0, 3.0,
		4.0, 5.0, 6.0,
		7.0, 8.0, 9.0,
	)
	out := BoxMean(g, 3, 2)
	assert.Equal(t, 5.0, out.At(1, 1))
	assert.Equal(t, (1.0+2+4+5)/4, out.At(0, 0))
	assert.Equal(t, (5.0+6+8+9)/4, out.At(2, 2))

	// Size 2 covers the cell and its east/north neighbours.
	out = BoxMean(g, 2, 1)
	assert.Equal(t, (1.0+2+4+5)/4, out.At(0, 0))
	assert.Equal(t, 9.0, out.At(2, 2))
}

func TestFiltersAreNoOpsAtSizeOne(t *testing.T) {
	g := gridOf(4,
		0.1, 9.0, 0.3, 7.5,
		2.0, 0.0, 4.4, 1.0,
	)
	for _, k := range []int{-1, 0, 1} {
		assert.Equal(t, g.Cells, BoxMean(g, k, 2).Cells)
		assert.Equal(t, g.Cells, Median(g, k, 2).Cells)
	}
	out := Median(g, 1, 2)
	out.Set(0, 0, 42)
	assert.Equal(t, 0.1, g.At(0, 0), "no-op must still return a copy")

	shades := gridOf[uint8](2, 3, 0, 7, 1)
	assert.Equal(t, shades.Cells, Chain(shades, 2, 1, 1).Cells)
}

func TestMedianRemovesSpeckle(t *testing.T) {
	g := gridOf[uint8](5,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 6, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
	)
	out := Median(g, 3, 2)
	for _, v := range out.Cells {
		assert.Equal(t, uint8(0), v)
	}
}

func TestMedianLowerMiddleTieBreak(t *testing.T) {
	// A 3x3 kernel at a corner sees a 2x2 window: {1, 2, 3, 4} -> 2.
	g := gridOf(2,
		4.0, 1.0,
		3.0, 2.0,
	)
	out := Median(g, 3, 1)
	for _, v := range out.Cells {
		assert.Equal(t, 2.0, v)
	}
}

func TestMedianIsDeterministicAcrossWorkers(t *testing.T) {
	g := l2surface.NewGrid[float64](17, 13)
	for c := range g.Cells {
		g.Cells[c] = float64((c * 7919) % 31)
	}
	want := Median(g, 5, 1)
	for _, workers := range []int{2, 4, 16} {
		assert.Equal(t, want.Cells, Median(g, 5, workers).Cells)
	}
}

func TestMedianBool(t *testing.T) {
	g := gridOf(3,
		true, true, false,
		true, false, false,
		false, false, false,
	)
	out := MedianBool(g, 3, 1)
	// Corner (0,0) sees {T,T,T,F}: lower middle of sorted {0,1,1,1} is 1.
	assert.True(t, out.At(0, 0))
	// Centre sees 3 of 9 set.
	assert.False(t, out.At(1, 1))
	// Edge (0,1) sees {T,T,T,F,F,F}: lower middle is 0.
	assert.False(t, out.At(0, 1))
}
