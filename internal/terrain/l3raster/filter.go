package l3raster

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/terrain.map/internal/terrain/l2surface"
)

// Number is the set of cell types the median filter accepts.
type Number interface {
	~uint8 | ~int | ~int32 | ~float32 | ~float64
}

// BoxMean replaces every cell by the mean of the size x size block around
// it, clipped at the grid edge. size <= 1 returns an unmodified copy.
func BoxMean(g *l2surface.Grid[float64], size, workers int) *l2surface.Grid[float64] {
	if size <= 1 {
		return g.Clone()
	}
	lo := (size - 1) / 2
	hi := size - 1 - lo
	out := l2surface.NewGrid[float64](g.Width, g.Height)
	l2surface.ForEachRow(g.Height, workers, func(j int) {
		window := make([]float64, 0, size*size)
		for i := 0; i < g.Width; i++ {
			window = window[:0]
			for y := max(0, j-lo); y <= min(g.Height-1, j+hi); y++ {
				for x := max(0, i-lo); x <= min(g.Width-1, i+hi); x++ {
					window = append(window, g.At(x, y))
				}
			}
			out.Set(i, j, floats.Sum(window)/float64(len(window)))
		}
	})
	return out
}

// Median replaces every cell by the median of the window of radius
// kernel/2 around it, clipped at the grid edge. Even-sized windows take the
// lower of the two middle values. kernel <= 1 returns an unmodified copy.
func Median[T Number](g *l2surface.Grid[T], kernel, workers int) *l2surface.Grid[T] {
	if kernel <= 1 {
		return g.Clone()
	}
	r := kernel / 2
	out := l2surface.NewGrid[T](g.Width, g.Height)
	l2surface.ForEachRow(g.Height, workers, func(j int) {
		window := make([]float64, 0, (2*r+1)*(2*r+1))
		for i := 0; i < g.Width; i++ {
			window = window[:0]
			for y := max(0, j-r); y <= min(g.Height-1, j+r); y++ {
				for x := max(0, i-r); x <= min(g.Width-1, i+r); x++ {
					window = append(window, float64(g.At(x, y)))
				}
			}
			sort.Float64s(window)
			out.Set(i, j, T(stat.Quantile(0.5, stat.Empirical, window, nil)))
		}
	})
	return out
}

// MedianBool is Median for flag rasters; a tied window resolves to false.
func MedianBool(g *l2surface.Grid[bool], kernel, workers int) *l2surface.Grid[bool] {
	if kernel <= 1 {
		return g.Clone()
	}
	bits := l2surface.NewGrid[uint8](g.Width, g.Height)
	for c, v := range g.Cells {
		if v {
			bits.Cells[c] = 1
		}
	}
	bits = Median(bits, kernel, workers)
	out := l2surface.NewGrid[bool](g.Width, g.Height)
	for c, v := range bits.Cells {
		out.Cells[c] = v == 1
	}
	return out
}

// Chain applies the median passes in order, skipping kernels <= 1.
func Chain[T Number](g *l2surface.Grid[T], workers int, kernels ...int) *l2surface.Grid[T] {
	out := g
	for _, k := range kernels {
		if k > 1 {
			out = Median(out, k, workers)
		}
	}
	if out == g {
		return g.Clone()
	}
	return out
}
