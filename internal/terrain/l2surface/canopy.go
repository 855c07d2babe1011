package l2surface

import (
	"math"

	"github.com/banshee-data/terrain.map/internal/terrain/l1points"
)

// HeightAboveGround returns p's elevation above the interpolated ground,
// less zoffset.
func HeightAboveGround(p l1points.Point, ground *HeightMap, zoffset float64) float64 {
	return p.Z - zoffset - ground.Sample(p.X, p.Y)
}

// BuildCanopy returns the "roof" grid: for every cell, the maximum
// height-above-ground of any point within radius cells (a square
// neighbourhood), never below zero.
func BuildCanopy(tile *l1points.Tile, ground *HeightMap, buckets *Buckets, radius int, zoffset float64, workers int) *Grid[float64] {
	w, h := ground.Width, ground.Height
	top := NewGrid[float64](w, h)
	ForEachRow(h, workers, func(j int) {
		for i := 0; i < w; i++ {
			c := j*w + i
			var m float64
			for _, k := range buckets.Cell(c) {
				m = math.Max(m, HeightAboveGround(tile.Points[k], ground, zoffset))
			}
			top.Cells[c] = m
		}
	})
	if radius <= 0 {
		return top
	}

	// Separable square maximum: along rows into tmp, then along columns.
	tmp := NewGrid[float64](w, h)
	ForEachRow(h, workers, func(j int) {
		for i := 0; i < w; i++ {
			m := 0.0
			for x := max(0, i-radius); x <= min(w-1, i+radius); x++ {
				m = math.Max(m, top.At(x, j))
			}
			tmp.Set(i, j, m)
		}
	})
	out := NewGrid[float64](w, h)
	ForEachRow(h, workers, func(j int) {
		for i := 0; i < w; i++ {
			m := 0.0
			for y := max(0, j-radius); y <= min(h-1, j+radius); y++ {
				m = math.Max(m, tmp.At(i, y))
			}
			out.Set(i, j, m)
		}
	})
	return out
}
