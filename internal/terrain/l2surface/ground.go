package l2surface

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/banshee-data/terrain.map/internal/terrain/l1points"
)

// ErrNoGround is returned when a tile has no ground or water point at all,
// leaving nothing to interpolate from.
var ErrNoGround = errors.New("tile has no ground points")

// IsGroundLike reports whether p contributes to the ground elevation model.
func IsGroundLike(p l1points.Point, waterClass l1points.Classification) bool {
	return p.Class == l1points.ClassGround || p.Class == waterClass
}

// BuildGround averages the elevation of ground and water points per cell and
// fills empty cells deterministically:
//
//  1. linear interpolation between the nearest populated cells along the
//     row and the column, averaged when both exist;
//  2. mean of the populated 3x3 neighbours;
//  3. nearest-value propagation down then up each column;
//  4. nearest-value propagation right then left each row.
//
// Passes 1 and 2 update in place in column-major order, so cells filled
// earlier feed later ones. A cell still empty after pass 4 is an invariant
// violation and panics.
func BuildGround(tile *l1points.Tile, geom Geometry, buckets *Buckets, waterClass l1points.Classification, workers int) (*HeightMap, error) {
	z := NewGrid[float64](geom.Width, geom.Height)
	var groundPoints int
	ForEachRow(geom.Height, workers, func(j int) {
		for i := 0; i < geom.Width; i++ {
			c := j*geom.Width + i
			var sum float64
			var n int
			for _, k := range buckets.Cell(c) {
				p := tile.Points[k]
				if IsGroundLike(p, waterClass) {
					sum += p.Z
					n++
				}
			}
			if n == 0 {
				z.Cells[c] = math.NaN()
			} else {
				z.Cells[c] = sum / float64(n)
			}
		}
	})
	for _, v := range z.Cells {
		if !math.IsNaN(v) {
			groundPoints++
		}
	}
	if groundPoints == 0 {
		return nil, fmt.Errorf("tile %s: %w", tile.ID, ErrNoGround)
	}

	filled := fillGround(z)
	if filled > 0 {
		log.Printf("[Surface] tile %s: interpolated %d of %d ground cells", tile.ID, filled, len(z.Cells))
	}
	return NewHeightMap(geom, z), nil
}

func fillGround(z *Grid[float64]) int {
	w, h := z.Width, z.Height
	nan := math.IsNaN
	var empty int
	for _, v := range z.Cells {
		if nan(v) {
			empty++
		}
	}
	if empty == 0 {
		return 0
	}

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			if !nan(z.At(x, y)) {
				continue
			}
			i1, i2, j1, j2 := x, x, y, y
			for i1 > 0 && nan(z.At(i1, y)) {
				i1--
			}
			for i2 < w-1 && nan(z.At(i2, y)) {
				i2++
			}
			for j1 > 0 && nan(z.At(x, j1)) {
				j1--
			}
			for j2 < h-1 && nan(z.At(x, j2)) {
				j2++
			}

			val1, val2 := math.NaN(), math.NaN()
			if !nan(z.At(i1, y)) && !nan(z.At(i2, y)) {
				val1 = (float64(i2-x)*z.At(i1, y) + float64(x-i1)*z.At(i2, y)) / float64(i2-i1)
			}
			if !nan(z.At(x, j1)) && !nan(z.At(x, j2)) {
				val2 = (float64(j2-y)*z.At(x, j1) + float64(y-j1)*z.At(x, j2)) / float64(j2-j1)
			}
			switch {
			case !nan(val1) && !nan(val2):
				z.Set(x, y, (val1+val2)/2)
			case !nan(val1):
				z.Set(x, y, val1)
			case !nan(val2):
				z.Set(x, y, val2)
			}
		}
	}

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			if !nan(z.At(x, y)) {
				continue
			}
			var sum float64
			var n int
			for i := x - 1; i <= x+1; i++ {
				for j := y - 1; j <= y+1; j++ {
					if z.InBounds(i, j) && !nan(z.At(i, j)) {
						sum += z.At(i, j)
						n++
					}
				}
			}
			if n > 0 {
				z.Set(x, y, sum/float64(n))
			}
		}
	}

	for x := 0; x < w; x++ {
		for y := 1; y < h; y++ {
			if nan(z.At(x, y)) {
				z.Set(x, y, z.At(x, y-1))
			}
		}
		for y := h - 2; y >= 0; y-- {
			if nan(z.At(x, y)) {
				z.Set(x, y, z.At(x, y+1))
			}
		}
	}

	for y := 0; y < h; y++ {
		for x := 1; x < w; x++ {
			if nan(z.At(x, y)) {
				z.Set(x, y, z.At(x-1, y))
			}
		}
		for x := w - 2; x >= 0; x-- {
			if nan(z.At(x, y)) {
				z.Set(x, y, z.At(x+1, y))
			}
		}
	}

	for c, v := range z.Cells {
		if nan(v) {
			panic(fmt.Sprintf("l2surface: ground cell (%d, %d) left unfilled after interpolation", c%w, c/w))
		}
	}
	return empty
}
