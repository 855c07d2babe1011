package l4cliffs

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/terrain.map/internal/terrain/l2surface"
)

// surroundRadius is how far, in cells, Suppress looks for the terrain
// around a face.
const surroundRadius = 2

// SurroundingSlope is the mean slope of the non-cliff cells within
// surroundRadius of any cell of c, or 0 when there are none.
func SurroundingSlope(c *Cliff, slope *Slope, mask *l2surface.Grid[Class]) float64 {
	w := mask.Width
	visited := make(map[int]bool)
	var values []float64
	for _, idx := range c.Cells {
		i, j := idx%w, idx/w
		for dj := -surroundRadius; dj <= surroundRadius; dj++ {
			for di := -surroundRadius; di <= surroundRadius; di++ {
				ni, nj := i+di, j+dj
				if !mask.InBounds(ni, nj) {
					continue
				}
				n := mask.Index(ni, nj)
				if visited[n] || mask.Cells[n] != None {
					continue
				}
				visited[n] = true
				values = append(values, slope.Magnitude.Cells[n])
			}
		}
	}
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Suppress drops erasable cliffs that do not stand out from their
// surroundings (surrounding slope over face slope above SteepFactor), whose
// face area is below FlatPlace, or that are shorter than MinLength.
// Impassable cliffs pass through untouched.
func Suppress(cliffs []Cliff, slope *Slope, mask *l2surface.Grid[Class], p Params) []Cliff {
	out := cliffs[:0:0]
	for k := range cliffs {
		c := &cliffs[k]
		if c.Type != Erasable {
			out = append(out, *c)
			continue
		}
		if c.Slope > 0 && SurroundingSlope(c, slope, mask)/c.Slope > p.SteepFactor {
			continue
		}
		if c.Area < p.FlatPlace || c.Length() < p.MinLength {
			continue
		}
		out = append(out, *c)
	}
	return out
}
