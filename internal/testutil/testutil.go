// Package testutil provides synthetic tiles shared by the terrain package
// tests. Every fixture places points at cell centres of a grid whose origin
// is (0, 0), so the derived Geometry is exactly size x size cells.
package testutil

import (
	"math"

	"github.com/banshee-data/terrain.map/internal/terrain/l1points"
)

// Ground returns a single-return ground point.
func Ground(x, y, z float64) l1points.Point {
	return l1points.Point{X: x, Y: y, Z: z, Class: l1points.ClassGround, ReturnNumber: 1, NumberOfReturns: 1}
}

// Vegetation returns a high-vegetation return ret of n.
func Vegetation(x, y, z float64, ret, n uint8) l1points.Point {
	return l1points.Point{X: x, Y: y, Z: z, Class: l1points.ClassHighVegetation, ReturnNumber: ret, NumberOfReturns: n}
}

// SurfaceTile places one ground point at the centre of every cell of a
// size x size grid, with elevation given by fn(x, y).
func SurfaceTile(id string, size int, cellSize float64, fn func(x, y float64) float64) *l1points.Tile {
	tile := &l1points.Tile{ID: id}
	for j := 0; j < size; j++ {
		for i := 0; i < size; i++ {
			x := (float64(i) + 0.5) * cellSize
			y := (float64(j) + 0.5) * cellSize
			tile.Points = append(tile.Points, Ground(x, y, fn(x, y)))
		}
	}
	return tile
}

// FlatTile is a uniform-elevation tile with one ground return per cell.
func FlatTile(size int, cellSize, z float64) *l1points.Tile {
	return SurfaceTile("flat", size, cellSize, func(x, y float64) float64 { return z })
}

// ConeTile is a single conical hill centred on the middle cell. Elevation
// falls linearly from peak at the centre to 0 at half the tile width and
// stays 0 beyond. size should be odd so the peak lands on a node.
func ConeTile(size int, cellSize, peak float64) *l1points.Tile {
	c := float64(size) * cellSize / 2
	radius := float64(size/2) * cellSize
	return SurfaceTile("cone", size, cellSize, func(x, y float64) float64 {
		r := math.Hypot(x-c, y-c)
		return math.Max(0, peak*(1-r/radius))
	})
}

// PitTile is the inverse of ConeTile: a conical hollow of the given depth
// below a flat surface at 0.
func PitTile(size int, cellSize, depth float64) *l1points.Tile {
	cone := ConeTile(size, cellSize, depth)
	cone.ID = "pit"
	for k := range cone.Points {
		cone.Points[k].Z = -cone.Points[k].Z
	}
	return cone
}

// StepTile is flat at 0 west of column stepAt and flat at drop from there
// east, giving a single north-south rock face.
func StepTile(size int, cellSize float64, stepAt int, drop float64) *l1points.Tile {
	edge := float64(stepAt) * cellSize
	return SurfaceTile("step", size, cellSize, func(x, y float64) float64 {
		if x >= edge {
			return drop
		}
		return 0
	})
}
