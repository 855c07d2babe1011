package l4cliffs

import (
	"math"

	"github.com/banshee-data/terrain.map/internal/terrain/l2surface"
)

// Slope holds the steepest downhill gradient of every cell and the
// direction, in radians from +x, towards the neighbour it falls to.
type Slope struct {
	Magnitude *l2surface.Grid[float64]
	Direction *l2surface.Grid[float64]
}

var neighbours = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// ComputeSlope estimates, for every node, the largest elevation drop per
// horizontal distance to any of its eight neighbours. Nodes with no lower
// neighbour have slope 0 and direction 0.
func ComputeSlope(hm *l2surface.HeightMap, workers int) *Slope {
	mag := l2surface.NewGrid[float64](hm.Width, hm.Height)
	dir := l2surface.NewGrid[float64](hm.Width, hm.Height)
	cs := hm.CellSize

	l2surface.ForEachRow(hm.Height, workers, func(j int) {
		for i := 0; i < hm.Width; i++ {
			z := hm.Node(i, j)
			best, bestDir := 0.0, 0.0
			for _, n := range neighbours {
				ni, nj := i+n[0], j+n[1]
				if !hm.Z.InBounds(ni, nj) {
					continue
				}
				dist := cs * math.Hypot(float64(n[0]), float64(n[1]))
				s := (z - hm.Node(ni, nj)) / dist
				if s > best {
					best = s
					bestDir = math.Atan2(float64(n[1]), float64(n[0]))
				}
			}
			mag.Set(i, j, best)
			dir.Set(i, j, bestDir)
		}
	})
	return &Slope{Magnitude: mag, Direction: dir}
}
