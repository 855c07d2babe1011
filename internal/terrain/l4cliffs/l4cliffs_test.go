package l4cliffs

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/terrain.map/internal/terrain/l1points"
	"github.com/banshee-data/terrain.map/internal/terrain/l2surface"
	"github.com/banshee-data/terrain.map/internal/testutil"
)

func groundOf(t *testing.T, tile *l1points.Tile, cellSize float64) *l2surface.HeightMap {
	t.Helper()
	geom := l2surface.NewGeometry(tile.Bounds(), cellSize)
	buckets := l2surface.BucketPoints(tile.Points, geom)
	hm, err := l2surface.BuildGround(tile, geom, buckets, l1points.ClassWater, 2)
	require.NoError(t, err)
	return hm
}

func defaultParams() Params {
	return Params{
		Cliff1:      1.0,
		Cliff2:      1.15,
		Thin:        1.0,
		SteepFactor: 0.5,
		FlatPlace:   6.6,
		MinLength:   6.0,
	}
}

func TestComputeSlopeFlat(t *testing.T) {
	hm := groundOf(t, testutil.FlatTile(10, 2, 100), 2)
	slope := ComputeSlope(hm, 2)
	for k, s := range slope.Magnitude.Cells {
		require.Equal(t, 0.0, s, "cell %d", k)
	}
}

func TestComputeSlopeStep(t *testing.T) {
	hm := groundOf(t, testutil.StepTile(20, 2, 10, 5), 2)
	slope := ComputeSlope(hm, 3)

	for j := 0; j < 20; j++ {
		for i := 0; i < 20; i++ {
			if i == 10 {
				assert.InDelta(t, 2.5, slope.Magnitude.At(i, j), 1e-12)
				assert.InDelta(t, math.Pi, slope.Direction.At(i, j), 1e-12)
				continue
			}
			assert.Equal(t, 0.0, slope.Magnitude.At(i, j), "cell %d,%d", i, j)
		}
	}
}

func TestClassifyCellsPrecedence(t *testing.T) {
	mag := l2surface.NewGrid[float64](5, 1)
	mag.Cells = []float64{0.5, 1.0, 1.1, 1.15, 3}
	mask := ClassifyCells(&Slope{Magnitude: mag}, 1.0, 1.15)
	assert.Equal(t, []Class{None, Erasable, Erasable, Impassable, Impassable}, mask.Cells)
}

func TestDetectFlatHasNoCliffs(t *testing.T) {
	res := Detect(groundOf(t, testutil.FlatTile(10, 2, 0), 2), defaultParams(), 2)
	assert.Empty(t, res.Type1)
	assert.Empty(t, res.Type2)
}

func TestDetectImpassableStep(t *testing.T) {
	res := Detect(groundOf(t, testutil.StepTile(20, 2, 10, 5), 2), defaultParams(), 2)

	assert.Empty(t, res.Type1)
	require.Len(t, res.Type2, 1)
	c := res.Type2[0]
	assert.Equal(t, Impassable, c.Type)
	assert.Equal(t, orb.LineString{{21, 39}, {21, 1}}, c.Points)
	assert.InDelta(t, 5.0, c.Height, 1e-12)
	assert.InDelta(t, 38.0, c.Length(), 1e-12)
	assert.Len(t, c.Cells, 20)
}

func TestDetectErasableStepSurvivesSuppression(t *testing.T) {
	res := Detect(groundOf(t, testutil.StepTile(20, 2, 10, 2.2), 2), defaultParams(), 2)

	assert.Empty(t, res.Type2)
	require.Len(t, res.Type1, 1)
	assert.Equal(t, Erasable, res.Type1[0].Type)
	assert.InDelta(t, 20*1.1*4, res.Type1[0].Area, 1e-9)
}

func TestDetectNeverClaimsACellTwice(t *testing.T) {
	// A face steep enough for cliff2 in the north half and cliff1 in the south.
	tile := testutil.SurfaceTile("mixed", 20, 2, func(x, y float64) float64 {
		if x < 20 {
			return 0
		}
		if y >= 20 {
			return 5
		}
		return 2.2
	})
	res := Detect(groundOf(t, tile, 2), defaultParams(), 2)
	require.NotEmpty(t, res.Type2)

	claimed := make(map[int]Class)
	for _, set := range [][]Cliff{res.Type1, res.Type2} {
		for _, c := range set {
			for _, idx := range c.Cells {
				prev, dup := claimed[idx]
				assert.False(t, dup, "cell %d claimed by %v and %v", idx, prev, c.Type)
				claimed[idx] = c.Type
				assert.Equal(t, c.Type, res.Mask.Cells[idx])
			}
		}
	}
}

func TestDetectClosedFacesFollowTheRim(t *testing.T) {
	tests := []struct {
		name string
		rise float64
	}{
		{"plateau", 10},
		{"pit", -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile := testutil.SurfaceTile(tt.name, 30, 2, func(x, y float64) float64 {
				if x >= 20 && x < 40 && y >= 20 && y < 40 {
					return tt.rise
				}
				return 0
			})
			hm := groundOf(t, tile, 2)
			res := Detect(hm, defaultParams(), 2)
			require.Greater(t, len(res.Type2), 1, "a closed face is several faces, not one chord")

			var steep []orb.Point
			for k, c := range res.Mask.Cells {
				if c == Impassable {
					x, y := hm.Geometry.Center(k%hm.Width, k/hm.Width)
					steep = append(steep, orb.Point{x, y})
				}
			}
			nearest := func(p orb.Point) float64 {
				best := math.Inf(1)
				for _, q := range steep {
					best = math.Min(best, math.Hypot(p[0]-q[0], p[1]-q[1]))
				}
				return best
			}

			claimed := 0
			for _, c := range res.Type2 {
				claimed += len(c.Cells)
				for _, p := range c.Points {
					assert.LessOrEqual(t, nearest(p), 2.0+1e-9, "vertex %v leaves the face", p)
				}
			}
			assert.Equal(t, len(steep), claimed)
		})
	}
}

func TestSectorOf(t *testing.T) {
	tests := []struct {
		x, y float64
		want int
	}{
		{1, 0, 0},
		{1, 1, 1},
		{0, 1, 2},
		{-1, 0, 4},
		{-1, -0.1, 4},
		{0, -1, 6},
		{1, -1, 7},
		{1, -0.3, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sectorOf(tt.x, tt.y), "(%g, %g)", tt.x, tt.y)
	}
}

func TestTraceSingleCellIsOneCellLong(t *testing.T) {
	geom := l2surface.Geometry{CellSize: 2, Width: 5, Height: 5}
	mask := l2surface.NewGrid[Class](5, 5)
	mask.Set(2, 2, Impassable)
	slope := &Slope{
		Magnitude: l2surface.NewGrid[float64](5, 5),
		Direction: l2surface.NewGrid[float64](5, 5),
	}
	slope.Magnitude.Set(2, 2, 2)

	cliffs := Trace(mask, slope, geom, Impassable)
	require.Len(t, cliffs, 1)
	assert.Equal(t, orb.LineString{{5, 4}, {5, 6}}, cliffs[0].Points)
	assert.InDelta(t, 8.0, cliffs[0].Area, 1e-12)
	assert.Empty(t, Trace(mask, slope, geom, Erasable))
}

func TestTraceComponentsInRowMajorOrder(t *testing.T) {
	geom := l2surface.Geometry{CellSize: 1, Width: 6, Height: 6}
	mask := l2surface.NewGrid[Class](6, 6)
	slope := &Slope{
		Magnitude: l2surface.NewGrid[float64](6, 6),
		Direction: l2surface.NewGrid[float64](6, 6),
	}
	// Diagonal neighbours join; the far column is its own component.
	for _, c := range [][2]int{{4, 0}, {5, 1}, {0, 3}, {0, 4}} {
		mask.Set(c[0], c[1], Erasable)
		slope.Magnitude.Set(c[0], c[1], 1)
	}

	cliffs := Trace(mask, slope, geom, Erasable)
	require.Len(t, cliffs, 2)
	assert.Equal(t, []int{4, 11}, cliffs[0].Cells)
	assert.Equal(t, []int{18, 24}, cliffs[1].Cells)
}

func TestSuppress(t *testing.T) {
	const w = 10
	build := func(surround float64) (*Slope, *l2surface.Grid[Class], []int) {
		mag := l2surface.NewGrid[float64](w, w)
		mag.Fill(surround)
		mask := l2surface.NewGrid[Class](w, w)
		var cells []int
		for j := 2; j < 8; j++ {
			idx := mask.Index(5, j)
			mask.Cells[idx] = Erasable
			mag.Cells[idx] = 1.1
			cells = append(cells, idx)
		}
		return &Slope{Magnitude: mag}, mask, cells
	}
	line := orb.LineString{{5.5, 2.5}, {5.5, 12.5}}

	tests := []struct {
		name     string
		surround float64
		cliff    Cliff
		kept     bool
	}{
		{"stands out", 0.2, Cliff{Type: Erasable, Points: line, Slope: 1.1, Area: 30}, true},
		{"steep surroundings", 0.8, Cliff{Type: Erasable, Points: line, Slope: 1.1, Area: 30}, false},
		{"small face", 0.2, Cliff{Type: Erasable, Points: line, Slope: 1.1, Area: 5}, false},
		{"short", 0.2, Cliff{Type: Erasable, Points: orb.LineString{{5.5, 2.5}, {5.5, 6.5}}, Slope: 1.1, Area: 30}, false},
		{"impassable untouched", 0.8, Cliff{Type: Impassable, Points: orb.LineString{{0, 0}, {0, 1}}, Slope: 1.1, Area: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slope, mask, cells := build(tt.surround)
			tt.cliff.Cells = cells
			got := Suppress([]Cliff{tt.cliff}, slope, mask, defaultParams())
			if tt.kept {
				assert.Len(t, got, 1)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestSettleErasableFoldsBeforeJudgingArea(t *testing.T) {
	const w = 10
	mag := l2surface.NewGrid[float64](w, w)
	mag.Fill(0.2)
	mask := l2surface.NewGrid[Class](w, w)
	var cells []int
	for j := 2; j < 8; j++ {
		idx := mask.Index(5, j)
		mask.Cells[idx] = Erasable
		mag.Cells[idx] = 1.1
		cells = append(cells, idx)
	}
	slope := &Slope{Magnitude: mag}

	// Each half is below FlatPlace on its own; folded they clear it.
	long := Cliff{Type: Erasable, Points: orb.LineString{{5.5, 2.5}, {5.5, 12.5}}, Cells: cells[:3], Slope: 1.1, Area: 4}
	dup := Cliff{Type: Erasable, Points: orb.LineString{{6, 3}, {6, 10}}, Cells: cells[3:], Slope: 1.1, Area: 4}

	got := settleErasable([]Cliff{long, dup}, slope, mask, defaultParams(), 2)
	require.Len(t, got, 1)
	assert.InDelta(t, 8.0, got[0].Area, 1e-12)
	assert.Equal(t, cells, got[0].Cells)

	assert.Empty(t, Suppress([]Cliff{long, dup}, slope, mask, defaultParams()))
}

func TestSurroundingSlopeIgnoresCliffCells(t *testing.T) {
	mag := l2surface.NewGrid[float64](5, 5)
	mag.Fill(0.3)
	mag.Set(2, 2, 9)
	mask := l2surface.NewGrid[Class](5, 5)
	mask.Set(2, 2, Impassable)
	c := &Cliff{Cells: []int{mask.Index(2, 2)}}
	assert.InDelta(t, 0.3, SurroundingSlope(c, &Slope{Magnitude: mag}, mask), 1e-12)
}

func TestThinMergesParallelDuplicates(t *testing.T) {
	var long orb.LineString
	for y := 0.0; y <= 10; y++ {
		long = append(long, orb.Point{0, y})
	}
	a := Cliff{Type: Impassable, Points: long, Cells: []int{1, 2}, Slope: 2, Height: 4, Area: 10}
	b := Cliff{Type: Impassable, Points: orb.LineString{{0.5, 1}, {0.5, 4}, {0.5, 8}}, Cells: []int{3}, Slope: 5, Height: 6, Area: 2}
	c := Cliff{Type: Erasable, Points: orb.LineString{{0.5, 1}, {0.5, 8}}, Cells: []int{4}, Slope: 1, Area: 3}
	far := Cliff{Type: Impassable, Points: orb.LineString{{20, 0}, {20, 10}}, Cells: []int{5}, Slope: 2, Area: 1}

	got := Thin([]Cliff{b, a, c, far}, 2)
	require.Len(t, got, 3)

	assert.Equal(t, orb.LineString{{0, 0}, {0, 10}}, got[0].Points)
	assert.Equal(t, []int{1, 2, 3}, got[0].Cells)
	assert.InDelta(t, 3.0, got[0].Slope, 1e-12)
	assert.Equal(t, 6.0, got[0].Height)
	assert.Equal(t, 12.0, got[0].Area)
	assert.Equal(t, Erasable, got[1].Type)
	assert.Equal(t, 20.0, got[2].Points[0][0])

	assert.Len(t, long, 11, "input must not be modified")
}
