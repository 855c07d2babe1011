package l2surface

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/terrain.map/internal/terrain/l1points"
	"github.com/banshee-data/terrain.map/internal/testutil"
)

func TestNewGeometry(t *testing.T) {
	geom := NewGeometry(l1points.Bounds{MinX: 1, MinY: 3, MaxX: 19, MaxY: 21}, 2)
	assert.Equal(t, Geometry{MinX: 0, MinY: 2, CellSize: 2, Width: 10, Height: 10}, geom)

	i, j := geom.CellOf(19, 21)
	assert.Equal(t, 9, i)
	assert.Equal(t, 9, j)
	i, j = geom.CellOf(-50, 100)
	assert.Equal(t, 0, i)
	assert.Equal(t, 9, j)

	x, y := geom.Center(0, 0)
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 3.0, y)
}

func TestForEachRowVisitsEveryRowOnce(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		seen := make([]int, 37)
		ForEachRow(len(seen), workers, func(y int) { seen[y]++ })
		for y, n := range seen {
			assert.Equal(t, 1, n, "workers=%d row=%d", workers, y)
		}
	}
}

func TestBucketPointsKeepsInputOrder(t *testing.T) {
	geom := Geometry{CellSize: 1, Width: 2, Height: 2}
	pts := []l1points.Point{{X: 1.5, Y: 0.5}, {X: 0.5, Y: 0.5}, {X: 1.2, Y: 0.1}, {X: 0.5, Y: 1.5}}
	b := BucketPoints(pts, geom)

	assert.Equal(t, []int32{1}, b.Cell(0))
	assert.Equal(t, []int32{0, 2}, b.Cell(1))
	assert.Equal(t, []int32{3}, b.Cell(2))
	assert.Equal(t, 0, b.Len(3))
}

func buildGround(t *testing.T, tile *l1points.Tile, cellSize float64) *HeightMap {
	t.Helper()
	geom := NewGeometry(tile.Bounds(), cellSize)
	hm, err := BuildGround(tile, geom, BucketPoints(tile.Points, geom), l1points.ClassWater, 2)
	require.NoError(t, err)
	return hm
}

func TestBuildGroundAveragesGroundAndWater(t *testing.T) {
	tile := &l1points.Tile{ID: "avg", Points: []l1points.Point{
		testutil.Ground(0.5, 0.5, 10),
		testutil.Ground(0.6, 0.6, 12),
		{X: 1.5, Y: 0.5, Z: 5, Class: l1points.ClassWater},
		testutil.Vegetation(1.5, 0.5, 30, 1, 2),
	}}
	hm := buildGround(t, tile, 1)
	assert.Equal(t, 11.0, hm.Node(0, 0))
	assert.Equal(t, 5.0, hm.Node(1, 0))
}

func TestBuildGroundFillsHoles(t *testing.T) {
	// Ground only on the outer ring of a 5x5 grid plus a vegetation point
	// that forces the far corner into the extent.
	tile := &l1points.Tile{ID: "holes"}
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			if i == 0 || j == 0 || i == 4 || j == 4 {
				tile.Points = append(tile.Points, testutil.Ground(float64(i)+0.5, float64(j)+0.5, float64(i)))
			}
		}
	}
	hm := buildGround(t, tile, 1)
	for _, v := range hm.Z.Cells {
		assert.False(t, math.IsNaN(v))
	}
	// Row interpolation between x=0 (0) and x=4 (4) is exact for a plane in x.
	assert.InDelta(t, 2.0, hm.Node(2, 2), 1e-9)
}

func TestBuildGroundSparseCornerPropagates(t *testing.T) {
	tile := &l1points.Tile{ID: "corner", Points: []l1points.Point{
		testutil.Ground(7.5, 7.5, 42),
		testutil.Vegetation(0.5, 0.5, 60, 1, 1),
	}}
	hm := buildGround(t, tile, 1)
	require.Equal(t, 8, hm.Width)
	for _, v := range hm.Z.Cells {
		assert.Equal(t, 42.0, v)
	}
}

func TestBuildGroundNoGround(t *testing.T) {
	tile := &l1points.Tile{ID: "canopy-only", Points: []l1points.Point{testutil.Vegetation(1, 1, 10, 1, 1)}}
	geom := NewGeometry(tile.Bounds(), 1)
	_, err := BuildGround(tile, geom, BucketPoints(tile.Points, geom), l1points.ClassWater, 1)
	assert.ErrorIs(t, err, ErrNoGround)
}

func TestHeightMapSample(t *testing.T) {
	tile := testutil.SurfaceTile("plane", 4, 2, func(x, y float64) float64 { return 3*x + y })
	hm := buildGround(t, tile, 2)

	// Bilinear interpolation reproduces a plane between nodes.
	assert.InDelta(t, 3*2.2+4.1, hm.Sample(2.2, 4.1), 1e-9)
	gx, gy := hm.Gradient(4, 4)
	assert.InDelta(t, 3.0, gx, 1e-9)
	assert.InDelta(t, 1.0, gy, 1e-9)

	// Outside the lattice the edge value is held.
	assert.Equal(t, hm.Node(0, 0), hm.Sample(-10, -10))

	lo, hi := hm.Range()
	assert.Equal(t, hm.Node(0, 0), lo)
	assert.Equal(t, hm.Node(3, 3), hi)
}

func TestBuildCanopy(t *testing.T) {
	tile := testutil.FlatTile(7, 1, 100)
	tile.Points = append(tile.Points,
		testutil.Vegetation(3.5, 3.5, 118, 1, 2), // 18 m tree in the centre
		testutil.Vegetation(0.5, 0.5, 99, 1, 1),  // below ground clamps to 0
	)
	hm := buildGround(t, tile, 1)
	buckets := BucketPoints(tile.Points, hm.Geometry)

	roof := BuildCanopy(tile, hm, buckets, 0, 0, 2)
	assert.Equal(t, 18.0, roof.At(3, 3))
	assert.Equal(t, 0.0, roof.At(2, 3))
	assert.Equal(t, 0.0, roof.At(0, 0))

	roof = BuildCanopy(tile, hm, buckets, 1, 0, 2)
	assert.Equal(t, 18.0, roof.At(2, 2))
	assert.Equal(t, 18.0, roof.At(4, 4))
	assert.Equal(t, 0.0, roof.At(5, 3))

	roof = BuildCanopy(tile, hm, buckets, 1, 3, 2)
	assert.Equal(t, 15.0, roof.At(3, 3))
}
