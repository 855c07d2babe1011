package l2surface

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/terrain.map/internal/terrain/l1points"
)

// Grid is a row-major 2-D raster. Cell (x, y) lives at Cells[y*Width+x].
type Grid[T any] struct {
	Width, Height int
	Cells         []T
}

// NewGrid allocates a zero-valued grid.
func NewGrid[T any](width, height int) *Grid[T] {
	return &Grid[T]{Width: width, Height: height, Cells: make([]T, width*height)}
}

func (g *Grid[T]) Index(x, y int) int { return y*g.Width + x }
func (g *Grid[T]) At(x, y int) T      { return g.Cells[y*g.Width+x] }
func (g *Grid[T]) Set(x, y int, v T)  { g.Cells[y*g.Width+x] = v }

// InBounds reports whether (x, y) addresses a cell of g.
func (g *Grid[T]) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// Fill sets every cell to v.
func (g *Grid[T]) Fill(v T) {
	for i := range g.Cells {
		g.Cells[i] = v
	}
}

// Clone returns a deep copy of g.
func (g *Grid[T]) Clone() *Grid[T] {
	out := &Grid[T]{Width: g.Width, Height: g.Height, Cells: make([]T, len(g.Cells))}
	copy(out.Cells, g.Cells)
	return out
}

// SameShape reports whether g has the given dimensions.
func (g *Grid[T]) SameShape(width, height int) bool {
	return g.Width == width && g.Height == height
}

// Geometry is the addressing shared by every raster of one tile. Cell (i, j)
// covers [MinX+i*CellSize, MinX+(i+1)*CellSize) and likewise in y; its value
// is taken to sit at the cell centre.
type Geometry struct {
	MinX, MinY float64
	CellSize   float64
	Width      int
	Height     int
}

// NewGeometry snaps the origin down to a multiple of cellSize and sizes the
// grid so every point of b falls in a cell.
func NewGeometry(b l1points.Bounds, cellSize float64) Geometry {
	minX := math.Floor(b.MinX/cellSize) * cellSize
	minY := math.Floor(b.MinY/cellSize) * cellSize
	return Geometry{
		MinX:     minX,
		MinY:     minY,
		CellSize: cellSize,
		Width:    int(math.Floor((b.MaxX-minX)/cellSize)) + 1,
		Height:   int(math.Floor((b.MaxY-minY)/cellSize)) + 1,
	}
}

// CellOf returns the cell containing (x, y), clamped to the grid.
func (g Geometry) CellOf(x, y float64) (int, int) {
	i := int(math.Floor((x - g.MinX) / g.CellSize))
	j := int(math.Floor((y - g.MinY) / g.CellSize))
	return clampInt(i, 0, g.Width-1), clampInt(j, 0, g.Height-1)
}

// Center returns the map coordinates of the centre of cell (i, j).
func (g Geometry) Center(i, j int) (float64, float64) {
	return g.MinX + (float64(i)+0.5)*g.CellSize, g.MinY + (float64(j)+0.5)*g.CellSize
}

// Cells returns Width*Height.
func (g Geometry) Cells() int { return g.Width * g.Height }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ForEachRow calls fn for every row in [0, rows), split into contiguous
// bands across at most workers goroutines. fn must only write cells of its
// own row. workers <= 0 uses GOMAXPROCS.
func ForEachRow(rows, workers int, fn func(y int)) {
	if rows <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers == 1 || rows == 1 {
		for y := 0; y < rows; y++ {
			fn(y)
		}
		return
	}
	band := (rows + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for y0 := 0; y0 < rows; y0 += band {
		y1 := min(y0+band, rows)
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				fn(y)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Buckets groups point indices by the cell they fall in, keeping input order
// within each cell so per-cell reductions are reproducible.
type Buckets struct {
	offsets []int
	index   []int32
}

// BucketPoints assigns every point of pts to its cell of geom.
func BucketPoints(pts []l1points.Point, geom Geometry) *Buckets {
	cells := make([]int32, len(pts))
	counts := make([]int, geom.Cells()+1)
	for k, p := range pts {
		i, j := geom.CellOf(p.X, p.Y)
		c := j*geom.Width + i
		cells[k] = int32(c)
		counts[c+1]++
	}
	for c := 1; c < len(counts); c++ {
		counts[c] += counts[c-1]
	}
	b := &Buckets{offsets: counts, index: make([]int32, len(pts))}
	fill := append([]int(nil), counts[:geom.Cells()]...)
	for k, c := range cells {
		b.index[fill[c]] = int32(k)
		fill[c]++
	}
	return b
}

// Cell returns the indices of the points in cell c (row-major index).
func (b *Buckets) Cell(c int) []int32 {
	return b.index[b.offsets[c]:b.offsets[c+1]]
}

// Len returns the number of points in cell c.
func (b *Buckets) Len(c int) int {
	return b.offsets[c+1] - b.offsets[c]
}
