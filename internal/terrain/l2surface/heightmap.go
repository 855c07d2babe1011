package l2surface

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// HeightMap is a ground elevation raster. Elevations sit at cell centres,
// which form the node lattice used for contour tracing and slope.
type HeightMap struct {
	Geometry
	Z *Grid[float64]
}

// NewHeightMap wraps z with geom. The shapes must agree.
func NewHeightMap(geom Geometry, z *Grid[float64]) *HeightMap {
	if !z.SameShape(geom.Width, geom.Height) {
		panic("l2surface: height grid does not match geometry")
	}
	return &HeightMap{Geometry: geom, Z: z}
}

// Node returns the elevation at lattice node (i, j).
func (h *HeightMap) Node(i, j int) float64 { return h.Z.At(i, j) }

// Sample returns the bilinearly interpolated elevation at (x, y). Positions
// outside the node lattice take the nearest edge value.
func (h *HeightMap) Sample(x, y float64) float64 {
	fx := (x-h.MinX)/h.CellSize - 0.5
	fy := (y-h.MinY)/h.CellSize - 0.5
	fx = math.Max(0, math.Min(fx, float64(h.Width-1)))
	fy = math.Max(0, math.Min(fy, float64(h.Height-1)))

	i0, j0 := int(fx), int(fy)
	i1, j1 := min(i0+1, h.Width-1), min(j0+1, h.Height-1)
	tx, ty := fx-float64(i0), fy-float64(j0)

	a := h.Z.At(i0, j0)*(1-tx) + h.Z.At(i1, j0)*tx
	b := h.Z.At(i0, j1)*(1-tx) + h.Z.At(i1, j1)*tx
	return a*(1-ty) + b*ty
}

// Gradient returns the elevation derivative at (x, y) by central difference
// over one cell.
func (h *HeightMap) Gradient(x, y float64) (gx, gy float64) {
	d := h.CellSize
	gx = (h.Sample(x+d, y) - h.Sample(x-d, y)) / (2 * d)
	gy = (h.Sample(x, y+d) - h.Sample(x, y-d)) / (2 * d)
	return gx, gy
}

// Steepness is the gradient magnitude at (x, y).
func (h *HeightMap) Steepness(x, y float64) float64 {
	return math.Hypot(h.Gradient(x, y))
}

// Range returns the lowest and highest elevation in the map.
func (h *HeightMap) Range() (lo, hi float64) {
	return floats.Min(h.Z.Cells), floats.Max(h.Z.Cells)
}
