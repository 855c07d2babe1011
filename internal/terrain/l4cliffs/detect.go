package l4cliffs

import (
	"log"

	"github.com/banshee-data/terrain.map/internal/terrain/l2surface"
)

// Params is the immutable tuning of the cliff stage.
type Params struct {
	Cliff1 float64 `validate:"gt=0"`
	Cliff2 float64 `validate:"gtefield=Cliff1"`
	// Thin scales the thinning tolerance in cells.
	Thin        float64 `validate:"gte=0"`
	SteepFactor float64 `validate:"gt=0"`
	FlatPlace   float64 `validate:"gte=0"`
	MinLength   float64 `validate:"gte=0"`
}

// Result is the cliff layer of one tile.
type Result struct {
	Type1 []Cliff
	Type2 []Cliff
	Mask  *l2surface.Grid[Class]
	Slope *Slope
}

// Detect runs slope estimation, classification, tracing, thinning and
// suppression over hm.
func Detect(hm *l2surface.HeightMap, p Params, workers int) *Result {
	slope := ComputeSlope(hm, workers)
	mask := ClassifyCells(slope, p.Cliff1, p.Cliff2)
	tolerance := p.Thin * hm.CellSize

	type1 := Trace(mask, slope, hm.Geometry, Erasable)
	traced1 := len(type1)
	type1 = settleErasable(type1, slope, mask, p, tolerance)
	type2 := Thin(Trace(mask, slope, hm.Geometry, Impassable), tolerance)

	if traced1 > 0 || len(type2) > 0 {
		log.Printf("[Cliffs] %d impassable, %d erasable (%d traced before suppression)",
			len(type2), len(type1), traced1)
	}
	return &Result{Type1: type1, Type2: type2, Mask: mask, Slope: slope}
}

// settleErasable thins erasable cliffs before suppressing them, so folded
// duplicates are judged on their combined face.
func settleErasable(cliffs []Cliff, slope *Slope, mask *l2surface.Grid[Class], p Params, tolerance float64) []Cliff {
	return Suppress(Thin(cliffs, tolerance), slope, mask, p)
}
