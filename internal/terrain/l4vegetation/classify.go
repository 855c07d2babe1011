package l4vegetation

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/terrain.map/internal/terrain/l1points"
	"github.com/banshee-data/terrain.map/internal/terrain/l2surface"
	"github.com/banshee-data/terrain.map/internal/terrain/l3raster"
)

// Undergrowth heights: returns between these two heights above ground are
// low obstruction, anything at or below the lower one reached the ground.
const (
	undergrowthFloor   = 0.25
	undergrowthCeiling = 1.2
	// Returns above the undergrowth band still count a little toward the
	// "clear" side of the ratio.
	undergrowthAboveWeight = 0.05
)

// CellStats are the per-cell accumulators of one classification pass.
type CellStats struct {
	Points int
	Green  float64
	Ground float64
	High   float64

	YellowHit  float64
	YellowMiss float64

	Undergrowth float64
	Clear       float64

	Water bool
}

// AccumulateCell folds the points idx of pts into one cell's statistics.
// roof is the cell's canopy height.
func AccumulateCell(pts []l1points.Point, idx []int32, ground *l2surface.HeightMap, roof float64, params *Params) CellStats {
	var s CellStats
	for _, k := range idx {
		p := pts[k]
		h := l2surface.HeightAboveGround(p, ground, params.ZOffset)
		isGround := p.Class == l1points.ClassGround
		s.Points++
		if p.Class == params.WaterClass {
			s.Water = true
		}

		switch {
		case isGround || h < params.YellowHeight:
			s.YellowHit++
		case p.IsSingleReturn():
			s.YellowMiss += params.YellowFirstLast
		default:
			s.YellowMiss++
		}

		switch {
		case h > undergrowthCeiling:
			s.Clear += undergrowthAboveWeight
		case !isGround && h > undergrowthFloor:
			s.Undergrowth++
		default:
			s.Clear++
		}

		if isGround || h <= params.GreenGround {
			if p.IsSingleReturn() {
				s.Ground += params.FirstAndLastReturnAsGround
			} else {
				s.Ground++
			}
			continue
		}
		s.Green += ZoneWeight(h, roof, ReturnWeight(p, params), params.Zones)
		if h > params.GreenHigh {
			s.High++
		}
	}
	return s
}

// Ratio is green hits per ground hit; 0 when no ground hit was recorded.
func (s CellStats) Ratio() float64 {
	if s.Ground <= 0 {
		return 0
	}
	return s.Green / s.Ground
}

// TopFactor scales the ratio by the share of returns from high canopy.
func (s CellStats) TopFactor(topweight float64) float64 {
	total := s.Ground + s.Green + s.High
	if total <= 0 {
		return 1
	}
	return 1 - topweight + topweight*s.High/total
}

// OverlapFactor corrects for flight-line overlap: cells with more points
// than the tile average are damped. Zero local or average density leaves
// the value unchanged.
func OverlapFactor(local, average, factor, exponent float64) float64 {
	if local <= 0 || average <= 0 {
		return 1
	}
	base := 1 - factor*local/average
	base = math.Max(0, math.Min(1, base))
	return math.Pow(base, exponent)
}

// Result holds every vegetation raster. All grids share the ground
// geometry.
type Result struct {
	// RawRatio is the hits/ground ratio after the ground box average.
	RawRatio *l2surface.Grid[float64]
	// Density is the green factor after overlap correction, band
	// normalisation and the median passes.
	Density *l2surface.Grid[float64]
	Shade   *l2surface.Grid[uint8]
	Yellow  *l2surface.Grid[bool]
	// Undergrowth is 0 (none), 1 (slow) or 2 (dense).
	Undergrowth *l2surface.Grid[uint8]
	Water       *l2surface.Grid[bool]

	AveragePointDensity float64
}

// Classify computes the vegetation rasters for one tile.
func Classify(tile *l1points.Tile, ground *l2surface.HeightMap, canopy *l2surface.Grid[float64], buckets *l2surface.Buckets, params *Params, workers int) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	w, h := ground.Width, ground.Height
	if !canopy.SameShape(w, h) {
		return nil, fmt.Errorf("canopy grid %dx%d does not match ground %dx%d", canopy.Width, canopy.Height, w, h)
	}

	stats := make([]CellStats, w*h)
	l2surface.ForEachRow(h, workers, func(j int) {
		for i := 0; i < w; i++ {
			c := j*w + i
			stats[c] = AccumulateCell(tile.Points, buckets.Cell(c), ground, canopy.Cells[c], params)
		}
	})

	var counts []float64
	for _, s := range stats {
		if s.Points > 0 {
			counts = append(counts, float64(s.Points))
		}
	}
	var average float64
	if len(counts) > 0 {
		average = stat.Mean(counts, nil)
	}

	raw := l2surface.NewGrid[float64](w, h)
	for c, s := range stats {
		raw.Cells[c] = s.Ratio()
	}
	raw = l3raster.BoxMean(raw, params.GroundBoxSize, workers)

	res := &Result{
		RawRatio:            raw,
		Yellow:              l2surface.NewGrid[bool](w, h),
		Undergrowth:         l2surface.NewGrid[uint8](w, h),
		Water:               l2surface.NewGrid[bool](w, h),
		AveragePointDensity: average,
	}
	density := l2surface.NewGrid[float64](w, h)
	bandErrs := make([]error, h)

	l2surface.ForEachRow(h, workers, func(j int) {
		for i := 0; i < w; i++ {
			c := j*w + i
			s := stats[c]
			band, err := SelectBand(canopy.Cells[c], params.Bands)
			if err != nil {
				if bandErrs[j] == nil {
					bandErrs[j] = fmt.Errorf("cell (%d, %d): %w", i, j, err)
				}
				continue
			}
			adjusted := raw.Cells[c] *
				s.TopFactor(params.TopWeight) *
				OverlapFactor(float64(s.Points), average, params.PointVolumeFactor, params.PointVolumeExponent)
			density.Cells[c] = adjusted / band.Ratio

			samples := s.YellowHit + s.YellowMiss
			res.Yellow.Cells[c] = s.Points >= params.YellowMinPoints &&
				samples > 0 && s.YellowHit/samples >= params.YellowThreshold

			ug := s.Undergrowth / (s.Undergrowth + s.Clear + 0.01)
			switch {
			case ug > params.UGLimit2:
				res.Undergrowth.Cells[c] = 2
			case ug > params.UGLimit:
				res.Undergrowth.Cells[c] = 1
			}

			res.Water.Cells[c] = s.Water || ground.Z.Cells[c] < params.WaterEle
		}
	})
	for _, err := range bandErrs {
		if err != nil {
			return nil, err
		}
	}

	// Shade discretisation is monotone, so filtering the continuous density
	// and then discretising equals filtering the shades.
	res.Density = l3raster.Chain(density, workers, params.MedianBoxSize, params.MedianBoxSize2)
	res.Shade = l2surface.NewGrid[uint8](w, h)
	for c, d := range res.Density.Cells {
		res.Shade.Cells[c] = params.Shades.Index(d)
	}

	if params.ProceedYellows {
		res.Yellow = l3raster.MedianBool(l3raster.MedianBool(res.Yellow, params.MedianBoxSize, workers), params.MedianBoxSize2, workers)
	} else {
		res.Yellow = l3raster.MedianBool(res.Yellow, params.YellowMedianBoxSize, workers)
	}

	log.Printf("[Vegetation] tile %s: %dx%d cells, mean %.2f points/cell", tile.ID, w, h, average)
	return res, nil
}

// ShadeHistogram counts cells per shade index.
func (r *Result) ShadeHistogram() []int {
	var hist []int
	for _, s := range r.Shade.Cells {
		for int(s) >= len(hist) {
			hist = append(hist, 0)
		}
		hist[s]++
	}
	return hist
}
