package l4vegetation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/banshee-data/terrain.map/internal/terrain/l1points"
)

var (
	ErrInvalidZones    = errors.New("invalid vegetation zones")
	ErrInvalidBands    = errors.New("invalid threshold bands")
	ErrInvalidShades   = errors.New("invalid shade scale")
	ErrNoThresholdBand = errors.New("no threshold band covers canopy height")
)

// Zone is a band of heights above ground that counts as vegetation while
// the cell's canopy stays below Roof.
type Zone struct {
	Low, High float64
	Roof      float64
	Factor    float64
}

// Contains reports whether a point at height h under canopy roof counts
// toward z.
func (z Zone) Contains(h, roof float64) bool {
	return h >= z.Low && h < z.High && roof < z.Roof
}

// ThresholdBand maps canopy heights in [RoofLow, RoofHigh) to the
// hits/ground ratio that equals green factor 1.
type ThresholdBand struct {
	RoofLow, RoofHigh float64
	Ratio             float64
}

// ShadeScale is an ascending list of green-factor cut points.
type ShadeScale []float64

// Index returns how many cut points d meets or exceeds.
func (s ShadeScale) Index(d float64) uint8 {
	return uint8(sort.Search(len(s), func(i int) bool { return s[i] > d }))
}

// Params is the immutable tuning of one classification run.
type Params struct {
	Zones  []Zone
	Bands  []ThresholdBand
	Shades ShadeScale

	ZOffset     float64
	GreenGround float64
	GreenHigh   float64
	TopWeight   float64

	FirstAndLastReturnFactor   float64
	LastReturnFactor           float64
	FirstAndLastReturnAsGround float64

	PointVolumeFactor   float64
	PointVolumeExponent float64

	YellowHeight    float64
	YellowThreshold float64
	YellowFirstLast float64
	YellowMinPoints int

	GroundBoxSize       int
	MedianBoxSize       int
	MedianBoxSize2      int
	YellowMedianBoxSize int
	ProceedYellows      bool

	UGLimit, UGLimit2 float64
	WaterEle          float64
	WaterClass        l1points.Classification
}

// Validate rejects list settings that would otherwise produce silently
// wrong rasters.
func (p *Params) Validate() error {
	if len(p.Zones) == 0 {
		return fmt.Errorf("%w: no zones configured", ErrInvalidZones)
	}
	for i, z := range p.Zones {
		if z.Low >= z.High {
			return fmt.Errorf("%w: zone %d low %g >= high %g", ErrInvalidZones, i, z.Low, z.High)
		}
	}

	if len(p.Bands) == 0 {
		return fmt.Errorf("%w: no bands configured", ErrInvalidBands)
	}
	for i, b := range p.Bands {
		if b.RoofLow >= b.RoofHigh || b.Ratio <= 0 {
			return fmt.Errorf("%w: band %d [%g, %g) ratio %g", ErrInvalidBands, i, b.RoofLow, b.RoofHigh, b.Ratio)
		}
		if i > 0 && b.RoofLow != p.Bands[i-1].RoofHigh {
			return fmt.Errorf("%w: band %d starts at %g, previous ends at %g", ErrInvalidBands, i, b.RoofLow, p.Bands[i-1].RoofHigh)
		}
	}

	if len(p.Shades) == 0 {
		return fmt.Errorf("%w: no cut points", ErrInvalidShades)
	}
	if len(p.Shades) > 255 {
		return fmt.Errorf("%w: %d cut points exceed 255", ErrInvalidShades, len(p.Shades))
	}
	if !sort.Float64sAreSorted(p.Shades) {
		return fmt.Errorf("%w: cut points must be non-decreasing", ErrInvalidShades)
	}
	return nil
}

// SelectBand returns the first band whose range holds roof.
func SelectBand(roof float64, bands []ThresholdBand) (ThresholdBand, error) {
	for _, b := range bands {
		if roof >= b.RoofLow && roof < b.RoofHigh {
			return b, nil
		}
	}
	return ThresholdBand{}, fmt.Errorf("%w: %g", ErrNoThresholdBand, roof)
}

// ReturnWeight is the hit weight of p by return pattern.
func ReturnWeight(p l1points.Point, params *Params) float64 {
	switch {
	case p.IsSingleReturn():
		return params.FirstAndLastReturnFactor
	case p.IsLastOfMany():
		return params.LastReturnFactor
	default:
		return 1
	}
}

// ZoneWeight sums weight*factor over every zone that holds h under roof.
// Zones may overlap, and a point counts once per zone.
func ZoneWeight(h, roof, weight float64, zones []Zone) float64 {
	var sum float64
	for _, z := range zones {
		if z.Contains(h, roof) {
			sum += weight * z.Factor
		}
	}
	return sum
}
