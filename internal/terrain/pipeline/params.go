package pipeline

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/banshee-data/terrain.map/internal/config"
	"github.com/banshee-data/terrain.map/internal/terrain/l1points"
	"github.com/banshee-data/terrain.map/internal/terrain/l4cliffs"
	"github.com/banshee-data/terrain.map/internal/terrain/l4contours"
	"github.com/banshee-data/terrain.map/internal/terrain/l4vegetation"
)

var validate = validator.New()

// Params is the complete, validated tuning of one tile run. It is shared
// read-only by every stage and may be reused across tiles.
type Params struct {
	CellSize float64 `validate:"gt=0"`
	// CanopyRadius is the canopy search radius in cells.
	CanopyRadius int     `validate:"gte=0"`
	VegeZOffset  float64 // applied to heights above ground for the canopy
	Workers      int     `validate:"gte=0"`

	Ingest     l1points.IngestOptions
	Vegetation l4vegetation.Params
	Contours   l4contours.Params
	Cliffs     l4cliffs.Params
}

// Validate checks scalar ranges with struct tags, then the list settings
// of the vegetation stage. Failures wrap config.ErrInvalid.
func (p *Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	if err := p.Vegetation.Validate(); err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	return nil
}

// ParamsFromTuning resolves every tunable of cfg, falling back to the
// built-in defaults for omitted keys.
func ParamsFromTuning(cfg *config.TuningConfig) (*Params, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	zones := make([]l4vegetation.Zone, 0, len(cfg.GetZones()))
	for _, z := range cfg.GetZones() {
		zones = append(zones, l4vegetation.Zone{Low: z.Low, High: z.High, Roof: z.Roof, Factor: z.Factor})
	}
	bands := make([]l4vegetation.ThresholdBand, 0, len(cfg.GetThresholds()))
	for _, b := range cfg.GetThresholds() {
		bands = append(bands, l4vegetation.ThresholdBand{RoofLow: b.RoofLow, RoofHigh: b.RoofHigh, Ratio: b.Ratio})
	}

	p := &Params{
		CellSize:     cfg.GetCellSize(),
		CanopyRadius: int(math.Round(cfg.GetGreenDetectSize())),
		VegeZOffset:  cfg.GetVegeZOffset(),
		Workers:      cfg.GetWorkers(),
		Ingest: l1points.IngestOptions{
			XFactor:    cfg.GetXFactor(),
			YFactor:    cfg.GetYFactor(),
			ZFactor:    cfg.GetZFactor(),
			XOffset:    cfg.GetXOffset(),
			YOffset:    cfg.GetYOffset(),
			ZOffset:    cfg.GetZOffset(),
			ThinFactor: cfg.GetThinFactor(),
			Seed:       cfg.GetDecimationSeed(),
		},
		Vegetation: l4vegetation.Params{
			Zones:                      zones,
			Bands:                      bands,
			Shades:                     l4vegetation.ShadeScale(cfg.GetGreenShades()),
			ZOffset:                    cfg.GetVegeZOffset(),
			GreenGround:                cfg.GetGreenGround(),
			GreenHigh:                  cfg.GetGreenHigh(),
			TopWeight:                  cfg.GetTopWeight(),
			FirstAndLastReturnFactor:   cfg.GetFirstAndLastReturnFactor(),
			LastReturnFactor:           cfg.GetLastReturnFactor(),
			FirstAndLastReturnAsGround: cfg.GetFirstAndLastReturnAsGround(),
			PointVolumeFactor:          cfg.GetPointVolumeFactor(),
			PointVolumeExponent:        cfg.GetPointVolumeExponent(),
			YellowHeight:               cfg.GetYellowHeight(),
			YellowThreshold:            cfg.GetYellowThreshold(),
			YellowFirstLast:            cfg.GetYellowFirstLast(),
			YellowMinPoints:            cfg.GetYellowMinPoints(),
			GroundBoxSize:              cfg.GetGroundBoxSize(),
			MedianBoxSize:              cfg.GetMedianBoxSize(),
			MedianBoxSize2:             cfg.GetMedianBoxSize2(),
			YellowMedianBoxSize:        cfg.GetYellowMedianBoxSize(),
			ProceedYellows:             cfg.GetProceedYellows(),
			UGLimit:                    cfg.GetUGLimit(),
			UGLimit2:                   cfg.GetUGLimit2(),
			WaterEle:                   cfg.GetWaterEle(),
			WaterClass:                 l1points.Classification(cfg.GetWaterClass()),
		},
		Contours: l4contours.Params{
			Interval:          cfg.GetContourInterval(),
			Smoothing:         cfg.GetSmoothing(),
			Curviness:         cfg.GetCurviness(),
			Knolls:            cfg.GetKnolls(),
			KnollMaxArea:      cfg.GetKnollMaxArea(),
			DepressionLength:  cfg.GetDepressionLength(),
			FormLine:          cfg.GetFormLine(),
			FormLineSteepness: cfg.GetFormLineSteepness(),
			FormLineAddition:  cfg.GetFormLineAddition(),
			MinimumGap:        cfg.GetMinimumGap(),
			DashLength:        cfg.GetDashLength(),
			GapLength:         cfg.GetGapLength(),
			IndexContours:     cfg.GetIndexContours(),
			RemoveTouching:    cfg.GetRemoveTouchingContours(),
			TouchTolerance:    cfg.GetContourTouchTolerance(),
		},
		Cliffs: l4cliffs.Params{
			Cliff1:      cfg.GetCliff1(),
			Cliff2:      cfg.GetCliff2(),
			Thin:        cfg.GetCliffThin(),
			SteepFactor: cfg.GetCliffSteepFactor(),
			FlatPlace:   cfg.GetCliffFlatPlace(),
			MinLength:   cfg.GetCliffNoSmallCliffs(),
		},
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
