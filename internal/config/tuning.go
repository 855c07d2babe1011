package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// ErrInvalid is wrapped by every validation failure so callers can tell
// configuration errors apart from I/O errors.
var ErrInvalid = errors.New("invalid tuning configuration")

// ZoneConfig is one vegetation height zone as written in JSON.
type ZoneConfig struct {
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Roof   float64 `json:"roof"`
	Factor float64 `json:"factor"`
}

// ThresholdConfig maps a canopy height range to the hits/ground ratio that
// counts as green factor 1.
type ThresholdConfig struct {
	RoofLow  float64 `json:"roof_low"`
	RoofHigh float64 `json:"roof_high"`
	Ratio    float64 `json:"ratio"`
}

// TuningConfig represents the root configuration for one tile run.
// Every field is optional; the Get* methods supply the defaults so a partial
// file only needs the keys it overrides.
type TuningConfig struct {
	// Ingestion
	CellSize       *float64 `json:"cellsize,omitempty"`
	XFactor        *float64 `json:"xfactor,omitempty"`
	YFactor        *float64 `json:"yfactor,omitempty"`
	ZFactor        *float64 `json:"zfactor,omitempty"`
	XOffset        *float64 `json:"xoffset,omitempty"`
	YOffset        *float64 `json:"yoffset,omitempty"`
	ZOffset        *float64 `json:"zoffset,omitempty"`
	ThinFactor     *float64 `json:"thinfactor,omitempty"`
	DecimationSeed *uint64  `json:"decimation_seed,omitempty"`
	WaterClass     *int     `json:"water_class,omitempty"`

	// Surface model
	GreenDetectSize *float64 `json:"greendetectsize,omitempty"`
	VegeZOffset     *float64 `json:"vegezoffset,omitempty"`

	// Vegetation
	Zones                      []ZoneConfig      `json:"zones,omitempty"`
	Thresholds                 []ThresholdConfig `json:"thresholds,omitempty"`
	GreenShades                []float64         `json:"greenshades,omitempty"`
	GreenGround                *float64          `json:"greenground,omitempty"`
	GreenHigh                  *float64          `json:"greenhigh,omitempty"`
	TopWeight                  *float64          `json:"topweight,omitempty"`
	FirstAndLastReturnFactor   *float64          `json:"firstandlastreturnfactor,omitempty"`
	LastReturnFactor           *float64          `json:"lastreturnfactor,omitempty"`
	FirstAndLastReturnAsGround *float64          `json:"firstandlastreturnasground,omitempty"`
	YellowFirstLast            *float64          `json:"yellowfirstlast,omitempty"`
	PointVolumeFactor          *float64          `json:"pointvolumefactor,omitempty"`
	PointVolumeExponent        *float64          `json:"pointvolumeexponent,omitempty"`
	YellowHeight               *float64          `json:"yellowheight,omitempty"`
	YellowThreshold            *float64          `json:"yellowthreshold,omitempty"`
	YellowMinPoints            *int              `json:"yellowminpoints,omitempty"`
	UGLimit                    *float64          `json:"uglimit,omitempty"`
	UGLimit2                   *float64          `json:"uglimit2,omitempty"`
	WaterEle                   *float64          `json:"waterele,omitempty"`

	// Raster filters
	GroundBoxSize       *int  `json:"groundboxsize,omitempty"`
	MedianBoxSize       *int  `json:"medianboxsize,omitempty"`
	MedianBoxSize2      *int  `json:"medianboxsize2,omitempty"`
	YellowMedianBoxSize *int  `json:"yellowmedianboxsize,omitempty"`
	ProceedYellows      *bool `json:"proceed_yellows,omitempty"`

	// Contours
	ContourInterval        *float64 `json:"contour_interval,omitempty"`
	Smoothing              *float64 `json:"smoothing,omitempty"`
	Curviness              *float64 `json:"curviness,omitempty"`
	Knolls                 *float64 `json:"knolls,omitempty"`
	KnollMaxArea           *float64 `json:"knollmaxarea,omitempty"`
	DepressionLength       *float64 `json:"depression_length,omitempty"`
	FormLine               *int     `json:"formline,omitempty"`
	FormLineSteepness      *float64 `json:"formlinesteepness,omitempty"`
	FormLineAddition       *float64 `json:"formlineaddition,omitempty"`
	MinimumGap             *float64 `json:"minimumgap,omitempty"`
	DashLength             *float64 `json:"dashlength,omitempty"`
	GapLength              *float64 `json:"gaplength,omitempty"`
	IndexContours          *float64 `json:"indexcontours,omitempty"`
	RemoveTouchingContours *bool    `json:"remove_touching_contours,omitempty"`
	ContourTouchTolerance  *float64 `json:"contour_touch_tolerance,omitempty"`

	// Cliffs
	Cliff1             *float64 `json:"cliff1,omitempty"`
	Cliff2             *float64 `json:"cliff2,omitempty"`
	CliffThin          *float64 `json:"cliffthin,omitempty"`
	CliffSteepFactor   *float64 `json:"cliffsteepfactor,omitempty"`
	CliffFlatPlace     *float64 `json:"cliffflatplace,omitempty"`
	CliffNoSmallCliffs *float64 `json:"cliffnosmallciffs,omitempty"`

	// Execution
	Workers *int `json:"workers,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
// Fields omitted from the JSON file fall back to the Get* defaults, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseTuningConfig(data)
}

// ParseTuningConfig decodes and validates a JSON document.
func ParseTuningConfig(data []byte) (*TuningConfig, error) {
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/terrain/pipeline/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the list-valued settings and the scalars whose range is
// not obvious from their type. Scalar ranges that map onto the resolved
// pipeline parameters are re-checked there with struct tags.
func (c *TuningConfig) Validate() error {
	if c.ThinFactor != nil && (*c.ThinFactor <= 0 || *c.ThinFactor > 1) {
		return fmt.Errorf("%w: thinfactor must be in (0, 1], got %f", ErrInvalid, *c.ThinFactor)
	}
	if c.CellSize != nil && *c.CellSize <= 0 {
		return fmt.Errorf("%w: cellsize must be positive, got %f", ErrInvalid, *c.CellSize)
	}
	if c.ContourInterval != nil && *c.ContourInterval <= 0 {
		return fmt.Errorf("%w: contour_interval must be positive, got %f", ErrInvalid, *c.ContourInterval)
	}
	if c.FormLine != nil && (*c.FormLine < 0 || *c.FormLine > 2) {
		return fmt.Errorf("%w: formline must be 0, 1 or 2, got %d", ErrInvalid, *c.FormLine)
	}
	if c.Knolls != nil && (*c.Knolls < 0 || *c.Knolls > 1) {
		return fmt.Errorf("%w: knolls must be between 0 and 1, got %f", ErrInvalid, *c.Knolls)
	}
	if c.Cliff1 != nil && c.Cliff2 != nil && *c.Cliff2 < *c.Cliff1 {
		return fmt.Errorf("%w: cliff2 (%f) must not be below cliff1 (%f)", ErrInvalid, *c.Cliff2, *c.Cliff1)
	}

	for i, z := range c.GetZones() {
		if z.Low >= z.High {
			return fmt.Errorf("%w: zone %d has low %f >= high %f", ErrInvalid, i, z.Low, z.High)
		}
	}

	bands := c.GetThresholds()
	for i, b := range bands {
		if b.RoofLow >= b.RoofHigh {
			return fmt.Errorf("%w: threshold %d has roof_low %f >= roof_high %f", ErrInvalid, i, b.RoofLow, b.RoofHigh)
		}
		if b.Ratio <= 0 {
			return fmt.Errorf("%w: threshold %d ratio must be positive, got %f", ErrInvalid, i, b.Ratio)
		}
		if i > 0 && b.RoofLow != bands[i-1].RoofHigh {
			return fmt.Errorf("%w: threshold %d starts at %f but previous band ends at %f", ErrInvalid, i, b.RoofLow, bands[i-1].RoofHigh)
		}
	}

	shades := c.GetGreenShades()
	for i := 1; i < len(shades); i++ {
		if shades[i] < shades[i-1] {
			return fmt.Errorf("%w: greenshades must be non-decreasing, %f follows %f", ErrInvalid, shades[i], shades[i-1])
		}
	}

	return nil
}

func getFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func getInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func getBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// GetCellSize returns the working grid resolution in metres.
func (c *TuningConfig) GetCellSize() float64 { return getFloat(c.CellSize, 2.0) }

func (c *TuningConfig) GetXFactor() float64 { return getFloat(c.XFactor, 1.0) }
func (c *TuningConfig) GetYFactor() float64 { return getFloat(c.YFactor, 1.0) }
func (c *TuningConfig) GetZFactor() float64 { return getFloat(c.ZFactor, 1.0) }
func (c *TuningConfig) GetXOffset() float64 { return getFloat(c.XOffset, 0) }
func (c *TuningConfig) GetYOffset() float64 { return getFloat(c.YOffset, 0) }
func (c *TuningConfig) GetZOffset() float64 { return getFloat(c.ZOffset, 0) }

// GetThinFactor returns the fraction of points kept by decimation.
func (c *TuningConfig) GetThinFactor() float64 { return getFloat(c.ThinFactor, 1.0) }

// GetDecimationSeed returns the seed mixed into the per-point keep hash.
func (c *TuningConfig) GetDecimationSeed() uint64 {
	if c.DecimationSeed == nil {
		return 0
	}
	return *c.DecimationSeed
}

// GetWaterClass returns the classification code treated as water.
func (c *TuningConfig) GetWaterClass() int { return getInt(c.WaterClass, 9) }

// GetGreenDetectSize returns the canopy neighbourhood radius in cells.
func (c *TuningConfig) GetGreenDetectSize() float64 { return getFloat(c.GreenDetectSize, 1.0) }
func (c *TuningConfig) GetVegeZOffset() float64     { return getFloat(c.VegeZOffset, 0) }

// GetZones returns the configured zones or the three default forest zones.
func (c *TuningConfig) GetZones() []ZoneConfig {
	if len(c.Zones) == 0 {
		return []ZoneConfig{
			{Low: 1.0, High: 2.65, Roof: 99, Factor: 1.0},
			{Low: 2.65, High: 3.4, Roof: 99, Factor: 0.1},
			{Low: 3.4, High: 5.5, Roof: 8, Factor: 0.2},
		}
	}
	return c.Zones
}

// GetThresholds returns the configured canopy bands or the defaults.
func (c *TuningConfig) GetThresholds() []ThresholdConfig {
	if len(c.Thresholds) == 0 {
		return []ThresholdConfig{
			{RoofLow: 0, RoofHigh: 3, Ratio: 0.1},
			{RoofLow: 3, RoofHigh: 4, Ratio: 0.1},
			{RoofLow: 4, RoofHigh: 7, Ratio: 0.1},
			{RoofLow: 7, RoofHigh: 999, Ratio: 0.1},
		}
	}
	return c.Thresholds
}

// GetGreenShades returns the shade cut points in green-factor units.
func (c *TuningConfig) GetGreenShades() []float64 {
	if len(c.GreenShades) == 0 {
		return []float64{0.2, 0.35, 0.5, 0.7, 1.3, 2.6, 4.0}
	}
	return c.GreenShades
}

func (c *TuningConfig) GetGreenGround() float64 { return getFloat(c.GreenGround, 0.9) }
func (c *TuningConfig) GetGreenHigh() float64   { return getFloat(c.GreenHigh, 2.0) }
func (c *TuningConfig) GetTopWeight() float64   { return getFloat(c.TopWeight, 0.8) }

func (c *TuningConfig) GetFirstAndLastReturnFactor() float64 {
	return getFloat(c.FirstAndLastReturnFactor, 1.0)
}

func (c *TuningConfig) GetLastReturnFactor() float64 { return getFloat(c.LastReturnFactor, 1.0) }

// GetFirstAndLastReturnAsGround returns how many ground hits a single-return
// ground-like point is worth.
func (c *TuningConfig) GetFirstAndLastReturnAsGround() float64 {
	return getFloat(c.FirstAndLastReturnAsGround, 1.0)
}

func (c *TuningConfig) GetYellowFirstLast() float64     { return getFloat(c.YellowFirstLast, 1.0) }
func (c *TuningConfig) GetPointVolumeFactor() float64   { return getFloat(c.PointVolumeFactor, 0.1) }
func (c *TuningConfig) GetPointVolumeExponent() float64 { return getFloat(c.PointVolumeExponent, 1.0) }
func (c *TuningConfig) GetYellowHeight() float64        { return getFloat(c.YellowHeight, 0.9) }
func (c *TuningConfig) GetYellowThreshold() float64     { return getFloat(c.YellowThreshold, 0.9) }

// GetYellowMinPoints returns the sample floor below which a cell is never
// flagged as open land.
func (c *TuningConfig) GetYellowMinPoints() int { return getInt(c.YellowMinPoints, 3) }

func (c *TuningConfig) GetUGLimit() float64  { return getFloat(c.UGLimit, 0.35) }
func (c *TuningConfig) GetUGLimit2() float64 { return getFloat(c.UGLimit2, 0.6) }

// GetWaterEle returns the elevation below which ground is masked as water.
func (c *TuningConfig) GetWaterEle() float64 { return getFloat(c.WaterEle, -9999) }

func (c *TuningConfig) GetGroundBoxSize() int       { return getInt(c.GroundBoxSize, 1) }
func (c *TuningConfig) GetMedianBoxSize() int       { return getInt(c.MedianBoxSize, 3) }
func (c *TuningConfig) GetMedianBoxSize2() int      { return getInt(c.MedianBoxSize2, 1) }
func (c *TuningConfig) GetYellowMedianBoxSize() int { return getInt(c.YellowMedianBoxSize, 3) }
func (c *TuningConfig) GetProceedYellows() bool     { return getBool(c.ProceedYellows, false) }

func (c *TuningConfig) GetContourInterval() float64 { return getFloat(c.ContourInterval, 5.0) }
func (c *TuningConfig) GetSmoothing() float64       { return getFloat(c.Smoothing, 0.7) }
func (c *TuningConfig) GetCurviness() float64       { return getFloat(c.Curviness, 1.1) }
func (c *TuningConfig) GetKnolls() float64          { return getFloat(c.Knolls, 0.6) }
func (c *TuningConfig) GetKnollMaxArea() float64    { return getFloat(c.KnollMaxArea, 250) }

func (c *TuningConfig) GetDepressionLength() float64 { return getFloat(c.DepressionLength, 181) }
func (c *TuningConfig) GetFormLine() int             { return getInt(c.FormLine, 2) }
func (c *TuningConfig) GetFormLineSteepness() float64 {
	return getFloat(c.FormLineSteepness, 0.37)
}
func (c *TuningConfig) GetFormLineAddition() float64 { return getFloat(c.FormLineAddition, 13) }
func (c *TuningConfig) GetMinimumGap() float64       { return getFloat(c.MinimumGap, 30) }
func (c *TuningConfig) GetDashLength() float64       { return getFloat(c.DashLength, 60) }
func (c *TuningConfig) GetGapLength() float64        { return getFloat(c.GapLength, 12) }
func (c *TuningConfig) GetIndexContours() float64    { return getFloat(c.IndexContours, 25) }

func (c *TuningConfig) GetRemoveTouchingContours() bool {
	return getBool(c.RemoveTouchingContours, false)
}

func (c *TuningConfig) GetContourTouchTolerance() float64 {
	return getFloat(c.ContourTouchTolerance, 0.5)
}

func (c *TuningConfig) GetCliff1() float64           { return getFloat(c.Cliff1, 1.0) }
func (c *TuningConfig) GetCliff2() float64           { return getFloat(c.Cliff2, 1.15) }
func (c *TuningConfig) GetCliffThin() float64        { return getFloat(c.CliffThin, 1.0) }
func (c *TuningConfig) GetCliffSteepFactor() float64 { return getFloat(c.CliffSteepFactor, 0.5) }
func (c *TuningConfig) GetCliffFlatPlace() float64   { return getFloat(c.CliffFlatPlace, 6.6) }
func (c *TuningConfig) GetCliffNoSmallCliffs() float64 {
	return getFloat(c.CliffNoSmallCliffs, 6.0)
}

// GetWorkers returns the per-tile parallelism; 0 means one worker per CPU.
func (c *TuningConfig) GetWorkers() int { return getInt(c.Workers, 0) }
