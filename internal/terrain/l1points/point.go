package l1points

import "math"

// Classification is an ASPRS LAS point class code.
type Classification uint8

const (
	ClassCreated          Classification = 0
	ClassUnclassified     Classification = 1
	ClassGround           Classification = 2
	ClassLowVegetation    Classification = 3
	ClassMediumVegetation Classification = 4
	ClassHighVegetation   Classification = 5
	ClassBuilding         Classification = 6
	ClassLowPoint         Classification = 7
	ClassWater            Classification = 9
)

// Category is the coarse role a classification plays in the pipeline.
type Category int

const (
	CategoryOther Category = iota
	CategoryGround
	CategoryNonGround
	CategoryWater
	CategoryBuilding
)

func (c Category) String() string {
	switch c {
	case CategoryGround:
		return "ground"
	case CategoryNonGround:
		return "non-ground"
	case CategoryWater:
		return "water"
	case CategoryBuilding:
		return "building"
	default:
		return "other"
	}
}

// Category maps the class code to its pipeline role. Codes outside the
// known set pass through as CategoryOther.
func (c Classification) Category() Category {
	switch c {
	case ClassGround:
		return CategoryGround
	case ClassCreated, ClassUnclassified, ClassLowVegetation, ClassMediumVegetation, ClassHighVegetation, ClassLowPoint:
		return CategoryNonGround
	case ClassWater:
		return CategoryWater
	case ClassBuilding:
		return CategoryBuilding
	default:
		return CategoryOther
	}
}

// Point is one LiDAR return after scaling. Points are immutable once ingested.
type Point struct {
	X, Y, Z         float64
	Class           Classification
	ReturnNumber    uint8
	NumberOfReturns uint8
}

// IsSingleReturn reports whether the pulse produced exactly this one return.
func (p Point) IsSingleReturn() bool {
	return p.NumberOfReturns <= 1 && p.ReturnNumber <= 1
}

// IsLastOfMany reports whether p is the final return of a multi-return pulse.
func (p Point) IsLastOfMany() bool {
	return p.NumberOfReturns > 1 && p.ReturnNumber == p.NumberOfReturns
}

// Bounds is an axis-aligned rectangle in map units.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Tile is the set of points covering one map tile.
type Tile struct {
	ID     string
	Points []Point
}

// Bounds returns the horizontal extent of the tile's points.
func (t *Tile) Bounds() Bounds {
	b := Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, p := range t.Points {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}
