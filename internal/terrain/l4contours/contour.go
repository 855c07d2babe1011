package l4contours

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Kind tags how a contour is rendered.
type Kind int

const (
	KindContour Kind = iota
	KindIndex
	KindFormLine
	KindKnoll
	KindDepression
)

func (k Kind) String() string {
	switch k {
	case KindContour:
		return "contour"
	case KindIndex:
		return "index"
	case KindFormLine:
		return "formline"
	case KindKnoll:
		return "knoll"
	case KindDepression:
		return "depression"
	default:
		return "unknown"
	}
}

// Contour is one isoline. Closed contours repeat their first vertex last.
type Contour struct {
	Level  float64
	Kind   Kind
	Dashed bool
	Closed bool
	Points orb.LineString
}

// Length is the polyline length in map units.
func (c *Contour) Length() float64 {
	return planar.Length(c.Points)
}

// Area is the enclosed area of a closed contour, 0 for open ones.
func (c *Contour) Area() float64 {
	if !c.Closed {
		return 0
	}
	return math.Abs(planar.Area(orb.Ring(c.Points)))
}

// Params is the immutable tuning of the contour stage.
type Params struct {
	Interval  float64 `validate:"gt=0"`
	Smoothing float64 `validate:"gte=0"`
	Curviness float64 `validate:"gt=0"`

	Knolls           float64 `validate:"gte=0,lte=1"`
	KnollMaxArea     float64 `validate:"gte=0"`
	DepressionLength float64 `validate:"gte=0"`

	// FormLine selects the mode: 0 plain, 1 alternate thick/thin, 2 dashed
	// half-interval form-lines on steep ground.
	FormLine          int     `validate:"oneof=0 1 2"`
	FormLineSteepness float64 `validate:"gte=0"`
	FormLineAddition  float64 `validate:"gte=0"`
	MinimumGap        float64 `validate:"gte=0"`
	DashLength        float64 `validate:"gte=0"`
	GapLength         float64 `validate:"gte=0"`

	IndexContours float64 `validate:"gte=0"`

	RemoveTouching bool
	TouchTolerance float64 `validate:"gte=0"`
}

// TraceStep is the vertical spacing actually traced: half the interval in
// form-line mode 2, the interval otherwise.
func (p *Params) TraceStep() float64 {
	if p.FormLine == 2 {
		return p.Interval / 2
	}
	return p.Interval
}

// isMultiple reports whether v is an integer multiple of step.
func isMultiple(v, step float64) bool {
	if step <= 0 {
		return false
	}
	q := v / step
	return math.Abs(q-math.Round(q)) < 1e-6
}

// Counts tallies contours by kind.
func Counts(cs []Contour) map[Kind]int {
	out := make(map[Kind]int)
	for _, c := range cs {
		out[c.Kind]++
	}
	return out
}
