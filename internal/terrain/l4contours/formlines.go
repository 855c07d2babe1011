package l4contours

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/banshee-data/terrain.map/internal/terrain/l2surface"
)

// AssignKinds sets the rendering kind of untagged contours from the
// form-line mode. Knolls and depressions keep their tags.
//
//	mode 0: every level is a contour, index levels are KindIndex
//	mode 1: odd multiples of the interval become solid form-lines
//	mode 2: half-interval levels become form-line candidates for Dash
func AssignKinds(cs []Contour, p Params) {
	for k := range cs {
		c := &cs[k]
		if c.Kind != KindContour {
			continue
		}
		switch p.FormLine {
		case 1:
			if !isMultiple(c.Level, 2*p.Interval) {
				c.Kind = KindFormLine
				continue
			}
		case 2:
			if !isMultiple(c.Level, p.Interval) {
				c.Kind = KindFormLine
				continue
			}
		}
		if p.FormLine == 0 && isMultiple(c.Level, p.IndexContours) {
			c.Kind = KindIndex
		}
	}
}

// Span is an arc-length interval along a polyline.
type Span struct{ From, To float64 }

// SteepSpans returns the stretches of line where hm is steeper than
// FormLineSteepness, each grown by FormLineAddition at both ends and merged
// across gaps shorter than MinimumGap.
func SteepSpans(line orb.LineString, hm *l2surface.HeightMap, p Params) []Span {
	if len(line) < 2 {
		return nil
	}
	cum := cumulative(line)
	total := cum[len(cum)-1]

	var raw []Span
	in := false
	for i, pt := range line {
		steep := hm.Steepness(pt[0], pt[1]) > p.FormLineSteepness
		switch {
		case steep && !in:
			raw = append(raw, Span{From: cum[i], To: cum[i]})
			in = true
		case steep:
			raw[len(raw)-1].To = cum[i]
		default:
			in = false
		}
	}

	var out []Span
	for _, s := range raw {
		s.From = math.Max(0, s.From-p.FormLineAddition)
		s.To = math.Min(total, s.To+p.FormLineAddition)
		if n := len(out); n > 0 && s.From-out[n-1].To < p.MinimumGap {
			out[n-1].To = math.Max(out[n-1].To, s.To)
			continue
		}
		out = append(out, s)
	}
	return out
}

// Dash replaces every form-line candidate with dashed pieces along its
// steep spans. Candidates on gentle ground vanish. Other kinds pass
// through unchanged.
func Dash(cs []Contour, hm *l2surface.HeightMap, p Params) []Contour {
	out := make([]Contour, 0, len(cs))
	for _, c := range cs {
		if c.Kind != KindFormLine {
			out = append(out, c)
			continue
		}
		cum := cumulative(c.Points)
		for _, s := range SteepSpans(c.Points, hm, p) {
			for _, piece := range dashes(s, p.DashLength, p.GapLength) {
				sub := cut(c.Points, cum, piece.From, piece.To)
				if len(sub) < 2 {
					continue
				}
				out = append(out, Contour{Level: c.Level, Kind: KindFormLine, Dashed: true, Points: sub})
			}
		}
	}
	return out
}

// dashes splits s into dash intervals of length dash separated by gap.
func dashes(s Span, dash, gap float64) []Span {
	if dash <= 0 || gap <= 0 {
		return []Span{s}
	}
	var out []Span
	for from := s.From; from < s.To; from += dash + gap {
		out = append(out, Span{From: from, To: math.Min(from+dash, s.To)})
	}
	return out
}

// cut extracts the part of line between arc lengths a and b.
func cut(line orb.LineString, cum []float64, a, b float64) orb.LineString {
	if b <= a {
		return nil
	}
	seg := func(d float64) int {
		k := 0
		for k < len(cum)-2 && cum[k+1] < d {
			k++
		}
		return k
	}
	ka, kb := seg(a), seg(b)
	out := orb.LineString{interpolate(line, cum, ka, a)}
	for k := ka + 1; k <= kb; k++ {
		if line[k] != out[len(out)-1] {
			out = append(out, line[k])
		}
	}
	end := interpolate(line, cum, kb, b)
	if end != out[len(out)-1] {
		out = append(out, end)
	}
	return out
}
