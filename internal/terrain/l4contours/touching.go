package l4contours

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

type segRef struct {
	contour int
	seg     int
}

// segmentIndex buckets contour segments on a square grid so proximity
// queries only visit nearby segments.
type segmentIndex struct {
	size    float64
	buckets map[[2]int][]segRef
}

func newSegmentIndex(cs []Contour, size float64) *segmentIndex {
	idx := &segmentIndex{size: size, buckets: make(map[[2]int][]segRef)}
	for ci, c := range cs {
		for si := 0; si+1 < len(c.Points); si++ {
			a, b := c.Points[si], c.Points[si+1]
			x0, y0 := idx.key(math.Min(a[0], b[0])-size, math.Min(a[1], b[1])-size)
			x1, y1 := idx.key(math.Max(a[0], b[0])+size, math.Max(a[1], b[1])+size)
			for y := y0; y <= y1; y++ {
				for x := x0; x <= x1; x++ {
					k := [2]int{x, y}
					idx.buckets[k] = append(idx.buckets[k], segRef{contour: ci, seg: si})
				}
			}
		}
	}
	return idx
}

func (s *segmentIndex) key(x, y float64) (int, int) {
	return int(math.Floor(x / s.size)), int(math.Floor(y / s.size))
}

// RemoveTouching drops the vertices of a contour that come within tolerance
// of a lower-level contour, splitting it into the surviving runs. Index
// contours, knolls and depressions are never cut.
func RemoveTouching(cs []Contour, tolerance float64) []Contour {
	if tolerance <= 0 || len(cs) < 2 {
		return cs
	}
	idx := newSegmentIndex(cs, tolerance)

	out := make([]Contour, 0, len(cs))
	for ci, c := range cs {
		if c.Kind != KindContour && c.Kind != KindFormLine {
			out = append(out, c)
			continue
		}
		drop := make([]bool, len(c.Points))
		hit := false
		for vi, v := range c.Points {
			x, y := idx.key(v[0], v[1])
			for _, ref := range idx.buckets[[2]int{x, y}] {
				other := &cs[ref.contour]
				if ref.contour == ci || other.Level >= c.Level {
					continue
				}
				a, b := other.Points[ref.seg], other.Points[ref.seg+1]
				if planar.DistanceFromSegment(a, b, v) < tolerance {
					drop[vi] = true
					hit = true
					break
				}
			}
		}
		if !hit {
			out = append(out, c)
			continue
		}
		for _, run := range survivingRuns(c.Points, drop, c.Closed) {
			out = append(out, Contour{Level: c.Level, Kind: c.Kind, Dashed: c.Dashed, Points: run})
		}
	}
	return out
}

// survivingRuns splits line at dropped vertices and keeps runs of at least
// two vertices. A closed line is rotated to start after a dropped vertex so
// the run across its seam stays whole.
func survivingRuns(line orb.LineString, drop []bool, closed bool) []orb.LineString {
	pts, flags := line, drop
	if closed {
		n := len(line) - 1
		start := 0
		for k := 0; k < n; k++ {
			if drop[k] {
				start = k
				break
			}
		}
		pts = make(orb.LineString, 0, n+1)
		flags = make([]bool, 0, n+1)
		for k := 0; k <= n; k++ {
			m := (start + k) % n
			pts = append(pts, line[m])
			flags = append(flags, drop[m])
		}
	}

	var runs []orb.LineString
	var cur orb.LineString
	for k, p := range pts {
		if flags[k] {
			if len(cur) >= 2 {
				runs = append(runs, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, p)
	}
	if len(cur) >= 2 {
		runs = append(runs, cur)
	}
	return runs
}
