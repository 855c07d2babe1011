package l4contours

import (
	"math"

	"github.com/paulmach/orb"
)

// Smooth resamples c at the given vertex spacing and applies a two-scale
// moving average. The short window of max(1, round(3*smoothing)) vertices
// removes lattice stair-steps; curviness above 1 pushes the result away
// from a window three times wider, restoring bends the short average
// flattened. Open-line endpoints are kept in place and closed contours stay
// closed.
func Smooth(c Contour, spacing, smoothing, curviness float64) Contour {
	out := c
	out.Points = resample(c.Points, spacing, c.Closed)

	n := len(out.Points)
	if c.Closed {
		n--
	}
	if n < 4 || (smoothing <= 0 && curviness == 1) {
		return out
	}

	r1 := max(1, int(math.Round(3*smoothing)))
	pts := out.Points[:n]
	short := movingAverage(pts, r1, c.Closed)
	wide := movingAverage(pts, 3*r1, c.Closed)

	sm := make(orb.LineString, n, n+1)
	k := curviness - 1
	for i := range sm {
		sm[i] = orb.Point{
			short[i][0] + k*(short[i][0]-wide[i][0]),
			short[i][1] + k*(short[i][1]-wide[i][1]),
		}
	}
	if c.Closed {
		sm = append(sm, sm[0])
	} else {
		sm[0] = pts[0]
		sm[n-1] = pts[n-1]
	}
	out.Points = sm
	return out
}

// movingAverage averages each vertex with r neighbours either side. Closed
// rings wrap; open lines shrink the window symmetrically near the ends.
func movingAverage(pts orb.LineString, r int, closed bool) []orb.Point {
	n := len(pts)
	out := make([]orb.Point, n)
	for i := range pts {
		w := r
		if !closed {
			w = min(r, i, n-1-i)
		} else {
			w = min(r, (n-1)/2)
		}
		var sx, sy float64
		for d := -w; d <= w; d++ {
			k := i + d
			if closed {
				k = ((k % n) + n) % n
			}
			sx += pts[k][0]
			sy += pts[k][1]
		}
		cnt := float64(2*w + 1)
		out[i] = orb.Point{sx / cnt, sy / cnt}
	}
	return out
}

// resample places vertices at an even arc-length spacing close to the one
// requested. Open lines keep their exact endpoints.
func resample(line orb.LineString, spacing float64, closed bool) orb.LineString {
	if len(line) < 2 || spacing <= 0 {
		return line.Clone()
	}
	cum := cumulative(line)
	total := cum[len(cum)-1]
	if total == 0 {
		return line.Clone()
	}

	segs := int(math.Round(total / spacing))
	if closed {
		segs = max(segs, 3)
	} else {
		segs = max(segs, 1)
	}
	step := total / float64(segs)

	out := make(orb.LineString, 0, segs+1)
	k := 0
	for s := 0; s < segs; s++ {
		d := float64(s) * step
		for k < len(cum)-2 && cum[k+1] < d {
			k++
		}
		out = append(out, interpolate(line, cum, k, d))
	}
	if closed {
		out = append(out, out[0])
	} else {
		out = append(out, line[len(line)-1])
	}
	return out
}

// cumulative returns the arc length at each vertex.
func cumulative(line orb.LineString) []float64 {
	cum := make([]float64, len(line))
	for i := 1; i < len(line); i++ {
		cum[i] = cum[i-1] + math.Hypot(line[i][0]-line[i-1][0], line[i][1]-line[i-1][1])
	}
	return cum
}

// interpolate returns the point at arc length d, which lies on segment k.
func interpolate(line orb.LineString, cum []float64, k int, d float64) orb.Point {
	segLen := cum[k+1] - cum[k]
	if segLen == 0 {
		return line[k]
	}
	f := (d - cum[k]) / segLen
	return orb.Point{
		line[k][0] + f*(line[k+1][0]-line[k][0]),
		line[k][1] + f*(line[k+1][1]-line[k][1]),
	}
}
