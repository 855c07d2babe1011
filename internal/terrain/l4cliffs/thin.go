package l4cliffs

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// Thin simplifies every cliff with Douglas-Peucker at half the tolerance,
// then folds any cliff lying entirely within tolerance of a longer cliff of
// the same type into it. Survivors keep their input order.
func Thin(cliffs []Cliff, tolerance float64) []Cliff {
	if len(cliffs) == 0 {
		return cliffs
	}
	out := make([]Cliff, len(cliffs))
	for k, c := range cliffs {
		out[k] = c
		if tolerance > 0 && len(c.Points) > 2 {
			line := c.Points.Clone()
			out[k].Points = simplify.DouglasPeucker(tolerance / 2).Simplify(line).(orb.LineString)
		}
	}
	if tolerance <= 0 {
		return out
	}

	order := make([]int, len(out))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool {
		return out[order[a]].Length() > out[order[b]].Length()
	})

	merged := make([]bool, len(out))
	for a, ia := range order {
		if merged[ia] {
			continue
		}
		for _, ib := range order[a+1:] {
			if merged[ib] || out[ib].Type != out[ia].Type {
				continue
			}
			if !within(out[ib].Points, out[ia].Points, tolerance) {
				continue
			}
			fold(&out[ia], &out[ib])
			merged[ib] = true
		}
	}

	kept := out[:0]
	for k := range out {
		if !merged[k] {
			kept = append(kept, out[k])
		}
	}
	return kept
}

// within reports whether every vertex of short lies within tolerance of long.
func within(short, long orb.LineString, tolerance float64) bool {
	for _, p := range short {
		if planar.DistanceFrom(long, p) > tolerance {
			return false
		}
	}
	return true
}

// fold absorbs the face statistics of dup into dst.
func fold(dst, dup *Cliff) {
	n1, n2 := float64(len(dst.Cells)), float64(len(dup.Cells))
	if n1+n2 > 0 {
		dst.Slope = (dst.Slope*n1 + dup.Slope*n2) / (n1 + n2)
	}
	dst.Cells = append(dst.Cells, dup.Cells...)
	dst.Height = math.Max(dst.Height, dup.Height)
	dst.Area += dup.Area
}
