package l4contours

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/banshee-data/terrain.map/internal/terrain/l2surface"
)

// loopInfo summarises the lattice nodes a closed contour encloses.
type loopInfo struct {
	bound  orb.Bound
	nodes  int
	minIn  float64
	maxIn  float64
	area   float64
	length float64
}

func (l loopInfo) hill(level float64) bool   { return l.nodes > 0 && l.minIn > level }
func (l loopInfo) hollow(level float64) bool { return l.nodes > 0 && l.maxIn < level }

// inspectLoop scans the nodes inside c's bounding box.
func inspectLoop(c *Contour, hm *l2surface.HeightMap) loopInfo {
	ring := orb.Ring(c.Points)
	info := loopInfo{
		bound:  ring.Bound(),
		minIn:  math.Inf(1),
		maxIn:  math.Inf(-1),
		area:   math.Abs(planar.Area(ring)),
		length: planar.Length(c.Points),
	}
	i0, j0 := hm.CellOf(info.bound.Min[0], info.bound.Min[1])
	i1, j1 := hm.CellOf(info.bound.Max[0], info.bound.Max[1])
	for j := j0; j <= j1; j++ {
		for i := i0; i <= i1; i++ {
			x, y := hm.Center(i, j)
			if !planar.RingContains(ring, orb.Point{x, y}) {
				continue
			}
			v := hm.Node(i, j)
			info.nodes++
			info.minIn = math.Min(info.minIn, v)
			info.maxIn = math.Max(info.maxIn, v)
		}
	}
	return info
}

// KnollScore rates how pronounced a hilltop is: the rise of the highest
// enclosed node above the contour, over the square root of the enclosed
// area, squashed into [0, 1).
func KnollScore(rise, area float64) float64 {
	if area <= 0 {
		return 0
	}
	s := rise / math.Sqrt(area)
	return s / (1 + s)
}

// ClassifyLoops tags closed contours of hm in place. An innermost hilltop
// ring no larger than KnollMaxArea whose KnollScore reaches Knolls becomes
// a knoll. A ring enclosing only lower ground whose perimeter is at most
// DepressionLength becomes a depression. Other contours are untouched.
func ClassifyLoops(cs []Contour, hm *l2surface.HeightMap, p Params) {
	var rings []int
	infos := make(map[int]loopInfo)
	for k := range cs {
		if cs[k].Closed {
			rings = append(rings, k)
			infos[k] = inspectLoop(&cs[k], hm)
		}
	}

	for _, k := range rings {
		c := &cs[k]
		info := infos[k]
		switch {
		case info.hollow(c.Level):
			if info.length <= p.DepressionLength {
				c.Kind = KindDepression
			}
		case info.hill(c.Level):
			if info.area > p.KnollMaxArea || hasNestedRing(cs, rings, infos, k) {
				continue
			}
			if KnollScore(info.maxIn-c.Level, info.area) >= p.Knolls {
				c.Kind = KindKnoll
			}
		}
	}
}

// hasNestedRing reports whether any other closed contour lies inside ring k.
func hasNestedRing(cs []Contour, rings []int, infos map[int]loopInfo, k int) bool {
	outer := infos[k].bound
	ring := orb.Ring(cs[k].Points)
	for _, m := range rings {
		if m == k {
			continue
		}
		inner := infos[m].bound
		if !outer.Contains(inner.Min) || !outer.Contains(inner.Max) {
			continue
		}
		if planar.RingContains(ring, cs[m].Points[0]) {
			return true
		}
	}
	return false
}
