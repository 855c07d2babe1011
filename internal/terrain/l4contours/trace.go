package l4contours

import (
	"fmt"
	"math"
	"runtime"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/terrain.map/internal/terrain/l2surface"
)

// nudgeDistance keeps every node at least this far from a traced level so
// no isoline passes exactly through a node.
const nudgeDistance = 0.02

// Nudge returns a copy of hm where node elevations within nudgeDistance of
// a multiple of step are pushed away from it.
func Nudge(hm *l2surface.HeightMap, step float64) *l2surface.HeightMap {
	z := hm.Z.Clone()
	for k, v := range z.Cells {
		level := math.Floor(v/step+0.5) * step
		d := v - level
		if math.Abs(d) >= nudgeDistance {
			continue
		}
		if d < 0 {
			z.Cells[k] = level - nudgeDistance
		} else {
			z.Cells[k] = level + nudgeDistance
		}
	}
	return l2surface.NewHeightMap(hm.Geometry, z)
}

// Levels returns the multiples of step strictly between the lowest and
// highest node elevation, ascending.
func Levels(hm *l2surface.HeightMap, step float64) []float64 {
	lo, hi := hm.Range()
	var levels []float64
	for k := math.Ceil(lo / step); ; k++ {
		l := k * step
		if l <= lo {
			continue
		}
		if l >= hi {
			break
		}
		levels = append(levels, l)
	}
	return levels
}

// TraceAll traces every level of Levels(hm, step) in parallel. The result is
// ordered by level, then by trace order within a level.
func TraceAll(hm *l2surface.HeightMap, step float64, workers int) []Contour {
	levels := Levels(hm, step)
	perLevel := make([][]Contour, len(levels))

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for k, level := range levels {
		g.Go(func() error {
			perLevel[k] = Trace(hm, level)
			return nil
		})
	}
	_ = g.Wait()

	var out []Contour
	for _, cs := range perLevel {
		out = append(out, cs...)
	}
	return out
}

// Trace extracts the isolines of hm at level with marching squares over the
// node lattice. Open lines come first, in ascending order of their starting
// edge, followed by closed rings.
func Trace(hm *l2surface.HeightMap, level float64) []Contour {
	t := newTracer(hm, level)
	t.link()

	var out []Contour
	for e := range t.deg {
		if t.deg[e] == 1 && !t.seen[e] {
			out = append(out, t.walk(e, false))
		}
	}
	for e := range t.deg {
		if t.deg[e] == 2 && !t.seen[e] {
			out = append(out, t.walk(e, true))
		}
	}
	return out
}

// tracer holds the crossing graph of one level. Lattice edges are numbered
// 2*(j*w+i) for the horizontal edge leaving node (i, j) and 2*(j*w+i)+1 for
// the vertical one. Each crossed edge links to at most two others.
type tracer struct {
	hm    *l2surface.HeightMap
	level float64
	w, h  int
	links [][2]int32
	deg   []uint8
	seen  []bool
}

func newTracer(hm *l2surface.HeightMap, level float64) *tracer {
	n := 2 * hm.Width * hm.Height
	return &tracer{
		hm:    hm,
		level: level,
		w:     hm.Width,
		h:     hm.Height,
		links: make([][2]int32, n),
		deg:   make([]uint8, n),
		seen:  make([]bool, n),
	}
}

func (t *tracer) hEdge(i, j int) int { return 2 * (j*t.w + i) }
func (t *tracer) vEdge(i, j int) int { return 2*(j*t.w+i) + 1 }

func (t *tracer) above(i, j int) bool { return t.hm.Node(i, j) > t.level }

func (t *tracer) connect(a, b int) {
	if t.deg[a] == 2 || t.deg[b] == 2 {
		panic(fmt.Sprintf("l4contours: edge crossed more than twice at level %.3f", t.level))
	}
	t.links[a][t.deg[a]] = int32(b)
	t.deg[a]++
	t.links[b][t.deg[b]] = int32(a)
	t.deg[b]++
}

// link builds the crossing graph cell by cell. Saddles are resolved by the
// mean of the four corners: corners on the other side of the mean from
// their diagonal partner are cut off individually.
func (t *tracer) link() {
	for j := 0; j < t.h-1; j++ {
		for i := 0; i < t.w-1; i++ {
			bl, br := t.above(i, j), t.above(i+1, j)
			tr, tl := t.above(i+1, j+1), t.above(i, j+1)

			bottom, right := t.hEdge(i, j), t.vEdge(i+1, j)
			top, left := t.hEdge(i, j+1), t.vEdge(i, j)

			var crossed [4]int
			n := 0
			if bl != br {
				crossed[n] = bottom
				n++
			}
			if br != tr {
				crossed[n] = right
				n++
			}
			if tr != tl {
				crossed[n] = top
				n++
			}
			if tl != bl {
				crossed[n] = left
				n++
			}

			switch n {
			case 0:
			case 2:
				t.connect(crossed[0], crossed[1])
			case 4:
				mean := (t.hm.Node(i, j) + t.hm.Node(i+1, j) + t.hm.Node(i+1, j+1) + t.hm.Node(i, j+1)) / 4
				centre := mean > t.level
				if bl != centre {
					t.connect(left, bottom)
				}
				if br != centre {
					t.connect(bottom, right)
				}
				if tr != centre {
					t.connect(right, top)
				}
				if tl != centre {
					t.connect(top, left)
				}
			default:
				panic("l4contours: odd number of crossings in a lattice cell")
			}
		}
	}
}

// onBoundary reports whether edge e lies on the outer row or column of the
// node lattice.
func (t *tracer) onBoundary(e int) bool {
	c := e / 2
	i, j := c%t.w, c/t.w
	if e%2 == 0 {
		return j == 0 || j == t.h-1
	}
	return i == 0 || i == t.w-1
}

// point interpolates the level crossing on edge e.
func (t *tracer) point(e int) orb.Point {
	c := e / 2
	i, j := c%t.w, c/t.w
	i2, j2 := i+1, j
	if e%2 == 1 {
		i2, j2 = i, j+1
	}
	a, b := t.hm.Node(i, j), t.hm.Node(i2, j2)
	f := (t.level - a) / (b - a)
	x0, y0 := t.hm.Center(i, j)
	x1, y1 := t.hm.Center(i2, j2)
	return orb.Point{x0 + f*(x1-x0), y0 + f*(y1-y0)}
}

func (t *tracer) walk(start int, closed bool) Contour {
	line := orb.LineString{t.point(start)}
	t.seen[start] = true
	prev, cur := -1, start
	for {
		if t.deg[cur] == 1 && cur != start {
			break
		}
		next := int(t.links[cur][0])
		if next == prev {
			next = int(t.links[cur][1])
		}
		if next == start {
			line = append(line, line[0])
			break
		}
		if t.seen[next] {
			panic(fmt.Sprintf("l4contours: revisited edge %d at level %.3f", next, t.level))
		}
		t.seen[next] = true
		line = append(line, t.point(next))
		prev, cur = cur, next
	}

	isClosed := len(line) > 2 && line[0] == line[len(line)-1]
	if closed && !isClosed {
		panic(fmt.Sprintf("l4contours: ring at level %.3f did not close", t.level))
	}
	if !closed && !(t.onBoundary(start) && t.onBoundary(cur)) {
		panic(fmt.Sprintf("l4contours: open line at level %.3f ends inside the lattice", t.level))
	}
	return Contour{Level: t.level, Kind: KindContour, Closed: isClosed, Points: line}
}
