package l4cliffs

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/banshee-data/terrain.map/internal/terrain/l2surface"
)

// Class is the cliff type claimed by a cell.
type Class uint8

const (
	None Class = iota
	// Erasable cliffs may be dropped by suppression.
	Erasable
	// Impassable cliffs are always kept.
	Impassable
)

func (c Class) String() string {
	switch c {
	case Erasable:
		return "cliff1"
	case Impassable:
		return "cliff2"
	default:
		return "none"
	}
}

// Cliff is one traced rock face. Points run along the face with the
// downhill side on the right.
type Cliff struct {
	Type   Class
	Points orb.LineString
	// Cells are the grid indices the face was traced from, in visit order.
	Cells []int
	// Height is the largest single-cell drop on the face.
	Height float64
	// Slope is the mean slope over Cells.
	Slope float64
	// Area is the summed face area, slope x cell area per cell.
	Area float64
}

// Length is the polyline length in map units.
func (c *Cliff) Length() float64 { return planar.Length(c.Points) }

// ClassifyCells marks every cell with its cliff type. A cell at or above
// cliff2 is Impassable only; a cell at or above cliff1 but below cliff2 is
// Erasable.
func ClassifyCells(slope *Slope, cliff1, cliff2 float64) *l2surface.Grid[Class] {
	m := slope.Magnitude
	mask := l2surface.NewGrid[Class](m.Width, m.Height)
	for k, s := range m.Cells {
		switch {
		case s >= cliff2:
			mask.Cells[k] = Impassable
		case s >= cliff1:
			mask.Cells[k] = Erasable
		}
	}
	return mask
}

// Trace turns the mask cells of the given class into cliffs. Cells are
// grouped into 8-connected components in row-major order of discovery, and
// each component is split into faces: connected runs of cells whose
// smoothed downhill direction falls in the same eighth of the compass. A
// face is drawn by projecting its cell centres onto the line perpendicular
// to its sector and averaging them in bins one cell wide, so a rim or pit
// wall becomes a chain of short faces that stay on the steep cells.
func Trace(mask *l2surface.Grid[Class], slope *Slope, geom l2surface.Geometry, class Class) []Cliff {
	seen := make([]bool, len(mask.Cells))
	var out []Cliff
	for start, c := range mask.Cells {
		if c != class || seen[start] {
			continue
		}
		cells := component(mask, seen, start, class)
		sectors := aspects(cells, mask.Width, slope.Direction)
		for _, face := range faces(cells, mask.Width, sectors) {
			out = append(out, buildCliff(face, slope, geom, class, sectors[face[0]]))
		}
	}
	return out
}

// sectorOf quantises a direction vector to one of eight compass sectors,
// sector k centred on k*45 degrees from +x.
func sectorOf(x, y float64) int {
	s := int(math.Round(math.Atan2(y, x) / (math.Pi / 4)))
	return (s%8 + 8) % 8
}

// aspects gives every cell of a component the sector of its downhill
// direction summed with those of its neighbours in the component.
func aspects(cells []int, width int, dir *l2surface.Grid[float64]) map[int]int {
	in := make(map[int]bool, len(cells))
	for _, idx := range cells {
		in[idx] = true
	}
	out := make(map[int]int, len(cells))
	for _, idx := range cells {
		i, j := idx%width, idx/width
		d := dir.Cells[idx]
		x, y := math.Cos(d), math.Sin(d)
		for _, n := range neighbours {
			ni, nj := i+n[0], j+n[1]
			if ni < 0 || ni >= width || !in[nj*width+ni] {
				continue
			}
			nd := dir.Cells[nj*width+ni]
			x += math.Cos(nd)
			y += math.Sin(nd)
		}
		if math.Hypot(x, y) < 1e-9 {
			x, y = math.Cos(d), math.Sin(d)
		}
		out[idx] = sectorOf(x, y)
	}
	return out
}

// faces splits a component into 8-connected runs of cells that share a
// sector. Runs are ordered by their lowest cell index and hold their cells
// in visit order.
func faces(cells []int, width int, sectors map[int]int) [][]int {
	order := append([]int(nil), cells...)
	sort.Ints(order)
	done := make(map[int]bool, len(cells))
	var out [][]int
	for _, start := range order {
		if done[start] {
			continue
		}
		s := sectors[start]
		run := []int{start}
		done[start] = true
		for k := 0; k < len(run); k++ {
			i, j := run[k]%width, run[k]/width
			for _, n := range neighbours {
				ni, nj := i+n[0], j+n[1]
				idx := nj*width + ni
				if ni < 0 || ni >= width || done[idx] {
					continue
				}
				if sec, ok := sectors[idx]; !ok || sec != s {
					continue
				}
				done[idx] = true
				run = append(run, idx)
			}
		}
		out = append(out, run)
	}
	return out
}

// component collects the 8-connected cells of class reachable from start.
func component(mask *l2surface.Grid[Class], seen []bool, start int, class Class) []int {
	queue := []int{start}
	seen[start] = true
	for k := 0; k < len(queue); k++ {
		i, j := queue[k]%mask.Width, queue[k]/mask.Width
		for _, n := range neighbours {
			ni, nj := i+n[0], j+n[1]
			if !mask.InBounds(ni, nj) {
				continue
			}
			idx := mask.Index(ni, nj)
			if seen[idx] || mask.Cells[idx] != class {
				continue
			}
			seen[idx] = true
			queue = append(queue, idx)
		}
	}
	return queue
}

func buildCliff(cells []int, slope *Slope, geom l2surface.Geometry, class Class, sector int) Cliff {
	cs := geom.CellSize
	var cx, cy, sum, peak float64
	for _, idx := range cells {
		x, y := geom.Center(idx%geom.Width, idx/geom.Width)
		cx += x
		cy += y
		s := slope.Magnitude.Cells[idx]
		sum += s
		peak = math.Max(peak, s)
	}
	n := float64(len(cells))
	cx, cy = cx/n, cy/n

	// Travel direction: the sector's downhill rotated a quarter turn
	// anticlockwise.
	a := float64(sector) * math.Pi / 4
	tx, ty := -math.Sin(a), math.Cos(a)

	type bin struct {
		x, y float64
		n    int
	}
	bins := make(map[int]*bin)
	umin := math.Inf(1)
	us := make([]float64, len(cells))
	for k, idx := range cells {
		x, y := geom.Center(idx%geom.Width, idx/geom.Width)
		us[k] = (x-cx)*tx + (y-cy)*ty
		umin = math.Min(umin, us[k])
	}
	for k, idx := range cells {
		x, y := geom.Center(idx%geom.Width, idx/geom.Width)
		key := int(math.Round((us[k] - umin) / cs))
		b, ok := bins[key]
		if !ok {
			b = &bin{}
			bins[key] = b
		}
		b.x += x
		b.y += y
		b.n++
	}
	keys := make([]int, 0, len(bins))
	for k := range bins {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var pts orb.LineString
	for _, k := range keys {
		b := bins[k]
		pts = append(pts, orb.Point{b.x / float64(b.n), b.y / float64(b.n)})
	}
	if len(pts) == 1 {
		p := pts[0]
		pts = orb.LineString{
			{p[0] - tx*cs/2, p[1] - ty*cs/2},
			{p[0] + tx*cs/2, p[1] + ty*cs/2},
		}
	}

	return Cliff{
		Type:   class,
		Points: pts,
		Cells:  cells,
		Height: peak * cs,
		Slope:  sum / n,
		Area:   sum * cs * cs,
	}
}
