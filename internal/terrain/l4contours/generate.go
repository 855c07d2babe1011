package l4contours

import (
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/terrain.map/internal/terrain/l2surface"
)

// Generate produces the contour layer of a ground height map: trace, tag
// loops, assign kinds, smooth, then dash form-lines and remove touching
// contours when configured.
func Generate(hm *l2surface.HeightMap, p Params, workers int) []Contour {
	step := p.TraceStep()
	nudged := Nudge(hm, step)

	traced := TraceAll(nudged, step, workers)
	if len(traced) == 0 {
		return nil
	}
	ClassifyLoops(traced, nudged, p)
	AssignKinds(traced, p)

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	smoothed := make([]Contour, len(traced))
	spacing := hm.CellSize / 2
	var g errgroup.Group
	g.SetLimit(workers)
	for k := range traced {
		g.Go(func() error {
			smoothed[k] = Smooth(traced[k], spacing, p.Smoothing, p.Curviness)
			return nil
		})
	}
	_ = g.Wait()

	out := smoothed
	if p.FormLine == 2 {
		out = Dash(out, nudged, p)
	}
	if p.RemoveTouching {
		out = RemoveTouching(out, p.TouchTolerance)
	}

	counts := Counts(out)
	log.Printf("[Contours] %d lines at step %.2f: %d index, %d formline, %d knoll, %d depression",
		len(out), step, counts[KindIndex], counts[KindFormLine], counts[KindKnoll], counts[KindDepression])
	return out
}
