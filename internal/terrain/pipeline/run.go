package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/terrain.map/internal/fsutil"
	"github.com/banshee-data/terrain.map/internal/terrain/l1points"
	"github.com/banshee-data/terrain.map/internal/terrain/l2surface"
	"github.com/banshee-data/terrain.map/internal/terrain/l4cliffs"
	"github.com/banshee-data/terrain.map/internal/terrain/l4contours"
	"github.com/banshee-data/terrain.map/internal/terrain/l4vegetation"
	"github.com/banshee-data/terrain.map/internal/version"
)

// TileError attributes a failure to the tile and stage that produced it.
type TileError struct {
	TileID string
	Stage  string
	Err    error
}

func (e *TileError) Error() string {
	return fmt.Sprintf("tile %s: %s: %v", e.TileID, e.Stage, e.Err)
}

func (e *TileError) Unwrap() error { return e.Err }

// Timings records wall time per stage. The L4 stages overlap, so their sum
// exceeds Total.
type Timings struct {
	Surface    time.Duration
	Vegetation time.Duration
	Contours   time.Duration
	Cliffs     time.Duration
	Total      time.Duration
}

// Result holds every layer produced for one tile. Nothing in it is shared
// with another run.
type Result struct {
	RunID   uuid.UUID
	TileID  string
	Version string

	Geometry   l2surface.Geometry
	Ground     *l2surface.HeightMap
	Canopy     *l2surface.Grid[float64]
	Vegetation *l4vegetation.Result
	Contours   []l4contours.Contour
	Cliffs     *l4cliffs.Result

	Timings Timings
}

// ArtifactName returns a file stem unique to this tile and run, for writers
// sharing one output directory.
func (r *Result) ArtifactName(layer string) string {
	return fmt.Sprintf("%s_%s_%s", r.TileID, r.RunID.String()[:8], layer)
}

// Summary is a one-line description of the layers for logs.
func (r *Result) Summary() string {
	counts := l4contours.Counts(r.Contours)
	kinds := make([]string, 0, len(counts))
	for k, n := range counts {
		kinds = append(kinds, fmt.Sprintf("%s=%d", k, n))
	}
	sort.Strings(kinds)

	return fmt.Sprintf("%dx%d cells, contours [%s], cliffs type1=%d type2=%d, shades %v",
		r.Geometry.Width, r.Geometry.Height, strings.Join(kinds, " "),
		len(r.Cliffs.Type1), len(r.Cliffs.Type2), r.Vegetation.ShadeHistogram())
}

// Run computes every layer of tile. The ground and canopy surfaces are
// built first; vegetation, contours and cliffs then run concurrently
// against them.
func Run(tile *l1points.Tile, p *Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, &TileError{TileID: tile.ID, Stage: "params", Err: err}
	}
	if len(tile.Points) == 0 {
		return nil, &TileError{TileID: tile.ID, Stage: "ingest", Err: l1points.ErrEmptyTile}
	}

	start := time.Now()
	res := &Result{
		RunID:   uuid.New(),
		TileID:  tile.ID,
		Version: version.String(),
	}

	res.Geometry = l2surface.NewGeometry(tile.Bounds(), p.CellSize)
	buckets := l2surface.BucketPoints(tile.Points, res.Geometry)
	ground, err := l2surface.BuildGround(tile, res.Geometry, buckets, p.Vegetation.WaterClass, p.Workers)
	if err != nil {
		opsf("tile %s: surface failed: %v", tile.ID, err)
		return nil, &TileError{TileID: tile.ID, Stage: "surface", Err: err}
	}
	res.Ground = ground
	res.Canopy = l2surface.BuildCanopy(tile, ground, buckets, p.CanopyRadius, p.VegeZOffset, p.Workers)
	res.Timings.Surface = time.Since(start)

	var g errgroup.Group
	g.Go(func() error {
		t0 := time.Now()
		veg, err := l4vegetation.Classify(tile, ground, res.Canopy, buckets, &p.Vegetation, p.Workers)
		if err != nil {
			return &TileError{TileID: tile.ID, Stage: "vegetation", Err: err}
		}
		res.Vegetation = veg
		res.Timings.Vegetation = time.Since(t0)
		return nil
	})
	g.Go(func() error {
		t0 := time.Now()
		res.Contours = l4contours.Generate(ground, p.Contours, p.Workers)
		res.Timings.Contours = time.Since(t0)
		return nil
	})
	g.Go(func() error {
		t0 := time.Now()
		res.Cliffs = l4cliffs.Detect(ground, p.Cliffs, p.Workers)
		res.Timings.Cliffs = time.Since(t0)
		return nil
	})
	if err := g.Wait(); err != nil {
		opsf("%v", err)
		return nil, err
	}
	res.Timings.Total = time.Since(start)

	cells := res.Geometry.Cells()
	traceStage(tile.ID, "surface", cells, res.Timings.Surface)
	traceStage(tile.ID, "vegetation", cells, res.Timings.Vegetation)
	traceStage(tile.ID, "contours", cells, res.Timings.Contours)
	traceStage(tile.ID, "cliffs", cells, res.Timings.Cliffs)
	diagf("tile %s run %s: %s in %v", tile.ID, res.RunID, res.Summary(), res.Timings.Total)
	return res, nil
}

// RunFile ingests the tile at path on fsys and runs it.
func RunFile(fsys fsutil.FileSystem, path string, p *Params) (*Result, error) {
	tile, err := l1points.ReadTileFile(fsys, path, p.Ingest)
	if err != nil {
		opsf("tile %s: ingest failed: %v", l1points.TileID(path), err)
		return nil, &TileError{TileID: l1points.TileID(path), Stage: "ingest", Err: err}
	}
	return Run(tile, p)
}
