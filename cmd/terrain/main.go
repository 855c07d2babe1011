// Command terrain turns one LiDAR tile into ground, vegetation, contour and
// cliff layers and logs a summary of what it found.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/banshee-data/terrain.map/internal/config"
	"github.com/banshee-data/terrain.map/internal/fsutil"
	"github.com/banshee-data/terrain.map/internal/terrain/l1points"
	"github.com/banshee-data/terrain.map/internal/terrain/monitor"
	"github.com/banshee-data/terrain.map/internal/terrain/pipeline"
	"github.com/banshee-data/terrain.map/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to a tuning JSON file (built-in defaults when empty)")
	inPath      = flag.String("in", "", "Point cloud tile to process (.xyz text or binary)")
	tileID      = flag.String("tile", "", "Tile identifier for logs and artifact names (default: input file stem)")
	plotDir     = flag.String("plot", "", "Directory for debug plots; no plots when empty")
	workers     = flag.Int("workers", -1, "Worker goroutines per stage; -1 keeps the config value, 0 uses all CPUs")
	traceLog    = flag.Bool("trace", false, "Log per-stage timings")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// options carries the parsed flags into run so tests can drive it without
// touching the global flag set.
type options struct {
	ConfigFile string
	InPath     string
	TileID     string
	PlotDir    string
	Workers    int
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("terrain %s\n", version.String())
		return
	}
	if *inPath == "" {
		log.Fatal("-in is required")
	}

	var trace io.Writer
	if *traceLog {
		trace = os.Stderr
	}
	pipeline.SetLogWriters(os.Stderr, os.Stderr, trace)

	opts := options{
		ConfigFile: *configFile,
		InPath:     *inPath,
		TileID:     *tileID,
		PlotDir:    *plotDir,
		Workers:    *workers,
	}
	res, err := run(fsutil.OSFileSystem{}, opts)
	if err != nil {
		log.Fatalf("terrain: %v", err)
	}
	log.Printf("tile %s run %s: %s", res.TileID, res.RunID, res.Summary())
}

// loadParams resolves the pipeline parameters from an optional tuning file
// and a worker override.
func loadParams(path string, workerOverride int) (*pipeline.Params, error) {
	cfg := config.EmptyTuningConfig()
	if path != "" {
		loaded, err := config.LoadTuningConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	p, err := pipeline.ParamsFromTuning(cfg)
	if err != nil {
		return nil, err
	}
	if workerOverride >= 0 {
		p.Workers = workerOverride
	}
	return p, nil
}

func run(fsys fsutil.FileSystem, opts options) (*pipeline.Result, error) {
	p, err := loadParams(opts.ConfigFile, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var res *pipeline.Result
	if opts.TileID == "" {
		res, err = pipeline.RunFile(fsys, opts.InPath, p)
	} else {
		var tile *l1points.Tile
		tile, err = l1points.ReadTileFile(fsys, opts.InPath, p.Ingest)
		if err != nil {
			return nil, &pipeline.TileError{TileID: opts.TileID, Stage: "ingest", Err: err}
		}
		tile.ID = opts.TileID
		res, err = pipeline.Run(tile, p)
	}
	if err != nil {
		return nil, err
	}

	if opts.PlotDir != "" {
		if err := writePlots(fsys, res, opts.PlotDir); err != nil {
			return nil, fmt.Errorf("failed to write plots: %w", err)
		}
	}
	return res, nil
}

func writePlots(fsys fsutil.FileSystem, res *pipeline.Result, dir string) error {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return err
	}
	overlay := filepath.Join(dir, res.ArtifactName("overlay")+".png")
	if err := monitor.PlotResult(fsys, res, overlay); err != nil {
		return err
	}
	shades := filepath.Join(dir, res.ArtifactName("shades")+".png")
	if err := monitor.PlotShadeHistogram(fsys, res, shades); err != nil {
		return err
	}
	log.Printf("wrote %s and %s", overlay, shades)
	return nil
}
