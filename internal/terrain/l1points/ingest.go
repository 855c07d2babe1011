package l1points

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/banshee-data/terrain.map/internal/fsutil"
)

// IngestOptions holds the axis transform and decimation settings.
type IngestOptions struct {
	XFactor, YFactor, ZFactor float64
	XOffset, YOffset, ZOffset float64
	// ThinFactor is the fraction of points kept, in (0, 1].
	ThinFactor float64 `validate:"gt=0,lte=1"`
	// Seed is mixed into the per-point keep decision.
	Seed uint64
}

// DefaultIngestOptions returns the identity transform with no decimation.
func DefaultIngestOptions() IngestOptions {
	return IngestOptions{XFactor: 1, YFactor: 1, ZFactor: 1, ThinFactor: 1}
}

// Keep decides whether the point at ordinal index survives decimation.
// The decision depends only on (index, seed, thinfactor), so any
// partitioning of the stream across workers keeps the same points.
func Keep(index, seed uint64, thinfactor float64) bool {
	if thinfactor >= 1 {
		return true
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], seed)
	binary.LittleEndian.PutUint64(buf[8:16], index)
	h := fnv.New64a()
	h.Write(buf[:])
	u := float64(h.Sum64()>>11) / (1 << 53)
	return u < thinfactor
}

// Ingest drains src, applies the axis transform and decimation, and returns
// the tile. A stream that yields zero points is ErrEmptyTile.
func Ingest(id string, src PointReader, opts IngestOptions) (*Tile, error) {
	if opts.ThinFactor <= 0 || opts.ThinFactor > 1 {
		return nil, fmt.Errorf("thinfactor %f out of range (0, 1]", opts.ThinFactor)
	}

	tile := &Tile{ID: id}
	var index uint64
	for {
		p, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		i := index
		index++
		if !Keep(i, opts.Seed, opts.ThinFactor) {
			continue
		}
		p.X = p.X*opts.XFactor + opts.XOffset
		p.Y = p.Y*opts.YFactor + opts.YOffset
		p.Z = p.Z*opts.ZFactor + opts.ZOffset
		tile.Points = append(tile.Points, p)
	}

	if len(tile.Points) == 0 {
		return nil, fmt.Errorf("%w: %d read, none kept", ErrEmptyTile, index)
	}
	if index != uint64(len(tile.Points)) {
		log.Printf("[Ingest] tile %s: kept %d of %d points (thinfactor %.3f)", id, len(tile.Points), index, opts.ThinFactor)
	}
	return tile, nil
}

// TileID derives a tile identity from a file path by dropping directory and
// extension.
func TileID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TileExtensions are the file extensions ReadTileFile accepts. Text and
// XYZB content are told apart by the header, not the extension.
var TileExtensions = []string{".xyz", ".txt", ".bin"}

// ReadTileFile opens path on fsys and ingests it.
func ReadTileFile(fsys fsutil.FileSystem, path string, opts IngestOptions) (*Tile, error) {
	if !fsutil.HasExt(path, TileExtensions...) {
		return nil, fmt.Errorf("%w: %s: extension must be one of %s",
			ErrFormat, path, strings.Join(TileExtensions, ", "))
	}
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open tile %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFormat, path)
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tile %s: %w", path, err)
	}
	defer f.Close()

	r, err := NewReader(f)
	if err != nil {
		return nil, err
	}
	tile, err := Ingest(TileID(path), r, opts)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", path, err)
	}
	log.Printf("[Ingest] tile %s: %d points from %s", tile.ID, len(tile.Points), path)
	return tile, nil
}
