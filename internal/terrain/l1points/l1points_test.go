package l1points

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/terrain.map/internal/fsutil"
)

func TestClassificationCategory(t *testing.T) {
	tests := []struct {
		class Classification
		want  Category
	}{
		{ClassGround, CategoryGround},
		{ClassHighVegetation, CategoryNonGround},
		{ClassUnclassified, CategoryNonGround},
		{ClassWater, CategoryWater},
		{ClassBuilding, CategoryBuilding},
		{Classification(17), CategoryOther},
		{Classification(200), CategoryOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.class.Category(), "class %d", tt.class)
	}
}

func TestReturnPatterns(t *testing.T) {
	single := Point{ReturnNumber: 1, NumberOfReturns: 1}
	firstOfTwo := Point{ReturnNumber: 1, NumberOfReturns: 2}
	lastOfTwo := Point{ReturnNumber: 2, NumberOfReturns: 2}

	assert.True(t, single.IsSingleReturn())
	assert.False(t, single.IsLastOfMany())
	assert.False(t, firstOfTwo.IsSingleReturn())
	assert.False(t, firstOfTwo.IsLastOfMany())
	assert.True(t, lastOfTwo.IsLastOfMany())
}

func readAll(t *testing.T, r PointReader) []Point {
	t.Helper()
	var pts []Point
	for {
		p, err := r.Next()
		if errors.Is(err, io.EOF) {
			return pts
		}
		require.NoError(t, err)
		pts = append(pts, p)
	}
}

func TestTextReader(t *testing.T) {
	input := `# x y z class returns return
10.5 20.25 101.0 2 1 1

11 21 105.5 5 3 2
12 22 99
`
	r, err := NewReader(strings.NewReader(input))
	require.NoError(t, err)

	pts := readAll(t, r)
	require.Len(t, pts, 3)
	assert.Equal(t, Point{X: 10.5, Y: 20.25, Z: 101, Class: ClassGround, ReturnNumber: 1, NumberOfReturns: 1}, pts[0])
	assert.Equal(t, Point{X: 11, Y: 21, Z: 105.5, Class: ClassHighVegetation, ReturnNumber: 2, NumberOfReturns: 3}, pts[1])
	assert.Equal(t, ClassUnclassified, pts[2].Class)
	assert.True(t, pts[2].IsSingleReturn())
}

func TestTextReaderMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few fields", "1 2\n"},
		{"non-numeric coordinate", "1 two 3\n"},
		{"class out of range", "1 2 3 300\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader(strings.NewReader("0 0 0 2 1 1\n" + tt.input))
			require.NoError(t, err)
			_, err = r.Next()
			require.NoError(t, err)
			_, err = r.Next()
			assert.ErrorIs(t, err, ErrFormat)
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	in := []Point{
		{X: 384021.25, Y: 6671234.5, Z: 42.5, Class: ClassGround, ReturnNumber: 1, NumberOfReturns: 1},
		{X: 384022.75, Y: 6671235.0, Z: 55.25, Class: ClassHighVegetation, ReturnNumber: 1, NumberOfReturns: 3},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, in))
	assert.Equal(t, BINARY_HEADER_SIZE+2*BINARY_RECORD_SIZE, buf.Len())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, readAll(t, r))
}

func TestBinaryReaderTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, []Point{{X: 1}, {X: 2}}))
	data := buf.Bytes()[:buf.Len()-5]

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorIs(t, err, ErrFormat)

	_, err = NewReader(bytes.NewReader([]byte("XYZB\x01\x00")))
	assert.ErrorIs(t, err, ErrFormat)
}

type sliceReader struct {
	pts []Point
	i   int
}

func (s *sliceReader) Next() (Point, error) {
	if s.i >= len(s.pts) {
		return Point{}, io.EOF
	}
	p := s.pts[s.i]
	s.i++
	return p, nil
}

func TestIngestScalesAndOffsets(t *testing.T) {
	opts := DefaultIngestOptions()
	opts.XFactor, opts.XOffset = 0.5, 100
	opts.ZFactor, opts.ZOffset = 2, -1

	tile, err := Ingest("t1", &sliceReader{pts: []Point{{X: 10, Y: 3, Z: 4}}}, opts)
	require.NoError(t, err)
	require.Len(t, tile.Points, 1)
	assert.Equal(t, 105.0, tile.Points[0].X)
	assert.Equal(t, 3.0, tile.Points[0].Y)
	assert.Equal(t, 7.0, tile.Points[0].Z)
}

func TestIngestEmpty(t *testing.T) {
	_, err := Ingest("empty", &sliceReader{}, DefaultIngestOptions())
	assert.ErrorIs(t, err, ErrEmptyTile)

	_, err = Ingest("bad", &sliceReader{}, IngestOptions{ThinFactor: 0})
	assert.Error(t, err)
}

func TestDecimationIsReproducible(t *testing.T) {
	pts := make([]Point, 5000)
	for i := range pts {
		pts[i] = Point{X: float64(i), Y: float64(i % 7), Z: 1}
	}
	opts := DefaultIngestOptions()
	opts.ThinFactor = 0.3
	opts.Seed = 42

	a, err := Ingest("a", &sliceReader{pts: pts}, opts)
	require.NoError(t, err)
	b, err := Ingest("b", &sliceReader{pts: pts}, opts)
	require.NoError(t, err)
	assert.Equal(t, a.Points, b.Points)

	// Roughly the requested fraction survives.
	frac := float64(len(a.Points)) / float64(len(pts))
	assert.InDelta(t, 0.3, frac, 0.05)

	// Decisions are per ordinal, so a worker handling a sub-range agrees.
	for i := uint64(1000); i < 1100; i++ {
		assert.Equal(t, Keep(i, 42, 0.3), Keep(i, 42, 0.3))
	}
	assert.True(t, Keep(7, 42, 1.0))
}

func TestReadTileFile(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.Put("/tiles/N123.xyz", []byte("1 1 10 2 1 1\n2 2 11 2 1 1\n"))

	tile, err := ReadTileFile(mfs, "/tiles/N123.xyz", DefaultIngestOptions())
	require.NoError(t, err)
	assert.Equal(t, "N123", tile.ID)
	assert.Len(t, tile.Points, 2)
	assert.Equal(t, Bounds{MinX: 1, MinY: 1, MaxX: 2, MaxY: 2}, tile.Bounds())

	_, err = ReadTileFile(mfs, "/tiles/missing.xyz", DefaultIngestOptions())
	assert.Error(t, err)

	mfs.Put("/tiles/blank.xyz", []byte("\n# nothing\n"))
	_, err = ReadTileFile(mfs, "/tiles/blank.xyz", DefaultIngestOptions())
	assert.ErrorIs(t, err, ErrEmptyTile)

	mfs.Put("/tiles/N123.BIN", []byte("1 1 10 2 1 1\n"))
	tile, err = ReadTileFile(mfs, "/tiles/N123.BIN", DefaultIngestOptions())
	require.NoError(t, err)
	assert.Len(t, tile.Points, 1)
}

func TestReadTileFileRejectsUnsupportedPaths(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.Put("/tiles/N123.las", []byte("1 1 10 2 1 1\n"))
	require.NoError(t, mfs.MkdirAll("/tiles/stack.xyz", 0755))

	for _, path := range []string{"/tiles/N123.las", "/tiles/stack.xyz"} {
		_, err := ReadTileFile(mfs, path, DefaultIngestOptions())
		assert.ErrorIs(t, err, ErrFormat, path)
	}

	_, err := ReadTileFile(mfs, "/tiles/missing.xyz", DefaultIngestOptions())
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
