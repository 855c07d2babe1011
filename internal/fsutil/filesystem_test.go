package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_CreateOpenStat(t *testing.T) {
	fs := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "tiles")
	require.NoError(t, fs.MkdirAll(dir, 0755))

	name := filepath.Join(dir, "a.xyz")
	w, err := fs.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte("1 2 3 2 1 1\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	info, err := fs.Stat(name)
	require.NoError(t, err)
	assert.Equal(t, int64(12), info.Size())

	r, err := fs.Open(name)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "1 2 3 2 1 1\n", string(data))

	_, err = fs.Stat(filepath.Join(dir, "nonexistent_tile.xyz"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMemoryFileSystem_CreateAndOpen(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out/plot.png")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)

	// Content is committed on Close.
	assert.Empty(t, mfs.Bytes("/out/plot.png"))
	require.NoError(t, w.Close())
	assert.Equal(t, []byte("partial"), mfs.Bytes("/out/plot.png"))

	r, err := mfs.Open("/out/../out/plot.png")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "partial", string(data))
}

func TestMemoryFileSystem_OpenMissing(t *testing.T) {
	mfs := NewMemoryFileSystem()

	_, err := mfs.Open("/missing.xyz")
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = mfs.Stat("/missing.xyz")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMemoryFileSystem_Stat(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("/data/tiles", 0755))
	mfs.Put("/data/tiles/b.xyz", []byte("bb"))

	info, err := mfs.Stat("/data/tiles/b.xyz")
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.Size())
	assert.False(t, info.IsDir())

	info, err = mfs.Stat("/data")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestHasExt(t *testing.T) {
	assert.True(t, HasExt("tile.XYZ", ".xyz", ".bin"))
	assert.True(t, HasExt("tile.bin", ".xyz", ".bin"))
	assert.False(t, HasExt("tile.las", ".xyz"))
}
