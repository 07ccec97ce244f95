package depth

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestFrame saves a frame filled with value into dir and returns its path.
func writeTestFrame(t *testing.T, dir, name string, width, height int, value uint16) string {
	t.Helper()
	f := NewFrame(width, height)
	for i := range f.Samples {
		f.Samples[i] = value
	}
	path := filepath.Join(dir, name)
	require.NoError(t, SaveFrame(path, f))
	return path
}

func TestSaveLoadFrame_PreservesSamples(t *testing.T) {
	dir := t.TempDir()
	f := NewFrame(5, 4)
	for i := range f.Samples {
		f.Samples[i] = uint16(i * 1000)
	}
	f.Samples[3] = Sentinel

	path := filepath.Join(dir, "frame.png")
	require.NoError(t, SaveFrame(path, f))

	got, err := LoadFrame(path)
	require.NoError(t, err)
	assert.Equal(t, f.Width, got.Width)
	assert.Equal(t, f.Height, got.Height)
	assert.Equal(t, f.Samples, got.Samples)
}

func TestLoadFrame_Missing(t *testing.T) {
	_, err := LoadFrame("/nonexistent/frame.png")
	assert.Error(t, err)
}

func TestFrameCache_Load(t *testing.T) {
	cache := NewFrameCache()
	path := writeTestFrame(t, t.TempDir(), "a.png", 8, 6, 900)

	f1, err := cache.Load(path)
	require.NoError(t, err)
	f2, err := cache.Load(path)
	require.NoError(t, err)

	assert.Same(t, f1, f2, "second load should hit the cache")
	assert.Equal(t, 1, cache.Len())

	cache.Evict(path)
	assert.Equal(t, 0, cache.Len())

	f3, err := cache.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, f1, f3)

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestFrameCache_ConcurrentLoad(t *testing.T) {
	cache := NewFrameCache()
	path := writeTestFrame(t, t.TempDir(), "a.png", 16, 16, 1200)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Load(path)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, cache.Len())
}

func TestLoadFrameInfo(t *testing.T) {
	dir := t.TempDir()
	f := NewFrame(4, 1)
	copy(f.Samples, []uint16{0, 700, 1500, Sentinel})
	path := filepath.Join(dir, "info.png")
	require.NoError(t, SaveFrame(path, f))

	info, err := LoadFrameInfo(NewFrameCache(), path)
	require.NoError(t, err)
	assert.Equal(t, 4, info.Width)
	assert.Equal(t, 1, info.Height)
	assert.Equal(t, uint16(700), info.MinDepth)
	assert.Equal(t, uint16(1500), info.MaxDepth)
	assert.Equal(t, 2, info.ValidSamples)
	assert.Positive(t, info.FileSizeBytes)
}

func TestListFrames(t *testing.T) {
	dir := t.TempDir()
	writeTestFrame(t, dir, "frame-0002.png", 2, 2, 1)
	writeTestFrame(t, dir, "frame-0001.png", 2, 2, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	paths, err := ListFrames(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "frame-0001.png"),
		filepath.Join(dir, "frame-0002.png"),
	}, paths)

	_, err = ListFrames(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
