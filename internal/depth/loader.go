package depth

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// FrameCache provides thread-safe caching of decoded depth frames keyed by
// file path.
//
// Recorded sessions are replayed and inspected repeatedly (tracking, then
// overlay rendering, then contour dumps of the same file), so frames are
// decoded once and kept until evicted.
//
// Cached frames are shared: callers must treat them as read-only and Clone
// before modifying. Every transform in this module already works on copies.
type FrameCache struct {
	mu     sync.RWMutex
	frames map[string]*Frame
}

// NewFrameCache creates an empty cache ready for concurrent use.
func NewFrameCache() *FrameCache {
	return &FrameCache{
		frames: make(map[string]*Frame),
	}
}

// Load returns the frame stored at path, decoding it on first use.
//
// The cache key is the exact path string; relative and absolute spellings
// of the same file are cached separately.
func (c *FrameCache) Load(path string) (*Frame, error) {
	c.mu.RLock()
	if f, ok := c.frames[path]; ok {
		c.mu.RUnlock()
		return f, nil
	}
	c.mu.RUnlock()

	f, err := LoadFrame(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.frames[path] = f
	c.mu.Unlock()

	return f, nil
}

// Evict removes one path from the cache. Unknown paths are ignored.
func (c *FrameCache) Evict(path string) {
	c.mu.Lock()
	delete(c.frames, path)
	c.mu.Unlock()
}

// Clear empties the cache.
func (c *FrameCache) Clear() {
	c.mu.Lock()
	c.frames = make(map[string]*Frame)
	c.mu.Unlock()
}

// Len returns the number of cached frames.
func (c *FrameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}

// LoadFrame decodes a depth frame from an image file.
//
// 16-bit greyscale PNGs are read sample-for-sample in millimetres. Any other
// decodable image (8-bit PNG, JPEG, GIF) is accepted and widened through the
// 16-bit grey model, which is mostly useful for synthetic test scenes.
func LoadFrame(path string) (*Frame, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open depth frame: %w", err)
	}
	return FrameFromImage(img), nil
}

// SaveFrame writes f as a 16-bit greyscale image. The format is chosen from
// the file extension; use ".png" to keep full sample precision.
func SaveFrame(path string, f *Frame) error {
	if err := imaging.Save(f.Gray16(), path); err != nil {
		return fmt.Errorf("failed to save depth frame: %w", err)
	}
	return nil
}

// FrameInfo describes a depth frame file.
type FrameInfo struct {
	// Width is the frame width in samples.
	Width int `json:"width"`

	// Height is the frame height in samples.
	Height int `json:"height"`

	// MinDepth and MaxDepth are the smallest and largest non-zero samples in
	// millimetres. Both are 0 when the frame has no valid samples.
	MinDepth uint16 `json:"min_depth_mm"`
	MaxDepth uint16 `json:"max_depth_mm"`

	// ValidSamples counts samples that are neither 0 nor Sentinel.
	ValidSamples int `json:"valid_samples"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadFrameInfo loads a frame through the cache and summarises it.
func LoadFrameInfo(cache *FrameCache, path string) (*FrameInfo, error) {
	f, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	info := &FrameInfo{
		Width:         f.Width,
		Height:        f.Height,
		FileSizeBytes: stat.Size(),
	}
	for _, s := range f.Samples {
		if s == 0 || s == Sentinel {
			continue
		}
		if info.ValidSamples == 0 || s < info.MinDepth {
			info.MinDepth = s
		}
		if s > info.MaxDepth {
			info.MaxDepth = s
		}
		info.ValidSamples++
	}
	return info, nil
}

// ListFrames returns the PNG files in dir sorted by name, which is the replay
// order for recorded sessions.
func ListFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
