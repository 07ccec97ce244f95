package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/depth-tracker-mcp/internal/depth"
)

// sliceSource delivers a fixed list of frames.
type sliceSource struct {
	ch     chan *depth.Frame
	mu     sync.Mutex
	closed bool
}

func newSliceSource(frames ...*depth.Frame) *sliceSource {
	ch := make(chan *depth.Frame, len(frames))
	for _, f := range frames {
		ch <- f
	}
	close(ch)
	return &sliceSource{ch: ch}
}

func (s *sliceSource) Frames() <-chan *depth.Frame { return s.ch }

func (s *sliceSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// blockingSource never delivers anything.
type blockingSource struct {
	ch chan *depth.Frame
}

func (s *blockingSource) Frames() <-chan *depth.Frame { return s.ch }
func (s *blockingSource) Close() error                { return nil }

func TestDriver_DeliversInOrder(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)
	src := newSliceSource(
		blobFrame(inBand, box(100, 100, 20)),
		depth.NewFrame(8, 8),
		blobFrame(inBand, box(103, 100, 20)),
	)
	d := NewDriver(p, src)

	var frames []int
	var ids [][]int
	d.Subscribe(func(r *Result) {
		frames = append(frames, r.Frame)
		var row []int
		for _, s := range r.Tracks {
			row = append(row, s.ID)
		}
		ids = append(ids, row)
	})

	require.NoError(t, d.Run(context.Background()))

	assert.Equal(t, []int{1, 3}, frames, "the rejected frame still consumes a counter value")
	assert.Equal(t, [][]int{{0}, {0}}, ids)
	assert.Equal(t, 3, d.FrameCounter())
	assert.Equal(t, 1, d.Rejected())
	assert.True(t, src.closed)
}

func TestDriver_MultipleHandlers(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)
	d := NewDriver(p, newSliceSource(blobFrame(inBand), blobFrame(inBand)))

	var a, b int
	d.Subscribe(func(*Result) { a++ })
	d.Subscribe(func(*Result) { b++ })
	require.NoError(t, d.Run(context.Background()))

	assert.Equal(t, 2, a)
	assert.Equal(t, 2, b)
}

func TestDriver_StopsOnCancel(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)
	d := NewDriver(p, &blockingSource{ch: make(chan *depth.Frame)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not stop after cancellation")
	}
}

func TestDirSource_Replay(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, depth.SaveFrame(filepath.Join(dir, "frame_0001.png"), blobFrame(inBand, box(50, 50, 20))))
	require.NoError(t, depth.SaveFrame(filepath.Join(dir, "frame_0002.png"), blobFrame(inBand, box(52, 50, 20))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame_0003.png"), []byte("not a png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	cache := depth.NewFrameCache()
	src, err := NewDirSource(dir, cache, nil)
	require.NoError(t, err)
	assert.Len(t, src.Paths(), 3)

	p, _, _ := newTestPipeline(t, nil)
	d := NewDriver(p, src)

	var results []*Result
	d.Subscribe(func(r *Result) { results = append(results, r) })
	require.NoError(t, d.Run(context.Background()))

	require.Len(t, results, 2)
	assert.Equal(t, 0, results[1].Tracks[0].ID)
	assert.Len(t, results[1].Report.Matched, 1)
	assert.Equal(t, 2, cache.Len())
}

func TestDirSource_EmptyDir(t *testing.T) {
	_, err := NewDirSource(t.TempDir(), nil, nil)
	assert.Error(t, err)
}

func TestDirSource_CloseStopsReplay(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		require.NoError(t, depth.SaveFrame(filepath.Join(dir, name), blobFrame(inBand)))
	}
	src, err := NewDirSource(dir, nil, nil)
	require.NoError(t, err)

	frames := src.Frames()
	<-frames
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())

	// drain whatever was in flight; the channel must close
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-frames:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("source did not close its channel")
		}
	}
}
