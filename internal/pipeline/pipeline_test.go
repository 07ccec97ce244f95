package pipeline

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ironsheep/depth-tracker-mcp/internal/config"
	"github.com/ironsheep/depth-tracker-mcp/internal/depth"
)

const (
	testWidth  = 320
	testHeight = 240
	inBand     = 1000
)

// blobFrame returns a frame with no returns except for the given rectangles,
// which sit at depth mm.
func blobFrame(mm uint16, rects ...image.Rectangle) *depth.Frame {
	f := depth.NewFrame(testWidth, testHeight)
	for _, r := range rects {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				f.Set(x, y, mm)
			}
		}
	}
	return f
}

func box(x, y, side int) image.Rectangle {
	return image.Rect(x, y, x+side, y+side)
}

func newTestPipeline(t *testing.T, mutate func(*config.Params)) (*Pipeline, *prometheus.Registry, *logtest.Hook) {
	t.Helper()
	params := config.Defaults()
	if mutate != nil {
		mutate(&params)
	}
	require.NoError(t, params.Validate())

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	reg := prometheus.NewRegistry()

	p := New(config.NewStore(params), WithLogger(logger), WithMetrics(NewMetrics(reg)))
	return p, reg, hook
}

func metricValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		m := mf.GetMetric()[0]
		switch {
		case m.GetCounter() != nil:
			return m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			return m.GetGauge().GetValue()
		case m.GetHistogram() != nil:
			return float64(m.GetHistogram().GetSampleCount())
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestProcessFrame_SingleBlob(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)

	res, err := p.ProcessFrame(context.Background(), blobFrame(inBand, box(100, 100, 20)), 1)
	require.NoError(t, err)

	require.Len(t, res.Candidates, 1)
	c := res.Candidates[0]
	assert.Equal(t, 361.0, c.Area)
	assert.Equal(t, r2.Vec{X: 109.5, Y: 109.5}, c.Centroid)
	assert.Len(t, c.Hull, 4)

	require.Len(t, res.Tracks, 1)
	assert.Equal(t, 0, res.Tracks[0].ID)
	assert.Equal(t, 1, res.Tracks[0].LastFrameSeen)
	assert.Equal(t, []int{0}, res.Report.Promoted)

	require.NotNil(t, res.Silhouette)
	assert.Len(t, res.Silhouette.RawContours, 1)
	assert.Equal(t, res, p.Last())
	assert.Equal(t, 1, p.LastFrame())
}

func TestProcessFrame_CandidatesMarkedWhenClaimed(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)

	res, err := p.ProcessFrame(context.Background(), blobFrame(inBand, box(100, 100, 20)), 1)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.False(t, res.Candidates[0].MatchFound, "promoted, not claimed")

	res, err = p.ProcessFrame(context.Background(), blobFrame(inBand, box(103, 100, 20), box(250, 150, 20)), 2)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 2)
	assert.True(t, res.Candidates[0].MatchFound)
	assert.False(t, res.Candidates[1].MatchFound)
	assert.Equal(t, []int{1}, res.Report.Promoted)
}

func TestProcessFrame_Scenario(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	res, err := p.ProcessFrame(ctx, blobFrame(inBand, box(100, 100, 20)), 1)
	require.NoError(t, err)
	require.Len(t, res.Tracks, 1)
	assert.Equal(t, 0, res.Tracks[0].ID)

	res, err = p.ProcessFrame(ctx, blobFrame(inBand, box(102, 101, 20)), 2)
	require.NoError(t, err)
	require.Len(t, res.Tracks, 1)
	assert.Equal(t, 0, res.Tracks[0].ID)
	assert.Equal(t, r2.Vec{X: 111.5, Y: 110.5}, res.Tracks[0].Centroid)
	assert.Equal(t, 2, res.Tracks[0].LastFrameSeen)

	empty := blobFrame(inBand)
	for frame := 3; frame <= 22; frame++ {
		res, err = p.ProcessFrame(ctx, empty, frame)
		require.NoError(t, err)
		assert.Len(t, res.Tracks, 1, "frame %d", frame)
	}

	res, err = p.ProcessFrame(ctx, empty, 23)
	require.NoError(t, err)
	assert.Empty(t, res.Tracks)
	assert.Equal(t, []int{0}, res.Report.Evicted)
}

func TestProcessFrame_TwoBlobsGetDistinctIDs(t *testing.T) {
	p, _, _ := newTestPipeline(t, func(c *config.Params) { c.MaxMatchDistance = 30 })
	ctx := context.Background()

	_, err := p.ProcessFrame(ctx, blobFrame(inBand, box(20, 20, 20), box(200, 150, 30)), 1)
	require.NoError(t, err)

	res, err := p.ProcessFrame(ctx, blobFrame(inBand, box(24, 22, 20), box(205, 148, 30)), 2)
	require.NoError(t, err)
	require.Len(t, res.Tracks, 2)
	assert.Equal(t, 0, res.Tracks[0].ID)
	assert.Equal(t, 1, res.Tracks[1].ID)
	assert.Len(t, res.Report.Matched, 2)
	assert.Empty(t, res.Report.Promoted)
}

func TestProcessFrame_InvalidShape(t *testing.T) {
	p, reg, hook := newTestPipeline(t, nil)

	_, err := p.ProcessFrame(context.Background(), depth.NewFrame(160, 120), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, depth.ErrInvalidFrameShape))

	_, err = p.ProcessFrame(context.Background(), nil, 2)
	assert.True(t, errors.Is(err, depth.ErrInvalidFrameShape))

	assert.Nil(t, p.Last())
	assert.Equal(t, -1, p.LastFrame())
	assert.Equal(t, 0, p.Tracker().Len())
	assert.Equal(t, 2.0, metricValue(t, reg, "depth_tracker_frames_rejected_total"))
	assert.Equal(t, 0.0, metricValue(t, reg, "depth_tracker_frames_processed_total"))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestProcessFrame_FrameOrder(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	_, err := p.ProcessFrame(ctx, blobFrame(inBand), 5)
	require.NoError(t, err)

	_, err = p.ProcessFrame(ctx, blobFrame(inBand), 5)
	assert.ErrorIs(t, err, ErrFrameOrder)
	_, err = p.ProcessFrame(ctx, blobFrame(inBand), 4)
	assert.ErrorIs(t, err, ErrFrameOrder)

	_, err = p.ProcessFrame(ctx, blobFrame(inBand), 9)
	assert.NoError(t, err)
}

func TestProcessFrame_CancelledContext(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ProcessFrame(ctx, blobFrame(inBand, box(10, 10, 20)), 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, p.Tracker().Len())
}

func TestProcessFrame_RangeFilterDropsFarObjects(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)

	res, err := p.ProcessFrame(context.Background(), blobFrame(3000, box(100, 100, 20)), 1)
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.Empty(t, res.Tracks)

	for _, s := range res.Filtered.Samples {
		require.Equal(t, depth.Sentinel, s)
	}
}

func TestProcessFrame_AreaGateFromConfig(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)
	ctx := context.Background()
	f := blobFrame(inBand, box(100, 100, 20))

	require.NoError(t, p.Config().Update(func(c *config.Params) { c.MinArea = 400 }))
	res, err := p.ProcessFrame(ctx, f, 1)
	require.NoError(t, err)
	assert.Len(t, res.Silhouette.Contours, 1)
	assert.Empty(t, res.Candidates, "361 px blob is below min_area")

	require.NoError(t, p.Config().Update(func(c *config.Params) { c.MinArea = 361 }))
	res, err = p.ProcessFrame(ctx, f, 2)
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 1, "min_area is inclusive")
}

func TestProcessFrame_TrackingParamsFollowConfig(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	require.NoError(t, p.Config().Update(func(c *config.Params) {
		c.MaxMatchDistance = 1
		c.StaleFrameLimit = 0
	}))

	_, err := p.ProcessFrame(ctx, blobFrame(inBand, box(100, 100, 20)), 1)
	require.NoError(t, err)

	res, err := p.ProcessFrame(ctx, blobFrame(inBand, box(110, 100, 20)), 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.Report.Promoted, "10 px move exceeds a 1 px gate")
	assert.Equal(t, []int{0}, res.Report.Evicted, "stale limit 0 evicts after one missed frame")
	assert.Equal(t, 0, p.Tracker().Params().StaleFrameLimit)
}

func TestBackgroundSuppression(t *testing.T) {
	p, _, _ := newTestPipeline(t, func(c *config.Params) { c.BackgroundTolerance = 50 })
	ctx := context.Background()

	assert.ErrorIs(t, p.CaptureBackground(nil), ErrNoFrame)

	scene := blobFrame(inBand, box(20, 20, 40))
	_, err := p.ProcessFrame(ctx, scene, 1)
	require.NoError(t, err)
	require.NoError(t, p.CaptureBackground(nil))
	assert.True(t, p.BackgroundCaptured())

	// furniture within tolerance of the reference is gone
	res, err := p.ProcessFrame(ctx, blobFrame(inBand+30, box(20, 20, 40)), 2)
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)

	// a newcomer elsewhere is still found
	res, err = p.ProcessFrame(ctx, blobFrame(inBand, box(20, 20, 40), box(200, 120, 30)), 3)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, r2.Vec{X: 214.5, Y: 134.5}, res.Candidates[0].Centroid)

	p.ClearBackground()
	assert.False(t, p.BackgroundCaptured())
	res, err = p.ProcessFrame(ctx, scene, 4)
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 1)
}

func TestCaptureBackground_ExplicitFrame(t *testing.T) {
	p, _, _ := newTestPipeline(t, nil)

	err := p.CaptureBackground(depth.NewFrame(10, 10))
	assert.ErrorIs(t, err, depth.ErrInvalidFrameShape)
	assert.False(t, p.BackgroundCaptured())

	require.NoError(t, p.CaptureBackground(blobFrame(inBand)))
	assert.True(t, p.BackgroundCaptured())
}

func TestReset(t *testing.T) {
	p, reg, _ := newTestPipeline(t, nil)
	ctx := context.Background()

	_, err := p.ProcessFrame(ctx, blobFrame(inBand, box(10, 10, 20), box(100, 100, 20)), 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, metricValue(t, reg, "depth_tracker_active_tracks"))

	p.Reset()
	assert.Nil(t, p.Last())
	assert.Empty(t, p.Tracks())
	assert.Equal(t, 0.0, metricValue(t, reg, "depth_tracker_active_tracks"))

	res, err := p.ProcessFrame(ctx, blobFrame(inBand, box(10, 10, 20)), 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, res.Report.Promoted, "IDs are not reused after a reset")
}

func TestMetrics(t *testing.T) {
	p, reg, _ := newTestPipeline(t, func(c *config.Params) { c.StaleFrameLimit = 0 })
	ctx := context.Background()

	_, err := p.ProcessFrame(ctx, blobFrame(inBand, box(10, 10, 20), box(100, 100, 20)), 1)
	require.NoError(t, err)
	_, err = p.ProcessFrame(ctx, blobFrame(inBand), 2)
	require.NoError(t, err)

	assert.Equal(t, 2.0, metricValue(t, reg, "depth_tracker_frames_processed_total"))
	assert.Equal(t, 2.0, metricValue(t, reg, "depth_tracker_tracks_promoted_total"))
	assert.Equal(t, 2.0, metricValue(t, reg, "depth_tracker_tracks_evicted_total"))
	assert.Equal(t, 0.0, metricValue(t, reg, "depth_tracker_active_tracks"))
	assert.Equal(t, 2.0, metricValue(t, reg, "depth_tracker_candidates_per_frame"))
	assert.Equal(t, 2.0, metricValue(t, reg, "depth_tracker_frame_processing_seconds"))
}

func TestNilMetrics(t *testing.T) {
	p := New(config.NewStore(config.Defaults()), WithLogger(logrus.New()))
	_, err := p.ProcessFrame(context.Background(), blobFrame(inBand, box(10, 10, 20)), 1)
	assert.NoError(t, err)
	_, err = p.ProcessFrame(context.Background(), nil, 2)
	assert.Error(t, err)
}
