// Package pipeline runs depth frames through range filtering, silhouette
// extraction, shape evaluation and track association, and delivers frames
// to it from a source.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/depth-tracker-mcp/internal/config"
	"github.com/ironsheep/depth-tracker-mcp/internal/depth"
	"github.com/ironsheep/depth-tracker-mcp/internal/silhouette"
	"github.com/ironsheep/depth-tracker-mcp/internal/tracking"
)

var (
	// ErrFrameOrder is returned for a frame counter that does not advance
	// past the last processed frame.
	ErrFrameOrder = errors.New("frame counter did not advance")

	// ErrNoFrame is returned when a background capture is requested before
	// any frame has been processed.
	ErrNoFrame = errors.New("no frame processed yet")
)

// Result is everything one frame produced.
type Result struct {
	// Frame is the frame counter the result was computed for.
	Frame int `json:"frame"`

	// Filtered is the range filtered, background suppressed frame that fed
	// the silhouette extractor.
	Filtered *depth.Frame `json:"-"`

	// Silhouette holds the intermediate images and contour lists.
	Silhouette *silhouette.Result `json:"-"`

	Candidates []tracking.Shape `json:"candidates"`
	Tracks     []tracking.Shape `json:"tracks"`
	Report     tracking.Report  `json:"report"`

	Duration time.Duration `json:"duration_ns"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithMetrics sets the collectors the pipeline updates.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// Pipeline is the per-frame tracking core.
//
// ProcessFrame holds one lock for the whole invocation, so the three
// association phases always see a consistent track list even if frames are
// submitted from more than one goroutine.
type Pipeline struct {
	mu sync.Mutex

	store      *config.Store
	tracker    *tracking.Tracker
	background depth.Background
	metrics    *Metrics
	log        logrus.FieldLogger

	lastFrame int
	lastRaw   *depth.Frame
	last      *Result
}

// New creates a pipeline reading its parameters from store.
func New(store *config.Store, opts ...Option) *Pipeline {
	params := store.Get()
	p := &Pipeline{
		store:     store,
		tracker:   tracking.NewTracker(trackingParams(params)),
		log:       logrus.StandardLogger(),
		lastFrame: tracking.Unassigned,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func trackingParams(c config.Params) tracking.Params {
	return tracking.Params{
		MaxDistance:     c.MaxMatchDistance,
		StaleFrameLimit: c.StaleFrameLimit,
	}
}

func silhouetteParams(c config.Params) silhouette.Params {
	return silhouette.Params{
		Threshold:  c.Threshold,
		MaxVal:     c.MaxVal,
		BlurRadius: c.BlurRadius,
		Epsilon:    silhouette.Epsilon,
	}
}

// ProcessFrame runs one frame through the pipeline.
//
// The frame must match the configured resolution; otherwise an error
// wrapping depth.ErrInvalidFrameShape is returned and nothing else happens.
// frameCounter must be greater than the counter of the previous processed
// frame. The parameters are read once at the start and apply to the whole
// frame. f is not modified.
func (p *Pipeline) ProcessFrame(ctx context.Context, f *depth.Frame, frameCounter int) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := p.store.Get()
	if err := depth.CheckShape(f, params.FrameWidth, params.FrameHeight); err != nil {
		p.metrics.rejected()
		p.log.WithField("frame", frameCounter).WithError(err).Warn("rejecting depth frame")
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if frameCounter <= p.lastFrame {
		p.metrics.rejected()
		return nil, fmt.Errorf("%w: got %d after %d", ErrFrameOrder, frameCounter, p.lastFrame)
	}

	start := time.Now()

	filtered := depth.RangeFilter(f, params.NearLimit, params.FarLimit)
	filtered, err := p.background.Suppress(filtered, params.BackgroundTolerance)
	if err != nil {
		p.metrics.rejected()
		return nil, err
	}

	sil := silhouette.Extract(filtered, silhouetteParams(params))
	candidates := tracking.Evaluate(sil.Contours, params.MinArea, params.MaxArea)

	p.tracker.UpdateParams(func(tp *tracking.Params) {
		*tp = trackingParams(params)
	})
	report := p.tracker.Update(candidates, frameCounter)

	result := &Result{
		Frame:      frameCounter,
		Filtered:   filtered,
		Silhouette: sil,
		Candidates: tracking.MarkMatched(candidates, report),
		Tracks:     p.tracker.Tracks(),
		Report:     report,
		Duration:   time.Since(start),
	}

	p.lastFrame = frameCounter
	p.lastRaw = f.Clone()
	p.last = result
	p.metrics.observe(result)

	entry := p.log.WithFields(logrus.Fields{
		"frame":      frameCounter,
		"contours":   len(sil.Contours),
		"candidates": len(candidates),
		"tracks":     len(result.Tracks),
	})
	entry.Debug("frame processed")
	if len(report.Promoted) > 0 {
		entry.WithField("ids", report.Promoted).Debug("tracks promoted")
	}
	if len(report.Evicted) > 0 {
		entry.WithField("ids", report.Evicted).Debug("tracks evicted")
	}

	return result, nil
}

// CaptureBackground stores a reference frame for background suppression.
// A nil f captures the raw frame most recently processed.
func (p *Pipeline) CaptureBackground(f *depth.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if f == nil {
		if p.lastRaw == nil {
			return ErrNoFrame
		}
		f = p.lastRaw
	} else {
		params := p.store.Get()
		if err := depth.CheckShape(f, params.FrameWidth, params.FrameHeight); err != nil {
			return err
		}
	}
	p.background.Capture(f)
	p.log.Info("background captured")
	return nil
}

// ClearBackground drops the background reference.
func (p *Pipeline) ClearBackground() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.background.Clear()
	p.log.Info("background cleared")
}

// BackgroundCaptured reports whether a background reference is held.
func (p *Pipeline) BackgroundCaptured() bool {
	return p.background.Captured()
}

// Last returns the most recent result, or nil.
func (p *Pipeline) Last() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// LastFrame returns the counter of the most recently processed frame, or
// -1 before the first frame.
func (p *Pipeline) LastFrame() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastFrame
}

// Tracks returns a copy of the live tracks.
func (p *Pipeline) Tracks() []tracking.Shape {
	return p.tracker.Tracks()
}

// Tracker exposes the underlying tracker for read-only queries.
func (p *Pipeline) Tracker() *tracking.Tracker {
	return p.tracker
}

// Config returns the parameter store the pipeline reads.
func (p *Pipeline) Config() *config.Store {
	return p.store
}

// Reset drops every track and the last result. The background reference
// and the frame counter are kept, and track IDs are not reused.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracker.Reset()
	p.last = nil
	p.metrics.reset()
	p.log.Info("tracks reset")
}
