package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/depth-tracker-mcp/internal/depth"
)

// FrameSource delivers depth frames. The channel is closed when the source
// is exhausted or closed.
type FrameSource interface {
	Frames() <-chan *depth.Frame
	Close() error
}

// Handler receives each processed frame. Handlers run on the driver's
// goroutine and must not block for long.
type Handler func(*Result)

// Driver pulls frames from a source and pushes them through a pipeline one
// at a time. It owns the frame counter, which starts at 1 and advances for
// every delivered frame, rejected or not.
type Driver struct {
	pipeline *Pipeline
	source   FrameSource
	log      logrus.FieldLogger

	mu       sync.RWMutex
	handlers []Handler
	counter  int
	rejected int
}

// NewDriver creates a driver. The pipeline's logger is reused.
func NewDriver(p *Pipeline, src FrameSource) *Driver {
	return &Driver{
		pipeline: p,
		source:   src,
		log:      p.log,
	}
}

// Subscribe registers h to receive every result.
func (d *Driver) Subscribe(h Handler) {
	d.mu.Lock()
	d.handlers = append(d.handlers, h)
	d.mu.Unlock()
}

// FrameCounter returns the counter of the last delivered frame.
func (d *Driver) FrameCounter() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.counter
}

// Rejected returns how many delivered frames the pipeline refused.
func (d *Driver) Rejected() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rejected
}

// Run processes frames until the source is exhausted or ctx is done. It
// closes the source before returning. Frames the pipeline rejects are
// logged and skipped. Run returns ctx.Err() on cancellation and nil when
// the source runs dry.
func (d *Driver) Run(ctx context.Context) error {
	defer func() {
		if err := d.source.Close(); err != nil {
			d.log.WithError(err).Warn("closing frame source")
		}
	}()

	frames := d.source.Frames()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			if err := d.deliver(ctx, f); err != nil {
				return err
			}
		}
	}
}

func (d *Driver) deliver(ctx context.Context, f *depth.Frame) error {
	d.mu.Lock()
	d.counter++
	frame := d.counter
	d.mu.Unlock()

	result, err := d.pipeline.ProcessFrame(ctx, f, frame)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		d.mu.Lock()
		d.rejected++
		d.mu.Unlock()
		d.log.WithField("frame", frame).WithError(err).Warn("frame skipped")
		return nil
	}

	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers...)
	d.mu.RUnlock()
	for _, h := range handlers {
		h(result)
	}
	return nil
}
