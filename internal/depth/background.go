package depth

import (
	"fmt"
	"sync"
)

// Background holds a captured reference frame of the empty scene.
//
// Once captured, Suppress masks every sample that sits within a tolerance of
// the reference, leaving only things that moved into the scene. Background is
// safe for concurrent use.
type Background struct {
	mu        sync.RWMutex
	reference *Frame
}

// Capture stores a copy of f as the new reference. A nil frame clears it.
func (b *Background) Capture(f *Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f == nil {
		b.reference = nil
		return
	}
	b.reference = f.Clone()
}

// Clear drops the reference frame.
func (b *Background) Clear() {
	b.mu.Lock()
	b.reference = nil
	b.mu.Unlock()
}

// Captured reports whether a reference frame is held.
func (b *Background) Captured() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.reference != nil
}

// Suppress returns a copy of f where every non-sentinel sample within
// tolerance millimetres of the reference becomes Sentinel.
//
// Reference samples of 0 mean the sensor saw nothing there when the
// background was captured; they never suppress. Without a reference the copy
// is returned unchanged. A nil frame or a reference of a different size
// yields an error wrapping ErrInvalidFrameShape.
func (b *Background) Suppress(f *Frame, tolerance uint16) (*Frame, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.reference == nil {
		if f == nil {
			return nil, fmt.Errorf("%w: nil frame", ErrInvalidFrameShape)
		}
		return f.Clone(), nil
	}
	if err := CheckShape(f, b.reference.Width, b.reference.Height); err != nil {
		return nil, fmt.Errorf("background reference: %w", err)
	}

	out := f.Clone()
	for i, s := range out.Samples {
		ref := b.reference.Samples[i]
		if s == Sentinel || ref == 0 {
			continue
		}
		if absDiff(s, ref) <= tolerance {
			out.Samples[i] = Sentinel
		}
	}
	return out, nil
}

func absDiff(a, b uint16) uint16 {
	if a > b {
		return a - b
	}
	return b - a
}
