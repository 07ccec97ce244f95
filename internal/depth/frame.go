package depth

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

// Sentinel marks a sample as background or invalid.
//
// It is the largest uint16 value, so no far limit can exceed it and
// filtering an already filtered frame leaves sentinel samples unchanged.
const Sentinel uint16 = math.MaxUint16

// ErrInvalidFrameShape is returned when a frame's dimensions do not match the
// resolution the pipeline was configured for, or when the frame is missing.
var ErrInvalidFrameShape = errors.New("invalid frame shape")

// Frame is a 2D grid of 16-bit distance samples in millimetres.
//
// Samples are stored row-major: the sample at (x, y) lives at index
// y*Width + x. The zero value is an empty 0×0 frame.
type Frame struct {
	Width   int
	Height  int
	Samples []uint16
}

// NewFrame allocates a zeroed frame of the given size.
// Negative dimensions are treated as zero.
func NewFrame(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Frame{
		Width:   width,
		Height:  height,
		Samples: make([]uint16, width*height),
	}
}

// FrameFromSamples wraps a copy of samples as a width×height frame.
//
// Returns ErrInvalidFrameShape if len(samples) does not equal width*height.
func FrameFromSamples(width, height int, samples []uint16) (*Frame, error) {
	if width < 0 || height < 0 || len(samples) != width*height {
		return nil, fmt.Errorf("%w: %d samples for %dx%d", ErrInvalidFrameShape, len(samples), width, height)
	}
	f := NewFrame(width, height)
	copy(f.Samples, samples)
	return f, nil
}

// FrameFromImage converts any image to a depth frame.
//
// *image.Gray16 sources are copied sample-for-sample. Other images are
// converted through color.Gray16Model, so an 8-bit grey value v becomes
// v*257.
func FrameFromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	f := NewFrame(bounds.Dx(), bounds.Dy())

	if g, ok := img.(*image.Gray16); ok {
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				f.Samples[y*f.Width+x] = g.Gray16At(x+bounds.Min.X, y+bounds.Min.Y).Y
			}
		}
		return f
	}

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := color.Gray16Model.Convert(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.Gray16)
			f.Samples[y*f.Width+x] = c.Y
		}
	}
	return f
}

// In reports whether (x, y) lies inside the frame.
func (f *Frame) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Width && y < f.Height
}

// At returns the sample at (x, y). The second result is false, and the
// sample zero, when the coordinate is outside the frame.
func (f *Frame) At(x, y int) (uint16, bool) {
	if !f.In(x, y) {
		return 0, false
	}
	return f.Samples[y*f.Width+x], true
}

// Set stores v at (x, y) and reports whether the coordinate was inside the
// frame. Out-of-bounds writes are ignored.
func (f *Frame) Set(x, y int, v uint16) bool {
	if !f.In(x, y) {
		return false
	}
	f.Samples[y*f.Width+x] = v
	return true
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := NewFrame(f.Width, f.Height)
	copy(c.Samples, f.Samples)
	return c
}

// Bounds returns the frame rectangle anchored at the origin.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Gray16 renders the frame as a 16-bit greyscale image, one pixel per sample.
func (f *Frame) Gray16() *image.Gray16 {
	img := image.NewGray16(f.Bounds())
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: f.Samples[y*f.Width+x]})
		}
	}
	return img
}

// CheckShape verifies that f is present, internally consistent and exactly
// width×height. The returned error wraps ErrInvalidFrameShape.
func CheckShape(f *Frame, width, height int) error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrInvalidFrameShape)
	}
	if len(f.Samples) != f.Width*f.Height {
		return fmt.Errorf("%w: %d samples for %dx%d", ErrInvalidFrameShape, len(f.Samples), f.Width, f.Height)
	}
	if f.Width != width || f.Height != height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrInvalidFrameShape, f.Width, f.Height, width, height)
	}
	return nil
}
