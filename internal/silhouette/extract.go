package silhouette

import (
	"image"

	"github.com/ironsheep/depth-tracker-mcp/internal/depth"
)

// Params controls silhouette extraction.
type Params struct {
	// Threshold is the inverted intensity at or above which a pixel counts as
	// foreground (0-255).
	Threshold uint8

	// MaxVal is written to foreground pixels of the mask. A MaxVal of 0
	// produces an empty mask.
	MaxVal uint8

	// BlurRadius box-blurs the intensity image before inversion. 0 disables
	// smoothing.
	BlurRadius float64

	// Epsilon is the Douglas-Peucker tolerance in pixels.
	Epsilon float64
}

// DefaultParams returns the extraction settings used by the tracker.
func DefaultParams() Params {
	return Params{
		Threshold: 75,
		MaxVal:    255,
		Epsilon:   Epsilon,
	}
}

// Result holds the outcome of one extraction.
type Result struct {
	// Intensity is the depth frame scaled to 8 bits (after smoothing).
	Intensity *image.Gray `json:"-"`

	// Inverted is 255 - Intensity.
	Inverted *image.Gray `json:"-"`

	// Mask is the thresholded binary image; foreground is MaxVal.
	Mask *image.Gray `json:"-"`

	// RawContours are the traced outer boundaries before simplification.
	RawContours [][]image.Point `json:"raw_contours"`

	// Contours are the simplified polygons, same order as RawContours.
	Contours [][]image.Point `json:"contours"`
}

// Extract runs the silhouette pipeline over a filtered depth frame.
//
// The frame is expected to have been range filtered already; samples that
// should be ignored must be depth.Sentinel. An empty frame or one without
// foreground produces a Result with no contours.
func Extract(f *depth.Frame, p Params) *Result {
	intensity := Smooth(Intensity(f, Scale), p.BlurRadius)
	inverted := Invert(intensity)
	mask := Threshold(inverted, p.Threshold, p.MaxVal)

	raw := FindOuterContours(mask)
	simplified := make([][]image.Point, len(raw))
	for i, c := range raw {
		simplified[i] = Simplify(c, p.Epsilon)
	}

	return &Result{
		Intensity:   intensity,
		Inverted:    inverted,
		Mask:        mask,
		RawContours: raw,
		Contours:    simplified,
	}
}
