// Package overlay renders debug views of a processed depth frame.
//
// Nothing here is used by tracking itself. The renderers turn the
// intermediate buffers and shape lists of a pipeline.Result into images
// that a client can look at to see why a shape was or was not tracked.
package overlay

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/depth-tracker-mcp/internal/pipeline"
)

// Buffer names accepted by RenderBuffer.
const (
	BufferOverlay   = "overlay"
	BufferFiltered  = "filtered"
	BufferIntensity = "intensity"
	BufferInverted  = "inverted"
	BufferMask      = "mask"
)

// Buffers lists every name RenderBuffer understands.
var Buffers = []string{BufferOverlay, BufferFiltered, BufferIntensity, BufferInverted, BufferMask}

// ImageResult is an encoded debug image.
type ImageResult struct {
	Buffer      string `json:"buffer"`
	Frame       int    `json:"frame"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

var (
	maskColor    = color.NRGBA{70, 70, 70, 255}
	contourColor = color.NRGBA{255, 0, 0, 255}
	labelBG      = color.NRGBA{0, 0, 0, 200}
)

// TrackColor returns the colour used for a track ID. Consecutive IDs are
// spread around the hue circle by the golden angle so neighbours differ.
func TrackColor(id int) color.NRGBA {
	hue := math.Mod(float64(id)*137.508, 360)
	if hue < 0 {
		hue += 360
	}
	c := colorful.Hsv(hue, 0.85, 0.95).Clamped()
	r, g, b := c.RGB255()
	return color.NRGBA{r, g, b, 255}
}

// Render draws the mask in grey, the raw traced contours in red and every
// live track's hull, centroid and ID in its own colour.
func Render(res *pipeline.Result) *image.NRGBA {
	mask := res.Silhouette.Mask
	bounds := mask.Bounds()
	out := image.NewNRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if mask.GrayAt(x, y).Y != 0 {
				out.SetNRGBA(x, y, maskColor)
			} else {
				out.SetNRGBA(x, y, color.NRGBA{0, 0, 0, 255})
			}
		}
	}

	for _, c := range res.Silhouette.RawContours {
		drawPolygon(out, c, contourColor)
	}

	for _, s := range res.Tracks {
		col := TrackColor(s.ID)
		drawPolygon(out, s.Hull, col)

		cx := int(math.Round(s.Centroid.X))
		cy := int(math.Round(s.Centroid.Y))
		drawCross(out, cx, cy, 2, col)
		drawLabel(out, cx+3, cy+3, fmt.Sprint(s.ID), col, labelBG)
	}

	return out
}

// RenderBuffer renders one named buffer of res. "overlay" is Render; the
// others are the intermediate images of the silhouette extractor, and
// "filtered" is the depth frame after range filtering and background
// suppression, scaled to 8 bits.
func RenderBuffer(res *pipeline.Result, name string) (image.Image, error) {
	switch name {
	case BufferOverlay, "":
		return Render(res), nil
	case BufferFiltered:
		return filteredPreview(res), nil
	case BufferIntensity:
		return res.Silhouette.Intensity, nil
	case BufferInverted:
		return res.Silhouette.Inverted, nil
	case BufferMask:
		return res.Silhouette.Mask, nil
	default:
		return nil, fmt.Errorf("unknown buffer %q (want one of %v)", name, Buffers)
	}
}

// filteredPreview maps the full 16-bit depth range onto 8 bits so sentinel
// samples come out white.
func filteredPreview(res *pipeline.Result) *image.Gray {
	f := res.Filtered
	g := image.NewGray(f.Bounds())
	for i, s := range f.Samples {
		g.Pix[i] = uint8(s >> 8)
	}
	return g
}

// Encode renders a named buffer, optionally scales it and returns it as a
// base64 PNG. A scale of 0 or 1 keeps the original size; scaling uses
// nearest neighbour so mask pixels stay crisp.
func Encode(res *pipeline.Result, name string, scale float64) (*ImageResult, error) {
	if res == nil {
		return nil, fmt.Errorf("no frame has been processed")
	}
	if scale < 0 || scale > 8 {
		return nil, fmt.Errorf("scale must be between 0 and 8, got %v", scale)
	}

	img, err := RenderBuffer(res, name)
	if err != nil {
		return nil, err
	}

	if scale != 0 && scale != 1 {
		b := img.Bounds()
		w := int(math.Round(float64(b.Dx()) * scale))
		h := int(math.Round(float64(b.Dy()) * scale))
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scale %v produces an empty image", scale)
		}
		img = imaging.Resize(img, w, h, imaging.NearestNeighbor)
	}

	encoded, err := EncodePNGBase64(img)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = BufferOverlay
	}
	b := img.Bounds()
	return &ImageResult{
		Buffer:      name,
		Frame:       res.Frame,
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// EncodePNGBase64 encodes img as PNG and returns it base64 encoded.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
