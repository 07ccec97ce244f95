package silhouette

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/depth-tracker-mcp/internal/depth"
)

// Scale converts millimetres to 8-bit intensity. Anything beyond 2550 mm,
// including depth.Sentinel, saturates to 255.
const Scale = 0.1

// Intensity rescales a depth frame into an 8-bit greyscale image using
// v = saturate(round(sample * scale)).
func Intensity(f *depth.Frame, scale float64) *image.Gray {
	g := image.NewGray(f.Bounds())
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			v := math.Round(float64(f.Samples[y*f.Width+x]) * scale)
			g.Pix[y*g.Stride+x] = saturate(v)
		}
	}
	return g
}

// Invert returns 255 - v for every pixel.
func Invert(g *image.Gray) *image.Gray {
	return redChannel(imaging.Invert(g))
}

// Smooth box-blurs g with the given radius. A radius of zero or less returns
// g itself.
//
// The image is padded by replicating its edge pixels before blurring, so the
// border does not darken and turn into a spurious foreground frame after
// inversion.
func Smooth(g *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return g
	}
	pad := int(math.Ceil(radius))
	blurred := blur.Box(padReplicate(g, pad), radius)
	inner := image.Rect(pad, pad, pad+g.Bounds().Dx(), pad+g.Bounds().Dy())
	return redChannel(blurred.SubImage(inner))
}

// padReplicate returns g grown by pad pixels on every side, with the new
// pixels copied from the nearest edge pixel. The result is anchored at the
// origin.
func padReplicate(g *image.Gray, pad int) *image.Gray {
	bounds := g.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, w+2*pad, h+2*pad))
	if w == 0 || h == 0 {
		return out
	}
	for y := 0; y < h+2*pad; y++ {
		sy := clamp(y-pad, 0, h-1) + bounds.Min.Y
		for x := 0; x < w+2*pad; x++ {
			sx := clamp(x-pad, 0, w-1) + bounds.Min.X
			out.Pix[y*out.Stride+x] = g.GrayAt(sx, sy).Y
		}
	}
	return out
}

func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Threshold maps pixels >= threshold to maxVal and all others to 0.
func Threshold(g *image.Gray, threshold, maxVal uint8) *image.Gray {
	bounds := g.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if g.GrayAt(x, y).Y >= threshold {
				out.SetGray(x, y, color.Gray{Y: maxVal})
			}
		}
	}
	return out
}

// redChannel copies the red channel of a greyscale-valued image into a new
// Gray image. Both the inversion and the blur return RGBA-family images with
// equal channels.
func redChannel(img image.Image) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, _, _, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			out.Pix[y*out.Stride+x] = uint8(r >> 8)
		}
	}
	return out
}

func saturate(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
