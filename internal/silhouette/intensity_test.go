package silhouette

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironsheep/depth-tracker-mcp/internal/depth"
)

func TestIntensity(t *testing.T) {
	f, _ := depth.FrameFromSamples(5, 1, []uint16{0, 4, 5, 1000, depth.Sentinel})

	g := Intensity(f, Scale)

	want := []uint8{0, 0, 1, 100, 255}
	for x, w := range want {
		assert.Equal(t, w, g.GrayAt(x, 0).Y, "x=%d", x)
	}
}

func TestInvert(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 3, 1))
	g.SetGray(0, 0, color.Gray{Y: 0})
	g.SetGray(1, 0, color.Gray{Y: 100})
	g.SetGray(2, 0, color.Gray{Y: 255})

	inv := Invert(g)

	assert.Equal(t, uint8(255), inv.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(155), inv.GrayAt(1, 0).Y)
	assert.Equal(t, uint8(0), inv.GrayAt(2, 0).Y)
}

func TestThreshold(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 1))
	for x, v := range []uint8{0, 74, 75, 200} {
		g.SetGray(x, 0, color.Gray{Y: v})
	}

	tests := []struct {
		name   string
		maxVal uint8
		want   []uint8
	}{
		{"full white", 255, []uint8{0, 0, 255, 255}},
		{"custom max", 128, []uint8{0, 0, 128, 128}},
		{"zero max", 0, []uint8{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Threshold(g, 75, tt.maxVal)
			for x, w := range tt.want {
				assert.Equal(t, w, out.GrayAt(x, 0).Y, "x=%d", x)
			}
		})
	}
}

func TestForegroundBecomesWhite(t *testing.T) {
	// near object at 800 mm over sentinel background
	f := depth.NewFrame(3, 1)
	f.Samples[0] = depth.Sentinel
	f.Samples[1] = 800
	f.Samples[2] = depth.Sentinel

	mask := Threshold(Invert(Intensity(f, Scale)), 75, 255)

	assert.Equal(t, uint8(0), mask.GrayAt(0, 0).Y, "background must be black")
	assert.Equal(t, uint8(255), mask.GrayAt(1, 0).Y, "foreground must be white")
	assert.Equal(t, uint8(0), mask.GrayAt(2, 0).Y, "background must be black")
}

func TestSmooth(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 9, 9))
	for i := range g.Pix {
		g.Pix[i] = 100
	}

	assert.Same(t, g, Smooth(g, 0), "radius 0 must be a no-op")

	out := Smooth(g, 1)
	assert.Equal(t, g.Bounds(), out.Bounds())
	assert.InDelta(t, 100, int(out.GrayAt(4, 4).Y), 1)
	assert.InDelta(t, 100, int(out.GrayAt(0, 0).Y), 1, "edges must not darken")
	assert.InDelta(t, 100, int(out.GrayAt(8, 8).Y), 1, "edges must not darken")
}
