package tracking

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// Evaluate converts contours into candidate shapes.
//
// Each contour's enclosed area is measured with the shoelace formula and
// its centroid is the arithmetic mean of its vertices. Contours with an area
// outside [minArea, maxArea] are dropped; both bounds are inclusive. The
// surviving candidates keep the input order and hold a copy of their
// contour as Hull. Empty contours are skipped.
func Evaluate(contours [][]image.Point, minArea, maxArea float64) []Shape {
	shapes := make([]Shape, 0, len(contours))
	for _, c := range contours {
		if len(c) == 0 {
			continue
		}
		area := PolygonArea(c)
		if area < minArea || area > maxArea {
			continue
		}
		hull := append([]image.Point(nil), c...)
		shapes = append(shapes, NewCandidate(Centroid(c), area, hull))
	}
	return shapes
}

// PolygonArea returns the absolute area of the closed polygon pts.
// Fewer than three vertices enclose nothing.
func PolygonArea(pts []image.Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum int
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// Centroid returns the mean position of pts, or the zero vector for an
// empty slice.
func Centroid(pts []image.Point) r2.Vec {
	if len(pts) == 0 {
		return r2.Vec{}
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = float64(p.X)
		ys[i] = float64(p.Y)
	}
	return r2.Vec{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)}
}
