package silhouette

import (
	"image"
	"math"
)

// Epsilon is the maximum distance, in pixels, a simplified contour may
// deviate from the traced boundary.
const Epsilon = 3.0

// Simplify reduces a closed contour with the Douglas-Peucker algorithm.
//
// The loop is split at its first point and the point farthest from it; each
// half is simplified as an open chain and the halves are joined again, so
// the result is still a closed polygon in the original traversal order.
// Contours with fewer than three points are returned as a copy.
func Simplify(contour []image.Point, epsilon float64) []image.Point {
	n := len(contour)
	if n < 3 {
		return append([]image.Point(nil), contour...)
	}

	far, farDist := 0, -1.0
	for i := 1; i < n; i++ {
		if d := dist(contour[0], contour[i]); d > farDist {
			far, farDist = i, d
		}
	}
	if farDist == 0 {
		return []image.Point{contour[0]}
	}

	firstHalf := simplifyOpen(contour[:far+1], epsilon)

	rest := make([]image.Point, 0, n-far+1)
	rest = append(rest, contour[far:]...)
	rest = append(rest, contour[0])
	secondHalf := simplifyOpen(rest, epsilon)

	out := make([]image.Point, 0, len(firstHalf)+len(secondHalf))
	out = append(out, firstHalf...)
	// drop the shared far point and the closing copy of contour[0]
	out = append(out, secondHalf[1:len(secondHalf)-1]...)
	return out
}

// simplifyOpen runs Douglas-Peucker on an open chain, always keeping both
// end points.
func simplifyOpen(pts []image.Point, epsilon float64) []image.Point {
	if len(pts) <= 2 {
		return append([]image.Point(nil), pts...)
	}

	keep := make([]bool, len(pts))
	keep[0], keep[len(pts)-1] = true, true

	type span struct{ lo, hi int }
	stack := []span{{0, len(pts) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idx, maxDist := -1, epsilon
		for i := s.lo + 1; i < s.hi; i++ {
			if d := segmentDistance(pts[i], pts[s.lo], pts[s.hi]); d > maxDist {
				idx, maxDist = i, d
			}
		}
		if idx < 0 {
			continue
		}
		keep[idx] = true
		stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
	}

	out := make([]image.Point, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

// segmentDistance is the distance from p to the segment a-b.
func segmentDistance(p, a, b image.Point) float64 {
	abx, aby := float64(b.X-a.X), float64(b.Y-a.Y)
	apx, apy := float64(p.X-a.X), float64(p.Y-a.Y)
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return math.Hypot(apx, apy)
	}
	t := (apx*abx + apy*aby) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(apx-t*abx, apy-t*aby)
}

func dist(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
