package silhouette

import "image"

// Moore neighbourhood, clockwise in image coordinates (Y down), starting east.
var neighbours = [8]image.Point{
	{X: 1, Y: 0},   // E
	{X: 1, Y: 1},   // SE
	{X: 0, Y: 1},   // S
	{X: -1, Y: 1},  // SW
	{X: -1, Y: 0},  // W
	{X: -1, Y: -1}, // NW
	{X: 0, Y: -1},  // N
	{X: 1, Y: -1},  // NE
}

const dirWest = 4

// component is one 8-connected foreground region of a mask.
type component struct {
	label int
	start image.Point // first pixel in raster order
	outer bool
}

// FindOuterContours returns the outer boundary of every 8-connected
// component of non-zero pixels in mask.
//
// Only components reachable from the image border without crossing
// foreground are reported: hole boundaries and components lying inside a
// hole of another component are discarded. Each contour starts at the
// component's top-left pixel, runs clockwise, and has collinear runs
// compressed to their end points. An isolated pixel yields a one-point
// contour.
//
// Returned points are in the mask's coordinate space. An empty or all-zero
// mask yields no contours.
func FindOuterContours(mask *image.Gray) [][]image.Point {
	bounds := mask.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	fg := make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			fg[y*width+x] = mask.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y != 0
		}
	}

	labels, comps := labelComponents(fg, width, height)
	markOuter(fg, labels, comps, width, height)

	contours := make([][]image.Point, 0, len(comps))
	for _, c := range comps {
		if !c.outer {
			continue
		}
		contour := compressChain(traceBoundary(labels, width, height, c))
		for i := range contour {
			contour[i] = contour[i].Add(bounds.Min)
		}
		contours = append(contours, contour)
	}
	return contours
}

// labelComponents assigns labels 1..n to 8-connected foreground regions in
// raster discovery order. Label 0 is background.
//
// Uses an explicit stack rather than recursion so large blobs cannot
// overflow the goroutine stack.
func labelComponents(fg []bool, width, height int) ([]int, []component) {
	labels := make([]int, width*height)
	var comps []component
	var stack []image.Point

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !fg[y*width+x] || labels[y*width+x] != 0 {
				continue
			}

			label := len(comps) + 1
			comps = append(comps, component{label: label, start: image.Point{X: x, Y: y}})
			labels[y*width+x] = label
			stack = append(stack[:0], image.Point{X: x, Y: y})

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for _, d := range neighbours {
					q := p.Add(d)
					if q.X < 0 || q.Y < 0 || q.X >= width || q.Y >= height {
						continue
					}
					i := q.Y*width + q.X
					if fg[i] && labels[i] == 0 {
						labels[i] = label
						stack = append(stack, q)
					}
				}
			}
		}
	}
	return labels, comps
}

// markOuter flags the components that border the outside region: the
// background 4-connected to the image edge, plus the edge itself.
// Background must use 4-connectivity because foreground uses 8.
func markOuter(fg []bool, labels []int, comps []component, width, height int) {
	outside := make([]bool, width*height)
	var stack []image.Point

	seed := func(x, y int) {
		i := y*width + x
		if !fg[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, image.Point{X: x, Y: y})
		}
	}
	for x := 0; x < width; x++ {
		seed(x, 0)
		seed(x, height-1)
	}
	for y := 0; y < height; y++ {
		seed(0, y)
		seed(width-1, y)
	}

	axis := [4]image.Point{{X: 1}, {Y: 1}, {X: -1}, {Y: -1}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range axis {
			q := p.Add(d)
			if q.X < 0 || q.Y < 0 || q.X >= width || q.Y >= height {
				continue
			}
			seed(q.X, q.Y)
		}
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			label := labels[y*width+x]
			if label == 0 || comps[label-1].outer {
				continue
			}
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				comps[label-1].outer = true
				continue
			}
			for _, d := range axis {
				if outside[(y+d.Y)*width+x+d.X] {
					comps[label-1].outer = true
					break
				}
			}
		}
	}
}

// traceBoundary walks the outer boundary of one component with Moore
// neighbour tracing and Jacob's stopping criterion: the walk ends when it
// is back on the start pixel about to repeat its first move.
func traceBoundary(labels []int, width, height int, c component) []image.Point {
	inside := func(p image.Point) bool {
		return p.X >= 0 && p.Y >= 0 && p.X < width && p.Y < height && labels[p.Y*width+p.X] == c.label
	}

	start := c.start
	pts := []image.Point{start}
	cur := start
	back := dirWest // left of the first raster pixel is never in the component
	first := -1
	maxSteps := 4*width*height + 8

	for steps := 0; steps < maxSteps; steps++ {
		d := -1
		for i := 1; i <= 8; i++ {
			cand := (back + i) % 8
			if inside(cur.Add(neighbours[cand])) {
				d = cand
				break
			}
		}
		if d < 0 {
			break // isolated pixel
		}
		if cur == start && d == first {
			break
		}
		if first < 0 {
			first = d
		}

		cur = cur.Add(neighbours[d])
		pts = append(pts, cur)

		// the last background neighbour examined, seen from the new pixel
		if d%2 == 0 {
			back = (d + 6) % 8
		} else {
			back = (d + 5) % 8
		}
	}

	if len(pts) > 1 && pts[len(pts)-1] == start {
		pts = pts[:len(pts)-1]
	}
	return pts
}

// compressChain drops every point whose incoming and outgoing unit steps
// share a direction, keeping only the corners of the closed chain.
func compressChain(pts []image.Point) []image.Point {
	n := len(pts)
	if n <= 2 {
		return pts
	}
	out := make([]image.Point, 0, n)
	for i := 0; i < n; i++ {
		prev := pts[(i+n-1)%n]
		next := pts[(i+1)%n]
		if pts[i].Sub(prev) == next.Sub(pts[i]) {
			continue
		}
		out = append(out, pts[i])
	}
	if len(out) == 0 {
		return pts[:1]
	}
	return out
}
