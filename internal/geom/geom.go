package geom

import "math"

// Point is a planar position in network coordinates (meters).
type Point struct {
	X float64
	Y float64
}

// Distance is the straight-line distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// CumDistances returns the running length at each vertex of the polyline.
func CumDistances(shape []Point) []float64 {
	n := len(shape)
	if n == 0 {
		return nil
	}
	cum := make([]float64, n)
	sum := 0.0
	for i := 1; i < n; i++ {
		sum += Distance(shape[i-1], shape[i])
		cum[i] = sum
	}
	return cum
}

// Length is the total length of the polyline.
func Length(shape []Point) float64 {
	cum := CumDistances(shape)
	if len(cum) == 0 {
		return 0
	}
	return cum[len(cum)-1]
}

// PositionAtShapeOffset walks offset meters along the polyline and returns the
// point reached. Offsets before the start or past the end clamp to the first
// or last vertex.
func PositionAtShapeOffset(shape []Point, offset float64) Point {
	n := len(shape)
	if n == 0 {
		return Point{}
	}
	if offset <= 0 || n == 1 {
		return shape[0]
	}
	seen := 0.0
	for i := 1; i < n; i++ {
		p0, p1 := shape[i-1], shape[i]
		seg := Distance(p0, p1)
		if seen+seg > offset {
			frac := (offset - seen) / seg
			return Point{
				X: p0.X + (p1.X-p0.X)*frac,
				Y: p0.Y + (p1.Y-p0.Y)*frac,
			}
		}
		seen += seg
	}
	return shape[n-1]
}

// Heading is the angle in radians of the vector a -> b, measured from the x axis.
func Heading(a, b Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// AngleDiff is the absolute difference between two headings wrapped to [0, pi].
func AngleDiff(a, b float64) float64 {
	d := a - b
	return math.Abs(math.Atan2(math.Sin(d), math.Cos(d)))
}
