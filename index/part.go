package index

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"lrs/route"
)

// RoutePart is one polyline of a route together with the measure value at
// every vertex. A route may consist of several parts sharing one ID; their
// measure ranges may be disjoint or overlapping and are never merged.
type RoutePart struct {
	ID       route.ID
	Line     orb.LineString
	Measures []float64
}

// MeasureRange returns the smallest and largest measure on this part. The
// per-vertex measures do not have to increase along the line, so the range is
// computed over all vertices.
func (p *RoutePart) MeasureRange() (float64, float64) {
	min, max := p.Measures[0], p.Measures[0]
	for _, m := range p.Measures[1:] {
		if m < min {
			min = m
		}
		if m > max {
			max = m
		}
	}
	return min, max
}

// ContainsMeasure reports whether the measure lies within the part's range,
// widened by the tolerance on both sides.
func (p *RoutePart) ContainsMeasure(m float64, tolerance float64) bool {
	min, max := p.MeasureRange()
	return m >= min-tolerance && m <= max+tolerance
}

// Closest projects the point onto every segment of the part and returns the
// closest point on the line, the interpolated measure at that point and the
// distance to it.
func (p *RoutePart) Closest(point orb.Point) (orb.Point, float64, float64) {
	bestDistance := math.Inf(1)
	var bestPoint orb.Point
	var bestMeasure float64

	for i := 0; i+1 < len(p.Line); i++ {
		projected, ratio := projectOntoSegment(point, p.Line[i], p.Line[i+1])
		distance := planar.Distance(point, projected)
		if distance < bestDistance {
			bestDistance = distance
			bestPoint = projected
			bestMeasure = p.Measures[i] + ratio*(p.Measures[i+1]-p.Measures[i])
		}
	}

	return bestPoint, bestMeasure, bestDistance
}

// projectOntoSegment returns the closest point to p on the segment [a, b]
// and the clamped projection ratio t within [0, 1].
func projectOntoSegment(p orb.Point, a orb.Point, b orb.Point) (orb.Point, float64) {
	dx := b[0] - a[0]
	dy := b[1] - a[1]

	lengthSquared := dx*dx + dy*dy
	if lengthSquared == 0 {
		// Zero-length segment, the only candidate is the vertex itself.
		return a, 0
	}

	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / lengthSquared
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return orb.Point{a[0] + t*dx, a[1] + t*dy}, t
}
