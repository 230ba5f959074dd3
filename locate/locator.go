package locate

import (
	"math"

	"github.com/paulmach/orb"

	"lrs/index"
	"lrs/route"
)

// Locator computes point and line geometries from (route ID, measure)
// coordinates by interpolating along the indexed route parts (dynamic
// segmentation).
//
// Tolerance widens all measure comparisons symmetrically to absorb
// floating-point noise from upstream measure storage. The zero value means
// exact comparison.
type Locator struct {
	Index     *index.RouteIndex
	Tolerance float64
}

// LocatePoint interpolates the point at the given measure on the route. The
// measure must be contained (inclusive, within tolerance) by exactly one of
// the parts matching the ID under the mask.
func (l *Locator) LocatePoint(id route.ID, measure float64, mask route.SuffixMask) (orb.Point, error) {
	part, err := l.candidate(id, mask, measure)
	if err != nil {
		return orb.Point{}, err
	}

	_, _, point, bracketErr := l.bracket(part, measure)
	if bracketErr != nil {
		return orb.Point{}, bracketErr
	}
	return point, nil
}

// LocateLine extracts the sub-polyline between the two measures on the
// route. Begin and end are ordered before extraction, so callers may pass
// them either way around. Both measures must be contained by the same single
// part: a partial overlap is a full failure, never a truncated line.
func (l *Locator) LocateLine(id route.ID, beginMeasure float64, endMeasure float64, mask route.SuffixMask) (orb.LineString, error) {
	if beginMeasure > endMeasure {
		beginMeasure, endMeasure = endMeasure, beginMeasure
	}

	part, err := l.candidate(id, mask, beginMeasure, endMeasure)
	if err != nil {
		return nil, err
	}

	beginSeg, beginT, beginPoint, bracketErr := l.bracket(part, beginMeasure)
	if bracketErr != nil {
		return nil, bracketErr
	}
	endSeg, endT, endPoint, bracketErr := l.bracket(part, endMeasure)
	if bracketErr != nil {
		return nil, bracketErr
	}

	// Vertex measures may decrease along the part, so the begin measure can
	// lie behind the end measure in arc order. Emit the line in arc order.
	if endSeg < beginSeg || (endSeg == beginSeg && endT < beginT) {
		beginSeg, endSeg = endSeg, beginSeg
		beginPoint, endPoint = endPoint, beginPoint
	}

	line := orb.LineString{beginPoint}
	for i := beginSeg + 1; i <= endSeg; i++ {
		appendVertex(&line, part.Line[i])
	}
	appendVertex(&line, endPoint)

	if len(line) < 2 {
		// Zero-length span, keep it a valid two-point line.
		line = append(line, line[0])
	}

	return line, nil
}

// candidate selects the single part matching the ID under the mask that
// contains all given measures. No part matching the ID at all, no part
// containing the measures, or more than one containing them are the three
// distinct failures of the error taxonomy.
func (l *Locator) candidate(id route.ID, mask route.SuffixMask, measures ...float64) (*index.RoutePart, error) {
	parts := l.Index.FindByID(id, mask)
	if len(parts) == 0 {
		return nil, NewError(KindNoMatchingRoute, "no route matches ID %q under suffix mask %q", id, mask)
	}

	var candidates []*index.RoutePart
	for _, part := range parts {
		containsAll := true
		for _, m := range measures {
			if !part.ContainsMeasure(m, l.Tolerance) {
				containsAll = false
				break
			}
		}
		if containsAll {
			candidates = append(candidates, part)
		}
	}

	switch len(candidates) {
	case 0:
		return nil, NewError(KindMeasureOutOfRange, "measures %v lie outside every part of route %q", measures, id)
	case 1:
		return candidates[0], nil
	}
	return nil, NewError(KindAmbiguousRoute, "%d parts of route %q contain measures %v", len(candidates), id, measures)
}

// bracket walks the part's segments in arc order and returns the first
// segment whose vertex measures bracket the target, together with the
// position on that segment and the interpolated point. A measure exactly on
// a vertex returns that vertex coordinate unchanged.
//
// Exact containment is checked on all segments before the tolerance comes
// into play: the widened window of a zero-span segment must not shadow a
// later segment that genuinely brackets the measure.
func (l *Locator) bracket(part *index.RoutePart, measure float64) (int, float64, orb.Point, error) {
	tolerances := []float64{0}
	if l.Tolerance > 0 {
		tolerances = append(tolerances, l.Tolerance)
	}

	for _, tolerance := range tolerances {
		for i := 0; i+1 < len(part.Line); i++ {
			m0, m1 := part.Measures[i], part.Measures[i+1]
			lo, hi := math.Min(m0, m1), math.Max(m0, m1)
			if measure < lo-tolerance || measure > hi+tolerance {
				continue
			}

			if measure == m0 {
				return i, 0, part.Line[i], nil
			}
			if measure == m1 {
				return i, 1, part.Line[i+1], nil
			}
			if m1 == m0 {
				return 0, 0, orb.Point{}, NewError(KindDegenerateSegment,
					"measure %v falls on a zero-length measure span at vertex %d of route %q", measure, i, part.ID)
			}

			t := (measure - m0) / (m1 - m0)
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
			p0, p1 := part.Line[i], part.Line[i+1]
			point := orb.Point{p0[0] + t*(p1[0]-p0[0]), p0[1] + t*(p1[1]-p0[1])}
			return i, t, point, nil
		}
	}

	return 0, 0, orb.Point{}, NewError(KindMeasureOutOfRange,
		"measure %v lies outside route %q", measure, part.ID)
}

// appendVertex appends the point unless it equals the current last vertex,
// which happens when an interpolated boundary point coincides with a vertex.
func appendVertex(line *orb.LineString, point orb.Point) {
	if len(*line) > 0 && (*line)[len(*line)-1] == point {
		return
	}
	*line = append(*line, point)
}
