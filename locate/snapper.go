package locate

import (
	"math"

	"github.com/paulmach/orb"

	"lrs/index"
	"lrs/route"
)

// Snapper projects loose points onto the nearest route within a search
// radius.
type Snapper struct {
	Index  *index.RouteIndex
	Radius float64
}

// Snap finds the nearest route part to the point. When the nearest part is
// further away than the radius, the point is unmatched.
func (s *Snapper) Snap(point orb.Point) (index.SnapResult, error) {
	result, ok := s.Index.Nearest(point, s.Radius)
	if !ok {
		return index.SnapResult{}, NewError(KindUnmatched,
			"no route within radius %v of point (%v, %v)", s.Radius, point[0], point[1])
	}
	return result, nil
}

// SnapTo behaves like Snap but only considers the given parts, e.g. the
// parts of one known route.
func (s *Snapper) SnapTo(parts []*index.RoutePart, point orb.Point) (index.SnapResult, error) {
	result, ok := s.Index.NearestOf(parts, point, s.Radius)
	if !ok {
		return index.SnapResult{}, NewError(KindUnmatched,
			"no candidate route part within radius %v of point (%v, %v)", s.Radius, point[0], point[1])
	}
	return result, nil
}

// PairEvent is a line event synthesized from two points snapped onto the
// same route.
type PairEvent struct {
	RouteID      route.ID
	BeginMeasure float64
	EndMeasure   float64
}

// PairResult is the outcome for one point pair: either an event or the
// reason this pair failed. Exactly one of the two is set.
type PairResult struct {
	Event *PairEvent
	Err   error
}

// SnapPairs consumes the points in fixed pairs (even index = start, next
// index = end) and snaps both independently. A pair becomes a line event
// only if both points snap to the same route; otherwise the pair carries an
// error and later pairs are still processed. A trailing unpaired point is an
// input-shape error returned once, next to the results of all complete
// pairs.
func (s *Snapper) SnapPairs(points []orb.Point) ([]PairResult, error) {
	results := make([]PairResult, len(points)/2)

	for i := 0; i+1 < len(points); i += 2 {
		results[i/2] = s.snapPair(points[i], points[i+1])
	}

	if len(points)%2 != 0 {
		return results, NewError(KindMalformedInputShape,
			"point count %d is odd, the trailing point cannot form a pair", len(points))
	}
	return results, nil
}

func (s *Snapper) snapPair(start orb.Point, end orb.Point) PairResult {
	startSnap, err := s.Snap(start)
	if err != nil {
		return PairResult{Err: err}
	}
	endSnap, err := s.Snap(end)
	if err != nil {
		return PairResult{Err: err}
	}

	if startSnap.RouteID != endSnap.RouteID {
		return PairResult{Err: NewError(KindMismatchedPairRoutes,
			"pair points snap to different routes %q and %q", startSnap.RouteID, endSnap.RouteID)}
	}

	return PairResult{Event: &PairEvent{
		RouteID:      startSnap.RouteID,
		BeginMeasure: math.Min(startSnap.Measure, endSnap.Measure),
		EndMeasure:   math.Max(startSnap.Measure, endSnap.Measure),
	}}
}
