package locate

import (
	"testing"

	"github.com/paulmach/orb"

	"lrs/index"
	"lrs/route"
	"lrs/util"
)

func TestSnap(t *testing.T) {
	// Arrange
	snapper := &Snapper{Index: buildIndex(t, route005()), Radius: 1.0}

	// Act
	result, err := snapper.Snap(orb.Point{5, 0.1})

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, route.ID{Base: "005"}, result.RouteID)
	util.AssertApprox(t, 5.0, result.Measure, 1e-12)
	util.AssertApprox(t, 0.1, result.Distance, 1e-12)
}

func TestSnap_unmatchedBeyondRadius(t *testing.T) {
	snapper := &Snapper{Index: buildIndex(t, route005()), Radius: 1.0}

	_, err := snapper.Snap(orb.Point{5, 2})

	util.AssertNotNil(t, err)
	util.AssertEqual(t, KindUnmatched, KindOf(err))
}

func TestSnap_roundTripWithLocate(t *testing.T) {
	idx := buildIndex(t, route005())
	snapper := &Snapper{Index: idx, Radius: 1.0}
	locator := &Locator{Index: idx}

	// A point exactly on the route snaps with distance 0 ...
	onRoute := orb.Point{3.25, 0}
	result, err := snapper.Snap(onRoute)
	util.AssertNil(t, err)
	util.AssertApprox(t, 0.0, result.Distance, 1e-12)

	// ... and re-locating its measure returns the same point.
	relocated, err := locator.LocatePoint(result.RouteID, result.Measure, route.MaskAll)
	util.AssertNil(t, err)
	util.AssertApprox(t, onRoute[0], relocated[0], 1e-9)
	util.AssertApprox(t, onRoute[1], relocated[1], 1e-9)
}

func TestSnapTo_restrictsCandidates(t *testing.T) {
	idx := buildIndex(t,
		route005(),
		index.RouteFeature{
			RouteID:  "101",
			Line:     orb.LineString{{0, 0.2}, {10, 0.2}},
			Measures: []float64{0, 10},
		},
	)
	snapper := &Snapper{Index: idx, Radius: 1.0}
	parts := idx.FindByID(route.ID{Base: "005"}, route.MaskAll)

	// The 101 route is closer, but only 005 parts are candidates.
	result, err := snapper.SnapTo(parts, orb.Point{5, 0.15})

	util.AssertNil(t, err)
	util.AssertEqual(t, "005", result.RouteID.Base)
}

func TestSnapPairs(t *testing.T) {
	// Arrange
	snapper := &Snapper{Index: buildIndex(t, route005()), Radius: 1.0}
	points := []orb.Point{{0, 0.1}, {10, 0.1}}

	// Act
	results, err := snapper.SnapPairs(points)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 1, len(results))
	util.AssertNil(t, results[0].Err)
	util.AssertEqual(t, route.ID{Base: "005"}, results[0].Event.RouteID)
	util.AssertApprox(t, 0.0, results[0].Event.BeginMeasure, 1e-9)
	util.AssertApprox(t, 10.0, results[0].Event.EndMeasure, 1e-9)
}

func TestSnapPairs_ordersMeasures(t *testing.T) {
	snapper := &Snapper{Index: buildIndex(t, route005()), Radius: 1.0}

	// Start point snaps to the higher measure.
	results, err := snapper.SnapPairs([]orb.Point{{10, 0.1}, {0, 0.1}})

	util.AssertNil(t, err)
	util.AssertApprox(t, 0.0, results[0].Event.BeginMeasure, 1e-9)
	util.AssertApprox(t, 10.0, results[0].Event.EndMeasure, 1e-9)
}

func TestSnapPairs_mismatchedRoutes(t *testing.T) {
	snapper := &Snapper{
		Index: buildIndex(t,
			route005(),
			index.RouteFeature{
				RouteID:  "101",
				Line:     orb.LineString{{0, 100}, {10, 100}},
				Measures: []float64{0, 10},
			},
		),
		Radius: 1.0,
	}

	results, err := snapper.SnapPairs([]orb.Point{{0, 0.1}, {5, 100.1}})

	util.AssertNil(t, err)
	util.AssertEqual(t, 1, len(results))
	util.AssertNotNil(t, results[0].Err)
	util.AssertEqual(t, KindMismatchedPairRoutes, KindOf(results[0].Err))
}

func TestSnapPairs_unmatchedPoint(t *testing.T) {
	snapper := &Snapper{Index: buildIndex(t, route005()), Radius: 1.0}

	results, err := snapper.SnapPairs([]orb.Point{{0, 0.1}, {5, 50}})

	util.AssertNil(t, err)
	util.AssertNotNil(t, results[0].Err)
	util.AssertEqual(t, KindUnmatched, KindOf(results[0].Err))
}

func TestSnapPairs_oddCountIsReportedOnce(t *testing.T) {
	snapper := &Snapper{Index: buildIndex(t, route005()), Radius: 1.0}

	// The complete pair is still processed, the trailing point is an input
	// shape error.
	results, err := snapper.SnapPairs([]orb.Point{{0, 0.1}, {10, 0.1}, {5, 0.1}})

	util.AssertNotNil(t, err)
	util.AssertEqual(t, KindMalformedInputShape, KindOf(err))
	util.AssertEqual(t, 1, len(results))
	util.AssertNil(t, results[0].Err)
}
