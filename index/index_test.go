package index

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"lrs/route"
	"lrs/util"
)

type sliceLayer []RouteFeature

func (l sliceLayer) EachRoute(handle func(feature RouteFeature) error) error {
	for _, feature := range l {
		if err := handle(feature); err != nil {
			return err
		}
	}
	return nil
}

func straightRoute(routeID string, y float64, m0 float64, m1 float64) RouteFeature {
	return RouteFeature{
		RouteID:  routeID,
		Line:     orb.LineString{{0, y}, {10, y}},
		Measures: []float64{m0, m1},
	}
}

func TestBuild(t *testing.T) {
	// Arrange
	layer := sliceLayer{
		straightRoute("005i", 0, 0, 10),
		straightRoute("005d", 1, 0, 10),
		straightRoute("101", 2, 0, 10),
	}

	// Act
	idx, err := Build(layer)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 3, idx.Len())
	util.AssertEqual(t, 2, len(idx.FindByID(route.ID{Base: "005"}, route.MaskAll)))
	util.AssertEqual(t, 1, len(idx.FindByID(route.ID{Base: "101"}, route.MaskAll)))
}

func TestBuild_structuralErrors(t *testing.T) {
	_, err := Build(sliceLayer{})
	util.AssertNotNil(t, err)

	_, err = Build(sliceLayer{{RouteID: "005", Line: orb.LineString{{0, 0}}, Measures: []float64{0}}})
	util.AssertNotNil(t, err)

	_, err = Build(sliceLayer{{RouteID: "005", Line: orb.LineString{{0, 0}, {1, 0}}, Measures: []float64{0}}})
	util.AssertNotNil(t, err)

	_, err = Build(sliceLayer{{RouteID: "  ", Line: orb.LineString{{0, 0}, {1, 0}}, Measures: []float64{0, 1}}})
	util.AssertNotNil(t, err)
}

func TestBuild_layerErrorIsPropagated(t *testing.T) {
	layerErr := errors.Errorf("broken layer")
	layer := erroringLayer{err: layerErr}

	_, err := Build(layer)

	util.AssertNotNil(t, err)
	util.AssertTrue(t, errors.Is(err, layerErr))
}

type erroringLayer struct {
	err error
}

func (l erroringLayer) EachRoute(handle func(feature RouteFeature) error) error {
	return l.err
}

func TestFindByID_masks(t *testing.T) {
	idx, err := Build(sliceLayer{
		straightRoute("005i", 0, 0, 10),
		straightRoute("005d", 1, 0, 10),
	})
	util.AssertNil(t, err)

	unsuffixed := route.ID{Base: "005"}
	increasing := route.ID{Base: "005", Suffix: route.SuffixIncreasing}

	util.AssertEqual(t, 2, len(idx.FindByID(unsuffixed, route.MaskAll)))
	util.AssertEqual(t, 0, len(idx.FindByID(unsuffixed, route.MaskNone)))
	util.AssertEqual(t, 1, len(idx.FindByID(increasing, route.MaskIncreasing)))
	util.AssertEqual(t, 0, len(idx.FindByID(route.ID{Base: "101"}, route.MaskAll)))
}

func TestRoutePart_MeasureRange(t *testing.T) {
	part := RoutePart{
		Line:     orb.LineString{{0, 0}, {5, 0}, {10, 0}},
		Measures: []float64{10, 0, 5},
	}

	min, max := part.MeasureRange()

	util.AssertEqual(t, 0.0, min)
	util.AssertEqual(t, 10.0, max)
	util.AssertTrue(t, part.ContainsMeasure(10.2, 0.5))
	util.AssertFalse(t, part.ContainsMeasure(10.2, 0))
}

func TestRoutePart_Closest(t *testing.T) {
	// Arrange
	part := RoutePart{
		ID:       route.ID{Base: "005", Suffix: route.SuffixIncreasing},
		Line:     orb.LineString{{0, 0}, {10, 0}},
		Measures: []float64{0, 10},
	}

	// Act
	point, measure, distance := part.Closest(orb.Point{5, 3})

	// Assert
	util.AssertEqual(t, orb.Point{5, 0}, point)
	util.AssertApprox(t, 5.0, measure, 1e-12)
	util.AssertApprox(t, 3.0, distance, 1e-12)
}

func TestRoutePart_Closest_beyondEnds(t *testing.T) {
	part := RoutePart{
		Line:     orb.LineString{{0, 0}, {10, 0}},
		Measures: []float64{0, 10},
	}

	// Projection is clamped to the segment, the nearest vertex wins.
	point, measure, _ := part.Closest(orb.Point{12, 1})

	util.AssertEqual(t, orb.Point{10, 0}, point)
	util.AssertApprox(t, 10.0, measure, 1e-12)
}

func TestNearest(t *testing.T) {
	idx, err := Build(sliceLayer{
		straightRoute("005i", 0, 0, 10),
		straightRoute("101", 5, 0, 10),
	})
	util.AssertNil(t, err)

	result, ok := idx.Nearest(orb.Point{5, 1}, 50)

	util.AssertTrue(t, ok)
	util.AssertEqual(t, route.ID{Base: "005", Suffix: route.SuffixIncreasing}, result.RouteID)
	util.AssertApprox(t, 5.0, result.Measure, 1e-12)
	util.AssertApprox(t, 1.0, result.Distance, 1e-12)
}

func TestNearest_radiusExceeded(t *testing.T) {
	idx, err := Build(sliceLayer{straightRoute("005i", 0, 0, 10)})
	util.AssertNil(t, err)

	_, ok := idx.Nearest(orb.Point{5, 2}, 1)

	util.AssertFalse(t, ok)
}

func TestNearest_tieBreakIsArenaOrder(t *testing.T) {
	// Two parts with identical geometry: the first one built wins.
	idx, err := Build(sliceLayer{
		straightRoute("101i", 0, 0, 10),
		straightRoute("005i", 0, 0, 10),
	})
	util.AssertNil(t, err)

	result, ok := idx.Nearest(orb.Point{5, 1}, 50)

	util.AssertTrue(t, ok)
	util.AssertEqual(t, "101", result.RouteID.Base)
}
