package index

import (
	"strings"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"lrs/route"
)

// RouteIndex holds all route parts of a route layer in one flat arena,
// grouped by base route code. It is built once per batch run and read-only
// afterwards, so concurrent lookups need no locking.
type RouteIndex struct {
	parts  []RoutePart
	byBase map[string][]int
}

// SnapResult is a successful nearest-route match.
type SnapResult struct {
	RouteID  route.ID
	Measure  float64
	Distance float64
}

// Build reads all features from the route layer and indexes them. Features
// with unparsable route IDs, fewer than two vertices or a measure count that
// does not match the vertex count are structural errors: the whole build
// fails, no partial index is returned. An empty layer is an error as well.
func Build(layer RouteLayer) (*RouteIndex, error) {
	buildStartTime := time.Now()

	idx := &RouteIndex{
		byBase: map[string][]int{},
	}

	err := layer.EachRoute(func(feature RouteFeature) error {
		id, err := route.Parse(feature.RouteID)
		if err != nil {
			return errors.Wrapf(err, "Unable to index route feature %q", feature.RouteID)
		}
		if len(feature.Line) < 2 {
			return errors.Errorf("Route %q has %d vertices but needs at least 2", feature.RouteID, len(feature.Line))
		}
		if len(feature.Measures) != len(feature.Line) {
			return errors.Errorf("Route %q has %d vertices but %d measures", feature.RouteID, len(feature.Line), len(feature.Measures))
		}

		idx.parts = append(idx.parts, RoutePart{
			ID:       id,
			Line:     feature.Line,
			Measures: feature.Measures,
		})
		base := strings.ToUpper(id.Base)
		idx.byBase[base] = append(idx.byBase[base], len(idx.parts)-1)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(idx.parts) == 0 {
		return nil, errors.Errorf("Route layer contains no route features")
	}

	buildDuration := time.Since(buildStartTime)
	sigolo.Debugf("Built route index with %d parts of %d routes in %s", len(idx.parts), len(idx.byBase), buildDuration)

	return idx, nil
}

// Len returns the number of parts in the index.
func (idx *RouteIndex) Len() int {
	return len(idx.parts)
}

// Parts returns all parts in arena order.
func (idx *RouteIndex) Parts() []*RoutePart {
	parts := make([]*RoutePart, len(idx.parts))
	for i := range idx.parts {
		parts[i] = &idx.parts[i]
	}
	return parts
}

// FindByID returns all parts whose ID matches the given one under the mask,
// in arena order. Parts of one route are deliberately kept separate: their
// measure ranges may have gaps, which callers must report instead of bridge.
func (idx *RouteIndex) FindByID(id route.ID, mask route.SuffixMask) []*RoutePart {
	var result []*RoutePart
	for _, i := range idx.byBase[strings.ToUpper(id.Base)] {
		part := &idx.parts[i]
		if route.Matches(part.ID, id, mask) {
			result = append(result, part)
		}
	}
	return result
}

// Nearest scans all parts for the one closest to the point. Parts further
// away than the radius are ignored; with no part within the radius the
// second return value is false. Equal distances keep the part with the
// lowest arena index. That tie-break is a deterministic convention, not a
// geometric statement.
func (idx *RouteIndex) Nearest(point orb.Point, radius float64) (SnapResult, bool) {
	return nearestOfParts(idx.Parts(), point, radius)
}

// NearestOf behaves like Nearest but only considers the given subset of
// parts, e.g. the parts of one known route.
func (idx *RouteIndex) NearestOf(parts []*RoutePart, point orb.Point, radius float64) (SnapResult, bool) {
	return nearestOfParts(parts, point, radius)
}

func nearestOfParts(parts []*RoutePart, point orb.Point, radius float64) (SnapResult, bool) {
	var best SnapResult
	found := false

	for _, part := range parts {
		_, measure, distance := part.Closest(point)
		if distance > radius {
			continue
		}
		if !found || distance < best.Distance {
			best = SnapResult{
				RouteID:  part.ID,
				Measure:  measure,
				Distance: distance,
			}
			found = true
		}
	}

	return best, found
}
