package events

import (
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"lrs/locate"
	"lrs/route"
)

// LocateOperation turns (route ID, measure) rows into point geometries and
// (route ID, begin, end) rows into polyline geometries (dynamic
// segmentation).
type LocateOperation struct {
	Locator *locate.Locator
	Mask    route.SuffixMask
}

func (o *LocateOperation) Name() string {
	return "locate"
}

func (o *LocateOperation) Process(row Row) LocatedEvent {
	id, err := route.Parse(row.RouteID)
	if err != nil {
		return failedEvent(row, err)
	}

	var geometry orb.Geometry
	if row.EndMeasure == nil {
		geometry, err = o.Locator.LocatePoint(id, row.BeginMeasure, o.Mask)
	} else {
		geometry, err = o.Locator.LocateLine(id, row.BeginMeasure, *row.EndMeasure, o.Mask)
	}
	if err != nil {
		return failedEvent(row, err)
	}

	return LocatedEvent{
		EventOID: row.OID,
		Geometry: geometry,
	}
}

// StandardizeOperation combines a route-code column and a direction column
// into one canonical route ID string. The combined ID is written even when
// validation flags the row; the diagnostic goes into the error field next to
// it.
type StandardizeOperation struct {
	// Policy is the suffix format of the target route layer. Unsuffixed
	// output makes no sense for a combined ID, so MaskNone is rejected.
	Policy route.SuffixMask
	// KnownCodes optionally restricts the result to an allow-list of base
	// route codes. Unknown codes are diagnosed, not blocked.
	KnownCodes map[string]struct{}
	// Strict surfaces unknown direction text as a row error instead of
	// silently treating it as increasing.
	Strict bool
}

func NewStandardizeOperation(policy route.SuffixMask, knownCodes map[string]struct{}, strict bool) (*StandardizeOperation, error) {
	if policy == route.MaskNone {
		return nil, errors.Errorf("Suffix policy %q is not valid for standardizing, the combined ID always carries a direction", policy)
	}
	return &StandardizeOperation{
		Policy:     policy,
		KnownCodes: knownCodes,
		Strict:     strict,
	}, nil
}

func (o *StandardizeOperation) Name() string {
	return "standardize"
}

func (o *StandardizeOperation) Process(row Row) LocatedEvent {
	if strings.TrimSpace(row.RouteID) == "" {
		return LocatedEvent{EventOID: row.OID, Error: "input route ID is null"}
	}

	id, err := route.Combine(row.RouteID, row.Direction)
	if err != nil {
		var unknownDirection *route.UnknownDirectionError
		if !errors.As(err, &unknownDirection) {
			return failedEvent(row, err)
		}
		// The base code is still usable; without strict validation the
		// unknown direction falls back to increasing, like blank text does.
		if !o.Strict {
			err = nil
		}
	}

	standardized := id.Base
	switch {
	case id.Suffix == route.SuffixDecreasing && (o.Policy == route.MaskDecreasing || o.Policy == route.MaskAll):
		standardized += "d"
	case o.Policy == route.MaskIncreasing || o.Policy == route.MaskAll:
		standardized += "i"
	}

	located := LocatedEvent{
		EventOID:       row.OID,
		StandardizedID: standardized,
	}
	if err != nil {
		located.Error = err.Error()
	} else if o.KnownCodes != nil {
		if _, known := o.KnownCodes[id.Base]; !known {
			located.Error = "unknown route code " + id.Base
		}
	}
	return located
}

// UpdateOperation re-resolves features against the authoritative route
// layer: the geometry is always freshly computed, and the measures written
// back are rounded to RoundingDigits. With UseInputMeasure the row's own
// measures are trusted verbatim; otherwise they are recomputed by snapping
// the row's geometry onto the route.
type UpdateOperation struct {
	Locator         *locate.Locator
	Snapper         *locate.Snapper
	Mask            route.SuffixMask
	RoundingDigits  int
	UseInputMeasure bool
}

func (o *UpdateOperation) Name() string {
	return "update"
}

func (o *UpdateOperation) Process(row Row) LocatedEvent {
	id, err := route.Parse(row.RouteID)
	if err != nil {
		return failedEvent(row, err)
	}

	if o.UseInputMeasure {
		return o.relocateFromMeasures(row, id)
	}
	return o.relocateFromGeometry(row, id)
}

func (o *UpdateOperation) relocateFromMeasures(row Row, id route.ID) LocatedEvent {
	if row.EndMeasure == nil {
		point, err := o.Locator.LocatePoint(id, row.BeginMeasure, o.Mask)
		if err != nil {
			return failedEvent(row, err)
		}
		return o.updatedEvent(row, point, row.BeginMeasure, nil)
	}

	line, err := o.Locator.LocateLine(id, row.BeginMeasure, *row.EndMeasure, o.Mask)
	if err != nil {
		return failedEvent(row, err)
	}
	return o.updatedEvent(row, line, row.BeginMeasure, row.EndMeasure)
}

func (o *UpdateOperation) relocateFromGeometry(row Row, id route.ID) LocatedEvent {
	parts := o.Locator.Index.FindByID(id, o.Mask)
	if len(parts) == 0 {
		return failedEvent(row, locate.NewError(locate.KindNoMatchingRoute,
			"no route matches ID %q under suffix mask %q", id, o.Mask))
	}

	switch geometry := row.Geometry.(type) {
	case orb.Point:
		snap, err := o.Snapper.SnapTo(parts, geometry)
		if err != nil {
			return failedEvent(row, err)
		}
		point, err := o.Locator.LocatePoint(id, snap.Measure, o.Mask)
		if err != nil {
			return failedEvent(row, err)
		}
		return o.updatedEvent(row, point, snap.Measure, nil)

	case orb.LineString:
		if len(geometry) == 0 {
			return LocatedEvent{EventOID: row.OID, Error: "event geometry is empty"}
		}
		beginSnap, err := o.Snapper.SnapTo(parts, geometry[0])
		if err != nil {
			return failedEvent(row, err)
		}
		endSnap, err := o.Snapper.SnapTo(parts, geometry[len(geometry)-1])
		if err != nil {
			return failedEvent(row, err)
		}
		line, err := o.Locator.LocateLine(id, beginSnap.Measure, endSnap.Measure, o.Mask)
		if err != nil {
			return failedEvent(row, err)
		}
		return o.updatedEvent(row, line, beginSnap.Measure, &endSnap.Measure)
	}

	return LocatedEvent{EventOID: row.OID, Error: "event geometry is null or neither point nor polyline"}
}

func (o *UpdateOperation) updatedEvent(row Row, geometry orb.Geometry, begin float64, end *float64) LocatedEvent {
	roundedBegin := roundTo(begin, o.RoundingDigits)
	located := LocatedEvent{
		EventOID:     row.OID,
		Geometry:     geometry,
		BeginMeasure: &roundedBegin,
	}
	if end != nil {
		roundedEnd := roundTo(*end, o.RoundingDigits)
		located.EndMeasure = &roundedEnd
	}
	return located
}

// roundTo rounds half away from zero to the given number of decimal digits.
func roundTo(value float64, digits int) float64 {
	factor := math.Pow(10, float64(digits))
	return math.Round(value*factor) / factor
}

// exactMaskFor returns the strictest mask that still matches the ID against
// itself, used when the ID came out of the index and must not match sibling
// suffixes.
func exactMaskFor(id route.ID) route.SuffixMask {
	switch id.Suffix {
	case route.SuffixIncreasing:
		return route.MaskIncreasing
	case route.SuffixDecreasing:
		return route.MaskDecreasing
	}
	return route.MaskNone
}
