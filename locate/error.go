package locate

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the row-scoped failures of locating and snapping.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindNoMatchingRoute: no route part matches the ID under the mask.
	KindNoMatchingRoute
	// KindAmbiguousRoute: more than one candidate part contains the measure.
	KindAmbiguousRoute
	// KindMeasureOutOfRange: the measure lies outside every candidate part.
	KindMeasureOutOfRange
	// KindDegenerateSegment: zero measure span between adjacent vertices.
	KindDegenerateSegment
	// KindUnmatched: the nearest route exceeds the search radius.
	KindUnmatched
	// KindMismatchedPairRoutes: paired points snap to different routes.
	KindMismatchedPairRoutes
	// KindMalformedInputShape: the input collection itself is malformed,
	// e.g. an odd point count when pairing.
	KindMalformedInputShape
)

// Error is a row-scoped location failure. It is a value, not control flow:
// it never crosses the row boundary other than as the row's error text.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// KindOf extracts the ErrorKind from an error, KindUnknown for foreign
// errors.
func KindOf(err error) ErrorKind {
	var locErr *Error
	if errors.As(err, &locErr) {
		return locErr.Kind
	}
	return KindUnknown
}

// NewError builds a row-scoped failure of the given kind.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}
