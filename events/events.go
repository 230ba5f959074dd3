package events

import (
	"github.com/paulmach/orb"
)

// Row is one input record, already read from the host table with the
// configured field bindings applied. Which fields are set depends on the
// operation: locating needs RouteID and measures, standardizing needs
// RouteID and Direction, updating needs RouteID, Geometry and measures.
type Row struct {
	OID          int
	RouteID      string
	Direction    string
	BeginMeasure float64
	// EndMeasure is nil for point events. Begin and end may arrive in either
	// order.
	EndMeasure *float64
	Geometry   orb.Geometry
}

// LocatedEvent is the outcome for one input row. Either Geometry or Error is
// set, never both; a valid but empty geometry still counts as success. There
// is exactly one LocatedEvent per input row, in input order, so downstream
// joins on EventOID are always possible.
type LocatedEvent struct {
	EventOID int
	Geometry orb.Geometry
	// StandardizedID is only written by the standardize operation. It may be
	// present next to Error: the combined ID is written best-effort even when
	// validation flags it.
	StandardizedID string
	// BeginMeasure/EndMeasure are only written by the update operation,
	// rounded to the configured digit count.
	BeginMeasure *float64
	EndMeasure   *float64
	Error        string
}

// Table is implemented by hosts that can read input records in stable order.
type Table interface {
	Rows() ([]Row, error)
}

// OutputSink is implemented by hosts that consume the located events.
type OutputSink interface {
	Write(located []LocatedEvent) error
}

// Operation turns one input row into one located event. Implementations
// never fail the batch: every failure is captured in the returned event.
type Operation interface {
	Name() string
	Process(row Row) LocatedEvent
}

func failedEvent(row Row, err error) LocatedEvent {
	return LocatedEvent{
		EventOID: row.OID,
		Error:    err.Error(),
	}
}
