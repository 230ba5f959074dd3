package index

import (
	"github.com/paulmach/orb"
)

// RouteFeature is one route feature as supplied by the host: raw route
// identifier text, an M-aware polyline and the measure value per vertex.
type RouteFeature struct {
	RouteID  string
	Line     orb.LineString
	Measures []float64
}

// RouteLayer is implemented by hosts that can enumerate route features. The
// iteration order determines the arena order of the index and with it the
// documented tie-break of Nearest.
type RouteLayer interface {
	EachRoute(handle func(feature RouteFeature) error) error
}
