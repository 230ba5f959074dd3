package io

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"

	"lrs/events"
	"lrs/index"
)

// GeoJSONRouteLayer reads route features from a GeoJSON feature collection.
// Each LineString feature becomes one route part; the route ID comes from a
// configurable property, the per-vertex measures from another. Features
// without a measures property get measures derived from cumulative planar
// length.
type GeoJSONRouteLayer struct {
	routeIDProperty  string
	measuresProperty string
	collection       *geojson.FeatureCollection
}

func LoadRouteLayerFile(filename string, routeIDProperty string, measuresProperty string) (*GeoJSONRouteLayer, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open route layer file %s", filename)
	}
	defer file.Close()

	return ReadRouteLayer(file, routeIDProperty, measuresProperty)
}

func ReadRouteLayer(reader io.Reader, routeIDProperty string, measuresProperty string) (*GeoJSONRouteLayer, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read route layer data")
	}

	collection, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to parse route layer GeoJSON")
	}

	return &GeoJSONRouteLayer{
		routeIDProperty:  routeIDProperty,
		measuresProperty: measuresProperty,
		collection:       collection,
	}, nil
}

func (l *GeoJSONRouteLayer) EachRoute(handle func(feature index.RouteFeature) error) error {
	for i, f := range l.collection.Features {
		line, ok := f.Geometry.(orb.LineString)
		if !ok {
			return errors.Errorf("Route layer feature %d has geometry type %q but only LineString is supported", i, f.Geometry.GeoJSONType())
		}

		routeID, ok := f.Properties[l.routeIDProperty].(string)
		if !ok {
			return errors.Errorf("Route layer feature %d has no string property %q", i, l.routeIDProperty)
		}

		measures, err := l.measuresOf(f, line, i)
		if err != nil {
			return err
		}

		err = handle(index.RouteFeature{
			RouteID:  routeID,
			Line:     line,
			Measures: measures,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *GeoJSONRouteLayer) measuresOf(f *geojson.Feature, line orb.LineString, featureIndex int) ([]float64, error) {
	raw, hasMeasures := f.Properties[l.measuresProperty]
	if !hasMeasures {
		return LengthMeasures(line), nil
	}

	values, ok := raw.([]interface{})
	if !ok {
		return nil, errors.Errorf("Route layer feature %d has a %q property that is not an array", featureIndex, l.measuresProperty)
	}

	measures := make([]float64, len(values))
	for i, v := range values {
		m, ok := v.(float64)
		if !ok {
			return nil, errors.Errorf("Route layer feature %d has non-numeric measure at vertex %d", featureIndex, i)
		}
		measures[i] = m
	}
	return measures, nil
}

// LengthMeasures derives per-vertex measures from the cumulative planar
// length along the line, starting at zero.
func LengthMeasures(line orb.LineString) []float64 {
	measures := make([]float64, len(line))
	for i := 1; i < len(line); i++ {
		measures[i] = measures[i-1] + planar.Distance(line[i-1], line[i])
	}
	return measures
}

// eventDoc is the GeoJSON representation of one located event. A failed row
// keeps its slot with a null geometry and the error text, so the output row
// count always equals the input row count.
type eventDoc struct {
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties map[string]any    `json:"properties"`
}

type eventCollectionDoc struct {
	Type     string     `json:"type"`
	Features []eventDoc `json:"features"`
}

// WriteLocatedEventsFile writes the events as a GeoJSON feature collection
// to the given file.
func WriteLocatedEventsFile(located []events.LocatedEvent, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "Unable to create output file %s", filename)
	}

	defer func() {
		err = file.Close()
		sigolo.FatalCheck(errors.Wrapf(err, "Unable to close file handle for output file %s", file.Name()))
	}()

	return WriteLocatedEvents(located, file)
}

// WriteLocatedEvents writes the events as a GeoJSON feature collection.
func WriteLocatedEvents(located []events.LocatedEvent, writer io.Writer) error {
	sigolo.Debugf("Write %d located events as GeoJSON", len(located))
	writeStartTime := time.Now()

	doc := eventCollectionDoc{
		Type:     "FeatureCollection",
		Features: make([]eventDoc, 0, len(located)),
	}

	for _, event := range located {
		properties := map[string]any{
			"EventOid": event.EventOID,
		}
		if event.Error != "" {
			properties["Error"] = event.Error
		}
		if event.StandardizedID != "" {
			properties["RouteId"] = event.StandardizedID
		}
		if event.BeginMeasure != nil {
			properties["Measure"] = *event.BeginMeasure
		}
		if event.EndMeasure != nil {
			properties["EndMeasure"] = *event.EndMeasure
		}

		var geometry *geojson.Geometry
		if event.Geometry != nil {
			geometry = geojson.NewGeometry(event.Geometry)
		}

		doc.Features = append(doc.Features, eventDoc{
			Type:       "Feature",
			Geometry:   geometry,
			Properties: properties,
		})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "Unable to marshal located events")
	}

	_, err = writer.Write(data)
	if err != nil {
		return errors.Wrapf(err, "Unable to write located events")
	}

	writeDuration := time.Since(writeStartTime)
	sigolo.Debugf("Finished writing in %s", writeDuration)

	return nil
}

// GeoJSONSink writes located events to a GeoJSON file when the batch is
// done.
type GeoJSONSink struct {
	Filename string
}

func (s *GeoJSONSink) Write(located []events.LocatedEvent) error {
	return WriteLocatedEventsFile(located, s.Filename)
}
