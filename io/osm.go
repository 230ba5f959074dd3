package io

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"

	"lrs/index"
)

// OSMRouteLayer builds route features from OSM data: every way carrying the
// configured route tag becomes one route part, identified by the tag value.
// Measures are derived from cumulative planar length since OSM geometries
// carry no M values.
type OSMRouteLayer struct {
	features []index.RouteFeature
}

// LoadRouteLayerFromOSM reads an .osm or .pbf file in two passes: the first
// collects node coordinates, the second assembles the tagged ways.
func LoadRouteLayerFromOSM(filename string, routeTag string) (*OSMRouteLayer, error) {
	if !strings.HasSuffix(filename, ".osm") && !strings.HasSuffix(filename, ".pbf") {
		return nil, errors.Errorf("Input file must be an .osm or .pbf file")
	}

	sigolo.Debugf("Start reading route layer from OSM file %s", filename)
	importStartTime := time.Now()

	nodes := map[osm.NodeID]orb.Point{}
	err := scanOSMFile(filename, func(obj osm.Object) {
		if node, ok := obj.(*osm.Node); ok {
			nodes[node.ID] = orb.Point{node.Lon, node.Lat}
		}
	})
	if err != nil {
		return nil, err
	}

	layer := &OSMRouteLayer{}
	err = scanOSMFile(filename, func(obj osm.Object) {
		way, ok := obj.(*osm.Way)
		if !ok {
			return
		}
		routeID := way.Tags.Find(routeTag)
		if routeID == "" {
			return
		}

		var line orb.LineString
		for _, wayNode := range way.Nodes {
			point, ok := nodes[wayNode.ID]
			if !ok {
				sigolo.Tracef("Way %d references unknown node %d, skipping the vertex", way.ID, wayNode.ID)
				continue
			}
			line = append(line, point)
		}
		if len(line) < 2 {
			sigolo.Debugf("Way %d with route tag %q has fewer than 2 resolvable vertices, skipping it", way.ID, routeID)
			return
		}

		layer.features = append(layer.features, index.RouteFeature{
			RouteID:  routeID,
			Line:     line,
			Measures: LengthMeasures(line),
		})
	})
	if err != nil {
		return nil, err
	}

	importDuration := time.Since(importStartTime)
	sigolo.Debugf("Read %d route parts from OSM data in %s", len(layer.features), importDuration)

	return layer, nil
}

func (l *OSMRouteLayer) EachRoute(handle func(feature index.RouteFeature) error) error {
	for _, feature := range l.features {
		if err := handle(feature); err != nil {
			return err
		}
	}
	return nil
}

func scanOSMFile(filename string, handle func(obj osm.Object)) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "Unable to open OSM file %s", filename)
	}
	defer f.Close()

	var scanner osm.Scanner
	if strings.HasSuffix(filename, ".osm") {
		scanner = osmxml.New(context.Background(), f)
	} else {
		scanner = osmpbf.New(context.Background(), f, 1)
	}
	defer scanner.Close()

	for scanner.Scan() {
		handle(scanner.Object())
	}

	return errors.Wrapf(scanner.Err(), "Unable to scan OSM file %s", filename)
}
