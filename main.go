package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"

	"lrs/config"
	"lrs/events"
	"lrs/index"
	ownIo "lrs/io"
	"lrs/locate"
	"lrs/route"
	"lrs/web"
)

const VERSION = "v0.1.0"

var cli struct {
	Logging string      `help:"Logging verbosity." enum:"info,debug,trace" short:"l" default:"info"`
	Version VersionFlag `help:"Print version information and quit" name:"version" short:"v"`
	Config  string      `help:"Batch configuration file (YAML)." placeholder:"<config-file>" type:"existingfile"`
	Locate  struct {
		Routes string `help:"Route layer file (.geojson, .osm or .pbf)." placeholder:"<route-file>" arg:"" type:"existingfile"`
		Events string `help:"Event table (.csv) with route IDs and measures." placeholder:"<event-file>" arg:"" type:"existingfile"`
		Out    string `help:"Output GeoJSON file." default:"located.geojson"`
		Mask   string `help:"Suffix match policy." enum:"none,i,d,all" default:"all"`
	} `cmd:"" help:"Locates point and line events along the routes (dynamic segmentation)."`
	Pair struct {
		Routes string `help:"Route layer file (.geojson, .osm or .pbf)." placeholder:"<route-file>" arg:"" type:"existingfile"`
		Points string `help:"Point table (.csv) with x/y columns, consumed pairwise." placeholder:"<point-file>" arg:"" type:"existingfile"`
		Out    string `help:"Output GeoJSON file." default:"paired.geojson"`
	} `cmd:"" help:"Snaps point pairs onto the nearest route and synthesizes line events."`
	Standardize struct {
		Events string `help:"Event table (.csv) with route code and direction columns." placeholder:"<event-file>" arg:"" type:"existingfile"`
		Out    string `help:"Output CSV file." default:"standardized.csv"`
		Policy string `help:"Suffix format of the target route layer." enum:"i,d,all" default:"all"`
	} `cmd:"" help:"Combines route code and direction columns into canonical route IDs."`
	Update struct {
		Routes string `help:"Route layer file (.geojson, .osm or .pbf)." placeholder:"<route-file>" arg:"" type:"existingfile"`
		Events string `help:"Event table (.csv) with route IDs, measures and coordinates." placeholder:"<event-file>" arg:"" type:"existingfile"`
		Out    string `help:"Output GeoJSON file." default:"updated.geojson"`
	} `cmd:"" help:"Re-resolves event features against the route layer and re-measures them."`
	Snap struct {
		Routes string  `help:"Route layer file (.geojson, .osm or .pbf)." placeholder:"<route-file>" arg:"" type:"existingfile"`
		X      float64 `help:"X coordinate of the point to snap." required:""`
		Y      float64 `help:"Y coordinate of the point to snap." required:""`
	} `cmd:"" help:"Snaps a single point onto the nearest route."`
	Serve struct {
		Routes string `help:"Route layer file (.geojson, .osm or .pbf)." placeholder:"<route-file>" arg:"" type:"existingfile"`
		Port   string `help:"Port to listen on." default:"8080"`
	} `cmd:"" help:"Serves locate and snap queries over HTTP."`
}

type VersionFlag string

func (v VersionFlag) Decode(ctx *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                         { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

func main() {
	ctx := kong.Parse(
		&cli,
		kong.Name("lrs"),
		kong.Description("A linear referencing engine locating events along measured routes."),
		kong.Vars{
			"version": VERSION,
		},
	)

	if strings.ToLower(cli.Logging) == "debug" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_DEBUG)
	} else if strings.ToLower(cli.Logging) == "trace" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_TRACE)
	} else if strings.ToLower(cli.Logging) == "info" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_INFO)
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
	} else {
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
		sigolo.Fatalf("Unknown logging level '%s'", cli.Logging)
	}

	cfg := loadConfig()

	switch ctx.Command() {
	case "locate <routes> <events>":
		runLocate(cfg)
	case "pair <routes> <points>":
		runPair(cfg)
	case "standardize <events>":
		runStandardize(cfg)
	case "update <routes> <events>":
		runUpdate(cfg)
	case "snap <routes>":
		runSnap(cfg)
	case "serve <routes>":
		runServe(cfg)
	default:
		sigolo.Errorf("Unknown command '%s'", ctx.Command())
	}
}

func loadConfig() *config.BatchConfig {
	if cli.Config == "" {
		return config.Default()
	}
	cfg, err := config.Load(cli.Config)
	sigolo.FatalCheck(err)
	return cfg
}

func loadRouteIndex(filename string, cfg *config.BatchConfig) *index.RouteIndex {
	var layer index.RouteLayer
	var err error

	if strings.HasSuffix(filename, ".osm") || strings.HasSuffix(filename, ".pbf") {
		layer, err = ownIo.LoadRouteLayerFromOSM(filename, cfg.OSMRouteTag)
	} else {
		layer, err = ownIo.LoadRouteLayerFile(filename, cfg.Fields.RouteID, cfg.Fields.Measures)
	}
	sigolo.FatalCheck(err)

	routeIndex, err := index.Build(layer)
	sigolo.FatalCheck(err)
	return routeIndex
}

func runLocate(cfg *config.BatchConfig) {
	routeIndex := loadRouteIndex(cli.Locate.Routes, cfg)
	table, err := ownIo.LoadEventTableFile(cli.Locate.Events, cfg.Fields)
	sigolo.FatalCheck(err)

	mask, err := route.MaskFromString(cli.Locate.Mask)
	sigolo.FatalCheck(err)

	processor := &events.Processor{Workers: cfg.Workers}
	located, err := processor.Run(context.Background(), table, &events.LocateOperation{
		Locator: &locate.Locator{Index: routeIndex, Tolerance: cfg.MeasureTolerance},
		Mask:    mask,
	})
	sigolo.FatalCheck(err)

	sink := &ownIo.GeoJSONSink{Filename: cli.Locate.Out}
	sigolo.FatalCheck(sink.Write(located))
	sigolo.Infof("Wrote %d located events to %s", len(located), cli.Locate.Out)
}

func runPair(cfg *config.BatchConfig) {
	routeIndex := loadRouteIndex(cli.Pair.Routes, cfg)
	table, err := ownIo.LoadEventTableFile(cli.Pair.Points, cfg.Fields)
	sigolo.FatalCheck(err)
	points, err := table.Points()
	sigolo.FatalCheck(err)

	locator := &locate.Locator{Index: routeIndex, Tolerance: cfg.MeasureTolerance}
	snapper := &locate.Snapper{Index: routeIndex, Radius: cfg.SnapRadius}

	processor := &events.Processor{Workers: cfg.Workers}
	located, err := processor.RunPairs(context.Background(), points, snapper, locator)
	if err != nil {
		// An odd point count is diagnosed once, the complete pairs are kept.
		sigolo.Errorf("%+v", err)
	}

	sink := &ownIo.GeoJSONSink{Filename: cli.Pair.Out}
	sigolo.FatalCheck(sink.Write(located))
	sigolo.Infof("Wrote %d paired line events to %s", len(located), cli.Pair.Out)
}

func runStandardize(cfg *config.BatchConfig) {
	table, err := ownIo.LoadEventTableFile(cli.Standardize.Events, cfg.Fields)
	sigolo.FatalCheck(err)

	policy, err := route.MaskFromString(cli.Standardize.Policy)
	sigolo.FatalCheck(err)

	operation, err := events.NewStandardizeOperation(policy, cfg.KnownCodes(), cfg.StrictDirections)
	sigolo.FatalCheck(err)

	processor := &events.Processor{Workers: cfg.Workers}
	located, err := processor.Run(context.Background(), table, operation)
	sigolo.FatalCheck(err)

	sink := &ownIo.CSVSink{Filename: cli.Standardize.Out}
	sigolo.FatalCheck(sink.Write(located))
	sigolo.Infof("Wrote %d standardized rows to %s", len(located), cli.Standardize.Out)
}

func runUpdate(cfg *config.BatchConfig) {
	routeIndex := loadRouteIndex(cli.Update.Routes, cfg)
	table, err := ownIo.LoadEventTableFile(cli.Update.Events, cfg.Fields)
	sigolo.FatalCheck(err)

	mask, err := cfg.Mask()
	sigolo.FatalCheck(err)

	processor := &events.Processor{Workers: cfg.Workers}
	located, err := processor.Run(context.Background(), table, &events.UpdateOperation{
		Locator:         &locate.Locator{Index: routeIndex, Tolerance: cfg.MeasureTolerance},
		Snapper:         &locate.Snapper{Index: routeIndex, Radius: cfg.SnapRadius},
		Mask:            mask,
		RoundingDigits:  cfg.RoundingDigits,
		UseInputMeasure: cfg.UseInputMeasure,
	})
	sigolo.FatalCheck(err)

	sink := &ownIo.GeoJSONSink{Filename: cli.Update.Out}
	sigolo.FatalCheck(sink.Write(located))
	sigolo.Infof("Wrote %d updated events to %s", len(located), cli.Update.Out)
}

func runSnap(cfg *config.BatchConfig) {
	routeIndex := loadRouteIndex(cli.Snap.Routes, cfg)

	result, ok := routeIndex.Nearest(orb.Point{cli.Snap.X, cli.Snap.Y}, cfg.SnapRadius)
	if !ok {
		sigolo.Fatalf("No route within radius %v of point (%v, %v)", cfg.SnapRadius, cli.Snap.X, cli.Snap.Y)
	}

	sigolo.Infof("Route %s at measure %v (distance %v)", result.RouteID, result.Measure, result.Distance)
}

func runServe(cfg *config.BatchConfig) {
	routeIndex := loadRouteIndex(cli.Serve.Routes, cfg)
	locator := &locate.Locator{Index: routeIndex, Tolerance: cfg.MeasureTolerance}
	snapper := &locate.Snapper{Index: routeIndex, Radius: cfg.SnapRadius}

	web.StartServer(cli.Serve.Port, routeIndex, locator, snapper, cfg.Workers)
}
