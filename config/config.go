package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"lrs/route"
)

// FieldBindings names the input table/layer columns the engine reads.
type FieldBindings struct {
	RouteID      string `yaml:"routeId" validate:"required"`
	Direction    string `yaml:"direction"`
	BeginMeasure string `yaml:"beginMeasure"`
	EndMeasure   string `yaml:"endMeasure"`
	X            string `yaml:"x"`
	Y            string `yaml:"y"`
	// Measures is the route layer property holding the per-vertex measure
	// array.
	Measures string `yaml:"measures"`
}

// BatchConfig is the declarative configuration surface of a batch run. It is
// loaded and validated once before the core runs and never mutated
// afterwards.
type BatchConfig struct {
	Fields FieldBindings `yaml:"fields" validate:"required"`
	// SuffixMask is the route ID match policy: none, i, d or all.
	SuffixMask string `yaml:"suffixMask" validate:"omitempty,oneof=none i d all"`
	// SnapRadius is the search radius for snapping, in the units of the
	// route layer's coordinate system.
	SnapRadius float64 `yaml:"snapRadius" validate:"gte=0"`
	// RoundingDigits is the decimal digit count for recomputed measures.
	RoundingDigits int `yaml:"roundingDigits" validate:"gte=0"`
	// UseInputMeasure trusts the input feature's own measures when updating
	// instead of recomputing them from spatial snapping.
	UseInputMeasure bool `yaml:"useInputMeasure"`
	// MeasureTolerance widens all measure comparisons to absorb
	// floating-point noise from upstream measure storage.
	MeasureTolerance float64 `yaml:"measureTolerance" validate:"gte=0"`
	// Workers is the number of goroutines processing rows. Zero means one.
	Workers int `yaml:"workers" validate:"gte=0"`
	// KnownRouteCodes optionally restricts standardized IDs to this
	// allow-list of base codes.
	KnownRouteCodes []string `yaml:"knownRouteCodes"`
	// StrictDirections surfaces unknown direction text as row errors when
	// standardizing.
	StrictDirections bool `yaml:"strictDirections"`
	// OSMRouteTag is the way tag used as route identifier when reading a
	// route layer from OSM data.
	OSMRouteTag string `yaml:"osmRouteTag"`
}

// Default returns the configuration used when no config file is given.
func Default() *BatchConfig {
	return &BatchConfig{
		Fields: FieldBindings{
			RouteID:      "RouteID",
			Direction:    "Direction",
			BeginMeasure: "BeginMeasure",
			EndMeasure:   "EndMeasure",
			X:            "X",
			Y:            "Y",
			Measures:     "Measures",
		},
		SuffixMask:     "all",
		SnapRadius:     50,
		RoundingDigits: 3,
		OSMRouteTag:    "ref",
	}
}

// Load reads and validates a batch configuration from a YAML file. Missing
// optional values fall back to the defaults.
func Load(path string) (*BatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read config file %s", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "Unable to parse config file %s", path)
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, errors.Wrapf(err, "Invalid config file %s", path)
	}

	return cfg, nil
}

// Mask returns the configured suffix match policy.
func (c *BatchConfig) Mask() (route.SuffixMask, error) {
	return route.MaskFromString(c.SuffixMask)
}

// KnownCodes returns the allow-list as a set, nil when no list is
// configured.
func (c *BatchConfig) KnownCodes() map[string]struct{} {
	if len(c.KnownRouteCodes) == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(c.KnownRouteCodes))
	for _, code := range c.KnownRouteCodes {
		known[code] = struct{}{}
	}
	return known
}
