package config

import (
	"os"
	"path/filepath"
	"testing"

	"lrs/route"
	"lrs/util"
)

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(content), 0644)
	util.AssertNil(t, err)
	return path
}

func TestLoad(t *testing.T) {
	// Arrange
	path := writeConfigFile(t, `
fields:
  routeId: RID
  beginMeasure: BEGIN_M
  endMeasure: END_M
suffixMask: i
snapRadius: 25
roundingDigits: 2
workers: 4
knownRouteCodes:
  - "005"
  - "101"
`)

	// Act
	cfg, err := Load(path)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, "RID", cfg.Fields.RouteID)
	util.AssertEqual(t, "BEGIN_M", cfg.Fields.BeginMeasure)
	util.AssertEqual(t, "i", cfg.SuffixMask)
	util.AssertEqual(t, 25.0, cfg.SnapRadius)
	util.AssertEqual(t, 2, cfg.RoundingDigits)
	util.AssertEqual(t, 4, cfg.Workers)

	mask, err := cfg.Mask()
	util.AssertNil(t, err)
	util.AssertEqual(t, route.MaskIncreasing, mask)

	known := cfg.KnownCodes()
	util.AssertEqual(t, 2, len(known))
	_, ok := known["005"]
	util.AssertTrue(t, ok)
}

func TestLoad_defaultsFillUnsetValues(t *testing.T) {
	path := writeConfigFile(t, `
suffixMask: d
`)

	cfg, err := Load(path)

	util.AssertNil(t, err)
	util.AssertEqual(t, "d", cfg.SuffixMask)
	// Everything else stays at the defaults.
	util.AssertEqual(t, "RouteID", cfg.Fields.RouteID)
	util.AssertEqual(t, "Measures", cfg.Fields.Measures)
	util.AssertEqual(t, 50.0, cfg.SnapRadius)
	util.AssertEqual(t, 3, cfg.RoundingDigits)
	util.AssertEqual(t, "ref", cfg.OSMRouteTag)
}

func TestLoad_invalidSuffixMask(t *testing.T) {
	path := writeConfigFile(t, `
suffixMask: sideways
`)

	_, err := Load(path)

	util.AssertNotNil(t, err)
}

func TestLoad_negativeSnapRadius(t *testing.T) {
	path := writeConfigFile(t, `
snapRadius: -1
`)

	_, err := Load(path)

	util.AssertNotNil(t, err)
}

func TestLoad_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	util.AssertNotNil(t, err)
}

func TestLoad_malformedYaml(t *testing.T) {
	path := writeConfigFile(t, "fields: [not a mapping")

	_, err := Load(path)

	util.AssertNotNil(t, err)
}

func TestKnownCodes_emptyListIsNil(t *testing.T) {
	cfg := Default()

	util.AssertNil(t, cfg.KnownCodes())
}
