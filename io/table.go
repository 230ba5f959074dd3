package io

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"lrs/config"
	"lrs/events"
)

// CSVTable reads event rows from a CSV file with a header row. Column names
// are resolved case-insensitively against the configured field bindings;
// only bound columns are read. Row OIDs are the 1-based position in the
// file.
type CSVTable struct {
	rows []events.Row
}

func LoadEventTableFile(filename string, bindings config.FieldBindings) (*CSVTable, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open event table %s", filename)
	}
	defer file.Close()

	return ReadEventTable(file, bindings)
}

func ReadEventTable(reader io.Reader, bindings config.FieldBindings) (*CSVTable, error) {
	records, err := csv.NewReader(reader).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read event table CSV")
	}
	if len(records) == 0 {
		return nil, errors.Errorf("Event table has no header row")
	}

	header := columnIndex(records[0])
	routeIDCol, ok := header[strings.ToLower(bindings.RouteID)]
	if !ok {
		return nil, errors.Errorf("Event table has no route ID column %q", bindings.RouteID)
	}
	directionCol := optionalColumn(header, bindings.Direction)
	beginCol := optionalColumn(header, bindings.BeginMeasure)
	endCol := optionalColumn(header, bindings.EndMeasure)
	xCol := optionalColumn(header, bindings.X)
	yCol := optionalColumn(header, bindings.Y)

	table := &CSVTable{}
	for i, record := range records[1:] {
		row := events.Row{
			OID:     i + 1,
			RouteID: cell(record, routeIDCol),
		}
		row.Direction = cell(record, directionCol)

		if begin := cell(record, beginCol); begin != "" {
			row.BeginMeasure, err = strconv.ParseFloat(begin, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "Event table row %d has invalid begin measure %q", i+1, begin)
			}
		}
		if end := cell(record, endCol); end != "" {
			m, err := strconv.ParseFloat(end, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "Event table row %d has invalid end measure %q", i+1, end)
			}
			row.EndMeasure = &m
		}

		x := cell(record, xCol)
		y := cell(record, yCol)
		if x != "" && y != "" {
			xValue, err := strconv.ParseFloat(x, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "Event table row %d has invalid x coordinate %q", i+1, x)
			}
			yValue, err := strconv.ParseFloat(y, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "Event table row %d has invalid y coordinate %q", i+1, y)
			}
			row.Geometry = orb.Point{xValue, yValue}
		}

		table.rows = append(table.rows, row)
	}

	sigolo.Debugf("Read %d event rows", len(table.rows))
	return table, nil
}

func (t *CSVTable) Rows() ([]events.Row, error) {
	return t.rows, nil
}

// Points returns the rows' point geometries in row order, for the pairing
// operation.
func (t *CSVTable) Points() ([]orb.Point, error) {
	points := make([]orb.Point, 0, len(t.rows))
	for i, row := range t.rows {
		point, ok := row.Geometry.(orb.Point)
		if !ok {
			return nil, errors.Errorf("Event table row %d has no point coordinates", i+1)
		}
		points = append(points, point)
	}
	return points, nil
}

func columnIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return columns
}

func optionalColumn(header map[string]int, binding string) int {
	if binding == "" {
		return -1
	}
	if i, ok := header[strings.ToLower(binding)]; ok {
		return i
	}
	return -1
}

func cell(record []string, column int) string {
	if column < 0 || column >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[column])
}

// CSVSink writes located events as a CSV file: one row per event with the
// OID, the standardized ID, the rounded measures and the error text.
type CSVSink struct {
	Filename string
}

func (s *CSVSink) Write(located []events.LocatedEvent) error {
	file, err := os.Create(s.Filename)
	if err != nil {
		return errors.Wrapf(err, "Unable to create output file %s", s.Filename)
	}

	defer func() {
		err = file.Close()
		sigolo.FatalCheck(errors.Wrapf(err, "Unable to close file handle for output file %s", file.Name()))
	}()

	writer := csv.NewWriter(file)
	err = writer.Write([]string{"EventOid", "RouteId", "Measure", "EndMeasure", "Error"})
	if err != nil {
		return errors.Wrapf(err, "Unable to write output header")
	}

	for _, event := range located {
		record := []string{
			strconv.Itoa(event.EventOID),
			event.StandardizedID,
			formatMeasure(event.BeginMeasure),
			formatMeasure(event.EndMeasure),
			event.Error,
		}
		err = writer.Write(record)
		if err != nil {
			return errors.Wrapf(err, "Unable to write output row for event %d", event.EventOID)
		}
	}

	writer.Flush()
	return errors.Wrapf(writer.Error(), "Unable to flush output file %s", s.Filename)
}

func formatMeasure(m *float64) string {
	if m == nil {
		return ""
	}
	return strconv.FormatFloat(*m, 'f', -1, 64)
}
