package export

import (
	"context"
	"encoding/csv"
	"path/filepath"

	"aircombine/internal/analytics/application"
	telemetry "aircombine/internal/telemetry/domain"
)

// FlatCSV writes combined_full.csv: every loaded row in source order, primary
// rows first, then reference rows, with identity and coordinates appended.
type FlatCSV struct {
	dir string
}

// NewFlatCSV writes into dir.
func NewFlatCSV(dir string) *FlatCSV {
	return &FlatCSV{dir: dir}
}

// Name implements application.Sink.
func (s *FlatCSV) Name() string { return FlatFile }

// Write implements application.Sink.
func (s *FlatCSV) Write(_ context.Context, run *application.Run) error {
	cols := run.Primary.Columns.Union(run.Reference.Columns).Columns()
	return writeMeasurements(filepath.Join(s.dir, FlatFile), cols, run.Primary.Rows, run.Reference.Rows)
}

// StationMergedCSV writes <PREFIX>_station_merged.csv: the merged, clipped
// reference series in UTC with station coordinates.
type StationMergedCSV struct {
	dir    string
	prefix string
}

// NewStationMergedCSV writes the file of station prefix into dir.
func NewStationMergedCSV(dir, prefix string) *StationMergedCSV {
	if prefix == "" {
		prefix = "REF"
	}
	return &StationMergedCSV{dir: dir, prefix: prefix}
}

// Name implements application.Sink.
func (s *StationMergedCSV) Name() string { return StationFile(s.prefix) }

// Write implements application.Sink.
func (s *StationMergedCSV) Write(_ context.Context, run *application.Run) error {
	return writeMeasurements(filepath.Join(s.dir, s.Name()), run.Reference.Columns.Columns(), run.Reference.Rows)
}

func writeMeasurements(path string, cols []telemetry.Column, groups ...[]telemetry.Measurement) error {
	header := make([]string, 0, len(cols)+4)
	header = append(header, telemetry.TimestampColumn)
	for _, c := range cols {
		header = append(header, c.String())
	}
	header = append(header, "Sensor", "Lat", "Lon")

	return writeCSV(path, header, func(w *csv.Writer) error {
		record := make([]string, len(header))
		for _, rows := range groups {
			for _, row := range rows {
				record = record[:0]
				record = append(record, formatTime(row.TS))
				for _, c := range cols {
					record = append(record, formatNullFloat(row.Values[c]))
				}
				record = append(record, row.SensorID, formatNullFloat(row.Lat), formatNullFloat(row.Lon))
				if err := w.Write(record); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
