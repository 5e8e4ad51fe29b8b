package export

import (
	"context"
	"encoding/csv"
	"path/filepath"

	"aircombine/internal/analytics/application"
	"aircombine/internal/analytics/domain/stats"
	telemetry "aircombine/internal/telemetry/domain"
)

// SourceCSV writes source.csv: distance and bearing of every summarized row
// from a fixed source point and whether the row's sensor sat downwind of it.
type SourceCSV struct {
	dir    string
	source stats.Point
}

// NewSourceCSV analyses rows against source and writes into dir.
func NewSourceCSV(dir string, source stats.Point) *SourceCSV {
	return &SourceCSV{dir: dir, source: source}
}

// Name implements application.Sink.
func (s *SourceCSV) Name() string { return SourceFile }

// Write implements application.Sink.
func (s *SourceCSV) Write(_ context.Context, run *application.Run) error {
	header := []string{
		"Sensor", telemetry.TimestampColumn, "Lat", "Lon",
		"source_dist", "source_bear", "WindVector", "WindSpeed", "wind_side",
	}
	return writeCSV(filepath.Join(s.dir, SourceFile), header, func(w *csv.Writer) error {
		for _, row := range run.Summary.Rows {
			dir := row.Values[telemetry.WindDirection]
			if !row.Lat.Valid || !row.Lon.Valid || !dir.Valid {
				continue
			}
			sensor := stats.Point{Lat: row.Lat.Float64, Lon: row.Lon.Float64}
			bearing := stats.Bearing(s.source, sensor)
			record := []string{
				row.SensorID,
				formatTime(row.Start),
				formatFloat(sensor.Lat),
				formatFloat(sensor.Lon),
				formatFloat(stats.HaversineMiles(s.source, sensor)),
				formatFloat(bearing),
				formatFloat(stats.WindVector(dir.Float64)),
				formatNullFloat(row.Values[telemetry.WindSpeed]),
				string(stats.WindSide(bearing, dir.Float64)),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}
