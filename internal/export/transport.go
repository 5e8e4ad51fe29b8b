package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"

	"aircombine/internal/analytics/application"
	"aircombine/internal/analytics/domain/resample"
	"aircombine/internal/config"
	telemetry "aircombine/internal/telemetry/domain"
)

// Transport schema headers.
const (
	transportTimestamp = "Timestamp"
	transportLon       = "EAST_LONGITUDE(deg)"
	transportLat       = "NORTH_LATITUDE(deg)"
	transportID        = "ID(-)"
	transportPM25      = "PM2.5"
	transportWindSpeed = "wind_magnitude(m/s)"
	transportWindDir   = "wind_direction(deg)"
)

// TransportCSV writes combined_summarized_retigo.csv in the RETIGO exchange
// schema. Rows missing identity, coordinates or PM2.5 (and wind, when wind is
// joined) are handled by the configured policy.
type TransportCSV struct {
	dir    string
	policy config.TransportPolicy
}

// NewTransportCSV writes into dir. An empty policy means drop.
func NewTransportCSV(dir string, policy config.TransportPolicy) *TransportCSV {
	if policy == "" {
		policy = config.TransportDrop
	}
	return &TransportCSV{dir: dir, policy: policy}
}

// Name implements application.Sink.
func (s *TransportCSV) Name() string { return TransportFile }

// Write implements application.Sink.
func (s *TransportCSV) Write(_ context.Context, run *application.Run) error {
	wind := run.Summary.Columns.Has(telemetry.WindDirection) && run.Summary.Columns.Has(telemetry.WindSpeed)
	header := []string{transportTimestamp, transportLon, transportLat, transportID, transportPM25}
	if wind {
		header = append(header, transportWindSpeed, transportWindDir)
	}

	rows := make([]resample.Row, 0, len(run.Summary.Rows))
	missing := 0
	for _, row := range run.Summary.Rows {
		if transportComplete(row, wind) {
			rows = append(rows, row)
			continue
		}
		missing++
		if s.policy == config.TransportEmit {
			rows = append(rows, row)
		}
	}
	if missing > 0 && s.policy == config.TransportFail {
		return fmt.Errorf("%w: %d of %d rows", ErrMissingTransportFields, missing, len(run.Summary.Rows))
	}

	return writeCSV(filepath.Join(s.dir, TransportFile), header, func(w *csv.Writer) error {
		record := make([]string, 0, len(header))
		for _, row := range rows {
			record = record[:0]
			record = append(record,
				row.Start.UTC().Format(transportLayout),
				formatNullFloat(row.Lon),
				formatNullFloat(row.Lat),
				row.SensorID,
				formatNullFloat(row.Values[telemetry.PM25A]),
			)
			if wind {
				record = append(record,
					formatNullFloat(row.Values[telemetry.WindSpeed]),
					formatNullFloat(row.Values[telemetry.WindDirection]),
				)
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

func transportComplete(row resample.Row, wind bool) bool {
	if row.SensorID == "" || !row.Lat.Valid || !row.Lon.Valid || !row.Values[telemetry.PM25A].Valid {
		return false
	}
	if wind {
		return row.Values[telemetry.WindSpeed].Valid && row.Values[telemetry.WindDirection].Valid
	}
	return true
}
