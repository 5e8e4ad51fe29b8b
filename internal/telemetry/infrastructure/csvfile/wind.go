package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	telemetry "aircombine/internal/telemetry/domain"
)

// ExternalWindFile is the merged external wind export expected in the data directory.
const ExternalWindFile = "DSKY_station_merged.csv"

// WindLoader reads the external wind file. Its timestamps are UTC and its
// speeds are in mph.
type WindLoader struct {
	path   string
	logger *slog.Logger
}

// NewWindLoader constructs a loader for the external wind file in dir.
func NewWindLoader(dir string, logger *slog.Logger) *WindLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &WindLoader{path: filepath.Join(dir, ExternalWindFile), logger: logger}
}

// Path returns the file location.
func (l *WindLoader) Path() string {
	return l.path
}

// Load returns wind direction and speed (m/s) keyed by UTC timestamp. A
// missing or malformed file is reported and yields an empty table.
func (l *WindLoader) Load(ctx context.Context) (telemetry.Table, telemetry.LoadReport, error) {
	report := telemetry.LoadReport{Files: []string{l.path}}
	if err := ctx.Err(); err != nil {
		return telemetry.Table{}, report, err
	}
	tbl, err := l.read()
	if err != nil {
		report.Skip(l.path, err)
		l.logger.Warn("external wind file skipped",
			"event", "wind_file_skipped", "file", filepath.Base(l.path), "error", err)
		return telemetry.Table{}, report, nil
	}
	l.logger.Info("external wind file loaded",
		"event", "wind_file_loaded", "file", filepath.Base(l.path), "rows", tbl.Len())
	return tbl, report, nil
}

func (l *WindLoader) read() (telemetry.Table, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return telemetry.Table{}, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return telemetry.Table{}, ErrEmptyFile
	}
	if err != nil {
		return telemetry.Table{}, err
	}
	index := headerIndex(header)
	tsIdx := findHeader(index, "datetime_utc", "time", "timestamp", "date time")
	if tsIdx < 0 {
		// The export writes its timestamp index as the unnamed first column.
		tsIdx = 0
	}
	dirIdx := findHeader(index, "winddirection", "wind_direction", "winddirection_deg")
	speedIdx := findHeader(index, "windspeed", "wind_speed", "windspeed_mph")
	if dirIdx < 0 && speedIdx < 0 {
		return telemetry.Table{}, fmt.Errorf("%w: need WindDirection or WindSpeed", ErrMissingColumn)
	}

	var tbl telemetry.Table
	if dirIdx >= 0 {
		tbl.Columns = tbl.Columns.With(telemetry.WindDirection)
	}
	if speedIdx >= 0 {
		tbl.Columns = tbl.Columns.With(telemetry.WindSpeed)
	}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		ts, err := ParseTimestamp(field(record, tsIdx), nil)
		if err != nil {
			continue
		}
		m := telemetry.Measurement{SensorID: "DSKY", TS: ts}
		if v := parseValue(field(record, dirIdx)); v.Valid {
			m.Set(telemetry.WindDirection, v.Float64)
		}
		if v := parseValue(field(record, speedIdx)); v.Valid {
			m.Set(telemetry.WindSpeed, v.Float64/MilesPerHourPerMetrePerSecond)
		}
		tbl.Rows = append(tbl.Rows, m)
	}
	if tbl.Len() == 0 {
		return telemetry.Table{}, telemetry.ErrNoRows
	}
	return tbl, nil
}
