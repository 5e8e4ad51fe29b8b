package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null"

	masterdata "aircombine/internal/masterdata/domain"
	telemetry "aircombine/internal/telemetry/domain"
)

// DefaultPrimaryPattern matches primary sensor exports.
const DefaultPrimaryPattern = "*Primary*.csv"

// PrimaryLoader reads every primary sensor file of a directory into one table.
type PrimaryLoader struct {
	dir      string
	pattern  string
	zone     *time.Location
	sensors  masterdata.SensorDirectory
	progress Progress
	logger   *slog.Logger
}

// PrimaryOption customizes a PrimaryLoader.
type PrimaryOption func(*PrimaryLoader)

// WithPattern overrides the file glob.
func WithPattern(pattern string) PrimaryOption {
	return func(l *PrimaryLoader) {
		if pattern != "" {
			l.pattern = pattern
		}
	}
}

// WithSourceZone sets the zone of timestamps that carry no zone of their own.
func WithSourceZone(loc *time.Location) PrimaryOption {
	return func(l *PrimaryLoader) {
		if loc != nil {
			l.zone = loc
		}
	}
}

// WithSensorDirectory sets the metadata lookup used for coordinates.
func WithSensorDirectory(dir masterdata.SensorDirectory) PrimaryOption {
	return func(l *PrimaryLoader) {
		l.sensors = dir
	}
}

// WithProgress reports bytes read.
func WithProgress(p Progress) PrimaryOption {
	return func(l *PrimaryLoader) {
		if p != nil {
			l.progress = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PrimaryOption {
	return func(l *PrimaryLoader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewPrimaryLoader constructs a loader for dir.
func NewPrimaryLoader(dir string, opts ...PrimaryOption) *PrimaryLoader {
	l := &PrimaryLoader{
		dir:      dir,
		pattern:  DefaultPrimaryPattern,
		zone:     time.UTC,
		progress: noProgress{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Files returns the matching files in lexical order.
func (l *PrimaryLoader) Files() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.dir, l.pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Load reads all primary files. Unreadable or malformed files are skipped
// and reported; only a run with no usable file at all fails.
func (l *PrimaryLoader) Load(ctx context.Context) (telemetry.Table, telemetry.LoadReport, error) {
	files, err := l.Files()
	if err != nil {
		return telemetry.Table{}, telemetry.LoadReport{}, err
	}
	report := telemetry.LoadReport{Files: files}
	if len(files) == 0 {
		return telemetry.Table{}, report, fmt.Errorf("%w: %s in %s", ErrNoPrimaryFiles, l.pattern, l.dir)
	}

	l.progress.Start("primary", totalSize(files))
	defer l.progress.Finish()

	var table telemetry.Table
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return telemetry.Table{}, report, err
		}
		rows, cols, err := l.loadFile(path)
		if err != nil {
			report.Skip(path, err)
			l.logger.Warn("primary file skipped",
				"event", "primary_file_skipped", "file", filepath.Base(path), "error", err)
			continue
		}
		table.Columns = table.Columns.Union(cols)
		table.Rows = append(table.Rows, rows...)
	}
	if table.Len() == 0 {
		return table, report, telemetry.ErrNoPrimaryData
	}
	return table, report, nil
}

func (l *PrimaryLoader) loadFile(path string) ([]telemetry.Measurement, telemetry.ColumnSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	reader := csv.NewReader(countingReader{r: file, progress: l.progress})
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, ErrEmptyFile
	}
	if err != nil {
		return nil, 0, err
	}
	hm, err := telemetry.ResolveHeader(header)
	if err != nil {
		return nil, 0, err
	}
	if len(hm.Unknown) > 0 {
		l.logger.Debug("primary file has unmapped columns",
			"event", "primary_columns_unmapped", "file", filepath.Base(path), "columns", strings.Join(hm.Unknown, ","))
	}

	identity := ParseSensorFilename(path)
	lat, lon := l.coordinates(identity)
	present := hm.Present()
	cols := present.Columns()

	var (
		rows       []telemetry.Measurement
		badRows    int
		outOfOrder int
		last       time.Time
		line       = 1
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				badRows++
				continue
			}
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}
		ts, err := ParseTimestamp(field(record, hm.Timestamp), l.zone)
		if err != nil {
			badRows++
			continue
		}
		m := telemetry.Measurement{SensorID: identity.SensorID, TS: ts, Lat: lat, Lon: lon}
		for _, c := range cols {
			m.Values[c] = parseValue(field(record, hm.Columns[c]))
		}
		if ts.Before(last) {
			outOfOrder++
		}
		last = ts
		rows = append(rows, m)
	}
	if len(rows) == 0 {
		return nil, 0, telemetry.ErrNoRows
	}
	if outOfOrder > 0 {
		l.logger.Warn("primary file rows out of order",
			"event", "primary_rows_unordered", "file", filepath.Base(path), "count", outOfOrder)
	}
	l.logger.Info("primary file loaded",
		"event", "primary_file_loaded",
		"file", filepath.Base(path),
		"sensor_id", identity.SensorID,
		"rows", len(rows),
		"bad_rows", badRows)
	return rows, present, nil
}

func (l *PrimaryLoader) coordinates(identity FileIdentity) (null.Float, null.Float) {
	if l.sensors != nil {
		if sensor, ok := l.sensors.LookupSensor(identity.SensorID); ok {
			return null.FloatFrom(sensor.Lat), null.FloatFrom(sensor.Lon)
		}
	}
	if identity.Lat.Valid && identity.Lon.Valid {
		return identity.Lat, identity.Lon
	}
	l.logger.Warn("sensor metadata not found",
		"event", "sensor_metadata_missing", "sensor_id", identity.SensorID)
	return null.Float{}, null.Float{}
}

// parseValue returns null for blank, non-finite or unparsable cells.
func parseValue(raw string) null.Float {
	if raw == "" {
		return null.Float{}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
