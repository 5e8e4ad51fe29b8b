package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null"

	telemetry "aircombine/internal/telemetry/domain"
)

// MilesPerHourPerMetrePerSecond converts archived wind speed to m/s.
const MilesPerHourPerMetrePerSecond = 2.23693629

// ReferenceZone is the fixed offset of regulatory archive timestamps. It
// never observes daylight saving.
var ReferenceZone = time.FixedZone("UTC-8", -8*60*60)

// ReferenceType binds a file suffix to a canonical column.
type ReferenceType struct {
	Code   string
	Column telemetry.Column
	Scale  float64
}

// ReferenceTypes lists the measurement files a station may provide.
var ReferenceTypes = []ReferenceType{
	{Code: "25", Column: telemetry.RefPM25, Scale: 1},
	{Code: "wd", Column: telemetry.WindDirection, Scale: 1},
	{Code: "ws", Column: telemetry.WindSpeed, Scale: 1 / MilesPerHourPerMetrePerSecond},
}

var referenceName = regexp.MustCompile(`(?i)^(.+?)_REF[_ ]([a-z0-9]+)\.csv$`)

// parseReferenceName splits "SC_REF_25.csv" into its prefix and type code.
func parseReferenceName(base string) (prefix, code string, ok bool) {
	m := referenceName.FindStringSubmatch(base)
	if m == nil {
		return "", "", false
	}
	return strings.ToUpper(strings.TrimSpace(m[1])), strings.ToLower(m[2]), true
}

// DiscoverStations returns the distinct station prefixes with reference files in dir.
func DiscoverStations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var prefixes []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		prefix, _, ok := parseReferenceName(entry.Name())
		if !ok {
			continue
		}
		if _, dup := seen[prefix]; dup {
			continue
		}
		seen[prefix] = struct{}{}
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	return prefixes, nil
}

// ResolvePrefix picks the station whose files are used. An explicit choice
// wins; otherwise exactly one station must have files in dir.
func ResolvePrefix(dir, configured string) (string, error) {
	if configured = strings.ToUpper(strings.TrimSpace(configured)); configured != "" {
		return strings.TrimSuffix(configured, "_REF"), nil
	}
	prefixes, err := DiscoverStations(dir)
	if err != nil {
		return "", err
	}
	switch len(prefixes) {
	case 0:
		return "", fmt.Errorf("%w in %s", ErrNoReferenceFiles, dir)
	case 1:
		return prefixes[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousStation, strings.Join(prefixes, ", "))
	}
}

// ReferenceLoader reads the measurement files of one station and merges them
// into a single UTC table.
type ReferenceLoader struct {
	dir      string
	prefix   string
	columns  telemetry.ColumnSet
	lat      null.Float
	lon      null.Float
	progress Progress
	logger   *slog.Logger
}

// ReferenceOption customizes a ReferenceLoader.
type ReferenceOption func(*ReferenceLoader)

// WithReferenceColumns restricts which measurement types are read.
func WithReferenceColumns(cols telemetry.ColumnSet) ReferenceOption {
	return func(l *ReferenceLoader) {
		l.columns = cols
	}
}

// WithStationCoordinates attaches station coordinates to every row.
func WithStationCoordinates(lat, lon float64) ReferenceOption {
	return func(l *ReferenceLoader) {
		l.lat = null.FloatFrom(lat)
		l.lon = null.FloatFrom(lon)
	}
}

// WithReferenceProgress reports bytes read.
func WithReferenceProgress(p Progress) ReferenceOption {
	return func(l *ReferenceLoader) {
		if p != nil {
			l.progress = p
		}
	}
}

// WithReferenceLogger sets the logger.
func WithReferenceLogger(logger *slog.Logger) ReferenceOption {
	return func(l *ReferenceLoader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewReferenceLoader constructs a loader for the station prefix in dir.
func NewReferenceLoader(dir, prefix string, opts ...ReferenceOption) *ReferenceLoader {
	l := &ReferenceLoader{
		dir:      dir,
		prefix:   strings.ToUpper(strings.TrimSpace(prefix)),
		columns:  telemetry.NewColumnSet(telemetry.ReferenceColumns...),
		progress: noProgress{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SensorName is the identity reference rows carry.
func (l *ReferenceLoader) SensorName() string {
	return l.prefix + "_REF"
}

// Path returns the file of a measurement type, accepting both the
// underscore and the legacy blank separator.
func (l *ReferenceLoader) Path(code string) (string, bool) {
	for _, sep := range []string{"_", " "} {
		path := filepath.Join(l.dir, l.prefix+"_REF"+sep+code+".csv")
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Load reads each requested type, tolerating missing files, and outer-joins
// them on the UTC timestamp.
func (l *ReferenceLoader) Load(ctx context.Context) (telemetry.Table, telemetry.LoadReport, error) {
	type source struct {
		typ  ReferenceType
		path string
	}
	var (
		report  telemetry.LoadReport
		sources []source
	)
	for _, typ := range ReferenceTypes {
		if !l.columns.Has(typ.Column) {
			continue
		}
		path, ok := l.Path(typ.Code)
		if !ok {
			missing := filepath.Join(l.dir, l.prefix+"_REF_"+typ.Code+".csv")
			report.Files = append(report.Files, missing)
			report.Skip(missing, fs.ErrNotExist)
			l.logger.Warn("reference file missing",
				"event", "reference_file_missing", "station", l.prefix, "type", typ.Code)
			continue
		}
		report.Files = append(report.Files, path)
		sources = append(sources, source{typ: typ, path: path})
	}

	paths := make([]string, 0, len(sources))
	for _, s := range sources {
		paths = append(paths, s.path)
	}
	l.progress.Start("reference", totalSize(paths))
	defer l.progress.Finish()

	var series []telemetry.Table
	for _, s := range sources {
		if err := ctx.Err(); err != nil {
			return telemetry.Table{}, report, err
		}
		tbl, err := l.loadFile(s.path, s.typ)
		if err != nil {
			report.Skip(s.path, err)
			l.logger.Warn("reference file skipped",
				"event", "reference_file_skipped", "file", filepath.Base(s.path), "error", err)
			continue
		}
		l.logger.Info("reference file loaded",
			"event", "reference_file_loaded", "file", filepath.Base(s.path), "column", s.typ.Column.String(), "rows", tbl.Len())
		series = append(series, tbl)
	}
	if len(series) == 0 {
		return telemetry.Table{}, report, nil
	}
	return telemetry.OuterJoin(l.SensorName(), series...), report, nil
}

func (l *ReferenceLoader) loadFile(path string, typ ReferenceType) (telemetry.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return telemetry.Table{}, err
	}
	defer file.Close()

	reader := csv.NewReader(countingReader{r: file, progress: l.progress})
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
	tsIdx := findHeader(index, "date time", "datetime", "date_time")
	valIdx := findHeader(index, "value")
	if tsIdx < 0 || valIdx < 0 {
		return telemetry.Table{}, fmt.Errorf("%w: need Date Time and Value", ErrMissingColumn)
	}

	tbl := telemetry.Table{Columns: telemetry.NewColumnSet(typ.Column)}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		ts, err := ParseTimestamp(field(record, tsIdx), ReferenceZone)
		if err != nil {
			continue
		}
		m := telemetry.Measurement{SensorID: l.SensorName(), TS: ts, Lat: l.lat, Lon: l.lon}
		if v := parseValue(field(record, valIdx)); v.Valid {
			m.Set(typ.Column, v.Float64*typ.Scale)
		}
		tbl.Rows = append(tbl.Rows, m)
	}
	if tbl.Len() == 0 {
		return telemetry.Table{}, telemetry.ErrNoRows
	}
	return tbl, nil
}

func headerIndex(row []string) map[string]int {
	header := make(map[string]int, len(row))
	for i, name := range row {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := header[key]; !ok {
			header[key] = i
		}
	}
	return header
}

func findHeader(header map[string]int, names ...string) int {
	for _, name := range names {
		if idx, ok := header[name]; ok {
			return idx
		}
	}
	return -1
}
