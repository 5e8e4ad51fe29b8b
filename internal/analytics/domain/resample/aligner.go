package resample

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/guregu/null"

	telemetry "aircombine/internal/telemetry/domain"
)

// JoinPolicy decides how reference rows meet the sensor grid.
type JoinPolicy string

const (
	// JoinInner restricts the grid to the range both primary and reference cover.
	JoinInner JoinPolicy = "inner"
	// JoinLeft keeps the primary grid and leaves reference columns null outside coverage.
	JoinLeft JoinPolicy = "left"
)

// ParseJoinPolicy validates a policy name.
func ParseJoinPolicy(value string) (JoinPolicy, error) {
	switch policy := JoinPolicy(strings.ToLower(strings.TrimSpace(value))); policy {
	case JoinInner, JoinLeft:
		return policy, nil
	case "":
		return JoinInner, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidJoinPolicy, value)
	}
}

// Options configures an Aligner.
type Options struct {
	Interval Interval
	Location *time.Location
	Join     JoinPolicy
}

// Row is one (sensor, grid boundary) of resampled output.
type Row struct {
	SensorID string
	Start    time.Time
	Local    LocalTime
	Lat      null.Float
	Lon      null.Float
	Values   [telemetry.ColumnCount]null.Float
	Samples  int
	AQI      null.Int
}

// Result is the resampled table.
type Result struct {
	Grid            Grid
	Location        *time.Location
	Columns         telemetry.ColumnSet
	Rows            []Row
	Sensors         []string
	Dropped         []string
	ReferenceJoined bool
}

// SensorRows returns the rows of each sensor in output order.
func (r Result) SensorRows() [][]Row {
	var out [][]Row
	start := 0
	for i := 1; i <= len(r.Rows); i++ {
		if i == len(r.Rows) || r.Rows[i].SensorID != r.Rows[start].SensorID {
			out = append(out, r.Rows[start:i])
			start = i
		}
	}
	return out
}

// Values returns the non-null values of column c.
func (r Result) Values(c telemetry.Column) []float64 {
	out := make([]float64, 0, len(r.Rows))
	for _, row := range r.Rows {
		if v := row.Values[c]; v.Valid {
			out = append(out, v.Float64)
		}
	}
	return out
}

// Aligner resamples primary and reference tables onto one shared grid.
type Aligner struct {
	opts   Options
	logger *slog.Logger
}

// NewAligner validates options.
func NewAligner(opts Options, logger *slog.Logger) (*Aligner, error) {
	if !opts.Interval.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidInterval, opts.Interval.Text)
	}
	if opts.Location == nil {
		return nil, ErrNilLocation
	}
	join, err := ParseJoinPolicy(string(opts.Join))
	if err != nil {
		return nil, err
	}
	opts.Join = join
	if logger == nil {
		logger = slog.Default()
	}
	return &Aligner{opts: opts, logger: logger}, nil
}

// Align produces one row per (sensor, boundary) over the boundaries that
// sensor covers. Every numeric column holds the mean of the samples in the
// bin, null when the bin has none. reference may be nil.
func (a *Aligner) Align(primary telemetry.Table, reference *telemetry.Table) (Result, error) {
	pSpan, ok := primary.Span()
	if !ok {
		return Result{}, ErrEmptyPrimary
	}
	step := a.opts.Interval.Duration
	origin := Anchor(pSpan.Start)
	grid, _ := NewGrid(origin, step, pSpan)

	joined := false
	if reference != nil && reference.Len() > 0 {
		rSpan, _ := reference.Span()
		shared, overlap := NewGrid(origin, step, pSpan, rSpan)
		switch {
		case !overlap:
			a.logger.Warn("reference does not overlap primary range",
				"event", "reference_no_overlap",
				"primary_start", pSpan.Start, "primary_end", pSpan.End,
				"reference_start", rSpan.Start, "reference_end", rSpan.End)
		case a.opts.Join == JoinInner:
			grid = shared
			joined = true
		default:
			joined = true
		}
	}

	result := Result{Grid: grid, Location: a.opts.Location, Columns: primary.Columns, ReferenceJoined: joined}
	var refBins []bin
	if joined {
		result.Columns = result.Columns.Union(reference.Columns)
		refBins = accumulate(reference.Rows, grid)
	}

	for _, part := range primary.Partitions() {
		// Each sensor keeps its own range on the shared boundaries.
		partSpan, _ := part.Span()
		partGrid, inside := NewGrid(origin, step, partSpan, grid.Span())
		var bins []bin
		if inside {
			bins = accumulate(part.Rows, partGrid)
		}
		samples := 0
		for _, b := range bins {
			samples += b.samples
		}
		if samples == 0 {
			result.Dropped = append(result.Dropped, part.SensorID)
			a.logger.Info("sensor has no samples inside grid",
				"event", "sensor_dropped", "sensor_id", part.SensorID)
			continue
		}

		lat, lon := part.Coordinates()
		offset := int(partGrid.First - grid.First)
		for i, b := range bins {
			start := partGrid.Boundary(i)
			row := Row{
				SensorID: part.SensorID,
				Start:    start,
				Local:    Localize(start, a.opts.Location),
				Lat:      lat,
				Lon:      lon,
				Samples:  b.samples,
			}
			for _, c := range primary.Columns.Columns() {
				row.Values[c] = b.mean(c)
			}
			if joined {
				for _, c := range reference.Columns.Columns() {
					row.Values[c] = refBins[offset+i].mean(c)
				}
			}
			result.Rows = append(result.Rows, row)
		}
		result.Sensors = append(result.Sensors, part.SensorID)
	}
	return result, nil
}

type bin struct {
	sum     [telemetry.ColumnCount]float64
	n       [telemetry.ColumnCount]int
	samples int
}

func (b bin) mean(c telemetry.Column) null.Float {
	if b.n[c] == 0 {
		return null.Float{}
	}
	return null.FloatFrom(b.sum[c] / float64(b.n[c]))
}

func accumulate(rows []telemetry.Measurement, grid Grid) []bin {
	bins := make([]bin, grid.Len())
	for _, row := range rows {
		i, ok := grid.Index(row.TS)
		if !ok {
			continue
		}
		b := &bins[i]
		b.samples++
		for c, v := range row.Values {
			if v.Valid {
				b.sum[c] += v.Float64
				b.n[c]++
			}
		}
	}
	return bins
}

// NativeInterval estimates the typical sampling interval of primary data:
// gaps between 10 s and 10 h are averaged, gaps above 1.2x that mean are
// discarded and the remainder averaged again.
func NativeInterval(primary telemetry.Table) time.Duration {
	var gaps []float64
	for _, part := range primary.Partitions() {
		for i := 1; i < len(part.Rows); i++ {
			gap := part.Rows[i].TS.Sub(part.Rows[i-1].TS).Seconds()
			if gap >= 10 && gap <= 36000 {
				gaps = append(gaps, gap)
			}
		}
	}
	if len(gaps) == 0 {
		return 0
	}
	mean := average(gaps)
	var kept []float64
	for _, gap := range gaps {
		if gap <= mean*1.2 {
			kept = append(kept, gap)
		}
	}
	if len(kept) > 0 {
		mean = average(kept)
	}
	return time.Duration(mean * float64(time.Second))
}

func average(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
