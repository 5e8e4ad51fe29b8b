package telemetry

import (
	"sort"
	"time"

	"github.com/guregu/null"
)

// Measurement is one timestamped row from a primary or reference source.
type Measurement struct {
	SensorID string
	TS       time.Time

	Lat    null.Float
	Lon    null.Float
	Values [ColumnCount]null.Float
}

// Validate checks measurement invariants.
func (m Measurement) Validate() error {
	if m.SensorID == "" {
		return ErrEmptySensorID
	}
	if m.TS.IsZero() {
		return ErrZeroTimestamp
	}
	if m.TS.Location() != time.UTC {
		return ErrNonUTCTimestamp
	}
	return nil
}

// Value returns the value of column c.
func (m Measurement) Value(c Column) null.Float {
	return m.Values[c]
}

// Set stores v in column c.
func (m *Measurement) Set(c Column, v float64) {
	m.Values[c] = null.FloatFrom(v)
}

// SkippedFile records a source file that was not loaded.
type SkippedFile struct {
	Path   string
	Reason string
}

// LoadReport describes which source files a loader opened and which it skipped.
type LoadReport struct {
	Files   []string
	Skipped []SkippedFile
}

// Loaded returns the number of files that contributed rows.
func (r LoadReport) Loaded() int {
	return len(r.Files) - len(r.Skipped)
}

// Skip records path as skipped.
func (r *LoadReport) Skip(path string, err error) {
	r.Skipped = append(r.Skipped, SkippedFile{Path: path, Reason: err.Error()})
}

// Span is a closed UTC time range.
type Span struct {
	Start time.Time
	End   time.Time
}

// Hours widens the span to whole hours, floor at the start and ceiling at the end.
func (s Span) Hours() Span {
	start := s.Start.Truncate(time.Hour)
	end := s.End.Truncate(time.Hour)
	if end.Before(s.End) {
		end = end.Add(time.Hour)
	}
	return Span{Start: start, End: end}
}

// Contains reports whether ts lies inside the span, both ends inclusive.
func (s Span) Contains(ts time.Time) bool {
	return !ts.Before(s.Start) && !ts.After(s.End)
}

// Table is the unified working table.
type Table struct {
	Columns ColumnSet
	Rows    []Measurement
}

// Len returns the row count.
func (t Table) Len() int {
	return len(t.Rows)
}

// Span returns the earliest and latest timestamps.
func (t Table) Span() (Span, bool) {
	if len(t.Rows) == 0 {
		return Span{}, false
	}
	span := Span{Start: t.Rows[0].TS, End: t.Rows[0].TS}
	for _, row := range t.Rows[1:] {
		if row.TS.Before(span.Start) {
			span.Start = row.TS
		}
		if row.TS.After(span.End) {
			span.End = row.TS
		}
	}
	return span, true
}

// Clip keeps rows inside span.
func (t Table) Clip(span Span) Table {
	out := Table{Columns: t.Columns}
	for _, row := range t.Rows {
		if span.Contains(row.TS) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Select keeps only the given columns, blanking the rest.
func (t Table) Select(cols ColumnSet) Table {
	keep := t.Columns.Intersect(cols)
	out := Table{Columns: keep, Rows: make([]Measurement, len(t.Rows))}
	for i, row := range t.Rows {
		for c := Column(0); c < ColumnCount; c++ {
			if !keep.Has(c) {
				row.Values[c] = null.Float{}
			}
		}
		out.Rows[i] = row
	}
	return out
}

// Values returns the non-null values of column c in row order.
func (t Table) Values(c Column) []float64 {
	out := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if v := row.Values[c]; v.Valid {
			out = append(out, v.Float64)
		}
	}
	return out
}

// Partition is the rows of one sensor.
type Partition struct {
	SensorID string
	Rows     []Measurement
}

// Coordinates returns the first known coordinates of the partition.
func (p Partition) Coordinates() (null.Float, null.Float) {
	for _, row := range p.Rows {
		if row.Lat.Valid && row.Lon.Valid {
			return row.Lat, row.Lon
		}
	}
	return null.Float{}, null.Float{}
}

// Span returns the earliest and latest timestamp of the partition.
func (p Partition) Span() (Span, bool) {
	return Table{Rows: p.Rows}.Span()
}

// Partitions groups rows by sensor, sorted by sensor id, preserving row order.
func (t Table) Partitions() []Partition {
	index := make(map[string]int)
	var parts []Partition
	for _, row := range t.Rows {
		i, ok := index[row.SensorID]
		if !ok {
			i = len(parts)
			index[row.SensorID] = i
			parts = append(parts, Partition{SensorID: row.SensorID})
		}
		parts[i].Rows = append(parts[i].Rows, row)
	}
	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].SensorID < parts[j].SensorID
	})
	return parts
}

// OuterJoin merges single-entity series on timestamp. A timestamp present in
// any input appears once in the output, columns missing from it stay null.
// When two inputs carry the same column at one timestamp the first wins.
func OuterJoin(sensorID string, series ...Table) Table {
	byTS := make(map[int64]int)
	out := Table{}
	for _, tbl := range series {
		out.Columns = out.Columns.Union(tbl.Columns)
		for _, row := range tbl.Rows {
			key := row.TS.UnixNano()
			i, ok := byTS[key]
			if !ok {
				i = len(out.Rows)
				byTS[key] = i
				out.Rows = append(out.Rows, Measurement{SensorID: sensorID, TS: row.TS, Lat: row.Lat, Lon: row.Lon})
			}
			merged := &out.Rows[i]
			for _, c := range tbl.Columns.Columns() {
				if !merged.Values[c].Valid {
					merged.Values[c] = row.Values[c]
				}
			}
		}
	}
	sort.SliceStable(out.Rows, func(i, j int) bool {
		return out.Rows[i].TS.Before(out.Rows[j].TS)
	})
	return out
}
