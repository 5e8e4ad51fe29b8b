package telemetry

import "strings"

// TimestampColumn is the canonical name of the UTC timestamp column.
const TimestampColumn = "DateTime_UTC"

// Column identifies a canonical numeric column of the unified table.
type Column int

const (
	PM1 Column = iota
	PM25A
	PM25B
	PM10
	Uptime
	ADC
	Temperature
	Humidity
	Pressure
	PM25CF1
	RefPM25
	WindDirection
	WindSpeed
	ColumnCount
)

var columnNames = [ColumnCount]string{
	PM1:           "PM1.0_CF_ATM_ug/m3",
	PM25A:         "PM2.5_CF_ATM_ug/m3",
	PM25B:         "PM2.5_CF_ATM_B_ug/m3",
	PM10:          "PM10.0_CF_ATM_ug/m3",
	Uptime:        "UptimeMinutes",
	ADC:           "ADC",
	Temperature:   "Temperature_F",
	Humidity:      "Humidity_%",
	Pressure:      "Pressure_hPa",
	PM25CF1:       "PM2.5_CF_1_ug/m3",
	RefPM25:       "PM2.5_REF_ug/m3",
	WindDirection: "WindDirection_deg",
	WindSpeed:     "WindSpeed_m/s",
}

// PrimaryColumns lists sensor-sourced columns in canonical order.
var PrimaryColumns = []Column{PM1, PM25A, PM25B, PM10, Uptime, ADC, Temperature, Humidity, Pressure, PM25CF1}

// ReferenceColumns lists station-sourced columns in canonical order.
var ReferenceColumns = []Column{RefPM25, WindDirection, WindSpeed}

// String returns the canonical header name.
func (c Column) String() string {
	if c < 0 || c >= ColumnCount {
		return "unknown"
	}
	return columnNames[c]
}

// Reference reports whether the column is contributed by reference data.
func (c Column) Reference() bool {
	return c >= RefPM25 && c < ColumnCount
}

// ColumnSet is the set of columns a table carries.
type ColumnSet uint32

// NewColumnSet builds a set from columns.
func NewColumnSet(cols ...Column) ColumnSet {
	var s ColumnSet
	for _, c := range cols {
		s = s.With(c)
	}
	return s
}

// Has reports membership.
func (s ColumnSet) Has(c Column) bool {
	return s&(1<<uint(c)) != 0
}

// With returns the set plus c.
func (s ColumnSet) With(c Column) ColumnSet {
	return s | 1<<uint(c)
}

// Without returns the set minus c.
func (s ColumnSet) Without(c Column) ColumnSet {
	return s &^ (1 << uint(c))
}

// Union merges two sets.
func (s ColumnSet) Union(other ColumnSet) ColumnSet {
	return s | other
}

// Intersect keeps columns present in both sets.
func (s ColumnSet) Intersect(other ColumnSet) ColumnSet {
	return s & other
}

// Columns returns members in canonical order.
func (s ColumnSet) Columns() []Column {
	out := make([]Column, 0, ColumnCount)
	for c := Column(0); c < ColumnCount; c++ {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// String lists member names, comma separated.
func (s ColumnSet) String() string {
	cols := s.Columns()
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.String())
	}
	return strings.Join(names, ",")
}
