package telemetry

import (
	"fmt"
	"strings"
)

// primaryAliases maps lower-cased source headers onto canonical columns.
// RSSI_dbm replaced ADC in later firmware exports.
var primaryAliases = map[string]Column{
	"pm1.0_cf_atm_ug/m3":   PM1,
	"pm1_0_atm":            PM1,
	"pm1.0_atm":            PM1,
	"pm2.5_cf_atm_ug/m3":   PM25A,
	"pm2_5_atm":            PM25A,
	"pm2.5_atm":            PM25A,
	"pm2_5_atm_a":          PM25A,
	"pm2.5_atm_a":          PM25A,
	"pm2.5_cf_atm_b_ug/m3": PM25B,
	"pm2_5_atm_b":          PM25B,
	"pm2.5_atm_b":          PM25B,
	"pm10.0_cf_atm_ug/m3":  PM10,
	"pm10_0_atm":           PM10,
	"pm10.0_atm":           PM10,
	"uptimeminutes":        Uptime,
	"uptime":               Uptime,
	"adc":                  ADC,
	"rssi_dbm":             ADC,
	"rssi":                 ADC,
	"temperature_f":        Temperature,
	"temperature":          Temperature,
	"current_temp_f":       Temperature,
	"humidity_%":           Humidity,
	"humidity":             Humidity,
	"current_humidity":     Humidity,
	"pressure_hpa":         Pressure,
	"pressure":             Pressure,
	"current_pressure":     Pressure,
	"pm2.5_cf_1_ug/m3":     PM25CF1,
	"pm2_5_cf_1":           PM25CF1,
}

var timestampAliases = map[string]struct{}{
	"created_at":   {},
	"datetime_utc": {},
	"timestamp":    {},
	"time_stamp":   {},
	"utc_datetime": {},
}

var ignoredHeaders = map[string]struct{}{
	"":         {},
	"entry_id": {},
}

// HeaderMap records where each canonical column sits in one source file.
type HeaderMap struct {
	Timestamp int
	Columns   [ColumnCount]int
	Unknown   []string
}

// ResolveHeader normalizes a primary file header against the alias map.
func ResolveHeader(header []string) (HeaderMap, error) {
	hm := HeaderMap{Timestamp: -1}
	for i := range hm.Columns {
		hm.Columns[i] = -1
	}
	for idx, raw := range header {
		name := normalizeHeader(raw)
		if _, ok := ignoredHeaders[name]; ok || strings.HasPrefix(name, "unnamed") {
			continue
		}
		if _, ok := timestampAliases[name]; ok {
			if hm.Timestamp < 0 {
				hm.Timestamp = idx
			}
			continue
		}
		col, ok := primaryAliases[name]
		if !ok {
			hm.Unknown = append(hm.Unknown, strings.TrimSpace(raw))
			continue
		}
		if hm.Columns[col] >= 0 {
			return hm, fmt.Errorf("%w: %s", ErrDuplicateColumn, col)
		}
		hm.Columns[col] = idx
	}
	if hm.Timestamp < 0 {
		return hm, ErrMissingTimestampColumn
	}
	if hm.Columns[PM25A] < 0 {
		return hm, ErrMissingConcentrationColumn
	}
	return hm, nil
}

// Present returns the set of canonical columns found.
func (h HeaderMap) Present() ColumnSet {
	var s ColumnSet
	for c, idx := range h.Columns {
		if idx >= 0 {
			s = s.With(Column(c))
		}
	}
	return s
}

func normalizeHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.ToLower(strings.TrimSpace(name))
}
