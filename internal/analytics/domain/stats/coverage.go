package stats

import (
	"time"

	telemetry "aircombine/internal/telemetry/domain"
)

// Coverage is the observed time range of one sensor.
type Coverage struct {
	SensorID string
	First    time.Time
	Last     time.Time
	Rows     int
}

// SensorCoverage reports first and last timestamps per sensor.
func SensorCoverage(table telemetry.Table) []Coverage {
	parts := table.Partitions()
	out := make([]Coverage, 0, len(parts))
	for _, part := range parts {
		span, ok := telemetry.Table{Rows: part.Rows}.Span()
		if !ok {
			continue
		}
		out = append(out, Coverage{
			SensorID: part.SensorID,
			First:    span.Start,
			Last:     span.End,
			Rows:     len(part.Rows),
		})
	}
	return out
}
