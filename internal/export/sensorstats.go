package export

import (
	"context"
	"encoding/csv"
	"path/filepath"
	"strconv"

	"aircombine/internal/analytics/application"
)

// SensorStatsCSV writes sensor_stats.csv: first and last UTC timestamp and
// row count of each loaded sensor.
type SensorStatsCSV struct {
	dir string
}

// NewSensorStatsCSV writes into dir.
func NewSensorStatsCSV(dir string) *SensorStatsCSV {
	return &SensorStatsCSV{dir: dir}
}

// Name implements application.Sink.
func (s *SensorStatsCSV) Name() string { return SensorStatsFile }

// Write implements application.Sink.
func (s *SensorStatsCSV) Write(_ context.Context, run *application.Run) error {
	header := []string{"Sensor", "first", "last", "rows"}
	return writeCSV(filepath.Join(s.dir, SensorStatsFile), header, func(w *csv.Writer) error {
		for _, c := range run.Coverage {
			if err := w.Write([]string{c.SensorID, formatTime(c.First), formatTime(c.Last), strconv.Itoa(c.Rows)}); err != nil {
				return err
			}
		}
		return nil
	})
}
