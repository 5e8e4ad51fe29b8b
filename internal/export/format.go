package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/guregu/null"
)

const (
	timeLayout      = "2006-01-02 15:04:05"
	transportLayout = "2006-01-02T15:04:05-0700"
)

// Output file names.
const (
	FlatFile        = "combined_full.csv"
	SummaryCSVFile  = "combined_summarized_csv.csv"
	SummaryNotes    = "combined_summarized_notes.txt"
	SummaryXLSXFile = "combined_summarized_xl.xlsx"
	TransportFile   = "combined_summarized_retigo.csv"
	SensorStatsFile = "sensor_stats.csv"
	SourceFile      = "source.csv"
	PlotFile        = "combined_plot.pdf"
	stationSuffix   = "_station_merged.csv"
)

// StationFile names the merged reference output of a station.
func StationFile(prefix string) string {
	return prefix + stationSuffix
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(timeLayout)
}

func formatLocal(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format(timeLayout)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatNullFloat(value null.Float) string {
	if !value.Valid {
		return ""
	}
	return formatFloat(value.Float64)
}

func formatNullInt(value null.Int) string {
	if !value.Valid {
		return ""
	}
	return strconv.FormatInt(value.Int64, 10)
}

// writeCSV creates path and writes header followed by the rows emit produces.
func writeCSV(path string, header []string, emit func(w *csv.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := emit(writer); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
