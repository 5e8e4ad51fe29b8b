package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/guregu/null"

	"aircombine/internal/analytics/application"
	"aircombine/internal/analytics/domain/aqi"
	"aircombine/internal/analytics/domain/resample"
	telemetry "aircombine/internal/telemetry/domain"
)

type cellKind int

const (
	cellText cellKind = iota
	cellTime
	cellNumber
	cellInteger
)

type cell struct {
	kind    cellKind
	text    string
	time    time.Time
	number  null.Float
	integer null.Int
}

func (c cell) String() string {
	switch c.kind {
	case cellTime:
		return formatLocal(c.time)
	case cellNumber:
		return formatNullFloat(c.number)
	case cellInteger:
		return formatNullInt(c.integer)
	default:
		return c.text
	}
}

// summaryLayout is the analysis column order shared by the CSV and
// spreadsheet outputs.
type summaryLayout struct {
	header    []string
	kinds     []cellKind
	primary   []telemetry.Column
	reference []telemetry.Column
}

func newSummaryLayout(run *application.Run) summaryLayout {
	var l summaryLayout
	for _, c := range run.Summary.Columns.Columns() {
		if c.Reference() {
			l.reference = append(l.reference, c)
		} else {
			l.primary = append(l.primary, c)
		}
	}
	loc := run.Summary.Location
	if loc == nil {
		loc = time.UTC
	}
	l.add("Sensor", cellText)
	l.add(resample.ZoneColumn(loc), cellTime)
	l.add("UTC_Offset", cellText)
	l.add(telemetry.TimestampColumn, cellTime)
	for _, c := range l.primary {
		l.add(c.String(), cellNumber)
	}
	l.add("Lat", cellNumber)
	l.add("Lon", cellNumber)
	for _, c := range l.reference {
		l.add(c.String(), cellNumber)
	}
	l.add("Samples", cellInteger)
	l.add(aqi.ColumnName, cellInteger)
	return l
}

func (l *summaryLayout) add(name string, kind cellKind) {
	l.header = append(l.header, name)
	l.kinds = append(l.kinds, kind)
}

func (l summaryLayout) cells(row resample.Row) []cell {
	out := make([]cell, 0, len(l.header))
	out = append(out,
		cell{kind: cellText, text: row.SensorID},
		cell{kind: cellTime, time: row.Local.Time},
		cell{kind: cellText, text: row.Local.Offset},
		cell{kind: cellTime, time: row.Start.UTC()},
	)
	for _, c := range l.primary {
		out = append(out, cell{kind: cellNumber, number: row.Values[c]})
	}
	out = append(out,
		cell{kind: cellNumber, number: row.Lat},
		cell{kind: cellNumber, number: row.Lon},
	)
	for _, c := range l.reference {
		out = append(out, cell{kind: cellNumber, number: row.Values[c]})
	}
	out = append(out,
		cell{kind: cellInteger, integer: null.IntFrom(int64(row.Samples))},
		cell{kind: cellInteger, integer: row.AQI},
	)
	return out
}

// SummaryCSV writes combined_summarized_csv.csv and, next to it,
// combined_summarized_notes.txt describing the index column.
type SummaryCSV struct {
	dir string
}

// NewSummaryCSV writes into dir.
func NewSummaryCSV(dir string) *SummaryCSV {
	return &SummaryCSV{dir: dir}
}

// Name implements application.Sink.
func (s *SummaryCSV) Name() string { return SummaryCSVFile }

// Write implements application.Sink.
func (s *SummaryCSV) Write(_ context.Context, run *application.Run) error {
	layout := newSummaryLayout(run)
	err := writeCSV(filepath.Join(s.dir, SummaryCSVFile), layout.header, func(w *csv.Writer) error {
		record := make([]string, len(layout.header))
		for _, row := range run.Summary.Rows {
			for i, c := range layout.cells(row) {
				record[i] = c.String()
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, SummaryNotes), []byte(summaryNotes(run)), 0o644)
}

func summaryNotes(run *application.Run) string {
	return fmt.Sprintf("%s: %s\nInterval: %s\nRun: %s\n", aqi.ColumnName, aqi.Notice, run.Interval, run.ID)
}
