package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"aircombine/internal/analytics/application"
	"aircombine/internal/analytics/domain/aqi"
)

const (
	summarySheet = "summary"
	notesSheet   = "notes"

	dateFormat    = "yyyy-mm-dd hh:mm:ss"
	numberFormat  = "#,##0.00"
	integerFormat = "0"
)

// SummaryXLSX writes combined_summarized_xl.xlsx: the summarized table with a
// bold frozen header row, fixed column widths and number formats.
type SummaryXLSX struct {
	dir string
}

// NewSummaryXLSX writes into dir.
func NewSummaryXLSX(dir string) *SummaryXLSX {
	return &SummaryXLSX{dir: dir}
}

// Name implements application.Sink.
func (s *SummaryXLSX) Name() string { return SummaryXLSXFile }

// Write implements application.Sink.
func (s *SummaryXLSX) Write(_ context.Context, run *application.Run) error {
	f, err := BuildSummaryXLSX(run)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return f.SaveAs(filepath.Join(s.dir, SummaryXLSXFile))
}

// BuildSummaryXLSX renders the summarized table into a workbook.
func BuildSummaryXLSX(run *application.Run) (*excelize.File, error) {
	layout := newSummaryLayout(run)
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	styles, err := newSheetStyles(f)
	if err != nil {
		return nil, err
	}

	for i, name := range layout.header {
		ref, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(summarySheet, ref, name); err != nil {
			return nil, err
		}
	}

	for r, row := range run.Summary.Rows {
		for i, c := range layout.cells(row) {
			ref, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return nil, err
			}
			var value interface{}
			switch c.kind {
			case cellTime:
				// Cells hold the wall clock; spreadsheets have no zone.
				t := c.time
				value = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
			case cellNumber:
				if !c.number.Valid {
					continue
				}
				value = c.number.Float64
			case cellInteger:
				if !c.integer.Valid {
					continue
				}
				value = c.integer.Int64
			default:
				value = c.text
			}
			if err := f.SetCellValue(summarySheet, ref, value); err != nil {
				return nil, err
			}
		}
	}

	lastRow := len(run.Summary.Rows) + 1
	for i, kind := range layout.kinds {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(summarySheet, col, col, columnWidth(layout.header[i], kind)); err != nil {
			return nil, err
		}
		if lastRow > 1 {
			if err := f.SetCellStyle(summarySheet, col+"2", fmt.Sprintf("%s%d", col, lastRow), styles.forKind(kind)); err != nil {
				return nil, err
			}
		}
	}

	lastCol, err := excelize.CoordinatesToCellName(len(layout.header), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(summarySheet, "A1", lastCol, styles.header); err != nil {
		return nil, err
	}
	if err := f.SetPanes(summarySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(notesSheet); err != nil {
		return nil, err
	}
	_ = f.SetCellValue(notesSheet, "A1", aqi.ColumnName)
	_ = f.SetCellValue(notesSheet, "B1", aqi.Notice)
	_ = f.SetCellValue(notesSheet, "A2", "Interval")
	_ = f.SetCellValue(notesSheet, "B2", run.Interval.String())
	_ = f.SetCellValue(notesSheet, "A3", "Run")
	_ = f.SetCellValue(notesSheet, "B3", run.ID)
	_ = f.SetColWidth(notesSheet, "A", "A", 24)
	_ = f.SetColWidth(notesSheet, "B", "B", 100)
	return f, nil
}

type sheetStyles struct {
	header  int
	date    int
	number  int
	integer int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	}); err != nil {
		return s, err
	}
	date := dateFormat
	if s.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &date}); err != nil {
		return s, err
	}
	number := numberFormat
	if s.number, err = f.NewStyle(&excelize.Style{CustomNumFmt: &number}); err != nil {
		return s, err
	}
	integer := integerFormat
	if s.integer, err = f.NewStyle(&excelize.Style{CustomNumFmt: &integer}); err != nil {
		return s, err
	}
	return s, nil
}

func (s sheetStyles) forKind(kind cellKind) int {
	switch kind {
	case cellTime:
		return s.date
	case cellNumber:
		return s.number
	case cellInteger:
		return s.integer
	default:
		return 0
	}
}

func columnWidth(name string, kind cellKind) float64 {
	switch kind {
	case cellTime:
		if len(name) > 22 {
			return float64(len(name)) + 2
		}
		return 22
	case cellText:
		return 16
	default:
		if len(name) > 13 {
			return float64(len(name)) + 2
		}
		return 13
	}
}
