package export

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"aircombine/internal/analytics/application"
	"aircombine/internal/analytics/domain/resample"
	telemetry "aircombine/internal/telemetry/domain"
)

// Plot area in millimetres on a landscape A4 page.
const (
	plotLeft   = 25.0
	plotTop    = 20.0
	plotWidth  = 255.0
	plotHeight = 165.0
	plotTicks  = 5
)

// PlotPDF writes combined_plot.pdf: summarized PM2.5 of every sensor in gray
// with the reference PM2.5 highlighted on top.
type PlotPDF struct {
	dir  string
	yMax float64
}

// NewPlotPDF writes into dir. A yMax of zero or less scales the y axis to
// the data.
func NewPlotPDF(dir string, yMax float64) *PlotPDF {
	return &PlotPDF{dir: dir, yMax: yMax}
}

// Name implements application.Sink.
func (s *PlotPDF) Name() string { return PlotFile }

// Write implements application.Sink.
func (s *PlotPDF) Write(_ context.Context, run *application.Run) error {
	data, err := BuildPlotPDF(run, s.yMax)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, PlotFile), data, 0o644)
}

type plotPoint struct {
	at    time.Time
	value float64
	valid bool
}

type plotSeries struct {
	name   string
	points []plotPoint
}

// BuildPlotPDF renders the PM2.5 chart of a run.
func BuildPlotPDF(run *application.Run, yMax float64) ([]byte, error) {
	sensors, reference := plotData(run.Summary)
	first, last, top, ok := plotBounds(append(sensors, reference...))
	if !ok {
		return nil, ErrNoPlotData
	}
	if yMax > 0 {
		top = yMax
	}
	span := last.Sub(first).Seconds()
	if span <= 0 {
		span = 1
	}
	x := func(t time.Time) float64 {
		return plotLeft + plotWidth*t.Sub(first).Seconds()/span
	}
	y := func(v float64) float64 {
		v = math.Max(0, math.Min(v, top))
		return plotTop + plotHeight - plotHeight*v/top
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 12)
	pdf.Text(plotLeft, plotTop-8, "PM2.5")
	pdf.SetFont("Arial", "", 8)

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	pdf.Rect(plotLeft, plotTop, plotWidth, plotHeight, "D")
	for i := 0; i <= plotTicks; i++ {
		v := top * float64(i) / plotTicks
		py := y(v)
		pdf.Line(plotLeft-1.5, py, plotLeft, py)
		pdf.Text(plotLeft-12, py+1, formatTick(v))

		at := first.Add(time.Duration(float64(last.Sub(first)) * float64(i) / plotTicks))
		px := x(at)
		pdf.Line(px, plotTop+plotHeight, px, plotTop+plotHeight+1.5)
		pdf.Text(px-10, plotTop+plotHeight+6, formatLocalTick(at, run.Summary.Location))
	}
	pdf.TransformBegin()
	pdf.TransformRotate(90, plotLeft-16, plotTop+plotHeight/2)
	pdf.Text(plotLeft-16, plotTop+plotHeight/2, "ug/M^3")
	pdf.TransformEnd()

	pdf.SetAlpha(0.35, "Normal")
	pdf.SetDrawColor(128, 128, 128)
	pdf.SetLineWidth(0.2)
	for _, series := range sensors {
		drawSeries(pdf, series, x, y)
	}
	pdf.SetAlpha(1, "Normal")
	if len(reference) > 0 {
		pdf.SetDrawColor(230, 180, 0)
		pdf.SetLineWidth(0.6)
		for _, series := range reference {
			drawSeries(pdf, series, x, y)
		}
		pdf.SetTextColor(180, 140, 0)
		pdf.Text(plotLeft+plotWidth-40, plotTop-2, reference[0].name)
		pdf.SetTextColor(0, 0, 0)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// plotData splits summarized rows into one PM2.5 series per sensor and a
// single reference series taken from the first sensor's grid.
func plotData(result resample.Result) (sensors, reference []plotSeries) {
	withReference := result.Columns.Has(telemetry.RefPM25)
	for i, rows := range result.SensorRows() {
		series := plotSeries{name: rows[0].SensorID}
		var ref plotSeries
		for _, row := range rows {
			v := row.Values[telemetry.PM25A]
			series.points = append(series.points, plotPoint{at: row.Start, value: v.Float64, valid: v.Valid})
			if withReference && i == 0 {
				r := row.Values[telemetry.RefPM25]
				ref.points = append(ref.points, plotPoint{at: row.Start, value: r.Float64, valid: r.Valid})
			}
		}
		sensors = append(sensors, series)
		if withReference && i == 0 {
			ref.name = telemetry.RefPM25.String()
			reference = append(reference, ref)
		}
	}
	return sensors, reference
}

func plotBounds(series []plotSeries) (first, last time.Time, top float64, ok bool) {
	for _, s := range series {
		for _, p := range s.points {
			if first.IsZero() || p.at.Before(first) {
				first = p.at
			}
			if p.at.After(last) {
				last = p.at
			}
			if p.valid {
				ok = true
				top = math.Max(top, p.value)
			}
		}
	}
	if top <= 0 {
		top = 1
	}
	return first, last, top * 1.1, ok
}

// drawSeries connects consecutive valid points; nulls break the line.
func drawSeries(pdf *gofpdf.Fpdf, series plotSeries, x func(time.Time) float64, y func(float64) float64) {
	var prev *plotPoint
	for i := range series.points {
		p := &series.points[i]
		if !p.valid {
			prev = nil
			continue
		}
		if prev != nil {
			pdf.Line(x(prev.at), y(prev.value), x(p.at), y(p.value))
		}
		prev = p
	}
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func formatLocalTick(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("01-02 15:04")
}
