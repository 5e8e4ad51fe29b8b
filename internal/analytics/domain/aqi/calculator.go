package aqi

import (
	"errors"
	"math"
	"time"

	"github.com/guregu/null"
)

// ColumnName is the output header of the index column.
const ColumnName = "AQI_PM2.5_24h_rolling"

// Notice accompanies the index in consumer-facing outputs.
const Notice = "AQI_PM2.5_24h_rolling is a trailing 24-hour rolling approximation. " +
	"It is not the official midnight-to-midnight daily AQI."

var (
	// ErrEmptyTable is returned when no breakpoints are configured.
	ErrEmptyTable = errors.New("aqi: empty breakpoint table")
	// ErrInvalidWindow is returned for a window below one sample.
	ErrInvalidWindow = errors.New("aqi: invalid window")
)

// WindowFor returns how many grid rows span 24 hours at the given step.
func WindowFor(step time.Duration) int {
	if step <= 0 {
		return 1
	}
	n := int(math.Ceil(float64(24*time.Hour) / float64(step)))
	if n < 1 {
		n = 1
	}
	return n
}

// Calculator computes a trailing rolling mean and maps it through a table.
type Calculator struct {
	table  Table
	window int
}

// NewCalculator constructs a calculator.
func NewCalculator(table Table, window int) (*Calculator, error) {
	if len(table) == 0 {
		return nil, ErrEmptyTable
	}
	if window < 1 {
		return nil, ErrInvalidWindow
	}
	return &Calculator{table: table, window: window}, nil
}

// Window returns the lookback length in samples.
func (c *Calculator) Window() int {
	return c.window
}

// Rolling returns the mean of the non-null values among the current row and
// the window-1 rows before it. Short windows at the start of a series use
// what is available. A window without any value yields null.
func (c *Calculator) Rolling(values []null.Float) []null.Float {
	out := make([]null.Float, len(values))
	var sum float64
	var n int
	for i, v := range values {
		if v.Valid {
			sum += v.Float64
			n++
		}
		if j := i - c.window; j >= 0 && values[j].Valid {
			sum -= values[j].Float64
			n--
		}
		if n > 0 {
			out[i] = null.FloatFrom(sum / float64(n))
		}
	}
	return out
}

// Compute returns one index per input row.
func (c *Calculator) Compute(values []null.Float) []null.Int {
	smoothed := c.Rolling(values)
	out := make([]null.Int, len(values))
	for i, v := range smoothed {
		if v.Valid {
			out[i] = null.IntFrom(int64(c.table.Index(v.Float64)))
		}
	}
	return out
}
