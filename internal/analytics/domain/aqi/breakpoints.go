package aqi

import "math"

// Band maps a concentration range onto an index range.
type Band struct {
	ConcLo  float64
	ConcHi  float64
	IndexLo int
	IndexHi int
}

// Table is an ascending piecewise-linear breakpoint table.
type Table []Band

// PM25 is the US EPA PM2.5 breakpoint table (24-hour, µg/m³) as revised
// in 2024.
var PM25 = Table{
	{ConcLo: 0.0, ConcHi: 9.0, IndexLo: 0, IndexHi: 50},
	{ConcLo: 9.1, ConcHi: 35.4, IndexLo: 51, IndexHi: 100},
	{ConcLo: 35.5, ConcHi: 55.4, IndexLo: 101, IndexHi: 150},
	{ConcLo: 55.5, ConcHi: 125.4, IndexLo: 151, IndexHi: 200},
	{ConcLo: 125.5, ConcHi: 225.4, IndexLo: 201, IndexHi: 300},
	{ConcLo: 225.5, ConcHi: 325.4, IndexLo: 301, IndexHi: 500},
}

// Index maps a concentration to an integer index. Negative input is clamped
// to zero and the value truncated to 0.1 before lookup. Concentrations above
// the table follow the slope of the top band.
func (t Table) Index(conc float64) int {
	if len(t) == 0 || math.IsNaN(conc) {
		return 0
	}
	if conc < 0 {
		conc = 0
	}
	conc = math.Floor(conc*10+1e-9) / 10

	band := t[len(t)-1]
	for _, b := range t {
		if conc <= b.ConcHi {
			band = b
			break
		}
	}
	return band.interpolate(conc)
}

func (b Band) interpolate(conc float64) int {
	slope := float64(b.IndexHi-b.IndexLo) / (b.ConcHi - b.ConcLo)
	return int(math.Round(slope*(conc-b.ConcLo) + float64(b.IndexLo)))
}
