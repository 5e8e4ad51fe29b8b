package stats

import (
	"math"
	"sort"

	"github.com/go-gota/gota/series"
)

// Description summarizes a numeric column.
type Description struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	P25   float64
	P50   float64
	P75   float64
	Max   float64
}

// Describe computes count, mean, sample standard deviation, extremes and
// quartiles. Quartiles interpolate linearly between the closest ranks. An
// empty input yields a zero Description.
func Describe(values []float64) Description {
	if len(values) == 0 {
		return Description{}
	}
	s := series.Floats(values)
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	d := Description{
		Count: s.Len(),
		Mean:  s.Mean(),
		Min:   s.Min(),
		P25:   linearQuantile(sorted, 0.25),
		P50:   linearQuantile(sorted, 0.5),
		P75:   linearQuantile(sorted, 0.75),
		Max:   s.Max(),
	}
	if d.Count > 1 {
		d.Std = s.StdDev()
	}
	return d
}

// linearQuantile reads quantile q of ascending values at rank q*(n-1).
func linearQuantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
