package resample

import (
	"time"

	telemetry "aircombine/internal/telemetry/domain"
)

// Grid is a uniform run of boundaries Origin + k*Step for k in [First, Last].
// Boundary k labels the half-open bin [boundary, boundary+Step).
type Grid struct {
	Origin time.Time
	Step   time.Duration
	First  int64
	Last   int64
}

// Anchor returns the UTC midnight preceding ts. Every table in a run shares
// the anchor derived from the earliest primary sample.
func Anchor(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

// NewGrid returns the grid covering the intersection of spans, each span taken
// at bin resolution. ok is false when the intersection is empty.
func NewGrid(origin time.Time, step time.Duration, spans ...telemetry.Span) (Grid, bool) {
	g := Grid{Origin: origin.UTC(), Step: step}
	if step <= 0 || len(spans) == 0 {
		return g, false
	}
	for i, span := range spans {
		first := g.bin(span.Start)
		last := g.bin(span.End)
		if i == 0 || first > g.First {
			g.First = first
		}
		if i == 0 || last < g.Last {
			g.Last = last
		}
	}
	return g, g.First <= g.Last
}

// Len returns the number of boundaries.
func (g Grid) Len() int {
	if g.Last < g.First {
		return 0
	}
	return int(g.Last-g.First) + 1
}

// Boundary returns the i-th boundary, 0-based.
func (g Grid) Boundary(i int) time.Time {
	return g.Origin.Add(time.Duration(g.First+int64(i)) * g.Step)
}

// Boundaries lists every boundary in order.
func (g Grid) Boundaries() []time.Time {
	out := make([]time.Time, g.Len())
	for i := range out {
		out[i] = g.Boundary(i)
	}
	return out
}

// Index returns the position of the bin containing ts.
func (g Grid) Index(ts time.Time) (int, bool) {
	b := g.bin(ts)
	if b < g.First || b > g.Last {
		return 0, false
	}
	return int(b - g.First), true
}

// Span returns the covered range, first boundary to the end of the last bin.
func (g Grid) Span() telemetry.Span {
	return telemetry.Span{Start: g.Boundary(0), End: g.Boundary(g.Len()).Add(-time.Nanosecond)}
}

func (g Grid) bin(ts time.Time) int64 {
	d := ts.Sub(g.Origin)
	b := int64(d / g.Step)
	if d < 0 && d%g.Step != 0 {
		b--
	}
	return b
}
