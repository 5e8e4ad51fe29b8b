package resample

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	telemetry "aircombine/internal/telemetry/domain"
)

var (
	day0      = time.Date(2019, 9, 1, 0, 0, 0, 0, time.UTC)
	pacific   = mustLocation("America/Los_Angeles")
	quietLogs = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func TestParseInterval(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"1H", time.Hour},
		{"H", time.Hour},
		{"2h", 2 * time.Hour},
		{"15T", 15 * time.Minute},
		{"15min", 15 * time.Minute},
		{"30S", 30 * time.Second},
		{"1D", 24 * time.Hour},
		{"1W", 7 * 24 * time.Hour},
		{"PT15M", 15 * time.Minute},
		{" 3 H ", 3 * time.Hour},
	}
	for _, tc := range cases {
		iv, err := ParseInterval(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if iv.Duration != tc.want {
			t.Fatalf("parse %q: expected %s, got %s", tc.in, tc.want, iv.Duration)
		}
	}
}

func TestParseIntervalRejects(t *testing.T) {
	for _, in := range []string{"banana", "", "0H", "1Y", "H1", "-1H", "PT0S", "PT0.5S", "99999999999999H", "9999999999999W", "99999999999999999999S"} {
		if _, err := ParseInterval(in); !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("expected ErrInvalidInterval for %q, got %v", in, err)
		}
	}
}

func TestNewAlignerRejectsUnparsedInterval(t *testing.T) {
	_, err := NewAligner(Options{Interval: Interval{Text: "banana"}, Location: pacific}, quietLogs)
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	_, err = NewAligner(Options{Interval: MustParseInterval("1H")}, quietLogs)
	if !errors.Is(err, ErrNilLocation) {
		t.Fatalf("expected ErrNilLocation, got %v", err)
	}
	_, err = NewAligner(Options{Interval: MustParseInterval("1H"), Location: pacific, Join: "outer"}, quietLogs)
	if !errors.Is(err, ErrInvalidJoinPolicy) {
		t.Fatalf("expected ErrInvalidJoinPolicy, got %v", err)
	}
}

func TestGridCoversIntersection(t *testing.T) {
	spans := []telemetry.Span{
		{Start: day0.Add(7 * time.Minute), End: day0.Add(5*time.Hour + 50*time.Minute)},
		{Start: day0.Add(65 * time.Minute), End: day0.Add(9 * time.Hour)},
		{Start: day0.Add(-2 * time.Hour), End: day0.Add(4*time.Hour + 20*time.Minute)},
	}
	latestStart := spans[1].Start
	earliestEnd := spans[2].End

	for _, text := range []string{"15T", "1H", "2H", "30min", "PT20M"} {
		iv := MustParseInterval(text)
		grid, ok := NewGrid(Anchor(spans[0].Start), iv.Duration, spans...)
		if !ok {
			t.Fatalf("%s: expected overlap", text)
		}
		bounds := grid.Boundaries()
		for i := 1; i < len(bounds); i++ {
			if bounds[i].Sub(bounds[i-1]) != iv.Duration {
				t.Fatalf("%s: boundaries not uniform at %d", text, i)
			}
		}
		first, last := bounds[0], bounds[len(bounds)-1]
		if first.After(latestStart) || !latestStart.Before(first.Add(iv.Duration)) {
			t.Fatalf("%s: first boundary %s does not hold latest start %s", text, first, latestStart)
		}
		if last.After(earliestEnd) || !earliestEnd.Before(last.Add(iv.Duration)) {
			t.Fatalf("%s: last boundary %s does not hold earliest end %s", text, last, earliestEnd)
		}
	}
}

func TestGridEmptyIntersection(t *testing.T) {
	a := telemetry.Span{Start: day0, End: day0.Add(time.Hour)}
	b := telemetry.Span{Start: day0.Add(3 * time.Hour), End: day0.Add(4 * time.Hour)}
	if _, ok := NewGrid(day0, time.Hour, a, b); ok {
		t.Fatalf("expected empty intersection")
	}
}

func TestGridIndexBeforeOrigin(t *testing.T) {
	grid, ok := NewGrid(day0, time.Hour, telemetry.Span{Start: day0.Add(-90 * time.Minute), End: day0})
	if !ok || grid.First != -2 || grid.Len() != 3 {
		t.Fatalf("unexpected grid %+v", grid)
	}
	if got := grid.Boundary(0); !got.Equal(day0.Add(-2 * time.Hour)) {
		t.Fatalf("unexpected first boundary %s", got)
	}
}

// twoSensors builds two sensors sampled every 2 minutes over 3 hours.
func twoSensors() telemetry.Table {
	tbl := telemetry.Table{Columns: telemetry.NewColumnSet(telemetry.PM25A, telemetry.Temperature)}
	for i := 0; i < 90; i++ {
		ts := day0.Add(time.Duration(i) * 2 * time.Minute)
		a := telemetry.Measurement{SensorID: "A", TS: ts}
		a.Set(telemetry.PM25A, float64(i))
		a.Set(telemetry.Temperature, 70)
		b := telemetry.Measurement{SensorID: "B", TS: ts}
		b.Set(telemetry.PM25A, 5)
		tbl.Rows = append(tbl.Rows, a, b)
	}
	return tbl
}

func TestAlignTwoSensorsHourly(t *testing.T) {
	aligner, err := NewAligner(Options{Interval: MustParseInterval("1H"), Location: pacific}, quietLogs)
	if err != nil {
		t.Fatalf("new aligner: %v", err)
	}
	result, err := aligner.Align(twoSensors(), nil)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if len(result.Rows) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(result.Rows))
	}
	groups := result.SensorRows()
	if len(groups) != 2 || len(groups[0]) != 3 || len(groups[1]) != 3 {
		t.Fatalf("expected 3 rows per sensor, got %v", len(groups))
	}
	for h, row := range groups[0] {
		if row.Samples != 30 {
			t.Fatalf("hour %d: expected 30 samples, got %d", h, row.Samples)
		}
		want := float64(h*30) + 14.5
		if got := row.Values[telemetry.PM25A].Float64; math.Abs(got-want) > 1e-9 {
			t.Fatalf("hour %d: expected mean %v, got %v", h, want, got)
		}
		if !row.Start.Equal(day0.Add(time.Duration(h) * time.Hour)) {
			t.Fatalf("hour %d: unexpected start %s", h, row.Start)
		}
	}
	if groups[1][0].Values[telemetry.Temperature].Valid {
		t.Fatalf("expected null temperature for sensor without readings")
	}
	if result.ReferenceJoined {
		t.Fatalf("expected no reference join")
	}
}

func TestAlignKeepsEmptyBinsAsNullRows(t *testing.T) {
	tbl := telemetry.Table{Columns: telemetry.NewColumnSet(telemetry.PM25A)}
	for _, offset := range []time.Duration{0, 10 * time.Minute, 2*time.Hour + 5*time.Minute} {
		m := telemetry.Measurement{SensorID: "A", TS: day0.Add(offset)}
		m.Set(telemetry.PM25A, 8)
		tbl.Rows = append(tbl.Rows, m)
	}
	aligner, _ := NewAligner(Options{Interval: MustParseInterval("1H"), Location: pacific}, quietLogs)
	result, err := aligner.Align(tbl, nil)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if len(result.Rows) != 3 {
		t.Fatalf("expected dense 3 rows, got %d", len(result.Rows))
	}
	gap := result.Rows[1]
	if gap.Samples != 0 || gap.Values[telemetry.PM25A].Valid {
		t.Fatalf("expected null gap row, got %+v", gap)
	}
}

func TestAlignNullValuesDoNotCount(t *testing.T) {
	tbl := telemetry.Table{Columns: telemetry.NewColumnSet(telemetry.PM25A, telemetry.Humidity)}
	first := telemetry.Measurement{SensorID: "A", TS: day0}
	first.Set(telemetry.PM25A, 10)
	first.Set(telemetry.Humidity, 40)
	second := telemetry.Measurement{SensorID: "A", TS: day0.Add(20 * time.Minute)}
	second.Set(telemetry.PM25A, 20)
	tbl.Rows = []telemetry.Measurement{first, second}

	aligner, _ := NewAligner(Options{Interval: MustParseInterval("1H"), Location: pacific}, quietLogs)
	result, _ := aligner.Align(tbl, nil)
	row := result.Rows[0]
	if row.Values[telemetry.PM25A].Float64 != 15 || row.Values[telemetry.Humidity].Float64 != 40 {
		t.Fatalf("unexpected means %+v", row.Values)
	}
}

func TestAlignKeepsEachSensorToItsOwnRange(t *testing.T) {
	tbl := telemetry.Table{Columns: telemetry.NewColumnSet(telemetry.PM25A)}
	for i := 0; i < 300; i++ {
		ts := day0.Add(time.Duration(i) * 2 * time.Minute)
		if i < 60 {
			a := telemetry.Measurement{SensorID: "A", TS: ts}
			a.Set(telemetry.PM25A, 4)
			tbl.Rows = append(tbl.Rows, a)
		}
		b := telemetry.Measurement{SensorID: "B", TS: ts}
		b.Set(telemetry.PM25A, 6)
		tbl.Rows = append(tbl.Rows, b)
	}
	aligner, _ := NewAligner(Options{Interval: MustParseInterval("1H"), Location: pacific}, quietLogs)
	result, err := aligner.Align(tbl, nil)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	groups := result.SensorRows()
	if len(groups) != 2 {
		t.Fatalf("expected 2 sensors, got %d", len(groups))
	}
	a, b := groups[0], groups[1]
	if len(a) != 2 || len(b) != 10 {
		t.Fatalf("expected 2 and 10 rows, got %d and %d", len(a), len(b))
	}
	if last := a[len(a)-1]; !last.Start.Equal(day0.Add(time.Hour)) || last.Samples != 30 {
		t.Fatalf("expected A to end at 01:00 with 30 samples, got %v %d", last.Start, last.Samples)
	}
	if !b[9].Start.Equal(day0.Add(9 * time.Hour)) {
		t.Fatalf("expected B to end at 09:00, got %v", b[9].Start)
	}
}

func TestAlignReferenceUsesAbsoluteBoundaries(t *testing.T) {
	tbl := telemetry.Table{Columns: telemetry.NewColumnSet(telemetry.PM25A)}
	for _, s := range []struct {
		id    string
		start time.Duration
	}{{"A", 0}, {"B", time.Hour}} {
		for i := 0; i < 30; i++ {
			m := telemetry.Measurement{SensorID: s.id, TS: day0.Add(s.start + time.Duration(i)*2*time.Minute)}
			m.Set(telemetry.PM25A, 1)
			tbl.Rows = append(tbl.Rows, m)
		}
	}
	aligner, _ := NewAligner(Options{Interval: MustParseInterval("1H"), Location: pacific, Join: JoinLeft}, quietLogs)
	result, err := aligner.Align(tbl, partialReference())
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	groups := result.SensorRows()
	if len(groups) != 2 || len(groups[1]) != 1 {
		t.Fatalf("expected B to hold a single row, got %+v", groups)
	}
	if got := groups[1][0].Values[telemetry.RefPM25]; !got.Valid || got.Float64 != 21 {
		t.Fatalf("expected reference 21 at 01:00, got %+v", got)
	}
}

func partialReference() *telemetry.Table {
	ref := telemetry.Table{Columns: telemetry.NewColumnSet(telemetry.RefPM25)}
	for h := 0; h < 2; h++ {
		m := telemetry.Measurement{SensorID: "LKE_REF", TS: day0.Add(time.Duration(h) * time.Hour)}
		m.Set(telemetry.RefPM25, float64(20+h))
		ref.Rows = append(ref.Rows, m)
	}
	return &ref
}

func TestAlignReferenceLeftJoin(t *testing.T) {
	aligner, _ := NewAligner(Options{Interval: MustParseInterval("1H"), Location: pacific, Join: JoinLeft}, quietLogs)
	result, err := aligner.Align(twoSensors(), partialReference())
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	for _, rows := range result.SensorRows() {
		if len(rows) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(rows))
		}
		if got := rows[1].Values[telemetry.RefPM25].Float64; got != 21 {
			t.Fatalf("expected reference 21 in hour 1, got %v", got)
		}
		if rows[2].Values[telemetry.RefPM25].Valid {
			t.Fatalf("expected null reference in hour 2")
		}
		if !rows[2].Values[telemetry.PM25A].Valid {
			t.Fatalf("expected primary value in hour 2")
		}
	}
	if !result.Columns.Has(telemetry.RefPM25) {
		t.Fatalf("expected reference column in result")
	}
}

func TestAlignReferenceInnerJoin(t *testing.T) {
	aligner, _ := NewAligner(Options{Interval: MustParseInterval("1H"), Location: pacific, Join: JoinInner}, quietLogs)
	result, err := aligner.Align(twoSensors(), partialReference())
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	for _, rows := range result.SensorRows() {
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows under inner join, got %d", len(rows))
		}
		for _, row := range rows {
			if !row.Values[telemetry.PM25A].Valid || !row.Values[telemetry.RefPM25].Valid {
				t.Fatalf("expected both columns populated, got %+v", row.Values)
			}
		}
	}
}

func TestAlignReferenceWithoutOverlapKeepsPrimary(t *testing.T) {
	ref := telemetry.Table{Columns: telemetry.NewColumnSet(telemetry.RefPM25)}
	m := telemetry.Measurement{SensorID: "LKE_REF", TS: day0.Add(48 * time.Hour)}
	m.Set(telemetry.RefPM25, 1)
	ref.Rows = append(ref.Rows, m)

	aligner, _ := NewAligner(Options{Interval: MustParseInterval("1H"), Location: pacific}, quietLogs)
	result, err := aligner.Align(twoSensors(), &ref)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if result.ReferenceJoined || len(result.Rows) != 6 || result.Columns.Has(telemetry.RefPM25) {
		t.Fatalf("expected primary-only result, got joined=%v rows=%d", result.ReferenceJoined, len(result.Rows))
	}
}

func TestAlignDropsSensorOutsideGrid(t *testing.T) {
	tbl := twoSensors()
	late := telemetry.Measurement{SensorID: "C", TS: day0.Add(30 * time.Hour)}
	late.Set(telemetry.PM25A, 3)
	tbl.Rows = append(tbl.Rows, late)

	aligner, _ := NewAligner(Options{Interval: MustParseInterval("1H"), Location: pacific}, quietLogs)
	result, err := aligner.Align(tbl, partialReference())
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if len(result.Dropped) != 1 || result.Dropped[0] != "C" {
		t.Fatalf("expected C dropped, got %v", result.Dropped)
	}
	if len(result.Sensors) != 2 {
		t.Fatalf("expected 2 sensors kept, got %v", result.Sensors)
	}
}

func TestAlignIsDeterministic(t *testing.T) {
	aligner, _ := NewAligner(Options{Interval: MustParseInterval("15T"), Location: pacific}, quietLogs)
	first, _ := aligner.Align(twoSensors(), partialReference())
	second, _ := aligner.Align(twoSensors(), partialReference())
	if len(first.Rows) != len(second.Rows) {
		t.Fatalf("row counts differ")
	}
	for i := range first.Rows {
		if first.Rows[i].SensorID != second.Rows[i].SensorID || first.Rows[i].Values != second.Rows[i].Values {
			t.Fatalf("row %d differs", i)
		}
	}
}

func TestAlignEmptyPrimary(t *testing.T) {
	aligner, _ := NewAligner(Options{Interval: MustParseInterval("1H"), Location: pacific}, quietLogs)
	if _, err := aligner.Align(telemetry.Table{}, nil); !errors.Is(err, ErrEmptyPrimary) {
		t.Fatalf("expected ErrEmptyPrimary, got %v", err)
	}
}

func TestLocalizeRoundTripAcrossDST(t *testing.T) {
	cases := []struct {
		local  time.Time
		abbrev string
		offset string
	}{
		{time.Date(2019, 1, 15, 9, 30, 0, 0, time.UTC), "PST", "-08:00"},
		{time.Date(2019, 7, 15, 9, 30, 0, 0, time.UTC), "PDT", "-07:00"},
	}
	for _, tc := range cases {
		utc := ToUTC(tc.local, pacific)
		back := Localize(utc, pacific)
		if back.Abbrev != tc.abbrev || back.Offset != tc.offset {
			t.Fatalf("%s: expected %s %s, got %s %s", tc.local, tc.abbrev, tc.offset, back.Abbrev, back.Offset)
		}
		if back.Time.Hour() != tc.local.Hour() || back.Time.Minute() != tc.local.Minute() || back.Time.Day() != tc.local.Day() {
			t.Fatalf("%s: round trip gave %s", tc.local, back.Time)
		}
	}
	if got := ToUTC(cases[0].local, pacific); got.Hour() != 17 {
		t.Fatalf("expected 17:30 UTC in winter, got %s", got)
	}
	if got := ToUTC(cases[1].local, pacific); got.Hour() != 16 {
		t.Fatalf("expected 16:30 UTC in summer, got %s", got)
	}
}

func TestAlignLocalizesEachRow(t *testing.T) {
	tbl := telemetry.Table{Columns: telemetry.NewColumnSet(telemetry.PM25A)}
	// 2019-11-03 08:00 UTC is 01:00 PDT, 09:00 UTC is 01:00 PST.
	start := time.Date(2019, 11, 3, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		m := telemetry.Measurement{SensorID: "A", TS: start.Add(time.Duration(i) * time.Hour)}
		m.Set(telemetry.PM25A, 1)
		tbl.Rows = append(tbl.Rows, m)
	}
	aligner, _ := NewAligner(Options{Interval: MustParseInterval("1H"), Location: pacific}, quietLogs)
	result, _ := aligner.Align(tbl, nil)
	var rows []Row
	for _, row := range result.Rows {
		if !row.Start.Before(start) {
			rows = append(rows, row)
		}
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows from fall-back hour, got %d", len(rows))
	}
	if rows[0].Local.Abbrev != "PDT" || rows[1].Local.Abbrev != "PST" {
		t.Fatalf("expected PDT then PST, got %s %s", rows[0].Local.Abbrev, rows[1].Local.Abbrev)
	}
	if rows[0].Local.Time.Hour() != 1 || rows[1].Local.Time.Hour() != 1 {
		t.Fatalf("expected both rows at 01:00 local")
	}
}

func TestZoneColumn(t *testing.T) {
	if got := ZoneColumn(pacific); got != "DateTime_America_Los_Angeles" {
		t.Fatalf("unexpected column %s", got)
	}
}

func TestNativeInterval(t *testing.T) {
	got := NativeInterval(twoSensors())
	if got != 2*time.Minute {
		t.Fatalf("expected 2m, got %s", got)
	}
}
