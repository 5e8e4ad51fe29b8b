package telemetry

import (
	"errors"
	"testing"
	"time"
)

func TestResolveHeaderHandlesRenamedColumns(t *testing.T) {
	header := []string{"created_at", "entry_id", "PM1.0_CF_ATM_ug/m3", "PM2.5_CF_ATM_ug/m3", "PM10.0_CF_ATM_ug/m3", "UptimeMinutes", "RSSI_dbm", "Temperature_F", "Humidity_%", "PM2.5_CF_1_ug/m3", "Unnamed: 10", ""}
	hm, err := ResolveHeader(header)
	if err != nil {
		t.Fatalf("resolve header: %v", err)
	}
	if hm.Timestamp != 0 {
		t.Fatalf("expected timestamp index 0, got %d", hm.Timestamp)
	}
	if hm.Columns[ADC] != 6 {
		t.Fatalf("expected RSSI_dbm to map to ADC at 6, got %d", hm.Columns[ADC])
	}
	if hm.Columns[PM25B] != -1 || hm.Columns[Pressure] != -1 {
		t.Fatalf("expected absent columns to be -1")
	}
	if len(hm.Unknown) != 0 {
		t.Fatalf("expected no unknown headers, got %v", hm.Unknown)
	}
	present := hm.Present()
	if !present.Has(PM25A) || present.Has(PM25B) {
		t.Fatalf("unexpected present set %s", present)
	}
}

func TestResolveHeaderRequiresTimestampAndChannelA(t *testing.T) {
	if _, err := ResolveHeader([]string{"PM2.5_CF_ATM_ug/m3"}); !errors.Is(err, ErrMissingTimestampColumn) {
		t.Fatalf("expected ErrMissingTimestampColumn, got %v", err)
	}
	if _, err := ResolveHeader([]string{"created_at", "Temperature_F"}); !errors.Is(err, ErrMissingConcentrationColumn) {
		t.Fatalf("expected ErrMissingConcentrationColumn, got %v", err)
	}
	if _, err := ResolveHeader([]string{"created_at", "pm2_5_atm", "PM2.5_CF_ATM_ug/m3"}); !errors.Is(err, ErrDuplicateColumn) {
		t.Fatalf("expected ErrDuplicateColumn, got %v", err)
	}
}

func TestSpanHours(t *testing.T) {
	span := Span{
		Start: time.Date(2019, 9, 1, 0, 10, 0, 0, time.UTC),
		End:   time.Date(2019, 9, 1, 2, 58, 0, 0, time.UTC),
	}.Hours()
	if !span.Start.Equal(time.Date(2019, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %s", span.Start)
	}
	if !span.End.Equal(time.Date(2019, 9, 1, 3, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end %s", span.End)
	}
	exact := Span{Start: span.End, End: span.End}.Hours()
	if !exact.End.Equal(span.End) {
		t.Fatalf("expected whole hour end to stay, got %s", exact.End)
	}
}

func TestOuterJoinKeepsTimestampsFromEitherSide(t *testing.T) {
	base := time.Date(2019, 9, 1, 8, 0, 0, 0, time.UTC)
	pm := Table{Columns: NewColumnSet(RefPM25)}
	wd := Table{Columns: NewColumnSet(WindDirection)}
	for i := 0; i < 2; i++ {
		row := Measurement{TS: base.Add(time.Duration(i) * time.Hour)}
		row.Set(RefPM25, float64(10+i))
		pm.Rows = append(pm.Rows, row)
	}
	for i := 1; i < 3; i++ {
		row := Measurement{TS: base.Add(time.Duration(i) * time.Hour)}
		row.Set(WindDirection, float64(90*i))
		wd.Rows = append(wd.Rows, row)
	}

	merged := OuterJoin("LKE_REF", wd, pm)
	if merged.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", merged.Len())
	}
	if !merged.Rows[0].TS.Equal(base) {
		t.Fatalf("expected rows sorted by time")
	}
	if merged.Rows[0].Values[WindDirection].Valid {
		t.Fatalf("expected null wind direction at first timestamp")
	}
	if merged.Rows[2].Values[RefPM25].Valid {
		t.Fatalf("expected null pm2.5 at last timestamp")
	}
	if got := merged.Rows[1].Values[RefPM25].Float64; got != 11 {
		t.Fatalf("expected 11, got %v", got)
	}
	if merged.Rows[1].SensorID != "LKE_REF" {
		t.Fatalf("expected sensor id on merged rows")
	}
	if !merged.Columns.Has(RefPM25) || !merged.Columns.Has(WindDirection) {
		t.Fatalf("unexpected columns %s", merged.Columns)
	}
}

func TestPartitionsSortedBySensor(t *testing.T) {
	ts := time.Date(2019, 9, 1, 0, 0, 0, 0, time.UTC)
	tbl := Table{Rows: []Measurement{
		{SensorID: "B", TS: ts},
		{SensorID: "A", TS: ts},
		{SensorID: "B", TS: ts.Add(time.Minute)},
	}}
	parts := tbl.Partitions()
	if len(parts) != 2 || parts[0].SensorID != "A" || len(parts[1].Rows) != 2 {
		t.Fatalf("unexpected partitions %+v", parts)
	}
}

func TestMeasurementValidateRejectsZonedTimestamp(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	m := Measurement{SensorID: "A", TS: time.Date(2019, 1, 1, 0, 0, 0, 0, loc)}
	if err := m.Validate(); !errors.Is(err, ErrNonUTCTimestamp) {
		t.Fatalf("expected ErrNonUTCTimestamp, got %v", err)
	}
}
