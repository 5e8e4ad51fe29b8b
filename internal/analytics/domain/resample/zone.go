package resample

import (
	"strings"
	"time"
	_ "time/tzdata"
)

// LocalTime is a grid boundary presented in the display zone.
type LocalTime struct {
	Time   time.Time
	Abbrev string
	Offset string
}

// Localize converts a UTC instant to wall-clock time in loc. The offset is
// chosen from the calendar date, so standard and daylight time switch on
// their own.
func Localize(utc time.Time, loc *time.Location) LocalTime {
	t := utc.In(loc)
	abbrev, _ := t.Zone()
	return LocalTime{Time: t, Abbrev: abbrev, Offset: t.Format("-07:00")}
}

// ToUTC interprets the wall-clock fields of local in loc.
func ToUTC(local time.Time, loc *time.Location) time.Time {
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), loc).UTC()
}

// ZoneColumn names the local timestamp column, e.g. DateTime_America_Los_Angeles.
func ZoneColumn(loc *time.Location) string {
	return "DateTime_" + strings.ReplaceAll(loc.String(), "/", "_")
}
