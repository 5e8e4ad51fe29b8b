package csvfile

import (
	"fmt"
	"strings"
	"time"

	"github.com/relvacode/iso8601"
)

var naiveLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
}

// ParseTimestamp reads a source timestamp and returns it in UTC. Values
// without a zone are read in loc. A trailing " UTC" marks the value as UTC
// regardless of loc; values carrying their own offset keep it.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.UTC
	}
	if trimmed, ok := strings.CutSuffix(value, " UTC"); ok {
		value = strings.TrimSpace(trimmed)
		loc = time.UTC
	}
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}
	for _, layout := range naiveLayouts {
		if ts, err := time.ParseInLocation(layout, value, loc); err == nil {
			return ts.UTC(), nil
		}
	}
	if hasZone(value) {
		if ts, err := iso8601.ParseString(value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}

// hasZone reports whether an ISO-8601 value ends in Z or a numeric offset.
func hasZone(value string) bool {
	if strings.HasSuffix(value, "Z") || strings.HasSuffix(value, "z") {
		return true
	}
	sep := strings.IndexAny(value, "Tt ")
	if sep < 0 {
		return false
	}
	return strings.LastIndexAny(value, "+-") > sep
}
