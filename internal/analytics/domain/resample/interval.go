package resample

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// Interval is a validated resample width.
type Interval struct {
	Text     string
	Duration time.Duration
}

var intervalPattern = regexp.MustCompile(`^(\d*)\s*([A-Za-z]+)$`)

var intervalUnits = map[string]time.Duration{
	"W":   7 * 24 * time.Hour,
	"w":   7 * 24 * time.Hour,
	"D":   24 * time.Hour,
	"d":   24 * time.Hour,
	"H":   time.Hour,
	"h":   time.Hour,
	"T":   time.Minute,
	"min": time.Minute,
	"S":   time.Second,
	"s":   time.Second,
}

// ParseInterval accepts unit codes W, D, H, T/min, S with an optional integer
// multiplier ("15T", "1H", "2D") or an ISO-8601 duration ("PT15M").
func ParseInterval(text string) (Interval, error) {
	value := strings.TrimSpace(text)
	if value == "" {
		return Interval{}, fmt.Errorf("%w: empty", ErrInvalidInterval)
	}

	if strings.HasPrefix(value, "P") {
		parsed, err := duration.Parse(value)
		if err != nil {
			return Interval{}, fmt.Errorf("%w: %q: %v", ErrInvalidInterval, text, err)
		}
		d := parsed.ToTimeDuration()
		if d < time.Second || d%time.Second != 0 {
			return Interval{}, fmt.Errorf("%w: %q: must be a whole number of seconds", ErrInvalidInterval, text)
		}
		return Interval{Text: value, Duration: d}, nil
	}

	match := intervalPattern.FindStringSubmatch(value)
	if match == nil {
		return Interval{}, fmt.Errorf("%w: %q", ErrInvalidInterval, text)
	}
	unit, ok := intervalUnits[match[2]]
	if !ok {
		return Interval{}, fmt.Errorf("%w: %q: unknown unit %q", ErrInvalidInterval, text, match[2])
	}
	multiplier := 1
	if match[1] != "" {
		n, err := strconv.Atoi(match[1])
		if err != nil || n <= 0 {
			return Interval{}, fmt.Errorf("%w: %q: multiplier must be positive", ErrInvalidInterval, text)
		}
		if int64(n) > math.MaxInt64/int64(unit) {
			return Interval{}, fmt.Errorf("%w: %q: too large", ErrInvalidInterval, text)
		}
		multiplier = n
	}
	return Interval{Text: value, Duration: time.Duration(multiplier) * unit}, nil
}

// MustParseInterval is for constants and tests.
func MustParseInterval(text string) Interval {
	iv, err := ParseInterval(text)
	if err != nil {
		panic(err)
	}
	return iv
}

// String returns the source text.
func (iv Interval) String() string {
	return iv.Text
}

// Valid reports whether the interval was produced by ParseInterval.
func (iv Interval) Valid() bool {
	return iv.Duration > 0
}
