package masterdata

import (
	"fmt"
	"sort"
	"strings"
)

// ReferenceStation is a regulatory monitoring site providing reference series.
type ReferenceStation struct {
	Prefix         string
	SiteName       string
	AQSNumber      string
	ARBNumber      string
	Lat            float64
	Lon            float64
	ElevationM     float64
	Address        string
	FilenameFormat string
}

// Validate checks station invariants.
func (s ReferenceStation) Validate() error {
	if s.Prefix == "" {
		return ErrEmptyStationPrefix
	}
	if s.Lat < -90 || s.Lat > 90 {
		return fmt.Errorf("%w: %v", ErrInvalidLatitude, s.Lat)
	}
	if s.Lon < -180 || s.Lon > 180 {
		return fmt.Errorf("%w: %v", ErrInvalidLongitude, s.Lon)
	}
	return nil
}

// SensorName is the identity reference rows carry, e.g. "LKE_REF".
func (s ReferenceStation) SensorName() string {
	return s.Prefix + "_REF"
}

// StationPrefix strips an optional _REF suffix and upper-cases the prefix.
func StationPrefix(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	return strings.TrimSuffix(name, "_REF")
}

// StationCatalog is an immutable lookup of reference stations by prefix.
type StationCatalog struct {
	byPrefix map[string]ReferenceStation
	stations []ReferenceStation
}

// NewStationCatalog indexes stations by prefix.
func NewStationCatalog(stations []ReferenceStation) (*StationCatalog, error) {
	catalog := &StationCatalog{byPrefix: make(map[string]ReferenceStation, len(stations))}
	for _, station := range stations {
		station.Prefix = StationPrefix(station.Prefix)
		if err := station.Validate(); err != nil {
			return nil, fmt.Errorf("station %q: %w", station.Prefix, err)
		}
		if _, ok := catalog.byPrefix[station.Prefix]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStation, station.Prefix)
		}
		catalog.byPrefix[station.Prefix] = station
		catalog.stations = append(catalog.stations, station)
	}
	sort.Slice(catalog.stations, func(i, j int) bool {
		return catalog.stations[i].Prefix < catalog.stations[j].Prefix
	})
	return catalog, nil
}

// Lookup resolves "LKE" or "LKE_REF".
func (c *StationCatalog) Lookup(prefix string) (ReferenceStation, bool) {
	if c == nil {
		return ReferenceStation{}, false
	}
	station, ok := c.byPrefix[StationPrefix(prefix)]
	return station, ok
}

// All returns stations sorted by prefix.
func (c *StationCatalog) All() []ReferenceStation {
	if c == nil {
		return nil
	}
	out := make([]ReferenceStation, len(c.stations))
	copy(out, c.stations)
	return out
}
