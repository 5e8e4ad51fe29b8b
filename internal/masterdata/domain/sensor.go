package masterdata

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gosimple/slug"
)

// Sensor is static metadata for one physical sensor.
type Sensor struct {
	ID          string
	DisplayName string
	Lat         float64
	Lon         float64
}

// Validate checks sensor invariants.
func (s Sensor) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrEmptySensorID
	}
	if s.Lat < -90 || s.Lat > 90 {
		return fmt.Errorf("%w: %v", ErrInvalidLatitude, s.Lat)
	}
	if s.Lon < -180 || s.Lon > 180 {
		return fmt.Errorf("%w: %v", ErrInvalidLongitude, s.Lon)
	}
	return nil
}

// SensorKey normalizes a sensor name for matching. "LKE 01", "lke_01" and
// "LKE-01" share one key.
func SensorKey(name string) string {
	return slug.Make(strings.ReplaceAll(name, "_", " "))
}

// SensorDirectory resolves sensor metadata by a file-derived name.
type SensorDirectory interface {
	LookupSensor(name string) (Sensor, bool)
}

// SensorSource lists sensor metadata from a side table.
type SensorSource interface {
	ListSensors(ctx context.Context) ([]Sensor, error)
}

// SensorCatalog is an immutable in-memory SensorDirectory.
type SensorCatalog struct {
	byKey   map[string]Sensor
	sensors []Sensor
}

// NewSensorCatalog indexes sensors by id and display name.
func NewSensorCatalog(sensors []Sensor) (*SensorCatalog, error) {
	catalog := &SensorCatalog{byKey: make(map[string]Sensor, len(sensors)*2)}
	for _, sensor := range sensors {
		if err := sensor.Validate(); err != nil {
			return nil, fmt.Errorf("sensor %q: %w", sensor.ID, err)
		}
		key := SensorKey(sensor.ID)
		if _, ok := catalog.byKey[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSensor, sensor.ID)
		}
		catalog.byKey[key] = sensor
		catalog.sensors = append(catalog.sensors, sensor)
	}
	for _, sensor := range sensors {
		if sensor.DisplayName == "" {
			continue
		}
		key := SensorKey(sensor.DisplayName)
		if _, ok := catalog.byKey[key]; !ok {
			catalog.byKey[key] = sensor
		}
	}
	sort.Slice(catalog.sensors, func(i, j int) bool {
		return catalog.sensors[i].ID < catalog.sensors[j].ID
	})
	return catalog, nil
}

// LookupSensor finds a sensor by normalized name.
func (c *SensorCatalog) LookupSensor(name string) (Sensor, bool) {
	if c == nil {
		return Sensor{}, false
	}
	sensor, ok := c.byKey[SensorKey(name)]
	return sensor, ok
}

// Len returns the number of sensors.
func (c *SensorCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.sensors)
}
