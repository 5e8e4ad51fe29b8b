package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	masterdata "aircombine/internal/masterdata/domain"
)

// SensorFile reads the sensor side table from disk.
type SensorFile struct {
	path string
}

// NewSensorFile constructs a sensor side-table source.
func NewSensorFile(path string) *SensorFile {
	return &SensorFile{path: path}
}

// ListSensors implements masterdata.SensorSource.
func (f *SensorFile) ListSensors(_ context.Context) ([]masterdata.Sensor, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadSensors(file)
}

// ReadSensors parses a sensor table with headers sensor_id, display_name, lat, lon.
func ReadSensors(r io.Reader) ([]masterdata.Sensor, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := headerIndex(records[0])
	idIdx := findHeader(header, "sensor_id", "sensor", "sensor_name", "name")
	nameIdx := findHeader(header, "display_name", "label", "site_name")
	latIdx := findHeader(header, "lat", "latitude")
	lonIdx := findHeader(header, "lon", "lng", "longitude")
	if idIdx < 0 || latIdx < 0 || lonIdx < 0 {
		return nil, fmt.Errorf("%w: sensor table needs sensor_id, lat, lon", masterdata.ErrMissingColumn)
	}

	sensors := make([]masterdata.Sensor, 0, len(records)-1)
	for i, record := range records[1:] {
		line := i + 2
		id := field(record, idIdx)
		if id == "" {
			continue
		}
		lat, err := strconv.ParseFloat(field(record, latIdx), 64)
		if err != nil {
			return nil, fmt.Errorf("sensor table line %d: lat: %w", line, err)
		}
		lon, err := strconv.ParseFloat(field(record, lonIdx), 64)
		if err != nil {
			return nil, fmt.Errorf("sensor table line %d: lon: %w", line, err)
		}
		sensor := masterdata.Sensor{
			ID:          id,
			DisplayName: field(record, nameIdx),
			Lat:         lat,
			Lon:         lon,
		}
		if err := sensor.Validate(); err != nil {
			return nil, fmt.Errorf("sensor table line %d: %w", line, err)
		}
		sensors = append(sensors, sensor)
	}
	return sensors, nil
}

func headerIndex(row []string) map[string]int {
	header := make(map[string]int, len(row))
	for i, name := range row {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := header[key]; !ok {
			header[key] = i
		}
	}
	return header
}

func findHeader(header map[string]int, names ...string) int {
	for _, name := range names {
		if idx, ok := header[name]; ok {
			return idx
		}
	}
	return -1
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
