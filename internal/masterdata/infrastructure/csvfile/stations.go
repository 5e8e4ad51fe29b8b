package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	masterdata "aircombine/internal/masterdata/domain"
)

// LoadStations reads the reference-station side table.
func LoadStations(path string) ([]masterdata.ReferenceStation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadStations(file)
}

// ReadStations parses rows of sensor_name, site_name, AQS_NO, ARB_NO, Lat,
// Lon, Elev_M, Address, filename_format.
func ReadStations(r io.Reader) ([]masterdata.ReferenceStation, error) {
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
	nameIdx := findHeader(header, "sensor_name", "station", "prefix")
	siteIdx := findHeader(header, "site_name", "name")
	aqsIdx := findHeader(header, "aqs_no", "aqs")
	arbIdx := findHeader(header, "arb_no", "arb")
	latIdx := findHeader(header, "lat", "latitude")
	lonIdx := findHeader(header, "lon", "lng", "longitude")
	elevIdx := findHeader(header, "elev_m", "elevation")
	addrIdx := findHeader(header, "address")
	formatIdx := findHeader(header, "filename_format")
	if nameIdx < 0 || latIdx < 0 || lonIdx < 0 {
		return nil, fmt.Errorf("%w: station table needs sensor_name, Lat, Lon", masterdata.ErrMissingColumn)
	}

	stations := make([]masterdata.ReferenceStation, 0, len(records)-1)
	for i, record := range records[1:] {
		line := i + 2
		name := field(record, nameIdx)
		if name == "" {
			continue
		}
		lat, err := strconv.ParseFloat(field(record, latIdx), 64)
		if err != nil {
			return nil, fmt.Errorf("station table line %d: lat: %w", line, err)
		}
		lon, err := strconv.ParseFloat(field(record, lonIdx), 64)
		if err != nil {
			return nil, fmt.Errorf("station table line %d: lon: %w", line, err)
		}
		var elev float64
		if raw := field(record, elevIdx); raw != "" {
			if elev, err = strconv.ParseFloat(raw, 64); err != nil {
				return nil, fmt.Errorf("station table line %d: elevation: %w", line, err)
			}
		}
		stations = append(stations, masterdata.ReferenceStation{
			Prefix:         masterdata.StationPrefix(name),
			SiteName:       field(record, siteIdx),
			AQSNumber:      field(record, aqsIdx),
			ARBNumber:      field(record, arbIdx),
			Lat:            lat,
			Lon:            lon,
			ElevationM:     elev,
			Address:        field(record, addrIdx),
			FilenameFormat: field(record, formatIdx),
		})
	}
	return stations, nil
}
