package csvfile

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/guregu/null"
)

// FileIdentity is what a primary file name says about its sensor.
type FileIdentity struct {
	SensorID string
	Lat      null.Float
	Lon      null.Float
}

// ParseSensorFilename reads names such as
// "Sensor_Name (33.7986 -117.5296) Primary 09_30_2018 10_17_2018.csv".
// The sensor id is the text before the first "(", upper-cased with blanks
// replaced by "_". Coordinates are null when the group is missing or malformed.
func ParseSensorFilename(path string) FileIdentity {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var id FileIdentity
	head, rest, found := strings.Cut(base, "(")
	if !found {
		head, _, _ = strings.Cut(base, " ")
	}
	id.SensorID = strings.ReplaceAll(strings.ToUpper(strings.Join(strings.Fields(head), " ")), " ", "_")
	if id.SensorID == "" {
		id.SensorID = strings.ToUpper(strings.ReplaceAll(base, " ", "_"))
	}
	if !found {
		return id
	}

	inner, _, closed := strings.Cut(rest, ")")
	if !closed {
		return id
	}
	parts := strings.Fields(strings.ReplaceAll(inner, ",", " "))
	if len(parts) != 2 {
		return id
	}
	lat, errLat := strconv.ParseFloat(parts[0], 64)
	lon, errLon := strconv.ParseFloat(parts[1], 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return id
	}
	id.Lat = null.FloatFrom(lat)
	id.Lon = null.FloatFrom(lon)
	return id
}
