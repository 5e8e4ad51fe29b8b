package stats

import "math"

// EarthRadiusMiles is the mean earth radius used for distances.
const EarthRadiusMiles = 3959.87433

// windCone is the half-angle within which a sensor counts as downwind.
const windCone = 22.5

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Side classifies a sensor relative to a source and the wind.
type Side string

const (
	Downwind Side = "downwind"
	Upwind   Side = "upwind"
)

// HaversineMiles returns the great-circle distance between a and b.
func HaversineMiles(a, b Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMiles * math.Asin(math.Sqrt(h))
}

// Bearing returns the initial compass bearing from a to b in [0, 360).
func Bearing(a, b Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLon := radians(b.Lon - a.Lon)
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return normalizeDegrees(math.Atan2(y, x) * 180 / math.Pi)
}

// WindVector turns a meteorological wind direction (where the wind comes
// from) into the direction it blows toward.
func WindVector(windDirection float64) float64 {
	return normalizeDegrees(windDirection + 180)
}

// WindSide reports whether a sensor at bearing from the source lies downwind.
func WindSide(bearing, windDirection float64) Side {
	diff := math.Abs(normalizeDegrees(bearing) - WindVector(windDirection))
	if diff > 180 {
		diff = 360 - diff
	}
	if diff <= windCone {
		return Downwind
	}
	return Upwind
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
