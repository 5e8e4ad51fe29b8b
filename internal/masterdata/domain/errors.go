package masterdata

import "errors"

var (
	// ErrEmptySensorID is returned when a sensor row has no id.
	ErrEmptySensorID = errors.New("masterdata: empty sensor id")
	// ErrInvalidLatitude is returned for latitudes outside [-90, 90].
	ErrInvalidLatitude = errors.New("masterdata: invalid latitude")
	// ErrInvalidLongitude is returned for longitudes outside [-180, 180].
	ErrInvalidLongitude = errors.New("masterdata: invalid longitude")
	// ErrDuplicateSensor is returned when two rows normalize to one sensor.
	ErrDuplicateSensor = errors.New("masterdata: duplicate sensor")
	// ErrEmptyStationPrefix is returned when a station row has no prefix.
	ErrEmptyStationPrefix = errors.New("masterdata: empty station prefix")
	// ErrDuplicateStation is returned when a prefix appears twice.
	ErrDuplicateStation = errors.New("masterdata: duplicate station")
	// ErrMissingColumn is returned when a side table lacks a required header.
	ErrMissingColumn = errors.New("masterdata: missing column")
)
