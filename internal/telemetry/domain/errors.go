package telemetry

import "errors"

var (
	// ErrEmptySensorID is returned when a measurement has no sensor id.
	ErrEmptySensorID = errors.New("telemetry: empty sensor id")
	// ErrZeroTimestamp is returned when a measurement has no timestamp.
	ErrZeroTimestamp = errors.New("telemetry: zero timestamp")
	// ErrNonUTCTimestamp guards against zoned timestamps in the working table.
	ErrNonUTCTimestamp = errors.New("telemetry: timestamp not in UTC")
	// ErrMissingTimestampColumn is returned when a file has no timestamp column.
	ErrMissingTimestampColumn = errors.New("telemetry: missing timestamp column")
	// ErrMissingConcentrationColumn is returned when a file has no PM2.5 channel A column.
	ErrMissingConcentrationColumn = errors.New("telemetry: missing pm2.5 channel a column")
	// ErrDuplicateColumn is returned when two headers resolve to one column.
	ErrDuplicateColumn = errors.New("telemetry: duplicate column")
	// ErrNoRows is returned when a source file yields no usable rows.
	ErrNoRows = errors.New("telemetry: no usable rows")
	// ErrNoPrimaryData is returned when no primary file could be loaded.
	ErrNoPrimaryData = errors.New("telemetry: no primary data loaded")
)
