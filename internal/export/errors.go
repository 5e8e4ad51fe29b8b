package export

import "errors"

var (
	// ErrMissingTransportFields is returned by the fail policy when rows lack required fields.
	ErrMissingTransportFields = errors.New("export: transport rows lack required fields")
	// ErrOutputExists is returned when an output file is already present.
	ErrOutputExists = errors.New("export: output file already exists")
	// ErrNoPlotData is returned when no PM2.5 value exists to plot.
	ErrNoPlotData = errors.New("export: no PM2.5 values to plot")
)
