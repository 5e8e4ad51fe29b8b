package csvfile

import "errors"

var (
	// ErrNoPrimaryFiles is returned when the pattern matches nothing.
	ErrNoPrimaryFiles = errors.New("csvfile: no primary files found")
	// ErrNoReferenceFiles is returned when no reference file exists in the directory.
	ErrNoReferenceFiles = errors.New("csvfile: no reference files found")
	// ErrAmbiguousStation is returned when reference files of several stations are present.
	ErrAmbiguousStation = errors.New("csvfile: reference files of several stations found")
	// ErrInvalidTimestamp is returned for a timestamp no known layout accepts.
	ErrInvalidTimestamp = errors.New("csvfile: invalid timestamp")
	// ErrMissingColumn is returned when a reference or wind file lacks a required column.
	ErrMissingColumn = errors.New("csvfile: missing column")
	// ErrEmptyFile is returned for a file without a header row.
	ErrEmptyFile = errors.New("csvfile: empty file")
)
