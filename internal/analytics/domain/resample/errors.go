package resample

import "errors"

var (
	// ErrInvalidInterval is returned when an interval string cannot be parsed.
	ErrInvalidInterval = errors.New("resample: invalid interval")
	// ErrInvalidJoinPolicy is returned for an unknown reference join policy.
	ErrInvalidJoinPolicy = errors.New("resample: invalid join policy")
	// ErrNilLocation is returned when no display zone is configured.
	ErrNilLocation = errors.New("resample: nil location")
	// ErrEmptyPrimary is returned when there is nothing to resample.
	ErrEmptyPrimary = errors.New("resample: empty primary table")
)
