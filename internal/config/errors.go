package config

import "errors"

var (
	// ErrInvalidConfig wraps every configuration failure. Callers treat it as fatal.
	ErrInvalidConfig = errors.New("config: invalid configuration")
	// ErrInvalidOutputFormat is returned for an unknown output token.
	ErrInvalidOutputFormat = errors.New("config: invalid output format")
	// ErrInvalidTimezone is returned when a zone name cannot be loaded.
	ErrInvalidTimezone = errors.New("config: invalid timezone")
	// ErrInvalidTransportPolicy is returned for an unknown transport policy.
	ErrInvalidTransportPolicy = errors.New("config: invalid transport policy")
	// ErrInvalidLogLevel is returned for an unknown log level.
	ErrInvalidLogLevel = errors.New("config: invalid log level")
	// ErrDataDirRequired is returned when no data directory is set.
	ErrDataDirRequired = errors.New("config: data directory required")
)
