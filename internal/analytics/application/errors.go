package application

import "errors"

// ErrPrimarySourceRequired is returned when a runner has no primary source.
var ErrPrimarySourceRequired = errors.New("analytics: primary source required")
