package settings

import "errors"

var (
	ErrSourceUnavailable = errors.New("runtime settings source unavailable")
	ErrInvalidValue      = errors.New("invalid runtime setting value")
	ErrUnknownSource     = errors.New("unknown runtime settings source")
)
