package lifx

import "errors"

var (
	// ErrActuationFailed is returned when the LIFX API refuses or fails a toggle.
	ErrActuationFailed = errors.New("lifx: actuation failed")

	// ErrInvalidDevice is returned for an empty device selector.
	ErrInvalidDevice = errors.New("lifx: device id is required")
)
