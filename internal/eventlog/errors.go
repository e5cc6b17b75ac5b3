package eventlog

import "errors"

// Domain errors for the eventlog package.
var (
	// ErrSequenceConflict is returned when an append does not follow the
	// current last sequence for the location.
	ErrSequenceConflict = errors.New("eventlog: sequence conflict")

	// ErrInvalidRecord is returned when a record cannot be written or read.
	ErrInvalidRecord = errors.New("eventlog: invalid record")
)
