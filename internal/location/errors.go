package location

import (
	"errors"
	"fmt"
)

// Domain errors for the location package.
//
// Check them with errors.Is():
//
//	if errors.Is(err, location.ErrRejected) {
//	    // caller-correctable, no event was produced
//	}
var (
	// ErrRejected is matched by every precondition rejection.
	ErrRejected = errors.New("location: command rejected")

	// ErrActuationFailed is returned when the device actuator fails while a
	// ToggleNightlight command is being decided. No event is produced.
	ErrActuationFailed = errors.New("location: device actuation failed")

	// ErrCorruptLog is returned when an event cannot be applied to the
	// current state. Live validation makes this unreachable, so it means
	// the recorded history is inconsistent.
	ErrCorruptLog = errors.New("location: corrupt event log")

	// ErrReplaying is returned by the gate when actuation is attempted
	// while history is being replayed.
	ErrReplaying = errors.New("location: actuation attempted during replay")

	// ErrUnknownCommand is returned for command types the aggregate does not handle.
	ErrUnknownCommand = errors.New("location: unknown command")

	// ErrUnknownEvent is returned when decoding an unrecognised event type.
	ErrUnknownEvent = errors.New("location: unknown event type")

	// ErrWrongLocation is returned when a command or event targets another key.
	ErrWrongLocation = errors.New("location: customer location id mismatch")
)

// Failure signals returned to callers. The exact text is part of the public
// contract of the service.
const (
	ReasonAlreadyAdded      = "Customer location already added"
	ReasonNotAdded          = "Customer location does not exist"
	ReasonAlreadyRemoved    = "Customer location already removed"
	ReasonDoesNotExist      = "customerLocation does not exist."
	ReasonDeviceActivated   = "Device already activated"
	ReasonDeviceNotFound    = "Device does not exist"
	ReasonLocationIDFormat  = "Customer location id must be alphanumeric"
	ReasonAccessTokenFormat = "Access token must be alphanumeric"
	ReasonDeviceIDFormat    = "Device id must be alphanumeric"
	ReasonRoomFormat        = "Room must be alphanumeric"
)

// Rejection is a precondition failure. It carries the command name and the
// human-readable failure signal.
type Rejection struct {
	Command string
	Reason  string
}

// Error returns the failure signal unchanged.
func (r *Rejection) Error() string {
	return r.Reason
}

// Is reports whether target is ErrRejected.
func (r *Rejection) Is(target error) bool {
	return target == ErrRejected
}

// NotFound reports whether the rejection means the addressed entity is absent.
func (r *Rejection) NotFound() bool {
	switch r.Reason {
	case ReasonNotAdded, ReasonDoesNotExist, ReasonDeviceNotFound:
		return true
	default:
		return false
	}
}

func reject(command, reason string) error {
	return &Rejection{Command: command, Reason: reason}
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptLog, fmt.Sprintf(format, args...))
}
