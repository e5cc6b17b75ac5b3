package location

import "context"

// Device is a mesh device owned by a customer location.
type Device struct {
	DeviceID           string `json:"device_id"`
	CustomerLocationID string `json:"customer_location_id"`
	Activated          bool   `json:"activated"`
	Room               string `json:"room"` // Empty = unassigned
	NightlightOn       bool   `json:"nightlight_on"`
}

// State is the folded state of one customer location.
//
// The zero value (with an ID) is the uninitialised location: not added,
// not removed, no devices.
type State struct {
	CustomerLocationID string
	Added              bool
	Removed            bool
	AccessToken        string
	Devices            Devices
	Version            int64 // Number of events applied
}

// NewState returns the empty state for a customer location.
func NewState(customerLocationID string) State {
	return State{CustomerLocationID: customerLocationID}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	s.Devices = s.Devices.Clone()
	return s
}

// Exists reports whether the location is currently live (added and not removed).
func (s State) Exists() bool {
	return s.Added && !s.Removed
}

// Snapshot is the query response for GetCustomerLocation.
type Snapshot struct {
	CustomerLocationID string   `json:"customer_location_id"`
	AccessToken        string   `json:"access_token"`
	Added              bool     `json:"added"`
	Removed            bool     `json:"removed"`
	Version            int64    `json:"version"`
	Devices            []Device `json:"devices"`
}

// Snapshot returns the state as a query response. The device slice is a copy.
func (s State) Snapshot() Snapshot {
	return Snapshot{
		CustomerLocationID: s.CustomerLocationID,
		AccessToken:        s.AccessToken,
		Added:              s.Added,
		Removed:            s.Removed,
		Version:            s.Version,
		Devices:            s.Devices.List(),
	}
}

// Actuator flips a device nightlight through the external device API.
//
// Implementations are expected to bound the call with their own timeout.
type Actuator interface {
	ToggleNightlight(ctx context.Context, accessToken, deviceID string) error
}

// Logger defines the logging interface used by the aggregate.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
