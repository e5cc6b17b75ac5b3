package location

import (
	"encoding/json"
	"fmt"
)

// EventType is the stable discriminator of an event in serialised form.
type EventType string

// Event types.
const (
	EventLocationAdded     EventType = "customer_location.added"
	EventLocationRemoved   EventType = "customer_location.removed"
	EventDeviceActivated   EventType = "device.activated"
	EventDeviceRemoved     EventType = "device.removed"
	EventRoomAssigned      EventType = "device.room_assigned"
	EventNightlightToggled EventType = "device.nightlight_toggled"
)

// AllEventTypes returns every known event type.
func AllEventTypes() []EventType {
	return []EventType{
		EventLocationAdded,
		EventLocationRemoved,
		EventDeviceActivated,
		EventDeviceRemoved,
		EventRoomAssigned,
		EventNightlightToggled,
	}
}

// Event is an immutable fact about a state transition.
// Every event carries all the data needed to apply it.
type Event interface {
	EventType() EventType
	LocationID() string
}

// CustomerLocationAdded records a location being created or re-added.
type CustomerLocationAdded struct {
	CustomerLocationID string `json:"customer_location_id"`
	AccessToken        string `json:"access_token,omitempty"`
}

// CustomerLocationRemoved records a location being removed.
type CustomerLocationRemoved struct {
	CustomerLocationID string `json:"customer_location_id"`
}

// DeviceActivated records a device joining the location.
type DeviceActivated struct {
	CustomerLocationID string `json:"customer_location_id"`
	DeviceID           string `json:"device_id"`
}

// DeviceRemoved records a device leaving the location.
type DeviceRemoved struct {
	CustomerLocationID string `json:"customer_location_id"`
	DeviceID           string `json:"device_id"`
}

// RoomAssigned records a device room change.
type RoomAssigned struct {
	CustomerLocationID string `json:"customer_location_id"`
	DeviceID           string `json:"device_id"`
	Room               string `json:"room"`
}

// NightlightToggled records the resulting nightlight value, not a delta.
type NightlightToggled struct {
	CustomerLocationID string `json:"customer_location_id"`
	DeviceID           string `json:"device_id"`
	NightlightOn       bool   `json:"nightlight_on"`
}

func (CustomerLocationAdded) EventType() EventType   { return EventLocationAdded }
func (CustomerLocationRemoved) EventType() EventType { return EventLocationRemoved }
func (DeviceActivated) EventType() EventType         { return EventDeviceActivated }
func (DeviceRemoved) EventType() EventType           { return EventDeviceRemoved }
func (RoomAssigned) EventType() EventType            { return EventRoomAssigned }
func (NightlightToggled) EventType() EventType       { return EventNightlightToggled }

func (e CustomerLocationAdded) LocationID() string   { return e.CustomerLocationID }
func (e CustomerLocationRemoved) LocationID() string { return e.CustomerLocationID }
func (e DeviceActivated) LocationID() string         { return e.CustomerLocationID }
func (e DeviceRemoved) LocationID() string           { return e.CustomerLocationID }
func (e RoomAssigned) LocationID() string            { return e.CustomerLocationID }
func (e NightlightToggled) LocationID() string       { return e.CustomerLocationID }

// MarshalEvent encodes an event payload as JSON.
func MarshalEvent(e Event) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil event", ErrUnknownEvent)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", e.EventType(), err)
	}
	return data, nil
}

// UnmarshalEvent decodes a JSON payload for the given event type.
func UnmarshalEvent(t EventType, data []byte) (Event, error) {
	var (
		e   Event
		err error
	)
	switch t {
	case EventLocationAdded:
		var v CustomerLocationAdded
		err = json.Unmarshal(data, &v)
		e = v
	case EventLocationRemoved:
		var v CustomerLocationRemoved
		err = json.Unmarshal(data, &v)
		e = v
	case EventDeviceActivated:
		var v DeviceActivated
		err = json.Unmarshal(data, &v)
		e = v
	case EventDeviceRemoved:
		var v DeviceRemoved
		err = json.Unmarshal(data, &v)
		e = v
	case EventRoomAssigned:
		var v RoomAssigned
		err = json.Unmarshal(data, &v)
		e = v
	case EventNightlightToggled:
		var v NightlightToggled
		err = json.Unmarshal(data, &v)
		e = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, t)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshalling %s: %w", t, err)
	}
	return e, nil
}

// Redact returns a copy of the event safe to publish outside the service.
// The access token is the only secret any event carries.
func Redact(e Event) Event {
	if added, ok := e.(CustomerLocationAdded); ok {
		added.AccessToken = ""
		return added
	}
	return e
}
