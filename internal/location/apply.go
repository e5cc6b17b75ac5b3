package location

import "fmt"

// Apply folds one event into a copy of s and returns the new state.
//
// Apply is deterministic and has no side effects; it is the same function
// used for live commits and for replay. An event that references a device
// the state does not hold returns ErrCorruptLog.
func Apply(s State, e Event) (State, error) {
	next := s.Clone()
	if err := apply(&next, e); err != nil {
		return s, err
	}
	return next, nil
}

// Replay folds events, in order, into the empty state for id.
func Replay(id string, events []Event) (State, error) {
	s := NewState(id)
	for i, e := range events {
		if err := apply(&s, e); err != nil {
			return NewState(id), fmt.Errorf("replaying event %d of %d: %w", i+1, len(events), err)
		}
	}
	return s, nil
}

// apply mutates s in place. Callers own s.
func apply(s *State, e Event) error {
	if e == nil {
		return corrupt("nil event")
	}
	if e.LocationID() != s.CustomerLocationID {
		return fmt.Errorf("%w: %w: event for %q applied to %q",
			ErrCorruptLog, ErrWrongLocation, e.LocationID(), s.CustomerLocationID)
	}

	switch ev := e.(type) {
	case CustomerLocationAdded:
		s.Added = true
		s.Removed = false
		s.AccessToken = ev.AccessToken

	case CustomerLocationRemoved:
		s.Removed = true
		s.Added = false
		s.Devices.clear()

	case DeviceActivated:
		if s.Devices.Contains(ev.DeviceID) {
			return corrupt("device %q activated twice", ev.DeviceID)
		}
		s.Devices.add(Device{
			DeviceID:           ev.DeviceID,
			CustomerLocationID: ev.CustomerLocationID,
			Activated:          true,
		})

	case DeviceRemoved:
		// Live validation rejects removal of an absent device, so a
		// missing device here is an inconsistent log.
		if !s.Devices.remove(ev.DeviceID) {
			return corrupt("removed unknown device %q", ev.DeviceID)
		}

	case RoomAssigned:
		d, ok := s.Devices.Get(ev.DeviceID)
		if !ok {
			return corrupt("room assigned to unknown device %q", ev.DeviceID)
		}
		d.Room = ev.Room
		s.Devices.set(d)

	case NightlightToggled:
		d, ok := s.Devices.Get(ev.DeviceID)
		if !ok {
			return corrupt("nightlight toggled on unknown device %q", ev.DeviceID)
		}
		d.NightlightOn = ev.NightlightOn
		s.Devices.set(d)

	default:
		return fmt.Errorf("%w: %w: %T", ErrCorruptLog, ErrUnknownEvent, e)
	}

	s.Version++
	return nil
}
