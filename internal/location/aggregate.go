package location

import (
	"context"
	"fmt"
)

// Deps are the collaborators injected into an aggregate.
//
// The zero Rules value is the permissive rule set; use DefaultRules for
// strict field-format checks.
type Deps struct {
	Actuator Actuator
	Rules    Rules
	Logger   Logger
}

// CustomerLocation is the command processor for one customer location.
//
// Deciding a command never mutates the aggregate: every command method
// returns the event to record. The caller persists the event and then
// calls Commit, which folds it in through Apply. Process does both for
// callers without a journal.
type CustomerLocation struct {
	id     string
	state  State
	rules  Rules
	gate   *Gate
	logger Logger
}

// NewCustomerLocation creates an aggregate in the uninitialised state.
func NewCustomerLocation(id string, deps Deps) *CustomerLocation {
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &CustomerLocation{
		id:     id,
		state:  NewState(id),
		rules:  deps.Rules,
		gate:   NewGate(deps.Actuator),
		logger: logger,
	}
}

// ID returns the customer location ID.
func (c *CustomerLocation) ID() string {
	return c.id
}

// Version returns the number of events applied.
func (c *CustomerLocation) Version() int64 {
	return c.state.Version
}

// State returns a copy of the current state.
func (c *CustomerLocation) State() State {
	return c.state.Clone()
}

// Gate returns the side-effect gate.
func (c *CustomerLocation) Gate() *Gate {
	return c.gate
}

// Load replaces the state with the fold of events, starting from empty.
// The gate is closed for the duration. On error the state is left unchanged.
func (c *CustomerLocation) Load(events []Event) error {
	reopen := c.gate.beginReplay()
	defer reopen()

	s, err := Replay(c.id, events)
	if err != nil {
		c.logger.Error("customer location replay failed",
			"customer_location_id", c.id,
			"events", len(events),
			"error", err,
		)
		return err
	}
	c.state = s
	c.logger.Debug("customer location replayed",
		"customer_location_id", c.id,
		"version", s.Version,
		"devices", s.Devices.Len(),
	)
	return nil
}

// Commit applies an event that has been durably recorded.
func (c *CustomerLocation) Commit(e Event) error {
	next, err := Apply(c.state, e)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Process decides cmd and commits the resulting event in memory.
func (c *CustomerLocation) Process(ctx context.Context, cmd Command) (Event, error) {
	e, err := c.Handle(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if err := c.Commit(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Handle dispatches a command to its operation and returns the event to record.
func (c *CustomerLocation) Handle(ctx context.Context, cmd Command) (Event, error) {
	if cmd == nil {
		return nil, ErrUnknownCommand
	}
	if cmd.LocationID() != c.id {
		return nil, fmt.Errorf("%w: %s for %q routed to %q",
			ErrWrongLocation, cmd.CommandName(), cmd.LocationID(), c.id)
	}

	var (
		e   Event
		err error
	)
	switch v := cmd.(type) {
	case AddCustomerLocation:
		e, err = c.AddCustomerLocation(v)
	case RemoveCustomerLocation:
		e, err = c.RemoveCustomerLocation(v)
	case ActivateDevice:
		e, err = c.ActivateDevice(v)
	case RemoveDevice:
		e, err = c.RemoveDevice(v)
	case AssignRoom:
		e, err = c.AssignRoom(v)
	case ToggleNightlight:
		e, err = c.ToggleNightlight(ctx, v)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
	if err != nil {
		c.logger.Debug("command not accepted",
			"customer_location_id", c.id,
			"command", cmd.CommandName(),
			"error", err,
		)
		return nil, err
	}
	return e, nil
}

// AddCustomerLocation decides AddCustomerLocation.
func (c *CustomerLocation) AddCustomerLocation(cmd AddCustomerLocation) (Event, error) {
	if err := c.rules.CheckAddCustomerLocation(c.state, cmd); err != nil {
		return nil, err
	}
	return CustomerLocationAdded{
		CustomerLocationID: c.id,
		AccessToken:        cmd.AccessToken,
	}, nil
}

// RemoveCustomerLocation decides RemoveCustomerLocation.
func (c *CustomerLocation) RemoveCustomerLocation(cmd RemoveCustomerLocation) (Event, error) {
	if err := c.rules.CheckRemoveCustomerLocation(c.state, cmd); err != nil {
		return nil, err
	}
	return CustomerLocationRemoved{CustomerLocationID: c.id}, nil
}

// ActivateDevice decides ActivateDevice.
func (c *CustomerLocation) ActivateDevice(cmd ActivateDevice) (Event, error) {
	if err := c.rules.CheckActivateDevice(c.state, cmd); err != nil {
		return nil, err
	}
	return DeviceActivated{CustomerLocationID: c.id, DeviceID: cmd.DeviceID}, nil
}

// RemoveDevice decides RemoveDevice.
func (c *CustomerLocation) RemoveDevice(cmd RemoveDevice) (Event, error) {
	if err := c.rules.CheckRemoveDevice(c.state, cmd); err != nil {
		return nil, err
	}
	return DeviceRemoved{CustomerLocationID: c.id, DeviceID: cmd.DeviceID}, nil
}

// AssignRoom decides AssignRoom.
func (c *CustomerLocation) AssignRoom(cmd AssignRoom) (Event, error) {
	if err := c.rules.CheckAssignRoom(c.state, cmd); err != nil {
		return nil, err
	}
	return RoomAssigned{
		CustomerLocationID: c.id,
		DeviceID:           cmd.DeviceID,
		Room:               cmd.Room,
	}, nil
}

// ToggleNightlight decides ToggleNightlight.
//
// The device is actuated before the event exists. If actuation fails the
// command fails with ErrActuationFailed and no event is produced, so the
// recorded state never diverges from the physical device.
func (c *CustomerLocation) ToggleNightlight(ctx context.Context, cmd ToggleNightlight) (Event, error) {
	if err := c.rules.CheckToggleNightlight(c.state, cmd); err != nil {
		return nil, err
	}

	d, _ := c.state.Devices.Get(cmd.DeviceID)
	next := !d.NightlightOn

	if err := c.gate.Actuate(ctx, c.state.AccessToken, cmd.DeviceID); err != nil {
		c.logger.Warn("nightlight actuation failed",
			"customer_location_id", c.id,
			"device_id", cmd.DeviceID,
			"error", err,
		)
		return nil, err
	}

	return NightlightToggled{
		CustomerLocationID: c.id,
		DeviceID:           cmd.DeviceID,
		NightlightOn:       next,
	}, nil
}

// GetCustomerLocation returns the current snapshot.
func (c *CustomerLocation) GetCustomerLocation() (Snapshot, error) {
	if err := c.rules.CheckGetCustomerLocation(c.state); err != nil {
		return Snapshot{}, err
	}
	return c.state.Snapshot(), nil
}
