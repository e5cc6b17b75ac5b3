package location

import "regexp"

// identifierPattern is the character set accepted for ids, tokens and rooms.
const identifierPattern = `^[a-zA-Z0-9_-]*$`

var identifierRegex = regexp.MustCompile(identifierPattern)

// Rules holds the command preconditions.
//
// State preconditions always apply. When Strict is set, field-format checks
// run after them. Every check returns on the first failure, so the order
// below is part of the contract.
type Rules struct {
	Strict bool
}

// DefaultRules returns the strict rule set.
func DefaultRules() Rules {
	return Rules{Strict: true}
}

// IsIdentifier reports whether s uses only the accepted identifier characters.
func IsIdentifier(s string) bool {
	return identifierRegex.MatchString(s)
}

// CheckAddCustomerLocation validates AddCustomerLocation.
func (r Rules) CheckAddCustomerLocation(s State, c AddCustomerLocation) error {
	if s.Added {
		return reject(CmdAddCustomerLocation, ReasonAlreadyAdded)
	}
	if r.Strict {
		if !IsIdentifier(c.CustomerLocationID) {
			return reject(CmdAddCustomerLocation, ReasonLocationIDFormat)
		}
		if !IsIdentifier(c.AccessToken) {
			return reject(CmdAddCustomerLocation, ReasonAccessTokenFormat)
		}
	}
	return nil
}

// CheckRemoveCustomerLocation validates RemoveCustomerLocation.
func (r Rules) CheckRemoveCustomerLocation(s State, _ RemoveCustomerLocation) error {
	if !s.Added {
		return reject(CmdRemoveCustomerLocation, ReasonNotAdded)
	}
	if s.Removed {
		return reject(CmdRemoveCustomerLocation, ReasonAlreadyRemoved)
	}
	return nil
}

// CheckActivateDevice validates ActivateDevice.
func (r Rules) CheckActivateDevice(s State, c ActivateDevice) error {
	if s.Removed {
		return reject(CmdActivateDevice, ReasonDoesNotExist)
	}
	if s.Devices.Contains(c.DeviceID) {
		return reject(CmdActivateDevice, ReasonDeviceActivated)
	}
	if r.Strict && !IsIdentifier(c.DeviceID) {
		return reject(CmdActivateDevice, ReasonDeviceIDFormat)
	}
	return nil
}

// CheckRemoveDevice validates RemoveDevice.
func (r Rules) CheckRemoveDevice(s State, c RemoveDevice) error {
	if !s.Exists() {
		return reject(CmdRemoveDevice, ReasonDoesNotExist)
	}
	if !s.Devices.Contains(c.DeviceID) {
		return reject(CmdRemoveDevice, ReasonDeviceNotFound)
	}
	return nil
}

// CheckAssignRoom validates AssignRoom.
func (r Rules) CheckAssignRoom(s State, c AssignRoom) error {
	if s.Removed {
		return reject(CmdAssignRoom, ReasonDoesNotExist)
	}
	if !s.Devices.Contains(c.DeviceID) {
		return reject(CmdAssignRoom, ReasonDeviceNotFound)
	}
	if r.Strict && !IsIdentifier(c.Room) {
		return reject(CmdAssignRoom, ReasonRoomFormat)
	}
	return nil
}

// CheckToggleNightlight validates ToggleNightlight.
func (r Rules) CheckToggleNightlight(s State, c ToggleNightlight) error {
	if s.Removed {
		return reject(CmdToggleNightlight, ReasonDoesNotExist)
	}
	if !s.Devices.Contains(c.DeviceID) {
		return reject(CmdToggleNightlight, ReasonDeviceNotFound)
	}
	return nil
}

// CheckGetCustomerLocation validates the GetCustomerLocation query.
func (r Rules) CheckGetCustomerLocation(s State) error {
	if !s.Exists() {
		return reject(CmdGetCustomerLocation, ReasonDoesNotExist)
	}
	return nil
}
