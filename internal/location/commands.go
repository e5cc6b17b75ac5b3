package location

// Command names, used for logging, audit and metrics labels.
const (
	CmdAddCustomerLocation    = "AddCustomerLocation"
	CmdRemoveCustomerLocation = "RemoveCustomerLocation"
	CmdActivateDevice         = "ActivateDevice"
	CmdRemoveDevice           = "RemoveDevice"
	CmdAssignRoom             = "AssignRoom"
	CmdToggleNightlight       = "ToggleNightlight"
	CmdGetCustomerLocation    = "GetCustomerLocation"
)

// Command is a request to change a customer location.
type Command interface {
	CommandName() string
	LocationID() string
}

// AddCustomerLocation creates (or re-adds) a location.
type AddCustomerLocation struct {
	CustomerLocationID string `json:"customer_location_id"`
	AccessToken        string `json:"access_token"`
}

// RemoveCustomerLocation removes a location and all its devices.
type RemoveCustomerLocation struct {
	CustomerLocationID string `json:"customer_location_id"`
}

// ActivateDevice adds a device to a location.
type ActivateDevice struct {
	CustomerLocationID string `json:"customer_location_id"`
	DeviceID           string `json:"device_id"`
}

// RemoveDevice removes a device from a location.
type RemoveDevice struct {
	CustomerLocationID string `json:"customer_location_id"`
	DeviceID           string `json:"device_id"`
}

// AssignRoom sets the room of a device.
type AssignRoom struct {
	CustomerLocationID string `json:"customer_location_id"`
	DeviceID           string `json:"device_id"`
	Room               string `json:"room"`
}

// ToggleNightlight flips the nightlight of a device.
type ToggleNightlight struct {
	CustomerLocationID string `json:"customer_location_id"`
	DeviceID           string `json:"device_id"`
}

func (AddCustomerLocation) CommandName() string    { return CmdAddCustomerLocation }
func (RemoveCustomerLocation) CommandName() string { return CmdRemoveCustomerLocation }
func (ActivateDevice) CommandName() string         { return CmdActivateDevice }
func (RemoveDevice) CommandName() string           { return CmdRemoveDevice }
func (AssignRoom) CommandName() string             { return CmdAssignRoom }
func (ToggleNightlight) CommandName() string       { return CmdToggleNightlight }

func (c AddCustomerLocation) LocationID() string    { return c.CustomerLocationID }
func (c RemoveCustomerLocation) LocationID() string { return c.CustomerLocationID }
func (c ActivateDevice) LocationID() string         { return c.CustomerLocationID }
func (c RemoveDevice) LocationID() string           { return c.CustomerLocationID }
func (c AssignRoom) LocationID() string             { return c.CustomerLocationID }
func (c ToggleNightlight) LocationID() string       { return c.CustomerLocationID }
