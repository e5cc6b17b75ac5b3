package location

// Devices is an ordered collection of devices keyed by device ID.
//
// Lookup is O(1) through the index; listing follows activation order.
// The zero value is an empty collection ready to use.
type Devices struct {
	order []Device
	index map[string]int // deviceID -> position in order
}

// Len returns the number of devices.
func (d Devices) Len() int {
	return len(d.order)
}

// Contains reports whether a device with the given ID is present.
func (d Devices) Contains(deviceID string) bool {
	_, ok := d.index[deviceID]
	return ok
}

// Get returns the device with the given ID.
func (d Devices) Get(deviceID string) (Device, bool) {
	i, ok := d.index[deviceID]
	if !ok {
		return Device{}, false
	}
	return d.order[i], true
}

// List returns a copy of the devices in activation order.
// It never returns nil so the JSON form is always an array.
func (d Devices) List() []Device {
	out := make([]Device, len(d.order))
	copy(out, d.order)
	return out
}

// Clone returns a deep copy of the collection.
func (d Devices) Clone() Devices {
	if len(d.order) == 0 {
		return Devices{}
	}
	c := Devices{
		order: make([]Device, len(d.order)),
		index: make(map[string]int, len(d.index)),
	}
	copy(c.order, d.order)
	for k, v := range d.index {
		c.index[k] = v
	}
	return c
}

// add appends a device. The caller guarantees the ID is not present.
func (d *Devices) add(dev Device) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	d.index[dev.DeviceID] = len(d.order)
	d.order = append(d.order, dev)
}

// set replaces a device in place, keeping its position.
func (d *Devices) set(dev Device) bool {
	i, ok := d.index[dev.DeviceID]
	if !ok {
		return false
	}
	d.order[i] = dev
	return true
}

// remove deletes a device, preserving the relative order of the rest.
func (d *Devices) remove(deviceID string) bool {
	i, ok := d.index[deviceID]
	if !ok {
		return false
	}
	d.order = append(d.order[:i:i], d.order[i+1:]...)
	delete(d.index, deviceID)
	for j := i; j < len(d.order); j++ {
		d.index[d.order[j].DeviceID] = j
	}
	return true
}

// clear drops every device.
func (d *Devices) clear() {
	d.order = nil
	d.index = nil
}
