package mqtt

import "fmt"

// Topic prefixes.
const (
	// TopicPrefix is the root of every topic the service publishes.
	TopicPrefix = "wirelessmesh"

	// TopicPrefixLocation is the base for customer location topics.
	TopicPrefixLocation = "wirelessmesh/location"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "wirelessmesh/system"
)

// Topics provides builders for the service's MQTT topics.
//
//	topic := mqtt.Topics{}.LocationEvent("loc1", "device.nightlight_toggled")
//	// Returns: "wirelessmesh/location/loc1/event/device.nightlight_toggled"
type Topics struct{}

// LocationEvent returns the topic for one event type of one location.
//
// Example: wirelessmesh/location/loc1/event/device.activated
func (Topics) LocationEvent(customerLocationID, eventType string) string {
	return fmt.Sprintf("%s/%s/event/%s", TopicPrefixLocation, customerLocationID, eventType)
}

// SystemStatus returns the service online/offline status topic.
//
// Example: wirelessmesh/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
