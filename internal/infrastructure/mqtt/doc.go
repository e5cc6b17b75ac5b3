// Package mqtt provides the MQTT client used to publish customer location
// events.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS validation and a payload size limit
//   - Last Will and Testament so subscribers notice an unexpected exit
//   - Topic builders for the wirelessmesh/ hierarchy
//
// # Topics
//
//	wirelessmesh/system/status                        retained online/offline
//	wirelessmesh/location/{id}/event/{event_type}     one message per event
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.LocationEvent("loc1", "device.activated")
//	err = client.Publish(topic, payload, client.QoS(), false)
package mqtt
