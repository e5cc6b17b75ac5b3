package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementNightlight = "nightlight"
	MeasurementEvents     = "location_events"
)

// Tag keys shared by every point.
const (
	TagSite               = "site"
	TagCustomerLocationID = "customer_location_id"
)

// WriteNightlightState records the nightlight value of one device at the
// time its toggle was recorded.
//
//	client.WriteNightlightState("loc1", "d1", true, rec.RecordedAt)
func (c *Client) WriteNightlightState(customerLocationID, deviceID string, on bool, at time.Time) {
	if !c.writable() {
		return
	}
	c.writeAPI.WritePoint(c.nightlightPoint(customerLocationID, deviceID, on, at))
}

// WriteLocationEvent counts one recorded event of the given type.
func (c *Client) WriteLocationEvent(customerLocationID, eventType string, sequence int64, at time.Time) {
	if !c.writable() {
		return
	}
	c.writeAPI.WritePoint(c.eventPoint(customerLocationID, eventType, sequence, at))
}

func (c *Client) nightlightPoint(customerLocationID, deviceID string, on bool, at time.Time) *write.Point {
	value := 0
	if on {
		value = 1
	}
	return c.point(MeasurementNightlight, customerLocationID, at).
		AddTag("device_id", deviceID).
		AddField("on", value).
		SortTags()
}

func (c *Client) eventPoint(customerLocationID, eventType string, sequence int64, at time.Time) *write.Point {
	return c.point(MeasurementEvents, customerLocationID, at).
		AddTag("event_type", eventType).
		AddField("count", 1).
		AddField("sequence", sequence).
		SortTags()
}

// point starts a point tagged with the site and customer location.
func (c *Client) point(measurement, customerLocationID string, at time.Time) *write.Point {
	p := write.NewPointWithMeasurement(measurement).
		AddTag(TagCustomerLocationID, customerLocationID).
		SetTime(at)
	if c.site != "" {
		p.AddTag(TagSite, c.site)
	}
	return p
}
