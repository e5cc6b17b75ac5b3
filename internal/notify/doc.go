// Package notify fans accepted events out to external subscribers.
//
// Every journaled event is wrapped in an Envelope and handed to a
// Dispatcher. The dispatcher owns a buffered queue and one worker that
// forwards envelopes to the configured Publisher, usually a FanOut over
// several backends:
//
//	mesh.Service ──► Dispatcher ──► FanOut ─┬─► MQTTPublisher      wirelessmesh/location/{id}/event/{type}
//	   (Notify)       (queue)               ├─► RedisPublisher     PUBLISH <channel>
//	                                        ├─► HubPublisher       websocket "location.event"
//	                                        └─► TelemetryPublisher InfluxDB points
//
// Publishing never blocks or fails a command. A full queue drops the
// envelope with a warning, and backend errors are logged and counted.
//
// Envelopes never carry the customer access token.
package notify
