// Package influxdb provides InfluxDB connectivity for mesh telemetry.
//
// It wraps the official influxdb-client-go v2 library. Two measurements are
// written, each also tagged with the configured site:
//
//	nightlight       {customer_location_id, device_id}   on=0|1
//	location_events  {customer_location_id, event_type}  count=1, sequence
//
// Telemetry is optional (influxdb.enabled) and never authoritative: the
// event journal is the source of truth, and a lost point is only a gap in
// a chart.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, onError)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteNightlightState("loc1", "d1", true, time.Now())
package influxdb
