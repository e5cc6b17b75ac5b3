// Package lifx actuates wireless mesh devices through the LIFX cloud API.
//
// A LIFX bulb stands in for an addressable mesh device: the device id is the
// LIFX light selector and the customer location access token is the LIFX
// personal access token.
//
// Two actuators are provided:
//   - Client calls POST {base}/v1/lights/{id}/toggle
//   - DryRun only logs, for deployments without physical devices
//
// Both satisfy location.Actuator.
package lifx
