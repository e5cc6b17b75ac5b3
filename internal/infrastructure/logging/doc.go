// Package logging provides structured logging for the wireless mesh service.
//
// It wraps log/slog so every entry carries service=wirelessmesh and the
// build version.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("command accepted", "customer_location_id", id)
//
// # Security
//
// Never log customer access tokens or the JWT secret. Events published or
// logged by the service go through location.Redact first.
package logging
