// Package config handles loading and validating the wireless mesh service
// configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with WIRELESSMESH_* environment variables
//   - Validation of required fields (all errors reported at once)
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (JWT secret, broker passwords, InfluxDB token) should
//     be set via environment variables
//   - Customer access tokens for the device API are never configured here;
//     they arrive with AddCustomerLocation and live in the event journal
//
// Usage:
//
//	cfg, err := config.Load(config.Path())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
