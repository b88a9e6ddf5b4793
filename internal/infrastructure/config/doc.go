// Package config handles loading and validating smart office configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with SMARTOFFICE_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Broker passwords and InfluxDB tokens should come from the environment
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.LoadOrDefault("configs/smartoffice.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Facility.Rooms)
package config
