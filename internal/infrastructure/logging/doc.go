// Package logging provides structured logging for the smart office service.
//
// It wraps log/slog with the service's defaults:
//
//   - JSON output for production, text for development
//   - Default fields (service, version) on every entry
//   - Level filtering (debug, info, warn, error)
//
// Logging is configured via LoggingConfig:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr
//
// The interactive console writes to stdout, so logs default to stderr.
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("facility configured", "rooms", 3)
//	logger.With("component", "sensor").Warn("bad reading", "error", err)
//
// Never log broker passwords or InfluxDB tokens.
package logging
