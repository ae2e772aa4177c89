// Package logging provides structured logging for Gray Logic add-ons.
//
// This package wraps Go's standard log/slog package so the bridge, the
// transports and the add-on's own code all log with the same fields.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger = logger.ForPlugin(cfg.Plugin.ID, session.ID)
//	logger.Info("adapter ready", "adapter_id", "virtual-adapter")
//
// Never log device PINs or credentials received from the gateway.
package logging
