// Package api implements the add-on's local status server.
//
// This package provides:
//   - /api/v1/health for supervisors and container probes
//   - /api/v1/status listing adapters, devices and notifiers
//   - /metrics in the Prometheus exposition format
//
// The server is read-only. Device control always flows through the gateway,
// which owns authentication and the user-facing API.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
