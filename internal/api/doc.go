// Package api defines wire-format types and converters for the IPC layer.
// It translates internal models into transport-friendly DTOs so clients can
// render results without coupling to internal types.
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Internal enums (scheduler.Filter, provider.Kind, orchestrator.Intent) are
// exposed as lowercase strings.
package api
