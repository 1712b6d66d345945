// Package api
// Author: momentics
//
// Live debug support for long-running ring consumers.

package api

// Debug exposes runtime introspection.
type Debug interface {
	// DumpState emits a snapshot of registered probes.
	DumpState() map[string]any

	// RegisterProbe registers a named probe.
	RegisterProbe(name string, fn func() any)

	// UnregisterProbe removes a probe, e.g. once its ring is released.
	UnregisterProbe(name string)
}
