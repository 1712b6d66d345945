// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug introspection for ring producers and consumers.
//
// Provides concurrent-safe state handling primitives including:
//   - A metrics registry that stress runs publish their counters into
//   - Debug probes that expose live ring counters on demand
//
// Nothing in this package is touched from a ring's Write or Read path.
package control
