//go:build !linux

// File: internal/concurrency/affinity_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stub implementation for platforms without thread affinity support:
// the goroutine is still locked to its thread.

package concurrency

// platformAllowedCPUs stub implementation.
func platformAllowedCPUs() []int {
	cpus := make([]int, NumCPUs())
	for i := range cpus {
		cpus[i] = i
	}
	return cpus
}

// platformPinCurrentThread stub implementation.
func platformPinCurrentThread(cpuID int) error {
	return nil
}

// platformUnpinCurrentThread stub implementation.
func platformUnpinCurrentThread() error {
	return nil
}
