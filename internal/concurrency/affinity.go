// File: internal/concurrency/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cross-platform CPU affinity management for the ring's producer and
// consumer goroutines.

package concurrency

import (
	"fmt"
	"runtime"

	"github.com/momentics/hioload-ring/api"
)

// PinCurrentThread locks the calling goroutine to its OS thread and, where the
// platform supports it, restricts that thread to cpuID.
// The thread stays locked even when setting the affinity fails.
func PinCurrentThread(cpuID int) error {
	if cpuID < 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "pin: negative cpu id").
			WithContext("cpu", cpuID)
	}
	runtime.LockOSThread()
	if err := platformPinCurrentThread(cpuID); err != nil {
		return fmt.Errorf("pin: cpu %d: %w", cpuID, err)
	}
	return nil
}

// UnpinCurrentThread restores the process affinity on the current thread and
// unlocks the goroutine from it.
func UnpinCurrentThread() {
	_ = platformUnpinCurrentThread()
	runtime.UnlockOSThread()
}

// NumCPUs returns the number of logical CPUs.
func NumCPUs() int {
	return runtime.NumCPU()
}

// AllowedCPUs lists the CPU ids the process may run on.
func AllowedCPUs() []int {
	return platformAllowedCPUs()
}

// PreferredCPUs returns two CPUs for a producer/consumer pair, distinct when
// the process may use more than one.
func PreferredCPUs() (producer, consumer int) {
	cpus := AllowedCPUs()
	switch len(cpus) {
	case 0:
		return 0, 0
	case 1:
		return cpus[0], cpus[0]
	default:
		return cpus[0], cpus[1]
	}
}
