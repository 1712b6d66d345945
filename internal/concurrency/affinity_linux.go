//go:build linux

// File: internal/concurrency/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux affinity via sched_setaffinity on the calling thread.

package concurrency

import (
	"golang.org/x/sys/unix"
)

// maxCPUs bounds the scan of a unix.CPUSet.
const maxCPUs = 1024

// processCPUs is the affinity mask the process started with.
var processCPUs, processCPUsErr = loadProcessCPUs()

func loadProcessCPUs() (unix.CPUSet, error) {
	var set unix.CPUSet
	err := unix.SchedGetaffinity(0, &set)
	return set, err
}

// platformAllowedCPUs returns the ids set in the startup mask.
func platformAllowedCPUs() []int {
	if processCPUsErr != nil {
		cpus := make([]int, NumCPUs())
		for i := range cpus {
			cpus[i] = i
		}
		return cpus
	}
	cpus := make([]int, 0, processCPUs.Count())
	for i := 0; i < maxCPUs; i++ {
		if processCPUs.IsSet(i) {
			cpus = append(cpus, i)
		}
	}
	return cpus
}

// platformPinCurrentThread binds the current OS thread to cpuID.
func platformPinCurrentThread(cpuID int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	return unix.SchedSetaffinity(0, &set)
}

// platformUnpinCurrentThread restores the startup mask on the current thread.
func platformUnpinCurrentThread() error {
	if processCPUsErr != nil {
		return processCPUsErr
	}
	set := processCPUs
	return unix.SchedSetaffinity(0, &set)
}
