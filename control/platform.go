// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Platform debug probes: CPU topology visible to ring producers and consumers.

package control

import (
	"runtime"

	"github.com/momentics/hioload-ring/internal/concurrency"
)

// RegisterPlatformProbes sets platform debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.os", func() any {
		return runtime.GOOS + "/" + runtime.GOARCH
	})
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.allowed_cpus", func() any {
		return concurrency.AllowedCPUs()
	})
	dp.RegisterProbe("platform.goroutines", func() any {
		return runtime.NumGoroutine()
	})
}
