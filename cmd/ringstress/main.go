// Package main is the entry point for the ringstress CLI.
//
// Usage:
//
//	ringstress [run] [flags]
//	ringstress version
//
// ringstress streams checksummed frames through SPSC byte rings of several
// capacities from a producer goroutine to a consumer goroutine and reports
// throughput and flow-control statistics per capacity.
package main

import (
	"fmt"
	"os"

	"github.com/momentics/hioload-ring/cmd/ringstress/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
