// File: stress/report.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stress

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/elastic/go-hdrhistogram"
)

// newSizeHistogram tracks bytes moved per successful ring call. A call moves
// at most one frame on the producer side and at most one window on the
// consumer side, so MaxMessageLen bounds every value.
func newSizeHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(1, MaxMessageLen, 3)
}

// recordSize adds n to h and counts values the histogram rejects.
func recordSize(h *hdrhistogram.Histogram, n int, dropped *int64) {
	if err := h.RecordValue(int64(n)); err != nil {
		*dropped++
	}
}

// SizeSummary condenses a transfer-size histogram.
type SizeSummary struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	P50   int64   `json:"p50"`
	P99   int64   `json:"p99"`
	Max   int64   `json:"max"`
}

func summarize(h *hdrhistogram.Histogram) SizeSummary {
	return SizeSummary{
		Count: h.TotalCount(),
		Mean:  h.Mean(),
		P50:   h.ValueAtQuantile(50),
		P99:   h.ValueAtQuantile(99),
		Max:   h.Max(),
	}
}

// Side holds one direction's counters.
type Side struct {
	Bytes   int64       `json:"bytes"`
	Calls   int64       `json:"calls"`
	Blocked int64       `json:"would_block"`
	Sizes   SizeSummary `json:"sizes"`
	Dropped int64       `json:"dropped_sizes"`
}

// Report describes one run on one ring.
type Report struct {
	Capacity int           `json:"capacity"`
	Messages int           `json:"messages"`
	Seed     uint32        `json:"seed"`
	Pinned   bool          `json:"pinned"`
	Duration time.Duration `json:"duration"`
	Write    Side          `json:"write"`
	Read     Side          `json:"read"`
}

// Throughput returns delivered bytes per second.
func (r Report) Throughput() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Read.Bytes) / r.Duration.Seconds()
}

// Metrics flattens the report for control.MetricsRegistry.
func (r Report) Metrics() map[string]any {
	return map[string]any{
		"messages":          int64(r.Messages),
		"bytes":             r.Read.Bytes,
		"duration_ns":       r.Duration.Nanoseconds(),
		"throughput_bps":    r.Throughput(),
		"write.calls":       r.Write.Calls,
		"write.would_block": r.Write.Blocked,
		"write.p99":         r.Write.Sizes.P99,
		"write.dropped":     r.Write.Dropped,
		"read.calls":        r.Read.Calls,
		"read.would_block":  r.Read.Blocked,
		"read.p99":          r.Read.Sizes.P99,
		"read.dropped":      r.Read.Dropped,
	}
}

// String renders a one-line human summary.
func (r Report) String() string {
	return fmt.Sprintf("ring %s: %s messages, %s in %s (%s/s), write p50/p99 %d/%d B, read p50/p99 %d/%d B, would-block w=%s r=%s",
		humanize.IBytes(uint64(r.Capacity)),
		humanize.Comma(int64(r.Messages)),
		humanize.IBytes(uint64(r.Read.Bytes)),
		r.Duration.Round(time.Millisecond),
		humanize.IBytes(uint64(r.Throughput())),
		r.Write.Sizes.P50, r.Write.Sizes.P99,
		r.Read.Sizes.P50, r.Read.Sizes.P99,
		humanize.Comma(r.Write.Blocked),
		humanize.Comma(r.Read.Blocked),
	)
}
