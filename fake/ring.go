// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake byte ring for testing ring consumers against short transfers and
// spurious would-block results.

package fake

import (
	"math/rand"

	"github.com/momentics/hioload-ring/api"
)

var _ api.ByteRing = (*ShortRing)(nil)

// ShortRing wraps an api.ByteRing and shrinks every transfer to a random
// length in [1, MaxChunk]. With probability BlockRate a call reports
// api.ErrWouldBlock without touching the inner ring.
//
// Writer-side and reader-side randomness are kept apart, so a ShortRing keeps
// the single-writer/single-reader discipline of the ring it wraps.
type ShortRing struct {
	api.ByteRing

	MaxChunk  int
	BlockRate float64

	wrnd *rand.Rand
	rrnd *rand.Rand
}

// NewShortRing creates a ShortRing over inner seeded with seed.
func NewShortRing(inner api.ByteRing, maxChunk int, blockRate float64, seed int64) *ShortRing {
	if maxChunk < 1 {
		maxChunk = 1
	}
	return &ShortRing{
		ByteRing:  inner,
		MaxChunk:  maxChunk,
		BlockRate: blockRate,
		wrnd:      rand.New(rand.NewSource(seed)),
		rrnd:      rand.New(rand.NewSource(^seed)),
	}
}

// Write forwards a shortened prefix of p.
func (s *ShortRing) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if s.wrnd.Float64() < s.BlockRate {
		return 0, api.ErrWouldBlock
	}
	return s.ByteRing.Write(p[:s.clamp(s.wrnd, len(p))])
}

// Read forwards into a shortened prefix of p.
func (s *ShortRing) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if s.rrnd.Float64() < s.BlockRate {
		return 0, api.ErrWouldBlock
	}
	return s.ByteRing.Read(p[:s.clamp(s.rrnd, len(p))])
}

func (s *ShortRing) clamp(rnd *rand.Rand, n int) int {
	return min(n, 1+rnd.Intn(s.MaxChunk))
}
