// File: ring/capacity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ring

import "math/bits"

const (
	// MinCapacity is the smallest ring capacity.
	MinCapacity = 2

	// MaxCapacity is the largest ring capacity. The writer counter reaches
	// 4*capacity and the storage length must fit an int.
	MaxCapacity = 1 << (bits.UintSize - 3)
)

// RoundCapacity returns the smallest power of two >= max(n, MinCapacity).
// Values above 1<<63 cannot be rounded in 64 bits and are returned as is;
// New rejects anything above MaxCapacity.
func RoundCapacity(n uint64) uint64 {
	if n <= MinCapacity {
		return MinCapacity
	}
	if n&(n-1) == 0 {
		return n
	}
	if n > 1<<63 {
		return n
	}
	// Round up to next power of two
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
