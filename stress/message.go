// File: stress/message.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stress

import (
	"errors"
	"fmt"
)

// MaxMessageLen is the largest frame the generator emits and the size of the
// consumer's reassembly window.
const MaxMessageLen = 255

var (
	// ErrChecksum reports a frame whose trailer does not match its payload.
	ErrChecksum = errors.New("stress: frame checksum mismatch")
	// ErrMismatch reports a valid frame that differs from the expected one.
	ErrMismatch = errors.New("stress: frame out of order or corrupted")
	// ErrNoProgress reports a full reassembly window without a complete frame.
	ErrNoProgress = errors.New("stress: reassembly window full without a complete frame")
)

// hash32 is the lowbias32 integer hash from hash-prospector.
func hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

// Rand is a tiny deterministic generator built on hash32. Two Rands with the
// same seed produce the same sequence, which lets the consumer regenerate
// what the producer sent.
type Rand struct {
	state uint32
}

// NewRand returns a generator for seed. Zero is a fixed point of hash32 and
// is replaced by 1.
func NewRand(seed uint32) *Rand {
	if seed == 0 {
		seed = 1
	}
	return &Rand{state: seed}
}

// Uint32 returns the next value.
func (r *Rand) Uint32() uint32 {
	r.state = hash32(r.state)
	return r.state
}

// GenerateMessage writes one frame into buf and returns the frame length.
// The payload length is drawn from [0, min(len(buf), MaxMessageLen)-2).
// buf must hold at least 3 bytes.
func GenerateMessage(rng *Rand, buf []byte) int {
	limit := min(len(buf), MaxMessageLen)
	if limit < 3 {
		panic(fmt.Sprintf("stress: frame buffer too small: %d", len(buf)))
	}
	size := int(rng.Uint32() % uint32(limit-2))

	buf[0] = byte(size)
	var sum byte
	for i := 1; i <= size; i++ {
		buf[i] = byte(rng.Uint32())
		sum ^= buf[i]
	}
	buf[size+1] = sum
	return size + 2
}

// VerifyMessage checks the frame at the start of buf. It returns the frame
// length when a complete, valid frame is present and 0 when more bytes are
// needed.
func VerifyMessage(buf []byte) (int, error) {
	if len(buf) < 2 {
		return 0, nil
	}
	size := int(buf[0])
	if len(buf) < size+2 {
		return 0, nil
	}
	var sum byte
	for _, c := range buf[1 : size+1] {
		sum ^= c
	}
	if got := buf[size+1]; got != sum {
		return 0, fmt.Errorf("%w: length %d, trailer %#02x, computed %#02x", ErrChecksum, size, got, sum)
	}
	return size + 2, nil
}
