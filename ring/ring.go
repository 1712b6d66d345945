// File: ring/ring.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Buffer is a lock-free SPSC byte ring with doubled-modulus positions,
// padded so that the writer and reader counters never share a cache line.

package ring

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-ring/api"
)

// Ensure compile-time interface compliance.
var _ api.ByteRing = (*Buffer)(nil)

// Buffer is a fixed-capacity byte ring for exactly one writer goroutine and
// one reader goroutine.
//
// sync/atomic loads and stores are sequentially consistent, so the store of
// writePos after copying in happens-before the reader's load that precedes
// copying out, and likewise for readPos.
type Buffer struct {
	_        cpu.CacheLinePad
	writePos atomic.Uint64 // writer-owned, in [2*cap, 4*cap)
	_        cpu.CacheLinePad
	readPos  atomic.Uint64 // reader-owned, in [0, 2*cap)
	_        cpu.CacheLinePad

	data []byte
	size uint64 // capacity
	mask uint64 // size - 1
	wrap uint64 // 2*size - 1, mask for the doubled modulus
}

// Stats is a point-in-time view of a ring, for diagnostics only.
// Taken from a third goroutine it may be stale.
type Stats struct {
	Capacity uint64 `json:"capacity"`
	Occupied uint64 `json:"occupied"`
	ReadPos  uint64 `json:"read_pos"`
	WritePos uint64 `json:"write_pos"`
}

// New allocates a ring whose capacity is RoundCapacity(capacity).
// It fails only when the backing storage cannot be allocated.
func New(capacity uint64) (*Buffer, error) {
	size := RoundCapacity(capacity)
	if size > MaxCapacity {
		return nil, api.NewError(api.ErrCodeResourceExhausted, "ring: capacity too large").
			WithContext("requested", capacity).
			WithContext("max", uint64(MaxCapacity))
	}
	data, err := allocate(size)
	if err != nil {
		return nil, api.NewError(api.ErrCodeResourceExhausted, "ring: allocate storage").
			WithContext("capacity", size).
			WithCause(err)
	}
	b := &Buffer{
		data: data,
		size: size,
		mask: size - 1,
		wrap: 2*size - 1,
	}
	b.readPos.Store(0)
	b.writePos.Store(2 * size)
	return b, nil
}

// allocate turns a runtime allocation panic into an error.
func allocate(size uint64) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return make([]byte, size), nil
}

// occupied returns the number of buffered bytes for a pair of positions.
func (b *Buffer) occupied(r, w uint64) uint64 {
	return (w - r) & b.wrap
}

// split returns how many of n bytes starting at physical offset off fit before
// the end of storage, and how many wrap to the head.
func (b *Buffer) split(off, n uint64) (first, second uint64) {
	if off+n > b.size {
		first = b.size - off
		return first, n - first
	}
	return n, 0
}

// Write copies up to len(p) bytes into the ring and returns how many were
// copied. It returns (0, api.ErrWouldBlock) when the ring is full and
// len(p) > 0. Only the writer goroutine may call Write.
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.data == nil {
		return 0, api.NewError(api.ErrCodeReleased, "ring: write after release")
	}
	w := b.writePos.Load()
	r := b.readPos.Load()

	free := b.size - b.occupied(r, w)
	if free == 0 {
		return 0, api.ErrWouldBlock
	}
	n := min(free, uint64(len(p)))

	off := w & b.mask
	first, second := b.split(off, n)
	copy(b.data[off:off+first], p[:first])
	if second > 0 {
		copy(b.data[:second], p[first:n])
	}

	if w+n < 4*b.size {
		w += n
	} else {
		w = 2*b.size + second
	}
	b.writePos.Store(w)
	return int(n), nil
}

// Read copies up to len(p) bytes out of the ring and returns how many were
// copied. It returns (0, api.ErrWouldBlock) when the ring is empty and
// len(p) > 0. Only the reader goroutine may call Read.
func (b *Buffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.data == nil {
		return 0, api.NewError(api.ErrCodeReleased, "ring: read after release")
	}
	r := b.readPos.Load()
	w := b.writePos.Load()

	used := b.occupied(r, w)
	if used == 0 {
		return 0, api.ErrWouldBlock
	}
	n := min(used, uint64(len(p)))

	off := r & b.mask
	first, second := b.split(off, n)
	copy(p[:first], b.data[off:off+first])
	if second > 0 {
		copy(p[first:n], b.data[:second])
	}

	if r+n < 2*b.size {
		r += n
	} else {
		r = second
	}
	b.readPos.Store(r)
	return int(n), nil
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	r := b.readPos.Load()
	w := b.writePos.Load()
	return int(b.occupied(r, w))
}

// Free returns the number of bytes a Write could accept right now.
func (b *Buffer) Free() int {
	return int(b.size) - b.Len()
}

// Cap returns the rounded capacity.
func (b *Buffer) Cap() int {
	return int(b.size)
}

// IsEmpty reports whether no bytes are buffered.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// IsFull reports whether the ring has no free space.
func (b *Buffer) IsFull() bool {
	return b.Len() == int(b.size)
}

// Snapshot returns the current counters.
func (b *Buffer) Snapshot() Stats {
	r := b.readPos.Load()
	w := b.writePos.Load()
	return Stats{
		Capacity: b.size,
		Occupied: b.occupied(r, w),
		ReadPos:  r,
		WritePos: w,
	}
}

// Release drops the backing storage. Both the writer and the reader must have
// stopped; afterwards Write and Read fail with an *api.Error
// matching api.ErrReleased.
func (b *Buffer) Release() {
	b.data = nil
}
