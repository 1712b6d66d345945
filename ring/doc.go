// File: ring/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package ring implements a fixed-capacity, lock-free, single-producer/
// single-consumer byte ring.
//
// One goroutine writes, one goroutine reads, and the two meet only through a
// pair of atomic position counters. Neither Write nor Read ever blocks: each
// moves as many bytes as currently fit (or are buffered) and reports
// api.ErrWouldBlock when it can move none.
//
// Positions are kept in a doubled modulus space so that a full ring and an
// empty ring, which share the same physical offset, remain distinguishable
// without a separate length field:
//
//	occupied = (writePos - readPos) mod 2*capacity
//
// readPos lives in [0, 2*capacity) and writePos in [2*capacity, 4*capacity).
// Each side folds its own counter back into its range when it overflows,
// preserving the value modulo 2*capacity.
//
// Example:
//
//	rb, err := ring.New(4096)
//	if err != nil {
//		return err
//	}
//	defer rb.Release()
//
//	// producer goroutine
//	n, err := rb.Write(payload)
//	if api.IsWouldBlock(err) {
//		// full: retry later
//	}
//
//	// consumer goroutine
//	n, err = rb.Read(dst)
package ring
