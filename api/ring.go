// Package api
// Author: momentics <momentics@gmail.com>
//
// Byte ring contract shared by the ring core, the stress harness and test doubles.

package api

// ByteRing is a bounded single-producer/single-consumer byte stream.
//
// Write is called only from the producer context and Read only from the
// consumer context. Both are non-blocking: a call moves as many bytes as the
// ring allows and returns ErrWouldBlock when it can move none at all.
// A zero-length request always returns (0, nil).
type ByteRing interface {
	// Write copies up to len(p) bytes into the ring.
	Write(p []byte) (int, error)
	// Read copies up to len(p) bytes out of the ring.
	Read(p []byte) (int, error)
	// Len returns the number of buffered bytes.
	Len() int
	// Free returns the number of bytes that can be written.
	Free() int
	// Cap returns the ring capacity in bytes.
	Cap() int
	// Release drops the backing storage once both sides have stopped.
	Release()
}
