// Package stress
// Author: momentics <momentics@gmail.com>
//
// Concurrent correctness and throughput harness for the SPSC byte ring.
//
// A producer goroutine streams checksummed, variable-length frames through a
// ring while a consumer goroutine reassembles them from arbitrary partial
// reads, verifies every checksum and compares each frame with a mirror of the
// producer's generator. Framing lives entirely in this package; the ring only
// ever sees bytes.
//
// Frame layout:
//
//	+--------+----------------------+----------+
//	| len(1) | payload (len bytes)  | xor(1)   |
//	+--------+----------------------+----------+
//
// Frames never exceed MaxMessageLen bytes.
package stress
