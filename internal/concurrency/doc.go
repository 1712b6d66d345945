// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency helpers for callers of the lock-free ring: retry backoff for
// would-block results and CPU pinning for the producer and consumer threads.
// Nothing here is used on the ring's own hot path.
package concurrency
