// File: internal/concurrency/backoff.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Backoff paces retries after a non-blocking call reports would-block:
// busy spins first, then yields the processor, then sleeps with a bounded
// exponential delay.

package concurrency

import (
	"context"
	"runtime"
	"time"
)

const (
	defaultSpins    = 64
	defaultYields   = 16
	defaultMinSleep = time.Microsecond
	defaultMaxSleep = time.Millisecond
)

// Backoff is a retry pacer owned by a single goroutine. The zero value is
// ready to use with default limits.
type Backoff struct {
	Spins    int
	Yields   int
	MinSleep time.Duration
	MaxSleep time.Duration

	attempt int
	sleep   time.Duration
}

// Wait pauses before the next retry. It returns ctx.Err() if the context is
// done before or during the pause.
func (b *Backoff) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	spins, yields := b.Spins, b.Yields
	if spins == 0 {
		spins = defaultSpins
	}
	if yields == 0 {
		yields = defaultYields
	}
	b.attempt++
	switch {
	case b.attempt <= spins:
		return nil
	case b.attempt <= spins+yields:
		runtime.Gosched()
		return nil
	}

	b.sleep = b.nextSleep()
	t := time.NewTimer(b.sleep)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (b *Backoff) nextSleep() time.Duration {
	lo, hi := b.MinSleep, b.MaxSleep
	if lo <= 0 {
		lo = defaultMinSleep
	}
	if hi < lo {
		hi = max(defaultMaxSleep, lo)
	}
	if b.sleep < lo {
		return lo
	}
	return min(2*b.sleep, hi)
}

// Reset returns the pacer to the spinning phase; call it after progress.
func (b *Backoff) Reset() {
	b.attempt = 0
	b.sleep = 0
}

// Attempts returns the number of Wait calls since the last Reset.
func (b *Backoff) Attempts() int {
	return b.attempt
}
