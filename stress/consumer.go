// File: stress/consumer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stress

import (
	"bytes"
	"context"
	"fmt"

	"github.com/elastic/go-hdrhistogram"

	"github.com/momentics/hioload-ring/api"
	"github.com/momentics/hioload-ring/internal/concurrency"
)

// consumer reassembles frames from partial reads in a fixed window, checks
// their checksums and compares them with a mirror of the producer's
// generator.
type consumer struct {
	ring     api.ByteRing
	mirror   *Rand
	messages int
	backoff  concurrency.Backoff

	window [MaxMessageLen]byte
	filled int
	expect [MaxMessageLen]byte

	sizes   *hdrhistogram.Histogram
	dropped int64
	bytes   int64
	calls   int64
	blocked int64
}

func newConsumer(rb api.ByteRing, seed uint32, messages int, cfg Config) *consumer {
	return &consumer{
		ring:     rb,
		mirror:   NewRand(seed),
		messages: messages,
		backoff:  newBackoff(cfg.Backoff),
		sizes:    newSizeHistogram(),
	}
}

func (c *consumer) run(ctx context.Context) error {
	received := 0
	for received < c.messages {
		c.calls++
		n, err := c.ring.Read(c.window[c.filled:])
		if api.IsWouldBlock(err) {
			c.blocked++
			if err := c.backoff.Wait(ctx); err != nil {
				return fmt.Errorf("consumer: frame %d: %w", received, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("consumer: frame %d: %w", received, err)
		}
		c.backoff.Reset()
		recordSize(c.sizes, n, &c.dropped)
		c.bytes += int64(n)
		c.filled += n

		consumed, err := c.drain(&received)
		if err != nil {
			return err
		}
		if consumed == 0 && c.filled == len(c.window) {
			return fmt.Errorf("consumer: frame %d: %w", received, ErrNoProgress)
		}
	}
	if c.filled != 0 {
		return fmt.Errorf("consumer: %d trailing bytes after %d frames", c.filled, received)
	}
	return nil
}

// drain verifies and consumes every complete frame in the window, then moves
// the incomplete tail to the front.
func (c *consumer) drain(received *int) (int, error) {
	consumed := 0
	for *received < c.messages {
		adv, err := VerifyMessage(c.window[consumed:c.filled])
		if err != nil {
			return consumed, fmt.Errorf("consumer: frame %d: %w", *received, err)
		}
		if adv == 0 {
			break
		}
		want := c.expect[:GenerateMessage(c.mirror, c.expect[:])]
		if !bytes.Equal(c.window[consumed:consumed+adv], want) {
			return consumed, fmt.Errorf("consumer: frame %d: %w", *received, ErrMismatch)
		}
		consumed += adv
		*received++
	}
	c.filled = copy(c.window[:], c.window[consumed:c.filled])
	return consumed, nil
}
