// File: stress/producer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stress

import (
	"context"
	"fmt"

	"github.com/eapache/queue"
	"github.com/elastic/go-hdrhistogram"

	"github.com/momentics/hioload-ring/api"
	"github.com/momentics/hioload-ring/internal/concurrency"
)

// frame is one generated message and how much of it has been written.
type frame struct {
	buf [MaxMessageLen]byte
	n   int
	off int
}

// producer generates frames ahead into an outbox and pushes them through the
// ring, resuming partial writes where they stopped.
type producer struct {
	ring     api.ByteRing
	rng      *Rand
	messages int
	depth    int
	backoff  concurrency.Backoff

	outbox *queue.Queue // *frame, oldest first
	free   *queue.Queue // recycled *frame

	sizes   *hdrhistogram.Histogram
	dropped int64
	bytes   int64
	calls   int64
	blocked int64
}

func newProducer(rb api.ByteRing, seed uint32, messages int, cfg Config) *producer {
	return &producer{
		ring:     rb,
		rng:      NewRand(seed),
		messages: messages,
		depth:    cfg.OutboxDepth,
		backoff:  newBackoff(cfg.Backoff),
		outbox:   queue.New(),
		free:     queue.New(),
		sizes:    newSizeHistogram(),
	}
}

// fill tops the outbox up to depth frames while frames remain to be generated.
func (p *producer) fill(generated *int) {
	for p.outbox.Length() < p.depth && *generated < p.messages {
		var f *frame
		if p.free.Length() > 0 {
			f = p.free.Remove().(*frame)
		} else {
			f = new(frame)
		}
		f.n = GenerateMessage(p.rng, f.buf[:])
		f.off = 0
		p.outbox.Add(f)
		*generated++
	}
}

func (p *producer) run(ctx context.Context) error {
	generated := 0
	for sent := 0; sent < p.messages; {
		p.fill(&generated)
		f := p.outbox.Peek().(*frame)

		p.calls++
		n, err := p.ring.Write(f.buf[f.off:f.n])
		if api.IsWouldBlock(err) {
			p.blocked++
			if err := p.backoff.Wait(ctx); err != nil {
				return fmt.Errorf("producer: frame %d: %w", sent, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("producer: frame %d: %w", sent, err)
		}
		p.backoff.Reset()
		recordSize(p.sizes, n, &p.dropped)
		p.bytes += int64(n)

		f.off += n
		if f.off == f.n {
			p.free.Add(p.outbox.Remove())
			sent++
		}
	}
	return nil
}
