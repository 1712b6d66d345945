// File: stress/stress.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-ring/api"
	"github.com/momentics/hioload-ring/control"
	"github.com/momentics/hioload-ring/internal/concurrency"
	"github.com/momentics/hioload-ring/ring"
)

// RingFactory creates the ring under test.
type RingFactory func(capacity uint64) (api.ByteRing, error)

// NewRing is the default RingFactory.
func NewRing(capacity uint64) (api.ByteRing, error) {
	return ring.New(capacity)
}

// Runner drives stress runs for a Config.
type Runner struct {
	cfg     Config
	logger  *zap.Logger
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes
	newRing RingFactory
}

// Option customizes a Runner.
type Option func(*Runner)

// WithMetrics publishes each report under "stress.<capacity>." and counts
// runs and failures in "stress.runs" and "stress.failures". The seed of the
// latest run is kept in "stress.seed".
func WithMetrics(mr *control.MetricsRegistry) Option {
	return func(r *Runner) { r.metrics = mr }
}

// WithProbes registers a "ring.<capacity>" probe for the lifetime of each run.
func WithProbes(dp *control.DebugProbes) Option {
	return func(r *Runner) { r.probes = dp }
}

// WithRingFactory replaces the ring constructor.
func WithRingFactory(fn RingFactory) Option {
	return func(r *Runner) { r.newRing = fn }
}

// NewRunner validates cfg and returns a Runner. A nil logger disables logging.
func NewRunner(cfg Config, logger *zap.Logger, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint32(time.Now().UnixNano())
	}
	r := &Runner{
		cfg:     cfg,
		logger:  logger.Named("stress"),
		newRing: NewRing,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Seed returns the generator seed in use.
func (r *Runner) Seed() uint32 {
	return r.cfg.Seed
}

// Run executes one run per configured size and stops at the first failure.
func (r *Runner) Run(ctx context.Context) ([]Report, error) {
	reports := make([]Report, 0, len(r.cfg.Sizes))
	for _, size := range r.cfg.Sizes {
		rep, err := r.RunOne(ctx, size, r.cfg.MessagesFor(ring.RoundCapacity(size)))
		if err != nil {
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// RunOne streams messages frames through a fresh ring of the requested
// capacity and verifies them on the other side.
func (r *Runner) RunOne(ctx context.Context, size uint64, messages int) (Report, error) {
	rb, err := r.newRing(size)
	if err != nil {
		return Report{}, fmt.Errorf("stress: create ring %d: %w", size, err)
	}
	defer rb.Release()

	rep := Report{
		Capacity: rb.Cap(),
		Messages: messages,
		Seed:     r.cfg.Seed,
		Pinned:   r.cfg.Pin,
	}
	log := r.logger.With(zap.Int("capacity", rep.Capacity), zap.Int("messages", messages))

	probe := fmt.Sprintf("ring.%d", rep.Capacity)
	if r.probes != nil {
		r.probes.RegisterProbe(probe, ringProbe(rb))
		defer r.probes.UnregisterProbe(probe)
	}

	parent := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}
	if r.metrics != nil {
		r.metrics.Set("stress.seed", r.cfg.Seed)
		r.metrics.Add("stress.runs", 1)
	}

	prod := newProducer(rb, r.cfg.Seed, messages, r.cfg)
	cons := newConsumer(rb, r.cfg.Seed, messages, r.cfg)
	wcpu, rcpu := concurrency.PreferredCPUs()

	log.Info("stress run started", zap.Uint32("seed", r.cfg.Seed), zap.Bool("pin", r.cfg.Pin))
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer r.pin(log, "producer", wcpu)()
		return prod.run(gctx)
	})
	g.Go(func() error {
		defer r.pin(log, "consumer", rcpu)()
		return cons.run(gctx)
	})
	err = g.Wait()
	rep.Duration = time.Since(start)
	rep.Write = Side{Bytes: prod.bytes, Calls: prod.calls, Blocked: prod.blocked, Sizes: summarize(prod.sizes), Dropped: prod.dropped}
	rep.Read = Side{Bytes: cons.bytes, Calls: cons.calls, Blocked: cons.blocked, Sizes: summarize(cons.sizes), Dropped: cons.dropped}

	if err != nil {
		if r.cfg.Timeout > 0 && errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
			err = api.NewError(api.ErrCodeTimeout, "run timed out").
				WithContext("timeout", r.cfg.Timeout).
				WithCause(err)
		}
		if r.metrics != nil {
			r.metrics.Add("stress.failures", 1)
		}
		log.Error("stress run failed", zap.Error(err), zap.Int64("bytes", rep.Read.Bytes))
		return rep, fmt.Errorf("stress: ring %d: %w", rep.Capacity, err)
	}
	if r.metrics != nil {
		r.metrics.SetAll(fmt.Sprintf("stress.%d", rep.Capacity), rep.Metrics())
	}
	log.Info("stress run finished",
		zap.Duration("duration", rep.Duration),
		zap.Int64("bytes", rep.Read.Bytes),
		zap.Float64("throughput_bps", rep.Throughput()),
		zap.Int64("write_would_block", rep.Write.Blocked),
		zap.Int64("read_would_block", rep.Read.Blocked),
	)
	return rep, nil
}

// pin locks the calling goroutine to cpu when pinning is enabled and returns
// the matching undo.
func (r *Runner) pin(log *zap.Logger, side string, cpu int) func() {
	if !r.cfg.Pin {
		return func() {}
	}
	if err := concurrency.PinCurrentThread(cpu); err != nil {
		log.Warn("cpu pinning failed", zap.String("side", side), zap.Error(err))
	}
	return concurrency.UnpinCurrentThread
}

// ringProbe reports counters for rings that expose them.
func ringProbe(rb api.ByteRing) func() any {
	type snapshotter interface{ Snapshot() ring.Stats }
	if s, ok := rb.(snapshotter); ok {
		return func() any { return s.Snapshot() }
	}
	return func() any {
		return map[string]int{"capacity": rb.Cap(), "occupied": rb.Len()}
	}
}

func newBackoff(c BackoffConfig) concurrency.Backoff {
	return concurrency.Backoff{
		Spins:    c.Spins,
		Yields:   c.Yields,
		MinSleep: c.MinSleep,
		MaxSleep: c.MaxSleep,
	}
}

// Run is a convenience wrapper around NewRunner and Runner.Run.
func Run(ctx context.Context, cfg Config, logger *zap.Logger, opts ...Option) ([]Report, error) {
	r, err := NewRunner(cfg, logger, opts...)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx)
}
